package models

import (
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the wire format of a booking date.
const DateLayout = "2006-01-02"

// Booking occupies one room for one calendar date. The pair (room_id, date)
// is unique in storage (uq_bookings_room_date).
type Booking struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	RoomID    uint           `gorm:"column:room_id" json:"room_id"`
	UserID    uint           `gorm:"column:user_id;index" json:"user_id"`
	Date      datatypes.Date `gorm:"column:date" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Day returns the booking date formatted as YYYY-MM-DD.
func (b Booking) Day() string {
	return time.Time(b.Date).Format(DateLayout)
}
