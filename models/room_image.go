package models

import "time"

// RoomImage belongs to exactly one room and is removed together with it.
type RoomImage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomID      uint      `gorm:"column:room_id;index" json:"room_id"`
	StorageKey  string    `gorm:"column:storage_key;size:255" json:"-"`
	URL         string    `gorm:"column:url;size:512" json:"url"`
	ContentType string    `gorm:"column:content_type;size:100" json:"content_type"`
	Caption     *string   `gorm:"column:caption;size:255" json:"caption"`
	CreatedAt   time.Time `json:"created_at"`
}
