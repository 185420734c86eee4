package models

import "time"

// Room categories.
const (
	CategorySuite    = "suite"
	CategoryStandard = "standard"
	CategoryDeluxe   = "deluxe"
)

// Supported price currencies.
const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// Defaults applied when a new room omits the field.
const (
	DefaultPricePerNight = 150
	DefaultCurrency      = CurrencyUSD
	DefaultMaxOccupancy  = 1
)

type Room struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Name          string      `gorm:"column:name;size:100" json:"name"`
	Category      string      `gorm:"column:category;size:20" json:"category"`
	PricePerNight int         `gorm:"column:price_per_night" json:"price_per_night"`
	Currency      string      `gorm:"column:currency;size:10" json:"currency"`
	MaxOccupancy  int         `gorm:"column:max_occupancy" json:"max_occupancy"`
	Description   string      `gorm:"column:description;type:text" json:"description"`
	Images        []RoomImage `gorm:"foreignKey:RoomID" json:"images,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// IsValidCategory reports whether c is one of the known room categories.
func IsValidCategory(c string) bool {
	switch c {
	case CategorySuite, CategoryStandard, CategoryDeluxe:
		return true
	}
	return false
}

func IsValidCurrency(c string) bool {
	return c == CurrencyUSD || c == CurrencyEUR
}
