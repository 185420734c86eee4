package models

import "time"

// Token is the opaque bearer credential of a user. A user has at most one.
type Token struct {
	Key       string    `gorm:"primaryKey;column:token_key;size:40" json:"token"`
	UserID    uint      `gorm:"column:user_id;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
