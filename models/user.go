package models

import "time"

// User is an account that authenticates by email.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"column:email;size:254;uniqueIndex" json:"email"`
	FullName    string    `gorm:"column:full_name;size:100" json:"full_name"`
	Password    string    `gorm:"column:password;size:255" json:"-"` // bcrypt digest, never returned
	IsStaff     bool      `gorm:"column:is_staff" json:"is_staff"`
	IsSuperuser bool      `gorm:"column:is_superuser" json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
