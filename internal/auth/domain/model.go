// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	DefaultTable = "syusers"

	StatusActive = 1
	TypeAdmin    = "admin"
)

// User represents a row of the user table.
type User struct {
	ID       snowflake.ID `gorm:"column:Id;primaryKey;autoIncrement:false"`
	Username string       `gorm:"column:Username;size:191;not null;uniqueIndex"`
	Password string       `gorm:"column:Password;size:255;not null"`
	FullName string       `gorm:"column:Full_Name;size:255"`
	Status   int          `gorm:"column:Status;not null;default:1"`
	Type     string       `gorm:"column:Type;size:32;not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return DefaultTable }

// Principal is the identity carried by a verified token.
type Principal struct {
	UserID    string    `json:"id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
