package models

import "time"

type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"type:varchar(150);uniqueIndex;not null"`
	Email     string `gorm:"type:varchar(255);not null"`
	Password  string `gorm:"type:varchar(255);not null"`
	IsActive  bool   `gorm:"not null"`
	IsStaff   bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
