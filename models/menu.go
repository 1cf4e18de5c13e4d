package models

import "time"

type Menu struct {
	ID          uint       `gorm:"primaryKey"`
	Name        string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description string     `gorm:"type:text;not null"`
	Created     time.Time  `gorm:"not null;index"`
	Updated     *time.Time `gorm:"index"`
	Dishes      []Dish     `gorm:"foreignKey:MenuID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// NumDishes is only populated by queries that annotate the dish count.
	NumDishes int64 `gorm:"->;-:migration"`
}
