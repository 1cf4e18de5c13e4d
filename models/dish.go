package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Dish struct {
	ID            uint            `gorm:"primaryKey"`
	MenuID        uint            `gorm:"not null;index"`
	Menu          *Menu           `gorm:"foreignKey:MenuID;references:ID"`
	Name          string          `gorm:"type:varchar(255);not null"`
	Description   string          `gorm:"type:text;not null"`
	Price         decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	TimeToPrepare uint            `gorm:"not null"` // minutes
	IsVegetarian  bool            `gorm:"not null"`
	Image         string          `gorm:"type:varchar(255)"`
	Created       time.Time       `gorm:"not null;index"`
	Updated       *time.Time      `gorm:"index"`
}

func (Dish) TableName() string {
	return "dishes"
}
