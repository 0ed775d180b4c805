package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID          uint `gorm:"primaryKey"`
	ShopID      uint `gorm:"index;not null"`
	Shop        Shop
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Description string          `gorm:"type:text"`
	CreatedByID uint            `gorm:"index;not null"`
	CreatedBy   User
	// ExpenseDate is the calendar day of the expense, kept as UTC midnight.
	ExpenseDate time.Time `gorm:"index;not null"`
	CreatedAt   time.Time
}
