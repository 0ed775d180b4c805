package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one line of a completed checkout. Lines of the same checkout
// share ReceiptNo and Timestamp.
type Sale struct {
	ID         uint `gorm:"primaryKey"`
	ShopID     uint `gorm:"index;not null"`
	Shop       Shop
	GoodID     uint `gorm:"index;not null"`
	Good       Good
	Quantity   int             `gorm:"not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ReceiptNo  string          `gorm:"size:36;index;not null"`
	Timestamp  time.Time       `gorm:"index;not null"`
}
