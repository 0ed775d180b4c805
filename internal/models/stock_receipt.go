package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReceiptType string

const (
	ReceiptPurchase   ReceiptType = "purchase"
	ReceiptTransfer   ReceiptType = "transfer"
	ReceiptCorrection ReceiptType = "correction"
)

func (t ReceiptType) Valid() bool {
	return t == ReceiptPurchase || t == ReceiptTransfer || t == ReceiptCorrection
}

// StockReceipt records inbound stock. Its quantity is applied to the good
// on create, the difference on update and reversed on delete.
type StockReceipt struct {
	ID          uint `gorm:"primaryKey"`
	ShopID      uint `gorm:"index;not null"`
	Shop        Shop
	GoodID      uint `gorm:"index;not null"`
	Good        Good
	Quantity    int             `gorm:"not null"`
	ReceiptType ReceiptType     `gorm:"size:20;not null;default:purchase"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TotalCost   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Supplier    string          `gorm:"size:200"`
	Notes       string          `gorm:"type:text"`
	CreatedByID uint            `gorm:"index;not null"`
	CreatedBy   User
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}
