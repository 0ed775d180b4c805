package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DebtStatus string

const (
	DebtPending   DebtStatus = "pending"
	DebtPaid      DebtStatus = "paid"
	DebtCancelled DebtStatus = "cancelled"
)

func (s DebtStatus) Valid() bool {
	return s == DebtPending || s == DebtPaid || s == DebtCancelled
}

type Debt struct {
	ID              uint   `gorm:"primaryKey"`
	ShopID          uint   `gorm:"index;not null"`
	Shop            Shop
	CustomerName    string          `gorm:"size:200;not null"`
	CustomerPhone   string          `gorm:"size:20"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status          DebtStatus      `gorm:"size:20;not null;default:pending;index"`
	DueDate         time.Time       `gorm:"not null"`
	Description     string          `gorm:"type:text"`
	CreatedByID     uint            `gorm:"index;not null"`
	CreatedBy       User
	Items           []DebtItem    `gorm:"constraint:OnDelete:CASCADE"`
	Payments        []DebtPayment `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time     `gorm:"index"`
	UpdatedAt       time.Time
}

// Recalculate keeps remaining = total - paid and moves a pending debt to
// paid once nothing is left.
func (d *Debt) Recalculate() {
	d.RemainingAmount = d.TotalAmount.Sub(d.PaidAmount)
	if d.RemainingAmount.LessThanOrEqual(decimal.Zero) && d.Status == DebtPending {
		d.Status = DebtPaid
	}
}

type DebtItem struct {
	ID         uint `gorm:"primaryKey"`
	DebtID     uint `gorm:"index;not null"`
	GoodID     uint `gorm:"index;not null"`
	Good       Good
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

type DebtPayment struct {
	ID          uint            `gorm:"primaryKey"`
	DebtID      uint            `gorm:"index;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Note        string          `gorm:"size:255"`
	CreatedByID uint            `gorm:"not null"`
	CreatedAt   time.Time
}
