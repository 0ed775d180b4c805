package models

import "time"

type MovementReason string

const (
	MovementSale          MovementReason = "sale"
	MovementDebt          MovementReason = "debt"
	MovementDebtCancel    MovementReason = "debt_cancel"
	MovementPackOpen      MovementReason = "pack_open"
	MovementReceipt       MovementReason = "receipt"
	MovementReceiptUpdate MovementReason = "receipt_update"
	MovementReceiptDelete MovementReason = "receipt_delete"
)

// StockMovement is the append-only ledger behind goods.stock_count.
type StockMovement struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ShopID      uint           `gorm:"index;not null" json:"shop_id"`
	GoodID      uint           `gorm:"index;not null" json:"good_id"`
	Reason      MovementReason `gorm:"size:30;not null" json:"reason"`
	Delta       int            `gorm:"not null" json:"delta"`
	StockBefore int            `gorm:"not null" json:"stock_before"`
	StockAfter  int            `gorm:"not null" json:"stock_after"`
	ReferenceID *uint          `json:"reference_id"`
	UserID      *uint          `json:"user_id"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}
