package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductNormal          ProductType = "normal"
	ProductCigarettePack   ProductType = "cigarette_pack"
	ProductCigaretteSingle ProductType = "cigarette_single"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductNormal, ProductCigarettePack, ProductCigaretteSingle:
		return true
	}
	return false
}

// Good is a sellable product scoped to one shop. StockCount is only
// changed through internal/stock after creation.
type Good struct {
	ID          uint            `gorm:"primaryKey"`
	ShopID      uint            `gorm:"not null;uniqueIndex:idx_goods_shop_barcode,priority:1"`
	Shop        Shop
	CategoryID  uint `gorm:"index;not null"`
	Category    Category
	Name        string          `gorm:"size:200;not null;index"`
	Barcode     string          `gorm:"size:100;not null;index;uniqueIndex:idx_goods_shop_barcode,priority:2"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	BuyPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	StockCount  int             `gorm:"not null;default:0"`
	ProductType ProductType     `gorm:"size:20;not null;default:normal"`
	// RelatedSingleID links a cigarette pack to the single-cigarette good
	// that opening the pack fills.
	RelatedSingleID *uint `gorm:"index"`
	RelatedSingle   *Good `gorm:"foreignKey:RelatedSingleID"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (g *Good) IsPack() bool { return g.ProductType == ProductCigarettePack }
