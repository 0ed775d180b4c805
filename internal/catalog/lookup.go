package catalog

import (
	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"gorm.io/gorm"
)

// Candidate is one of several goods matching an ambiguous barcode lookup.
type Candidate struct {
	ID         uint               `json:"id"`
	Name       string             `json:"name"`
	Barcode    string             `json:"barcode"`
	ShopID     uint               `json:"shop_id"`
	ShopName   string             `json:"shop_name"`
	StockCount int                `json:"stock_count"`
	Type       models.ProductType `json:"product_type"`
}

// FindByBarcode looks a barcode up within the caller's shop scope. Workers
// search their own shop; admins the given shop or, without one, every
// shop. More than one hit is reported as ambiguous with the candidates.
func FindByBarcode(db *gorm.DB, actor models.Actor, barcode string, shopID *uint) ([]models.Good, error) {
	q := db.Preload("Shop").Where("barcode = ?", barcode)
	switch {
	case actor.IsWorker():
		if actor.ShopID == nil {
			return nil, apperr.Forbidden(apperr.MsgShopAccessDenied)
		}
		q = q.Where("shop_id = ?", *actor.ShopID)
	case shopID != nil:
		q = q.Where("shop_id = ?", *shopID)
	}

	var goods []models.Good
	if err := q.Order("id").Find(&goods).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	switch len(goods) {
	case 0:
		return nil, apperr.NotFound(apperr.MsgGoodNotFound, map[string]any{"Barcode": barcode})
	case 1:
		return goods, nil
	}

	cands := make([]Candidate, 0, len(goods))
	for _, g := range goods {
		cands = append(cands, Candidate{
			ID:         g.ID,
			Name:       g.Name,
			Barcode:    g.Barcode,
			ShopID:     g.ShopID,
			ShopName:   g.Shop.Name,
			StockCount: g.StockCount,
			Type:       g.ProductType,
		})
	}
	return nil, apperr.Ambiguous(apperr.MsgMultipleGoods, cands)
}
