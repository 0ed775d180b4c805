// Package receipt records inbound stock: purchases, transfers between shops
// and manual corrections.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/audit"
	"github.com/cmakhmud/smoking-shop/internal/models"
	"github.com/cmakhmud/smoking-shop/internal/stock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Input struct {
	ShopID   uint
	GoodID   uint
	Quantity int
	Type     models.ReceiptType
	UnitCost decimal.Decimal
	Supplier string
	Notes    string
}

type ListFilter struct {
	ShopID *uint
	GoodID *uint
	From   *time.Time
	To     *time.Time
	Limit  int
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func validate(in *Input) error {
	if in.Type == "" {
		in.Type = models.ReceiptPurchase
	}
	if !in.Type.Valid() {
		return apperr.Validation(apperr.MsgInvalidReceiptType, nil)
	}
	if in.Quantity == 0 || (in.Quantity < 0 && in.Type != models.ReceiptCorrection) {
		return apperr.Validation(apperr.MsgInvalidQuantity, nil)
	}
	if in.UnitCost.IsNegative() {
		return apperr.Validation(apperr.MsgInvalidPrice, nil)
	}
	// the stored cost has two decimals and total_cost is derived from it
	in.UnitCost = in.UnitCost.Round(2)
	in.Supplier = strings.TrimSpace(in.Supplier)
	in.Notes = strings.TrimSpace(in.Notes)
	return nil
}

func totalCost(qty int, unit decimal.Decimal) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

// Create stores the receipt and adds its quantity to the good.
func (s *Service) Create(ctx context.Context, actor models.Actor, in Input) (*models.StockReceipt, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}
	if in.GoodID == 0 {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "good_id"})
	}
	if !actor.CanAccessShop(in.ShopID) {
		return nil, apperr.Forbidden(apperr.MsgShopAccessDenied)
	}

	var r models.StockReceipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := stock.LockGood(tx, in.GoodID)
		if err != nil {
			return err
		}
		if g.ShopID != in.ShopID {
			return apperr.Validation(apperr.MsgGoodNotInShop, map[string]any{"Name": g.Name})
		}

		r = models.StockReceipt{
			ShopID:      in.ShopID,
			GoodID:      g.ID,
			Quantity:    in.Quantity,
			ReceiptType: in.Type,
			UnitCost:    in.UnitCost,
			TotalCost:   totalCost(in.Quantity, in.UnitCost),
			Supplier:    in.Supplier,
			Notes:       in.Notes,
			CreatedByID: actor.UserID,
		}
		if err := tx.Omit(clause.Associations).Create(&r).Error; err != nil {
			return apperr.Internal(fmt.Errorf("create stock receipt: %w", err))
		}

		err = stock.Apply(tx, g, in.Quantity, stock.Movement{
			Reason:      models.MovementReceipt,
			ReferenceID: &r.ID,
			UserID:      actor.UserRef(),
		})
		if err != nil {
			return err
		}
		r.Good = *g

		return audit.WriteLog(tx, audit.LogOptions{
			ShopID:      &r.ShopID,
			Actor:       actor,
			EntityType:  "stock_receipt",
			EntityID:    r.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("%s %+d %s, stock now %d", r.ReceiptType, r.Quantity, g.Name, g.StockCount),
			After:       r,
		})
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Update rewrites a receipt and applies the quantity difference to the
// good. The good of a receipt cannot change.
func (s *Service) Update(ctx context.Context, actor models.Actor, id uint, in Input) (*models.StockReceipt, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}

	var r models.StockReceipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockReceipt(tx, id, &r); err != nil {
			return err
		}
		if !actor.CanAccessShop(r.ShopID) {
			return apperr.Forbidden(apperr.MsgShopAccessDenied)
		}
		if in.GoodID != 0 && in.GoodID != r.GoodID {
			return apperr.Validation(apperr.MsgGoodNotInShop, nil)
		}

		g, err := stock.LockGood(tx, r.GoodID)
		if err != nil {
			return err
		}

		before := r
		delta := in.Quantity - r.Quantity
		if err := stock.Apply(tx, g, delta, stock.Movement{
			Reason:      models.MovementReceiptUpdate,
			ReferenceID: &r.ID,
			UserID:      actor.UserRef(),
		}); err != nil {
			return err
		}

		r.Quantity = in.Quantity
		r.ReceiptType = in.Type
		r.UnitCost = in.UnitCost
		r.TotalCost = totalCost(in.Quantity, in.UnitCost)
		r.Supplier = in.Supplier
		r.Notes = in.Notes
		if err := tx.Omit(clause.Associations).Save(&r).Error; err != nil {
			return apperr.Internal(fmt.Errorf("update stock receipt: %w", err))
		}
		r.Good = *g

		return audit.WriteLog(tx, audit.LogOptions{
			ShopID:      &r.ShopID,
			Actor:       actor,
			EntityType:  "stock_receipt",
			EntityID:    r.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("quantity %d -> %d for %s", before.Quantity, r.Quantity, g.Name),
			Before:      before,
			After:       r,
		})
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete removes a receipt and takes its quantity back out of stock.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r models.StockReceipt
		if err := lockReceipt(tx, id, &r); err != nil {
			return err
		}
		if !actor.CanAccessShop(r.ShopID) {
			return apperr.Forbidden(apperr.MsgShopAccessDenied)
		}

		g, err := stock.LockGood(tx, r.GoodID)
		if err != nil {
			return err
		}
		if err := stock.Apply(tx, g, -r.Quantity, stock.Movement{
			Reason:      models.MovementReceiptDelete,
			ReferenceID: &r.ID,
			UserID:      actor.UserRef(),
		}); err != nil {
			return err
		}

		if err := tx.Delete(&models.StockReceipt{}, r.ID).Error; err != nil {
			return apperr.Internal(fmt.Errorf("delete stock receipt: %w", err))
		}

		return audit.WriteLog(tx, audit.LogOptions{
			ShopID:      &r.ShopID,
			Actor:       actor,
			EntityType:  "stock_receipt",
			EntityID:    r.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("receipt removed, %s stock now %d", g.Name, g.StockCount),
			Before:      r,
		})
	})
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]models.StockReceipt, error) {
	q := s.db.WithContext(ctx).Model(&models.StockReceipt{}).Preload("Good").Preload("Shop")
	if f.ShopID != nil {
		q = q.Where("shop_id = ?", *f.ShopID)
	}
	if f.GoodID != nil {
		q = q.Where("good_id = ?", *f.GoodID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("created_at < ?", f.To.UTC())
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var out []models.StockReceipt
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func lockReceipt(tx *gorm.DB, id uint, r *models.StockReceipt) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(r, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(apperr.MsgReceiptNotFound, nil)
		}
		return apperr.Internal(err)
	}
	return nil
}
