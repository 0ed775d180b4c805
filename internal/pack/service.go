// Package pack opens cigarette packs into single cigarettes.
package pack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/audit"
	"github.com/cmakhmud/smoking-shop/internal/catalog"
	"github.com/cmakhmud/smoking-shop/internal/models"
	"github.com/cmakhmud/smoking-shop/internal/stock"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OpenInput struct {
	GoodID  uint
	Barcode string
	ShopID  *uint
}

type OpenResult struct {
	Pack   models.Good
	Single models.Good
	Added  int
}

type Service struct {
	db       *gorm.DB
	packSize int
	log      *zap.Logger
}

func NewService(db *gorm.DB, packSize int, log *zap.Logger) *Service {
	return &Service{db: db, packSize: packSize, log: log}
}

// Open converts one pack into packSize singles of its linked good.
func (s *Service) Open(ctx context.Context, actor models.Actor, in OpenInput) (*OpenResult, error) {
	db := s.db.WithContext(ctx)

	packGood, err := s.resolve(db, actor, in)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessShop(packGood.ShopID) {
		return nil, apperr.Forbidden(apperr.MsgShopAccessDenied)
	}

	var res OpenResult
	err = db.Transaction(func(tx *gorm.DB) error {
		if !packGood.IsPack() {
			return apperr.Validation(apperr.MsgNotAPack, map[string]any{"Name": packGood.Name})
		}
		if packGood.RelatedSingleID == nil {
			return apperr.Validation(apperr.MsgNoRelatedSingle, map[string]any{"Name": packGood.Name})
		}

		goods, err := stock.LockGoods(tx, []uint{packGood.ID, *packGood.RelatedSingleID})
		if err != nil {
			return err
		}
		p := goods[packGood.ID]
		if p.RelatedSingleID == nil || !p.IsPack() {
			return apperr.Validation(apperr.MsgNoRelatedSingle, map[string]any{"Name": p.Name})
		}
		single, ok := goods[*p.RelatedSingleID]
		if !ok || single.ProductType != models.ProductCigaretteSingle || single.ShopID != p.ShopID {
			return apperr.Validation(apperr.MsgInvalidRelatedSingle, map[string]any{"Name": p.Name})
		}
		if p.StockCount <= 0 {
			return apperr.Conflict(apperr.MsgPackEmpty, map[string]any{"Name": p.Name})
		}

		mv := stock.Movement{Reason: models.MovementPackOpen, ReferenceID: &p.ID, UserID: actor.UserRef()}
		if err := stock.Apply(tx, p, -1, mv); err != nil {
			return err
		}
		if err := stock.Apply(tx, single, s.packSize, mv); err != nil {
			return err
		}

		res = OpenResult{Pack: *p, Single: *single, Added: s.packSize}

		return audit.WriteLog(tx, audit.LogOptions{
			ShopID:      &p.ShopID,
			Actor:       actor,
			EntityType:  "good",
			EntityID:    p.ID,
			Action:      models.AuditActionOpen,
			Description: fmt.Sprintf("opened 1 x %s into %d x %s", p.Name, s.packSize, single.Name),
			After: map[string]any{
				"pack_stock":   p.StockCount,
				"single_id":    single.ID,
				"single_stock": single.StockCount,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Service) resolve(db *gorm.DB, actor models.Actor, in OpenInput) (*models.Good, error) {
	if in.GoodID != 0 {
		var g models.Good
		if err := db.First(&g, in.GoodID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound(apperr.MsgGoodNotFound, nil)
			}
			return nil, apperr.Internal(err)
		}
		return &g, nil
	}

	barcode := strings.TrimSpace(in.Barcode)
	if barcode == "" {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "barcode"})
	}

	matches, err := catalog.FindByBarcode(db, actor, barcode, in.ShopID)
	if err != nil {
		return nil, err
	}
	return &matches[0], nil
}
