package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/audit"
	"github.com/cmakhmud/smoking-shop/internal/idempotency"
	"github.com/cmakhmud/smoking-shop/internal/models"
	"github.com/cmakhmud/smoking-shop/internal/stock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Line struct {
	GoodID   uint
	Quantity int
}

type Request struct {
	ShopID uint
	Lines  []Line
	// Token is the client's duplicate-submission key. Optional.
	Token string
}

type Result struct {
	Duplicate bool
	ReceiptNo string
	Total     decimal.Decimal
	Sales     []models.Sale
}

type Service struct {
	db   *gorm.DB
	idem idempotency.Store
	log  *zap.Logger
	now  func() time.Time
}

func NewService(db *gorm.DB, idem idempotency.Store, log *zap.Logger) *Service {
	return &Service{db: db, idem: idem, log: log, now: time.Now}
}

// Process records a sale batch. Either every line is applied or none is.
func (s *Service) Process(ctx context.Context, actor models.Actor, req Request) (*Result, error) {
	if req.ShopID == 0 || len(req.Lines) == 0 {
		return nil, apperr.Validation(apperr.MsgItemsRequired, nil)
	}
	for _, l := range req.Lines {
		if l.GoodID == 0 {
			return nil, apperr.Validation(apperr.MsgInvalidID, nil)
		}
		if l.Quantity < 1 {
			return nil, apperr.Validation(apperr.MsgInvalidQuantity, nil)
		}
	}

	key := ""
	if req.Token != "" && s.idem != nil {
		k := idempotency.SaleKey(req.ShopID, req.Token)
		ok, err := s.idem.Reserve(ctx, k)
		switch {
		case err != nil:
			// an unreachable store leaves the sale unguarded
			s.log.Warn("idempotency reserve failed", zap.String("key", k), zap.Error(err))
		case !ok:
			s.log.Info("duplicate sale submission", zap.Uint("shop_id", req.ShopID), zap.String("token", req.Token))
			return &Result{Duplicate: true}, nil
		default:
			key = k
		}
	}

	res, err := s.apply(ctx, actor, req)
	if err != nil {
		if key != "" {
			if rerr := s.idem.Release(context.WithoutCancel(ctx), key); rerr != nil {
				s.log.Warn("idempotency release failed", zap.String("key", key), zap.Error(rerr))
			}
		}
		return nil, err
	}
	return res, nil
}

func (s *Service) apply(ctx context.Context, actor models.Actor, req Request) (*Result, error) {
	res := &Result{
		ReceiptNo: uuid.NewString(),
		Total:     decimal.Zero,
	}
	ts := s.now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shop models.Shop
		if err := tx.First(&shop, req.ShopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(apperr.MsgShopNotFound, nil)
			}
			return apperr.Internal(err)
		}

		wanted := make(map[uint]int, len(req.Lines))
		ids := make([]uint, 0, len(req.Lines))
		for _, l := range req.Lines {
			if _, ok := wanted[l.GoodID]; !ok {
				ids = append(ids, l.GoodID)
			}
			wanted[l.GoodID] += l.Quantity
		}

		goods, err := stock.LockGoods(tx, ids)
		if err != nil {
			return err
		}

		// Validate the whole batch before touching anything.
		for _, id := range ids {
			g := goods[id]
			if g.ShopID != shop.ID {
				return apperr.NotFound(apperr.MsgGoodNotInShop, map[string]any{"Name": g.Name})
			}
			if g.StockCount < wanted[id] {
				return apperr.Conflict(apperr.MsgInsufficientStock, map[string]any{
					"Name":      g.Name,
					"Available": g.StockCount,
				})
			}
		}

		for _, l := range req.Lines {
			g := goods[l.GoodID]
			sale := models.Sale{
				ShopID:     shop.ID,
				GoodID:     g.ID,
				Quantity:   l.Quantity,
				TotalPrice: g.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
				ReceiptNo:  res.ReceiptNo,
				Timestamp:  ts,
			}
			if err := tx.Create(&sale).Error; err != nil {
				return apperr.Internal(fmt.Errorf("create sale: %w", err))
			}
			err := stock.Apply(tx, g, -l.Quantity, stock.Movement{
				Reason:      models.MovementSale,
				ReferenceID: &sale.ID,
				UserID:      actor.UserRef(),
			})
			if err != nil {
				return err
			}
			res.Total = res.Total.Add(sale.TotalPrice)
			res.Sales = append(res.Sales, sale)
		}

		return audit.WriteLog(tx, audit.LogOptions{
			ShopID:      &shop.ID,
			Actor:       actor,
			EntityType:  "sale",
			EntityID:    res.Sales[0].ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("receipt %s, %d lines, total %s", res.ReceiptNo, len(res.Sales), res.Total.StringFixed(2)),
			After:       res.Sales,
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByReceipt returns the lines of one checkout.
func (s *Service) ListByReceipt(ctx context.Context, receiptNo string, shopID *uint) ([]models.Sale, error) {
	q := s.db.WithContext(ctx).Preload("Good").Where("receipt_no = ?", receiptNo)
	if shopID != nil {
		q = q.Where("shop_id = ?", *shopID)
	}
	var out []models.Sale
	err := q.Order("id").Find(&out).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(out) == 0 {
		return nil, apperr.NotFound(apperr.MsgReceiptNotFound, nil)
	}
	return out, nil
}
