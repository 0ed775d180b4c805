package debt

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
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

type Line struct {
	GoodID   uint
	Quantity int
}

type CreateInput struct {
	ShopID        uint
	CustomerName  string
	CustomerPhone string
	DueDate       string // YYYY-MM-DD
	Description   string
	Lines         []Line
}

type PayInput struct {
	DebtID uint
	Amount decimal.Decimal
	Note   string
}

type ListFilter struct {
	ShopID *uint
	Status models.DebtStatus
	Limit  int
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Create records a credit sale: stock leaves the shop now, the money is
// collected later through Pay.
func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (*models.Debt, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if in.CustomerName == "" {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "customer_name"})
	}
	if strings.TrimSpace(in.DueDate) == "" {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "due_date"})
	}
	// Due dates are calendar days, kept as UTC midnight.
	due, err := time.Parse(dateLayout, strings.TrimSpace(in.DueDate))
	if err != nil {
		return nil, apperr.Validation(apperr.MsgInvalidDate, map[string]any{"Field": "due_date"})
	}
	if len(in.Lines) == 0 {
		return nil, apperr.Validation(apperr.MsgItemsRequired, nil)
	}
	for _, l := range in.Lines {
		if l.GoodID == 0 {
			return nil, apperr.Validation(apperr.MsgInvalidID, nil)
		}
		if l.Quantity < 1 {
			return nil, apperr.Validation(apperr.MsgInvalidQuantity, nil)
		}
	}
	if !actor.CanAccessShop(in.ShopID) {
		return nil, apperr.Forbidden(apperr.MsgShopAccessDenied)
	}

	var d models.Debt
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shop models.Shop
		if err := tx.First(&shop, in.ShopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(apperr.MsgShopNotFound, nil)
			}
			return apperr.Internal(err)
		}

		wanted := make(map[uint]int, len(in.Lines))
		ids := make([]uint, 0, len(in.Lines))
		for _, l := range in.Lines {
			if _, ok := wanted[l.GoodID]; !ok {
				ids = append(ids, l.GoodID)
			}
			wanted[l.GoodID] += l.Quantity
		}

		goods, err := stock.LockGoods(tx, ids)
		if err != nil {
			return err
		}
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

		total := decimal.Zero
		items := make([]models.DebtItem, 0, len(in.Lines))
		for _, l := range in.Lines {
			g := goods[l.GoodID]
			line := g.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			items = append(items, models.DebtItem{
				GoodID:     g.ID,
				Quantity:   l.Quantity,
				UnitPrice:  g.Price,
				TotalPrice: line,
			})
			total = total.Add(line)
		}

		d = models.Debt{
			ShopID:        shop.ID,
			CustomerName:  in.CustomerName,
			CustomerPhone: strings.TrimSpace(in.CustomerPhone),
			TotalAmount:   total,
			PaidAmount:    decimal.Zero,
			Status:        models.DebtPending,
			DueDate:       due,
			Description:   strings.TrimSpace(in.Description),
			CreatedByID:   actor.UserID,
			Items:         items,
		}
		d.Recalculate()

		if err := tx.Omit("Shop", "CreatedBy").Create(&d).Error; err != nil {
			return apperr.Internal(fmt.Errorf("create debt: %w", err))
		}

		for _, it := range d.Items {
			err := stock.Apply(tx, goods[it.GoodID], -it.Quantity, stock.Movement{
				Reason:      models.MovementDebt,
				ReferenceID: &d.ID,
				UserID:      actor.UserRef(),
			})
			if err != nil {
				return err
			}
		}

		return audit.WriteLog(tx, audit.LogOptions{
			ShopID:      &d.ShopID,
			Actor:       actor,
			EntityType:  "debt",
			EntityID:    d.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("debt for %s, total %s", d.CustomerName, d.TotalAmount.StringFixed(2)),
			After:       d,
		})
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Pay records a partial or full repayment of a pending debt.
func (s *Service) Pay(ctx context.Context, actor models.Actor, in PayInput) (*models.Debt, error) {
	// money columns hold whole cents
	if !in.Amount.IsPositive() || !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, apperr.Validation(apperr.MsgInvalidAmount, nil)
	}

	var d models.Debt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDebt(tx, in.DebtID, &d); err != nil {
			return err
		}
		if !actor.CanAccessShop(d.ShopID) {
			return apperr.Forbidden(apperr.MsgShopAccessDenied)
		}
		if d.Status != models.DebtPending {
			return apperr.Conflict(apperr.MsgDebtNotPending, map[string]any{"Status": string(d.Status)})
		}
		if in.Amount.GreaterThan(d.RemainingAmount) {
			return apperr.Conflict(apperr.MsgPaymentExceedsBalance, map[string]any{
				"Remaining": d.RemainingAmount.StringFixed(2),
			})
		}

		before := d
		d.PaidAmount = d.PaidAmount.Add(in.Amount)
		d.Recalculate()

		err := tx.Model(&models.Debt{}).Where("id = ?", d.ID).Updates(map[string]any{
			"paid_amount":      d.PaidAmount,
			"remaining_amount": d.RemainingAmount,
			"status":           d.Status,
			"updated_at":       tx.NowFunc(),
		}).Error
		if err != nil {
			return apperr.Internal(fmt.Errorf("update debt: %w", err))
		}

		p := models.DebtPayment{
			DebtID:      d.ID,
			Amount:      in.Amount,
			Note:        strings.TrimSpace(in.Note),
			CreatedByID: actor.UserID,
		}
		if err := tx.Create(&p).Error; err != nil {
			return apperr.Internal(fmt.Errorf("create debt payment: %w", err))
		}

		return audit.WriteLog(tx, audit.LogOptions{
			ShopID:      &d.ShopID,
			Actor:       actor,
			EntityType:  "debt",
			EntityID:    d.ID,
			Action:      models.AuditActionPay,
			Description: fmt.Sprintf("payment %s, remaining %s", in.Amount.StringFixed(2), d.RemainingAmount.StringFixed(2)),
			Before:      before,
			After:       d,
		})
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Cancel voids a pending debt and returns its goods to stock. Payments
// already received stay recorded in paid_amount.
func (s *Service) Cancel(ctx context.Context, actor models.Actor, debtID uint) (*models.Debt, error) {
	var d models.Debt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDebt(tx, debtID, &d); err != nil {
			return err
		}
		if !actor.CanAccessShop(d.ShopID) {
			return apperr.Forbidden(apperr.MsgShopAccessDenied)
		}
		if d.Status != models.DebtPending {
			return apperr.Conflict(apperr.MsgDebtNotPending, map[string]any{"Status": string(d.Status)})
		}

		var items []models.DebtItem
		if err := tx.Where("debt_id = ?", d.ID).Order("id").Find(&items).Error; err != nil {
			return apperr.Internal(err)
		}
		ids := make([]uint, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.GoodID)
		}
		goods, err := stock.LockGoods(tx, ids)
		if err != nil {
			return err
		}
		for _, it := range items {
			err := stock.Apply(tx, goods[it.GoodID], it.Quantity, stock.Movement{
				Reason:      models.MovementDebtCancel,
				ReferenceID: &d.ID,
				UserID:      actor.UserRef(),
			})
			if err != nil {
				return err
			}
		}

		before := d
		d.Status = models.DebtCancelled
		err = tx.Model(&models.Debt{}).Where("id = ?", d.ID).Updates(map[string]any{
			"status":     d.Status,
			"updated_at": tx.NowFunc(),
		}).Error
		if err != nil {
			return apperr.Internal(fmt.Errorf("cancel debt: %w", err))
		}
		d.Items = items

		return audit.WriteLog(tx, audit.LogOptions{
			ShopID:      &d.ShopID,
			Actor:       actor,
			EntityType:  "debt",
			EntityID:    d.ID,
			Action:      models.AuditActionCancel,
			Description: fmt.Sprintf("debt of %s cancelled, %d lines restocked", d.CustomerName, len(items)),
			Before:      before,
			After:       d,
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("debt cancelled",
		zap.Uint("debt_id", d.ID),
		zap.Uint("shop_id", d.ShopID),
		zap.String("paid_amount", d.PaidAmount.StringFixed(2)),
	)
	return &d, nil
}

func (s *Service) Get(ctx context.Context, actor models.Actor, id uint) (*models.Debt, error) {
	var d models.Debt
	err := s.db.WithContext(ctx).
		Preload("Shop").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Good").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&d, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.MsgDebtNotFound, nil)
		}
		return nil, apperr.Internal(err)
	}
	if !actor.CanAccessShop(d.ShopID) {
		return nil, apperr.Forbidden(apperr.MsgShopAccessDenied)
	}
	return &d, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Debt, error) {
	q := s.db.WithContext(ctx).Model(&models.Debt{}).Preload("Shop")
	if f.ShopID != nil {
		q = q.Where("shop_id = ?", *f.ShopID)
	}
	if f.Status != "" {
		if !f.Status.Valid() {
			return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "status"})
		}
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []models.Debt
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func lockDebt(tx *gorm.DB, id uint, d *models.Debt) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(d, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(apperr.MsgDebtNotFound, nil)
		}
		return apperr.Internal(err)
	}
	return nil
}
