package expense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/audit"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DateLayout = "2006-01-02"

type Input struct {
	ShopID      uint
	Amount      decimal.Decimal
	Description string
	// Date is YYYY-MM-DD; empty means today in the shop's time zone.
	Date string
}

type Filter struct {
	ShopID *uint
	// From and To are inclusive calendar days, YYYY-MM-DD.
	From  string
	To    string
	Limit int
}

type Service struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewService(db *gorm.DB, loc *time.Location) *Service {
	return &Service{db: db, loc: loc, now: time.Now}
}

// Day converts a local calendar day to the stored UTC-midnight form.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Validation(apperr.MsgInvalidDate, map[string]any{"Field": "date"})
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, actor models.Actor, in Input) (*models.Expense, error) {
	if !in.Amount.IsPositive() {
		return nil, apperr.Validation(apperr.MsgInvalidAmount, nil)
	}
	if in.ShopID == 0 {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "shop_id"})
	}
	if !actor.CanAccessShop(in.ShopID) {
		return nil, apperr.Forbidden(apperr.MsgShopAccessDenied)
	}

	var day time.Time
	if strings.TrimSpace(in.Date) == "" {
		y, m, d := s.now().In(s.loc).Date()
		day = Day(y, m, d)
	} else {
		var err error
		if day, err = parseDay(in.Date); err != nil {
			return nil, err
		}
	}

	e := models.Expense{
		ShopID:      in.ShopID,
		Amount:      in.Amount.Round(2),
		Description: strings.TrimSpace(in.Description),
		CreatedByID: actor.UserID,
		ExpenseDate: day,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Shop{}).Where("id = ?", in.ShopID).Count(&n).Error; err != nil {
			return apperr.Internal(err)
		}
		if n == 0 {
			return apperr.NotFound(apperr.MsgShopNotFound, nil)
		}

		if err := tx.Omit("Shop", "CreatedBy").Create(&e).Error; err != nil {
			return apperr.Internal(fmt.Errorf("create expense: %w", err))
		}

		return audit.WriteLog(tx, audit.LogOptions{
			ShopID:      &e.ShopID,
			Actor:       actor,
			EntityType:  "expense",
			EntityID:    e.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("expense %s on %s", e.Amount.StringFixed(2), e.ExpenseDate.Format(DateLayout)),
			After:       e,
		})
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.Expense, error) {
	q := s.db.WithContext(ctx).Model(&models.Expense{}).Preload("Shop").Preload("CreatedBy")
	if f.ShopID != nil {
		q = q.Where("shop_id = ?", *f.ShopID)
	}
	if f.From != "" {
		from, err := parseDay(f.From)
		if err != nil {
			return nil, err
		}
		q = q.Where("expense_date >= ?", from)
	}
	if f.To != "" {
		to, err := parseDay(f.To)
		if err != nil {
			return nil, err
		}
		q = q.Where("expense_date < ?", to.AddDate(0, 0, 1))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []models.Expense
	if err := q.Order("expense_date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
