// Package report aggregates sales, credit sales and expenses for the
// finance dashboard. Everything here is read-only.
package report

import (
	"context"
	"strings"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/database"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const recentSalesLimit = 50

type Filter struct {
	ShopID     *uint
	CategoryID *uint
	Barcode    string
	DateFilter DateFilter
	StartDate  string
	EndDate    string
	StartTime  string
	EndTime    string
}

type Summary struct {
	Filter Filter
	Window Window

	SalesRevenue   decimal.Decimal
	DebtRevenue    decimal.Decimal
	TotalRevenue   decimal.Decimal
	GrossProfit    decimal.Decimal
	TotalExpenses  decimal.Decimal
	NetProfit      decimal.Decimal
	AvgTransaction decimal.Decimal

	ItemsSold        int
	SalesCount       int
	DebtCount        int
	TransactionCount int

	TodayRevenue decimal.Decimal
	WeekRevenue  decimal.Decimal
	MonthRevenue decimal.Decimal

	RecentSales  []models.Sale
	Expenses     []models.Expense
	PendingDebts []models.Debt

	GeneratedAt time.Time // local
}

type Service struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewService(db *gorm.DB, loc *time.Location) *Service {
	return &Service{db: db, loc: loc, now: time.Now}
}

func (s *Service) Location() *time.Location { return s.loc }

// lineRow is one sale or debt line joined with its good's cost.
type lineRow struct {
	ParentID   uint
	Quantity   int
	TotalPrice decimal.Decimal
	BuyPrice   decimal.Decimal
}

func (s *Service) Summary(ctx context.Context, f Filter) (*Summary, error) {
	now := s.now()
	w, err := ResolveWindow(f, now, s.loc)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	out := &Summary{Filter: f, Window: w, GeneratedAt: now.In(s.loc)}

	saleRows, err := s.saleLines(db, f, w)
	if err != nil {
		return nil, err
	}
	debtRows, err := s.debtLines(db, f, w)
	if err != nil {
		return nil, err
	}

	out.SalesRevenue, out.GrossProfit = decimal.Zero, decimal.Zero
	for _, r := range saleRows {
		out.SalesRevenue = out.SalesRevenue.Add(r.TotalPrice)
		out.GrossProfit = out.GrossProfit.Add(profit(r))
		out.ItemsSold += r.Quantity
	}
	out.SalesCount = len(saleRows)

	out.DebtRevenue = decimal.Zero
	debts := make(map[uint]struct{})
	for _, r := range debtRows {
		out.DebtRevenue = out.DebtRevenue.Add(r.TotalPrice)
		out.GrossProfit = out.GrossProfit.Add(profit(r))
		out.ItemsSold += r.Quantity
		debts[r.ParentID] = struct{}{}
	}
	out.DebtCount = len(debts)

	out.TotalRevenue = out.SalesRevenue.Add(out.DebtRevenue)
	out.TransactionCount = out.SalesCount + out.DebtCount
	out.AvgTransaction = decimal.Zero
	if out.TransactionCount > 0 {
		out.AvgTransaction = out.TotalRevenue.Div(decimal.NewFromInt(int64(out.TransactionCount))).Round(2)
	}

	if out.Expenses, err = s.expenses(db, f, w); err != nil {
		return nil, err
	}
	out.TotalExpenses = decimal.Zero
	for _, e := range out.Expenses {
		out.TotalExpenses = out.TotalExpenses.Add(e.Amount)
	}
	out.NetProfit = out.GrossProfit.Sub(out.TotalExpenses)

	for _, h := range []struct {
		filter DateFilter
		dst    *decimal.Decimal
	}{
		{FilterToday, &out.TodayRevenue},
		{FilterWeek, &out.WeekRevenue},
		{FilterMonth, &out.MonthRevenue},
	} {
		hw, err := ResolveWindow(Filter{DateFilter: h.filter}, now, s.loc)
		if err != nil {
			return nil, err
		}
		rows, err := s.saleLines(db, Filter{ShopID: f.ShopID}, hw)
		if err != nil {
			return nil, err
		}
		*h.dst = decimal.Zero
		for _, r := range rows {
			*h.dst = h.dst.Add(r.TotalPrice)
		}
	}

	if out.RecentSales, err = s.recentSales(db, f, w); err != nil {
		return nil, err
	}
	if out.PendingDebts, err = s.pendingDebts(db, f); err != nil {
		return nil, err
	}

	return out, nil
}

func profit(r lineRow) decimal.Decimal {
	return r.TotalPrice.Sub(r.BuyPrice.Mul(decimal.NewFromInt(int64(r.Quantity))))
}

func (s *Service) salesQuery(db *gorm.DB, f Filter, w Window) *gorm.DB {
	q := db.Model(&models.Sale{}).Joins("JOIN goods ON goods.id = sales.good_id")
	if f.ShopID != nil {
		q = q.Where("sales.shop_id = ?", *f.ShopID)
	}
	if f.CategoryID != nil {
		q = q.Where("goods.category_id = ?", *f.CategoryID)
	}
	if strings.TrimSpace(f.Barcode) != "" {
		q = q.Where("LOWER(goods.barcode) LIKE ? ESCAPE '\\'", database.Contains(f.Barcode))
	}
	if w.Bounded() {
		q = q.Where("sales.timestamp >= ? AND sales.timestamp < ?", w.From, w.To)
	}
	return q
}

func (s *Service) saleLines(db *gorm.DB, f Filter, w Window) ([]lineRow, error) {
	var rows []lineRow
	err := s.salesQuery(db, f, w).
		Select("sales.id AS parent_id, sales.quantity, sales.total_price, goods.buy_price").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

// debtLines counts credit sales of every status, the goods left the shop
// either way.
func (s *Service) debtLines(db *gorm.DB, f Filter, w Window) ([]lineRow, error) {
	q := db.Model(&models.DebtItem{}).
		Joins("JOIN debts ON debts.id = debt_items.debt_id").
		Joins("JOIN goods ON goods.id = debt_items.good_id")
	if f.ShopID != nil {
		q = q.Where("debts.shop_id = ?", *f.ShopID)
	}
	if f.CategoryID != nil {
		q = q.Where("goods.category_id = ?", *f.CategoryID)
	}
	if strings.TrimSpace(f.Barcode) != "" {
		q = q.Where("LOWER(goods.barcode) LIKE ? ESCAPE '\\'", database.Contains(f.Barcode))
	}
	if w.Bounded() {
		q = q.Where("debts.created_at >= ? AND debts.created_at < ?", w.From, w.To)
	}

	var rows []lineRow
	err := q.Select("debt_items.debt_id AS parent_id, debt_items.quantity, debt_items.total_price, goods.buy_price").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

func (s *Service) expenses(db *gorm.DB, f Filter, w Window) ([]models.Expense, error) {
	q := db.Model(&models.Expense{}).Preload("Shop").Preload("CreatedBy")
	if f.ShopID != nil {
		q = q.Where("shop_id = ?", *f.ShopID)
	}
	if w.Bounded() {
		q = q.Where("expense_date >= ? AND expense_date < ?", w.FromDay, w.ToDay)
	}
	var out []models.Expense
	if err := q.Order("expense_date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) recentSales(db *gorm.DB, f Filter, w Window) ([]models.Sale, error) {
	var out []models.Sale
	err := s.salesQuery(db, f, w).
		Preload("Good.Category").
		Preload("Shop").
		Order("sales.timestamp DESC, sales.id DESC").
		Limit(recentSalesLimit).
		Find(&out).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) pendingDebts(db *gorm.DB, f Filter) ([]models.Debt, error) {
	q := db.Model(&models.Debt{}).Preload("Shop").Where("status = ?", models.DebtPending)
	if f.ShopID != nil {
		q = q.Where("shop_id = ?", *f.ShopID)
	}
	var out []models.Debt
	if err := q.Order("due_date, id").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
