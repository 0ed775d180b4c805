// Package dashboard builds the revenue chart shown on the finance page.
package dashboard

import (
	"context"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/httpx"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

const maxPoints = 366

type ChartPoint struct {
	Label string `json:"label"` // day, Monday of the week or first of the month
	Sales string `json:"sales"`
	Debts string `json:"debts"`
	Total string `json:"total"`
}

type ChartTotals struct {
	Sales string `json:"sales"`
	Debts string `json:"debts"`
	Total string `json:"total"`
}

type Chart struct {
	ShopID      *uint        `json:"shop_id"`
	Period      Period       `json:"period"`
	From        string       `json:"from"`
	To          string       `json:"to"` // exclusive
	Points      []ChartPoint `json:"points"`
	GrandTotals ChartTotals  `json:"grand_totals"`
}

type Service struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewService(db *gorm.DB, loc *time.Location) *Service {
	return &Service{db: db, loc: loc, now: time.Now}
}

// buckets returns the start of every bucket plus the exclusive end of the
// last one, in s.loc.
func (s *Service) buckets(period Period, count int) ([]time.Time, time.Time) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	var first time.Time
	var step func(time.Time) time.Time
	switch period {
	case PeriodWeekly:
		monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
		first = monday.AddDate(0, 0, -7*(count-1))
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
	case PeriodMonthly:
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
		first = month.AddDate(0, -(count - 1), 0)
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	default:
		first = today.AddDate(0, 0, -(count - 1))
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	}

	starts := make([]time.Time, 0, count)
	t := first
	for i := 0; i < count; i++ {
		starts = append(starts, t)
		t = step(t)
	}
	return starts, t
}

// RevenueChart sums sales and credit sales per bucket for the last count
// periods, the current one included.
func (s *Service) RevenueChart(ctx context.Context, shopID *uint, period Period, count int) (*Chart, error) {
	switch period {
	case "":
		period = PeriodDaily
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
	default:
		return nil, apperr.Validation(apperr.MsgInvalidDateFilter, nil)
	}
	if count <= 0 {
		switch period {
		case PeriodWeekly:
			count = 8
		case PeriodMonthly:
			count = 12
		default:
			count = 7
		}
	}
	if count > maxPoints {
		count = maxPoints
	}

	starts, end := s.buckets(period, count)
	from := starts[0]

	type row struct {
		At         time.Time
		TotalPrice decimal.Decimal
	}

	db := s.db.WithContext(ctx)
	var sales []row
	q := db.Model(&models.Sale{}).
		Select("timestamp AS at, total_price").
		Where("timestamp >= ? AND timestamp < ?", from.UTC(), end.UTC())
	if shopID != nil {
		q = q.Where("shop_id = ?", *shopID)
	}
	if err := q.Scan(&sales).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	var debts []row
	q = db.Model(&models.DebtItem{}).
		Joins("JOIN debts ON debts.id = debt_items.debt_id").
		Select("debts.created_at AS at, debt_items.total_price").
		Where("debts.created_at >= ? AND debts.created_at < ?", from.UTC(), end.UTC())
	if shopID != nil {
		q = q.Where("debts.shop_id = ?", *shopID)
	}
	if err := q.Scan(&debts).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	salesSum := make([]decimal.Decimal, len(starts))
	debtSum := make([]decimal.Decimal, len(starts))
	index := func(t time.Time) int {
		t = t.In(s.loc)
		for i := len(starts) - 1; i >= 0; i-- {
			if !t.Before(starts[i]) {
				return i
			}
		}
		return -1
	}
	for _, r := range sales {
		if i := index(r.At); i >= 0 {
			salesSum[i] = salesSum[i].Add(r.TotalPrice)
		}
	}
	for _, r := range debts {
		if i := index(r.At); i >= 0 {
			debtSum[i] = debtSum[i].Add(r.TotalPrice)
		}
	}

	chart := &Chart{
		ShopID: shopID,
		Period: period,
		From:   from.Format("2006-01-02"),
		To:     end.Format("2006-01-02"),
		Points: make([]ChartPoint, 0, len(starts)),
	}
	var totalSales, totalDebts decimal.Decimal
	for i, st := range starts {
		chart.Points = append(chart.Points, ChartPoint{
			Label: st.Format("2006-01-02"),
			Sales: salesSum[i].StringFixed(2),
			Debts: debtSum[i].StringFixed(2),
			Total: salesSum[i].Add(debtSum[i]).StringFixed(2),
		})
		totalSales = totalSales.Add(salesSum[i])
		totalDebts = totalDebts.Add(debtSum[i])
	}
	chart.GrandTotals = ChartTotals{
		Sales: totalSales.StringFixed(2),
		Debts: totalDebts.StringFixed(2),
		Total: totalSales.Add(totalDebts).StringFixed(2),
	}
	return chart, nil
}

// GET /api/finance/revenue-chart?period=daily&count=7&shop=1
func RevenueChartHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := httpx.QueryID(c, "shop")
		if err != nil {
			return err
		}
		chart, err := svc.RevenueChart(c.UserContext(), shopID, Period(c.Query("period")), c.QueryInt("count", 0))
		if err != nil {
			return err
		}
		return c.JSON(chart)
	}
}
