package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/models"
	"github.com/cmakhmud/smoking-shop/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   *Service
	shopA models.Shop
	shopB models.Shop
	cig   models.Category
	acc   models.Category
}

func money2(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T) fixture {
	db := testutil.NewDB(t)
	f := fixture{
		db:    db,
		svc:   NewService(db, baku),
		shopA: testutil.Shop(t, db, "Main Store"),
		shopB: testutil.Shop(t, db, "Airport Shop"),
		cig:   testutil.Category(t, db, "Cigarettes"),
		acc:   testutil.Category(t, db, "Accessories"),
	}
	// Friday 15 March 2024, noon in Baku
	f.svc.now = func() time.Time { return local(2024, 3, 15, 12, 0) }

	red := testutil.Good(t, db, f.shopA, f.cig, testutil.GoodOpts{Name: "Marlboro Red", Barcode: "1234567890", Price: "12.50", BuyPrice: "10.00", Stock: 100})
	lighter := testutil.Good(t, db, f.shopA, f.acc, testutil.GoodOpts{Name: "Lighter", Barcode: "555", Price: "2.00", BuyPrice: "1.00", Stock: 100})
	winston := testutil.Good(t, db, f.shopB, f.cig, testutil.GoodOpts{Name: "Winston", Barcode: "777", Price: "9.00", BuyPrice: "7.00", Stock: 100})

	sale := func(g models.Good, qty int, total string, at time.Time) {
		s := models.Sale{ShopID: g.ShopID, GoodID: g.ID, Quantity: qty, TotalPrice: money2(total), ReceiptNo: "r", Timestamp: at.UTC()}
		require.NoError(t, db.Omit("Shop", "Good").Create(&s).Error)
	}
	sale(red, 2, "25.00", local(2024, 3, 15, 10, 0))
	sale(lighter, 3, "6.00", local(2024, 3, 15, 11, 0))
	sale(red, 1, "12.50", local(2024, 3, 12, 9, 0))
	sale(winston, 1, "9.00", local(2024, 3, 15, 9, 0))
	sale(red, 1, "12.50", local(2024, 3, 2, 9, 0))

	debt := func(g models.Good, qty int, total string, status models.DebtStatus, at time.Time) {
		d := models.Debt{
			ShopID: g.ShopID, CustomerName: "Rashad", TotalAmount: money2(total), PaidAmount: decimal.Zero,
			RemainingAmount: money2(total), Status: status, DueDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			CreatedAt: at.UTC(),
			Items:     []models.DebtItem{{GoodID: g.ID, Quantity: qty, UnitPrice: g.Price, TotalPrice: money2(total)}},
		}
		require.NoError(t, db.Omit("Shop", "CreatedBy").Create(&d).Error)
	}
	debt(red, 1, "12.50", models.DebtPending, local(2024, 3, 15, 8, 0))
	debt(lighter, 2, "4.00", models.DebtCancelled, local(2024, 3, 15, 9, 0))

	expense := func(shop models.Shop, amount string, d int) {
		e := models.Expense{ShopID: shop.ID, Amount: money2(amount), ExpenseDate: time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)}
		require.NoError(t, db.Omit("Shop", "CreatedBy").Create(&e).Error)
	}
	expense(f.shopA, "5.00", 15)
	expense(f.shopA, "3.00", 14)
	expense(f.shopB, "2.00", 15)

	return f
}

func TestSummaryTodayForShop(t *testing.T) {
	f := newFixture(t)

	sum, err := f.svc.Summary(context.Background(), Filter{ShopID: &f.shopA.ID, DateFilter: FilterToday})
	require.NoError(t, err)

	assert.Equal(t, "31.00", sum.SalesRevenue.StringFixed(2))
	assert.Equal(t, "16.50", sum.DebtRevenue.StringFixed(2))
	assert.Equal(t, "47.50", sum.TotalRevenue.StringFixed(2))
	assert.Equal(t, 8, sum.ItemsSold)
	assert.Equal(t, 2, sum.SalesCount)
	assert.Equal(t, 2, sum.DebtCount)
	assert.Equal(t, 4, sum.TransactionCount)
	assert.Equal(t, "11.88", sum.AvgTransaction.StringFixed(2))
	assert.Equal(t, "12.50", sum.GrossProfit.StringFixed(2))
	assert.Equal(t, "5.00", sum.TotalExpenses.StringFixed(2))
	assert.Equal(t, "7.50", sum.NetProfit.StringFixed(2))

	assert.Equal(t, "31.00", sum.TodayRevenue.StringFixed(2))
	assert.Equal(t, "43.50", sum.WeekRevenue.StringFixed(2))
	assert.Equal(t, "56.00", sum.MonthRevenue.StringFixed(2))

	require.Len(t, sum.RecentSales, 2)
	assert.Equal(t, "Lighter", sum.RecentSales[0].Good.Name)
	assert.Equal(t, "Accessories", sum.RecentSales[0].Good.Category.Name)
	require.Len(t, sum.PendingDebts, 1)
	assert.Equal(t, "12.50", sum.PendingDebts[0].RemainingAmount.StringFixed(2))
}

func TestSummaryCategoryFilter(t *testing.T) {
	f := newFixture(t)

	sum, err := f.svc.Summary(context.Background(), Filter{CategoryID: &f.acc.ID, DateFilter: FilterToday})
	require.NoError(t, err)
	assert.Equal(t, "6.00", sum.SalesRevenue.StringFixed(2))
	assert.Equal(t, "4.00", sum.DebtRevenue.StringFixed(2))
	assert.Equal(t, "7.00", sum.TotalExpenses.StringFixed(2))
}

func TestSummaryBarcodeFilterAllTime(t *testing.T) {
	f := newFixture(t)

	sum, err := f.svc.Summary(context.Background(), Filter{Barcode: "1234", DateFilter: FilterAll})
	require.NoError(t, err)
	assert.Equal(t, "50.00", sum.SalesRevenue.StringFixed(2))
	assert.Equal(t, "62.50", sum.TotalRevenue.StringFixed(2))
	assert.Equal(t, "10.00", sum.TotalExpenses.StringFixed(2))
}

func TestSummaryBarcodeWildcardsMatchLiterally(t *testing.T) {
	f := newFixture(t)

	for _, b := range []string{"%", "_", "12%90"} {
		sum, err := f.svc.Summary(context.Background(), Filter{Barcode: b, DateFilter: FilterAll})
		require.NoError(t, err)
		assert.True(t, sum.TotalRevenue.IsZero(), "barcode %q", b)
		assert.Zero(t, sum.TransactionCount, "barcode %q", b)
	}
}

func TestSummaryCustomTimeRange(t *testing.T) {
	f := newFixture(t)

	sum, err := f.svc.Summary(context.Background(), Filter{
		ShopID: &f.shopA.ID, DateFilter: FilterCustom,
		StartDate: "2024-03-15", EndDate: "2024-03-15", StartTime: "09:30", EndTime: "10:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "25.00", sum.TotalRevenue.StringFixed(2))
	assert.Equal(t, 1, sum.TransactionCount)
	assert.Equal(t, "5.00", sum.TotalExpenses.StringFixed(2))
}

func TestSummaryEmptyWindow(t *testing.T) {
	f := newFixture(t)

	sum, err := f.svc.Summary(context.Background(), Filter{
		DateFilter: FilterCustom, StartDate: "2023-01-01", EndDate: "2023-01-31",
	})
	require.NoError(t, err)
	assert.True(t, sum.TotalRevenue.IsZero())
	assert.True(t, sum.AvgTransaction.IsZero())
	assert.Empty(t, sum.RecentSales)
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t)

	sum, err := f.svc.Summary(context.Background(), Filter{ShopID: &f.shopA.ID})
	require.NoError(t, err)

	buf, err := ExportXLSX(sum)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer wb.Close()

	label, err := wb.GetCellValue(sheetSummary, "A6")
	require.NoError(t, err)
	assert.Equal(t, "Total revenue", label)
	value, err := wb.GetCellValue(sheetSummary, "B6")
	require.NoError(t, err)
	assert.Equal(t, "47.5", value)

	rows, err := wb.GetRows(sheetSales)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "Good", rows[0][2])
}
