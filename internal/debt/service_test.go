package debt

import (
	"context"
	"testing"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/models"
	"github.com/cmakhmud/smoking-shop/internal/stock"
	"github.com/cmakhmud/smoking-shop/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	svc    *Service
	shop   models.Shop
	other  models.Shop
	red    models.Good
	vape   models.Good
	admin  models.Actor
	worker models.Actor
}

func newFixture(t *testing.T) fixture {
	db := testutil.NewDB(t)
	shop := testutil.Shop(t, db, "Main Store")
	other := testutil.Shop(t, db, "Airport Shop")
	cat := testutil.Category(t, db, "Cigarettes")
	admin := testutil.User(t, db, "admin", models.RoleAdmin, nil)
	worker := testutil.User(t, db, "ali", models.RoleWorker, &other.ID)
	return fixture{
		db:     db,
		svc:    NewService(db, zap.NewNop()),
		shop:   shop,
		other:  other,
		red:    testutil.Good(t, db, shop, cat, testutil.GoodOpts{Name: "Marlboro Red", Barcode: "1234567890", Price: "12.50", Stock: 100}),
		vape:   testutil.Good(t, db, shop, cat, testutil.GoodOpts{Name: "JUUL Pods", Barcode: "2222", Price: "25.00", Stock: 4}),
		admin:  testutil.Actor(admin),
		worker: testutil.Actor(worker),
	}
}

func (f fixture) create(t *testing.T, lines ...Line) *models.Debt {
	t.Helper()
	d, err := f.svc.Create(context.Background(), f.admin, CreateInput{
		ShopID:       f.shop.ID,
		CustomerName: "Rashad",
		DueDate:      "2024-04-01",
		Lines:        lines,
	})
	require.NoError(t, err)
	return d
}

func TestCreateDebt(t *testing.T) {
	f := newFixture(t)

	d := f.create(t, Line{GoodID: f.vape.ID, Quantity: 2})
	assert.Equal(t, models.DebtPending, d.Status)
	assert.Equal(t, "50.00", d.TotalAmount.StringFixed(2))
	assert.Equal(t, "50.00", d.RemainingAmount.StringFixed(2))
	assert.True(t, d.PaidAmount.IsZero())
	require.Len(t, d.Items, 1)
	assert.Equal(t, "25.00", d.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "2024-04-01", d.DueDate.Format(dateLayout))

	assert.Equal(t, 2, testutil.Stock(t, f.db, f.vape.ID))

	got, err := f.svc.Get(context.Background(), f.admin, d.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "JUUL Pods", got.Items[0].Good.Name)
	assert.Equal(t, "Main Store", got.Shop.Name)
}

func TestCreateDebtValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := CreateInput{ShopID: f.shop.ID, CustomerName: "Rashad", DueDate: "2024-04-01", Lines: []Line{{GoodID: f.red.ID, Quantity: 1}}}

	in := base
	in.CustomerName = "  "
	_, err := f.svc.Create(ctx, f.admin, in)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	in = base
	in.DueDate = "01.04.2024"
	_, err = f.svc.Create(ctx, f.admin, in)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	in = base
	in.Lines = nil
	_, err = f.svc.Create(ctx, f.admin, in)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	in = base
	in.Lines = []Line{{GoodID: f.vape.ID, Quantity: 5}}
	_, err = f.svc.Create(ctx, f.admin, in)
	assert.True(t, stock.IsInsufficient(err))
	assert.Equal(t, 4, testutil.Stock(t, f.db, f.vape.ID))

	_, err = f.svc.Create(ctx, f.worker, base)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestPayDebtFully(t *testing.T) {
	f := newFixture(t)
	d := f.create(t, Line{GoodID: f.vape.ID, Quantity: 2})

	paid, err := f.svc.Pay(context.Background(), f.admin, PayInput{DebtID: d.ID, Amount: decimal.RequireFromString("50.00")})
	require.NoError(t, err)
	assert.Equal(t, models.DebtPaid, paid.Status)
	assert.Equal(t, "0.00", paid.RemainingAmount.StringFixed(2))
	assert.Equal(t, "50.00", paid.PaidAmount.StringFixed(2))

	got, err := f.svc.Get(context.Background(), f.admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DebtPaid, got.Status)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, "50.00", got.Payments[0].Amount.StringFixed(2))
}

func TestPayDebtPartialThenRest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t, Line{GoodID: f.vape.ID, Quantity: 2})

	p1, err := f.svc.Pay(ctx, f.admin, PayInput{DebtID: d.ID, Amount: decimal.RequireFromString("20")})
	require.NoError(t, err)
	assert.Equal(t, models.DebtPending, p1.Status)
	assert.Equal(t, "30.00", p1.RemainingAmount.StringFixed(2))

	_, err = f.svc.Pay(ctx, f.admin, PayInput{DebtID: d.ID, Amount: decimal.RequireFromString("30.01")})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	p2, err := f.svc.Pay(ctx, f.admin, PayInput{DebtID: d.ID, Amount: decimal.RequireFromString("30")})
	require.NoError(t, err)
	assert.Equal(t, models.DebtPaid, p2.Status)
	assert.True(t, p2.RemainingAmount.IsZero())

	_, err = f.svc.Pay(ctx, f.admin, PayInput{DebtID: d.ID, Amount: decimal.RequireFromString("1")})
	assert.True(t, apperr.Is(err, apperr.MsgDebtNotPending))
}

func TestPayDebtRejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	d := f.create(t, Line{GoodID: f.red.ID, Quantity: 1})

	_, err := f.svc.Pay(context.Background(), f.admin, PayInput{DebtID: d.ID, Amount: decimal.Zero})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.svc.Pay(context.Background(), f.admin, PayInput{DebtID: 999, Amount: decimal.NewFromInt(1)})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestPayDebtRejectsFractionalCents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t, Line{GoodID: f.vape.ID, Quantity: 1})

	_, err := f.svc.Pay(ctx, f.admin, PayInput{DebtID: d.ID, Amount: decimal.RequireFromString("24.999")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.MsgInvalidAmount))

	got, err := f.svc.Get(ctx, f.admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DebtPending, got.Status)
	assert.True(t, got.PaidAmount.IsZero())
	assert.Empty(t, got.Payments)

	paid, err := f.svc.Pay(ctx, f.admin, PayInput{DebtID: d.ID, Amount: decimal.RequireFromString("25.000")})
	require.NoError(t, err)
	assert.Equal(t, models.DebtPaid, paid.Status)
	assert.True(t, paid.RemainingAmount.IsZero())
}

func TestCancelDebtRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t,
		Line{GoodID: f.red.ID, Quantity: 3},
		Line{GoodID: f.vape.ID, Quantity: 1},
	)
	assert.Equal(t, 97, testutil.Stock(t, f.db, f.red.ID))

	_, err := f.svc.Pay(ctx, f.admin, PayInput{DebtID: d.ID, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	c, err := f.svc.Cancel(ctx, f.admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DebtCancelled, c.Status)
	assert.Equal(t, "10.00", c.PaidAmount.StringFixed(2))

	assert.Equal(t, 100, testutil.Stock(t, f.db, f.red.ID))
	assert.Equal(t, 4, testutil.Stock(t, f.db, f.vape.ID))

	_, err = f.svc.Cancel(ctx, f.admin, d.ID)
	assert.True(t, apperr.Is(err, apperr.MsgDebtNotPending))
	assert.Equal(t, 100, testutil.Stock(t, f.db, f.red.ID))
}

func TestCancelPaidDebtRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t, Line{GoodID: f.red.ID, Quantity: 2})

	_, err := f.svc.Pay(ctx, f.admin, PayInput{DebtID: d.ID, Amount: decimal.RequireFromString("25.00")})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.admin, d.ID)
	require.Error(t, err)
	assert.Equal(t, 98, testutil.Stock(t, f.db, f.red.ID))
}

func TestListDebts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, Line{GoodID: f.red.ID, Quantity: 1})
	f.create(t, Line{GoodID: f.red.ID, Quantity: 1})
	_, err := f.svc.Cancel(ctx, f.admin, a.ID)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListFilter{ShopID: &f.shop.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := f.svc.List(ctx, ListFilter{Status: models.DebtPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	none, err := f.svc.List(ctx, ListFilter{ShopID: &f.other.ID})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.Get(ctx, f.worker, a.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}
