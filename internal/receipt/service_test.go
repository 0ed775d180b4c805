package receipt

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
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   *Service
	shop  models.Shop
	other models.Shop
	good  models.Good
	admin models.Actor
}

func newFixture(t *testing.T) fixture {
	db := testutil.NewDB(t)
	shop := testutil.Shop(t, db, "Main Store")
	other := testutil.Shop(t, db, "Downtown Branch")
	cat := testutil.Category(t, db, "Accessories")
	admin := testutil.User(t, db, "admin", models.RoleAdmin, nil)
	return fixture{
		db:    db,
		svc:   NewService(db),
		shop:  shop,
		other: other,
		good:  testutil.Good(t, db, shop, cat, testutil.GoodOpts{Name: "Zippo Lighter", Barcode: "zp1", Price: "25.00", Stock: 5}),
		admin: testutil.Actor(admin),
	}
}

func (f fixture) in(qty int, cost string) Input {
	return Input{
		ShopID:   f.shop.ID,
		GoodID:   f.good.ID,
		Quantity: qty,
		Type:     models.ReceiptPurchase,
		UnitCost: decimal.RequireFromString(cost),
		Supplier: "Baku Tobacco LLC",
	}
}

func TestCreateReceipt(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.Create(context.Background(), f.admin, f.in(10, "2.00"))
	require.NoError(t, err)
	assert.Equal(t, "20.00", r.TotalCost.StringFixed(2))
	assert.Equal(t, 15, r.Good.StockCount)
	assert.Equal(t, 15, testutil.Stock(t, f.db, f.good.ID))
}

func TestReceiptTotalUsesStoredUnitCost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.Create(ctx, f.admin, f.in(10, "0.005"))
	require.NoError(t, err)
	assert.Equal(t, "0.01", r.UnitCost.StringFixed(2))
	assert.Equal(t, "0.10", r.TotalCost.StringFixed(2))

	var stored models.StockReceipt
	require.NoError(t, f.db.First(&stored, r.ID).Error)
	assert.True(t, stored.TotalCost.Equal(stored.UnitCost.Mul(decimal.NewFromInt(int64(stored.Quantity)))))

	r, err = f.svc.Update(ctx, f.admin, r.ID, f.in(3, "1.235"))
	require.NoError(t, err)
	assert.Equal(t, "1.24", r.UnitCost.StringFixed(2))
	assert.Equal(t, "3.72", r.TotalCost.StringFixed(2))
}

func TestUpdateReceiptAppliesDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.admin, f.in(10, "2.00"))
	require.NoError(t, err)

	up, err := f.svc.Update(ctx, f.admin, r.ID, f.in(7, "2.50"))
	require.NoError(t, err)
	assert.Equal(t, 7, up.Quantity)
	assert.Equal(t, "17.50", up.TotalCost.StringFixed(2))
	assert.Equal(t, 12, testutil.Stock(t, f.db, f.good.ID))

	mv, err := stock.Movements(f.db, f.good.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.MovementReceiptUpdate, mv[0].Reason)
	assert.Equal(t, -3, mv[0].Delta)
}

func TestDeleteReceiptReversesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.admin, f.in(10, "2.00"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.admin, r.ID))
	assert.Equal(t, 5, testutil.Stock(t, f.db, f.good.ID))

	err = f.svc.Delete(ctx, f.admin, r.ID)
	assert.True(t, apperr.Is(err, apperr.MsgReceiptNotFound))
}

func TestDeleteReceiptAfterStockSold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.admin, f.in(10, "2.00"))
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Good{}).Where("id = ?", f.good.ID).Update("stock_count", 3).Error)

	err = f.svc.Delete(ctx, f.admin, r.ID)
	assert.True(t, stock.IsInsufficient(err))

	var n int64
	f.db.Model(&models.StockReceipt{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestReceiptValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.admin, f.in(0, "1"))
	assert.True(t, apperr.Is(err, apperr.MsgInvalidQuantity))

	_, err = f.svc.Create(ctx, f.admin, f.in(-2, "1"))
	assert.True(t, apperr.Is(err, apperr.MsgInvalidQuantity))

	_, err = f.svc.Create(ctx, f.admin, f.in(2, "-1"))
	assert.True(t, apperr.Is(err, apperr.MsgInvalidPrice))

	in := f.in(2, "1")
	in.Type = "gift"
	_, err = f.svc.Create(ctx, f.admin, in)
	assert.True(t, apperr.Is(err, apperr.MsgInvalidReceiptType))

	in = f.in(2, "1")
	in.ShopID = f.other.ID
	_, err = f.svc.Create(ctx, f.admin, in)
	assert.True(t, apperr.Is(err, apperr.MsgGoodNotInShop))

	assert.Equal(t, 5, testutil.Stock(t, f.db, f.good.ID))
}

func TestCorrectionAllowsNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.in(-2, "0")
	in.Type = models.ReceiptCorrection
	r, err := f.svc.Create(ctx, f.admin, in)
	require.NoError(t, err)
	assert.Equal(t, 3, testutil.Stock(t, f.db, f.good.ID))
	assert.True(t, r.TotalCost.IsZero())

	in = f.in(-4, "0")
	in.Type = models.ReceiptCorrection
	_, err = f.svc.Create(ctx, f.admin, in)
	assert.True(t, stock.IsInsufficient(err))
	assert.Equal(t, 3, testutil.Stock(t, f.db, f.good.ID))
}

func TestListReceipts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.admin, f.in(1, "1"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.admin, f.in(2, "1"))
	require.NoError(t, err)

	list, err := f.svc.List(ctx, ListFilter{ShopID: &f.shop.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Quantity)
	assert.Equal(t, "Zippo Lighter", list[0].Good.Name)

	none, err := f.svc.List(ctx, ListFilter{ShopID: &f.other.ID})
	require.NoError(t, err)
	assert.Empty(t, none)
}
