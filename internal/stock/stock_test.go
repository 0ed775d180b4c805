package stock

import (
	"testing"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/models"
	"github.com/cmakhmud/smoking-shop/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seed(t *testing.T) (*gorm.DB, models.Good, models.Good) {
	db := testutil.NewDB(t)
	shop := testutil.Shop(t, db, "Main Store")
	cat := testutil.Category(t, db, "Cigarettes")
	a := testutil.Good(t, db, shop, cat, testutil.GoodOpts{Name: "Marlboro Red", Barcode: "1234567890", Price: "12.50", Stock: 10})
	b := testutil.Good(t, db, shop, cat, testutil.GoodOpts{Name: "Lighter", Barcode: "555", Price: "1.00", Stock: 0})
	return db, a, b
}

func TestLockGoodsDeduplicatesAndLoads(t *testing.T) {
	db, a, b := seed(t)

	goods, err := LockGoods(db, []uint{b.ID, a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, goods, 2)
	assert.Equal(t, "Marlboro Red", goods[a.ID].Name)
	assert.Equal(t, 0, goods[b.ID].StockCount)
}

func TestLockGoodsMissing(t *testing.T) {
	db, a, _ := seed(t)

	_, err := LockGoods(db, []uint{a.ID, 9999})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestApplyWritesLedger(t *testing.T) {
	db, a, _ := seed(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		g, err := LockGood(tx, a.ID)
		if err != nil {
			return err
		}
		if err := Apply(tx, g, -3, Movement{Reason: models.MovementSale}); err != nil {
			return err
		}
		assert.Equal(t, 7, g.StockCount)
		return Apply(tx, g, 5, Movement{Reason: models.MovementReceipt})
	})
	require.NoError(t, err)

	assert.Equal(t, 12, testutil.Stock(t, db, a.ID))

	mv, err := Movements(db, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, mv, 2)
	assert.Equal(t, models.MovementReceipt, mv[0].Reason)
	assert.Equal(t, 7, mv[0].StockBefore)
	assert.Equal(t, 12, mv[0].StockAfter)
	assert.Equal(t, -3, mv[1].Delta)
}

func TestApplyRejectsNegative(t *testing.T) {
	db, a, _ := seed(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		g, err := LockGood(tx, a.ID)
		if err != nil {
			return err
		}
		return Apply(tx, g, -11, Movement{Reason: models.MovementSale})
	})
	require.Error(t, err)
	assert.True(t, IsInsufficient(err))
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 10, e.Data["Available"])
	assert.Equal(t, 10, testutil.Stock(t, db, a.ID))

	var n int64
	db.Model(&models.StockMovement{}).Count(&n)
	assert.Zero(t, n)
}

func TestApplyZeroDeltaIsNoop(t *testing.T) {
	db, a, _ := seed(t)

	g := a
	require.NoError(t, Apply(db, &g, 0, Movement{Reason: models.MovementReceiptUpdate}))

	var n int64
	db.Model(&models.StockMovement{}).Count(&n)
	assert.Zero(t, n)
}
