package catalog

import (
	"context"
	"testing"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/models"
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
	cat   models.Category
	admin models.Actor
}

func newFixture(t *testing.T) fixture {
	db := testutil.NewDB(t)
	f := fixture{
		db:    db,
		svc:   NewService(db),
		shop:  testutil.Shop(t, db, "Main Store"),
		other: testutil.Shop(t, db, "Airport Shop"),
		cat:   testutil.Category(t, db, "Cigarettes"),
		admin: models.Actor{UserID: 1, Name: "admin", Role: models.RoleAdmin},
	}
	testutil.Good(t, db, f.shop, f.cat, testutil.GoodOpts{Name: "Marlboro Red", Barcode: "1234567890", Price: "12.50", Stock: 100})
	testutil.Good(t, db, f.shop, f.cat, testutil.GoodOpts{Name: "Marlboro Gold", Barcode: "1234567891", Price: "12.50", Stock: 0})
	testutil.Good(t, db, f.shop, f.cat, testutil.GoodOpts{Name: "Parliament", Barcode: "4444", Price: "14.00", Stock: 5})
	testutil.Good(t, db, f.other, f.cat, testutil.GoodOpts{Name: "Marlboro Red", Barcode: "1234567890", Price: "13.00", Stock: 8})
	return f
}

func TestSearchForSale(t *testing.T) {
	f := newFixture(t)

	goods, err := f.svc.Search(context.Background(), SearchInput{Query: "MARL", ShopID: &f.shop.ID, InStockOnly: true})
	require.NoError(t, err)
	require.Len(t, goods, 1)
	assert.Equal(t, "Marlboro Red", goods[0].Name)
	assert.Equal(t, "Cigarettes", goods[0].Category.Name)

	byBarcode, err := f.svc.Search(context.Background(), SearchInput{Query: "444", ShopID: &f.shop.ID, InStockOnly: true})
	require.NoError(t, err)
	require.Len(t, byBarcode, 1)
	assert.Equal(t, "Parliament", byBarcode[0].Name)

	empty, err := f.svc.Search(context.Background(), SearchInput{Query: "  ", ShopID: &f.shop.ID})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSearchForStockIncludesEmpty(t *testing.T) {
	f := newFixture(t)

	goods, err := f.svc.Search(context.Background(), SearchInput{Query: "marlboro", ShopID: &f.shop.ID})
	require.NoError(t, err)
	assert.Len(t, goods, 2)

	all, err := f.svc.Search(context.Background(), SearchInput{Query: "marlboro"})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSearchLimit(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		testutil.Good(t, f.db, f.shop, f.cat, testutil.GoodOpts{
			Name: "Vape Pod", Barcode: "vp-" + string(rune('a'+i)), Price: "5.00", Stock: 1,
		})
	}

	goods, err := f.svc.Search(context.Background(), SearchInput{Query: "vape", ShopID: &f.shop.ID})
	require.NoError(t, err)
	assert.Len(t, goods, searchLimit)
}

func TestScanForSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.svc.ScanForSale(ctx, f.shop.ID, " 1234567890 ")
	require.NoError(t, err)
	assert.Equal(t, "12.50", g.Price.StringFixed(2))

	_, err = f.svc.ScanForSale(ctx, f.shop.ID, "1234567891")
	assert.True(t, apperr.Is(err, apperr.MsgOutOfStock))
	assert.Equal(t, 400, apperr.KindOf(err).Status())

	_, err = f.svc.ScanForSale(ctx, f.shop.ID, "000")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = f.svc.ScanForSale(ctx, 0, "1234567890")
	assert.True(t, apperr.Is(err, apperr.MsgBarcodeAndShop))
}

func TestScanForStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.svc.ScanForStock(ctx, f.admin, "1234567891", &f.shop.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, g.StockCount)

	_, err = f.svc.ScanForStock(ctx, f.admin, "1234567890", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindAmbiguous))

	worker := models.Actor{UserID: 3, Role: models.RoleWorker, ShopID: &f.other.ID}
	g, err = f.svc.ScanForStock(ctx, worker, "1234567890", nil)
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, g.ShopID)
}

func TestCreateGood(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	single, err := f.svc.CreateGood(ctx, f.admin, CreateGoodInput{
		ShopID: f.shop.ID, CategoryID: f.cat.ID, Name: "Kent (single)", Barcode: "kent-1",
		Price: decimal.RequireFromString("0.50"), ProductType: models.ProductCigaretteSingle,
	})
	require.NoError(t, err)

	pack, err := f.svc.CreateGood(ctx, f.admin, CreateGoodInput{
		ShopID: f.shop.ID, CategoryID: f.cat.ID, Name: "Kent", Barcode: "kent",
		Price: decimal.RequireFromString("9"), BuyPrice: decimal.RequireFromString("7.2"),
		StockCount: 10, ProductType: models.ProductCigarettePack, RelatedSingleID: &single.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, testutil.Stock(t, f.db, pack.ID))
	assert.Equal(t, single.ID, *pack.RelatedSingleID)

	var logs int64
	f.db.Model(&models.AuditLog{}).Where("entity_type = ?", "good").Count(&logs)
	assert.Equal(t, int64(2), logs)
}

func TestCreateGoodValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := CreateGoodInput{ShopID: f.shop.ID, CategoryID: f.cat.ID, Name: "Zippo", Barcode: "zp", Price: decimal.NewFromInt(20)}

	in := base
	in.Barcode = "1234567890"
	_, err := f.svc.CreateGood(ctx, f.admin, in)
	assert.True(t, apperr.Is(err, apperr.MsgDuplicateBarcode))

	in = base
	in.Price = decimal.NewFromInt(-1)
	_, err = f.svc.CreateGood(ctx, f.admin, in)
	assert.True(t, apperr.Is(err, apperr.MsgInvalidPrice))

	in = base
	in.StockCount = -1
	_, err = f.svc.CreateGood(ctx, f.admin, in)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	in = base
	in.ProductType = "cigar"
	_, err = f.svc.CreateGood(ctx, f.admin, in)
	assert.True(t, apperr.Is(err, apperr.MsgInvalidProductType))

	in = base
	in.CategoryID = 99
	_, err = f.svc.CreateGood(ctx, f.admin, in)
	assert.True(t, apperr.Is(err, apperr.MsgCategoryNotFound))

	in = base
	in.ProductType = models.ProductCigarettePack
	other := testutil.Good(t, f.db, f.other, f.cat, testutil.GoodOpts{Name: "single elsewhere", Barcode: "s1", Price: "1", Type: models.ProductCigaretteSingle})
	in.RelatedSingleID = &other.ID
	_, err = f.svc.CreateGood(ctx, f.admin, in)
	assert.True(t, apperr.Is(err, apperr.MsgInvalidRelatedSingle))

	worker := models.Actor{UserID: 3, Role: models.RoleWorker, ShopID: &f.other.ID}
	_, err = f.svc.CreateGood(ctx, worker, base)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	// same barcode in another shop is fine
	in = base
	in.ShopID = f.other.ID
	in.Barcode = "4444"
	_, err = f.svc.CreateGood(ctx, f.admin, in)
	assert.NoError(t, err)
}

func TestCreateShopAndCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shop, err := f.svc.CreateShop(ctx, f.admin, "Downtown Branch")
	require.NoError(t, err)
	assert.NotZero(t, shop.ID)

	_, err = f.svc.CreateShop(ctx, f.admin, "Downtown Branch")
	assert.True(t, apperr.Is(err, apperr.MsgDuplicateName))

	_, err = f.svc.CreateCategory(ctx, f.admin, "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	cat, err := f.svc.CreateCategory(ctx, f.admin, "Vapes")
	require.NoError(t, err)
	assert.Equal(t, "Vapes", cat.Name)

	shops, err := f.svc.ListShops(ctx)
	require.NoError(t, err)
	assert.Len(t, shops, 3)

	cats, err := f.svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cigarettes", "Vapes"}, []string{cats[0].Name, cats[1].Name})
}
