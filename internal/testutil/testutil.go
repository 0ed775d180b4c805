// Package testutil builds throwaway databases and fixtures for tests.
package testutil

import (
	"testing"

	"github.com/cmakhmud/smoking-shop/internal/database"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(gormlogger.Discard))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func Shop(t *testing.T, db *gorm.DB, name string) models.Shop {
	t.Helper()
	s := models.Shop{Name: name}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func Category(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// GoodOpts describes a fixture good. Price and BuyPrice are decimal strings.
type GoodOpts struct {
	Name            string
	Barcode         string
	Price           string
	BuyPrice        string
	Stock           int
	Type            models.ProductType
	RelatedSingleID *uint
}

func Good(t *testing.T, db *gorm.DB, shop models.Shop, cat models.Category, o GoodOpts) models.Good {
	t.Helper()
	if o.Type == "" {
		o.Type = models.ProductNormal
	}
	if o.BuyPrice == "" {
		o.BuyPrice = "0"
	}
	g := models.Good{
		ShopID:          shop.ID,
		CategoryID:      cat.ID,
		Name:            o.Name,
		Barcode:         o.Barcode,
		Price:           decimal.RequireFromString(o.Price),
		BuyPrice:        decimal.RequireFromString(o.BuyPrice),
		StockCount:      o.Stock,
		ProductType:     o.Type,
		RelatedSingleID: o.RelatedSingleID,
	}
	require.NoError(t, db.Create(&g).Error)
	return g
}

// User creates an account with password "secret123".
func User(t *testing.T, db *gorm.DB, username string, role models.UserRole, shopID *uint) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{
		Username:     username,
		Name:         username,
		PasswordHash: string(hash),
		Role:         role,
		ShopID:       shopID,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func Actor(u models.User) models.Actor {
	return models.Actor{UserID: u.ID, Name: u.Name, Role: u.Role, ShopID: u.ShopID}
}

// Stock reloads the current stock count of a good.
func Stock(t *testing.T, db *gorm.DB, goodID uint) int {
	t.Helper()
	var g models.Good
	require.NoError(t, db.First(&g, goodID).Error)
	return g.StockCount
}

func Ptr[T any](v T) *T { return &v }
