// Command seed loads demo shops, categories, goods and the admin account.
// Running it again only adds what is missing.
package main

import (
	"context"
	"errors"
	"log"

	"github.com/cmakhmud/smoking-shop/internal/auth"
	"github.com/cmakhmud/smoking-shop/internal/catalog"
	"github.com/cmakhmud/smoking-shop/internal/config"
	"github.com/cmakhmud/smoking-shop/internal/database"
	"github.com/cmakhmud/smoking-shop/internal/logger"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sampleGood struct {
	name     string
	barcode  string
	price    string
	buyPrice string
	stock    int
	category string
	typ      models.ProductType
	single   string // barcode of the linked single for packs
}

var (
	shopNames     = []string{"Main Store", "Downtown Branch", "Airport Shop"}
	categoryNames = []string{"Cigarettes", "Cigars", "Vapes", "Accessories", "Tobacco"}

	// singles come before the packs that link to them
	goods = []sampleGood{
		{"Marlboro Red (single)", "1234567899", "0.70", "0.50", 0, "Cigarettes", models.ProductCigaretteSingle, ""},
		{"Marlboro Red", "1234567890", "12.50", "10.00", 100, "Cigarettes", models.ProductCigarettePack, "1234567899"},
		{"Camel Blue", "1234567891", "11.00", "8.80", 80, "Cigarettes", models.ProductNormal, ""},
		{"Lucky Strike", "1234567892", "10.50", "8.40", 60, "Cigarettes", models.ProductNormal, ""},
		{"Cuban Cigar Premium", "2234567890", "45.00", "32.00", 30, "Cigars", models.ProductNormal, ""},
		{"Dominican Cigar", "2234567891", "35.00", "25.00", 40, "Cigars", models.ProductNormal, ""},
		{"JUUL Starter Kit", "3234567890", "55.00", "40.00", 50, "Vapes", models.ProductNormal, ""},
		{"Vuse Alto", "3234567891", "45.00", "33.00", 45, "Vapes", models.ProductNormal, ""},
		{"Zippo Lighter", "4234567890", "25.00", "15.00", 70, "Accessories", models.ProductNormal, ""},
		{"Rolling Papers", "4234567891", "3.50", "1.50", 200, "Accessories", models.ProductNormal, ""},
		{"Pipe Tobacco Premium", "5234567890", "18.00", "12.00", 55, "Tobacco", models.ProductNormal, ""},
	}
)

func main() {
	cfg := config.Load()
	lg, err := logger.New(logger.Config{Development: true, Level: "info"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Open(cfg, lg)
	if err != nil {
		lg.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		lg.Fatal("migration failed", zap.Error(err))
	}

	if err := seed(context.Background(), db, cfg, lg); err != nil {
		lg.Fatal("seed failed", zap.Error(err))
	}
	lg.Info("seed complete", zap.String("admin_username", "admin"), zap.String("admin_password", "admin123"))
}

func seed(ctx context.Context, db *gorm.DB, cfg *config.Config, lg *zap.Logger) error {
	created, err := auth.NewService(db, cfg.JWTSecret).EnsureAdmin(ctx, auth.UserInput{
		Username: "admin",
		Name:     "Administrator",
		Password: "admin123",
	})
	if err != nil {
		return err
	}
	if created {
		lg.Info("admin account created")
	}

	shops := map[string]models.Shop{}
	for _, name := range shopNames {
		s := models.Shop{Name: name}
		if err := db.Where(models.Shop{Name: name}).FirstOrCreate(&s).Error; err != nil {
			return err
		}
		shops[name] = s
	}
	cats := map[string]models.Category{}
	for _, name := range categoryNames {
		c := models.Category{Name: name}
		if err := db.Where(models.Category{Name: name}).FirstOrCreate(&c).Error; err != nil {
			return err
		}
		cats[name] = c
	}

	mainStore := shops["Main Store"]
	svc := catalog.NewService(db)
	ids := map[string]uint{}
	for _, g := range goods {
		var existing models.Good
		err := db.Where("shop_id = ? AND barcode = ?", mainStore.ID, g.barcode).First(&existing).Error
		if err == nil {
			ids[g.barcode] = existing.ID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		in := catalog.CreateGoodInput{
			ShopID:      mainStore.ID,
			CategoryID:  cats[g.category].ID,
			Name:        g.name,
			Barcode:     g.barcode,
			Price:       decimal.RequireFromString(g.price),
			BuyPrice:    decimal.RequireFromString(g.buyPrice),
			StockCount:  g.stock,
			ProductType: g.typ,
		}
		if g.single != "" {
			id := ids[g.single]
			in.RelatedSingleID = &id
		}
		good, err := svc.CreateGood(ctx, models.Actor{Name: "seed"}, in)
		if err != nil {
			return err
		}
		ids[g.barcode] = good.ID
		lg.Info("good created", zap.String("name", g.name))
	}
	return nil
}
