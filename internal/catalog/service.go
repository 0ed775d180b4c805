// Package catalog manages shops, categories and goods, and the lookups the
// till and the stock screens use to find goods.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/audit"
	"github.com/cmakhmud/smoking-shop/internal/database"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const searchLimit = 10

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type SearchInput struct {
	Query string
	// ShopID nil searches every shop.
	ShopID *uint
	// InStockOnly hides goods with nothing left, as the till does.
	InStockOnly bool
}

// Search matches the query against name or barcode, case-insensitively.
func (s *Service) Search(ctx context.Context, in SearchInput) ([]models.Good, error) {
	query := strings.ToLower(strings.TrimSpace(in.Query))
	if query == "" {
		return []models.Good{}, nil
	}
	like := database.Contains(query)

	q := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Shop").
		Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(barcode) LIKE ? ESCAPE '\\')", like, like)
	if in.ShopID != nil {
		q = q.Where("shop_id = ?", *in.ShopID)
	}
	if in.InStockOnly {
		q = q.Where("stock_count > 0")
	}

	var goods []models.Good
	if err := q.Order("name, id").Limit(searchLimit).Find(&goods).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return goods, nil
}

// ScanForSale resolves a barcode at the till. Goods with no stock are
// rejected so they cannot be added to a basket.
func (s *Service) ScanForSale(ctx context.Context, shopID uint, barcode string) (*models.Good, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" || shopID == 0 {
		return nil, apperr.Validation(apperr.MsgBarcodeAndShop, nil)
	}

	var g models.Good
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("barcode = ? AND shop_id = ?", barcode, shopID).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.MsgGoodNotFound, map[string]any{"Barcode": barcode})
		}
		return nil, apperr.Internal(err)
	}
	if g.StockCount <= 0 {
		return nil, apperr.Conflict(apperr.MsgOutOfStock, map[string]any{"Name": g.Name})
	}
	return &g, nil
}

// ScanForStock resolves a barcode on the stock screens, where empty goods
// are exactly what is being restocked.
func (s *Service) ScanForStock(ctx context.Context, actor models.Actor, barcode string, shopID *uint) (*models.Good, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "barcode"})
	}
	goods, err := FindByBarcode(s.db.WithContext(ctx).Preload("Category"), actor, barcode, shopID)
	if err != nil {
		return nil, err
	}
	return &goods[0], nil
}

type CreateGoodInput struct {
	ShopID          uint
	CategoryID      uint
	Name            string
	Barcode         string
	Price           decimal.Decimal
	BuyPrice        decimal.Decimal
	StockCount      int
	ProductType     models.ProductType
	RelatedSingleID *uint
}

func (s *Service) CreateGood(ctx context.Context, actor models.Actor, in CreateGoodInput) (*models.Good, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Barcode = strings.TrimSpace(in.Barcode)
	if in.Name == "" {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "name"})
	}
	if in.Barcode == "" {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "barcode"})
	}
	if in.Price.IsNegative() || in.BuyPrice.IsNegative() {
		return nil, apperr.Validation(apperr.MsgInvalidPrice, nil)
	}
	if in.StockCount < 0 {
		return nil, apperr.Validation(apperr.MsgInvalidQuantity, nil)
	}
	if in.ProductType == "" {
		in.ProductType = models.ProductNormal
	}
	if !in.ProductType.Valid() {
		return nil, apperr.Validation(apperr.MsgInvalidProductType, nil)
	}
	if in.RelatedSingleID != nil && in.ProductType != models.ProductCigarettePack {
		return nil, apperr.Validation(apperr.MsgNotAPack, map[string]any{"Name": in.Name})
	}
	if !actor.CanAccessShop(in.ShopID) {
		return nil, apperr.Forbidden(apperr.MsgShopAccessDenied)
	}

	g := models.Good{
		ShopID:          in.ShopID,
		CategoryID:      in.CategoryID,
		Name:            in.Name,
		Barcode:         in.Barcode,
		Price:           in.Price.Round(2),
		BuyPrice:        in.BuyPrice.Round(2),
		StockCount:      in.StockCount,
		ProductType:     in.ProductType,
		RelatedSingleID: in.RelatedSingleID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Shop{}, in.ShopID, apperr.MsgShopNotFound); err != nil {
			return err
		}
		if err := exists(tx, &models.Category{}, in.CategoryID, apperr.MsgCategoryNotFound); err != nil {
			return err
		}

		if in.RelatedSingleID != nil {
			var single models.Good
			if err := tx.First(&single, *in.RelatedSingleID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Validation(apperr.MsgInvalidRelatedSingle, map[string]any{"Name": in.Name})
				}
				return apperr.Internal(err)
			}
			if single.ProductType != models.ProductCigaretteSingle || single.ShopID != in.ShopID {
				return apperr.Validation(apperr.MsgInvalidRelatedSingle, map[string]any{"Name": in.Name})
			}
		}

		var dup int64
		if err := tx.Model(&models.Good{}).
			Where("shop_id = ? AND barcode = ?", in.ShopID, in.Barcode).
			Count(&dup).Error; err != nil {
			return apperr.Internal(err)
		}
		if dup > 0 {
			return apperr.Conflict(apperr.MsgDuplicateBarcode, map[string]any{"Barcode": in.Barcode})
		}

		if err := tx.Omit("Shop", "Category", "RelatedSingle").Create(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict(apperr.MsgDuplicateBarcode, map[string]any{"Barcode": in.Barcode})
			}
			return apperr.Internal(fmt.Errorf("create good: %w", err))
		}

		return audit.WriteLog(tx, audit.LogOptions{
			ShopID:      &g.ShopID,
			Actor:       actor,
			EntityType:  "good",
			EntityID:    g.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("good %s (%s) created with stock %d", g.Name, g.Barcode, g.StockCount),
			After:       g,
		})
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) ListShops(ctx context.Context) ([]models.Shop, error) {
	var out []models.Shop
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) CreateShop(ctx context.Context, actor models.Actor, name string) (*models.Shop, error) {
	shop := models.Shop{Name: strings.TrimSpace(name)}
	if shop.Name == "" {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "name"})
	}
	err := s.createNamed(ctx, actor, &shop, "shop", shop.Name, func() uint { return shop.ID })
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (s *Service) CreateCategory(ctx context.Context, actor models.Actor, name string) (*models.Category, error) {
	cat := models.Category{Name: strings.TrimSpace(name)}
	if cat.Name == "" {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "name"})
	}
	err := s.createNamed(ctx, actor, &cat, "category", cat.Name, func() uint { return cat.ID })
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// createNamed inserts a shop or category, reporting a taken name as a
// conflict.
func (s *Service) createNamed(ctx context.Context, actor models.Actor, row any, entity, name string, id func() uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(row).Where("name = ?", name).Count(&n).Error; err != nil {
			return apperr.Internal(err)
		}
		if n > 0 {
			return apperr.Conflict(apperr.MsgDuplicateName, map[string]any{"Name": name})
		}
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict(apperr.MsgDuplicateName, map[string]any{"Name": name})
			}
			return apperr.Internal(err)
		}
		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  entity,
			EntityID:    id(),
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("%s %s created", entity, name),
			After:       row,
		})
	})
}

func exists(tx *gorm.DB, model any, id uint, msg string) error {
	if id == 0 {
		return apperr.NotFound(msg, nil)
	}
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperr.Internal(err)
	}
	if n == 0 {
		return apperr.NotFound(msg, nil)
	}
	return nil
}
