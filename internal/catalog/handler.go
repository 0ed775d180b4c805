package catalog

import (
	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/httpx"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type GoodResponse struct {
	ID              uint               `json:"id"`
	Name            string             `json:"name"`
	Price           string             `json:"price"`
	BuyPrice        string             `json:"buy_price,omitempty"`
	Barcode         string             `json:"barcode"`
	Category        string             `json:"category"`
	ShopID          uint               `json:"shop_id"`
	ShopName        string             `json:"shop_name,omitempty"`
	StockCount      int                `json:"stock_count"`
	ProductType     models.ProductType `json:"product_type"`
	RelatedSingleID *uint              `json:"related_single_id,omitempty"`
}

func toGoodResponse(g *models.Good, withCost bool) GoodResponse {
	r := GoodResponse{
		ID:              g.ID,
		Name:            g.Name,
		Price:           g.Price.StringFixed(2),
		Barcode:         g.Barcode,
		Category:        g.Category.Name,
		ShopID:          g.ShopID,
		ShopName:        g.Shop.Name,
		StockCount:      g.StockCount,
		ProductType:     g.ProductType,
		RelatedSingleID: g.RelatedSingleID,
	}
	if withCost {
		r.BuyPrice = g.BuyPrice.StringFixed(2)
	}
	return r
}

type ScanRequest struct {
	Barcode string   `json:"barcode"`
	ShopID  httpx.ID `json:"shop_id"`
}

type CreateGoodRequest struct {
	ShopID          httpx.ID           `json:"shop_id"`
	CategoryID      httpx.ID           `json:"category_id"`
	Name            string             `json:"name"`
	Barcode         string             `json:"barcode"`
	Price           decimal.Decimal    `json:"price"`
	BuyPrice        decimal.Decimal    `json:"buy_price"`
	StockCount      int                `json:"stock_count"`
	ProductType     models.ProductType `json:"product_type"`
	RelatedSingleID httpx.ID           `json:"related_single_id"`
}

type NameRequest struct {
	Name string `json:"name"`
}

// -------------------------
// GET /api/search/?q=marl&shop_id=1
// -------------------------
func SearchGoodsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := httpx.QueryID(c, "shop_id")
		if err != nil {
			return err
		}
		if shopID, err = httpx.ScopeShop(httpx.ActorFrom(c), shopID); err != nil {
			return err
		}
		// the till always works inside one shop
		if shopID == nil {
			return c.JSON(fiber.Map{"results": []GoodResponse{}})
		}

		goods, err := svc.Search(c.UserContext(), SearchInput{
			Query:       c.Query("q"),
			ShopID:      shopID,
			InStockOnly: true,
		})
		if err != nil {
			return err
		}

		results := make([]GoodResponse, 0, len(goods))
		for i := range goods {
			results = append(results, toGoodResponse(&goods[i], false))
		}
		return c.JSON(fiber.Map{"results": results})
	}
}

// POST /api/scan/
func ScanBarcodeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ScanRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		g, err := svc.ScanForSale(c.UserContext(), body.ShopID.Value, body.Barcode)
		if err != nil {
			return err
		}
		return c.JSON(toGoodResponse(g, false))
	}
}

// GET /api/search-stock/?q=marl&shop_id=1
func SearchStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requested, err := httpx.QueryID(c, "shop_id")
		if err != nil {
			return err
		}
		shopID, err := httpx.ScopeShop(httpx.ActorFrom(c), requested)
		if err != nil {
			return err
		}

		goods, err := svc.Search(c.UserContext(), SearchInput{Query: c.Query("q"), ShopID: shopID})
		if err != nil {
			return err
		}

		results := make([]GoodResponse, 0, len(goods))
		for i := range goods {
			results = append(results, toGoodResponse(&goods[i], true))
		}
		return c.JSON(fiber.Map{"results": results})
	}
}

// POST /api/scan-stock/
func ScanStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ScanRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		g, err := svc.ScanForStock(c.UserContext(), httpx.ActorFrom(c), body.Barcode, body.ShopID.Ptr())
		if err != nil {
			return err
		}
		return c.JSON(toGoodResponse(g, true))
	}
}

// POST /api/create-good/
func CreateGoodHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateGoodRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		actor := httpx.ActorFrom(c)
		shopID, err := httpx.ResolveShop(actor, body.ShopID.Ptr())
		if err != nil {
			return err
		}
		if !body.CategoryID.Set {
			return apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "category_id"})
		}

		g, err := svc.CreateGood(c.UserContext(), actor, CreateGoodInput{
			ShopID:          shopID,
			CategoryID:      body.CategoryID.Value,
			Name:            body.Name,
			Barcode:         body.Barcode,
			Price:           body.Price,
			BuyPrice:        body.BuyPrice,
			StockCount:      body.StockCount,
			ProductType:     body.ProductType,
			RelatedSingleID: body.RelatedSingleID.Ptr(),
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"good":    toGoodResponse(g, true),
		})
	}
}

// GET /api/categories/
func ListCategoriesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := svc.ListCategories(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"categories": cats})
	}
}

// GET /api/admin/shops
func ListShopsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shops, err := svc.ListShops(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(shops)
	}
}

// POST /api/admin/shops
func CreateShopHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body NameRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		shop, err := svc.CreateShop(c.UserContext(), httpx.ActorFrom(c), body.Name)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(shop)
	}
}

// POST /api/admin/categories
func CreateCategoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body NameRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		cat, err := svc.CreateCategory(c.UserContext(), httpx.ActorFrom(c), body.Name)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}
