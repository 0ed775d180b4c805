package pack

import (
	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

type OpenPackRequest struct {
	GoodID  httpx.ID `json:"good_id"`
	Barcode string   `json:"barcode"`
	ShopID  httpx.ID `json:"shop_id"`
}

// POST /api/open-pack/
func OpenPackHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OpenPackRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.GoodID.Set && body.Barcode == "" {
			return apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "barcode"})
		}

		res, err := svc.Open(c.UserContext(), httpx.ActorFrom(c), OpenInput{
			GoodID:  body.GoodID.Value,
			Barcode: body.Barcode,
			ShopID:  body.ShopID.Ptr(),
		})
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"success": true,
			"pack": fiber.Map{
				"id":          res.Pack.ID,
				"name":        res.Pack.Name,
				"stock_count": res.Pack.StockCount,
			},
			"single": fiber.Map{
				"id":          res.Single.ID,
				"name":        res.Single.Name,
				"stock_count": res.Single.StockCount,
			},
			"added": res.Added,
		})
	}
}
