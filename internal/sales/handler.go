package sales

import (
	"strings"

	"github.com/cmakhmud/smoking-shop/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

type SaleItemRequest struct {
	ID       httpx.ID `json:"id"`
	Quantity int      `json:"quantity"`
}

type ProcessSaleRequest struct {
	ShopID httpx.ID          `json:"shop_id"`
	Items  []SaleItemRequest `json:"items"`
	Token  string            `json:"token"`
}

type SaleLineResponse struct {
	ID         uint   `json:"id"`
	GoodID     uint   `json:"good_id"`
	Quantity   int    `json:"quantity"`
	TotalPrice string `json:"total_price"`
}

// POST /api/sale/
func ProcessSaleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProcessSaleRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		actor := httpx.ActorFrom(c)
		shopID, err := httpx.ResolveShop(actor, body.ShopID.Ptr())
		if err != nil {
			return err
		}

		token := strings.TrimSpace(body.Token)
		if token == "" {
			token = strings.TrimSpace(c.Get("Idempotency-Key"))
		}

		req := Request{ShopID: shopID, Token: token}
		for _, it := range body.Items {
			req.Lines = append(req.Lines, Line{GoodID: it.ID.Value, Quantity: it.Quantity})
		}

		res, err := svc.Process(c.UserContext(), actor, req)
		if err != nil {
			return err
		}

		if res.Duplicate {
			return c.JSON(fiber.Map{
				"success":   true,
				"duplicate": true,
				"message":   "Sale already recorded",
			})
		}

		lines := make([]SaleLineResponse, 0, len(res.Sales))
		for _, s := range res.Sales {
			lines = append(lines, SaleLineResponse{
				ID:         s.ID,
				GoodID:     s.GoodID,
				Quantity:   s.Quantity,
				TotalPrice: s.TotalPrice.StringFixed(2),
			})
		}

		return c.JSON(fiber.Map{
			"success":    true,
			"duplicate":  false,
			"message":    "Sale completed successfully",
			"receipt_no": res.ReceiptNo,
			"total":      res.Total.StringFixed(2),
			"lines":      lines,
		})
	}
}

// GET /api/receipts/:receipt_no
func GetReceiptHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// workers only see receipts of their own shop
		shopID, err := httpx.ScopeShop(httpx.ActorFrom(c), nil)
		if err != nil {
			return err
		}
		lines, err := svc.ListByReceipt(c.UserContext(), c.Params("receipt_no"), shopID)
		if err != nil {
			return err
		}

		resp := make([]fiber.Map, 0, len(lines))
		for _, s := range lines {
			resp = append(resp, fiber.Map{
				"id":          s.ID,
				"good_id":     s.GoodID,
				"name":        s.Good.Name,
				"quantity":    s.Quantity,
				"total_price": s.TotalPrice.StringFixed(2),
				"timestamp":   s.Timestamp,
			})
		}
		return c.JSON(fiber.Map{"receipt_no": c.Params("receipt_no"), "lines": resp})
	}
}
