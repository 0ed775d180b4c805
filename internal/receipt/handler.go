package receipt

import (
	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/httpx"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type StockReceiptRequest struct {
	ShopID      httpx.ID           `json:"shop_id"`
	GoodID      httpx.ID           `json:"good_id"`
	Quantity    int                `json:"quantity"`
	ReceiptType models.ReceiptType `json:"receipt_type"`
	UnitCost    decimal.Decimal    `json:"unit_cost"`
	Supplier    string             `json:"supplier"`
	Notes       string             `json:"notes"`
}

type StockReceiptResponse struct {
	ID          uint               `json:"id"`
	ShopID      uint               `json:"shop_id"`
	ShopName    string             `json:"shop_name,omitempty"`
	GoodID      uint               `json:"good_id"`
	GoodName    string             `json:"good_name"`
	StockCount  int                `json:"stock_count"`
	Quantity    int                `json:"quantity"`
	ReceiptType models.ReceiptType `json:"receipt_type"`
	UnitCost    string             `json:"unit_cost"`
	TotalCost   string             `json:"total_cost"`
	Supplier    string             `json:"supplier"`
	Notes       string             `json:"notes"`
	CreatedAt   string             `json:"created_at"`
}

func toResponse(r *models.StockReceipt) StockReceiptResponse {
	return StockReceiptResponse{
		ID:          r.ID,
		ShopID:      r.ShopID,
		ShopName:    r.Shop.Name,
		GoodID:      r.GoodID,
		GoodName:    r.Good.Name,
		StockCount:  r.Good.StockCount,
		Quantity:    r.Quantity,
		ReceiptType: r.ReceiptType,
		UnitCost:    r.UnitCost.StringFixed(2),
		TotalCost:   r.TotalCost.StringFixed(2),
		Supplier:    r.Supplier,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (b StockReceiptRequest) input(shopID uint) Input {
	return Input{
		ShopID:   shopID,
		GoodID:   b.GoodID.Value,
		Quantity: b.Quantity,
		Type:     b.ReceiptType,
		UnitCost: b.UnitCost,
		Supplier: b.Supplier,
		Notes:    b.Notes,
	}
}

// -------------------------
// POST /api/stock-receipt/
// -------------------------
func CreateStockReceiptHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body StockReceiptRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.GoodID.Set {
			return apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "good_id"})
		}

		actor := httpx.ActorFrom(c)
		shopID, err := httpx.ResolveShop(actor, body.ShopID.Ptr())
		if err != nil {
			return err
		}

		r, err := svc.Create(c.UserContext(), actor, body.input(shopID))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"receipt": toResponse(r),
		})
	}
}

// PUT /api/stock-receipts/:id
func UpdateStockReceiptHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body StockReceiptRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		r, err := svc.Update(c.UserContext(), httpx.ActorFrom(c), id, body.input(0))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success": true,
			"receipt": toResponse(r),
		})
	}
}

// DELETE /api/stock-receipts/:id
func DeleteStockReceiptHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), httpx.ActorFrom(c), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// GET /api/stock-receipts?shop_id=1&good_id=3
func ListStockReceiptsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requested, err := httpx.QueryID(c, "shop_id")
		if err != nil {
			return err
		}
		shopID, err := httpx.ScopeShop(httpx.ActorFrom(c), requested)
		if err != nil {
			return err
		}
		goodID, err := httpx.QueryID(c, "good_id")
		if err != nil {
			return err
		}

		list, err := svc.List(c.UserContext(), ListFilter{
			ShopID: shopID,
			GoodID: goodID,
			Limit:  c.QueryInt("limit", 100),
		})
		if err != nil {
			return err
		}

		resp := make([]StockReceiptResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toResponse(&list[i]))
		}
		return c.JSON(resp)
	}
}
