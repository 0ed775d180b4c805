package expense

import (
	"github.com/cmakhmud/smoking-shop/internal/httpx"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateExpenseRequest struct {
	ShopID      httpx.ID        `json:"shop_id"` // admin only
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"` // "2024-03-15"
}

type ExpenseResponse struct {
	ID          uint   `json:"id"`
	ShopID      uint   `json:"shop_id"`
	ShopName    string `json:"shop_name,omitempty"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// -------------------------
// POST /api/expenses
// -------------------------
func CreateExpenseHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateExpenseRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		actor := httpx.ActorFrom(c)
		shopID, err := httpx.ResolveShop(actor, body.ShopID.Ptr())
		if err != nil {
			return err
		}

		e, err := svc.Create(c.UserContext(), actor, Input{
			ShopID:      shopID,
			Amount:      body.Amount,
			Description: body.Description,
			Date:        body.Date,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(ExpenseResponse{
			ID:          e.ID,
			ShopID:      e.ShopID,
			Amount:      e.Amount.StringFixed(2),
			Description: e.Description,
			Date:        e.ExpenseDate.UTC().Format(DateLayout),
		})
	}
}

// -------------------------
// GET /api/expenses?shop_id=1&from=2024-03-01&to=2024-03-31
// -------------------------
func ListExpensesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requested, err := httpx.QueryID(c, "shop_id")
		if err != nil {
			return err
		}
		shopID, err := httpx.ScopeShop(httpx.ActorFrom(c), requested)
		if err != nil {
			return err
		}

		list, err := svc.List(c.UserContext(), Filter{
			ShopID: shopID,
			From:   c.Query("from"),
			To:     c.Query("to"),
			Limit:  c.QueryInt("limit", 200),
		})
		if err != nil {
			return err
		}

		resp := make([]ExpenseResponse, 0, len(list))
		for _, e := range list {
			resp = append(resp, ExpenseResponse{
				ID:          e.ID,
				ShopID:      e.ShopID,
				ShopName:    e.Shop.Name,
				Amount:      e.Amount.StringFixed(2),
				Description: e.Description,
				Date:        e.ExpenseDate.UTC().Format(DateLayout),
				CreatedBy:   e.CreatedBy.Name,
			})
		}
		return c.JSON(resp)
	}
}
