package debt

import (
	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/httpx"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type DebtItemRequest struct {
	ID       httpx.ID `json:"id"`
	Quantity int      `json:"quantity"`
}

type CreateDebtRequest struct {
	ShopID        httpx.ID          `json:"shop_id"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone"`
	DueDate       string            `json:"due_date"`
	Description   string            `json:"description"`
	Items         []DebtItemRequest `json:"items"`
}

type PayDebtRequest struct {
	DebtID httpx.ID        `json:"debt_id"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

type CancelDebtRequest struct {
	DebtID httpx.ID `json:"debt_id"`
}

type DebtItemResponse struct {
	ID         uint   `json:"id"`
	GoodID     uint   `json:"good_id"`
	GoodName   string `json:"good_name,omitempty"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

type DebtPaymentResponse struct {
	ID        uint   `json:"id"`
	Amount    string `json:"amount"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at"`
}

type DebtResponse struct {
	ID              uint                  `json:"id"`
	ShopID          uint                  `json:"shop_id"`
	ShopName        string                `json:"shop_name,omitempty"`
	CustomerName    string                `json:"customer_name"`
	CustomerPhone   string                `json:"customer_phone"`
	TotalAmount     string                `json:"total_amount"`
	PaidAmount      string                `json:"paid_amount"`
	RemainingAmount string                `json:"remaining_amount"`
	Status          models.DebtStatus     `json:"status"`
	DueDate         string                `json:"due_date"`
	Description     string                `json:"description"`
	CreatedAt       string                `json:"created_at"`
	Items           []DebtItemResponse    `json:"items,omitempty"`
	Payments        []DebtPaymentResponse `json:"payments,omitempty"`
}

func ToResponse(d *models.Debt) DebtResponse {
	resp := DebtResponse{
		ID:              d.ID,
		ShopID:          d.ShopID,
		ShopName:        d.Shop.Name,
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.CustomerPhone,
		TotalAmount:     d.TotalAmount.StringFixed(2),
		PaidAmount:      d.PaidAmount.StringFixed(2),
		RemainingAmount: d.RemainingAmount.StringFixed(2),
		Status:          d.Status,
		DueDate:         d.DueDate.UTC().Format(dateLayout),
		Description:     d.Description,
		CreatedAt:       d.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	for _, it := range d.Items {
		resp.Items = append(resp.Items, DebtItemResponse{
			ID:         it.ID,
			GoodID:     it.GoodID,
			GoodName:   it.Good.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.StringFixed(2),
			TotalPrice: it.TotalPrice.StringFixed(2),
		})
	}
	for _, p := range d.Payments {
		resp.Payments = append(resp.Payments, DebtPaymentResponse{
			ID:        p.ID,
			Amount:    p.Amount.StringFixed(2),
			Note:      p.Note,
			CreatedAt: p.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return resp
}

// -------------------------
// POST /api/debt/create/
// -------------------------
func CreateDebtHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateDebtRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		actor := httpx.ActorFrom(c)
		shopID, err := httpx.ResolveShop(actor, body.ShopID.Ptr())
		if err != nil {
			return err
		}

		in := CreateInput{
			ShopID:        shopID,
			CustomerName:  body.CustomerName,
			CustomerPhone: body.CustomerPhone,
			DueDate:       body.DueDate,
			Description:   body.Description,
		}
		for _, it := range body.Items {
			in.Lines = append(in.Lines, Line{GoodID: it.ID.Value, Quantity: it.Quantity})
		}

		d, err := svc.Create(c.UserContext(), actor, in)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"debt":    ToResponse(d),
		})
	}
}

// -------------------------
// POST /api/debt/pay/
// -------------------------
func PayDebtHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PayDebtRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.DebtID.Set {
			return apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "debt_id"})
		}

		d, err := svc.Pay(c.UserContext(), httpx.ActorFrom(c), PayInput{
			DebtID: body.DebtID.Value,
			Amount: body.Amount,
			Note:   body.Note,
		})
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"success": true,
			"debt":    ToResponse(d),
		})
	}
}

// -------------------------
// POST /api/debt/cancel/
// -------------------------
func CancelDebtHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CancelDebtRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.DebtID.Set {
			return apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "debt_id"})
		}

		d, err := svc.Cancel(c.UserContext(), httpx.ActorFrom(c), body.DebtID.Value)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"success": true,
			"debt":    ToResponse(d),
		})
	}
}

// GET /api/debts?shop_id=1&status=pending
func ListDebtsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requested, err := httpx.QueryID(c, "shop_id")
		if err != nil {
			return err
		}
		shopID, err := httpx.ScopeShop(httpx.ActorFrom(c), requested)
		if err != nil {
			return err
		}

		debts, err := svc.List(c.UserContext(), ListFilter{
			ShopID: shopID,
			Status: models.DebtStatus(c.Query("status")),
			Limit:  c.QueryInt("limit", 200),
		})
		if err != nil {
			return err
		}

		resp := make([]DebtResponse, 0, len(debts))
		for i := range debts {
			resp = append(resp, ToResponse(&debts[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/debts/:id
func GetDebtHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		d, err := svc.Get(c.UserContext(), httpx.ActorFrom(c), id)
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(d))
	}
}
