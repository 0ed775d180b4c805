package auth

import (
	"time"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/httpx"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserRequest struct {
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Password string   `json:"password"`
	ShopID   httpx.ID `json:"shop_id"`
}

type UserResponse struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Phone    string          `json:"phone,omitempty"`
	Role     models.UserRole `json:"role"`
	ShopID   *uint           `json:"shop_id"`
	ShopName string          `json:"shop_name,omitempty"`
}

func toUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Phone:    u.Phone,
		Role:     u.Role,
		ShopID:   u.ShopID,
	}
	if u.Shop != nil {
		resp.ShopName = u.Shop.Name
	}
	return resp
}

// -------------------------
// POST /api/auth/register-admin
// -------------------------
func RegisterAdminHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UserRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		user, err := svc.RegisterAdmin(c.UserContext(), UserInput{
			Username: body.Username,
			Name:     body.Name,
			Phone:    body.Phone,
			Password: body.Password,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// -------------------------
// POST /api/auth/login
// -------------------------
func LoginHandler(svc *Service, secureCookie bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		token, user, err := svc.Login(c.UserContext(), body.Username, body.Password)
		if err != nil {
			return err
		}

		c.Cookie(&fiber.Cookie{
			Name:     CookieName,
			Value:    token,
			Path:     "/",
			Expires:  svc.now().Add(tokenTTL),
			HTTPOnly: true,
			Secure:   secureCookie,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

// POST /api/auth/logout
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ClearCookie(c)
		return c.JSON(fiber.Map{"success": true})
	}
}

// ClearCookie expires the session cookie.
func ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// GET /api/auth/me
func MeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := httpx.ActorFrom(c)
		if actor.UserID == 0 {
			return apperr.Unauthorized(apperr.MsgAuthRequired)
		}
		user, err := svc.Get(c.UserContext(), actor.UserID)
		if err != nil {
			return err
		}
		return c.JSON(toUserResponse(user))
	}
}

// -------------------------
// POST /api/admin/workers
// -------------------------
func CreateWorkerHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UserRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		user, err := svc.CreateWorker(c.UserContext(), httpx.ActorFrom(c), UserInput{
			Username: body.Username,
			Name:     body.Name,
			Phone:    body.Phone,
			Password: body.Password,
			ShopID:   body.ShopID.Ptr(),
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// GET /api/admin/workers?shop_id=1
func ListWorkersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := httpx.QueryID(c, "shop_id")
		if err != nil {
			return err
		}
		users, err := svc.ListWorkers(c.UserContext(), shopID)
		if err != nil {
			return err
		}
		resp := make([]UserResponse, 0, len(users))
		for i := range users {
			resp = append(resp, toUserResponse(&users[i]))
		}
		return c.JSON(resp)
	}
}
