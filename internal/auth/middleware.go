package auth

import (
	"net/url"
	"strings"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/httpx"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CookieName holds the token for the server-rendered pages.
const CookieName = "token"

func tokenFromRequest(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(CookieName)
}

// JWTMiddleware authenticates the request from the Authorization header or
// the token cookie and stores the caller as the request actor.
func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			return apperr.Unauthorized(apperr.MsgAuthRequired)
		}

		claims, err := ParseToken(secret, tokenStr)
		if err != nil {
			return apperr.Unauthorized(apperr.MsgInvalidToken)
		}

		httpx.SetActor(c, claims.Actor())
		return c.Next()
	}
}

// OptionalJWT sets the actor when a valid token is present and lets the
// request through anonymously otherwise. The till routes use it.
func OptionalJWT(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenStr := tokenFromRequest(c); tokenStr != "" {
			if claims, err := ParseToken(secret, tokenStr); err == nil {
				httpx.SetActor(c, claims.Actor())
			}
		}
		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := httpx.ActorFrom(c).Role
		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return apperr.Forbidden(apperr.MsgForbidden)
	}
}

// PageGuard protects HTML pages: missing or bad tokens redirect to the
// login page, a wrong role gets 403.
func PageGuard(secret string, allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := ParseToken(secret, tokenFromRequest(c))
		if err != nil {
			return c.Redirect("/login/?next=" + url.QueryEscape(c.OriginalURL()))
		}
		if len(allowedRoles) > 0 {
			allowed := false
			for _, r := range allowedRoles {
				if r == claims.Role {
					allowed = true
					break
				}
			}
			if !allowed {
				return apperr.Forbidden(apperr.MsgForbidden)
			}
		}
		httpx.SetActor(c, claims.Actor())
		return c.Next()
	}
}
