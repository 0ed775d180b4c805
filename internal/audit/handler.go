package audit

import (
	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/httpx"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/admin/audit-logs?shop_id=1&user_id=2&entity_type=debt&entity_id=5&limit=100
func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f Filter
		var err error
		if f.ShopID, err = httpx.QueryID(c, "shop_id"); err != nil {
			return err
		}
		if f.UserID, err = httpx.QueryID(c, "user_id"); err != nil {
			return err
		}
		if f.EntityID, err = httpx.QueryID(c, "entity_id"); err != nil {
			return err
		}
		f.EntityType = c.Query("entity_type")
		f.Limit = c.QueryInt("limit", 200)

		logs, err := List(db.WithContext(c.UserContext()), f)
		if err != nil {
			return apperr.Internal(err)
		}
		return c.JSON(logs)
	}
}
