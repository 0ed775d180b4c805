package stock

import (
	"errors"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/httpx"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/goods/:id/movements?limit=100
func ListMovementsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		db := db.WithContext(c.UserContext())

		var good models.Good
		if err := db.First(&good, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(apperr.MsgGoodNotFound, nil)
			}
			return apperr.Internal(err)
		}
		if !httpx.ActorFrom(c).CanAccessShop(good.ShopID) {
			return apperr.Forbidden(apperr.MsgShopAccessDenied)
		}

		mv, err := Movements(db, good.ID, c.QueryInt("limit", 100))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"good_id": good.ID, "stock_count": good.StockCount, "movements": mv})
	}
}
