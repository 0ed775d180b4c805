// Package health reports liveness of the store and the duplicate-sale cache.
package health

import (
	"context"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Checker struct {
	db    *gorm.DB
	redis *redis.Client // nil when the in-process store is used
}

func NewChecker(db *gorm.DB, rdb *redis.Client) *Checker {
	return &Checker{db: db, redis: rdb}
}

type Report struct {
	Status   string           `json:"status"`
	Database string           `json:"database"`
	Redis    string           `json:"redis"`
	Counts   map[string]int64 `json:"counts,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Check pings every backend and counts the main tables. Status is "ok"
// only when every configured backend answered.
func (h *Checker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rep := Report{Status: "ok", Database: "ok", Redis: "disabled"}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		rep.Status = "error"
		rep.Database = "error"
		rep.Error = err.Error()
		return rep
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			rep.Status = "error"
			rep.Redis = "error"
			rep.Error = err.Error()
		} else {
			rep.Redis = "ok"
		}
	}

	rep.Counts = map[string]int64{}
	tables := []struct {
		name  string
		model any
	}{
		{"users", &models.User{}},
		{"shops", &models.Shop{}},
		{"goods", &models.Good{}},
		{"sales", &models.Sale{}},
	}
	for _, t := range tables {
		var n int64
		if err := h.db.WithContext(ctx).Model(t.model).Count(&n).Error; err != nil {
			rep.Status = "error"
			rep.Error = err.Error()
			return rep
		}
		rep.Counts[t.name] = n
	}
	return rep
}

// GET /health/
func Handler(h *Checker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep := h.Check(c.UserContext())
		status := fiber.StatusOK
		if rep.Status != "ok" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(rep)
	}
}
