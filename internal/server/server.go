// Package server assembles the fiber application: middleware, error
// rendering and the route table.
package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/audit"
	"github.com/cmakhmud/smoking-shop/internal/auth"
	"github.com/cmakhmud/smoking-shop/internal/catalog"
	"github.com/cmakhmud/smoking-shop/internal/config"
	"github.com/cmakhmud/smoking-shop/internal/dashboard"
	"github.com/cmakhmud/smoking-shop/internal/debt"
	"github.com/cmakhmud/smoking-shop/internal/expense"
	"github.com/cmakhmud/smoking-shop/internal/health"
	"github.com/cmakhmud/smoking-shop/internal/httpx"
	"github.com/cmakhmud/smoking-shop/internal/i18n"
	"github.com/cmakhmud/smoking-shop/internal/idempotency"
	"github.com/cmakhmud/smoking-shop/internal/models"
	"github.com/cmakhmud/smoking-shop/internal/pack"
	"github.com/cmakhmud/smoking-shop/internal/receipt"
	"github.com/cmakhmud/smoking-shop/internal/report"
	"github.com/cmakhmud/smoking-shop/internal/sales"
	"github.com/cmakhmud/smoking-shop/internal/stock"
	"github.com/cmakhmud/smoking-shop/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client // optional
	Idem   idempotency.Store
	Log    *zap.Logger
	Tr     *i18n.Translator
}

// New wires every service and returns the ready application.
func New(d Deps) *fiber.App {
	cfg := d.Config
	loc := cfg.Location()

	app := fiber.New(fiber.Config{
		AppName:      "smoking-shop",
		ErrorHandler: ErrorHandler(d.Tr, d.Log),
		Views:        web.NewEngine(),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(requestLogger(d.Log))
	origins := strings.Join(cfg.CORSOriginList(), ",")
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language, Authorization, Idempotency-Key",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
	}))
	if cfg.RequestTimeout > 0 {
		app.Use(requestTimeout(cfg.RequestTimeout))
	}

	authSvc := auth.NewService(d.DB, cfg.JWTSecret)
	catalogSvc := catalog.NewService(d.DB)
	salesSvc := sales.NewService(d.DB, d.Idem, d.Log)
	debtSvc := debt.NewService(d.DB, d.Log)
	packSvc := pack.NewService(d.DB, cfg.PackSize, d.Log)
	receiptSvc := receipt.NewService(d.DB)
	expenseSvc := expense.NewService(d.DB, loc)
	reportSvc := report.NewService(d.DB, loc)
	chartSvc := dashboard.NewService(d.DB, loc)

	app.Get("/health/", health.Handler(health.NewChecker(d.DB, d.Redis)))

	pages := &web.Pages{
		Auth:         authSvc,
		Catalog:      catalogSvc,
		Debts:        debtSvc,
		Reports:      reportSvc,
		Tr:           d.Tr,
		PackSize:     cfg.PackSize,
		SecureCookie: cfg.IsProduction(),
	}
	pages.Register(app, cfg.JWTSecret)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(authSvc, cfg.IsProduction()))
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(authSvc))
	api.Post("/auth/logout", auth.LogoutHandler())

	// Till: anonymous terminals name their shop, logged-in workers are
	// pinned to theirs.
	till := auth.OptionalJWT(cfg.JWTSecret)
	api.Get("/search/", till, catalog.SearchGoodsHandler(catalogSvc))
	api.Post("/scan/", till, catalog.ScanBarcodeHandler(catalogSvc))
	api.Post("/sale/", till, sales.ProcessSaleHandler(salesSvc))
	api.Get("/receipts/:receipt_no", till, sales.GetReceiptHandler(salesSvc))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(authSvc))

	protected.Post("/debt/create/", debt.CreateDebtHandler(debtSvc))
	protected.Post("/debt/pay/", debt.PayDebtHandler(debtSvc))
	protected.Post("/debt/cancel/", debt.CancelDebtHandler(debtSvc))
	protected.Get("/debts", debt.ListDebtsHandler(debtSvc))
	protected.Get("/debts/:id", debt.GetDebtHandler(debtSvc))

	protected.Post("/open-pack/", pack.OpenPackHandler(packSvc))

	protected.Post("/stock-receipt/", receipt.CreateStockReceiptHandler(receiptSvc))
	protected.Get("/stock-receipts", receipt.ListStockReceiptsHandler(receiptSvc))
	protected.Put("/stock-receipts/:id", receipt.UpdateStockReceiptHandler(receiptSvc))
	protected.Delete("/stock-receipts/:id", receipt.DeleteStockReceiptHandler(receiptSvc))

	protected.Post("/scan-stock/", catalog.ScanStockHandler(catalogSvc))
	protected.Get("/search-stock/", catalog.SearchStockHandler(catalogSvc))
	protected.Get("/goods/:id/movements", stock.ListMovementsHandler(d.DB))
	protected.Post("/create-good/", catalog.CreateGoodHandler(catalogSvc))
	protected.Get("/categories/", catalog.ListCategoriesHandler(catalogSvc))

	protected.Post("/expenses", expense.CreateExpenseHandler(expenseSvc))
	protected.Get("/expenses", expense.ListExpensesHandler(expenseSvc))

	// Admin
	finance := protected.Group("/finance", auth.RequireRole(models.RoleAdmin))
	finance.Get("/summary", report.SummaryHandler(reportSvc))
	finance.Get("/export.xlsx", report.ExportHandler(reportSvc))
	finance.Get("/revenue-chart", dashboard.RevenueChartHandler(chartSvc))

	adminRoutes := protected.Group("/admin", auth.RequireRole(models.RoleAdmin))
	adminRoutes.Get("/shops", catalog.ListShopsHandler(catalogSvc))
	adminRoutes.Post("/shops", catalog.CreateShopHandler(catalogSvc))
	adminRoutes.Post("/categories", catalog.CreateCategoryHandler(catalogSvc))
	adminRoutes.Get("/categories", catalog.ListCategoriesHandler(catalogSvc))
	adminRoutes.Post("/workers", auth.CreateWorkerHandler(authSvc))
	adminRoutes.Get("/workers", auth.ListWorkersHandler(authSvc))
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler(d.DB))

	return app
}

// ErrorHandler renders every error as {"error", "code"} in the caller's
// language. Ambiguous lookups also carry their candidates.
func ErrorHandler(tr *i18n.Translator, log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		langs := httpx.Languages(c)

		var ae *apperr.Error
		if errors.As(err, &ae) {
			if ae.Kind == apperr.KindInternal {
				logInternal(c, log, err)
			}
			body := fiber.Map{
				"error": tr.Localize(ae.MessageID, ae.Data, langs...),
				"code":  ae.MessageID,
			}
			if ae.Candidates != nil {
				body["candidates"] = ae.Candidates
			}
			return c.Status(ae.Kind.Status()).JSON(body)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("request timed out", zap.String("path", c.Path()))
		} else {
			logInternal(c, log, err)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": tr.Localize(apperr.MsgInternal, nil, langs...),
			"code":  apperr.MsgInternal,
		})
	}
}

func logInternal(c *fiber.Ctx, log *zap.Logger, err error) {
	log.Error("unexpected error",
		zap.Error(err),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Any("request_id", c.Locals("requestid")),
	)
}

func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// render now so the logged status is the one sent
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.Any("request_id", c.Locals("requestid")),
		)
		return nil
	}
}

func requestTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
