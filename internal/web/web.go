// Package web serves the server-rendered pages of the shop. The pages are
// thin: scanning, selling and form submission go through the JSON API.
package web

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/auth"
	"github.com/cmakhmud/smoking-shop/internal/catalog"
	"github.com/cmakhmud/smoking-shop/internal/debt"
	"github.com/cmakhmud/smoking-shop/internal/httpx"
	"github.com/cmakhmud/smoking-shop/internal/i18n"
	"github.com/cmakhmud/smoking-shop/internal/models"
	"github.com/cmakhmud/smoking-shop/internal/report"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templateFS embed.FS

const layout = "layouts/main"

// NewEngine returns the template engine over the embedded pages.
func NewEngine() *html.Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("selected", func(a, b any) bool { return toString(a) == toString(b) })
	return engine
}

type Pages struct {
	Auth    *auth.Service
	Catalog *catalog.Service
	Debts   *debt.Service
	Reports *report.Service
	Tr      *i18n.Translator

	PackSize     int
	SecureCookie bool
}

func (p *Pages) localize(c *fiber.Ctx, err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return p.Tr.Localize(ae.MessageID, ae.Data, httpx.Languages(c)...)
	}
	return p.Tr.Localize(apperr.MsgInternal, nil, httpx.Languages(c)...)
}

func (p *Pages) render(c *fiber.Ctx, name string, data fiber.Map) error {
	actor := httpx.ActorFrom(c)
	data["Actor"] = actor
	data["IsAdmin"] = actor.IsAdmin()
	data["LoggedIn"] = actor.UserID != 0
	return c.Render(name, data, layout)
}

// safeNext keeps redirects on this host.
func safeNext(next string) string {
	const fallback = "/worker/"
	// browsers read a backslash as a slash and drop tabs and newlines, so
	// "/\host" or "/\t/host" would become "//host"
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\t\r\n") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

// GET /login/
func (p *Pages) LoginPage(c *fiber.Ctx) error {
	return p.render(c, "login", fiber.Map{"Title": "Login", "Next": c.Query("next")})
}

// POST /login/
func (p *Pages) LoginSubmit(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := c.FormValue("next")

	token, _, err := p.Auth.Login(c.UserContext(), username, c.FormValue("password"))
	if err != nil {
		c.Status(fiber.StatusUnauthorized)
		return p.render(c, "login", fiber.Map{
			"Title":    "Login",
			"Next":     next,
			"Username": username,
			"Error":    p.localize(c, err),
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   p.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(safeNext(next))
}

// GET /logout/
func (p *Pages) Logout(c *fiber.Ctx) error {
	auth.ClearCookie(c)
	return c.Redirect("/login/")
}

// GET /worker/
func (p *Pages) Worker(c *fiber.Ctx) error {
	shops, err := p.Catalog.ListShops(c.UserContext())
	if err != nil {
		return err
	}
	actor := httpx.ActorFrom(c)
	return p.render(c, "worker", fiber.Map{
		"Title":     "Till",
		"Shops":     shops,
		"FixedShop": actor.ShopID,
	})
}

// GET /worker/open-pack/
func (p *Pages) OpenPack(c *fiber.Ctx) error {
	shops, err := p.Catalog.ListShops(c.UserContext())
	if err != nil {
		return err
	}
	return p.render(c, "open_pack", fiber.Map{
		"Title":    "Open pack",
		"Shops":    shops,
		"PackSize": p.PackSize,
	})
}

// GET /create-debt/
func (p *Pages) CreateDebt(c *fiber.Ctx) error {
	shops, err := p.Catalog.ListShops(c.UserContext())
	if err != nil {
		return err
	}
	return p.render(c, "create_debt", fiber.Map{"Title": "New debt", "Shops": shops})
}

// GET /stock-receipt/
func (p *Pages) StockReceipt(c *fiber.Ctx) error {
	shops, err := p.Catalog.ListShops(c.UserContext())
	if err != nil {
		return err
	}
	cats, err := p.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return p.render(c, "stock_receipt", fiber.Map{
		"Title":      "Stock receipt",
		"Shops":      shops,
		"Categories": cats,
	})
}

// GET /debts/?status=pending
func (p *Pages) DebtsPage(c *fiber.Ctx) error {
	actor := httpx.ActorFrom(c)
	requested, err := httpx.QueryID(c, "shop_id")
	if err != nil {
		return err
	}
	shopID, err := httpx.ScopeShop(actor, requested)
	if err != nil {
		return err
	}
	status := c.Query("status", string(models.DebtPending))

	debts, err := p.Debts.List(c.UserContext(), debt.ListFilter{
		ShopID: shopID,
		Status: models.DebtStatus(status),
	})
	if err != nil {
		return err
	}
	rows := make([]debt.DebtResponse, 0, len(debts))
	for i := range debts {
		rows = append(rows, debt.ToResponse(&debts[i]))
	}
	return p.render(c, "debts", fiber.Map{
		"Title":  "Debts",
		"Debts":  rows,
		"Status": status,
	})
}

// GET /finance/
func (p *Pages) Finance(c *fiber.Ctx) error {
	shops, err := p.Catalog.ListShops(c.UserContext())
	if err != nil {
		return err
	}
	cats, err := p.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	data := fiber.Map{
		"Title":      "Finance",
		"Shops":      shops,
		"Categories": cats,
		"Query":      string(c.Request().URI().QueryString()),
		"Filter":     report.Filter{DateFilter: report.FilterToday},
	}

	f, err := report.FilterFromQuery(c)
	if err == nil {
		data["Filter"] = f
		var sum *report.Summary
		if sum, err = p.Reports.Summary(c.UserContext(), f); err == nil {
			data["Summary"] = report.ToResponse(sum)
		}
	}
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			return err
		}
		c.Status(fiber.StatusBadRequest)
		data["Error"] = p.localize(c, err)
	}
	return p.render(c, "finance", data)
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *uint:
		if x == nil {
			return ""
		}
		return strconv.FormatUint(uint64(*x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case report.DateFilter:
		return string(x)
	default:
		return ""
	}
}

// Register mounts the pages. Till pages accept anonymous terminals, the
// rest need a session and finance needs an admin.
func (p *Pages) Register(app fiber.Router, secret string) {
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/worker/") })
	app.Get("/login/", p.LoginPage)
	app.Post("/login/", p.LoginSubmit)
	app.Get("/logout/", p.Logout)
	app.Get("/worker/", auth.OptionalJWT(secret), p.Worker)

	guard := auth.PageGuard(secret)
	app.Get("/worker/open-pack/", guard, p.OpenPack)
	app.Get("/create-debt/", guard, p.CreateDebt)
	app.Get("/debts/", guard, p.DebtsPage)
	app.Get("/stock-receipt/", guard, p.StockReceipt)

	app.Get("/finance/", auth.PageGuard(secret, models.RoleAdmin), p.Finance)
}
