package report

import (
	"fmt"

	"github.com/cmakhmud/smoking-shop/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

type SaleRow struct {
	ID         uint   `json:"id"`
	Timestamp  string `json:"timestamp"`
	ShopName   string `json:"shop_name"`
	GoodName   string `json:"good_name"`
	Barcode    string `json:"barcode"`
	Category   string `json:"category"`
	Quantity   int    `json:"quantity"`
	TotalPrice string `json:"total_price"`
	ReceiptNo  string `json:"receipt_no"`
}

type ExpenseRow struct {
	ID          uint   `json:"id"`
	Date        string `json:"date"`
	ShopName    string `json:"shop_name"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type DebtRow struct {
	ID              uint   `json:"id"`
	CustomerName    string `json:"customer_name"`
	ShopName        string `json:"shop_name"`
	RemainingAmount string `json:"remaining_amount"`
	DueDate         string `json:"due_date"`
}

type SummaryResponse struct {
	From             *string      `json:"from"`
	To               *string      `json:"to"`
	SalesRevenue     string       `json:"sales_revenue"`
	DebtRevenue      string       `json:"debt_revenue"`
	TotalRevenue     string       `json:"total_revenue"`
	ItemsSold        int          `json:"items_sold"`
	SalesCount       int          `json:"sales_count"`
	DebtCount        int          `json:"debt_count"`
	TransactionCount int          `json:"transaction_count"`
	AvgTransaction   string       `json:"avg_transaction"`
	GrossProfit      string       `json:"gross_profit"`
	TotalExpenses    string       `json:"total_expenses"`
	NetProfit        string       `json:"net_profit"`
	TodayRevenue     string       `json:"today_revenue"`
	WeekRevenue      string       `json:"week_revenue"`
	MonthRevenue     string       `json:"month_revenue"`
	RecentSales      []SaleRow    `json:"recent_sales"`
	Expenses         []ExpenseRow `json:"expenses"`
	PendingDebts     []DebtRow    `json:"pending_debts"`
	LocalTime        string       `json:"local_time"`
}

func ToResponse(sum *Summary) SummaryResponse {
	loc := sum.GeneratedAt.Location()
	resp := SummaryResponse{
		SalesRevenue:     sum.SalesRevenue.StringFixed(2),
		DebtRevenue:      sum.DebtRevenue.StringFixed(2),
		TotalRevenue:     sum.TotalRevenue.StringFixed(2),
		ItemsSold:        sum.ItemsSold,
		SalesCount:       sum.SalesCount,
		DebtCount:        sum.DebtCount,
		TransactionCount: sum.TransactionCount,
		AvgTransaction:   sum.AvgTransaction.StringFixed(2),
		GrossProfit:      sum.GrossProfit.StringFixed(2),
		TotalExpenses:    sum.TotalExpenses.StringFixed(2),
		NetProfit:        sum.NetProfit.StringFixed(2),
		TodayRevenue:     sum.TodayRevenue.StringFixed(2),
		WeekRevenue:      sum.WeekRevenue.StringFixed(2),
		MonthRevenue:     sum.MonthRevenue.StringFixed(2),
		RecentSales:      make([]SaleRow, 0, len(sum.RecentSales)),
		Expenses:         make([]ExpenseRow, 0, len(sum.Expenses)),
		PendingDebts:     make([]DebtRow, 0, len(sum.PendingDebts)),
		LocalTime:        sum.GeneratedAt.Format("2006-01-02 15:04:05"),
	}
	if sum.Window.Bounded() {
		from := sum.Window.From.In(loc).Format("2006-01-02 15:04")
		to := sum.Window.To.In(loc).Format("2006-01-02 15:04")
		resp.From, resp.To = &from, &to
	}
	for _, s := range sum.RecentSales {
		resp.RecentSales = append(resp.RecentSales, SaleRow{
			ID:         s.ID,
			Timestamp:  s.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
			ShopName:   s.Shop.Name,
			GoodName:   s.Good.Name,
			Barcode:    s.Good.Barcode,
			Category:   s.Good.Category.Name,
			Quantity:   s.Quantity,
			TotalPrice: s.TotalPrice.StringFixed(2),
			ReceiptNo:  s.ReceiptNo,
		})
	}
	for _, e := range sum.Expenses {
		resp.Expenses = append(resp.Expenses, ExpenseRow{
			ID:          e.ID,
			Date:        e.ExpenseDate.UTC().Format(dateLayout),
			ShopName:    e.Shop.Name,
			Amount:      e.Amount.StringFixed(2),
			Description: e.Description,
		})
	}
	for _, d := range sum.PendingDebts {
		resp.PendingDebts = append(resp.PendingDebts, DebtRow{
			ID:              d.ID,
			CustomerName:    d.CustomerName,
			ShopName:        d.Shop.Name,
			RemainingAmount: d.RemainingAmount.StringFixed(2),
			DueDate:         d.DueDate.UTC().Format(dateLayout),
		})
	}
	return resp
}

// FilterFromQuery reads the finance filter query parameters:
// shop, category, barcode, date_filter, start_date, end_date, start_time,
// end_time.
func FilterFromQuery(c *fiber.Ctx) (Filter, error) {
	shopID, err := httpx.QueryID(c, "shop")
	if err != nil {
		return Filter{}, err
	}
	categoryID, err := httpx.QueryID(c, "category")
	if err != nil {
		return Filter{}, err
	}
	return Filter{
		ShopID:     shopID,
		CategoryID: categoryID,
		Barcode:    c.Query("barcode"),
		DateFilter: DateFilter(c.Query("date_filter", string(FilterToday))),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
		StartTime:  c.Query("start_time"),
		EndTime:    c.Query("end_time"),
	}, nil
}

// -------------------------
// GET /api/finance/summary?shop=1&date_filter=week
// -------------------------
func SummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := FilterFromQuery(c)
		if err != nil {
			return err
		}
		sum, err := svc.Summary(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(sum))
	}
}

// GET /api/finance/export.xlsx
func ExportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := FilterFromQuery(c)
		if err != nil {
			return err
		}
		sum, err := svc.Summary(c.UserContext(), f)
		if err != nil {
			return err
		}
		buf, err := ExportXLSX(sum)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("finance-%s.xlsx", sum.GeneratedAt.Format("20060102-1504"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
		return c.Send(buf.Bytes())
	}
}
