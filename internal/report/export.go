package report

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary  = "Summary"
	sheetSales    = "Sales"
	sheetExpenses = "Expenses"
	sheetDebts    = "Pending debts"
)

// ExportXLSX renders a summary as a workbook with one sheet per section.
func ExportXLSX(sum *Summary) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetSales, sheetExpenses, sheetDebts} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	period := "all time"
	if sum.Window.Bounded() {
		loc := sum.GeneratedAt.Location()
		period = fmt.Sprintf("%s - %s",
			sum.Window.From.In(loc).Format("2006-01-02 15:04"),
			sum.Window.To.In(loc).Format("2006-01-02 15:04"))
	}

	summary := [][]any{
		{"Generated", sum.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Period", period},
		{},
		{"Sales revenue", money(sum.SalesRevenue)},
		{"Debt revenue", money(sum.DebtRevenue)},
		{"Total revenue", money(sum.TotalRevenue)},
		{"Items sold", sum.ItemsSold},
		{"Transactions", sum.TransactionCount},
		{"Average transaction", money(sum.AvgTransaction)},
		{"Gross profit", money(sum.GrossProfit)},
		{"Expenses", money(sum.TotalExpenses)},
		{"Net profit", money(sum.NetProfit)},
		{},
		{"Today revenue", money(sum.TodayRevenue)},
		{"Week revenue", money(sum.WeekRevenue)},
		{"Month revenue", money(sum.MonthRevenue)},
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(sheetSummary, "A", "A", 24)
	_ = f.SetColWidth(sheetSummary, "B", "B", 36)

	sales := [][]any{{"Time", "Shop", "Good", "Barcode", "Category", "Quantity", "Total"}}
	for _, s := range sum.RecentSales {
		sales = append(sales, []any{
			s.Timestamp.In(sum.GeneratedAt.Location()).Format("2006-01-02 15:04:05"),
			s.Shop.Name, s.Good.Name, s.Good.Barcode, s.Good.Category.Name,
			s.Quantity, money(s.TotalPrice),
		})
	}
	if err := writeRows(f, sheetSales, sales); err != nil {
		return nil, err
	}

	expenses := [][]any{{"Date", "Shop", "Amount", "Description", "Created by"}}
	for _, e := range sum.Expenses {
		expenses = append(expenses, []any{
			e.ExpenseDate.UTC().Format(dateLayout), e.Shop.Name, money(e.Amount), e.Description, e.CreatedBy.Name,
		})
	}
	if err := writeRows(f, sheetExpenses, expenses); err != nil {
		return nil, err
	}

	debts := [][]any{{"Customer", "Phone", "Shop", "Total", "Paid", "Remaining", "Due"}}
	for _, d := range sum.PendingDebts {
		debts = append(debts, []any{
			d.CustomerName, d.CustomerPhone, d.Shop.Name,
			money(d.TotalAmount), money(d.PaidAmount), money(d.RemainingAmount),
			d.DueDate.UTC().Format(dateLayout),
		})
	}
	if err := writeRows(f, sheetDebts, debts); err != nil {
		return nil, err
	}

	for _, name := range []string{sheetSales, sheetExpenses, sheetDebts} {
		if err := f.SetRowStyle(name, 1, 1, bold); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// money renders an amount as a number with two decimals for spreadsheets.
func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
