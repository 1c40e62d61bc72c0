// Package export renders balance reports as spreadsheets.
package export

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/accounting"
	"shopledger/internal/domain/ledger"
)

const (
	// ContentTypeXLSX is the MIME type of the workbook.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheet = "Sheet1"
)

var balanceHeader = []any{
	"Product ID", "Product", "Start count", "End count",
	"Purchased", "Purchase sum", "Replenished", "Replenish sum",
	"Difference", "Balance",
}

// row is one product line of the sheet.
type row struct {
	productID id.ID
	name      string
	balance   accounting.ProductBalance
}

// WriteBalanceXLSX writes the report as a single-sheet workbook: one row per
// product ordered by name, then the totals.
// Products missing from products are listed under their id.
func WriteBalanceXLSX(w io.Writer, report *accounting.BalanceReport, products []ledger.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(sheet, "A1", &balanceHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rows := balanceRows(report, products)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.productID.String(), r.name,
			r.balance.StartCount, r.balance.EndCount,
			r.balance.PurchaseCount, r.balance.PurchaseSum,
			r.balance.ReplenishCount, r.balance.ReplenishSum,
			r.balance.Difference, r.balance.Balance,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	totalsRow := len(rows) + 3
	totals := [][]any{
		{"Total balance", report.TotalBalance},
		{"Profit", report.Profit},
		{"Loss", report.Loss},
	}
	for i, t := range totals {
		cell, err := excelize.CoordinatesToCellName(1, totalsRow+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &t); err != nil {
			return fmt.Errorf("write totals: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// BalanceFilename names the workbook after the dates of both stocktakings.
func BalanceFilename(report *accounting.BalanceReport) string {
	return fmt.Sprintf("balance_%s_%s.xlsx",
		report.StartTimestamp.Format("20060102"), report.EndTimestamp.Format("20060102"))
}

func balanceRows(report *accounting.BalanceReport, products []ledger.Product) []row {
	names := make(map[id.ID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	rows := make([]row, 0, len(report.Products))
	for productID, b := range report.Products {
		name, ok := names[productID]
		if !ok {
			name = productID.String()
		}
		rows = append(rows, row{productID: productID, name: name, balance: b})
	}
	slices.SortFunc(rows, func(a, b row) int {
		if c := cmp.Compare(a.name, b.name); c != 0 {
			return c
		}
		return id.Compare(a.productID, b.productID)
	})
	return rows
}
