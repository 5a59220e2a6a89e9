package export

import (
	"bytes"
	"fmt"
	"time"

	"cafe-gateway/internal/report"

	"github.com/jung-kurt/gofpdf"
)

// SalesAggregatePDF renders the aggregated sales table as an A4 PDF and
// returns the bytes plus a download filename.
func SalesAggregatePDF(rows []report.SalesRow, dateLabel string) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 8, "Cafe Gateway", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 7, "Sales Aggregate Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	if dateLabel != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Range: %s", dateLabel), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated At: %s", time.Now().Format("02 Jan 2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	var totalQty int
	var totalRevenue float64
	for _, row := range rows {
		totalQty += row.Quantity
		totalRevenue += row.TotalPrice
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Summary", "1", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 7, fmt.Sprintf("Items Sold: %d", totalQty), "1", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Total Revenue: %s", formatRp(totalRevenue)), "1", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 7, "Menu", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Flavor", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Base Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Total", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	if len(rows) == 0 {
		pdf.CellFormat(190, 7, "No sales found for this range.", "1", 1, "L", false, 0, "")
	}
	for _, row := range rows {
		pdf.CellFormat(60, 6, row.MenuName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, row.Flavor, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", row.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, formatRp(row.BasePrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, formatRp(row.TotalPrice), "1", 1, "R", false, 0, "")
	}

	var buffer bytes.Buffer
	if err := pdf.Output(&buffer); err != nil {
		return nil, "", fmt.Errorf("failed to render PDF: %w", err)
	}

	filename := fmt.Sprintf("sales-aggregate-%s.pdf", time.Now().Format("2006-01-02"))
	return buffer.Bytes(), filename, nil
}

func formatRp(amount float64) string {
	return fmt.Sprintf("Rp %.0f", amount)
}
