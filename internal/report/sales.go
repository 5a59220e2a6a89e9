package report

import (
	"sort"

	"cafe-gateway/internal/domain"
)

// SalesRow is one aggregated sales-report row, grouped by menu and flavor.
type SalesRow struct {
	MenuName         string  `json:"menu_name"`
	Flavor           string  `json:"flavor"`
	Quantity         int     `json:"quantity"`
	BasePrice        float64 `json:"base_price"`
	TotalPrice       float64 `json:"total_price"`
	TransactionCount int     `json:"transaction_count"`
}

// AggregateSalesData groups raw transactions by menu_name|flavor, summing
// quantities and totals and carrying the first-seen base price. Rows come
// back sorted by summed total price descending. Grouping the output again by
// the same key yields identical rows, which the export paths rely on.
func AggregateSalesData(transactions []domain.SalesTransaction) []SalesRow {
	grouped := map[string]*SalesRow{}
	var keys []string

	for _, tx := range transactions {
		menuName := tx.MenuName
		if menuName == "" {
			menuName = "Unknown"
		}
		flavor := tx.Flavor
		if flavor == "" {
			flavor = "Default"
		}
		key := menuName + "|" + flavor

		row, ok := grouped[key]
		if !ok {
			row = &SalesRow{
				MenuName:  menuName,
				Flavor:    flavor,
				BasePrice: tx.BasePrice,
			}
			grouped[key] = row
			keys = append(keys, key)
		}
		row.Quantity += tx.Quantity.Int()
		row.TotalPrice += tx.TotalPrice
		row.TransactionCount++
	}

	out := make([]SalesRow, 0, len(keys))
	for _, key := range keys {
		out = append(out, *grouped[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalPrice > out[j].TotalPrice })
	return out
}
