package report

import (
	"math"
	"sort"

	"cafe-gateway/internal/domain"
)

// TopMenu is one menu entry in the top-menus ranking.
type TopMenu struct {
	MenuName        string `json:"menu_name"`
	TotalQty        int    `json:"total_qty"`
	ContributionPct int    `json:"contribution_pct"`
}

// BuildTopMenus sums item quantities per menu name across all orders and
// returns the top `limit` entries by quantity. Contribution percentages are
// computed against the full total (zero-guarded), so truncation to `limit`
// does not inflate them.
func BuildTopMenus(orders []domain.KitchenOrder, limit int) []TopMenu {
	menuCount := map[string]int{}
	for _, o := range orders {
		for _, it := range o.Items {
			name := it.MenuName
			if name == "" {
				name = "Unknown"
			}
			menuCount[name] += it.Quantity.Int()
		}
	}

	totalQty := 0
	for _, q := range menuCount {
		totalQty += q
	}
	if totalQty == 0 {
		totalQty = 1
	}

	entries := make([]TopMenu, 0, len(menuCount))
	for name, qty := range menuCount {
		entries = append(entries, TopMenu{
			MenuName:        name,
			TotalQty:        qty,
			ContributionPct: int(math.Round(float64(qty) / float64(totalQty) * 100)),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].TotalQty > entries[j].TotalQty })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// IngredientUsage is the summed consumption of one ingredient.
type IngredientUsage struct {
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	TotalQuantity float64 `json:"total_quantity"`
}

// OrderIngredientUsage expands one order into per-ingredient consumption:
// each item's quantity multiplied by its menu's recipe-line quantities.
// Ingredients missing from the inventory index are skipped.
func OrderIngredientUsage(order domain.KitchenOrder, recipes map[string][]domain.RecipeLine, ingredients map[string]domain.Ingredient) []IngredientUsage {
	usage := map[string]*IngredientUsage{}
	var ids []string

	for _, it := range order.Items {
		for _, line := range recipes[it.MenuName] {
			id := line.IngredientID.String()
			ing, ok := ingredients[id]
			if !ok {
				continue
			}
			u, ok := usage[id]
			if !ok {
				u = &IngredientUsage{Name: ing.Name, Unit: line.Unit}
				usage[id] = u
				ids = append(ids, id)
			}
			u.TotalQuantity += line.Quantity * float64(it.Quantity.Int())
		}
	}

	out := make([]IngredientUsage, 0, len(ids))
	for _, id := range ids {
		out = append(out, *usage[id])
	}
	return out
}

// TopIngredient is one entry of the top-ingredients ranking.
type TopIngredient struct {
	IngredientName  string  `json:"ingredient_name"`
	TotalQty        float64 `json:"total_qty"`
	Unit            string  `json:"unit"`
	ContributionPct int     `json:"contribution_pct"`
}

// BuildTopIngredients aggregates per-order ingredient usage across all
// orders, keyed by ingredient name. The unit comes from whichever usage line
// first supplies a non-empty one.
func BuildTopIngredients(orders []domain.KitchenOrder, recipes map[string][]domain.RecipeLine, ingredients map[string]domain.Ingredient, limit int) []TopIngredient {
	type entry struct {
		qty  float64
		unit string
	}
	totals := map[string]*entry{}
	var names []string

	for _, o := range orders {
		for _, u := range OrderIngredientUsage(o, recipes, ingredients) {
			name := u.Name
			if name == "" {
				name = "Unknown"
			}
			e, ok := totals[name]
			if !ok {
				e = &entry{unit: u.Unit}
				totals[name] = e
				names = append(names, name)
			}
			e.qty += u.TotalQuantity
			if e.unit == "" && u.Unit != "" {
				e.unit = u.Unit
			}
		}
	}

	totalQty := 0.0
	for _, e := range totals {
		totalQty += e.qty
	}
	if totalQty == 0 {
		totalQty = 1
	}

	out := make([]TopIngredient, 0, len(names))
	for _, name := range names {
		e := totals[name]
		out = append(out, TopIngredient{
			IngredientName:  name,
			TotalQty:        e.qty,
			Unit:            e.unit,
			ContributionPct: int(math.Round(e.qty / totalQty * 100)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalQty > out[j].TotalQty })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
