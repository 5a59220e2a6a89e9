package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"cafe-gateway/internal/domain"
)

// IngredientTotal is summed consumption of one ingredient within a grouping.
type IngredientTotal struct {
	TotalQuantity float64 `json:"total_quantity"`
	Unit          string  `json:"unit"`
}

// VariantConsumption is consumption attributed to one menu+flavor variant.
type VariantConsumption struct {
	MenuName    string                      `json:"menu_name"`
	FlavorName  string                      `json:"flavor_name"`
	OrderQty    int                         `json:"order_qty"`
	Ingredients map[string]*IngredientTotal `json:"ingredients"`
}

// Consumption is the full ingredient-consumption breakdown over a batch of
// completed orders: per menu, per menu+flavor variant, plus flavor usage
// counters. Keys for variants are "menu||flavor".
type Consumption struct {
	MenuConsumption map[string]map[string]*IngredientTotal `json:"menu_consumption"`
	Variants        map[string]*VariantConsumption         `json:"variant_consumption"`
	MenuFlavorUsage map[string]map[string]int              `json:"menu_flavor_usage"`
	MenuOrderCount  map[string]int                         `json:"menu_order_count"`
}

// ComputeConsumption walks done orders and accumulates ingredient use from
// each item's base recipe plus, when the item carries a flavor with a
// mapping, the flavor's additive lines. Flavor consumption adds to the base
// recipe consumption, it never replaces it.
func ComputeConsumption(doneOrders []domain.KitchenOrder, recipes map[string][]domain.RecipeLine, flavorMap map[string][]domain.FlavorMapping) *Consumption {
	c := &Consumption{
		MenuConsumption: map[string]map[string]*IngredientTotal{},
		Variants:        map[string]*VariantConsumption{},
		MenuFlavorUsage: map[string]map[string]int{},
		MenuOrderCount:  map[string]int{},
	}

	addUse := func(m map[string]*IngredientTotal, ingID string, qty float64, unit string) {
		t, ok := m[ingID]
		if !ok {
			t = &IngredientTotal{Unit: unit}
			m[ingID] = t
		}
		t.TotalQuantity += qty
		if t.Unit == "" && unit != "" {
			t.Unit = unit
		}
	}

	for _, order := range doneOrders {
		for _, it := range order.Items {
			menuName := it.MenuName
			qty := it.Quantity.Int()
			if menuName == "" || qty <= 0 {
				continue
			}
			if c.MenuConsumption[menuName] == nil {
				c.MenuConsumption[menuName] = map[string]*IngredientTotal{}
			}
			if c.MenuFlavorUsage[menuName] == nil {
				c.MenuFlavorUsage[menuName] = map[string]int{}
			}
			c.MenuOrderCount[menuName] += qty

			flavorDisplay := it.ChosenFlavor()
			if flavorDisplay == "" {
				flavorDisplay = "-"
			}
			flavorLower := strings.ToLower(flavorDisplay)

			key := menuName + "||" + flavorDisplay
			variant, ok := c.Variants[key]
			if !ok {
				variant = &VariantConsumption{
					MenuName:    menuName,
					FlavorName:  flavorDisplay,
					Ingredients: map[string]*IngredientTotal{},
				}
				c.Variants[key] = variant
			}
			variant.OrderQty += qty

			for _, line := range recipes[menuName] {
				use := line.Quantity * float64(qty)
				addUse(c.MenuConsumption[menuName], line.IngredientID.String(), use, line.Unit)
				addUse(variant.Ingredients, line.IngredientID.String(), use, line.Unit)
			}

			if flavorLower != "-" {
				c.MenuFlavorUsage[menuName][flavorLower] += qty
				for _, fm := range flavorMap[flavorLower] {
					use := fm.QuantityPerServing * float64(qty)
					addUse(c.MenuConsumption[menuName], fm.IngredientID.String(), use, fm.Unit)
					addUse(variant.Ingredients, fm.IngredientID.String(), use, fm.Unit)
				}
			}
		}
	}
	return c
}

// DailyRow is one calendar-day aggregate of the consumption history.
type DailyRow struct {
	Date             string   `json:"date"` // dd/mm/yyyy, the dashboard display form
	TotalOrders      int      `json:"total_orders"`
	UniqueMenus      int      `json:"unique_menus"`
	TotalConsumption int      `json:"total_consumption"`
	StatusText       string   `json:"status_text"`
	OrderIDs         []string `json:"order_ids"`
}

type dailyAggregate struct {
	totalOrders      int
	totalConsumption int
	uniqueMenus      map[string]struct{}
	orderIDs         map[string]struct{}
	orderIDOrder     []string
}

// BuildDailyView groups consumption logs by calendar date. Log rows whose
// date cannot be parsed, or which fall outside the optional inclusive
// [startIso, endIso] range, are skipped. Unique menu names come from the
// kitchen-orders snapshot when the log's order is found there. Rows are
// sorted by date descending.
func BuildDailyView(logs []domain.ConsumptionLog, orders []domain.KitchenOrder, startIso, endIso string) []DailyRow {
	ordersByID := map[string]domain.KitchenOrder{}
	for _, o := range orders {
		ordersByID[o.OrderID] = o
	}

	byDate := map[string]*dailyAggregate{}
	var dates []string
	for _, l := range logs {
		iso := LogIsoDate(l)
		if iso == "" {
			continue
		}
		if startIso != "" && iso < startIso {
			continue
		}
		if endIso != "" && iso > endIso {
			continue
		}
		agg, ok := byDate[iso]
		if !ok {
			agg = &dailyAggregate{
				uniqueMenus: map[string]struct{}{},
				orderIDs:    map[string]struct{}{},
			}
			byDate[iso] = agg
			dates = append(dates, iso)
		}
		agg.totalOrders++
		agg.totalConsumption += l.IngredientsAffected.Int()
		if _, seen := agg.orderIDs[l.OrderID]; !seen {
			agg.orderIDs[l.OrderID] = struct{}{}
			agg.orderIDOrder = append(agg.orderIDOrder, l.OrderID)
		}
		if o, ok := ordersByID[l.OrderID]; ok {
			for _, it := range o.Items {
				if it.MenuName != "" {
					agg.uniqueMenus[it.MenuName] = struct{}{}
				}
			}
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	rows := make([]DailyRow, 0, len(dates))
	for _, iso := range dates {
		agg := byDate[iso]
		rows = append(rows, DailyRow{
			Date:             IsoToDisplay(iso),
			TotalOrders:      agg.totalOrders,
			UniqueMenus:      len(agg.uniqueMenus),
			TotalConsumption: agg.totalConsumption,
			StatusText:       fmt.Sprintf("%d order • %d menu", agg.totalOrders, len(agg.uniqueMenus)),
			OrderIDs:         agg.orderIDOrder,
		})
	}
	return rows
}

// MenuFlavorRow is one menu+flavor aggregate of the logs view.
type MenuFlavorRow struct {
	MenuName         string   `json:"menu_name"`
	Flavor           string   `json:"flavor"`
	Date             string   `json:"date"`
	TotalOrders      int      `json:"total_orders"`
	TotalIngredients int      `json:"total_ingredients"`
	StatusText       string   `json:"status_text"`
	OrderIDs         []string `json:"order_ids"`
}

// BuildLogsView groups consumption logs by menu+flavor across orders whose
// kitchen status is done. When an order has several items its
// ingredients_affected total is split evenly, max(0, round(total/items)) per
// item, so multi-item orders do not double-count. This even split is a
// deliberate approximation, not exact attribution.
func BuildLogsView(logs []domain.ConsumptionLog, orders []domain.KitchenOrder, startIso, endIso string) []MenuFlavorRow {
	ordersByID := map[string]domain.KitchenOrder{}
	for _, o := range orders {
		if len(o.Items) > 0 {
			ordersByID[o.OrderID] = o
		}
	}

	type orderDetail struct {
		date                string
		ingredientsAffected int
		items               []domain.OrderItem
	}
	details := map[string]*orderDetail{}
	var orderIDs []string

	for _, l := range logs {
		iso := LogIsoDate(l)
		if iso == "" {
			continue
		}
		if startIso != "" && iso < startIso {
			continue
		}
		if endIso != "" && iso > endIso {
			continue
		}
		ko, ok := ordersByID[l.OrderID]
		if !ok || ko.Status != domain.StatusDone {
			continue
		}
		if _, seen := details[l.OrderID]; seen {
			continue
		}
		details[l.OrderID] = &orderDetail{
			date:                l.Date,
			ingredientsAffected: l.IngredientsAffected.Int(),
			items:               ko.Items,
		}
		orderIDs = append(orderIDs, l.OrderID)
	}

	groups := map[string]*MenuFlavorRow{}
	groupOrderIDs := map[string]map[string]struct{}{}
	var keys []string

	for _, orderID := range orderIDs {
		d := details[orderID]
		if len(d.items) == 0 {
			continue
		}
		itemsCount := len(d.items)
		perItem := int(math.Round(float64(d.ingredientsAffected) / float64(itemsCount)))
		if perItem < 0 {
			perItem = 0
		}
		for _, it := range d.items {
			menuName := it.MenuName
			if menuName == "" {
				menuName = "Unknown Menu"
			}
			flavor := strings.TrimSpace(it.Preference)
			if flavor == "" {
				flavor = "Default"
			}
			key := menuName + "|" + flavor
			g, ok := groups[key]
			if !ok {
				g = &MenuFlavorRow{
					MenuName: menuName,
					Flavor:   flavor,
					Date:     d.date,
				}
				groups[key] = g
				groupOrderIDs[key] = map[string]struct{}{}
				keys = append(keys, key)
			}
			g.TotalOrders++
			g.TotalIngredients += perItem
			if _, seen := groupOrderIDs[key][orderID]; !seen {
				groupOrderIDs[key][orderID] = struct{}{}
				g.OrderIDs = append(g.OrderIDs, orderID)
			}
		}
	}

	rows := make([]MenuFlavorRow, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		g.StatusText = fmt.Sprintf("%d order", g.TotalOrders)
		rows = append(rows, *g)
	}
	return rows
}

// FilterDoneOrders keeps orders in status done whose time_done falls inside
// the optional inclusive [startIso, endIso] day range.
func FilterDoneOrders(orders []domain.KitchenOrder, startIso, endIso string) []domain.KitchenOrder {
	var out []domain.KitchenOrder
	for _, o := range orders {
		if o.Status != domain.StatusDone {
			continue
		}
		if startIso != "" || endIso != "" {
			iso := ParseAnyDateToIso(o.TimeDone)
			if iso == "" {
				continue
			}
			if startIso != "" && iso < startIso {
				continue
			}
			if endIso != "" && iso > endIso {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}
