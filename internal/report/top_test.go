package report

import (
	"testing"

	"cafe-gateway/internal/domain"

	"github.com/stretchr/testify/assert"
)

func itemsOrder(items ...domain.OrderItem) domain.KitchenOrder {
	return domain.KitchenOrder{Items: items}
}

func item(menu string, qty int) domain.OrderItem {
	return domain.OrderItem{MenuName: menu, Quantity: domain.FlexInt(qty)}
}

func TestBuildTopMenus(t *testing.T) {
	orders := []domain.KitchenOrder{
		itemsOrder(item("Kopi", 3), item("Teh", 1)),
		itemsOrder(item("Kopi", 2)),
		itemsOrder(item("", 4)),
	}

	menus := BuildTopMenus(orders, 2)

	assert.Len(t, menus, 2)
	assert.Equal(t, "Kopi", menus[0].MenuName)
	assert.Equal(t, 5, menus[0].TotalQty)
	// round(5/10*100)
	assert.Equal(t, 50, menus[0].ContributionPct)
	assert.Equal(t, "Unknown", menus[1].MenuName)
	assert.Equal(t, 4, menus[1].TotalQty)
}

func TestBuildTopMenus_ZeroQuantities(t *testing.T) {
	menus := BuildTopMenus([]domain.KitchenOrder{itemsOrder(item("Kopi", 0))}, 5)
	assert.Len(t, menus, 1)
	// total guard keeps the percentage finite
	assert.Equal(t, 0, menus[0].ContributionPct)
}

func TestOrderIngredientUsage(t *testing.T) {
	recipes := map[string][]domain.RecipeLine{
		"Kopi": {
			{IngredientID: "1", Quantity: 10, Unit: "g"},
			{IngredientID: "2", Quantity: 50, Unit: "ml"},
		},
	}
	ingredients := map[string]domain.Ingredient{
		"1": {ID: "1", Name: "Beans", Unit: "g"},
		"2": {ID: "2", Name: "Milk", Unit: "ml"},
	}

	usage := OrderIngredientUsage(itemsOrder(item("Kopi", 2)), recipes, ingredients)

	assert.Len(t, usage, 2)
	assert.Equal(t, "Beans", usage[0].Name)
	assert.Equal(t, float64(20), usage[0].TotalQuantity)
	assert.Equal(t, float64(100), usage[1].TotalQuantity)
}

func TestOrderIngredientUsage_UnknownIngredientSkipped(t *testing.T) {
	recipes := map[string][]domain.RecipeLine{
		"Kopi": {{IngredientID: "99", Quantity: 10, Unit: "g"}},
	}
	usage := OrderIngredientUsage(itemsOrder(item("Kopi", 1)), recipes, map[string]domain.Ingredient{})
	assert.Empty(t, usage)
}

func TestBuildTopIngredients(t *testing.T) {
	recipes := map[string][]domain.RecipeLine{
		"Kopi": {{IngredientID: "1", Quantity: 10, Unit: "g"}},
		"Teh":  {{IngredientID: "1", Quantity: 5, Unit: ""}},
	}
	ingredients := map[string]domain.Ingredient{
		"1": {ID: "1", Name: "Sugar", Unit: "g"},
	}
	orders := []domain.KitchenOrder{
		itemsOrder(item("Kopi", 1)),
		itemsOrder(item("Teh", 2)),
	}

	top := BuildTopIngredients(orders, recipes, ingredients, 5)

	assert.Len(t, top, 1)
	assert.Equal(t, "Sugar", top[0].IngredientName)
	assert.Equal(t, float64(20), top[0].TotalQty)
	assert.Equal(t, "g", top[0].Unit)
	assert.Equal(t, 100, top[0].ContributionPct)
}
