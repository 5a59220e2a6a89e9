package report

import (
	"testing"

	"cafe-gateway/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeConsumption_FlavorAdditiveToBase(t *testing.T) {
	orders := []domain.KitchenOrder{
		{
			OrderID: "o1",
			Status:  "done",
			Items: []domain.OrderItem{
				{MenuName: "Kopi", Quantity: 2, Preference: "Vanilla"},
			},
		},
	}
	recipes := map[string][]domain.RecipeLine{
		"Kopi": {{IngredientID: "beans", Quantity: 10, Unit: "g"}},
	}
	flavorMap := map[string][]domain.FlavorMapping{
		"vanilla": {{IngredientID: "syrup", QuantityPerServing: 15, Unit: "ml"}},
	}

	c := ComputeConsumption(orders, recipes, flavorMap)

	menu := c.MenuConsumption["Kopi"]
	require.NotNil(t, menu)
	assert.Equal(t, float64(20), menu["beans"].TotalQuantity)
	// flavor lines add on top of the base recipe
	assert.Equal(t, float64(30), menu["syrup"].TotalQuantity)

	variant := c.Variants["Kopi||Vanilla"]
	require.NotNil(t, variant)
	assert.Equal(t, 2, variant.OrderQty)
	assert.Equal(t, float64(20), variant.Ingredients["beans"].TotalQuantity)
	assert.Equal(t, float64(30), variant.Ingredients["syrup"].TotalQuantity)

	assert.Equal(t, 2, c.MenuFlavorUsage["Kopi"]["vanilla"])
	assert.Equal(t, 2, c.MenuOrderCount["Kopi"])
}

func TestComputeConsumption_NoFlavorUsesDashVariant(t *testing.T) {
	orders := []domain.KitchenOrder{
		{OrderID: "o1", Status: "done", Items: []domain.OrderItem{{MenuName: "Teh", Quantity: 1}}},
	}
	c := ComputeConsumption(orders, map[string][]domain.RecipeLine{}, map[string][]domain.FlavorMapping{})

	_, ok := c.Variants["Teh||-"]
	assert.True(t, ok)
	assert.Empty(t, c.MenuFlavorUsage["Teh"])
}

func TestBuildDailyView(t *testing.T) {
	logs := []domain.ConsumptionLog{
		{OrderID: "o1", Date: "2025-03-01", IngredientsAffected: 4},
		{OrderID: "o2", Date: "2025-03-01", IngredientsAffected: 2},
		{OrderID: "o3", Date: "2025-03-02", IngredientsAffected: 1},
		{OrderID: "o4", Date: "bad-date", IngredientsAffected: 9},
	}
	orders := []domain.KitchenOrder{
		{OrderID: "o1", Items: []domain.OrderItem{{MenuName: "Kopi"}}},
		{OrderID: "o2", Items: []domain.OrderItem{{MenuName: "Teh"}, {MenuName: "Kopi"}}},
	}

	rows := BuildDailyView(logs, orders, "", "")

	require.Len(t, rows, 2)
	// sorted date descending, displayed dd/mm/yyyy
	assert.Equal(t, "02/03/2025", rows[0].Date)
	assert.Equal(t, "01/03/2025", rows[1].Date)

	first := rows[1]
	assert.Equal(t, 2, first.TotalOrders)
	assert.Equal(t, 6, first.TotalConsumption)
	assert.Equal(t, 2, first.UniqueMenus)
	assert.Equal(t, "2 order • 2 menu", first.StatusText)
	assert.Equal(t, []string{"o1", "o2"}, first.OrderIDs)
}

func TestBuildDailyView_RangeFilter(t *testing.T) {
	logs := []domain.ConsumptionLog{
		{OrderID: "o1", Date: "2025-03-01", IngredientsAffected: 1},
		{OrderID: "o2", Date: "2025-03-05", IngredientsAffected: 1},
	}
	rows := BuildDailyView(logs, nil, "2025-03-02", "2025-03-06")
	require.Len(t, rows, 1)
	assert.Equal(t, "05/03/2025", rows[0].Date)
}

func TestBuildLogsView_EvenSplit(t *testing.T) {
	logs := []domain.ConsumptionLog{
		{OrderID: "o1", Date: "2025-03-01", IngredientsAffected: 7},
	}
	orders := []domain.KitchenOrder{
		{
			OrderID: "o1",
			Status:  "done",
			Items: []domain.OrderItem{
				{MenuName: "Kopi", Preference: "Vanilla"},
				{MenuName: "Teh"},
			},
		},
	}

	rows := BuildLogsView(logs, orders, "", "")

	require.Len(t, rows, 2)
	// round(7/2) = 4 per item
	assert.Equal(t, "Kopi", rows[0].MenuName)
	assert.Equal(t, "Vanilla", rows[0].Flavor)
	assert.Equal(t, 4, rows[0].TotalIngredients)
	assert.Equal(t, "Teh", rows[1].MenuName)
	assert.Equal(t, "Default", rows[1].Flavor)
	assert.Equal(t, 4, rows[1].TotalIngredients)
	assert.Equal(t, "1 order", rows[0].StatusText)
}

func TestBuildLogsView_FirstLogPerOrderWins(t *testing.T) {
	logs := []domain.ConsumptionLog{
		{OrderID: "o1", Date: "2025-03-01", IngredientsAffected: 4},
		{OrderID: "o1", Date: "2025-03-01", IngredientsAffected: 100},
	}
	orders := []domain.KitchenOrder{
		{OrderID: "o1", Status: "done", Items: []domain.OrderItem{{MenuName: "Kopi"}}},
	}

	rows := BuildLogsView(logs, orders, "", "")

	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].TotalIngredients)
	assert.Equal(t, 1, rows[0].TotalOrders)
}

func TestBuildLogsView_SkipsNonDoneOrders(t *testing.T) {
	logs := []domain.ConsumptionLog{
		{OrderID: "o1", Date: "2025-03-01", IngredientsAffected: 4},
		{OrderID: "o2", Date: "2025-03-01", IngredientsAffected: 4},
	}
	orders := []domain.KitchenOrder{
		{OrderID: "o1", Status: "making", Items: []domain.OrderItem{{MenuName: "Kopi"}}},
		{OrderID: "o2", Status: "done", Items: []domain.OrderItem{{MenuName: "Teh"}}},
	}

	rows := BuildLogsView(logs, orders, "", "")

	require.Len(t, rows, 1)
	assert.Equal(t, "Teh", rows[0].MenuName)
}

func TestFilterDoneOrders(t *testing.T) {
	orders := []domain.KitchenOrder{
		{OrderID: "a", Status: "done", TimeDone: "2025-03-01T10:00:00Z"},
		{OrderID: "b", Status: "done", TimeDone: "2025-03-05T10:00:00Z"},
		{OrderID: "c", Status: "making", TimeDone: "2025-03-03T10:00:00Z"},
		{OrderID: "d", Status: "done", TimeDone: ""},
	}

	filtered := FilterDoneOrders(orders, "2025-03-02", "2025-03-06")

	require.Len(t, filtered, 1)
	assert.Equal(t, "b", filtered[0].OrderID)

	all := FilterDoneOrders(orders, "", "")
	assert.Len(t, all, 3)
}
