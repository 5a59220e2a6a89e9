package report

import (
	"context"
	"errors"
	"testing"

	"cafe-gateway/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubKitchen struct {
	orders []domain.KitchenOrder
	err    error
	calls  int
}

func (s *stubKitchen) Orders(context.Context) ([]domain.KitchenOrder, error) {
	s.calls++
	return s.orders, s.err
}

type stubSnapshots struct {
	version    uint64
	cached     []domain.KitchenOrder
	loadErr    error
	saved      []domain.KitchenOrder
	savedVer   uint64
	saveResult bool
}

func (s *stubSnapshots) NextVersion() uint64 {
	s.version++
	return s.version
}

func (s *stubSnapshots) Save(_ context.Context, version uint64, orders []domain.KitchenOrder) (bool, error) {
	s.saved = orders
	s.savedVer = version
	return s.saveResult, nil
}

func (s *stubSnapshots) Load(context.Context) ([]domain.KitchenOrder, uint64, error) {
	return s.cached, s.version, s.loadErr
}

type stubMenu struct {
	recipes map[string][]domain.RecipeLine
	asked   []string
}

func (s *stubMenu) RecipesBatch(_ context.Context, menuNames []string) (map[string][]domain.RecipeLine, error) {
	s.asked = menuNames
	return s.recipes, nil
}

type stubInventory struct {
	ingredients map[string]domain.Ingredient
	flavorMap   map[string][]domain.FlavorMapping
	logs        []domain.ConsumptionLog
	histLimit   int
}

func (s *stubInventory) Ingredients(context.Context) (map[string]domain.Ingredient, error) {
	return s.ingredients, nil
}

func (s *stubInventory) FlavorMap(context.Context) (map[string][]domain.FlavorMapping, error) {
	return s.flavorMap, nil
}

func (s *stubInventory) History(_ context.Context, limit int, _, _ string) ([]domain.ConsumptionLog, error) {
	s.histLimit = limit
	return s.logs, nil
}

func TestKitchenOrders_RefreshesSnapshot(t *testing.T) {
	orders := []domain.KitchenOrder{{OrderID: "o1", Status: "making"}}
	snaps := &stubSnapshots{saveResult: true}
	svc := NewService(&stubKitchen{orders: orders}, nil, nil, nil, snaps)

	got, err := svc.KitchenOrders(context.Background())

	require.NoError(t, err)
	assert.Equal(t, orders, got)
	assert.Equal(t, orders, snaps.saved)
	assert.Equal(t, uint64(1), snaps.savedVer)
}

func TestKitchenOrders_FallsBackToSnapshot(t *testing.T) {
	cached := []domain.KitchenOrder{{OrderID: "old", Status: "done"}}
	snaps := &stubSnapshots{cached: cached}
	svc := NewService(&stubKitchen{err: errors.New("kitchen down")}, nil, nil, nil, snaps)

	got, err := svc.KitchenOrders(context.Background())

	require.NoError(t, err)
	assert.Equal(t, cached, got)
}

func TestKitchenOrders_NoSnapshotPropagatesError(t *testing.T) {
	snaps := &stubSnapshots{loadErr: errors.New("cache miss")}
	svc := NewService(&stubKitchen{err: errors.New("kitchen down")}, nil, nil, nil, snaps)

	_, err := svc.KitchenOrders(context.Background())

	assert.Error(t, err)
}

func TestKitchenOrders_NilStore(t *testing.T) {
	orders := []domain.KitchenOrder{{OrderID: "o1"}}
	svc := NewService(&stubKitchen{orders: orders}, nil, nil, nil, nil)

	got, err := svc.KitchenOrders(context.Background())

	require.NoError(t, err)
	assert.Equal(t, orders, got)
}

func TestTopIngredients_ResolvesRecipesForBoardMenus(t *testing.T) {
	kitchen := &stubKitchen{orders: []domain.KitchenOrder{
		{Items: []domain.OrderItem{{MenuName: "Kopi", Quantity: 2}}},
		{Items: []domain.OrderItem{{MenuName: "Teh", Quantity: 1}, {MenuName: "Kopi", Quantity: 1}}},
	}}
	menu := &stubMenu{recipes: map[string][]domain.RecipeLine{
		"Kopi": {{IngredientID: "1", Quantity: 10, Unit: "g"}},
	}}
	inventory := &stubInventory{ingredients: map[string]domain.Ingredient{
		"1": {ID: "1", Name: "Beans", Unit: "g"},
	}}
	svc := NewService(kitchen, menu, inventory, nil, nil)

	top, err := svc.TopIngredients(context.Background(), 5)

	require.NoError(t, err)
	// menu names deduplicated and sorted before the batch lookup
	assert.Equal(t, []string{"Kopi", "Teh"}, menu.asked)
	require.Len(t, top, 1)
	assert.Equal(t, "Beans", top[0].IngredientName)
	assert.Equal(t, float64(30), top[0].TotalQty)
}

func TestIngredientAnalysis_ViewSelection(t *testing.T) {
	kitchen := &stubKitchen{orders: []domain.KitchenOrder{
		{OrderID: "o1", Status: "done", Items: []domain.OrderItem{{MenuName: "Kopi", Quantity: 1}}},
	}}
	menu := &stubMenu{recipes: map[string][]domain.RecipeLine{}}
	inventory := &stubInventory{
		flavorMap: map[string][]domain.FlavorMapping{},
		logs:      []domain.ConsumptionLog{{OrderID: "o1", Date: "2025-03-01", IngredientsAffected: 3}},
	}
	svc := NewService(kitchen, menu, inventory, nil, nil)

	daily, err := svc.IngredientAnalysis(context.Background(), "unknown-view", "", "")
	require.NoError(t, err)
	assert.Equal(t, "daily", daily.View)
	assert.NotEmpty(t, daily.Daily)
	assert.Empty(t, daily.Logs)
	assert.Equal(t, 500, inventory.histLimit)

	logs, err := svc.IngredientAnalysis(context.Background(), "logs", "", "")
	require.NoError(t, err)
	assert.Equal(t, "logs", logs.View)
	assert.NotEmpty(t, logs.Logs)
	assert.Equal(t, 100, inventory.histLimit)
	require.NotNil(t, logs.Consumption)
}
