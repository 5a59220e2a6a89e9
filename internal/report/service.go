package report

import (
	"context"
	"fmt"
	"sort"

	"cafe-gateway/internal/domain"

	"github.com/sirupsen/logrus"
)

// KitchenAPI supplies the live kitchen board.
type KitchenAPI interface {
	Orders(ctx context.Context) ([]domain.KitchenOrder, error)
}

// MenuAPI resolves recipes.
type MenuAPI interface {
	RecipesBatch(ctx context.Context, menuNames []string) (map[string][]domain.RecipeLine, error)
}

// InventoryAPI supplies ingredients, flavor mappings and history.
type InventoryAPI interface {
	Ingredients(ctx context.Context) (map[string]domain.Ingredient, error)
	FlavorMap(ctx context.Context) (map[string][]domain.FlavorMapping, error)
	History(ctx context.Context, limit int, startIso, endIso string) ([]domain.ConsumptionLog, error)
}

// SalesAPI supplies raw financial-sales transactions.
type SalesAPI interface {
	FinancialSales(ctx context.Context, startIso, endIso string, todayOnly bool) ([]domain.SalesTransaction, error)
}

// SnapshotStore caches kitchen orders between refreshes.
type SnapshotStore interface {
	NextVersion() uint64
	Save(ctx context.Context, version uint64, orders []domain.KitchenOrder) (bool, error)
	Load(ctx context.Context) ([]domain.KitchenOrder, uint64, error)
}

// Service computes the dashboard aggregates server-side from upstream data.
type Service struct {
	kitchen   KitchenAPI
	menu      MenuAPI
	inventory InventoryAPI
	sales     SalesAPI
	snapshots SnapshotStore
	log       *logrus.Entry
}

func NewService(kitchen KitchenAPI, menu MenuAPI, inventory InventoryAPI, sales SalesAPI, snapshots SnapshotStore) *Service {
	return &Service{
		kitchen:   kitchen,
		menu:      menu,
		inventory: inventory,
		sales:     sales,
		snapshots: snapshots,
		log:       logrus.WithField("component", "report"),
	}
}

// KitchenOrders fetches the live board, refreshing the snapshot on success
// and falling back to the last snapshot when the kitchen is unreachable.
func (s *Service) KitchenOrders(ctx context.Context) ([]domain.KitchenOrder, error) {
	var version uint64
	if s.snapshots != nil {
		version = s.snapshots.NextVersion()
	}
	orders, err := s.kitchen.Orders(ctx)
	if err != nil {
		if s.snapshots != nil {
			cached, _, cacheErr := s.snapshots.Load(ctx)
			if cacheErr == nil && cached != nil {
				s.log.WithError(err).Warn("kitchen unreachable, serving cached snapshot")
				return cached, nil
			}
		}
		return nil, err
	}
	if s.snapshots != nil {
		if saved, err := s.snapshots.Save(ctx, version, orders); err != nil {
			s.log.WithError(err).Warn("failed to save kitchen snapshot")
		} else if !saved {
			s.log.WithField("version", version).Debug("snapshot refresh was stale, discarded")
		}
	}
	return orders, nil
}

// KitchenKPIs computes the kitchen dashboard KPI block.
func (s *Service) KitchenKPIs(ctx context.Context) (KitchenKPIs, error) {
	orders, err := s.KitchenOrders(ctx)
	if err != nil {
		return KitchenKPIs{}, fmt.Errorf("load kitchen orders: %w", err)
	}
	return ComputeKitchenKPIs(orders), nil
}

// TopMenus computes the top-menus ranking.
func (s *Service) TopMenus(ctx context.Context, limit int) ([]TopMenu, error) {
	orders, err := s.KitchenOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load kitchen orders: %w", err)
	}
	return BuildTopMenus(orders, limit), nil
}

// TopIngredients computes the top-ingredients ranking, resolving recipes for
// every menu seen on the board.
func (s *Service) TopIngredients(ctx context.Context, limit int) ([]TopIngredient, error) {
	orders, err := s.KitchenOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load kitchen orders: %w", err)
	}
	recipes, ingredients, err := s.loadRecipeContext(ctx, orders)
	if err != nil {
		return nil, err
	}
	return BuildTopIngredients(orders, recipes, ingredients, limit), nil
}

// SalesAggregate fetches raw transactions and groups them by menu+flavor.
func (s *Service) SalesAggregate(ctx context.Context, startIso, endIso string, todayOnly bool) ([]SalesRow, error) {
	transactions, err := s.sales.FinancialSales(ctx, startIso, endIso, todayOnly)
	if err != nil {
		return nil, fmt.Errorf("load financial sales: %w", err)
	}
	return AggregateSalesData(transactions), nil
}

// Analysis is the full ingredient-analysis payload for one view mode.
type Analysis struct {
	View        string          `json:"view"`
	Daily       []DailyRow      `json:"daily,omitempty"`
	Logs        []MenuFlavorRow `json:"logs,omitempty"`
	Consumption *Consumption    `json:"consumption"`
}

// IngredientAnalysis builds the daily or logs view over the consumption
// history, plus the per-menu/per-variant consumption breakdown computed from
// done orders, base recipes and flavor mappings.
func (s *Service) IngredientAnalysis(ctx context.Context, view, startIso, endIso string) (Analysis, error) {
	if view != "logs" {
		view = "daily"
	}
	analysis := Analysis{View: view}

	orders, err := s.KitchenOrders(ctx)
	if err != nil {
		return analysis, fmt.Errorf("load kitchen orders: %w", err)
	}

	doneOrders := FilterDoneOrders(orders, startIso, endIso)
	menuNames := collectMenuNames(doneOrders)

	recipes := map[string][]domain.RecipeLine{}
	if len(menuNames) > 0 {
		recipes, err = s.menu.RecipesBatch(ctx, menuNames)
		if err != nil {
			return analysis, fmt.Errorf("load recipes: %w", err)
		}
	}
	flavorMap, err := s.inventory.FlavorMap(ctx)
	if err != nil {
		return analysis, fmt.Errorf("load flavor mapping: %w", err)
	}
	analysis.Consumption = ComputeConsumption(doneOrders, recipes, flavorMap)

	limit := 500
	if view == "logs" {
		limit = 100
	}
	logs, err := s.inventory.History(ctx, limit, startIso, endIso)
	if err != nil {
		return analysis, fmt.Errorf("load consumption history: %w", err)
	}

	if view == "daily" {
		analysis.Daily = BuildDailyView(logs, orders, startIso, endIso)
	} else {
		analysis.Logs = BuildLogsView(logs, orders, startIso, endIso)
	}
	return analysis, nil
}

func (s *Service) loadRecipeContext(ctx context.Context, orders []domain.KitchenOrder) (map[string][]domain.RecipeLine, map[string]domain.Ingredient, error) {
	menuNames := collectMenuNames(orders)
	recipes := map[string][]domain.RecipeLine{}
	if len(menuNames) > 0 {
		var err error
		recipes, err = s.menu.RecipesBatch(ctx, menuNames)
		if err != nil {
			return nil, nil, fmt.Errorf("load recipes: %w", err)
		}
	}
	ingredients, err := s.inventory.Ingredients(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load ingredients: %w", err)
	}
	return recipes, ingredients, nil
}

func collectMenuNames(orders []domain.KitchenOrder) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, o := range orders {
		for _, it := range o.Items {
			if it.MenuName == "" {
				continue
			}
			if _, ok := seen[it.MenuName]; ok {
				continue
			}
			seen[it.MenuName] = struct{}{}
			names = append(names, it.MenuName)
		}
	}
	sort.Strings(names)
	return names
}
