package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"cafe-gateway/internal/domain"
)

// OrderService wraps the order_service endpoints the orchestration layers
// need typed access to. Plain proxy routes bypass this and use the raw
// Client directly.
type OrderService struct {
	*Client
}

func NewOrderService(base string, httpClient HTTPClient) *OrderService {
	return &OrderService{Client: NewClient(base, httpClient)}
}

// StatusByID fetches the order detail by durable order id.
func (s *OrderService) StatusByID(ctx context.Context, orderID string) (domain.OrderDetail, error) {
	payload, status, err := s.GetJSON(ctx, "/order_status/"+url.PathEscape(orderID))
	if err != nil {
		return domain.OrderDetail{}, err
	}
	if !IsOK(status) {
		return domain.OrderDetail{}, fmt.Errorf("order_status/%s: upstream status %d", orderID, status)
	}
	return domain.ParseOrderDetail(payload)
}

// StatusByQueue fetches the order detail by per-day queue number.
func (s *OrderService) StatusByQueue(ctx context.Context, queueNumber string) (domain.OrderDetail, error) {
	payload, status, err := s.GetJSON(ctx, "/order/status/"+url.PathEscape(queueNumber))
	if err != nil {
		return domain.OrderDetail{}, err
	}
	if !IsOK(status) {
		return domain.OrderDetail{}, fmt.Errorf("order/status/%s: upstream status %d", queueNumber, status)
	}
	return domain.ParseOrderDetail(payload)
}

// TodayOrder is one entry of the today_orders listing.
type TodayOrder struct {
	OrderID     string            `json:"order_id"`
	QueueNumber domain.FlexString `json:"queue_number"`
}

// TodayOrders lists today's orders.
func (s *OrderService) TodayOrders(ctx context.Context) ([]TodayOrder, error) {
	payload, status, err := s.GetJSON(ctx, "/today_orders")
	if err != nil {
		return nil, err
	}
	if !IsOK(status) {
		return nil, fmt.Errorf("today_orders: upstream status %d", status)
	}
	var envelope struct {
		Orders []TodayOrder `json:"orders"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode today_orders: %w", err)
	}
	return envelope.Orders, nil
}

// CancelKitchen forwards a whole-order cancellation. The raw upstream body
// and success flag come back so the route can mirror them to the caller.
func (s *OrderService) CancelKitchen(ctx context.Context, body map[string]interface{}) ([]byte, bool, error) {
	payload, status, err := s.PostJSON(ctx, "/cancel_kitchen", body)
	if err != nil {
		return nil, false, err
	}
	return payload, IsOK(status), nil
}

// CancelOrderItem forwards a single-item cancellation verbatim.
func (s *OrderService) CancelOrderItem(ctx context.Context, body map[string]interface{}) ([]byte, int, error) {
	return s.PostJSON(ctx, "/cancel_order_item", body)
}

// KitchenService wraps the kitchen_service endpoints.
type KitchenService struct {
	*Client
}

func NewKitchenService(base string, httpClient HTTPClient) *KitchenService {
	return &KitchenService{Client: NewClient(base, httpClient)}
}

// Orders fetches the live kitchen board.
func (s *KitchenService) Orders(ctx context.Context) ([]domain.KitchenOrder, error) {
	payload, status, err := s.GetJSON(ctx, "/kitchen/orders")
	if err != nil {
		return nil, err
	}
	if !IsOK(status) {
		return nil, fmt.Errorf("kitchen/orders: upstream status %d", status)
	}
	var orders []domain.KitchenOrder
	if err := DecodeInto(payload, &orders); err != nil {
		return nil, fmt.Errorf("decode kitchen/orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus pushes a status change for one order.
func (s *KitchenService) UpdateStatus(ctx context.Context, orderID, status, reason string) error {
	q := url.Values{}
	q.Set("status", status)
	q.Set("reason", reason)
	path := "/kitchen/update_status/" + url.PathEscape(orderID) + "?" + q.Encode()
	_, code, err := s.Post(ctx, path)
	if err != nil {
		return err
	}
	if !IsOK(code) {
		return fmt.Errorf("kitchen/update_status/%s: upstream status %d", orderID, code)
	}
	return nil
}

// SyncOrderItems asks the kitchen to drop cancelled items from its active
// list for one order.
func (s *KitchenService) SyncOrderItems(ctx context.Context, orderID string) error {
	_, code, err := s.Post(ctx, "/kitchen/sync_order_items/"+url.PathEscape(orderID))
	if err != nil {
		return err
	}
	if !IsOK(code) {
		return fmt.Errorf("kitchen/sync_order_items/%s: upstream status %d", orderID, code)
	}
	return nil
}

// MenuService wraps the menu_service endpoints the report layer needs.
type MenuService struct {
	*Client
}

func NewMenuService(base string, httpClient HTTPClient) *MenuService {
	return &MenuService{Client: NewClient(base, httpClient)}
}

// RecipesBatch resolves recipes for a set of menu names.
func (s *MenuService) RecipesBatch(ctx context.Context, menuNames []string) (map[string][]domain.RecipeLine, error) {
	payload, status, err := s.PostJSON(ctx, "/recipes/batch", map[string]interface{}{"menu_names": menuNames})
	if err != nil {
		return nil, err
	}
	if !IsOK(status) {
		return nil, fmt.Errorf("recipes/batch: upstream status %d", status)
	}
	var envelope struct {
		Recipes map[string][]domain.RecipeLine `json:"recipes"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode recipes/batch: %w", err)
	}
	if envelope.Recipes == nil {
		envelope.Recipes = map[string][]domain.RecipeLine{}
	}
	return envelope.Recipes, nil
}

// InventoryService wraps the inventory_service endpoints.
type InventoryService struct {
	*Client
}

func NewInventoryService(base string, httpClient HTTPClient) *InventoryService {
	return &InventoryService{Client: NewClient(base, httpClient)}
}

// Ingredients lists inventory items keyed by id.
func (s *InventoryService) Ingredients(ctx context.Context) (map[string]domain.Ingredient, error) {
	payload, status, err := s.GetJSON(ctx, "/list_ingredients?show_unavailable=true")
	if err != nil {
		return nil, err
	}
	if !IsOK(status) {
		return nil, fmt.Errorf("list_ingredients: upstream status %d", status)
	}
	var items []domain.Ingredient
	if err := DecodeInto(payload, &items); err != nil {
		return nil, fmt.Errorf("decode list_ingredients: %w", err)
	}
	out := make(map[string]domain.Ingredient, len(items))
	for _, it := range items {
		out[it.ID.String()] = it
	}
	return out, nil
}

// FlavorMap fetches and normalizes the flavor-to-ingredient mapping.
func (s *InventoryService) FlavorMap(ctx context.Context) (map[string][]domain.FlavorMapping, error) {
	payload, status, err := s.GetJSON(ctx, "/flavor_mapping")
	if err != nil {
		return nil, err
	}
	if !IsOK(status) {
		return nil, fmt.Errorf("flavor_mapping: upstream status %d", status)
	}
	return domain.BuildFlavorMap(payload), nil
}

// History fetches consumption-log history rows.
func (s *InventoryService) History(ctx context.Context, limit int, startIso, endIso string) ([]domain.ConsumptionLog, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	if startIso != "" {
		q.Set("start_date", startIso)
	}
	if endIso != "" {
		q.Set("end_date", endIso)
	}
	payload, status, err := s.GetJSON(ctx, "/history?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if !IsOK(status) {
		return nil, fmt.Errorf("history: upstream status %d", status)
	}
	var envelope struct {
		History []domain.ConsumptionLog `json:"history"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return envelope.History, nil
}

// ReportService wraps the report_service endpoints.
type ReportService struct {
	*Client
}

func NewReportService(base string, httpClient HTTPClient) *ReportService {
	return &ReportService{Client: NewClient(base, httpClient)}
}

// FinancialSales fetches raw per-transaction sales rows, tolerating the
// envelope variants the service has shipped: a bare array, {transactions},
// or {data: {transactions}} / {data: []}.
func (s *ReportService) FinancialSales(ctx context.Context, startIso, endIso string, todayOnly bool) ([]domain.SalesTransaction, error) {
	q := url.Values{}
	if startIso != "" {
		q.Set("start_date", startIso)
	}
	if endIso != "" {
		q.Set("end_date", endIso)
	}
	if todayOnly {
		q.Set("today_only", "true")
	}
	payload, status, err := s.GetJSON(ctx, "/report/financial_sales?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if !IsOK(status) {
		return nil, fmt.Errorf("report/financial_sales: upstream status %d", status)
	}

	var bare []domain.SalesTransaction
	if err := json.Unmarshal(payload, &bare); err == nil {
		return bare, nil
	}
	var envelope struct {
		Transactions []domain.SalesTransaction `json:"transactions"`
		Data         json.RawMessage           `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode financial_sales: %w", err)
	}
	if len(envelope.Transactions) > 0 {
		return envelope.Transactions, nil
	}
	if len(envelope.Data) > 0 {
		var inner struct {
			Transactions []domain.SalesTransaction `json:"transactions"`
		}
		if err := json.Unmarshal(envelope.Data, &inner); err == nil && len(inner.Transactions) > 0 {
			return inner.Transactions, nil
		}
		var list []domain.SalesTransaction
		if err := json.Unmarshal(envelope.Data, &list); err == nil {
			return list, nil
		}
	}
	return nil, nil
}
