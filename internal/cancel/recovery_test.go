package cancel

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cafe-gateway/internal/domain"
	"cafe-gateway/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecoveryAPI struct {
	today    []upstream.TodayOrder
	todayErr error
	byQueue  map[string]domain.OrderDetail
	queueErr map[string]error
	byID     map[string]domain.OrderDetail
	idErr    map[string]error
}

func (s *stubRecoveryAPI) TodayOrders(ctx context.Context) ([]upstream.TodayOrder, error) {
	return s.today, s.todayErr
}

func (s *stubRecoveryAPI) StatusByQueue(ctx context.Context, queueNumber string) (domain.OrderDetail, error) {
	if err := s.queueErr[queueNumber]; err != nil {
		return domain.OrderDetail{}, err
	}
	return s.byQueue[queueNumber], nil
}

func (s *stubRecoveryAPI) StatusByID(ctx context.Context, orderID string) (domain.OrderDetail, error) {
	if err := s.idErr[orderID]; err != nil {
		return domain.OrderDetail{}, err
	}
	return s.byID[orderID], nil
}

func raws(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		out = append(out, json.RawMessage(it))
	}
	return out
}

func TestCancelledItems_PartialCancellation(t *testing.T) {
	api := &stubRecoveryAPI{
		today: []upstream.TodayOrder{{OrderID: "o1", QueueNumber: "12"}},
		byQueue: map[string]domain.OrderDetail{
			"12": {
				OrderID:      "o1",
				QueueNumber:  "12",
				CustomerName: "Budi",
				RoomName:     "Meja 3",
				Status:       "making",
				CancelledOrders: raws(
					`{"menu_name":"Kopi","quantity":2,"cancel_reason":"stok habis","cancelled_at":"2025-03-01T10:00:00Z"}`,
				),
			},
		},
	}

	groups, err := NewRecovery(api).CancelledItems(context.Background())

	require.NoError(t, err)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "o1", g.OrderID)
	assert.Equal(t, "12", g.QueueNumber)
	assert.Equal(t, "Budi", g.CustomerName)
	require.Len(t, g.CancelledItems, 1)
	assert.Equal(t, "Kopi", g.CancelledItems[0].MenuName)
	assert.Equal(t, 2, g.CancelledItems[0].Quantity)
	require.NotNil(t, g.TimeCancelled)
	assert.Equal(t, "2025-03-01T10:00:00Z", *g.TimeCancelled)
}

func TestCancelledItems_HabisWithEmptyArrayUsesItems(t *testing.T) {
	api := &stubRecoveryAPI{
		today: []upstream.TodayOrder{{OrderID: "o1", QueueNumber: "5"}},
		byQueue: map[string]domain.OrderDetail{
			"5": {
				OrderID:      "o1",
				QueueNumber:  "5",
				Status:       "habis",
				CancelReason: "bahan habis",
				Items:        raws(`{"menu_name":"Teh","quantity":1}`),
			},
		},
	}

	groups, err := NewRecovery(api).CancelledItems(context.Background())

	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].CancelledItems, 1)
	assert.Equal(t, "Teh", groups[0].CancelledItems[0].MenuName)
	// order-level reason flows down to items without their own
	assert.Equal(t, "bahan habis", groups[0].CancelledItems[0].CancelReason)
}

func TestCancelledItems_ByIDFallbackPrefersCancelledOrders(t *testing.T) {
	api := &stubRecoveryAPI{
		today: []upstream.TodayOrder{{OrderID: "o1", QueueNumber: "7"}},
		byQueue: map[string]domain.OrderDetail{
			"7": {OrderID: "o1", QueueNumber: "7", Status: "cancelled"},
		},
		byID: map[string]domain.OrderDetail{
			"o1": {
				CancelledOrders: raws(`{"menu_name":"Es Jeruk"}`),
				Orders:          raws(`{"menu_name":"WrongPick"}`),
			},
		},
	}

	groups, err := NewRecovery(api).CancelledItems(context.Background())

	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].CancelledItems, 1)
	assert.Equal(t, "Es Jeruk", groups[0].CancelledItems[0].MenuName)
	assert.Equal(t, "Dibatalkan", groups[0].CancelledItems[0].CancelReason)
}

func TestCancelledItems_ByIDFallbackFailureStillReturnsGroup(t *testing.T) {
	api := &stubRecoveryAPI{
		today: []upstream.TodayOrder{{OrderID: "o1", QueueNumber: "7"}},
		byQueue: map[string]domain.OrderDetail{
			"7": {OrderID: "o1", QueueNumber: "7", Status: "cancel"},
		},
		idErr: map[string]error{"o1": errors.New("boom")},
	}

	groups, err := NewRecovery(api).CancelledItems(context.Background())

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Empty(t, groups[0].CancelledItems)
}

func TestCancelledItems_FailedOrderSkipped(t *testing.T) {
	api := &stubRecoveryAPI{
		today: []upstream.TodayOrder{
			{OrderID: "o1", QueueNumber: "1"},
			{OrderID: "o2", QueueNumber: "2"},
		},
		byQueue: map[string]domain.OrderDetail{
			"2": {
				OrderID:         "o2",
				QueueNumber:     "2",
				Status:          "making",
				CancelledOrders: raws(`{"menu_name":"Kopi"}`),
			},
		},
		queueErr: map[string]error{"1": errors.New("timeout")},
	}

	groups, err := NewRecovery(api).CancelledItems(context.Background())

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "o2", groups[0].OrderID)
}

func TestCancelledItems_SkipsOrdersWithNothingCancelled(t *testing.T) {
	api := &stubRecoveryAPI{
		today: []upstream.TodayOrder{{OrderID: "o1", QueueNumber: "1"}},
		byQueue: map[string]domain.OrderDetail{
			"1": {OrderID: "o1", QueueNumber: "1", Status: "done"},
		},
	}

	groups, err := NewRecovery(api).CancelledItems(context.Background())

	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestCancelledItems_ListingFailure(t *testing.T) {
	api := &stubRecoveryAPI{todayErr: errors.New("unreachable")}

	groups, err := NewRecovery(api).CancelledItems(context.Background())

	assert.Error(t, err)
	assert.Nil(t, groups)
}

func TestCancelledItems_QueueNumberFallsBackToListing(t *testing.T) {
	api := &stubRecoveryAPI{
		today: []upstream.TodayOrder{{OrderID: "o1", QueueNumber: "42"}},
		byQueue: map[string]domain.OrderDetail{
			"42": {
				OrderID:         "o1",
				Status:          "making",
				CancelledOrders: raws(`{"menu_name":"Kopi"}`),
			},
		},
	}

	groups, err := NewRecovery(api).CancelledItems(context.Background())

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "42", groups[0].QueueNumber)
}

func TestCancelledItems_PreservesListingOrder(t *testing.T) {
	api := &stubRecoveryAPI{
		today: []upstream.TodayOrder{
			{OrderID: "o1", QueueNumber: "1"},
			{OrderID: "o2", QueueNumber: "2"},
			{OrderID: "o3", QueueNumber: "3"},
		},
		byQueue: map[string]domain.OrderDetail{
			"1": {OrderID: "o1", QueueNumber: "1", Status: "making", CancelledOrders: raws(`{"menu_name":"A"}`)},
			"2": {OrderID: "o2", QueueNumber: "2", Status: "done"},
			"3": {OrderID: "o3", QueueNumber: "3", Status: "making", CancelledOrders: raws(`{"menu_name":"B"}`)},
		},
	}

	groups, err := NewRecovery(api).CancelledItems(context.Background())

	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "o1", groups[0].OrderID)
	assert.Equal(t, "o3", groups[1].OrderID)
}
