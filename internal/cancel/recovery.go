package cancel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cafe-gateway/internal/domain"
	"cafe-gateway/internal/upstream"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// RecoveryOrderAPI is the slice of the order service the recovery scan uses.
type RecoveryOrderAPI interface {
	TodayOrders(ctx context.Context) ([]upstream.TodayOrder, error)
	StatusByQueue(ctx context.Context, queueNumber string) (domain.OrderDetail, error)
	StatusByID(ctx context.Context, orderID string) (domain.OrderDetail, error)
}

// Recovery reconstructs which items were cancelled today. There is no
// upstream "list all cancelled items" endpoint, so it re-queries every order
// individually; a failed order fetch skips that order rather than failing
// the whole response.
type Recovery struct {
	orders      RecoveryOrderAPI
	concurrency int
	log         *logrus.Entry
}

func NewRecovery(orders RecoveryOrderAPI) *Recovery {
	return &Recovery{
		orders:      orders,
		concurrency: 8,
		log:         logrus.WithField("component", "cancelled-items"),
	}
}

// CancelledItems scans today's orders and returns the groups of cancelled
// items. The returned error is only non-nil when the initial listing fails;
// per-order failures are aggregated, logged and swallowed.
func (r *Recovery) CancelledItems(ctx context.Context) ([]domain.CancelledOrderGroup, error) {
	orders, err := r.orders.TodayOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list today orders: %w", err)
	}

	groups := make([]*domain.CancelledOrderGroup, len(orders))
	var scanErrs *multierror.Error
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.concurrency)

	for i, order := range orders {
		wg.Add(1)
		go func(idx int, order upstream.TodayOrder) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			group, err := r.scanOrder(ctx, order)
			if err != nil {
				mu.Lock()
				scanErrs = multierror.Append(scanErrs, fmt.Errorf("order %s: %w", order.QueueNumber, err))
				mu.Unlock()
				return
			}
			groups[idx] = group
		}(i, order)
	}
	wg.Wait()

	if err := scanErrs.ErrorOrNil(); err != nil {
		r.log.WithError(err).Warn("some orders were skipped during cancelled-items scan")
	}

	out := make([]domain.CancelledOrderGroup, 0, len(groups))
	for _, g := range groups {
		if g != nil {
			out = append(out, *g)
		}
	}
	return out, nil
}

// scanOrder fetches one order's detail and, when it has cancelled items,
// builds its group. Returns (nil, nil) for orders with nothing cancelled.
func (r *Recovery) scanOrder(ctx context.Context, order upstream.TodayOrder) (*domain.CancelledOrderGroup, error) {
	detail, err := r.orders.StatusByQueue(ctx, order.QueueNumber.String())
	if err != nil {
		return nil, err
	}

	hasCancelledArray := len(detail.CancelledOrders) > 0
	if !hasCancelledArray && !domain.IsTerminalCancelled(detail.Status) {
		return nil, nil
	}

	defaultReason := detail.CancelReason
	if defaultReason == "" {
		defaultReason = "Dibatalkan"
	}

	var items []domain.CancelledItem
	if hasCancelledArray {
		items = normalizeAll(detail.CancelledOrders, defaultReason)
	} else {
		// Fully-cancelled order without per-item info: fall back to the
		// active items list, then to the richer by-id endpoint.
		source := detail.Items
		if len(source) == 0 && detail.OrderID != "" {
			byID, err := r.orders.StatusByID(ctx, detail.OrderID)
			if err != nil {
				r.log.WithError(err).WithField("order_id", detail.OrderID).Error("fallback order_status by id failed")
			} else {
				if len(byID.CancelledOrders) > 0 {
					source = byID.CancelledOrders
				} else if len(byID.Orders) > 0 {
					source = byID.Orders
				}
			}
		}
		items = normalizeAll(source, defaultReason)
	}

	timeCancelled := &detail.TimeCancelled
	if detail.TimeCancelled == "" {
		timeCancelled = domain.LatestCancellationTime(items)
	}

	queueNumber := detail.QueueNumber.String()
	if queueNumber == "" {
		queueNumber = order.QueueNumber.String()
	}

	return &domain.CancelledOrderGroup{
		OrderID:        detail.OrderID,
		QueueNumber:    queueNumber,
		CustomerName:   detail.CustomerName,
		RoomName:       detail.RoomName,
		TimeCancelled:  timeCancelled,
		CancelledItems: items,
	}, nil
}

func normalizeAll(raw []json.RawMessage, defaultReason string) []domain.CancelledItem {
	items := make([]domain.CancelledItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, domain.NormalizeCancelledItem(r, defaultReason))
	}
	return items
}
