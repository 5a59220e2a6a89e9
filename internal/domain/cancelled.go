package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// CancelledItem is the normalized projection of an order item that was
// cancelled. It is rebuilt on demand, never stored.
type CancelledItem struct {
	ItemID       string `json:"item_id"`
	MenuName     string `json:"menu_name"`
	Quantity     int    `json:"quantity"`
	Preference   string `json:"preference"`
	Notes        string `json:"notes"`
	Status       string `json:"status"`
	CancelReason string `json:"cancel_reason"`
	CancelledAt  string `json:"cancelled_at,omitempty"`
}

// CancelledOrderGroup groups the cancelled items of one order for the
// recovery endpoint response.
type CancelledOrderGroup struct {
	OrderID        string          `json:"order_id"`
	QueueNumber    string          `json:"queue_number"`
	CustomerName   string          `json:"customer_name"`
	RoomName       string          `json:"room_name"`
	TimeCancelled  *string         `json:"time_cancelled"`
	CancelledItems []CancelledItem `json:"cancelled_items"`
}

// rawCancelledItem enumerates every field spelling the upstreams have been
// seen using for a cancelled line. Normalization resolves them in a fixed
// order instead of ad hoc fallback chains at call sites.
type rawCancelledItem struct {
	ItemID FlexString `json:"item_id"`
	ID     FlexString `json:"id"`

	MenuName string `json:"menu_name"`
	Name     string `json:"name"`
	Menu     string `json:"menu"`

	Quantity   FlexInt `json:"quantity"`
	Preference string  `json:"preference"`
	Notes      string  `json:"notes"`

	CancelReason    string `json:"cancel_reason"`
	CancelledReason string `json:"cancelled_reason"`
	Reason          string `json:"reason"`

	CancelledAt   string `json:"cancelled_at"`
	TimeCancelled string `json:"time_cancelled"`
	TimeCancel    string `json:"time_cancel"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// NormalizeCancelledItem converts one raw upstream item into a CancelledItem.
// defaultReason is used when the item itself carries no reason (typically the
// order-level cancel_reason, or "Dibatalkan"). Must never fail on missing or
// renamed fields.
func NormalizeCancelledItem(raw json.RawMessage, defaultReason string) CancelledItem {
	var ci rawCancelledItem
	// A decode failure leaves the zero value, which normalizes fine.
	_ = json.Unmarshal(raw, &ci)

	qty := ci.Quantity.Int()
	if qty == 0 {
		qty = 1
	}
	reason := firstNonEmpty(ci.CancelReason, ci.CancelledReason, ci.Reason, defaultReason)
	if reason == "" {
		reason = "Dibatalkan"
	}
	return CancelledItem{
		ItemID:       firstNonEmpty(ci.ItemID.String(), ci.ID.String()),
		MenuName:     firstNonEmpty(ci.MenuName, ci.Name, ci.Menu),
		Quantity:     qty,
		Preference:   ci.Preference,
		Notes:        ci.Notes,
		Status:       StatusCancelled,
		CancelReason: reason,
		CancelledAt:  firstNonEmpty(ci.CancelledAt, ci.TimeCancelled, ci.TimeCancel),
	}
}

// OrderDetail is the per-order payload returned by the order service, either
// flat or wrapped in a data envelope.
type OrderDetail struct {
	OrderID         string            `json:"order_id"`
	QueueNumber     FlexString        `json:"queue_number"`
	CustomerName    string            `json:"customer_name"`
	RoomName        string            `json:"room_name"`
	Status          string            `json:"status"`
	CancelReason    string            `json:"cancel_reason"`
	TimeCancelled   string            `json:"time_cancelled"`
	CancelledOrders []json.RawMessage `json:"cancelled_orders"`
	Items           []json.RawMessage `json:"items"`
	Orders          []json.RawMessage `json:"orders"`
}

// ParseOrderDetail decodes an order-service response body, unwrapping the
// optional {data: {...}} envelope.
func ParseOrderDetail(body []byte) (OrderDetail, error) {
	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Status string          `json:"status"`
	}
	var detail OrderDetail
	if err := json.Unmarshal(body, &envelope); err != nil {
		return detail, err
	}
	if len(envelope.Data) > 0 && string(envelope.Data) != "null" && envelope.Data[0] == '{' {
		if err := json.Unmarshal(envelope.Data, &detail); err != nil {
			return detail, err
		}
		if detail.Status == "" {
			detail.Status = envelope.Status
		}
		return detail, nil
	}
	err := json.Unmarshal(body, &detail)
	return detail, err
}

// LatestCancellationTime returns the max per-item cancellation timestamp as
// RFC 3339, or nil when none of the items carries a parseable one.
func LatestCancellationTime(items []CancelledItem) *string {
	var latest time.Time
	found := false
	for _, it := range items {
		if it.CancelledAt == "" {
			continue
		}
		t, err := parseLooseTime(it.CancelledAt)
		if err != nil {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	if !found {
		return nil
	}
	s := latest.UTC().Format(time.RFC3339)
	return &s
}

func parseLooseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// rawFlavorMapping enumerates the field spellings of flavor-mapping rows.
type rawFlavorMapping struct {
	FlavorName string `json:"flavor_name"`
	Flavor     string `json:"flavor"`

	IngredientID FlexString `json:"ingredient_id"`
	InventoryID  FlexString `json:"inventory_id"`
	ID           FlexString `json:"id"`

	QuantityPerServing float64 `json:"quantity_per_serving"`
	Quantity           float64 `json:"quantity"`

	Unit     string `json:"unit"`
	UnitName string `json:"unit_name"`
}

// BuildFlavorMap normalizes a flavor-mapping payload (either a bare array or
// one wrapped under "mappings"/"data") into flavor name (lower-cased) ->
// additive consumption lines. Rows without a name, ingredient or positive
// quantity are dropped.
func BuildFlavorMap(body []byte) map[string][]FlavorMapping {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		var envelope struct {
			Mappings []json.RawMessage `json:"mappings"`
			Data     []json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return map[string][]FlavorMapping{}
		}
		rows = envelope.Mappings
		if len(rows) == 0 {
			rows = envelope.Data
		}
	}

	out := make(map[string][]FlavorMapping)
	for _, r := range rows {
		var m rawFlavorMapping
		if err := json.Unmarshal(r, &m); err != nil {
			continue
		}
		name := strings.ToLower(firstNonEmpty(m.FlavorName, m.Flavor))
		ingID := firstNonEmpty(m.IngredientID.String(), m.InventoryID.String(), m.ID.String())
		qty := m.QuantityPerServing
		if qty == 0 {
			qty = m.Quantity
		}
		if name == "" || ingID == "" || qty <= 0 {
			continue
		}
		out[name] = append(out[name], FlavorMapping{
			IngredientID:       FlexString(ingID),
			QuantityPerServing: qty,
			Unit:               firstNonEmpty(m.Unit, m.UnitName),
		})
	}
	return out
}
