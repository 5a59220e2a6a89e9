package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"cafe-gateway/internal/export"
	"cafe-gateway/internal/report"

	"github.com/gorilla/mux"
)

const defaultTopLimit = 5

func intQuery(r *http.Request, name string, fallback int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func (h *Handler) kitchenKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.reports.KitchenKPIs(r.Context())
	if err != nil {
		h.gw.fail(w, r, "Failed to compute kitchen KPIs", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": kpis})
}

func (h *Handler) topMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.reports.TopMenus(r.Context(), intQuery(r, "limit", defaultTopLimit))
	if err != nil {
		h.gw.fail(w, r, "Failed to compute top menus", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": menus})
}

func (h *Handler) topIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.reports.TopIngredients(r.Context(), intQuery(r, "limit", defaultTopLimit))
	if err != nil {
		h.gw.fail(w, r, "Failed to compute top ingredients", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": ingredients})
}

func salesRange(r *http.Request) (string, string, bool) {
	startIso := report.ParseAnyDateToIso(r.URL.Query().Get("start_date"))
	endIso := report.ParseAnyDateToIso(r.URL.Query().Get("end_date"))
	todayOnly := r.URL.Query().Get("today_only") == "true"
	return startIso, endIso, todayOnly
}

func (h *Handler) salesAggregate(w http.ResponseWriter, r *http.Request) {
	startIso, endIso, todayOnly := salesRange(r)
	rows, err := h.reports.SalesAggregate(r.Context(), startIso, endIso, todayOnly)
	if err != nil {
		h.gw.fail(w, r, "Failed to aggregate sales data", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"data":    rows,
		"message": fmt.Sprintf("Aggregated %d menu variants", len(rows)),
	})
}

func (h *Handler) salesAggregateExport(w http.ResponseWriter, r *http.Request) {
	startIso, endIso, todayOnly := salesRange(r)
	rows, err := h.reports.SalesAggregate(r.Context(), startIso, endIso, todayOnly)
	if err != nil {
		h.gw.fail(w, r, "Failed to export sales aggregate", err)
		return
	}

	label := ""
	if startIso != "" || endIso != "" {
		label = fmt.Sprintf("%s to %s", orDash(startIso), orDash(endIso))
	} else if todayOnly {
		label = "today"
	}

	pdfBytes, filename, err := export.SalesAggregatePDF(rows, label)
	if err != nil {
		h.gw.fail(w, r, "Failed to export sales aggregate", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (h *Handler) ingredientAnalysis(w http.ResponseWriter, r *http.Request) {
	view := r.URL.Query().Get("view")
	startIso := report.ParseAnyDateToIso(r.URL.Query().Get("start_date"))
	endIso := report.ParseAnyDateToIso(r.URL.Query().Get("end_date"))

	analysis, err := h.reports.IngredientAnalysis(r.Context(), view, startIso, endIso)
	if err != nil {
		h.gw.fail(w, r, "Failed to compute ingredient analysis", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": analysis})
}

// getJSON issues a GET through the gateway's client and returns the raw body
// with the upstream status.
func (h *Handler) getJSON(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.gw.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return payload, resp.StatusCode, nil
}

// orderIngredients asks the report service for an order's ingredient
// breakdown. A 404 is emulated locally: only 'done' orders get details,
// fetched straight from the inventory service.
func (h *Handler) orderIngredients(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderId"]
	encoded := url.PathEscape(orderID)

	payload, status, err := h.getJSON(r.Context(), h.gw.upstreams.Report+"/report/order/"+encoded+"/ingredients")
	if err != nil {
		h.gw.fail(w, r, "Failed to get order ingredients details via report service", err)
		return
	}

	if status >= 200 && status < 300 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(payload)
		return
	}

	if status == http.StatusNotFound {
		h.orderIngredientsFallback(w, r, orderID, encoded)
		return
	}

	w.WriteHeader(status)
	w.Write(payload)
}

func (h *Handler) orderIngredientsFallback(w http.ResponseWriter, r *http.Request, orderID, encoded string) {
	statusPayload, _, err := h.getJSON(r.Context(), h.gw.upstreams.Order+"/order_status/"+encoded)
	if err != nil {
		h.gw.fail(w, r, "Failed to get order ingredients details via fallback", err)
		return
	}

	var statusEnvelope struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	json.Unmarshal(statusPayload, &statusEnvelope)

	if statusEnvelope.Data.Status != "done" {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":                "success",
			"order_id":              orderID,
			"message":               fmt.Sprintf("Order %s tidak berstatus 'done'", orderID),
			"ingredients_breakdown": map[string]interface{}{"details": []interface{}{}},
		})
		return
	}

	invPayload, _, err := h.getJSON(r.Context(), h.gw.upstreams.Inventory+"/order/"+encoded+"/ingredients")
	if err != nil {
		h.gw.fail(w, r, "Failed to get order ingredients details via fallback", err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":                "success",
		"order_id":              orderID,
		"ingredients_breakdown": map[string]interface{}{"details": breakdownDetails(invPayload)},
	})
}

// breakdownDetails digs the details list out of the inventory response,
// tolerating the envelope variants the service has shipped.
func breakdownDetails(payload []byte) []interface{} {
	var envelope struct {
		Data struct {
			IngredientsBreakdown struct {
				Details []interface{} `json:"details"`
			} `json:"ingredients_breakdown"`
		} `json:"data"`
		IngredientsBreakdown struct {
			Details []interface{} `json:"details"`
		} `json:"ingredients_breakdown"`
		Details []interface{} `json:"details"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return []interface{}{}
	}
	if len(envelope.Data.IngredientsBreakdown.Details) > 0 {
		return envelope.Data.IngredientsBreakdown.Details
	}
	if len(envelope.IngredientsBreakdown.Details) > 0 {
		return envelope.IngredientsBreakdown.Details
	}
	if len(envelope.Details) > 0 {
		return envelope.Details
	}
	return []interface{}{}
}

// roomQR renders the table-tent QR code PNG for one room.
func (h *Handler) roomQR(w http.ResponseWriter, r *http.Request) {
	png, err := h.qr.Generate(mux.Vars(r)["room"])
	if err != nil {
		h.gw.fail(w, r, "Failed to generate QR code", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
