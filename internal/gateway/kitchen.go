package gateway

import (
	"io"
	"net/http"
	"net/url"

	"cafe-gateway/internal/outbox"

	"github.com/gorilla/mux"
)

// kitchenUpdateStatus pushes a status change to the kitchen and queues the
// workflow webhook notification. The response does not wait on the webhook.
func (h *Handler) kitchenUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["order_id"]
	status := r.URL.Query().Get("status")
	reason := r.URL.Query().Get("reason")

	q := url.Values{}
	q.Set("status", status)
	q.Set("reason", reason)
	target := h.gw.upstreams.Kitchen + "/kitchen/update_status/" + url.PathEscape(orderID) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, target, nil)
	if err != nil {
		h.gw.fail(w, r, "Failed to update status", err)
		return
	}
	resp, err := h.gw.client.Do(req)
	if err != nil {
		h.gw.fail(w, r, "Failed to update status", err)
		return
	}
	resp.Body.Close()

	if h.queue != nil {
		task := outbox.NewTask(outbox.TaskWebhookNotify, orderID, map[string]string{
			"order_id": orderID,
			"status":   status,
			"reason":   reason,
		})
		if err := h.queue.Enqueue(r.Context(), task); err != nil {
			h.log.WithError(err).WithField("order_id", orderID).Error("failed to enqueue webhook notification")
		}
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// streamOrders relays the kitchen's server-sent event stream to the browser.
func (h *Handler) streamOrders(w http.ResponseWriter, r *http.Request) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, h.gw.upstreams.Kitchen+"/stream/orders", nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	resp, err := h.gw.stream.Do(req)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, ok := w.(http.Flusher)
	if !ok {
		io.Copy(w, resp.Body)
		return
	}

	// Flush per chunk so events reach the browser as they happen.
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			flusher.Flush()
		}
		if err != nil {
			return
		}
	}
}
