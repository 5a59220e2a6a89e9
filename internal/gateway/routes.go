package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"cafe-gateway/internal/auth"
	"cafe-gateway/internal/cancel"
	"cafe-gateway/internal/qr"
	"cafe-gateway/internal/report"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Handler owns the full route table: raw passthroughs, the cancellation
// orchestration endpoints, the computed report endpoints and the pages.
type Handler struct {
	gw        *Gateway
	cancel    *cancel.Orchestrator
	recovery  *cancel.Recovery
	reports   *report.Service
	queue     cancel.TaskQueue
	qr        qr.Generator
	auth      *auth.Verifier
	publicDir string
	log       *logrus.Entry
}

func NewHandler(
	gw *Gateway,
	orchestrator *cancel.Orchestrator,
	recovery *cancel.Recovery,
	reports *report.Service,
	queue cancel.TaskQueue,
	qrGen qr.Generator,
	verifier *auth.Verifier,
	publicDir string,
) *Handler {
	return &Handler{
		gw:        gw,
		cancel:    orchestrator,
		recovery:  recovery,
		reports:   reports,
		queue:     queue,
		qr:        qrGen,
		auth:      verifier,
		publicDir: publicDir,
		log:       logrus.WithField("component", "gateway"),
	}
}

// SetupRoutes wires every route. Order matters for the parameterized menu
// and order-status paths; specific routes register first.
func (h *Handler) SetupRoutes() http.Handler {
	r := mux.NewRouter()
	u := h.gw.upstreams

	r.HandleFunc("/health", h.health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Order service
	r.HandleFunc("/create_order", h.gw.passthrough(u.Order, "Failed to create order")).Methods("POST")
	r.HandleFunc("/custom_order", h.gw.passthrough(u.Order, "Failed to create custom order")).Methods("POST")
	r.HandleFunc("/order/status/by-id/{orderId}", h.gw.rewrite(u.Order, func(r *http.Request) string {
		return "/order_status/" + url.PathEscape(mux.Vars(r)["orderId"])
	}, "Failed to get order status by id")).Methods("GET")
	r.HandleFunc("/order/status/{queueNumber}", h.gw.passthrough(u.Order, "Failed to get order status")).Methods("GET")
	r.HandleFunc("/order_status/{order_id}", h.gw.passthrough(u.Order, "Failed to fetch order status")).Methods("GET")
	r.HandleFunc("/cancel_order", h.cancelOrder).Methods("POST")
	r.HandleFunc("/cancel_order_item", h.cancelOrderItem).Methods("POST")
	r.HandleFunc("/get_cancelled_items", h.cancelledItems).Methods("GET")

	// Kitchen service
	r.HandleFunc("/kitchen/orders", h.gw.passthrough(u.Kitchen, "Failed to fetch kitchen orders")).Methods("GET")
	r.HandleFunc("/kitchen/update_status/{order_id}", h.kitchenUpdateStatus).Methods("POST")
	r.HandleFunc("/kitchen/status/now", h.gw.passthrough(u.Kitchen, "Failed to fetch kitchen status")).Methods("GET")
	r.HandleFunc("/kitchen/status", h.gw.passthrough(u.Kitchen, "Failed to update kitchen status")).Methods("POST")
	r.HandleFunc("/stream/orders", h.streamOrders).Methods("GET")

	// Menu service. menu_suggestion registers before /menu/{menu_id}.
	r.HandleFunc("/menu", noStore(h.gw.passthrough(u.Menu, "Failed to fetch menu"))).Methods("GET")
	r.HandleFunc("/menu", h.gw.passthrough(u.Menu, "Failed to create menu")).Methods("POST")
	r.HandleFunc("/menu/all", noStore(h.gw.passthrough(u.Menu, "Failed to fetch all menus"))).Methods("GET")
	r.HandleFunc("/menu/list", noStore(h.gw.rewrite(u.Menu, func(*http.Request) string {
		return "/menu"
	}, "Failed to fetch menu list"))).Methods("GET")
	r.HandleFunc("/menu/by_name/{base_name}/flavors", h.gw.passthrough(u.Menu, "Failed to fetch flavors for menu by name")).Methods("GET")
	r.HandleFunc("/menu_suggestion", h.gw.passthrough(u.Menu, "Failed to fetch menu suggestions")).Methods("GET")
	r.HandleFunc("/menu_suggestion", h.gw.passthrough(u.Menu, "Failed to create menu suggestion")).Methods("POST")
	r.HandleFunc("/menu/{menu_id}/recipe", h.gw.passthrough(u.Menu, "Failed to update menu recipe")).Methods("POST")
	r.HandleFunc("/menu/{menu_id}/recipe", h.gw.passthrough(u.Menu, "Failed to load menu recipe")).Methods("GET")
	r.HandleFunc("/menu/{menu_id}", h.gw.passthrough(u.Menu, "Failed to fetch menu by ID")).Methods("GET")
	r.HandleFunc("/menu/{menu_id}", h.gw.passthrough(u.Menu, "Failed to update menu")).Methods("PUT")
	r.HandleFunc("/menu/{menu_id}", h.gw.passthrough(u.Menu, "Failed to delete menu")).Methods("DELETE")
	r.HandleFunc("/flavors/all", noStore(h.gw.passthrough(u.Menu, "Failed to fetch all flavors"))).Methods("GET")
	r.HandleFunc("/flavors", h.gw.passthrough(u.Menu, "Failed to fetch flavors")).Methods("GET")
	r.HandleFunc("/flavors", h.gw.passthrough(u.Menu, "Failed to create flavor")).Methods("POST")
	r.HandleFunc("/flavors/{flavor_id}", h.gw.passthrough(u.Menu, "Failed to fetch flavor by ID")).Methods("GET")
	r.HandleFunc("/flavors/{flavor_id}", h.gw.passthrough(u.Menu, "Failed to update flavor")).Methods("PUT")
	r.HandleFunc("/flavors/{flavor_id}", h.gw.passthrough(u.Menu, "Failed to delete flavor")).Methods("DELETE")
	r.HandleFunc("/recipes/batch", h.gw.passthrough(u.Menu, "Failed to fetch batch recipes")).Methods("POST")

	// Report service passthroughs plus server-side aggregates.
	r.HandleFunc("/report", h.gw.passthrough(u.Report, "Failed to fetch report")).Methods("GET")
	r.HandleFunc("/report/best_seller", h.gw.passthrough(u.Report, "Failed to fetch best seller report")).Methods("GET")
	r.HandleFunc("/report/top_customers", h.gw.passthrough(u.Report, "Failed to fetch top customers")).Methods("GET")
	r.HandleFunc("/report/suggested_menu", h.gw.passthrough(u.Report, "Failed to fetch suggested menu")).Methods("GET")
	r.HandleFunc("/report/financial_sales", h.gw.passthrough(u.Report, "Failed to fetch financial sales report")).Methods("GET")
	r.HandleFunc("/report/financial_sales/summary", h.gw.passthrough(u.Report, "Failed to fetch financial sales summary")).Methods("GET")
	r.HandleFunc("/report/financial_sales/export", h.gw.passthrough(u.Report, "Failed to export financial sales report")).Methods("GET")
	r.HandleFunc("/report/order/{orderId}/ingredients", h.orderIngredients).Methods("GET")
	r.Handle("/report/kitchen_kpis", h.auth.RequireAPI(http.HandlerFunc(h.kitchenKPIs))).Methods("GET")
	r.Handle("/report/top_menus", h.auth.RequireAPI(http.HandlerFunc(h.topMenus))).Methods("GET")
	r.Handle("/report/top_ingredients", h.auth.RequireAPI(http.HandlerFunc(h.topIngredients))).Methods("GET")
	r.Handle("/report/sales_aggregate/export", h.auth.RequireAPI(http.HandlerFunc(h.salesAggregateExport))).Methods("GET")
	r.Handle("/report/sales_aggregate", h.auth.RequireAPI(http.HandlerFunc(h.salesAggregate))).Methods("GET")
	r.Handle("/report/ingredient_analysis", h.auth.RequireAPI(http.HandlerFunc(h.ingredientAnalysis))).Methods("GET")

	// Inventory service
	r.HandleFunc("/inventory/list", h.inventoryList).Methods("GET")
	r.HandleFunc("/inventory/summary", h.gw.rewrite(u.Inventory, fixedPath("/stock/summary"), "Failed to fetch inventory summary")).Methods("GET")
	r.HandleFunc("/inventory/alerts", h.gw.rewrite(u.Inventory, fixedPath("/stock/alerts"), "Failed to fetch inventory alerts")).Methods("GET")
	r.HandleFunc("/inventory/add", h.gw.rewrite(u.Inventory, fixedPath("/add_ingredient"), "Failed to add ingredient")).Methods("POST")
	r.HandleFunc("/inventory/update", h.gw.rewrite(u.Inventory, fixedPath("/update_ingredient_with_audit"), "Failed to update ingredient")).Methods("PUT")
	r.HandleFunc("/inventory/delete/{id}", h.gw.rewrite(u.Inventory, varPath("/delete_ingredient/", "id"), "Failed to delete ingredient")).Methods("DELETE")
	r.HandleFunc("/inventory/stock/add", h.gw.rewrite(u.Inventory, fixedPath("/stock/add"), "Failed to add stock")).Methods("POST")
	r.HandleFunc("/inventory/stock/minimum", h.gw.rewrite(u.Inventory, fixedPath("/stock/minimum"), "Failed to update minimum stock")).Methods("PUT")
	r.HandleFunc("/inventory/stock/history/{id}", h.gw.rewrite(u.Inventory, varPath("/stock/history/", "id"), "Failed to fetch stock history")).Methods("GET")
	r.HandleFunc("/inventory/stock/history", h.gw.rewrite(u.Inventory, fixedPath("/stock/history"), "Failed to fetch all stock history")).Methods("GET")
	r.HandleFunc("/inventory/stock/out_of_stock", h.gw.rewrite(u.Inventory, fixedPath("/stock/out_of_stock"), "Failed to fetch out of stock items")).Methods("GET")
	r.HandleFunc("/inventory/stock/critical_status", h.gw.rewrite(u.Inventory, fixedPath("/stock/critical_status"), "Failed to fetch critical status")).Methods("GET")
	r.HandleFunc("/inventory/stock/check_and_consume", h.gw.rewrite(u.Inventory, fixedPath("/stock/check_and_consume"), "Failed to check and consume stock")).Methods("POST")
	r.HandleFunc("/inventory/stock/rollback/{order_id}", h.gw.rewrite(u.Inventory, varPath("/stock/rollback/", "order_id"), "Failed to rollback stock consumption")).Methods("POST")
	r.HandleFunc("/inventory/consumption_log", h.gw.rewrite(u.Inventory, fixedPath("/consumption_log"), "Failed to fetch consumption logs")).Methods("GET")
	r.HandleFunc("/inventory/consumption_log/{order_id}", h.gw.rewrite(u.Inventory, varPath("/consumption_log/", "order_id"), "Failed to fetch consumption log for order")).Methods("GET")
	r.HandleFunc("/inventory/flavor_mapping", h.gw.rewrite(u.Inventory, fixedPath("/flavor_mapping"), "Failed to fetch flavor mapping")).Methods("GET")
	r.HandleFunc("/inventory/history", h.gw.rewrite(u.Inventory, fixedPath("/history"), "Failed to fetch inventory history")).Methods("GET")
	r.HandleFunc("/inventory/toggle/{id}", h.gw.rewrite(u.Inventory, varPath("/toggle_ingredient_availability/", "id"), "Failed to toggle ingredient availability")).Methods("PATCH")
	r.HandleFunc("/order/{order_id}/ingredients", h.gw.passthrough(u.Inventory, "Failed to fetch order ingredients")).Methods("GET")

	// User service
	r.HandleFunc("/login", h.gw.passthrough(u.User, "Internal server error")).Methods("POST")
	r.HandleFunc("/register", h.gw.passthrough(u.User, "Internal server error")).Methods("POST")

	// Car service passthrough for the drive-through kiosk API
	r.PathPrefix("/api/").HandlerFunc(h.gw.passthrough(u.Car, "Failed to reach car service"))

	// QR codes for room table tents
	r.HandleFunc("/qr/room/{room}", h.roomQR).Methods("GET")

	h.registerPages(r)

	return RequestID(LogRequests(r))
}

func fixedPath(path string) func(*http.Request) string {
	return func(*http.Request) string { return path }
}

func varPath(prefix, name string) func(*http.Request) string {
	return func(r *http.Request) string {
		return prefix + url.PathEscape(mux.Vars(r)[name])
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) inventoryList(w http.ResponseWriter, r *http.Request) {
	r.URL.RawQuery = "show_unavailable=true"
	h.gw.relay(w, r, h.gw.upstreams.Inventory, "/list_ingredients", "Failed to fetch inventory")
}

func decodeBody(r *http.Request) map[string]interface{} {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return map[string]interface{}{}
	}
	return body
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	result := h.cancel.CancelOrder(r.Context(), decodeBody(r))
	WriteJSON(w, result.StatusCode, result.Body)
}

func (h *Handler) cancelOrderItem(w http.ResponseWriter, r *http.Request) {
	result := h.cancel.CancelOrderItem(r.Context(), decodeBody(r))
	WriteJSON(w, result.StatusCode, result.Body)
}

func (h *Handler) cancelledItems(w http.ResponseWriter, r *http.Request) {
	groups, err := h.recovery.CancelledItems(r.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to get cancelled items")
		WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status":  "error",
			"error":   "Failed to get cancelled items",
			"message": err.Error(),
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"data":    groups,
		"message": fmt.Sprintf("Found %d orders with cancelled items", len(groups)),
	})
}
