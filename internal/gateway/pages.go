package gateway

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

// registerPages wires the HTML pages and static assets. Admin pages sit
// behind the JWT page gate; the QR ordering flow stays open. Static files
// register last so API routes win.
func (h *Handler) registerPages(r *mux.Router) {
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	}).Methods("GET")

	r.Handle("/dashboard", h.auth.RequirePage(h.page("index.html"))).Methods("GET")
	r.Handle("/menu-management", h.auth.RequirePage(h.page("menu.html"))).Methods("GET")
	r.Handle("/reportkitchen", h.auth.RequirePage(h.page("report.html"))).Methods("GET")
	r.Handle("/stock-management", h.auth.RequirePage(h.page("kelola-stok.html"))).Methods("GET")
	r.Handle("/menu-suggestion", h.auth.RequirePage(h.page("menu-suggestion.html"))).Methods("GET")
	r.Handle("/login", h.page("login.html")).Methods("GET")

	r.Handle("/qr-menu", h.page("qr-menu.html")).Methods("GET")
	r.Handle("/qr-cart", withQrCsp(h.page("qr-cart.html"))).Methods("GET")
	r.Handle("/checkout", withQrCsp(h.page("checkout.html"))).Methods("GET")
	r.Handle("/qr-track", withQrCsp(h.page("qr-track.html"))).Methods("GET")

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(h.publicDir)))
}

func (h *Handler) page(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(h.publicDir, name))
	})
}

// withQrCsp relaxes the Content-Security-Policy for the QR ordering pages,
// which pull fonts and scripts from CDNs and talk to localhost ports during
// development.
func withQrCsp(next http.Handler) http.Handler {
	policy := strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://cdnjs.cloudflare.com",
		"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com https://cdnjs.cloudflare.com",
		"style-src-elem 'self' 'unsafe-inline' https://fonts.googleapis.com https://cdnjs.cloudflare.com",
		"font-src 'self' data: https://fonts.gstatic.com https://cdnjs.cloudflare.com",
		"img-src 'self' data:",
		"connect-src 'self' http://localhost:*",
	}, "; ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", policy)
		next.ServeHTTP(w, r)
	})
}
