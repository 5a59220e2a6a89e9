package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HTTPClient lets tests substitute the outbound transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Upstreams holds the base URLs of the services behind the gateway.
type Upstreams struct {
	Order     string
	Kitchen   string
	Menu      string
	Inventory string
	Report    string
	User      string
	Car       string
}

// Gateway relays browser requests to the upstream services 1:1. Failures to
// reach an upstream never leak transport errors; each route carries a
// domain-specific message synthesized into a 500 {"error": ...} body.
type Gateway struct {
	upstreams Upstreams
	client    HTTPClient
	stream    HTTPClient
	log       *logrus.Entry
}

func NewGateway(upstreams Upstreams, client HTTPClient) *Gateway {
	return &Gateway{
		upstreams: upstreams,
		client:    client,
		stream:    client,
		log:       logrus.WithField("component", "proxy"),
	}
}

// SetStreamClient overrides the transport used for the SSE relay. The
// regular client carries a request timeout, which would cut long-lived
// event streams short.
func (g *Gateway) SetStreamClient(c HTTPClient) { g.stream = c }

// relay forwards the request to target+path, mirroring the upstream status,
// headers and body. An empty path reuses the inbound path. The query string
// always travels along.
func (g *Gateway) relay(w http.ResponseWriter, r *http.Request, target, path, errMsg string) {
	if path == "" {
		path = r.URL.Path
	}
	url := target + path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
	if err != nil {
		g.fail(w, r, errMsg, err)
		return
	}
	for k, v := range r.Header {
		req.Header[k] = v
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.fail(w, r, errMsg, err)
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		g.log.WithError(err).WithField("path", r.URL.Path).Error("failed to copy upstream response")
	}
}

func (g *Gateway) fail(w http.ResponseWriter, r *http.Request, errMsg string, err error) {
	g.log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error(errMsg)
	WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": errMsg})
}

// passthrough builds a handler that relays the inbound path untouched.
func (g *Gateway) passthrough(target, errMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.relay(w, r, target, "", errMsg)
	}
}

// rewrite builds a handler that relays to a rewritten upstream path.
func (g *Gateway) rewrite(target string, pathFor func(r *http.Request) string, errMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.relay(w, r, target, pathFor(r), errMsg)
	}
}

// noStore wraps a handler, marking the response uncacheable. Menu listings
// change under the admin's feet otherwise.
func noStore(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next(w, r)
	}
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

// RequestID tags each request with a correlation id, echoed back as
// X-Request-Id and attached to the request logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		r.Header.Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

// LogRequests emits one structured line per request.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": r.Header.Get("X-Request-Id"),
		}).Info("request")
		next.ServeHTTP(w, r)
	})
}
