// Package mockserver emulates the Döner order backend for development and
// integration tests: it accepts order submissions and replays the full
// lifecycle over the push channel on a fixed interval.
package mockserver

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/websocket"

	"github.com/doenerwerk/ordering-client/internal/ordering/domain"
)

// shops mirrors the vendor pool the real doener service assigns from.
var shops = []domain.Shop{
	{ID: "shop1", Name: "Best Döner", Price: 8.50},
	{ID: "shop2", Name: "King Döner", Price: 7.50},
	{ID: "shop3", Name: "Döner Palace", Price: 9.00},
}

type orderRecord struct {
	CustomerID string
	Notes      string
	CreatedAt  time.Time
}

// Server holds the accepted orders and the pacing of lifecycle replays.
type Server struct {
	interval time.Duration

	mu     sync.RWMutex
	orders map[string]orderRecord
}

// New creates a mock backend that spaces lifecycle messages by interval.
func New(interval time.Duration) *Server {
	return &Server{
		interval: interval,
		orders:   make(map[string]orderRecord),
	}
}

// Router builds the HTTP surface: the order endpoint, the websocket feed,
// and a health probe.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/order/doener", s.createOrder)
	r.Get("/ws/{orderID}", s.serveWS)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Server spans per request, continuing the client's trace when a
	// traceparent header arrives.
	return otelhttp.NewHandler(r, "doener-backend")
}

type createOrderRequest struct {
	CustomerID string `json:"customer_id"`
	Details    struct {
		Notes string `json:"notes"`
	} `json:"details"`
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer_id is required")
		return
	}

	orderID := uuid.NewString()
	s.mu.Lock()
	s.orders[orderID] = orderRecord{
		CustomerID: req.CustomerID,
		Notes:      req.Details.Notes,
		CreatedAt:  time.Now().UTC(),
	}
	s.mu.Unlock()

	slog.InfoContext(r.Context(), "mock order created",
		"order_id", orderID, "customer_id", req.CustomerID)
	writeJSON(w, http.StatusOK, createOrderResponse{OrderID: orderID, Status: "CREATED"})
}

// serveWS streams the four lifecycle stages for the order, one per
// interval, then leaves the connection open until the client goes away.
// Unknown order ids still get a stream, matching the real backend's
// connection manager which keys only on the path parameter.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	websocket.Handler(func(conn *websocket.Conn) {
		defer conn.Close()
		s.streamLifecycle(conn, orderID)

		// Drain until the client disconnects; inbound frames are ignored.
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
	}).ServeHTTP(w, r)
}

func (s *Server) streamLifecycle(conn *websocket.Conn, orderID string) {
	shop := shops[rand.IntN(len(shops))]
	correlationID := uuid.NewString()

	stages := []domain.UpdateMessage{
		{
			MessageType: domain.OrderCreated,
			Payload:     domain.Payload{Status: "Order placed successfully"},
		},
		{
			MessageType: domain.OrderAcknowledged,
			Payload:     domain.Payload{Status: "Order acknowledged"},
		},
		{
			MessageType: domain.DoenerAssigned,
			Payload:     domain.Payload{Shop: &shop, Price: &shop.Price, Status: "Shop assigned"},
		},
		{
			MessageType: domain.InvoiceCreated,
			Payload:     domain.Payload{Shop: &shop, Price: &shop.Price, Status: "Invoice created"},
		},
	}

	for i, msg := range stages {
		if i > 0 {
			time.Sleep(s.interval)
		}
		msg.CorrelationID = correlationID
		msg.OrderID = orderID
		msg.Timestamp = domain.Timestamp{Time: time.Now().UTC()}
		msg.Version = "1.0"

		data, err := json.Marshal(msg)
		if err != nil {
			slog.Error("marshal lifecycle message", "error", err)
			return
		}
		if err := websocket.Message.Send(conn, string(data)); err != nil {
			slog.Info("websocket send failed, client likely gone",
				"order_id", orderID, "error", err)
			return
		}
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}
