// Package submit issues the one-shot order-creation request. Its only
// output is the order id the push channel is subsequently opened with; if
// the request fails, tracking never starts.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Details carries the free-form order options the customer entered.
type Details struct {
	Notes string `json:"notes,omitempty"`
}

type orderRequest struct {
	CustomerID string  `json:"customer_id"`
	Details    Details `json:"details"`
}

type orderResponse struct {
	OrderID string `json:"order_id"`
}

// Submitter is a thin HTTP client for the backend's order endpoint.
type Submitter struct {
	baseURL string
	client  *http.Client
}

// New creates a submitter for the backend at baseURL (e.g.
// "http://localhost:8080"). timeout bounds the whole request; zero means
// no client-side bound beyond the caller's context.
func New(baseURL string, timeout time.Duration) *Submitter {
	return &Submitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			// Each order request becomes a client span, and the W3C
			// traceparent header lets the backend join it.
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// PlaceOrder creates an order for customerID and returns the id to track
// it under. A fresh correlation id is attached as X-Request-Id so the
// request can be matched against backend logs.
func (s *Submitter) PlaceOrder(ctx context.Context, customerID string, details Details) (string, error) {
	if strings.TrimSpace(customerID) == "" {
		return "", errors.New("customer id is required")
	}

	body, err := json.Marshal(orderRequest{CustomerID: customerID, Details: details})
	if err != nil {
		return "", fmt.Errorf("encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/order/doener", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build order request: %w", err)
	}
	correlationID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", correlationID)

	res, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("place order: backend returned %d: %s", res.StatusCode, bytes.TrimSpace(snippet))
	}

	var out orderResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	if out.OrderID == "" {
		return "", errors.New("order response carried no order_id")
	}

	slog.InfoContext(ctx, "order placed",
		"order_id", out.OrderID, "customer_id", customerID, "correlation_id", correlationID)
	return out.OrderID, nil
}
