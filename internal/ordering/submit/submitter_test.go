package submit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestPlaceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/order/doener", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"), "every order carries a correlation id")

		var req struct {
			CustomerID string `json:"customer_id"`
			Details    struct {
				Notes string `json:"notes"`
			} `json:"details"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cust-1", req.CustomerID)
		assert.Equal(t, "Mit Alles und scharf", req.Details.Notes)

		_ = json.NewEncoder(w).Encode(map[string]string{"order_id": "order-7"})
	}))
	defer srv.Close()

	orderID, err := New(srv.URL, 5*time.Second).
		PlaceOrder(context.Background(), "cust-1", Details{Notes: "Mit Alles und scharf"})
	require.NoError(t, err)
	assert.Equal(t, "order-7", orderID)
}

func TestPlaceOrderPropagatesTraceContext(t *testing.T) {
	// With a real tracer provider installed, the instrumented transport
	// must start a client span and inject the W3C traceparent header so
	// the backend can join the trace.
	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceparents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparents <- r.Header.Get("traceparent")
		_ = json.NewEncoder(w).Encode(map[string]string{"order_id": "order-7"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, 5*time.Second).PlaceOrder(context.Background(), "cust-1", Details{})
	require.NoError(t, err)

	select {
	case traceparent := <-traceparents:
		assert.NotEmpty(t, traceparent, "order requests must carry trace context")
	case <-time.After(5 * time.Second):
		t.Fatal("backend never saw the request")
	}
}

func TestPlaceOrderBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"queue_unavailable"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, 5*time.Second).PlaceOrder(context.Background(), "cust-1", Details{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestPlaceOrderDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, 5*time.Second).PlaceOrder(context.Background(), "cust-1", Details{})
	assert.Error(t, err, "a decode failure means tracking must never start")
}

func TestPlaceOrderMissingOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"CREATED"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, 5*time.Second).PlaceOrder(context.Background(), "cust-1", Details{})
	assert.Error(t, err)
}

func TestPlaceOrderRequiresCustomerID(t *testing.T) {
	_, err := New("http://localhost:0", time.Second).PlaceOrder(context.Background(), "  ", Details{})
	assert.Error(t, err)
}

func TestPlaceOrderNetworkFailure(t *testing.T) {
	// Nothing listens here; the failure must be reported, not swallowed.
	_, err := New("http://127.0.0.1:1", time.Second).PlaceOrder(context.Background(), "cust-1", Details{})
	assert.Error(t, err)
}
