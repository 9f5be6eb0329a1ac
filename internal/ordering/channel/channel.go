// Package channel maintains the push connection that delivers order
// lifecycle messages from the backend.
//
// Exactly one connection may be open per order. The registry enforcing
// that is an explicit instance the caller owns and threads through the UI
// layer; there is no package-level singleton.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/doenerwerk/ordering-client/internal/ordering/domain"
)

// ErrAlreadyOpen is returned when a second channel is dialled for an order
// that already has a live one. Opening twice is a caller error; close the
// existing channel first.
var ErrAlreadyOpen = errors.New("channel already open for order")

// Handler receives each validated lifecycle message, in arrival order, on
// the channel's receive goroutine. It is never invoked after Close.
type Handler func(ctx context.Context, msg domain.UpdateMessage)

// Registry tracks which orders currently have a live channel.
type Registry struct {
	mu   sync.Mutex
	open map[string]*Channel
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{open: make(map[string]*Channel)}
}

// Channel is one live push connection for one order.
type Channel struct {
	orderID  string
	conn     *websocket.Conn
	handler  Handler
	registry *Registry

	closeOnce sync.Once
	closed    chan struct{}

	mu  sync.Mutex
	err error
}

// Dial opens the push connection for orderID at wsBase (e.g.
// "ws://localhost:8080") and starts delivering validated messages to
// handler. It fails with ErrAlreadyOpen while a previous channel for the
// same order has not been closed.
//
// The connection is torn down when ctx is cancelled or Close is called.
func (r *Registry) Dial(ctx context.Context, wsBase, orderID string, handler Handler) (*Channel, error) {
	if orderID == "" {
		return nil, errors.New("order id is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	r.mu.Lock()
	if _, exists := r.open[orderID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOpen, orderID)
	}
	// Reserve the slot before dialling so concurrent opens for the same
	// order cannot both succeed.
	r.open[orderID] = nil
	r.mu.Unlock()

	url := strings.TrimRight(wsBase, "/") + "/ws/" + orderID
	conn, err := dial(url)
	if err != nil {
		r.release(orderID)
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	ch := &Channel{
		orderID:  orderID,
		conn:     conn,
		handler:  handler,
		registry: r,
		closed:   make(chan struct{}),
	}
	r.mu.Lock()
	r.open[orderID] = ch
	r.mu.Unlock()

	go ch.receiveLoop(ctx)
	go func() {
		select {
		case <-ctx.Done():
			ch.Close()
		case <-ch.closed:
		}
	}()

	return ch, nil
}

func (r *Registry) release(orderID string) {
	r.mu.Lock()
	delete(r.open, orderID)
	r.mu.Unlock()
}

func dial(url string) (*websocket.Conn, error) {
	// x/net/websocket insists on an Origin header; the backend ignores it.
	config, err := websocket.NewConfig(url, "http://localhost/")
	if err != nil {
		return nil, err
	}
	return websocket.DialConfig(config)
}

// receiveLoop reads whole frames and forwards the well-formed ones.
// Malformed frames are dropped with a diagnostic and never reach the
// handler; the connection stays up.
func (c *Channel) receiveLoop(ctx context.Context) {
	defer c.Close()

	for {
		var raw []byte
		if err := websocket.Message.Receive(c.conn, &raw); err != nil {
			if isClosedError(err) {
				slog.InfoContext(ctx, "order channel closed", "order_id", c.orderID)
			} else {
				c.setErr(err)
				slog.ErrorContext(ctx, "order channel transport error",
					"order_id", c.orderID, "error", err)
			}
			return
		}

		var msg domain.UpdateMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.WarnContext(ctx, "dropping malformed frame",
				"order_id", c.orderID, "error", err)
			continue
		}
		if err := msg.Validate(); err != nil {
			slog.WarnContext(ctx, "dropping invalid message",
				"order_id", c.orderID, "error", err)
			continue
		}

		select {
		case <-c.closed:
			return
		default:
		}
		c.handler(ctx, msg)
	}
}

// Close tears the connection down and deregisters the order. Idempotent.
// After Close returns no further handler invocations are started.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
		c.registry.release(c.orderID)
	})
}

// Closed is signalled once no further messages will ever be delivered,
// whether through Close, context cancellation, or the server ending the
// stream. A closed channel is not an error: the caller should surface a
// neutral "tracking ended" indication.
func (c *Channel) Closed() <-chan struct{} { return c.closed }

// Err returns the transport error that ended the channel, or nil if it
// closed cleanly. Reconnection, if desired, is the caller's job.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Channel) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// isClosedError distinguishes an orderly end of stream from a transport
// failure. Closing our own side surfaces as a "use of closed network
// connection" read error, which is equally benign.
func isClosedError(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
