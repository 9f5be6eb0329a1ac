// Package tracker derives a single authoritative progress state for one
// order from the stream of lifecycle messages the channel delivers.
package tracker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/doenerwerk/ordering-client/internal/ordering/domain"
)

// State is the derived display state for a tracked order. It is a value:
// callers get a snapshot, never a live view into the tracker.
type State struct {
	// Stage is the last applied lifecycle stage, or "" before any update
	// has arrived.
	Stage domain.MessageType

	// Shop is the recorded vendor assignment. Sticky: once set, later
	// messages without a shop payload do not clear it.
	Shop *domain.Shop

	// LastError is the most recent server-reported failure notice, kept
	// separate from the progress stage.
	LastError *domain.ErrorInfo
}

// Progress returns the fixed display percentage for the current stage.
// ok is false before the first update.
func (s State) Progress() (percent int, ok bool) {
	return s.Stage.Progress()
}

// Tracker owns the progress state for a single order. It lives for one
// order-tracking session and is discarded when the view is torn down.
//
// Message application is deliberately permissive: whatever valid message
// arrives last wins the stage, with no lifecycle-order check. This mirrors
// the backend's delivery contract, which carries no ordering guarantee the
// client could lean on.
type Tracker struct {
	orderID string

	mu    sync.RWMutex
	state State
}

// New creates a tracker bound to orderID. Messages for any other order
// are discarded.
func New(orderID string) *Tracker {
	return &Tracker{orderID: orderID}
}

// OrderID returns the order this tracker is bound to.
func (t *Tracker) OrderID() string { return t.orderID }

// Apply consumes one validated lifecycle message and returns the updated
// state snapshot.
//
//   - Messages for a different order are dropped silently.
//   - Messages carrying an error become the LastError notice and leave
//     the stage untouched.
//   - Otherwise the message's stage is recorded (last wins) and a shop
//     payload, if present, replaces the current assignment.
//
// Apply is idempotent under message repetition.
func (t *Tracker) Apply(ctx context.Context, msg domain.UpdateMessage) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if msg.OrderID != t.orderID {
		slog.DebugContext(ctx, "dropping update for foreign order",
			"tracked_order_id", t.orderID, "order_id", msg.OrderID)
		return t.state
	}

	if msg.IsError() {
		errInfo := *msg.Error
		t.state.LastError = &errInfo
		slog.WarnContext(ctx, "order reported an error",
			"order_id", msg.OrderID, "error", msg.Error.Message)
		return t.state
	}

	t.state.Stage = msg.MessageType
	if msg.Payload.Shop != nil {
		shop := *msg.Payload.Shop
		t.state.Shop = &shop
	}
	return t.state
}

// Stage returns the current lifecycle stage, "" before the first update.
func (t *Tracker) Stage() domain.MessageType {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Stage
}

// Shop returns a copy of the current shop assignment, or nil if none has
// been recorded yet.
func (t *Tracker) Shop() *domain.Shop {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state.Shop == nil {
		return nil
	}
	shop := *t.state.Shop
	return &shop
}

// State returns a snapshot of the full derived state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}
