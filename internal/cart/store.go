// Package cart owns the basket's line items: merge-on-add semantics,
// total computation, and durable persistence behind a storage port.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/doenerwerk/ordering-client/internal/ordering/domain"
)

// Key is the fixed storage key the serialized cart lives under.
const Key = "cart"

// Storage is the durable key-value store the cart survives restarts in.
// Load returns ok=false when nothing has been persisted yet.
type Storage interface {
	Load(ctx context.Context) (data []byte, ok bool, err error)
	Save(ctx context.Context, data []byte) error
}

var (
	// ErrInvalidQuantity rejects add/merge calls with a quantity below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrNotHydrated rejects mutations before Hydrate has run. Mutating an
	// unhydrated cart could race a later persisted write against an unseen
	// earlier state.
	ErrNotHydrated = errors.New("cart store not hydrated")
)

// Store holds the in-memory cart and the storage it persists to.
//
// Mutations are copy-on-write: every change builds a fresh Cart value and
// swaps it in whole, so a concurrent read observes either the fully-prior
// or the fully-new cart, never a partially edited line.
type Store struct {
	storage Storage

	mu       sync.RWMutex
	cart     domain.Cart
	hydrated bool
}

// NewStore creates a store over the given storage. Call Hydrate before
// the first mutation.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Hydrate loads the persisted cart, replacing the in-memory one. A missing
// or unparseable value means "no cart": the store starts empty and the
// parse failure is only logged, matching the taxonomy for stale local
// state.
func (s *Store) Hydrate(ctx context.Context) error {
	data, ok, err := s.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	var cart domain.Cart
	if ok {
		if err := json.Unmarshal(data, &cart); err != nil {
			slog.WarnContext(ctx, "discarding unparseable persisted cart", "error", err)
			cart = nil
		}
	}

	s.mu.Lock()
	s.cart = cart
	s.hydrated = true
	s.mu.Unlock()
	return nil
}

// AddOrMerge adds quantity of food to the cart. An existing line for the
// same food id grows by quantity (no cap); otherwise a new line is
// appended. Returns the full updated cart for the caller to persist.
func (s *Store) AddOrMerge(food domain.Food, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		return nil, ErrNotHydrated
	}

	next := s.cart.Clone()
	if i, found := next.Find(food.ID); found {
		next[i].Quantity += quantity
	} else {
		next = append(next, domain.CartLine{Food: food, Quantity: quantity})
	}
	s.cart = next

	return next.Clone(), nil
}

// Persist writes the current cart to storage under the fixed key,
// overwriting any prior value. On failure the in-memory cart stays
// authoritative for this session but will not survive a reload.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	cart := s.cart
	s.mu.RUnlock()

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Save(ctx, data); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// Clear empties the cart in memory and in storage. Nothing calls this
// automatically after checkout; whether and when to clear is the caller's
// decision.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if !s.hydrated {
		// Clearing before hydration would wipe a persisted cart this
		// session never observed.
		s.mu.Unlock()
		return ErrNotHydrated
	}
	s.cart = nil
	s.mu.Unlock()
	return s.Persist(ctx)
}

// Lines returns a snapshot of the current cart.
func (s *Store) Lines() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Total is the sum over all lines of price × quantity, unrounded.
func (s *Store) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Total()
}
