// Package domain defines the wire types exchanged with the Döner order
// backend and the entities the client keeps locally (foods, cart lines).
//
// The JSON field names are fixed by the backend: snake_case, with the
// lifecycle payload keyed by message_type. Changing a tag here is a wire
// format break, not a refactor.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MessageType enumerates the lifecycle stages an order moves through.
// INVOICE_CREATED is terminal; no types exist beyond it.
type MessageType string

const (
	OrderCreated      MessageType = "ORDER_CREATED"
	OrderAcknowledged MessageType = "ORDER_ACKNOWLEDGED"
	DoenerAssigned    MessageType = "DOENER_ASSIGNED"
	InvoiceCreated    MessageType = "INVOICE_CREATED"
)

// Known reports whether t is one of the four lifecycle stages.
func (t MessageType) Known() bool {
	switch t {
	case OrderCreated, OrderAcknowledged, DoenerAssigned, InvoiceCreated:
		return true
	}
	return false
}

// Progress maps a stage to its fixed display percentage. ok is false for
// the initial "no update yet" state, in which case no progress bar is
// rendered at all.
func (t MessageType) Progress() (percent int, ok bool) {
	switch t {
	case OrderCreated:
		return 25, true
	case OrderAcknowledged:
		return 50, true
	case DoenerAssigned:
		return 75, true
	case InvoiceCreated:
		return 100, true
	}
	return 0, false
}

// DisplayText returns the customer-facing status line for a stage.
func (t MessageType) DisplayText() string {
	switch t {
	case OrderCreated:
		return "Bestellung aufgegeben"
	case OrderAcknowledged:
		return "Bestellung angenommen"
	case DoenerAssigned:
		return "Dönerladen gefunden"
	case InvoiceCreated:
		return "Rechnung erstellt"
	}
	return ""
}

// Shop identifies the vendor assigned to fulfil an order.
type Shop struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ErrorInfo is the error descriptor a lifecycle message may carry. When
// present the message is a failure notification, not a progress update.
type ErrorInfo struct {
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
}

// Payload is the variant part of an UpdateMessage, keyed by message type.
// Shop is set on DOENER_ASSIGNED and INVOICE_CREATED; the rest of the
// fields are informational and may be absent.
type Payload struct {
	Shop       *Shop    `json:"shop,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	Status     string   `json:"status,omitempty"`
	CustomerID string   `json:"customer_id,omitempty"`
}

// UpdateMessage is one server-pushed lifecycle event for an order.
type UpdateMessage struct {
	CorrelationID string      `json:"correlation_id"`
	MessageType   MessageType `json:"message_type"`
	OrderID       string      `json:"order_id"`
	Payload       Payload     `json:"payload"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	Timestamp     Timestamp   `json:"timestamp"`
	Version       string      `json:"version"`
}

// IsError reports whether the message is a failure notification rather
// than a progress update.
func (m *UpdateMessage) IsError() bool { return m.Error != nil }

var (
	ErrMissingOrderID     = errors.New("message has no order_id")
	ErrUnknownMessageType = errors.New("unknown message_type")
	ErrUnsupportedVersion = errors.New("unsupported schema version")
)

// supportedMajors are the schema major versions this client understands.
// The backend currently emits "1.0"; the web frontend historically sent
// "0.0" for its locally synthesised initial update.
var supportedMajors = map[string]bool{"0": true, "1": true}

// Validate checks the structural invariants a message must satisfy before
// it may reach the tracker. A message failing validation is dropped by the
// channel, never applied.
func (m *UpdateMessage) Validate() error {
	if strings.TrimSpace(m.OrderID) == "" {
		return ErrMissingOrderID
	}
	if !m.MessageType.Known() && !m.IsError() {
		// Failure notifications arrive with *_FAILED message types outside
		// the lifecycle enum (ORDER_CREATION_FAILED, DOENER_ASSIGNMENT_FAILED,
		// INVOICE_CREATION_FAILED); the error field is what identifies them,
		// so the enum check applies to progress updates only.
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, m.MessageType)
	}
	if v := strings.TrimSpace(m.Version); v != "" {
		major, _, _ := strings.Cut(v, ".")
		if !supportedMajors[major] {
			return fmt.Errorf("%w: %q", ErrUnsupportedVersion, m.Version)
		}
	}
	if m.Payload.Shop != nil && m.Payload.Shop.Price < 0 {
		return fmt.Errorf("shop %q has negative price %v", m.Payload.Shop.ID, m.Payload.Shop.Price)
	}
	return nil
}

// Timestamp wraps time.Time to tolerate the backend's zone-less ISO 8601
// timestamps (Python datetime.isoformat() omits the offset) alongside
// proper RFC 3339.
type Timestamp struct {
	time.Time
}

// isoNoZone matches datetime.isoformat() output without tzinfo.
const isoNoZone = "2006-01-02T15:04:05.999999999"

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		ts.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		ts.Time = t
		return nil
	}
	t, err := time.Parse(isoNoZone, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	ts.Time = t.UTC()
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ts.UTC().Format(time.RFC3339Nano) + `"`), nil
}
