package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	TypeUserLoggedIn   = "user.logged_in"
	TypeOrderSubmitted = "order.submitted"
	TypeOrderDeleted   = "order.deleted"
	TypeInvoiceEmailed = "invoice.emailed"
)

const envelopeVersion = 1

var (
	ErrClosed     = errors.New("events: publisher is closed")
	ErrBufferFull = errors.New("events: publish buffer is full")
)

// Envelope wraps every activity event published by the portal.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // session token
	Payload       json.RawMessage `json:"payload"`
}

type UserLoggedInPayload struct {
	UserID int64  `json:"user_id"`
	Method string `json:"method"` // password | google
}

type OrderSubmittedPayload struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

type OrderDeletedPayload struct {
	OrderID int64 `json:"order_id"`
	UserID  int64 `json:"user_id"`
}

type InvoiceEmailedPayload struct {
	OrderID int64 `json:"order_id"`
	UserID  int64 `json:"user_id"`
}

// Event is what callers hand to a Publisher. Key decides partitioning, so all
// events of one user stay ordered.
type Event struct {
	Type          string
	Key           string
	CorrelationID string
	Payload       any
}

// Publisher sends activity events. Publishing never blocks on the broker and
// a failure is only reported, never retried.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

func NewEnvelope(producer string, ev Event, now time.Time) (Envelope, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Envelope{}, fmt.Errorf("events: failed to generate event id: %w", err)
	}

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: failed to encode %s payload: %w", ev.Type, err)
	}

	return Envelope{
		EventID:       id.String(),
		EventType:     ev.Type,
		EventVersion:  envelopeVersion,
		OccurredAt:    now.UTC(),
		Producer:      producer,
		CorrelationID: ev.CorrelationID,
		Payload:       payload,
	}, nil
}

// UnwrapPayload decodes the payload of env into T.
func UnwrapPayload[T any](env Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return t, fmt.Errorf("events: failed to decode %s payload: %w", env.EventType, err)
	}
	return t, nil
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, ev Event) error {
	log.Debug().Str("event_type", ev.Type).Msg("events: no broker configured, event dropped")
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
