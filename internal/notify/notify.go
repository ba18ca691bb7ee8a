// Package notify announces lifecycle events (case accepted, aid delivered,
// ...) to downstream consumers such as the messaging service. Delivery is
// best effort: a failed publish never undoes a committed transition.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"oncofeliz/internal/platform/observability"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/requestcontext"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventCaseAccepted EventType = "case.accepted"
	EventCaseRejected EventType = "case.rejected"
	EventAidCreated   EventType = "aid.created"
	EventAidApproved  EventType = "aid.approved"
	EventAidRejected  EventType = "aid.rejected"
	EventAidReady     EventType = "aid.ready_for_pickup"
	EventAidDelivered EventType = "aid.delivered"
)

// Event is the message published for a lifecycle change.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       EventType      `json:"type"`
	Key        string         `json:"key"`
	ActorID    id.UserID      `json:"actor_id"`
	RequestID  string         `json:"request_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// NewEvent stamps an event with an id, the request id and the request time.
// key is the aggregate's human code (B001, SOL-001) or its id.
func NewEvent(ctx context.Context, typ EventType, key string, actor id.UserID, data map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       typ,
		Key:        key,
		ActorID:    actor,
		RequestID:  requestcontext.RequestID(ctx),
		OccurredAt: requestcontext.Now(ctx),
		Data:       data,
	}
}

// Publisher delivers one event.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Producer is the subset of the Kafka producer used here.
type Producer interface {
	Produce(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// KafkaPublisher writes events as JSON records keyed by aggregate so all
// events of one beneficiary or request stay ordered.
type KafkaPublisher struct {
	producer Producer
}

func NewKafkaPublisher(p Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: p}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.producer.Produce(ctx, e.Key, value, map[string]string{
		"event_type": string(e.Type),
		"event_id":   e.ID.String(),
	})
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "lifecycle event",
		"event_type", e.Type,
		"event_id", e.ID,
		"key", e.Key,
		"request_id", e.RequestID,
	)
	return nil
}

// Dispatcher publishes after commit and turns failures into request warnings.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger
	failures  *prometheus.CounterVec
}

// NewDispatcher builds a dispatcher; reg may be nil to skip metrics.
func NewDispatcher(publisher Publisher, logger *slog.Logger, reg prometheus.Registerer) *Dispatcher {
	d := &Dispatcher{publisher: publisher, logger: logger}
	if reg != nil {
		d.failures = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "oncofeliz_notification_failures_total",
			Help: "Lifecycle notifications that could not be published, by event type",
		}, []string{"event_type"})
	}
	return d
}

// Dispatch publishes e. A failure is logged, reported and surfaced as a
// warning on the request; it is never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	if d == nil || d.publisher == nil {
		return
	}
	err := d.publisher.Publish(ctx, e)
	if err == nil {
		return
	}
	d.logger.WarnContext(ctx, "failed to publish lifecycle event",
		"request_id", e.RequestID,
		"event_type", e.Type,
		"key", e.Key,
		"error", err,
	)
	observability.CaptureErr(ctx, fmt.Errorf("publish %s for %s: %w", e.Type, e.Key, err))
	if d.failures != nil {
		d.failures.WithLabelValues(string(e.Type)).Inc()
	}
	requestcontext.AddWarning(ctx, fmt.Sprintf("No se pudo enviar la notificación %s", e.Type))
}
