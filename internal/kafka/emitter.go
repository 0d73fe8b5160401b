package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ariefcatur/go-plant-market.git/internal/orders"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

// Emitter wraps domain payloads in the v1 envelope and hands them to a
// publisher, carrying the caller's trace context in the message headers.
type Emitter struct {
	Pub     Publisher
	Service string
	Now     func() time.Time
}

func NewEmitter(pub Publisher, service string) *Emitter {
	return &Emitter{Pub: pub, Service: service, Now: time.Now}
}

// Emit publishes payload on topic. key is the partition key and doubles as
// the envelope correlation id.
func (e *Emitter) Emit(ctx context.Context, topic, eventType, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    now().UTC(),
		Producer:      e.Service,
		CorrelationID: key,
		Payload:       body,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		ev.TraceID = sc.TraceID().String()
	}

	headers := append([]kafka.Header{
		{Key: HeaderEventType, Value: []byte(eventType)},
		{Key: HeaderEventVersion, Value: []byte("1")},
	}, InjectHeaders(ctx)...)
	e.Pub.Publish(topic, orders.PartitionKey(key), MustMarshal(ev), headers...)
	return nil
}

// InjectHeaders renders the global propagator's view of ctx as message headers.
func InjectHeaders(ctx context.Context) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	keys := carrier.Keys()
	sort.Strings(keys)
	out := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		out = append(out, kafka.Header{Key: k, Value: []byte(carrier.Get(k))})
	}
	return out
}

// ExtractContext returns ctx carrying the remote span context found in m.
func ExtractContext(ctx context.Context, m kafka.Message) context.Context {
	carrier := propagation.MapCarrier{}
	for _, h := range m.Headers {
		carrier.Set(h.Key, string(h.Value))
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
