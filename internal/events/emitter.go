package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/solecart-backend/pkg/logger"
	"github.com/angelmondragon/solecart-backend/pkg/metrics"
)

const publishTimeout = 5 * time.Second

// Emitter publishes committed domain events. Emit never returns an error;
// failures are logged and counted.
type Emitter interface {
	Emit(ctx context.Context, evt Event)
}

// Publisher is the transport used by the pubsub emitter.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

// Topics routes cart and auth events.
type Topics struct {
	Cart string
	Auth string
}

type pubsubEmitter struct {
	pub     Publisher
	topics  Topics
	logg    *logger.Logger
	metrics *metrics.EventMetrics
	now     func() time.Time
}

// NewPubSubEmitter builds an emitter backed by a Pub/Sub publisher.
func NewPubSubEmitter(pub Publisher, topics Topics, logg *logger.Logger, m *metrics.EventMetrics) (Emitter, error) {
	if pub == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &pubsubEmitter{pub: pub, topics: topics, logg: logg, metrics: m, now: time.Now}, nil
}

func (e *pubsubEmitter) Emit(ctx context.Context, evt Event) {
	ctx = e.logg.WithFields(ctx, map[string]any{"event_type": evt.Type.String(), "email": logger.MaskEmail(evt.Email)})

	env, err := newEnvelope(evt, e.now())
	if err != nil {
		e.fail(ctx, evt, "encode event payload", err)
		return
	}
	body, err := json.Marshal(env)
	if err != nil {
		e.fail(ctx, evt, "encode event envelope", err)
		return
	}

	topic := e.topics.Auth
	if evt.Type.IsCartEvent() {
		topic = e.topics.Cart
	}

	// the request may already be finished; publishing outlives it.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := e.pub.Publish(pubCtx, topic, body, map[string]string{
		"event_type": evt.Type.String(),
		"event_id":   env.EventID,
	}); err != nil {
		e.fail(ctx, evt, "publish event", err)
		return
	}
	e.metrics.IncPublished(evt.Type.String())
}

func (e *pubsubEmitter) fail(ctx context.Context, evt Event, msg string, err error) {
	e.metrics.IncFailed(evt.Type.String())
	e.logg.Error(ctx, msg, err)
}

type logEmitter struct {
	logg *logger.Logger
}

// NewLogEmitter records events in the log only; used when publishing is disabled.
func NewLogEmitter(logg *logger.Logger) Emitter {
	return &logEmitter{logg: logg}
}

func (l *logEmitter) Emit(ctx context.Context, evt Event) {
	if l.logg == nil {
		return
	}
	l.logg.Debug(l.logg.WithFields(ctx, map[string]any{"event_type": evt.Type.String(), "email": logger.MaskEmail(evt.Email)}), "domain event")
}

// Noop discards events.
type Noop struct{}

func (Noop) Emit(context.Context, Event) {}
