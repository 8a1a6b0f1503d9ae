package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// DefaultQueue is the asynq queue events are enqueued on.
const DefaultQueue = "events"

// Enqueuer is the subset of *asynq.Client used by AsynqPublisher.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqPublisher turns events into asynq tasks whose type is the topic. The
// event id doubles as task id, so a republished event is deduplicated.
type AsynqPublisher struct {
	Client   Enqueuer
	Queue    string
	MaxRetry int
}

// Publish implements Publisher.
func (p AsynqPublisher) Publish(ctx context.Context, ev Event) error {
	if p.Client == nil {
		return errors.New("asynq publisher: client not configured")
	}
	task, err := NewTask(ev)
	if err != nil {
		return err
	}
	queue := p.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	opts := []asynq.Option{asynq.TaskID(ev.ID), asynq.Queue(queue)}
	if p.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(p.MaxRetry))
	}
	if _, err := p.Client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", ev.Topic, err)
	}
	return nil
}

// NewTask wraps ev into an asynq task.
func NewTask(ev Event) (*asynq.Task, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return asynq.NewTask(ev.Topic, data), nil
}

// FromTask decodes the event carried by t.
func FromTask(t *asynq.Task) (Event, error) {
	var ev Event
	if t == nil {
		return ev, errors.New("events: nil task")
	}
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		return ev, fmt.Errorf("decode event: %w", err)
	}
	if ev.Topic == "" {
		ev.Topic = t.Type()
	}
	return ev, nil
}

// LogPublisher writes every event to the context logger.
type LogPublisher struct{}

// Publish implements Publisher.
func (LogPublisher) Publish(ctx context.Context, ev Event) error {
	zerolog.Ctx(ctx).Info().
		Str("event_id", ev.ID).
		Str("topic", ev.Topic).
		Str("aggregate_id", ev.AggregateID).
		RawJSON("payload", ev.Payload).
		Msg("domain event")
	return nil
}
