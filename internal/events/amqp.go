package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQP publishes events as persistent JSON messages to a durable queue on
// the default exchange. The connection is opened lazily and re-dialled after
// a failure.
type AMQP struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQP creates a publisher for queue at url. No connection is made yet.
func NewAMQP(url, queue string) *AMQP {
	return &AMQP{url: url, queue: queue}
}

// Publish sends ev. On failure the connection is dropped so the next call redials.
func (a *AMQP) Publish(ctx context.Context, ev ReminderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.connect(); err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         "reminder." + string(ev.Action),
		Body:         body,
	}
	if err := a.ch.PublishWithContext(ctx, "", a.queue, false, false, pub); err != nil {
		a.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// connect must be called with mu held.
func (a *AMQP) connect() error {
	if a.ch != nil && !a.ch.IsClosed() {
		return nil
	}
	a.reset()

	conn, err := amqp.Dial(a.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(a.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}
	a.conn, a.ch = conn, ch
	return nil
}

func (a *AMQP) reset() {
	if a.ch != nil {
		_ = a.ch.Close()
	}
	if a.conn != nil {
		_ = a.conn.Close()
	}
	a.conn, a.ch = nil, nil
}

// Close closes the connection.
func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
	return nil
}
