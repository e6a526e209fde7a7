package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// New dials the broker. An empty url disables queueing and returns a nil connection.
func New(ctx context.Context, url string) (*amqp.Connection, error) {
	if url == "" {
		return nil, nil
	}

	type result struct {
		conn *amqp.Connection
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := amqp.Dial(url)
		done <- result{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, fmt.Errorf("dial rabbitmq canceled: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("dial rabbitmq failed: %w", r.err)
		}
		return r.conn, nil
	}
}

// DeclareQueue declares the durable queue used by both publisher and worker.
func DeclareQueue(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s failed: %w", name, err)
	}
	return nil
}
