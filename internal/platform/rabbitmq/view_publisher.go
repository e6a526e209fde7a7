package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"apicatalog/internal/model"
)

type ViewPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewViewPublisher(conn *amqp.Connection, queueName string) *ViewPublisher {
	return &ViewPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

// RecordView enqueues a view of apiID for the view worker.
func (p *ViewPublisher) RecordView(ctx context.Context, apiID uint) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(model.ViewEvent{APIID: apiID, OccurredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal view event failed: %w", err)
	}

	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	}); err != nil {
		return fmt.Errorf("publish view event failed: %w", err)
	}
	return nil
}
