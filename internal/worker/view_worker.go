package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"apicatalog/internal/app"
	"apicatalog/internal/logging"
	"apicatalog/internal/metrics"
	"apicatalog/internal/model"
	"apicatalog/internal/platform/rabbitmq"
)

// ViewApplier applies a single view increment; app.CatalogService implements it.
type ViewApplier interface {
	ApplyView(ctx context.Context, apiID uint) error
}

// ViewWorker consumes queued view events and applies them one at a time.
type ViewWorker struct {
	conn      *amqp.Connection
	applier   ViewApplier
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewViewWorker(conn *amqp.Connection, applier ViewApplier, queueName string) *ViewWorker {
	return &ViewWorker{
		conn:      conn,
		applier:   applier,
		queueName: queueName,
	}
}

func (w *ViewWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()
		w.consume(workerCtx, deliveries)
	}()

	return nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (w *ViewWorker) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.handle(ctx, d.Body, &d)
		}
	}
}

// handle decodes and applies one event. Undecodable events and events for
// deleted entries are dropped; other failures are requeued.
func (w *ViewWorker) handle(ctx context.Context, body []byte, ack acknowledger) {
	var event model.ViewEvent
	if err := json.Unmarshal(body, &event); err != nil || event.APIID == 0 {
		logging.Warn().Err(err).Msg("view worker dropped undecodable event")
		_ = ack.Nack(false, false)
		return
	}

	if err := w.applier.ApplyView(ctx, event.APIID); err != nil {
		if errors.Is(err, app.ErrAPINotFound) {
			logging.Debug().Uint("api_id", event.APIID).Msg("view worker dropped event for missing api")
			_ = ack.Nack(false, false)
			return
		}
		logging.Error().Err(err).Uint("api_id", event.APIID).Msg("view worker apply failed")
		_ = ack.Nack(false, true)
		return
	}

	metrics.ViewsRecorded.WithLabelValues("consumed").Inc()
	_ = ack.Ack(false)
}

func (w *ViewWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
