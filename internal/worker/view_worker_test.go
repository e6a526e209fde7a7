package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"apicatalog/internal/app"
)

type recordingAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *recordingAck) Ack(bool) error {
	a.acked = true
	return nil
}

func (a *recordingAck) Nack(_, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

type applierFunc func(ctx context.Context, apiID uint) error

func (f applierFunc) ApplyView(ctx context.Context, apiID uint) error {
	return f(ctx, apiID)
}

func TestHandleAppliesView(t *testing.T) {
	var got uint
	w := NewViewWorker(nil, applierFunc(func(_ context.Context, id uint) error {
		got = id
		return nil
	}), "views")

	ack := &recordingAck{}
	w.handle(context.Background(), []byte(`{"api_id":7}`), ack)
	assert.Equal(t, uint(7), got)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestHandleDropsBadEvents(t *testing.T) {
	called := false
	w := NewViewWorker(nil, applierFunc(func(context.Context, uint) error {
		called = true
		return nil
	}), "views")

	for _, body := range []string{"{", `{"api_id":0}`} {
		ack := &recordingAck{}
		w.handle(context.Background(), []byte(body), ack)
		assert.True(t, ack.nacked, body)
		assert.False(t, ack.requeue, body)
	}
	assert.False(t, called)
}

func TestHandleRequeuesTransientFailures(t *testing.T) {
	w := NewViewWorker(nil, applierFunc(func(context.Context, uint) error {
		return errors.New("db unavailable")
	}), "views")
	ack := &recordingAck{}
	w.handle(context.Background(), []byte(`{"api_id":3}`), ack)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)

	w = NewViewWorker(nil, applierFunc(func(context.Context, uint) error {
		return app.ErrAPINotFound
	}), "views")
	ack = &recordingAck{}
	w.handle(context.Background(), []byte(`{"api_id":3}`), ack)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}
