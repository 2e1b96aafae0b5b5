package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/service"
)

type fakeAcknowledger struct {
	mu     sync.Mutex
	acked  int
	nacked int
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked++
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func (f *fakeAcknowledger) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acked, f.nacked
}

type fakeRabbitRepo struct {
	deliveries chan amqp.Delivery
}

func (f *fakeRabbitRepo) Consume(ctx context.Context, queue, consumer string) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeRabbitRepo) SetupQueue(exchange, queue, routingKey string) error { return nil }

func (f *fakeRabbitRepo) Close() error { return nil }

type recordingBroadcast struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (r *recordingBroadcast) Broadcast(raw []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.payloads = append(r.payloads, raw)
	return 1, nil
}

func (r *recordingBroadcast) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func TestScannerWorkerBroadcastsAndAcks(t *testing.T) {
	ack := &fakeAcknowledger{}
	repo := &fakeRabbitRepo{deliveries: make(chan amqp.Delivery, 2)}
	broadcasts := &recordingBroadcast{}

	w := NewScannerWorker(repo, broadcasts, "scanner_event_queue", "test-consumer", zerolog.Nop())
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	repo.deliveries <- amqp.Delivery{Acknowledger: ack, Body: []byte(`{"type":"hash_saved"}`)}
	repo.deliveries <- amqp.Delivery{Acknowledger: ack, Body: []byte(`{"status":"scanned"}`)}

	deadline := time.Now().Add(2 * time.Second)
	for broadcasts.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, 2, broadcasts.count())
	acked, nacked := ack.counts()
	assert.Equal(t, 2, acked)
	assert.Equal(t, 0, nacked)
}

func TestScannerWorkerNacksMalformedEvents(t *testing.T) {
	ack := &fakeAcknowledger{}
	repo := &fakeRabbitRepo{deliveries: make(chan amqp.Delivery, 1)}
	broadcasts := &recordingBroadcast{err: service.ErrInvalidPayload}

	w := NewScannerWorker(repo, broadcasts, "scanner_event_queue", "test-consumer", zerolog.Nop())
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	repo.deliveries <- amqp.Delivery{Acknowledger: ack, Body: []byte("not-json")}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, nacked := ack.counts()
		if nacked == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	acked, nacked := ack.counts()
	assert.Equal(t, 0, acked)
	assert.Equal(t, 1, nacked)
	assert.Equal(t, 0, broadcasts.count())
}

func TestScannerWorkerStops(t *testing.T) {
	repo := &fakeRabbitRepo{deliveries: make(chan amqp.Delivery)}

	w := NewScannerWorker(repo, &recordingBroadcast{}, "scanner_event_queue", "test-consumer", zerolog.Nop())
	require.NoError(t, w.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
