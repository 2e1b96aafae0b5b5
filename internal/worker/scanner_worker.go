package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/repository"
	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/service"
)

// ScannerWorker consumes fingerprint-scanner events from RabbitMQ and pushes
// them through the same broadcast path as POST /notify. It is optional; the
// HTTP trigger stays the contractual entry point.
type ScannerWorker interface {
	Start(ctx context.Context) error
	Stop() error
}

type scannerWorker struct {
	rabbit      repository.RabbitMQRepository
	broadcasts  service.BroadcastService
	queue       string
	consumerTag string
	logger      zerolog.Logger
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewScannerWorker(
	rabbit repository.RabbitMQRepository,
	broadcasts service.BroadcastService,
	queue, consumerTag string,
	logger zerolog.Logger,
) ScannerWorker {
	return &scannerWorker{
		rabbit:      rabbit,
		broadcasts:  broadcasts,
		queue:       queue,
		consumerTag: consumerTag,
		logger:      logger,
	}
}

func (w *scannerWorker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	deliveries, err := w.rabbit.Consume(ctx, w.queue, w.consumerTag)
	if err != nil {
		cancel()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		for {
			select {
			case <-ctx.Done():
				w.logger.Info().Msg("Stopping scanner event consumer")
				return
			case msg, ok := <-deliveries:
				if !ok {
					w.logger.Warn().Msg("Scanner event channel closed")
					return
				}

				if _, err := w.broadcasts.Broadcast(msg.Body); err != nil {
					// Malformed events are dead-lettered rather than requeued.
					w.logger.Warn().Err(err).Msg("Discarding malformed scanner event")
					msg.Nack(false, false)
					continue
				}

				msg.Ack(false)
			}
		}
	}()

	w.logger.Info().
		Str("queue", w.queue).
		Str("consumer_tag", w.consumerTag).
		Msg("Scanner event consumer started")

	return nil
}

func (w *scannerWorker) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	return nil
}
