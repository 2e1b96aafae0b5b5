package service

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/relay"
)

var ErrInvalidPayload = errors.New("invalid broadcast payload")

type BroadcastService interface {
	// Broadcast fans an opaque JSON payload out to every open connection and
	// returns how many accepted it. Delivery is fire-and-forget.
	Broadcast(raw []byte) (int, error)
}

type broadcastService struct {
	registry *relay.Registry
	logger   zerolog.Logger
}

func NewBroadcastService(registry *relay.Registry, logger zerolog.Logger) BroadcastService {
	return &broadcastService{
		registry: registry,
		logger:   logger,
	}
}

func (s *broadcastService) Broadcast(raw []byte) (int, error) {
	// The relay never interprets the payload, but it must at least be valid
	// JSON. Re-marshaling normalizes whatever whitespace the submitter used.
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, ErrInvalidPayload
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, ErrInvalidPayload
	}

	delivered := 0
	for _, conn := range s.registry.Snapshot() {
		if err := conn.Send(data); err != nil {
			// Closed or congested connections are skipped silently.
			s.logger.Debug().Err(err).Str("connection_id", conn.ID()).Msg("Skipped connection during broadcast")
			continue
		}
		delivered++
	}

	s.logger.Info().Int("delivered", delivered).Msg("Broadcasted event to clients")
	return delivered, nil
}
