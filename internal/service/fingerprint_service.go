package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/models"
	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/repository"
)

const (
	msgInvalidRequest = "Invalid request format or missing student_id."
	msgServerError    = "Server error during fingerprint query."
)

// Sender is the reply half of a client connection, satisfied by
// *relay.Connection.
type Sender interface {
	ID() string
	SendJSON(v interface{}) error
}

type FingerprintService interface {
	// HandleMessage services one inbound frame and replies only to sender.
	HandleMessage(ctx context.Context, sender Sender, raw []byte)
}

type fingerprintService struct {
	voterRepo    repository.VoterRepository
	logger       zerolog.Logger
	queryTimeout time.Duration
}

func NewFingerprintService(voterRepo repository.VoterRepository, queryTimeout time.Duration, logger zerolog.Logger) FingerprintService {
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &fingerprintService{
		voterRepo:    voterRepo,
		logger:       logger,
		queryTimeout: queryTimeout,
	}
}

func (s *fingerprintService) HandleMessage(ctx context.Context, sender Sender, raw []byte) {
	var req models.LookupRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.logger.Debug().Err(err).Str("connection_id", sender.ID()).Msg("Malformed lookup request")
		s.reply(sender, models.LookupResponse{
			Status:  models.StatusError,
			Message: msgInvalidRequest,
		})
		return
	}

	if req.Action != models.ActionGetFingerprint || req.Data.StudentID == "" {
		s.reply(sender, models.LookupResponse{
			Status:  models.StatusError,
			Message: msgInvalidRequest,
		})
		return
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	voter, err := s.voterRepo.GetByStudentID(queryCtx, req.Data.StudentID)
	if err != nil {
		// The raw driver error stays in the logs, clients only ever see the
		// generic message.
		s.logger.Error().Err(err).
			Str("connection_id", sender.ID()).
			Str("student_id", req.Data.StudentID).
			Msg("Fingerprint query failed")
		s.reply(sender, models.LookupResponse{
			Status:  models.StatusError,
			Message: msgServerError,
		})
		return
	}

	if voter == nil {
		s.reply(sender, models.LookupResponse{
			Status:  models.StatusNotFound,
			Message: fmt.Sprintf("No student found for ID %s", req.Data.StudentID),
		})
		return
	}

	s.reply(sender, models.LookupResponse{
		Status:          models.StatusSuccess,
		FingerprintHash: voter.FingerprintHash,
	})
}

func (s *fingerprintService) reply(sender Sender, resp models.LookupResponse) {
	if err := sender.SendJSON(resp); err != nil {
		// The client may have disconnected while the query was in flight;
		// the reply is simply dropped.
		s.logger.Debug().Err(err).Str("connection_id", sender.ID()).Msg("Failed to deliver lookup reply")
	}
}
