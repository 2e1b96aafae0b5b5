package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/models"
)

type fakeVoterRepo struct {
	voters  map[string]*models.Voter
	err     error
	queries int
}

func (f *fakeVoterRepo) GetByStudentID(ctx context.Context, studentID string) (*models.Voter, error) {
	f.queries++
	if f.err != nil {
		return nil, f.err
	}
	return f.voters[studentID], nil
}

type fakeSender struct {
	sent    []models.LookupResponse
	sendErr error
}

func (f *fakeSender) ID() string { return "test-conn" }

func (f *fakeSender) SendJSON(v interface{}) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	resp, ok := v.(models.LookupResponse)
	if !ok {
		return errors.New("unexpected payload type")
	}
	f.sent = append(f.sent, resp)
	return nil
}

func newTestFingerprintService(repo *fakeVoterRepo) FingerprintService {
	return NewFingerprintService(repo, time.Second, zerolog.Nop())
}

func request(t *testing.T, action, studentID string) []byte {
	t.Helper()
	raw, err := json.Marshal(models.LookupRequest{
		Action: action,
		Data:   models.LookupData{StudentID: studentID},
	})
	require.NoError(t, err)
	return raw
}

func TestLookupSuccess(t *testing.T) {
	repo := &fakeVoterRepo{voters: map[string]*models.Voter{
		"2021102614": {StudentID: "2021102614", FingerprintHash: "AB12CD"},
	}}
	sender := &fakeSender{}
	svc := newTestFingerprintService(repo)

	svc.HandleMessage(context.Background(), sender, request(t, models.ActionGetFingerprint, "2021102614"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, models.StatusSuccess, sender.sent[0].Status)
	assert.Equal(t, "AB12CD", sender.sent[0].FingerprintHash)
	assert.Empty(t, sender.sent[0].Message)
	assert.Equal(t, 1, repo.queries)
}

func TestLookupNotFoundIncludesStudentID(t *testing.T) {
	repo := &fakeVoterRepo{voters: map[string]*models.Voter{}}
	sender := &fakeSender{}
	svc := newTestFingerprintService(repo)

	svc.HandleMessage(context.Background(), sender, request(t, models.ActionGetFingerprint, "0000000000"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, models.StatusNotFound, sender.sent[0].Status)
	assert.Equal(t, "No student found for ID 0000000000", sender.sent[0].Message)
}

func TestLookupRejectsUnknownAction(t *testing.T) {
	repo := &fakeVoterRepo{}
	sender := &fakeSender{}
	svc := newTestFingerprintService(repo)

	svc.HandleMessage(context.Background(), sender, []byte(`{"action":"wrongAction"}`))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, models.StatusError, sender.sent[0].Status)
	assert.Equal(t, "Invalid request format or missing student_id.", sender.sent[0].Message)
	assert.Equal(t, 0, repo.queries, "no store query for an invalid request")
}

func TestLookupRejectsMissingStudentID(t *testing.T) {
	repo := &fakeVoterRepo{}
	sender := &fakeSender{}
	svc := newTestFingerprintService(repo)

	svc.HandleMessage(context.Background(), sender, request(t, models.ActionGetFingerprint, ""))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, models.StatusError, sender.sent[0].Status)
	assert.Equal(t, 0, repo.queries)
}

func TestLookupRejectsMalformedJSON(t *testing.T) {
	repo := &fakeVoterRepo{}
	sender := &fakeSender{}
	svc := newTestFingerprintService(repo)

	svc.HandleMessage(context.Background(), sender, []byte("not-json"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, models.StatusError, sender.sent[0].Status)
	assert.Equal(t, "Invalid request format or missing student_id.", sender.sent[0].Message)
	assert.Equal(t, 0, repo.queries)
}

func TestLookupStoreFailureStaysGeneric(t *testing.T) {
	repo := &fakeVoterRepo{err: errors.New("pq: connection refused")}
	sender := &fakeSender{}
	svc := newTestFingerprintService(repo)

	svc.HandleMessage(context.Background(), sender, request(t, models.ActionGetFingerprint, "2021102614"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, models.StatusError, sender.sent[0].Status)
	assert.Equal(t, "Server error during fingerprint query.", sender.sent[0].Message)
	assert.NotContains(t, sender.sent[0].Message, "pq:")
}

func TestLookupToleratesDroppedConnection(t *testing.T) {
	repo := &fakeVoterRepo{voters: map[string]*models.Voter{
		"2021102614": {StudentID: "2021102614", FingerprintHash: "AB12CD"},
	}}
	sender := &fakeSender{sendErr: errors.New("connection closed")}
	svc := newTestFingerprintService(repo)

	// The reply is simply dropped when the requester is gone.
	assert.NotPanics(t, func() {
		svc.HandleMessage(context.Background(), sender, request(t, models.ActionGetFingerprint, "2021102614"))
	})
}
