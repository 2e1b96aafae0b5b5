package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/models"
)

type VoterRepository interface {
	GetByStudentID(ctx context.Context, studentID string) (*models.Voter, error)
}

type voterRepository struct {
	*PostgresRepository
}

func NewVoterRepository(db *sql.DB, logger zerolog.Logger) VoterRepository {
	return &voterRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

// GetByStudentID returns (nil, nil) when no voter matches.
func (r *voterRepository) GetByStudentID(ctx context.Context, studentID string) (*models.Voter, error) {
	query := `
		SELECT fingerprint_hash, student_id, student_name, program, has_voted
		FROM voters
		WHERE student_id = $1
	`

	voter := &models.Voter{}
	err := r.db.QueryRowContext(ctx, query, studentID).Scan(
		&voter.FingerprintHash,
		&voter.StudentID,
		&voter.StudentName,
		&voter.Program,
		&voter.HasVoted,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return voter, err
}
