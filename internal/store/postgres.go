package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

// PostgresStore implements Store on a plain Postgres deployment. Guards are
// expressed as WHERE clauses; a zero rows-affected result means the guard
// failed and the caller converges on the next poll.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

var _ Store = (*PostgresStore)(nil)

func (p *PostgresStore) CreateSession(ctx context.Context, s *models.Session) error {
	participants, err := json.Marshal(s.Participants[:])
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO debate_sessions
			(id, topic_title, topic_description, participants, status,
			 current_turn_id, turn_number, remaining_sec, prep_sec,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`,
		s.ID, s.Topic.Title, s.Topic.Description, participants, string(s.Status),
		s.CurrentTurnID, s.TurnNumber, s.RemainingSec, s.PrepSec,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var (
		s            models.Session
		status       string
		participants []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id, topic_title, topic_description, participants, status,
		       current_turn_id, turn_number, remaining_sec, prep_sec,
		       created_at, updated_at
		FROM debate_sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.Topic.Title, &s.Topic.Description, &participants, &status,
			&s.CurrentTurnID, &s.TurnNumber, &s.RemainingSec, &s.PrepSec,
			&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var parts []models.Participant
	if err := json.Unmarshal(participants, &parts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("session %s has %d participants, want 2", id, len(parts))
	}
	copy(s.Participants[:], parts)
	s.Status = models.SessionStatus(status)
	return &s, nil
}

func (p *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.SessionStatus) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE debate_sessions
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to),
	)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return p.conflictOrMissing(ctx, id)
	}
	return nil
}

func (p *PostgresStore) UpdateTurn(ctx context.Context, id uuid.UUID, nextSpeaker uuid.UUID, turnNumber int) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE debate_sessions
		SET current_turn_id = $2, turn_number = $3, updated_at = now()
		WHERE id = $1 AND turn_number < $3`,
		id, nextSpeaker, turnNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to update turn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return p.conflictOrMissing(ctx, id)
	}
	return nil
}

func (p *PostgresStore) InsertMessage(ctx context.Context, msg *models.Utterance) error {
	submittedAt := msg.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO debate_utterances
			(id, session_id, turn_number, speaker_id, text, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.SessionID, msg.TurnNumber, msg.SpeakerID, msg.Text, submittedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert utterance: %w", err)
	}
	return nil
}

func (p *PostgresStore) MessagesSince(ctx context.Context, id uuid.UUID, sinceTurn int) ([]models.Utterance, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, session_id, turn_number, speaker_id, text, submitted_at
		FROM debate_utterances
		WHERE session_id = $1 AND turn_number > $2
		ORDER BY turn_number ASC`, id, sinceTurn)
	if err != nil {
		return nil, fmt.Errorf("failed to query utterances: %w", err)
	}
	defer rows.Close()

	var out []models.Utterance
	for rows.Next() {
		var msg models.Utterance
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.TurnNumber,
			&msg.SpeakerID, &msg.Text, &msg.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan utterance: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read utterances: %w", err)
	}
	return out, nil
}

func (p *PostgresStore) UpdateRemainingTime(ctx context.Context, id uuid.UUID, remaining time.Duration) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE debate_sessions
		SET remaining_sec = $2, updated_at = now()
		WHERE id = $1`,
		id, int(remaining/time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to update remaining time: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresStore) conflictOrMissing(ctx context.Context, id uuid.UUID) error {
	if _, err := p.GetSession(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
