package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

const (
	sessionsTable   = "debate_sessions"
	utterancesTable = "debate_utterances"
)

// SupabaseConfig holds Supabase connection configuration.
type SupabaseConfig struct {
	URL    string
	APIKey string
}

// SupabaseStore implements Store against the hosted Supabase tables the
// product backend exposes. PostgREST gives no transactions, only filtered
// single-row writes; the Eq filters below are the conditional-write guards.
type SupabaseStore struct {
	client *supabase.Client
}

// sessionRow mirrors the debate_sessions table.
type sessionRow struct {
	ID               string               `json:"id"`
	TopicTitle       string               `json:"topic_title"`
	TopicDescription string               `json:"topic_description"`
	Participants     []models.Participant `json:"participants"`
	Status           string               `json:"status"`
	CurrentTurnID    string               `json:"current_turn_id"`
	TurnNumber       int                  `json:"turn_number"`
	RemainingSec     int                  `json:"remaining_sec"`
	PrepSec          int                  `json:"prep_sec"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// utteranceRow mirrors the debate_utterances table.
type utteranceRow struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	TurnNumber  int       `json:"turn_number"`
	SpeakerID   string    `json:"speaker_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewSupabaseStore creates a Store backed by Supabase.
func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &SupabaseStore{client: client}, nil
}

var _ Store = (*SupabaseStore)(nil)

func (s *SupabaseStore) CreateSession(ctx context.Context, sess *models.Session) error {
	row := sessionToRow(sess)
	_, _, err := s.client.From(sessionsTable).
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *SupabaseStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var rows []sessionRow
	_, err := s.client.From(sessionsTable).
		Select("*", "", false).
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rowToSession(&rows[0])
}

func (s *SupabaseStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.SessionStatus) error {
	patch := map[string]any{"status": string(to)}
	_, count, err := s.client.From(sessionsTable).
		Update(patch, "", "exact").
		Eq("id", id.String()).
		Eq("status", string(from)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if count == 0 {
		return s.conflictOrMissing(ctx, id)
	}
	return nil
}

func (s *SupabaseStore) UpdateTurn(ctx context.Context, id uuid.UUID, nextSpeaker uuid.UUID, turnNumber int) error {
	patch := map[string]any{
		"current_turn_id": nextSpeaker.String(),
		"turn_number":     turnNumber,
	}
	_, count, err := s.client.From(sessionsTable).
		Update(patch, "", "exact").
		Eq("id", id.String()).
		Lt("turn_number", strconv.Itoa(turnNumber)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update turn: %w", err)
	}
	if count == 0 {
		return s.conflictOrMissing(ctx, id)
	}
	return nil
}

func (s *SupabaseStore) InsertMessage(ctx context.Context, msg *models.Utterance) error {
	row := utteranceRow{
		ID:          msg.ID.String(),
		SessionID:   msg.SessionID.String(),
		TurnNumber:  msg.TurnNumber,
		SpeakerID:   msg.SpeakerID.String(),
		Text:        msg.Text,
		SubmittedAt: msg.SubmittedAt,
	}
	if row.SubmittedAt.IsZero() {
		row.SubmittedAt = time.Now()
	}
	_, _, err := s.client.From(utterancesTable).
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert utterance: %w", err)
	}
	return nil
}

func (s *SupabaseStore) MessagesSince(ctx context.Context, id uuid.UUID, sinceTurn int) ([]models.Utterance, error) {
	var rows []utteranceRow
	_, err := s.client.From(utterancesTable).
		Select("*", "", false).
		Eq("session_id", id.String()).
		Gt("turn_number", strconv.Itoa(sinceTurn)).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query utterances: %w", err)
	}

	out := make([]models.Utterance, 0, len(rows))
	for i := range rows {
		msg, err := rowToUtterance(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	// Order by turn number locally; PostgREST row order is not part of the
	// protocol contract.
	sort.Slice(out, func(i, j int) bool { return out[i].TurnNumber < out[j].TurnNumber })
	return out, nil
}

func (s *SupabaseStore) UpdateRemainingTime(ctx context.Context, id uuid.UUID, remaining time.Duration) error {
	patch := map[string]any{"remaining_sec": int(remaining / time.Second)}
	_, count, err := s.client.From(sessionsTable).
		Update(patch, "", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update remaining time: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) Close() error {
	// Supabase client doesn't require explicit close
	return nil
}

// conflictOrMissing distinguishes a failed guard from a missing row after a
// zero-count conditional update.
func (s *SupabaseStore) conflictOrMissing(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetSession(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func sessionToRow(sess *models.Session) sessionRow {
	return sessionRow{
		ID:               sess.ID.String(),
		TopicTitle:       sess.Topic.Title,
		TopicDescription: sess.Topic.Description,
		Participants:     sess.Participants[:],
		Status:           string(sess.Status),
		CurrentTurnID:    sess.CurrentTurnID.String(),
		TurnNumber:       sess.TurnNumber,
		RemainingSec:     sess.RemainingSec,
		PrepSec:          sess.PrepSec,
	}
}

func rowToSession(row *sessionRow) (*models.Session, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", row.ID, err)
	}
	turnID, err := uuid.Parse(row.CurrentTurnID)
	if err != nil {
		return nil, fmt.Errorf("invalid current turn id %q: %w", row.CurrentTurnID, err)
	}
	if len(row.Participants) != 2 {
		return nil, fmt.Errorf("session %s has %d participants, want 2", row.ID, len(row.Participants))
	}

	sess := &models.Session{
		ID: id,
		Topic: models.Topic{
			Title:       row.TopicTitle,
			Description: row.TopicDescription,
		},
		Status:        models.SessionStatus(row.Status),
		CurrentTurnID: turnID,
		TurnNumber:    row.TurnNumber,
		RemainingSec:  row.RemainingSec,
		PrepSec:       row.PrepSec,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	copy(sess.Participants[:], row.Participants)
	return sess, nil
}

func rowToUtterance(row *utteranceRow) (models.Utterance, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return models.Utterance{}, fmt.Errorf("invalid utterance id %q: %w", row.ID, err)
	}
	sessionID, err := uuid.Parse(row.SessionID)
	if err != nil {
		return models.Utterance{}, fmt.Errorf("invalid session id %q: %w", row.SessionID, err)
	}
	speakerID, err := uuid.Parse(row.SpeakerID)
	if err != nil {
		return models.Utterance{}, fmt.Errorf("invalid speaker id %q: %w", row.SpeakerID, err)
	}
	return models.Utterance{
		ID:          id,
		SessionID:   sessionID,
		TurnNumber:  row.TurnNumber,
		SpeakerID:   speakerID,
		Text:        row.Text,
		SubmittedAt: row.SubmittedAt,
	}, nil
}
