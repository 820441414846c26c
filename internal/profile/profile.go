// Package profile persists final debate results to the user profile store.
// The sink is fire-and-forget from the engine's perspective: failures are
// logged, never propagated as session failures.
package profile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/supabase-community/supabase-go"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

// Result is one participant's view of a finished debate.
type Result struct {
	ParticipantID string      `json:"participant_id"`
	TopicTitle    string      `json:"topic_title"`
	Side          models.Side `json:"side"`
	OpponentType  string      `json:"opponent_type"` // "human" or "ai"
	MyScore       int         `json:"my_score"`
	OpponentScore int         `json:"opponent_score"`
	Won           bool        `json:"won"`
	Feedback      string      `json:"feedback"`
}

// Sink consumes final results.
type Sink interface {
	SaveResult(ctx context.Context, r Result)
}

// SupabaseSink writes results to the debate_results table.
type SupabaseSink struct {
	client *supabase.Client
}

// NewSupabaseSink creates a sink on an existing Supabase client.
func NewSupabaseSink(client *supabase.Client) *SupabaseSink {
	return &SupabaseSink{client: client}
}

var _ Sink = (*SupabaseSink)(nil)

// SaveResult implements Sink.
func (s *SupabaseSink) SaveResult(ctx context.Context, r Result) {
	_, _, err := s.client.From("debate_results").
		Insert(r, false, "", "", "").
		Execute()
	if err != nil {
		log.Error().Err(err).
			Str("participant_id", r.ParticipantID).
			Str("topic", r.TopicTitle).
			Msg("failed to save debate result")
	}
}

// NopSink discards results.
type NopSink struct{}

// SaveResult implements Sink.
func (NopSink) SaveResult(context.Context, Result) {}

// NewSupabaseSinkFromConfig builds a sink with its own client.
func NewSupabaseSinkFromConfig(url, apiKey string) (*SupabaseSink, error) {
	client, err := supabase.NewClient(url, apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return NewSupabaseSink(client), nil
}
