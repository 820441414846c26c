// Package topic supplies debate topics and side assignments. The engine only
// depends on the Provider interface; topic curation lives outside the core.
package topic

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/supabase-community/supabase-go"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

// Provider hands out a topic and the side the requesting participant argues.
type Provider interface {
	Topic(ctx context.Context) (models.Topic, models.Side, error)
}

// SupabaseProvider reads topics from the debate_topics table.
type SupabaseProvider struct {
	client *supabase.Client
	rng    *rand.Rand
}

// NewSupabaseProvider creates a provider on an existing Supabase client.
func NewSupabaseProvider(client *supabase.Client, rng *rand.Rand) *SupabaseProvider {
	return &SupabaseProvider{client: client, rng: rng}
}

var _ Provider = (*SupabaseProvider)(nil)

type topicRow struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Topic implements Provider: a random active topic and a random side.
func (p *SupabaseProvider) Topic(ctx context.Context) (models.Topic, models.Side, error) {
	var rows []topicRow
	_, err := p.client.From("debate_topics").
		Select("title,description", "", false).
		Eq("is_active", "true").
		ExecuteTo(&rows)
	if err != nil {
		return models.Topic{}, "", fmt.Errorf("failed to fetch topics: %w", err)
	}
	if len(rows) == 0 {
		return models.Topic{}, "", fmt.Errorf("no active topics")
	}

	row := rows[p.rng.Intn(len(rows))]
	side := models.SideFor
	if p.rng.Intn(2) == 1 {
		side = models.SideAgainst
	}
	return models.Topic{Title: row.Title, Description: row.Description}, side, nil
}

// StaticProvider serves a fixed topic; used in tests and offline play.
type StaticProvider struct {
	T models.Topic
	S models.Side
}

// Topic implements Provider.
func (p StaticProvider) Topic(context.Context) (models.Topic, models.Side, error) {
	return p.T, p.S, nil
}
