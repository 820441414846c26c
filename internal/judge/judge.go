package judge

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

const (
	// FallbackScore is used when the model's output cannot be parsed.
	FallbackScore = 5
	// FallbackReasoning is used when no usable feedback was produced.
	FallbackReasoning = "no specific feedback"
)

// Config tunes the per-turn scoring pipeline.
type Config struct {
	MaxAttempts int           // retry budget, model-readiness failures only
	Backoff     time.Duration // base backoff between readiness retries
	Timeout     time.Duration // per-invocation deadline
	Stream      bool          // accumulate streamed fragments instead of one batch call
}

// TurnJudge produces a TurnScore for each accepted utterance. Parse failures
// and generation failures degrade to the fallback score; only a cancelled
// context surfaces as an error, and a cancelled call contributes nothing.
type TurnJudge struct {
	gen   Generator
	cfg   Config
	clock clockwork.Clock
}

// NewTurnJudge creates a TurnJudge around the injected model capability.
func NewTurnJudge(gen Generator, cfg Config, clock clockwork.Clock) *TurnJudge {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &TurnJudge{gen: gen, cfg: cfg, clock: clock}
}

var scoreRe = regexp.MustCompile(`(?im)^\s*score\s*[:=]\s*(-?\d+)`)

// Judge scores one utterance against the opponent's prior utterance.
func (j *TurnJudge) Judge(ctx context.Context, topic models.Topic, speaker models.Participant, utterance string, opponentPrior string, turnNumber int) (models.TurnScore, error) {
	parent := ctx
	if j.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.cfg.Timeout)
		defer cancel()
	}

	prompt := buildPrompt(topic, speaker, utterance, opponentPrior)

	raw, err := j.invoke(ctx, prompt)
	if err != nil {
		if parent.Err() != nil {
			// The match moved on; the result must not reach the aggregator.
			// Only the caller's cancellation drops a score. The per-call
			// deadline below degrades to the fallback like any other
			// generation failure.
			return models.TurnScore{}, parent.Err()
		}
		log.Warn().Err(err).
			Str("speaker_id", speaker.ID.String()).
			Int("turn", turnNumber).
			Msg("judge generation failed, using fallback score")
		return fallback(speaker, turnNumber), nil
	}

	score := parseScore(raw)
	score.SpeakerID = speaker.ID
	score.TurnNumber = turnNumber
	return score, nil
}

// invoke resets the shared model and runs one generation. Only the
// model-readiness failure mode consumes the retry budget.
func (j *TurnJudge) invoke(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= j.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := j.cfg.Backoff * time.Duration(attempt-1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-j.clock.After(delay):
			}
		}

		if err := j.gen.Reset(ctx); err != nil {
			lastErr = err
			if errors.Is(err, ErrModelNotReady) && ctx.Err() == nil {
				log.Debug().Err(err).Int("attempt", attempt).Msg("model reset failed, retrying")
				continue
			}
			return "", err
		}

		raw, err := j.generate(ctx, prompt)
		if err != nil {
			lastErr = err
			if errors.Is(err, ErrModelNotReady) && ctx.Err() == nil {
				continue
			}
			return "", err
		}
		return raw, nil
	}
	return "", fmt.Errorf("judge failed after %d attempts: %w", j.cfg.MaxAttempts, lastErr)
}

func (j *TurnJudge) generate(ctx context.Context, prompt string) (string, error) {
	if !j.cfg.Stream {
		return j.gen.Generate(ctx, prompt)
	}

	var sb strings.Builder
	err := j.gen.GenerateStream(ctx, prompt, func(fragment string) {
		sb.WriteString(fragment)
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func buildPrompt(topic models.Topic, speaker models.Participant, utterance, opponentPrior string) string {
	var sb strings.Builder
	sb.WriteString("You are scoring one turn of a formal debate.\n")
	sb.WriteString("Topic: " + topic.Title + "\n")
	if topic.Description != "" {
		sb.WriteString(topic.Description + "\n")
	}
	fmt.Fprintf(&sb, "The speaker argues %s.\n", speaker.Side)
	if opponentPrior != "" {
		sb.WriteString("\nOpponent's previous argument:\n" + opponentPrior + "\n")
	}
	sb.WriteString("\nSpeaker's argument:\n" + utterance + "\n\n")
	sb.WriteString("Rate the argument from 0 to 10 and give one short sentence of feedback.\n")
	sb.WriteString("Reply in exactly this format:\n")
	sb.WriteString("SCORE: <0-10>\nREASON: <one sentence>\n")
	sb.WriteString("If the argument violates content policy, add a line: FLAG: policy\n")
	return sb.String()
}

// parseScore extracts the numeric score and reasoning from raw model output.
// Anything unparseable degrades to the fallback values.
func parseScore(raw string) models.TurnScore {
	ts := models.TurnScore{Score: FallbackScore, Reasoning: FallbackReasoning}

	if m := scoreRe.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			ts.Score = clamp(n, 0, 10)
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "reason:"):
			if reason := strings.TrimSpace(trimmed[len("reason:"):]); reason != "" {
				ts.Reasoning = reason
			}
		case strings.HasPrefix(lower, "flag:") && strings.Contains(lower, "policy"):
			ts.PolicyViolation = true
		}
	}
	return ts
}

func fallback(speaker models.Participant, turnNumber int) models.TurnScore {
	return models.TurnScore{
		SpeakerID:  speaker.ID,
		TurnNumber: turnNumber,
		Score:      FallbackScore,
		Reasoning:  FallbackReasoning,
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
