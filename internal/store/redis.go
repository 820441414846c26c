package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

const (
	redisSessionPrefix = "debate:session:"
	redisLogPrefix     = "debate:log:"
	redisMsgIDsPrefix  = "debate:msgids:"

	// Sessions expire a day after the last write; finished debates are
	// archived elsewhere, the hot store only serves live play.
	redisSessionTTL = 24 * time.Hour
)

// RedisStore implements Store on Redis for low-latency deployments. The
// session row is a JSON blob guarded with WATCH/MULTI/EXEC; the utterance
// log is a sorted set scored by turn number.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

func (r *RedisStore) CreateSession(ctx context.Context, s *models.Session) error {
	key := redisSessionPrefix + s.ID.String()
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	val, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, key, val, redisSessionTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (r *RedisStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	val, err := r.client.Get(ctx, redisSessionPrefix+id.String()).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.SessionStatus) error {
	return r.updateGuarded(ctx, id, func(s *models.Session) error {
		if s.Status != from {
			return ErrConflict
		}
		s.Status = to
		return nil
	})
}

func (r *RedisStore) UpdateTurn(ctx context.Context, id uuid.UUID, nextSpeaker uuid.UUID, turnNumber int) error {
	return r.updateGuarded(ctx, id, func(s *models.Session) error {
		if s.TurnNumber >= turnNumber {
			return ErrConflict
		}
		s.CurrentTurnID = nextSpeaker
		s.TurnNumber = turnNumber
		return nil
	})
}

func (r *RedisStore) UpdateRemainingTime(ctx context.Context, id uuid.UUID, remaining time.Duration) error {
	return r.updateGuarded(ctx, id, func(s *models.Session) error {
		s.RemainingSec = int(remaining / time.Second)
		return nil
	})
}

// updateGuarded applies mutate under WATCH/MULTI/EXEC so the guard and the
// write are atomic with respect to other clients.
func (r *RedisStore) updateGuarded(ctx context.Context, id uuid.UUID, mutate func(*models.Session) error) error {
	key := redisSessionPrefix + id.String()

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var s models.Session
		if err := json.Unmarshal([]byte(val), &s); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}

		if err := mutate(&s); err != nil {
			return err
		}
		s.UpdatedAt = time.Now()

		newVal, err := json.Marshal(&s)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, redisSessionTTL)
			return nil
		})
		return err
	}, key)

	if err == redis.TxFailedErr {
		// Another client wrote between WATCH and EXEC; the caller's next
		// poll observes whatever won.
		return ErrConflict
	}
	return err
}

func (r *RedisStore) InsertMessage(ctx context.Context, msg *models.Utterance) error {
	added, err := r.client.SAdd(ctx, redisMsgIDsPrefix+msg.SessionID.String(), msg.ID.String()).Result()
	if err != nil {
		return fmt.Errorf("failed to record message id: %w", err)
	}
	if added == 0 {
		return ErrDuplicate
	}

	cp := *msg
	if cp.SubmittedAt.IsZero() {
		cp.SubmittedAt = time.Now()
	}
	val, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("failed to marshal utterance: %w", err)
	}

	if err := r.client.ZAdd(ctx, redisLogPrefix+msg.SessionID.String(), redis.Z{
		Score:  float64(msg.TurnNumber),
		Member: val,
	}).Err(); err != nil {
		return fmt.Errorf("failed to append utterance: %w", err)
	}
	return nil
}

func (r *RedisStore) MessagesSince(ctx context.Context, id uuid.UUID, sinceTurn int) ([]models.Utterance, error) {
	vals, err := r.client.ZRangeByScore(ctx, redisLogPrefix+id.String(), &redis.ZRangeBy{
		Min: fmt.Sprintf("(%d", sinceTurn),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query utterances: %w", err)
	}

	out := make([]models.Utterance, 0, len(vals))
	for _, v := range vals {
		var msg models.Utterance
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal utterance: %w", err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
