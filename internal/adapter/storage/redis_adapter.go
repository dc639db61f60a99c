package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/pos-register/internal/core/domain"
)

const (
	draftKeyPrefix  = "draft:"
	DefaultDraftTTL = 24 * time.Hour
)

// draft is the stored form of a terminal's cart.
type draft struct {
	Lines   []domain.CartLine `json:"lines"`
	SavedAt time.Time         `json:"saved_at"`
}

type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &RedisAdapter{client: client, ttl: ttl, now: time.Now}
}

func (r *RedisAdapter) SaveDraft(ctx context.Context, terminalID string, lines []domain.CartLine) error {
	data, err := json.Marshal(draft{Lines: lines, SavedAt: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	if err := r.client.Set(ctx, draftKey(terminalID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft: %w", err)
	}
	return nil
}

func (r *RedisAdapter) LoadDraft(ctx context.Context, terminalID string) ([]domain.CartLine, error) {
	data, err := r.client.Get(ctx, draftKey(terminalID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get draft: %w", err)
	}

	var d draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}

	lines := d.Lines[:0]
	for _, l := range d.Lines {
		if l.Quantity >= 1 {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func (r *RedisAdapter) DeleteDraft(ctx context.Context, terminalID string) error {
	if err := r.client.Del(ctx, draftKey(terminalID)).Err(); err != nil {
		return fmt.Errorf("redis delete draft: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func draftKey(terminalID string) string {
	return draftKeyPrefix + terminalID
}
