package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sp3dr4/shortlink/internal/domain"
)

const (
	recentKey   = "links:recent"
	sequenceKey = "links:seq"
)

// createScript writes the link hash and its recency entry only when the code
// is free. It returns 1 on insert and 0 when the code already exists.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1],
	'id', ARGV[1],
	'code', ARGV[2],
	'original_url', ARGV[3],
	'created_at', ARGV[4],
	'expires_at', ARGV[5],
	'clicks', ARGV[6])
redis.call('ZADD', KEYS[2], ARGV[7], ARGV[2])
return 1
`)

// incrementScript bumps clicks of an existing link and returns the new count.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
return redis.call('HINCRBY', KEYS[1], 'clicks', 1)
`)

// linkRecord is the hash layout of a link. Timestamps are unix nanoseconds,
// expires_at is 0 when the link never expires.
type linkRecord struct {
	ID          int64  `redis:"id"`
	Code        string `redis:"code"`
	OriginalURL string `redis:"original_url"`
	CreatedAt   int64  `redis:"created_at"`
	ExpiresAt   int64  `redis:"expires_at"`
	Clicks      int64  `redis:"clicks"`
}

func (rec linkRecord) toDomain() *domain.Link {
	link := &domain.Link{
		ID:          rec.ID,
		Code:        rec.Code,
		OriginalURL: rec.OriginalURL,
		CreatedAt:   time.Unix(0, rec.CreatedAt).UTC(),
		Clicks:      rec.Clicks,
	}
	if rec.ExpiresAt != 0 {
		exp := time.Unix(0, rec.ExpiresAt).UTC()
		link.ExpiresAt = &exp
	}
	return link
}

// LinkRepository stores each link as a hash under link:<code> and keeps a
// sorted set of codes scored by creation time for recency queries.
type LinkRepository struct {
	client *redis.Client
	logger *slog.Logger
}

func NewLinkRepository(client *redis.Client, logger *slog.Logger) *LinkRepository {
	return &LinkRepository{
		client: client,
		logger: logger,
	}
}

func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) (*domain.Link, error) {
	key := r.buildKey(link.Code)

	id, err := r.client.Incr(ctx, sequenceKey).Result()
	if err != nil {
		r.logger.Error("Failed to allocate link id", "error", err)
		return nil, fmt.Errorf("allocate link id: %w", err)
	}

	var expiresAt int64
	if link.ExpiresAt != nil {
		expiresAt = link.ExpiresAt.UnixNano()
	}

	inserted, err := createScript.Run(ctx, r.client, []string{key, recentKey},
		id,
		link.Code,
		link.OriginalURL,
		link.CreatedAt.UnixNano(),
		expiresAt,
		link.Clicks,
		link.CreatedAt.UnixMicro(),
	).Int()
	if err != nil {
		r.logger.Error("Failed to create link", "key", key, "error", err)
		return nil, fmt.Errorf("create link: %w", err)
	}
	if inserted == 0 {
		return nil, domain.ErrCodeConflict
	}

	created := *link
	created.ID = id

	r.logger.Debug("Link created successfully", "code", created.Code, "id", created.ID)
	return &created, nil
}

func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	key := r.buildKey(code)

	cmd := r.client.HGetAll(ctx, key)
	fields, err := cmd.Result()
	if err != nil {
		r.logger.Error("Failed to read link", "key", key, "error", err)
		return nil, fmt.Errorf("find link by code: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrLinkNotFound
	}

	var rec linkRecord
	if err := cmd.Scan(&rec); err != nil {
		r.logger.Error("Failed to decode link hash", "key", key, "error", err)
		return nil, fmt.Errorf("decode link %s: %w", code, err)
	}

	return rec.toDomain(), nil
}

func (r *LinkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	n, err := r.client.Exists(ctx, r.buildKey(code)).Result()
	if err != nil {
		return false, fmt.Errorf("check link existence: %w", err)
	}
	return n == 1, nil
}

func (r *LinkRepository) IncrementClicks(ctx context.Context, code string) (*domain.Link, error) {
	key := r.buildKey(code)

	clicks, err := incrementScript.Run(ctx, r.client, []string{key}).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrLinkNotFound
		}
		r.logger.Error("Failed to increment clicks", "key", key, "error", err)
		return nil, fmt.Errorf("increment clicks: %w", err)
	}

	// Every other field is immutable, so the count from the script is the
	// one to report even if another click lands before the read.
	link, err := r.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	link.Clicks = clicks

	r.logger.Debug("Clicks incremented", "code", code, "new_count", clicks)
	return link, nil
}

// ListRecent reads the newest codes from the recency set. Codes sharing the
// score of the last one are read too, so links created in the same
// microsecond are ordered by created_at and id like the SQL stores.
func (r *LinkRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Link, error) {
	links := []*domain.Link{}
	if limit <= 0 {
		return links, nil
	}

	codes, err := r.recentCodes(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return links, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(codes))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, code := range codes {
			cmds[i] = pipe.HGetAll(ctx, r.buildKey(code))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load recent links: %w", err)
	}

	for i, cmd := range cmds {
		var rec linkRecord
		if err := cmd.Scan(&rec); err != nil {
			return nil, fmt.Errorf("decode link %s: %w", codes[i], err)
		}
		if rec.Code == "" {
			continue
		}
		links = append(links, rec.toDomain())
	}

	domain.SortRecent(links)
	if len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

func (r *LinkRepository) recentCodes(ctx context.Context, limit int) ([]string, error) {
	entries, err := r.client.ZRevRangeWithScores(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent codes: %w", err)
	}

	codes := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		code, _ := e.Member.(string)
		codes = append(codes, code)
		seen[code] = struct{}{}
	}
	if len(entries) < limit {
		return codes, nil
	}

	boundary := strconv.FormatFloat(entries[len(entries)-1].Score, 'f', -1, 64)
	ties, err := r.client.ZRangeByScore(ctx, recentKey, &redis.ZRangeBy{Min: boundary, Max: boundary}).Result()
	if err != nil {
		return nil, fmt.Errorf("list tied recent codes: %w", err)
	}
	for _, code := range ties {
		if _, ok := seen[code]; !ok {
			codes = append(codes, code)
			seen[code] = struct{}{}
		}
	}
	return codes, nil
}

func (r *LinkRepository) Close() error {
	return r.client.Close()
}

func (r *LinkRepository) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.logger.Error("Failed to ping Redis", "error", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *LinkRepository) buildKey(code string) string {
	return fmt.Sprintf("link:%s", code)
}
