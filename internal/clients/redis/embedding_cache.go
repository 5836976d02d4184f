package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sejmwatch/sejmwatch-backend/internal/platform/envutil"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

// EmbeddingCache memoizes embedding vectors keyed by a hash of the input
// text. Misses are cheap; the point is to keep repeated questions from
// burning embedding quota.
type EmbeddingCache interface {
	Get(ctx context.Context, text string) ([]float32, bool, error)
	Set(ctx context.Context, text string, embedding []float32) error
	Close() error
}

type embeddingCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewEmbeddingCache(log *logger.Logger) (EmbeddingCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &embeddingCache{
		log:    log.With("service", "EmbeddingCache"),
		rdb:    rdb,
		prefix: envutil.String("REDIS_EMBED_PREFIX", "embed"),
		ttl:    envutil.Seconds("REDIS_EMBED_TTL_SECONDS", 24*time.Hour),
	}, nil
}

func (c *embeddingCache) key(text string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(text)))
	return c.prefix + ":" + hex.EncodeToString(sum[:])
}

func (c *embeddingCache) Get(ctx context.Context, text string) ([]float32, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, fmt.Errorf("embedding cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, c.key(text)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		// Stale or corrupt entry; treat as a miss.
		c.log.Warn("dropping unreadable embedding cache entry", "error", err)
		return nil, false, nil
	}
	return vec, true, nil
}

func (c *embeddingCache) Set(ctx context.Context, text string, embedding []float32) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("embedding cache not initialized")
	}
	if len(embedding) == 0 {
		return nil
	}
	raw, err := json.Marshal(embedding)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(text), raw, c.ttl).Err()
}

func (c *embeddingCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
