// Package ledger keeps an observational record of persisted generation
// results in redis. It is never consulted for cache decisions; the output
// cache works purely off the filesystem.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ecomlisting-ai/internal/common/logger"
)

const keyPrefix = "genledger:"

// Entry records one persisted result.
type Entry struct {
	Key         string    `json:"key"`
	VideoPath   string    `json:"videoPath"`
	BlogPath    string    `json:"blogPath"`
	TitlePath   string    `json:"titlePath"`
	Fingerprint string    `json:"fingerprint"`
	CacheHit    bool      `json:"cacheHit"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Ledger writes entries with a TTL so stale runs age out on their own.
type Ledger struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func New(addr, password string, db int, ttl time.Duration, log logger.Logger) *Ledger {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Ledger{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{
			"component": "ledger",
		}),
	}
}

// Ping verifies the redis connection.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Record stores e under its item key. Failures are logged, not fatal: the
// ledger is best effort and never blocks a pipeline run.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}

	if err := l.client.Set(ctx, keyPrefix+e.Key, data, l.ttl).Err(); err != nil {
		l.logger.Warn("ledger write failed", map[string]interface{}{
			"key":   e.Key,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// Lookup returns the recorded entry for key, or nil when none exists.
func (l *Ledger) Lookup(ctx context.Context, key string) (*Entry, error) {
	data, err := l.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal ledger entry: %w", err)
	}
	return &e, nil
}

func (l *Ledger) Close() error {
	return l.client.Close()
}

// Fingerprint hashes the inputs that produced a result so a later run can
// tell whether a cached artifact was built from the same inputs.
func Fingerprint(title, description string, imageRefs []string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(description))
	for _, ref := range imageRefs {
		h.Write([]byte{0})
		h.Write([]byte(strings.TrimSpace(ref)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
