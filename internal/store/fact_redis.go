package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	redis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// Fact fields stored per page.
const (
	FieldText   = "text"
	FieldImages = "images"
	FieldSize   = "size"
)

// FactStore keeps extracted page facts in Redis hashes keyed by document
// fingerprint, so repeated selections over the same file skip extraction.
type FactStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFactStore(redisURL string, ttl time.Duration) (*FactStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &FactStore{client: c, ttl: ttl}, nil
}

func (s *FactStore) Close() error { return s.client.Close() }

// Ping checks the Redis connection.
func (s *FactStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func pageKey(doc string, page int) string {
	return fmt.Sprintf("pagesel:doc:%s:page:%d", doc, page)
}

// Get returns one fact of a page. ok is false on a cache miss.
func (s *FactStore) Get(ctx context.Context, doc string, page int, field string) (string, bool, error) {
	res, err := s.client.HGet(ctx, pageKey(doc, page), field).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return res, true, nil
}

// Put stores one fact of a page and refreshes the key's expiry.
func (s *FactStore) Put(ctx context.Context, doc string, page int, field, value string) error {
	key := pageKey(doc, page)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, field, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Fingerprint returns the hex BLAKE2b-256 digest of the file at path.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
