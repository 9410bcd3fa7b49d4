// Package redis implements the obligation sequence on a shared Redis
// counter, for deployments where several servers hand out numbers.
package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/warp/medevac-engine/generic"
	"github.com/warp/medevac-engine/medevac"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces the counters: medevac:obligation:{fy}:{code}.
const DefaultKeyPrefix = "medevac:obligation:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client.
func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// Sequence draws obligation sequence values with INCR, which is atomic on
// the server.
type Sequence struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

func NewSequence(client *redis.Client, logger *zap.Logger) *Sequence {
	return &Sequence{client: client, keyPrefix: DefaultKeyPrefix, logger: logger}
}

// Key returns the counter key for a fiscal year and agency code.
func (s *Sequence) Key(fiscalYear int, agencyCode string) string {
	return fmt.Sprintf("%s%02d:%s", s.keyPrefix, fiscalYear%100, agencyCode)
}

// Next implements medevac.SequenceSource.
func (s *Sequence) Next(ctx context.Context, fiscalYear int, agencyCode string) (int, error) {
	key := s.Key(fiscalYear, agencyCode)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Error("failed to increment obligation counter", zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", generic.ErrSequenceUnavailable, err)
	}
	return int(n), nil
}

// Ping checks the connection.
func (s *Sequence) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Sequence) Close() error {
	return s.client.Close()
}

var _ medevac.SequenceSource = (*Sequence)(nil)
