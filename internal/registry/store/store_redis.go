package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"classreg/internal/registry/models"
	"classreg/internal/registry/ports"
	id "classreg/pkg/domain"
)

const (
	defaultRedisPrefix = "classreg:"
	redisOwnerKey      = "owner"
	redisNamesKey      = "student_name"
	redisLevelsKey     = "student_level"
)

// RedisStore keeps the owner in a string key and each mapping in a hash
// keyed by the decimal student id.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix namespaces every key, so several registries can share one
// Redis database. A missing ":" separator is appended.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix == "" {
			return
		}
		if !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		s.prefix = prefix
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) key(name string) string { return s.prefix + name }

func (s *RedisStore) Names() ports.Mapping[string] {
	return redisNames{s: s, cmd: s.client}
}

func (s *RedisStore) Tiers() ports.Mapping[models.Tier] {
	return redisTiers{s: s, cmd: s.client}
}

// RunInTx queues every Set made by fn into a MULTI/EXEC pipeline. Reads
// inside fn go straight to Redis and do not observe queued writes.
func (s *RedisStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ports.Slots) error) error {
	pipe := s.client.TxPipeline()
	slots := redisTx{s: s, pipe: pipe}
	if err := fn(ctx, slots); err != nil {
		pipe.Discard()
		return err
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return classifyRedis(fmt.Errorf("commit registry tx: %w", err))
	}
	return nil
}

func (s *RedisStore) ClaimOwner(ctx context.Context, owner id.AccountID) (id.AccountID, error) {
	key := s.key(redisOwnerKey)
	if err := s.client.SetNX(ctx, key, owner.String(), 0).Err(); err != nil {
		return id.AccountID{}, classifyRedis(fmt.Errorf("claim owner: %w", err))
	}
	stored, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return id.AccountID{}, classifyRedis(fmt.Errorf("load owner: %w", err))
	}
	account, err := id.ParseAccountID(stored)
	if err != nil {
		return id.AccountID{}, fmt.Errorf("%w: owner key holds %q", ErrCorrupt, stored)
	}
	return account, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return classifyRedis(s.client.Ping(ctx).Err())
}

type redisNames struct {
	s   *RedisStore
	cmd redis.Cmdable
}

func (m redisNames) Get(ctx context.Context, key id.StudentID) (string, bool, error) {
	name, err := m.s.client.HGet(ctx, m.s.key(redisNamesKey), key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, classifyRedis(fmt.Errorf("find student name: %w", err))
	}
	return name, true, nil
}

func (m redisNames) Set(ctx context.Context, key id.StudentID, name string) error {
	if err := m.cmd.HSet(ctx, m.s.key(redisNamesKey), key.String(), name).Err(); err != nil {
		return classifyRedis(fmt.Errorf("save student name: %w", err))
	}
	return nil
}

type redisTiers struct {
	s   *RedisStore
	cmd redis.Cmdable
}

func (m redisTiers) Get(ctx context.Context, key id.StudentID) (models.Tier, bool, error) {
	raw, err := m.s.client.HGet(ctx, m.s.key(redisLevelsKey), key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return models.TierUnrated, false, nil
	}
	if err != nil {
		return models.TierUnrated, false, classifyRedis(fmt.Errorf("find student level: %w", err))
	}
	code, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return models.TierUnrated, false, fmt.Errorf("%w: student level %q", ErrCorrupt, raw)
	}
	tier, err := models.DecodeTier(uint8(code))
	if err != nil {
		return models.TierUnrated, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return tier, true, nil
}

func (m redisTiers) Set(ctx context.Context, key id.StudentID, tier models.Tier) error {
	code, err := models.EncodeTier(tier)
	if err != nil {
		return err
	}
	if err := m.cmd.HSet(ctx, m.s.key(redisLevelsKey), key.String(), strconv.Itoa(int(code))).Err(); err != nil {
		return classifyRedis(fmt.Errorf("save student level: %w", err))
	}
	return nil
}

// redisTx routes writes into the transaction pipeline. Queued commands
// report no error until Exec.
type redisTx struct {
	s    *RedisStore
	pipe redis.Pipeliner
}

func (t redisTx) Names() ports.Mapping[string] {
	return redisNames{s: t.s, cmd: t.pipe}
}

func (t redisTx) Tiers() ports.Mapping[models.Tier] {
	return redisTiers{s: t.s, cmd: t.pipe}
}

func classifyRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.ErrClosed) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
