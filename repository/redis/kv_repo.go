package redis

import (
	"context"
	"strings"

	redislib "github.com/redis/go-redis/v9"
)

// Store is a Redis-backed key-value store, used as the remote backend when
// one is configured.
type Store struct {
	client *redislib.Client
	prefix string
}

// NewStore creates a Redis-backed store. All keys are namespaced under the
// application prefix so the database can be shared.
func NewStore(client *redislib.Client) *Store {
	return &Store{
		client: client,
		prefix: "atd:",
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if err == redislib.Nil {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
