package repository

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	watchlistKey  = "watchlist:symbols"
	eventsChannel = "watchlist.events"
)

// Compile-time checks
var (
	_ SymbolStore = (*RedisStore)(nil)
	_ EventBus    = (*RedisBus)(nil)
)

// RedisStore keeps the symbol set in a Redis set. SADD/SREM give the
// atomic insert-if-absent / delete-if-present semantics the registry
// relies on.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Find(ctx context.Context, symbol string) (bool, error) {
	return r.client.SIsMember(ctx, watchlistKey, symbol).Result()
}

// Insert adds the symbol, returning ErrDuplicateKey if it was already a
// member. SADD reports the number of elements actually added, so the
// duplicate check and the write are one atomic operation.
func (r *RedisStore) Insert(ctx context.Context, symbol string) error {
	added, err := r.client.SAdd(ctx, watchlistKey, symbol).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return ErrDuplicateKey
	}
	return nil
}

func (r *RedisStore) DeleteOne(ctx context.Context, symbol string) (int64, error) {
	return r.client.SRem(ctx, watchlistKey, symbol).Result()
}

func (r *RedisStore) FindAll(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, watchlistKey).Result()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// RedisBus delivers watchlist change events over Redis pub/sub so every
// server instance sharing the store broadcasts the same transitions.
type RedisBus struct {
	client *redis.Client
	pubsub *redis.PubSub
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{
		client: client,
		pubsub: client.Subscribe(context.Background(), eventsChannel),
	}
}

func (b *RedisBus) Publish(ctx context.Context, payload []byte) error {
	return b.client.Publish(ctx, eventsChannel, payload).Err()
}

// Run is a blocking loop that reads events and triggers the callback.
func (b *RedisBus) Run(ctx context.Context, onMessage func(payload []byte)) {
	ch := b.pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			onMessage([]byte(msg.Payload))
		case <-ctx.Done():
			return
		}
	}
}

func (b *RedisBus) Close() error {
	return b.pubsub.Close()
}
