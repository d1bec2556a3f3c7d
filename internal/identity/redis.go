package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/internal/notify"
)

// Redis persists the cart id at a fixed key and broadcasts each write on a
// pub/sub channel, so every process attached to the same Redis observes the
// same sequence of ids. Concurrent writers race; the last write wins.
type Redis struct {
	client  *redis.Client
	key     string
	channel string
	logger  zerolog.Logger

	pubsub    *redis.PubSub
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	current string
	subs    *notify.Broadcaster[string]
}

var _ Store = (*Redis)(nil)

// NewRedis attaches to the id stored at key. The change channel is joined
// before the initial read so no write between the two is missed.
func NewRedis(ctx context.Context, client *redis.Client, key string, logger zerolog.Logger) (*Redis, error) {
	if key == "" {
		return nil, errors.New("identity: storage key required")
	}
	r := &Redis{
		client:  client,
		key:     key,
		channel: key + ":changes",
		logger:  logger.With().Str("component", "identity").Str("key", key).Logger(),
		done:    make(chan struct{}),
		subs:    notify.New[string](),
	}

	r.pubsub = client.Subscribe(ctx, r.channel)
	if _, err := r.pubsub.Receive(ctx); err != nil {
		_ = r.pubsub.Close()
		return nil, fmt.Errorf("identity: subscribe %s: %w", r.channel, err)
	}

	current, err := r.Get(ctx)
	if err != nil {
		_ = r.pubsub.Close()
		return nil, err
	}
	r.current = current

	go r.listen()
	return r, nil
}

func (r *Redis) Get(ctx context.Context) (string, error) {
	id, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("identity: get %s: %w", r.key, err)
	}
	return id, nil
}

// Set writes id and announces it in one transaction. An empty id clears the
// stored value. Local subscribers learn about the write through the same
// channel as remote ones, which keeps a single order for everybody.
func (r *Redis) Set(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if id == "" {
			pipe.Del(ctx, r.key)
		} else {
			pipe.Set(ctx, r.key, id, 0)
		}
		pipe.Publish(ctx, r.channel, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("identity: set %s: %w", r.key, err)
	}
	r.logger.Debug().Str("cart_id", id).Msg("cart id persisted")
	return nil
}

func (r *Redis) Subscribe(fn func(id string)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.current
	return r.subs.Subscribe(fn, &current)
}

func (r *Redis) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.subs.Close()
		r.closeErr = r.pubsub.Close()
	})
	return r.closeErr
}

func (r *Redis) listen() {
	ch := r.pubsub.Channel()
	for {
		select {
		case <-r.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.mu.Lock()
			if msg.Payload != r.current {
				r.current = msg.Payload
				r.subs.Publish(msg.Payload)
			}
			r.mu.Unlock()
		}
	}
}
