package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// eventChannel is the pub/sub channel carrying token-key events
// between portal instances.  One instance's logout is observed by
// every other instance holding a manager for the same session.
const eventChannel = "session.events"

// RedisKV implements the KV and Watcher ports on a shared Redis.
// Keys carry a TTL slightly beyond the session timeout so abandoned
// sessions disappear without a sweep of their own; the authoritative
// expiry check remains Store.IsValid.
type RedisKV struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisKV wraps an existing Redis client.  ttl bounds the
// lifetime of every session key and should exceed the session
// timeout by a comfortable margin.
func NewRedisKV(rdb *redis.Client, ttl time.Duration) *RedisKV {
	return &RedisKV{rdb: rdb, ttl: ttl}
}

// Get returns the stored value, mapping redis.Nil to ErrKeyNotFound.
func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set stores the value with the configured TTL and publishes a
// rewrite event for token keys.
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return err
	}
	r.publishToken(ctx, key, false)
	return nil
}

// Del removes the keys and publishes a removal event for each token
// key among them.
func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	for _, k := range keys {
		r.publishToken(ctx, k, true)
	}
	return nil
}

// Watch subscribes to the session event channel.  The returned
// channel is closed when ctx is cancelled.  Malformed payloads are
// logged and skipped.
func (r *RedisKV) Watch(ctx context.Context) (<-chan Event, error) {
	sub := r.rdb.Subscribe(ctx, eventChannel)
	// Force the subscription before returning so callers do not miss
	// events published immediately after Watch.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan Event, 8)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("session: bad event payload: %v", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// publishToken emits an event when key is a token key.  Publish
// failures are logged only: the lazy validity check on next access
// covers peers that missed the notification.
func (r *RedisKV) publishToken(ctx context.Context, key string, removed bool) {
	sid, field, ok := splitSessionKey(key)
	if !ok || field != fieldToken {
		return
	}
	body, err := json.Marshal(Event{SessionID: sid, Removed: removed})
	if err != nil {
		return
	}
	if err := r.rdb.Publish(ctx, eventChannel, body).Err(); err != nil {
		log.Printf("session: publish event failed: %v", err)
	}
}
