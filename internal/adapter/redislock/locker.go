// Package redislock implements port.Locker on Redis so that several replicas
// of the service serialize lifecycle operations on the same campaign.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mailcadence/internal/core/port"
)

const keyPrefix = "mailcadence:lock:"

// release deletes the key only while it still holds our token, so a lock
// that expired and was taken by someone else is left alone.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// extend pushes the expiry of a key forward while it still holds our token.
var extend = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// Locker implements port.Locker with SET NX PX and a token-checked release.
// A held lock is renewed every third of its TTL until it is released, so the
// TTL only bounds how long a crashed holder blocks others.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	logger *slog.Logger
}

var _ port.Locker = (*Locker)(nil)

// Option configures a Locker.
type Option func(*Locker)

// WithTTL sets how long a lock outlives a holder that never released it.
func WithTTL(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.ttl = d
		}
	}
}

// WithWait bounds how long Lock polls for a busy key.
func WithWait(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.wait = d
		}
	}
}

// WithRetryInterval sets the polling interval.
func WithRetryInterval(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.retry = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Locker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(client *redis.Client, opts ...Option) *Locker {
	l := &Locker{
		client: client,
		ttl:    2 * time.Minute,
		wait:   10 * time.Second,
		retry:  50 * time.Millisecond,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Lock implements port.Locker. It polls until the key is free, the wait
// bound elapses or ctx ends; the latter two yield port.ErrLockTimeout.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	redisKey := keyPrefix + key
	token := uuid.NewString()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		switch {
		case err == nil && ok:
			return l.hold(redisKey, token), nil
		case err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, port.ErrLockTimeout)
		case <-ticker.C:
		}
	}
}

// hold starts renewing the lease and returns the release func. Release may
// be called more than once and from any goroutine.
func (l *Locker) hold(redisKey, token string) func() {
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go l.renew(redisKey, token, stop, stopped)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-stopped
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := release.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("release lock", slog.String("key", redisKey), slog.String("error", err.Error()))
			}
		})
	}
}

func (l *Locker) renew(redisKey, token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	interval := l.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := extend.Run(ctx, l.client, []string{redisKey}, token, l.ttl.Milliseconds()).Int64()
		cancel()
		switch {
		case err != nil:
			l.logger.Warn("renew lock", slog.String("key", redisKey), slog.String("error", err.Error()))
		case n == 0:
			l.logger.Error("lock lost before release", slog.String("key", redisKey))
			return
		}
	}
}
