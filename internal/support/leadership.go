package support

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultLeadershipTTL = 45 * time.Second
	leadershipRetryDelay = time.Second
	leadershipOpTimeout  = 5 * time.Second
)

var (
	leaderCounter atomic.Uint64

	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)
)

// RunWithLeader holds a Redis leadership lock under key and invokes run while
// the lock is held. The context handed to run is cancelled when the lock can
// no longer be renewed. When run returns or leadership is lost, the lock is
// released and re-acquisition is retried until ctx is done.
func RunWithLeader(ctx context.Context, key string, ttl time.Duration, run func(context.Context)) error {
	if run == nil {
		return errors.New("support: leader run function cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ttl <= 0 {
		ttl = DefaultLeadershipTTL
	}

	client, err := GetRedisClient()
	if err != nil {
		return fmt.Errorf("support: leader lock redis client: %w", err)
	}

	for ctx.Err() == nil {
		value := leaderValue()

		ok, err := client.SetNX(ctx, key, value, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warn("leader lock: setnx failed", "key", key, "error", err)
		}

		if ok {
			leaderCtx, cancel := context.WithCancel(ctx)
			stopRenew := make(chan struct{})

			go renewLoop(leaderCtx, cancel, stopRenew, client, key, value, ttl)

			log.Debug("leader lock: acquired", "key", key)
			run(leaderCtx)
			close(stopRenew)
			cancel()
			releaseLeaderLock(client, key, value)
			log.Debug("leader lock: released", "key", key)
		}

		select {
		case <-ctx.Done():
		case <-time.After(leadershipRetryDelay):
		}
	}

	return ctx.Err()
}

func renewLoop(ctx context.Context, cancel context.CancelFunc, stop <-chan struct{}, client *redis.Client, key, value string, ttl time.Duration) {
	interval := ttl / 3
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := renewLeaderLock(client, key, value, ttl); err != nil {
				log.Warn("leader lock: renewal failed", "key", key, "error", err)
				cancel()
				return
			}
		}
	}
}

func renewLeaderLock(client *redis.Client, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), leadershipOpTimeout)
	defer cancel()

	res, err := renewScript.Run(ctx, client, []string{key}, value, ttl.Milliseconds()).Result()
	if err != nil {
		return err
	}
	if updated, ok := res.(int64); ok && updated == 0 {
		return errors.New("lock lost")
	}
	return nil
}

func releaseLeaderLock(client *redis.Client, key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), leadershipOpTimeout)
	defer cancel()

	if _, err := releaseScript.Run(ctx, client, []string{key}, value).Result(); err != nil && !errors.Is(err, redis.Nil) {
		log.Warn("leader lock: release failed", "key", key, "error", err)
	}
}

func leaderValue() string {
	host, _ := os.Hostname()
	return fmt.Sprintf("%s-%d-%d-%d", host, os.Getpid(), time.Now().UnixNano(), leaderCounter.Add(1))
}
