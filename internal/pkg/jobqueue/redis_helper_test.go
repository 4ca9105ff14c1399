package jobqueue

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PixelBlog/internal/pkg/env"
)

// jobQueueTestDB keeps queue tests away from the cache and limiter databases
const jobQueueTestDB = 14

// testRedisClient connects to CACHE_HOST (or localhost) on the test database
// and flushes it before and after the test. The test is skipped when no
// Redis answers.
func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	var lastErr error
	for _, host := range []string{env.GetEnv("CACHE_HOST", ""), "localhost"} {
		if host == "" {
			continue
		}
		client := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(host, env.GetEnv("CACHE_PORT", "6379")),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
			DB:       jobQueueTestDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := client.Ping(ctx).Err()
		if err == nil {
			err = client.FlushDB(ctx).Err()
		}
		cancel()
		if err != nil {
			lastErr = err
			_ = client.Close()
			continue
		}

		t.Cleanup(func() {
			_ = client.FlushDB(context.Background()).Err()
			_ = client.Close()
		})
		return client
	}

	t.Skipf("Skipping Redis-dependent test: no reachable Redis (%v)", lastErr)
	return nil
}

// silentRedis accepts connections and never answers, like a hung server
func silentRedis(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			_ = conn.Close()
		}
	})
	return ln.Addr().String()
}

func waitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}
