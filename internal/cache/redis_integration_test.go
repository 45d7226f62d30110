package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisBytesRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	redisC, err := tcRedis.RunContainer(ctx, testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp")))
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}

	store, err := NewRedis(ctx, fmt.Sprintf("%s:%s", host, port.Port()), "", 0)
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Set(ctx, "fetch:newsapi:electric vehicles", []byte(`[{"url":"https://a.com/x"}]`), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, ok, err := store.Get(ctx, "fetch:newsapi:electric vehicles")
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	if len(val) == 0 {
		t.Fatalf("empty value")
	}

	time.Sleep(1500 * time.Millisecond)
	if _, ok, _ := store.Get(ctx, "fetch:newsapi:electric vehicles"); ok {
		t.Fatalf("entry should have expired")
	}
}
