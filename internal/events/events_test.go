package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestMemoryBus_DeliversToSubscribersOfTheGeneration(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	a, stopA := bus.Subscribe(ctx, "gen-1")
	defer stopA()
	other, stopOther := bus.Subscribe(ctx, "gen-2")
	defer stopOther()

	require.NoError(t, bus.Publish(ctx, Event{Type: TypeStatus, GenerationID: "gen-1", Status: "GENERATING"}))

	ev := receive(t, a)
	assert.Equal(t, "GENERATING", ev.Status)
	assert.False(t, ev.Time.IsZero())

	select {
	case ev := <-other:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestMemoryBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewMemoryBus()
	ch, stop := bus.Subscribe(context.Background(), "gen-1")

	stop()
	stop()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, bus.subscribers("gen-1"))
}

func TestMemoryBus_ContextEndsSubscription(t *testing.T) {
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := bus.Subscribe(ctx, "gen-1")

	cancel()
	assert.Eventually(t, func() bool { return bus.subscribers("gen-1") == 0 }, time.Second, 10*time.Millisecond)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestMemoryBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewMemoryBus()
	ch, stop := bus.Subscribe(context.Background(), "gen-1")
	defer stop()

	for i := 0; i < subscriberBuffer*2; i++ {
		require.NoError(t, bus.Publish(context.Background(), Event{GenerationID: "gen-1", Message: fmt.Sprint(i)}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestMemoryBus_Close(t *testing.T) {
	bus := NewMemoryBus()
	ch, _ := bus.Subscribe(context.Background(), "gen-1")
	require.NoError(t, bus.Close())

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := bus.Subscribe(context.Background(), "gen-1")
	_, ok = <-late
	assert.False(t, ok)
}

func TestRedisBus_PublishSubscribe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, container)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	bus := NewRedisBus(redis.NewClient(&redis.Options{Addr: endpoint}))
	defer bus.Close()

	ch, stop := bus.Subscribe(ctx, "gen-1")
	defer stop()

	require.NoError(t, bus.Publish(ctx, Event{Type: TypeFailed, GenerationID: "gen-1", Status: "FAILED", Message: "cancelled"}))

	ev := receive(t, ch)
	assert.Equal(t, TypeFailed, ev.Type)
	assert.Equal(t, "cancelled", ev.Message)
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "go4it:generation:abc", Channel("abc"))
}
