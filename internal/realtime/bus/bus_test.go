package bus

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/realtime"
)

func TestMemoryBusDeliversInOrder(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	if err := b.Subscribe(ctx, func(ev realtime.ArtefactEvent) { got = append(got, ev.Status) }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	for _, s := range []string{"queued", "processing", "done"} {
		if err := b.Publish(context.Background(), realtime.ArtefactEvent{Status: s}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if strings.Join(got, ",") != "queued,processing,done" {
		t.Fatalf("order: got=%v", got)
	}
}

func TestMemoryBusUnsubscribesOnCancel(t *testing.T) {
	b := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	if err := b.Subscribe(ctx, func(realtime.ArtefactEvent) { calls++ }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		_ = b.Publish(context.Background(), realtime.ArtefactEvent{})
		mb := b.(*memoryBus)
		mb.mu.RLock()
		n := len(mb.handlers)
		mb.mu.RUnlock()
		if n == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	before := calls
	_ = b.Publish(context.Background(), realtime.ArtefactEvent{})
	if calls != before {
		t.Fatalf("handler still called after cancel")
	}

	_ = b.Close()
	if err := b.Publish(context.Background(), realtime.ArtefactEvent{}); err == nil {
		t.Fatalf("expected error publishing on closed bus")
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis bus tests")
	}
	b, err := NewRedisBus(logger.Nop(), RedisConfig{Addr: addr, Channel: "md-test-" + uuid.NewString()})
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	defer b.Close()
	if RedisClient(b) == nil {
		t.Fatalf("RedisClient should expose the connection")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got := make(chan realtime.ArtefactEvent, 1)
	if err := b.Subscribe(ctx, func(ev realtime.ArtefactEvent) { got <- ev }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	want := realtime.ArtefactEvent{ArtefactID: uuid.New(), Status: "done", Version: 3}
	if err := b.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case ev := <-got:
		if ev.ArtefactID != want.ArtefactID || ev.Version != 3 {
			t.Fatalf("event: want=%+v got=%+v", want, ev)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for redis event")
	}
}
