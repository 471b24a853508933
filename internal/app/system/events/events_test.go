package events_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/dalemusser/mohallahub/internal/app/system/events"
)

func TestEncode_StampsTime(t *testing.T) {
	b, err := events.Encode(events.Event{Type: events.NeighborhoodCreated, NeighborhoodID: "n1"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	var got events.Event
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.OccurredAt.IsZero() {
		t.Error("expected OccurredAt to be set")
	}
	if got.Type != events.NeighborhoodCreated || got.NeighborhoodID != "n1" {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestRecorder(t *testing.T) {
	var r events.Recorder
	ctx := context.Background()
	_ = r.Publish(ctx, events.Event{Type: events.UserPhoneVerified})
	_ = r.Publish(ctx, events.Event{Type: events.UserAddressVerified})

	got := r.Types()
	if len(got) != 2 || got[0] != events.UserPhoneVerified || got[1] != events.UserAddressVerified {
		t.Errorf("unexpected types %v", got)
	}
}

// TestAMQPPublisher runs against a real broker when MOHALLAHUB_TEST_AMQP_URL
// is set.
func TestAMQPPublisher(t *testing.T) {
	url := os.Getenv("MOHALLAHUB_TEST_AMQP_URL")
	if url == "" {
		t.Skip("MOHALLAHUB_TEST_AMQP_URL not set")
	}
	p, err := events.NewAMQPPublisher(url, "mohallahub.events.test")
	if err != nil {
		t.Skipf("rabbitmq not reachable: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx, events.Event{Type: events.UserPhoneVerified, UserID: "u1"}); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
}
