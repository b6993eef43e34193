package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestMemoryBrokerPublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "staff-room")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	if err := b.Publish(ctx, "staff-room", []byte("hello")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-sub.Messages():
		if msg.Channel != "staff-room" {
			t.Errorf("channel = %q, want staff-room", msg.Channel)
		}
		if string(msg.Payload) != "hello" {
			t.Errorf("payload = %q, want hello", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemoryBrokerChannelIsolation(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	staff, _ := b.Subscribe(ctx, "staff-room")
	defer staff.Close()
	owner, _ := b.Subscribe(ctx, "gymowner-room")
	defer owner.Close()

	b.Publish(ctx, "gymowner-room", []byte("owners only"))

	select {
	case <-staff.Messages():
		t.Fatal("staff subscription received a message from another channel")
	case <-time.After(50 * time.Millisecond):
	}

	select {
	case msg := <-owner.Messages():
		if string(msg.Payload) != "owners only" {
			t.Errorf("payload = %q", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("owner subscription missed its message")
	}
}

func TestMemoryBrokerCloseStopsDelivery(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	sub, _ := b.Subscribe(ctx, "staff-room")
	if err := sub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	// Publishing after close must not panic on the closed channel
	if err := b.Publish(ctx, "staff-room", []byte("late")); err != nil {
		t.Fatalf("Publish() after close error = %v", err)
	}

	if _, ok := <-sub.Messages(); ok {
		t.Error("closed subscription still delivering")
	}
}

func TestRoleChannel(t *testing.T) {
	if got := RoleChannel("gymowner"); got != "gymowner-room" {
		t.Errorf("RoleChannel(gymowner) = %q", got)
	}
	if got := RoleChannel("staff"); got != "staff-room" {
		t.Errorf("RoleChannel(staff) = %q", got)
	}
}

func TestPublishToRolesEventShape(t *testing.T) {
	b := NewMemoryBroker()
	SetBroker(b)
	ctx := context.Background()

	staff, _ := b.Subscribe(ctx, "staff-room")
	defer staff.Close()
	owner, _ := b.Subscribe(ctx, "gymowner-room")
	defer owner.Close()

	data := map[string]string{"memberId": "MEMTEST01"}
	if err := PublishToRoles(ctx, []string{"gymowner", "staff"}, "check-in", data); err != nil {
		t.Fatalf("PublishToRoles() error = %v", err)
	}

	for name, sub := range map[string]Subscription{"staff": staff, "gymowner": owner} {
		select {
		case msg := <-sub.Messages():
			var ev Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				t.Fatalf("%s: bad event payload: %v", name, err)
			}
			if ev.Event != "check-in" {
				t.Errorf("%s: event = %q, want check-in", name, ev.Event)
			}
			if ev.Timestamp.IsZero() {
				t.Errorf("%s: event timestamp not set", name)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s room did not receive the event", name)
		}
	}
}
