package activity

import (
	"encoding/json"
	"testing"

	common_models "charity-admin/internal/common/models"

	"go.uber.org/zap"
)

func TestHubPublishesToSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	hub.Publish(common_models.AuditLog{Module: "trips", RecordID: "t1", Action: common_models.AuditActionStatus})

	for _, ch := range []<-chan []byte{a, b} {
		var got common_models.AuditLog
		if err := json.Unmarshal(<-ch, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Module != "trips" || got.RecordID != "t1" {
			t.Errorf("unexpected event %+v", got)
		}
	}

	cancelA()
	cancelA()
	if hub.Clients() != 1 {
		t.Errorf("expected 1 client after cancel, got %d", hub.Clients())
	}
	if _, ok := <-a; ok {
		t.Error("cancelled channel must be closed")
	}
}

func TestHubDropsSlowListener(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < clientBuffer+1; i++ {
		hub.Publish(common_models.AuditLog{Module: "payments"})
	}

	if hub.Clients() != 0 {
		t.Fatalf("slow listener should have been dropped")
	}
	n := 0
	for range ch {
		n++
	}
	if n != clientBuffer {
		t.Errorf("expected %d buffered events before close, got %d", clientBuffer, n)
	}
}
