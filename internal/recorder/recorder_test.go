package recorder

import (
	"testing"
	"time"

	"github.com/solspark/marketboard/internal/feed"
	"github.com/solspark/marketboard/internal/models"
	"github.com/solspark/marketboard/internal/storage"
)

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func addMarket(t *testing.T, s *storage.Storage, id string, status string) {
	t.Helper()
	now := time.Now()
	m := &models.Market{
		ID:               id,
		Slug:             id,
		Question:         "Will X happen?",
		YesPrice:         0.6,
		NoPrice:          0.4,
		ResolutionStatus: status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.AddMarket(m); err != nil {
		t.Fatalf("AddMarket: %v", err)
	}
}

func TestRecordOnce(t *testing.T) {
	s := newTestStore(t)
	addMarket(t, s, "m-open", models.StatusOpen)
	addMarket(t, s, "m-done", models.StatusResolved)

	hub := feed.NewHub()
	var updates []feed.PriceUpdate
	unsub := hub.Subscribe("m-open", func(u feed.PriceUpdate) { updates = append(updates, u) })
	defer unsub()

	r := New(s, hub, time.Minute, 0)
	now := time.Now()
	n, err := r.RecordOnce(now)
	if err != nil {
		t.Fatalf("RecordOnce: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 snapshot (open markets only), got %d", n)
	}

	history, err := s.GetPriceHistory("m-open", models.WindowAll, now)
	if err != nil {
		t.Fatalf("GetPriceHistory: %v", err)
	}
	if len(history) != 1 || history[0].YesPrice != 0.6 {
		t.Errorf("snapshot not persisted: %+v", history)
	}

	if len(updates) != 1 || updates[0].YesPrice != 0.6 {
		t.Errorf("hub update not published: %+v", updates)
	}

	resolved, err := s.GetPriceHistory("m-done", models.WindowAll, now)
	if err != nil {
		t.Fatalf("GetPriceHistory: %v", err)
	}
	if len(resolved) != 0 {
		t.Error("resolved markets must not be snapshotted")
	}
}

func TestRecordOnce_NilHub(t *testing.T) {
	s := newTestStore(t)
	addMarket(t, s, "m-1", models.StatusOpen)

	r := New(s, nil, time.Minute, 0)
	if _, err := r.RecordOnce(time.Now()); err != nil {
		t.Fatalf("RecordOnce with nil hub: %v", err)
	}
}
