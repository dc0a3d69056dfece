// Package recorder periodically persists current market prices into the
// price history and feeds them to live subscribers.
package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/solspark/marketboard/internal/feed"
	"github.com/solspark/marketboard/internal/logger"
	"github.com/solspark/marketboard/internal/models"
	"github.com/solspark/marketboard/internal/storage"
)

// Recorder snapshots open markets on a fixed cadence.
type Recorder struct {
	store     *storage.Storage
	hub       *feed.Hub
	interval  time.Duration
	retention time.Duration
}

// New creates a Recorder. hub may be nil when live streaming is disabled.
func New(store *storage.Storage, hub *feed.Hub, interval, retention time.Duration) *Recorder {
	return &Recorder{store: store, hub: hub, interval: interval, retention: retention}
}

// Run records snapshots until ctx is cancelled. One cycle runs immediately.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.cycle()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Recorder stopped")
			return
		case <-ticker.C:
			r.cycle()
		}
	}
}

func (r *Recorder) cycle() {
	n, err := r.RecordOnce(time.Now())
	if err != nil {
		logger.Error("Snapshot cycle failed: %v", err)
		return
	}
	logger.Debug("Recorded %d market snapshots", n)

	if r.retention > 0 {
		if err := r.store.PruneHistory(r.retention); err != nil {
			logger.Warn("Failed to prune price history: %v", err)
		}
	}
}

// RecordOnce snapshots every open market at now and publishes the prices to
// the hub. Returns how many snapshots were written.
func (r *Recorder) RecordOnce(now time.Time) (int, error) {
	markets, err := r.store.ListMarkets(storage.MarketFilter{Status: "open"})
	if err != nil {
		return 0, err
	}

	recorded := 0
	for _, m := range markets {
		snap := &models.PriceSnapshot{
			ID:        uuid.New().String(),
			MarketID:  m.ID,
			YesPrice:  m.YesPrice,
			NoPrice:   m.NoPrice,
			Volume24h: m.Volume,
			Timestamp: now,
		}
		if err := r.store.AddSnapshot(snap); err != nil {
			logger.Warn("Failed to record snapshot for %s: %v", m.ID, err)
			continue
		}
		recorded++

		if r.hub != nil {
			r.hub.Publish(feed.PriceUpdate{
				MarketID:  m.ID,
				YesPrice:  m.YesPrice,
				NoPrice:   m.NoPrice,
				Timestamp: now,
			})
		}
	}
	return recorded, nil
}
