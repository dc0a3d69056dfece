package storage

import (
	"fmt"
	"time"

	"github.com/solspark/marketboard/internal/models"
)

// AddSnapshot appends one price observation to a market's history.
func (s *Storage) AddSnapshot(snap *models.PriceSnapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO price_history (id, market_id, yes_price, no_price, volume_24h, timestamp)
		VALUES (?,?,?,?,?,?)`,
		snap.ID, snap.MarketID, snap.YesPrice, snap.NoPrice, snap.Volume24h,
		snap.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// GetPriceHistory returns a market's snapshots inside the window, oldest
// first. The window's lower bound is inclusive and anchored at now.
func (s *Storage) GetPriceHistory(marketID string, window models.TimeWindow, now time.Time) ([]models.PriceSnapshot, error) {
	query := `
		SELECT id, market_id, yes_price, no_price, volume_24h, timestamp
		FROM price_history WHERE market_id = ?`
	args := []any{marketID}

	if d, ok := window.Duration(); ok {
		query += ` AND timestamp >= ?`
		args = append(args, now.Add(-d).UnixNano())
	}
	query += ` ORDER BY timestamp ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	history := []models.PriceSnapshot{}
	for rows.Next() {
		var snap models.PriceSnapshot
		var tsNano int64
		if err := rows.Scan(&snap.ID, &snap.MarketID, &snap.YesPrice, &snap.NoPrice,
			&snap.Volume24h, &tsNano); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.Timestamp = time.Unix(0, tsNano)
		history = append(history, snap)
	}
	return history, rows.Err()
}

// PruneHistory deletes snapshots older than keep, per market. Keeps the
// database bounded under the recorder's cadence.
func (s *Storage) PruneHistory(keep time.Duration) error {
	cutoff := time.Now().Add(-keep).UnixNano()
	if _, err := s.db.Exec(`DELETE FROM price_history WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}
