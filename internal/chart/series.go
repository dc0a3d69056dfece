// Package chart turns stored price snapshots into the time-ordered series a
// line chart consumes, and resolves pointer positions back into prices.
package chart

import (
	"sort"
	"time"

	"github.com/solspark/marketboard/internal/models"
)

// Point is one chart sample: unix seconds and a percentage in [0,100].
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// LivePrice carries the market's current prices so the series ends at "now"
// even when the last snapshot is stale. Now also anchors the window filter,
// which keeps Build deterministic under test.
type LivePrice struct {
	YesPrice float64
	NoPrice  float64
	Now      time.Time
}

// Series holds one line per market side.
type Series struct {
	Up   []Point `json:"up"`
	Down []Point `json:"down"`
}

// Build filters history to the window, sorts it, and maps it to percentage
// series. Input order is untrusted. Prices outside [0,1] are clamped, never
// rejected: upstream rounding noise must not break the chart. A nil live with
// empty history yields empty series; a live price alone yields one point.
func Build(history []models.PriceSnapshot, window models.TimeWindow, live *LivePrice) Series {
	now := time.Now()
	if live != nil && !live.Now.IsZero() {
		now = live.Now
	}

	filtered := history
	if d, ok := window.Duration(); ok {
		start := now.Add(-d)
		filtered = make([]models.PriceSnapshot, 0, len(history))
		for _, snap := range history {
			if !snap.Timestamp.Before(start) {
				filtered = append(filtered, snap)
			}
		}
	} else {
		filtered = append([]models.PriceSnapshot(nil), history...)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	s := Series{
		Up:   make([]Point, 0, len(filtered)+1),
		Down: make([]Point, 0, len(filtered)+1),
	}
	for _, snap := range filtered {
		ts := snap.Timestamp.Unix()
		s.Up = append(s.Up, Point{Time: ts, Value: clampPct(snap.YesPrice)})
		s.Down = append(s.Down, Point{Time: ts, Value: clampPct(snap.NoPrice)})
	}

	if live != nil {
		nowTs := now.Unix()
		s.Up = upsertLast(s.Up, Point{Time: nowTs, Value: clampPct(live.YesPrice)})
		s.Down = upsertLast(s.Down, Point{Time: nowTs, Value: clampPct(live.NoPrice)})
	}

	return s
}

// upsertLast appends p, or replaces the final point when the timestamps
// collide so the series never carries duplicate times.
func upsertLast(points []Point, p Point) []Point {
	if n := len(points); n > 0 && points[n-1].Time == p.Time {
		points[n-1] = p
		return points
	}
	return append(points, p)
}

func clampPct(price float64) float64 {
	pct := price * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
