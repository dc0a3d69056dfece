package chart

// HoverTolerance bounds nearest-neighbor hover lookups, in seconds. A sparse
// series must not surface a sample an hour away from the pointer.
const HoverTolerance = 3600

// ExactValues are the percentages the charting widget reports when the
// pointer sits exactly on a sample. nil means the widget had no exact match.
type ExactValues struct {
	Up   float64
	Down float64
}

// HoverPrices is the tooltip readout: probabilities in [0,1] plus a per-side
// found flag, so a genuine 0% price is distinguishable from "no sample near
// the pointer".
type HoverPrices struct {
	YesPrice float64 `json:"yes_price"`
	NoPrice  float64 `json:"no_price"`
	YesFound bool    `json:"yes_found"`
	NoFound  bool    `json:"no_found"`
}

// Resolve maps a hover time to prices. Exact widget values win; otherwise
// each side falls back to its nearest sample within HoverTolerance seconds.
// Returns nil when neither side resolves. Pointer-leave is the caller's
// signal, not inferred here: the caller clears the tooltip without calling
// Resolve at all.
func Resolve(hoverTime int64, exact *ExactValues, up, down []Point) *HoverPrices {
	if exact != nil {
		return &HoverPrices{
			YesPrice: exact.Up / 100,
			NoPrice:  exact.Down / 100,
			YesFound: true,
			NoFound:  true,
		}
	}

	yes, yesFound := nearest(up, hoverTime)
	no, noFound := nearest(down, hoverTime)
	if !yesFound && !noFound {
		return nil
	}
	return &HoverPrices{
		YesPrice: yes / 100,
		NoPrice:  no / 100,
		YesFound: yesFound,
		NoFound:  noFound,
	}
}

// nearest returns the value of the sample closest to t, rejecting matches
// farther than HoverTolerance.
func nearest(points []Point, t int64) (float64, bool) {
	best := int64(-1)
	var value float64
	for _, p := range points {
		d := p.Time - t
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
			value = p.Value
		}
	}
	if best < 0 || best >= HoverTolerance {
		return 0, false
	}
	return value, true
}
