package gate

import "time"

// DebounceController derives the minimum time between frame analyses from the
// observed cost of recent analyses: a closed feedback loop that keeps the gate
// analyzing as often as it can afford to, bounded so it stays responsive
// without thrashing.
//
// Not safe for concurrent use; the gate is the only writer.
type DebounceController struct {
	min        time.Duration
	max        time.Duration
	multiplier float64
	window     int
	history    []time.Duration
}

// NewDebounceController returns a controller with the given bounds,
// multiplier and sliding-window size.
func NewDebounceController(min, max time.Duration, multiplier float64, window int) *DebounceController {
	return &DebounceController{
		min:        min,
		max:        max,
		multiplier: multiplier,
		window:     window,
		history:    make([]time.Duration, 0, window),
	}
}

// Record appends one measured processing duration, evicting the oldest entry
// once the window is full. Strict FIFO: this is a sliding average, not a
// running one.
func (d *DebounceController) Record(elapsed time.Duration) {
	d.history = append(d.history, elapsed)
	if len(d.history) > d.window {
		d.history = d.history[1:]
	}
}

// Interval returns the current debounce interval:
// clamp(avg(history) * multiplier, min, max). An empty history clamps up to
// the minimum.
func (d *DebounceController) Interval() time.Duration {
	var avg time.Duration
	if len(d.history) > 0 {
		var sum time.Duration
		for _, h := range d.history {
			sum += h
		}
		avg = sum / time.Duration(len(d.history))
	}

	interval := time.Duration(float64(avg) * d.multiplier)
	if interval < d.min {
		return d.min
	}
	if interval > d.max {
		return d.max
	}
	return interval
}

// Reset clears the recorded history.
func (d *DebounceController) Reset() {
	d.history = d.history[:0]
}
