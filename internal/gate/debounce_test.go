package gate

import (
	"testing"
	"time"
)

// closeTo tolerates the float multiply in Interval; a nanosecond of rounding
// is irrelevant at these scales.
func closeTo(got, want time.Duration) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Microsecond
}

func TestInterval_EmptyHistoryClampsToMin(t *testing.T) {
	d := NewDebounceController(200*time.Millisecond, time.Second, 1.2, 10)

	if got := d.Interval(); got != 200*time.Millisecond {
		t.Errorf("empty history interval = %v, want 200ms", got)
	}
}

func TestInterval_SteadyLatency(t *testing.T) {
	d := NewDebounceController(200*time.Millisecond, time.Second, 1.2, 10)

	for i := 0; i < 10; i++ {
		d.Record(500 * time.Millisecond)
	}

	if got := d.Interval(); !closeTo(got, 600*time.Millisecond) {
		t.Errorf("interval = %v, want ~600ms", got)
	}
}

func TestInterval_SlidingWindowEvictsOldest(t *testing.T) {
	d := NewDebounceController(200*time.Millisecond, time.Second, 1.2, 10)

	for i := 0; i < 10; i++ {
		d.Record(500 * time.Millisecond)
	}
	// The 11th sample evicts one 500ms entry: avg becomes
	// (9*500ms + 100ms)/10 = 460ms, interval 552ms.
	d.Record(100 * time.Millisecond)

	got := d.Interval()
	if !closeTo(got, 552*time.Millisecond) {
		t.Errorf("interval = %v, want ~552ms", got)
	}
	if got >= 600*time.Millisecond {
		t.Errorf("interval %v did not recompute downward", got)
	}
}

func TestInterval_NeverLeavesBounds(t *testing.T) {
	d := NewDebounceController(200*time.Millisecond, time.Second, 1.2, 10)

	sequences := [][]time.Duration{
		{0, 0, 0},
		{time.Millisecond, 2 * time.Millisecond},
		{10 * time.Second, time.Minute},
		{time.Nanosecond, time.Hour, 0, 500 * time.Millisecond},
	}

	for _, seq := range sequences {
		d.Reset()
		for _, s := range seq {
			d.Record(s)
			iv := d.Interval()
			if iv < 200*time.Millisecond || iv > time.Second {
				t.Errorf("interval %v left [200ms, 1s] after recording %v", iv, s)
			}
		}
	}
}

func TestInterval_ClampsExactlyAtBounds(t *testing.T) {
	d := NewDebounceController(200*time.Millisecond, time.Second, 1.2, 10)

	d.Record(time.Millisecond)
	if got := d.Interval(); got != 200*time.Millisecond {
		t.Errorf("fast samples: interval = %v, want exactly 200ms", got)
	}

	d.Reset()
	d.Record(time.Minute)
	if got := d.Interval(); got != time.Second {
		t.Errorf("slow samples: interval = %v, want exactly 1s", got)
	}
}
