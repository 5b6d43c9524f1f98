package gate

import (
	"image"
	"sync/atomic"
	"time"

	"github.com/livefeedai/livefeed/internal/logger"
	"github.com/rs/zerolog"
)

// State classifies the outcome of one frame evaluation.
type State int

const (
	// StateThrottled means the frame arrived before the debounce interval
	// elapsed and was dropped without any further work.
	StateThrottled State = iota
	// StateColdStart means no retained frame existed; the frame was emitted
	// unconditionally.
	StateColdStart
	// StateUnchanged means the difference score did not exceed the change
	// threshold; the frame was retained but not emitted.
	StateUnchanged
	// StateChanged means the scene changed enough to emit the frame.
	StateChanged
)

func (s State) String() string {
	switch s {
	case StateThrottled:
		return "throttled"
	case StateColdStart:
		return "cold_start"
	case StateUnchanged:
		return "unchanged"
	case StateChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Config holds the gate tuning constants.
type Config struct {
	// ChangeThreshold is the minimum difference score (strictly exceeded)
	// required to treat two frames as different.
	ChangeThreshold float64
	// MinInterval and MaxInterval bound the adaptive debounce interval.
	MinInterval time.Duration
	MaxInterval time.Duration
	// IntervalMultiplier scales the average processing time into an interval.
	IntervalMultiplier float64
	// HistorySize is the debounce controller's sliding-window length.
	HistorySize int
	// Points overrides the sample-point layout; empty means the default set.
	Points []SamplePoint
}

// DefaultConfig returns the tuning the debounce loop was calibrated against:
// threshold 0.035, interval clamped to [200ms, 1s], 1.2x multiplier over a
// 10-entry latency window.
func DefaultConfig() Config {
	return Config{
		ChangeThreshold:    0.035,
		MinInterval:        200 * time.Millisecond,
		MaxInterval:        time.Second,
		IntervalMultiplier: 1.2,
		HistorySize:        10,
	}
}

// EmitFunc receives frames that passed the gate. It is called synchronously
// from the capture goroutine and must return promptly; anything expensive
// belongs behind a mailbox or channel.
type EmitFunc func(frame *image.RGBA, at time.Time)

// Stats is a point-in-time snapshot of the gate's counters. Reads from other
// goroutines see a possibly stale but consistent view.
type Stats struct {
	Throttled  uint64        `json:"throttled"`
	ColdStarts uint64        `json:"cold_starts"`
	Unchanged  uint64        `json:"unchanged"`
	Changed    uint64        `json:"changed"`
	Interval   time.Duration `json:"interval_ns"`
}

// Gate decides, frame by frame, whether the scene changed enough to be worth
// re-analyzing downstream. It retains the last evaluated frame (emitted or
// not) and throttles evaluations with a latency-adaptive debounce interval.
//
// Process must be called from a single goroutine, in capture order. Only the
// counters may be read concurrently, via Stats.
type Gate struct {
	cfg       Config
	estimator Estimator
	debounce  *DebounceController
	emit      EmitFunc
	now       func() time.Time
	log       *zerolog.Logger

	retained     *image.RGBA
	lastAccepted time.Time
	accepted     bool
	stopped      bool

	throttled  atomic.Uint64
	coldStarts atomic.Uint64
	unchanged  atomic.Uint64
	changed    atomic.Uint64
	intervalNS atomic.Int64
}

// New returns a gate with the given tuning and emission callback.
func New(cfg Config, emit EmitFunc) *Gate {
	if cfg.IntervalMultiplier == 0 {
		cfg.IntervalMultiplier = 1
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 10
	}
	g := &Gate{
		cfg:       cfg,
		estimator: NewPointEstimator(cfg.Points),
		debounce:  NewDebounceController(cfg.MinInterval, cfg.MaxInterval, cfg.IntervalMultiplier, cfg.HistorySize),
		emit:      emit,
		now:       time.Now,
		log:       logger.WithComponent("gate"),
	}
	g.intervalNS.Store(int64(g.debounce.Interval()))
	return g
}

// Process evaluates one captured frame and returns the resulting state.
// A nil frame is skipped, equivalent to a throttled one.
func (g *Gate) Process(frame *image.RGBA) State {
	if frame == nil || g.stopped {
		g.throttled.Add(1)
		return StateThrottled
	}

	t := g.now()
	if g.accepted && t.Sub(g.lastAccepted) < g.debounce.Interval() {
		g.throttled.Add(1)
		return StateThrottled
	}

	if g.retained == nil {
		g.retained = frame
		g.lastAccepted = t
		g.accepted = true
		g.coldStarts.Add(1)
		g.log.Debug().Msg("Cold start, emitting first frame")
		g.emit(frame, t)
		return StateColdStart
	}

	start := g.now()
	score := g.estimator.Estimate(g.retained, frame)
	elapsed := g.now().Sub(start)

	// Change detection always compares against the immediately preceding
	// evaluated frame, not the last emitted one.
	g.retained = frame

	if score > g.cfg.ChangeThreshold {
		g.lastAccepted = t
		g.accepted = true
		g.debounce.Record(elapsed)
		g.intervalNS.Store(int64(g.debounce.Interval()))
		g.changed.Add(1)
		g.log.Debug().
			Float64("score", score).
			Dur("processing", elapsed).
			Dur("interval", g.debounce.Interval()).
			Msg("Scene changed, emitting frame")
		g.emit(frame, t)
		return StateChanged
	}

	g.unchanged.Add(1)
	return StateUnchanged
}

// Stop clears the retained frame and marks the session stopped. A subsequent
// Start behaves as a fresh cold start. Safe to call at any time from the
// capture goroutine; an in-flight downstream emission is not cancelled.
func (g *Gate) Stop() {
	g.retained = nil
	g.accepted = false
	g.stopped = true
	g.log.Info().Msg("Gate stopped")
}

// Start resumes processing after a Stop.
func (g *Gate) Start() {
	g.stopped = false
}

// Stats returns a snapshot of the gate's counters and current interval.
func (g *Gate) Stats() Stats {
	return Stats{
		Throttled:  g.throttled.Load(),
		ColdStarts: g.coldStarts.Load(),
		Unchanged:  g.unchanged.Load(),
		Changed:    g.changed.Load(),
		Interval:   time.Duration(g.intervalNS.Load()),
	}
}
