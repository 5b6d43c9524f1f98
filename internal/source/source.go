package source

import (
	"image"
	"time"
)

// FrameFunc is invoked once per captured frame, strictly one at a time and in
// capture order. The timestamp is the system clock at delivery. Callbacks
// must return promptly; sources do not buffer frames for slow consumers.
type FrameFunc func(frame *image.RGBA, at time.Time)

// Source defines the interface for frame capture backends
type Source interface {
	// Start begins capture and delivers frames to onFrame until Stop
	Start(onFrame FrameFunc) error

	// Stop releases resources and stops frame delivery
	Stop() error

	// Name returns a human-readable name for this source
	Name() string

	// IsAvailable checks if this source can be used in the current environment
	IsAvailable() bool
}
