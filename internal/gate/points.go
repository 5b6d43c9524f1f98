package gate

import "image"

// SamplePoint is a normalized coordinate in [0,1]x[0,1], mapped into each
// frame's own pixel extent before sampling.
type SamplePoint struct {
	X float64
	Y float64
}

// DefaultSamplePoints returns the fixed probe layout: one point per quadrant
// plus the center. Five neighborhood averages approximate global scene change
// at a tiny fraction of a full-frame comparison's cost.
func DefaultSamplePoints() []SamplePoint {
	return []SamplePoint{
		{0.2, 0.2},
		{0.8, 0.2},
		{0.5, 0.5},
		{0.2, 0.8},
		{0.8, 0.8},
	}
}

// toPixel maps a normalized point into the pixel space of bounds.
func (p SamplePoint) toPixel(bounds image.Rectangle) image.Point {
	return image.Pt(
		bounds.Min.X+int(p.X*float64(bounds.Dx())),
		bounds.Min.Y+int(p.Y*float64(bounds.Dy())),
	)
}
