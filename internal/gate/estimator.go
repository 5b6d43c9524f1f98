package gate

import (
	"image"
	"math"
)

// Estimator scores the visual difference between two frames as a value in
// [0,1]. Implementations must be deterministic for identical pixel data and
// must never fail; degenerate geometry contributes zero, not an error.
type Estimator interface {
	Estimate(prev, cur image.Image) float64
}

// PointEstimator compares two frames by sampling the average color around a
// small fixed set of normalized points in each. Coordinates are scaled by
// each frame's own extent, so differing frame sizes are tolerated.
type PointEstimator struct {
	points []SamplePoint
}

// NewPointEstimator returns an estimator over the given sample points, or the
// default layout if points is empty.
func NewPointEstimator(points []SamplePoint) *PointEstimator {
	if len(points) == 0 {
		points = DefaultSamplePoints()
	}
	return &PointEstimator{points: points}
}

// Estimate returns the mean per-point color distance between prev and cur.
// Per-point distance is the mean of the three absolute channel differences.
func (e *PointEstimator) Estimate(prev, cur image.Image) float64 {
	var total float64
	for _, p := range e.points {
		pr, pg, pb := sampleColor(prev, p.toPixel(prev.Bounds()))
		cr, cg, cb := sampleColor(cur, p.toPixel(cur.Bounds()))
		total += (math.Abs(pr-cr) + math.Abs(pg-cg) + math.Abs(pb-cb)) / 3.0
	}
	return total / float64(len(e.points))
}
