package gate

import (
	"testing"
)

func TestEstimate_IdenticalFramesScoreZero(t *testing.T) {
	e := NewPointEstimator(nil)
	a := solidFrame(64, 48, 120, 60, 30)
	b := solidFrame(64, 48, 120, 60, 30)

	if score := e.Estimate(a, b); score != 0 {
		t.Errorf("identical frames scored %v, want 0", score)
	}
}

func TestEstimate_BlackToWhiteScoresOne(t *testing.T) {
	e := NewPointEstimator(nil)
	black := solidFrame(64, 64, 0, 0, 0)
	white := solidFrame(64, 64, 255, 255, 255)

	if score := e.Estimate(black, white); score != 1.0 {
		t.Errorf("black vs white scored %v, want 1.0", score)
	}
}

func TestEstimate_DifferingExtentsTolerated(t *testing.T) {
	// Coordinates are normalized per frame, so the same uniform content at
	// different sizes still scores zero.
	e := NewPointEstimator(nil)
	small := solidFrame(32, 24, 90, 90, 90)
	large := solidFrame(320, 240, 90, 90, 90)

	if score := e.Estimate(small, large); score != 0 {
		t.Errorf("same content at different sizes scored %v, want 0", score)
	}
}

func TestEstimate_ScoreStaysInUnitRange(t *testing.T) {
	e := NewPointEstimator(nil)
	frames := []struct {
		r, g, b byte
	}{
		{0, 0, 0}, {255, 0, 0}, {0, 255, 0}, {13, 200, 77}, {255, 255, 255},
	}

	prev := solidFrame(40, 40, frames[0].r, frames[0].g, frames[0].b)
	for _, f := range frames[1:] {
		cur := solidFrame(40, 40, f.r, f.g, f.b)
		score := e.Estimate(prev, cur)
		if score < 0 || score > 1 {
			t.Errorf("score %v out of [0,1] for %+v", score, f)
		}
		prev = cur
	}
}

func TestEstimate_PartialChange(t *testing.T) {
	// Solid gray against mid-gray shifted by 51 levels: every point sees the
	// same per-channel delta, so the score is exactly 51/255.
	e := NewPointEstimator(nil)
	a := solidFrame(100, 100, 100, 100, 100)
	b := solidFrame(100, 100, 151, 151, 151)

	want := 51 / 255.0
	if score := e.Estimate(a, b); score != want {
		t.Errorf("got %v, want %v", score, want)
	}
}
