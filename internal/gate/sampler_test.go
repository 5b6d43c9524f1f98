package gate

import (
	"image"
	"testing"
)

// solidFrame creates a uniform RGBA image.
func solidFrame(w, h int, r, g, b byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 255
		}
	}
	return img
}

func TestSampleColor_UniformRegion(t *testing.T) {
	img := solidFrame(20, 20, 100, 150, 200)

	r, g, b := sampleColor(img, image.Pt(10, 10))

	wantR, wantG, wantB := 100/255.0, 150/255.0, 200/255.0
	if r != wantR || g != wantG || b != wantB {
		t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", r, g, b, wantR, wantG, wantB)
	}
}

func TestSampleColor_EmptyIntersectionYieldsBlack(t *testing.T) {
	img := solidFrame(10, 10, 255, 255, 255)

	for _, pt := range []image.Point{{-10, -10}, {100, 5}, {5, 100}} {
		r, g, b := sampleColor(img, pt)
		if r != 0 || g != 0 || b != 0 {
			t.Errorf("point %v: got (%v, %v, %v), want black", pt, r, g, b)
		}
	}
}

func TestSampleColor_EdgeClipping(t *testing.T) {
	// A corner point clips the 5x5 region down to 3x3 but the mean of a
	// uniform image is unchanged.
	img := solidFrame(10, 10, 40, 80, 120)

	r, g, b := sampleColor(img, image.Pt(0, 0))

	if r != 40/255.0 || g != 80/255.0 || b != 120/255.0 {
		t.Errorf("got (%v, %v, %v), want uniform color", r, g, b)
	}
}

func TestSampleColor_IntegerMeanQuantization(t *testing.T) {
	// Half the region at 0, half at 255, over an even pixel count: the sum
	// over 4 pixels is 510, integer mean 127.
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 255
	}
	img.Pix[0], img.Pix[1], img.Pix[2] = 255, 255, 255
	img.Pix[4], img.Pix[5], img.Pix[6] = 255, 255, 255

	r, _, _ := sampleColor(img, image.Pt(1, 1))

	if want := 127 / 255.0; r != want {
		t.Errorf("got %v, want %v", r, want)
	}
}
