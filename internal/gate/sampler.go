package gate

import "image"

// sampleRegionSize is the side length, in pixels, of the square neighborhood
// averaged around each sample point.
const sampleRegionSize = 5

// sampleColor returns the mean color of the sampleRegionSize square centered
// on pt, each channel normalized to [0,1]. The region is clipped to the image
// bounds; an empty intersection yields black. That silently biases scores for
// points near the frame edge, which is accepted rather than corrected.
func sampleColor(img image.Image, pt image.Point) (r, g, b float64) {
	half := sampleRegionSize / 2
	region := image.Rect(pt.X-half, pt.Y-half, pt.X+half+1, pt.Y+half+1).
		Intersect(img.Bounds())
	if region.Empty() {
		return 0, 0, 0
	}

	var sumR, sumG, sumB, n uint64
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			sumR += uint64(cr >> 8)
			sumG += uint64(cg >> 8)
			sumB += uint64(cb >> 8)
			n++
		}
	}

	// Integer mean first: the average is quantized to 8 bits before
	// normalization, matching a 1x1 RGBA render of the region.
	return float64(sumR/n) / 255.0,
		float64(sumG/n) / 255.0,
		float64(sumB/n) / 255.0
}
