package imaging

import (
	"image"
	"math"

	"github.com/ironsheep/imagekit/internal/raster"
)

// ProportionalHeight passed as the height to Scale derives the height from the
// width and the current aspect ratio.
const ProportionalHeight = -1

// ScaleSize resolves the target size of a scale.
//
// When height is ProportionalHeight the height becomes
// trunc(width * srcHeight / srcWidth), never less than 1 for a positive
// width. A negative width with a positive height derives the width the same
// way from the height. Any other pair is returned unchanged; range checking
// is left to the backend.
func ScaleSize(srcWidth, srcHeight, width, height int) (int, int) {
	switch {
	case height == ProportionalHeight && srcWidth > 0:
		return width, derive(width, srcHeight, srcWidth)
	case width < 0 && height > 0 && srcHeight > 0:
		return derive(height, srcWidth, srcHeight), height
	default:
		return width, height
	}
}

// derive returns trunc(given * num / den), at least 1 when given is positive.
func derive(given, num, den int) int {
	n := given * num / den
	if n < 1 && given > 0 {
		n = 1
	}
	return n
}

// ResolveOffset maps a watermark offset onto the canvas. A non-negative offset
// is measured from the left/top edge. A negative offset is measured from the
// right/bottom edge to the far side of the inserted image, so -10 leaves a
// 10 pixel gap between the insert and that edge.
func ResolveOffset(canvas, offset, insert int) int {
	if offset >= 0 {
		return offset
	}
	return canvas - (-offset + insert)
}

// WatermarkOrigin resolves both watermark offsets.
func WatermarkOrigin(canvas, insert image.Point, left, top int) image.Point {
	return image.Point{
		X: ResolveOffset(canvas.X, left, insert.X),
		Y: ResolveOffset(canvas.Y, top, insert.Y),
	}
}

// CropRect converts crop arguments into the source rectangle. It performs no
// bounds checking.
func CropRect(width, height, marginLeft, marginTop int) image.Rectangle {
	return image.Rectangle{
		Min: image.Pt(marginLeft, marginTop),
		Max: image.Pt(marginLeft+width, marginTop+height),
	}
}

// OpacityAlpha converts an opacity percentage into the 7-bit alpha of the gray
// wash laid over the image: 100 gives 0 (opaque), 0 gives 127.
func OpacityAlpha(percent int) int {
	return int(math.Round(math.Abs(float64(percent)*raster.MaxAlpha/100 - raster.MaxAlpha)))
}

// ParseFlip maps a flip direction to the backend mode. Accepted values are
// exactly "h", "horizontal", "v", "vertical", "b" and "both".
func ParseFlip(direction string) (raster.FlipMode, bool) {
	switch direction {
	case "h", "horizontal":
		return raster.FlipHorizontal, true
	case "v", "vertical":
		return raster.FlipVertical, true
	case "b", "both":
		return raster.FlipBoth, true
	default:
		return 0, false
	}
}
