package imaging

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/imagekit/internal/format"
)

var (
	red         = color.NRGBA{R: 255, A: 255}
	green       = color.NRGBA{G: 255, A: 255}
	blue        = color.NRGBA{B: 255, A: 255}
	white       = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	transparent = color.NRGBA{}
)

// solidImage creates an in-memory image filled with c.
func solidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// patternImage creates an image with a different color in each quadrant:
// red top-left, green top-right, blue bottom-left, white bottom-right.
func patternImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch {
			case x < width/2 && y < height/2:
				img.SetNRGBA(x, y, red)
			case y < height/2:
				img.SetNRGBA(x, y, green)
			case x < width/2:
				img.SetNRGBA(x, y, blue)
			default:
				img.SetNRGBA(x, y, white)
			}
		}
	}
	return img
}

// writeImage encodes img as f into a fresh temp directory and returns the
// file path.
func writeImage(t *testing.T, f format.Format, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture"+f.Extension())
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	defer file.Close()

	switch f {
	case format.PNG:
		err = png.Encode(file, img)
	case format.JPEG:
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 95})
	case format.GIF:
		err = gif.Encode(file, img, nil)
	default:
		t.Fatalf("no fixture encoder for %s", f)
	}
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return path
}

// openImage writes img as f and opens it, destroying it at test end.
func openImage(t *testing.T, f format.Format, img image.Image) *Image {
	t.Helper()
	h, err := Open(writeImage(t, f, img))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(h.Destroy)
	return h
}

// mustColorAt fails the test when (x, y) cannot be sampled.
func mustColorAt(t *testing.T, img *Image, x, y int) color.NRGBA {
	t.Helper()
	c, err := img.ColorAt(x, y)
	if err != nil {
		t.Fatalf("ColorAt(%d,%d) failed: %v", x, y, err)
	}
	return c
}

// samePixels reports whether a and b hold identical pixels.
func samePixels(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.At(x, y) != b.At(x, y) {
				return false
			}
		}
	}
	return true
}

// tempPath returns a path named name inside a fresh temp directory.
func tempPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}
