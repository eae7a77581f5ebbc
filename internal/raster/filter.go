package raster

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Filter enumerates the pixel filters the engine provides.
type Filter int

const (
	FilterNegate Filter = iota + 1
	FilterGrayscale
	FilterBrightness // level: -255..255
	FilterContrast   // level: -100..100, negative raises contrast
	FilterColorize   // red, green, blue: -255..255; optional alpha: -127..127
	FilterEdgeDetect
	FilterEmboss
	FilterGaussianBlur
	FilterSelectiveBlur
	FilterMeanRemoval
	FilterSmooth   // weight of the center pixel
	FilterPixelate // block size; optional advanced flag (0/1)
)

type filterSpec struct {
	name    string
	minArgs int
	maxArgs int
}

var filterSpecs = map[Filter]filterSpec{
	FilterNegate:        {"negate", 0, 0},
	FilterGrayscale:     {"grayscale", 0, 0},
	FilterBrightness:    {"brightness", 1, 1},
	FilterContrast:      {"contrast", 1, 1},
	FilterColorize:      {"colorize", 3, 4},
	FilterEdgeDetect:    {"edgedetect", 0, 0},
	FilterEmboss:        {"emboss", 0, 0},
	FilterGaussianBlur:  {"gaussian_blur", 0, 0},
	FilterSelectiveBlur: {"selective_blur", 0, 0},
	FilterMeanRemoval:   {"mean_removal", 0, 0},
	FilterSmooth:        {"smooth", 1, 1},
	FilterPixelate:      {"pixelate", 1, 2},
}

func (f Filter) String() string {
	if s, ok := filterSpecs[f]; ok {
		return s.name
	}
	return fmt.Sprintf("filter(%d)", int(f))
}

// Filters lists every filter kind.
func Filters() []Filter {
	return []Filter{
		FilterNegate, FilterGrayscale, FilterBrightness, FilterContrast,
		FilterColorize, FilterEdgeDetect, FilterEmboss, FilterGaussianBlur,
		FilterSelectiveBlur, FilterMeanRemoval, FilterSmooth, FilterPixelate,
	}
}

// ParseFilter maps a filter name such as "gaussian_blur" or "gaussian-blur"
// (case-insensitive) to its kind.
func ParseFilter(name string) (Filter, bool) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for f, s := range filterSpecs {
		if s.name == name {
			return f, true
		}
	}
	return 0, false
}

// Filter applies f with its arguments and returns the filtered raster.
func (e *Engine) Filter(r *Raster, f Filter, args ...int) (*Raster, error) {
	if r.Released() {
		return nil, ErrReleased
	}
	spec, ok := filterSpecs[f]
	if !ok {
		return nil, fmt.Errorf("%w: unknown filter %d", ErrFilterArgs, int(f))
	}
	if len(args) < spec.minArgs || len(args) > spec.maxArgs {
		return nil, fmt.Errorf("%w: %s takes %d to %d arguments, %d given",
			ErrFilterArgs, spec.name, spec.minArgs, spec.maxArgs, len(args))
	}

	var out *image.NRGBA
	switch f {
	case FilterNegate:
		out = imaging.Invert(r.pix)
	case FilterGrayscale:
		out = imaging.Grayscale(r.pix)
	case FilterBrightness:
		level := args[0]
		out = imaging.AdjustFunc(r.pix, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{R: clamp8(int(c.R) + level), G: clamp8(int(c.G) + level), B: clamp8(int(c.B) + level), A: c.A}
		})
	case FilterContrast:
		out = imaging.AdjustContrast(r.pix, float64(-args[0]))
	case FilterColorize:
		out = colorize(r.pix, args)
	case FilterEdgeDetect:
		out = imaging.Clone(effect.EdgeDetection(r.pix, 1.0))
	case FilterEmboss:
		out = imaging.Clone(effect.Emboss(r.pix))
	case FilterGaussianBlur:
		out = imaging.Clone(blur.Gaussian(r.pix, 1.0))
	case FilterSelectiveBlur:
		out = imaging.Clone(effect.Median(r.pix, 1.0))
	case FilterMeanRemoval:
		out = imaging.Clone(effect.Sharpen(r.pix))
	case FilterSmooth:
		var err error
		if out, err = smooth(r.pix, args[0]); err != nil {
			return nil, err
		}
	case FilterPixelate:
		var err error
		if out, err = e.pixelate(r.pix, args); err != nil {
			return nil, err
		}
	}
	return r.derive(out), nil
}

func colorize(src *image.NRGBA, args []int) *image.NRGBA {
	dr, dg, db := args[0], args[1], args[2]
	da := 0
	if len(args) == 4 {
		da = args[3]
	}
	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		alpha := MaxAlpha - (int(c.A)*MaxAlpha+0x7F)/0xFF + da
		if alpha < 0 {
			alpha = 0
		} else if alpha > MaxAlpha {
			alpha = MaxAlpha
		}
		return color.NRGBA{
			R: clamp8(int(c.R) + dr),
			G: clamp8(int(c.G) + dg),
			B: clamp8(int(c.B) + db),
			A: alphaToOpacity(alpha),
		}
	})
}

// smooth convolves with a 3x3 kernel of ones whose center is weight.
func smooth(src *image.NRGBA, weight int) (*image.NRGBA, error) {
	sum := float64(weight + 8)
	if sum == 0 {
		return nil, fmt.Errorf("%w: smooth weight %d cancels the kernel", ErrFilterArgs, weight)
	}
	one := 1 / sum
	k := convolution.Kernel{
		Matrix: []float64{
			one, one, one,
			one, float64(weight) / sum, one,
			one, one, one,
		},
		Width:  3,
		Height: 3,
	}
	return imaging.Clone(convolution.Convolve(src, &k, &convolution.Options{KeepAlpha: true})), nil
}

// pixelate replaces each block x block square with a single color: the
// block's first sample, or its average when advanced is set.
func (e *Engine) pixelate(src *image.NRGBA, args []int) (*image.NRGBA, error) {
	block := args[0]
	if block <= 0 {
		return nil, fmt.Errorf("%w: pixelate block size %d", ErrFilterArgs, block)
	}
	if block == 1 {
		return imaging.Clone(src), nil
	}
	advanced := len(args) == 2 && args[1] != 0

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	// A block covering the whole image gives the same single color.
	block = min(block, max(w, h))
	cols, rows := (w+block-1)/block, (h+block-1)/block
	if err := e.checkArea("pixelate", cols*block, rows*block); err != nil {
		return nil, err
	}

	down := imaging.NearestNeighbor
	if advanced {
		down = imaging.Box
	}
	small := imaging.Resize(src, cols, rows, down)
	big := imaging.Resize(small, cols*block, rows*block, imaging.NearestNeighbor)
	return imaging.Crop(big, image.Rect(0, 0, w, h)), nil
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 0xFF {
		return 0xFF
	}
	return uint8(v)
}
