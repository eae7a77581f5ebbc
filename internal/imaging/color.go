package imaging

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBAColor is an 8-bit color with straight (non-premultiplied) alpha, where
// 0 is transparent and 255 opaque.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor is a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // 0-360 degrees
	S int `json:"s"` // 0-100 percent
	L int `json:"l"` // 0-100 percent
}

// ColorResult holds one sampled color in several notations.
type ColorResult struct {
	Hex  string    `json:"hex"` // "#RRGGBB", alpha excluded
	RGBA RGBAColor `json:"rgba"`
	HSL  HSLColor  `json:"hsl"`
	// Alpha is the color's transparency on the 0 (opaque) to 127 scale used
	// by Opacity and the raster backend.
	Alpha int `json:"alpha"`
}

// ColorAt returns the pixel at (x, y), with (0,0) at the top-left corner.
func (img *Image) ColorAt(x, y int) (color.NRGBA, error) {
	if err := img.live("color at"); err != nil {
		return color.NRGBA{}, err
	}
	if !image.Pt(x, y).In(img.raster.Bounds()) {
		return color.NRGBA{}, invalidInput("color at", "coordinates (%d,%d) outside %dx%d image",
			x, y, img.Width(), img.Height())
	}
	return color.NRGBAModel.Convert(img.raster.Image().At(x, y)).(color.NRGBA), nil
}

// SampleColor returns the color at (x, y).
func (img *Image) SampleColor(x, y int) (*ColorResult, error) {
	c, err := img.ColorAt(x, y)
	if err != nil {
		return nil, err
	}
	return describeColor(c), nil
}

func describeColor(c color.NRGBA) *ColorResult {
	cf := colorful.Color{R: float64(c.R) / 0xFF, G: float64(c.G) / 0xFF, B: float64(c.B) / 0xFF}
	h, s, l := cf.Hsl()
	return &ColorResult{
		Hex:   strings.ToUpper(cf.Hex()),
		RGBA:  RGBAColor{R: c.R, G: c.G, B: c.B, A: c.A},
		HSL:   HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
		Alpha: 127 - (int(c.A)*127+0x7F)/0xFF,
	}
}

// LabeledPoint is a coordinate to sample, with an optional label echoed in
// the result.
type LabeledPoint struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// LabeledColorResult is one sample of SampleColors.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// SampleColors samples every point in order. Any point outside the image
// fails the whole call.
func (img *Image) SampleColors(points []LabeledPoint) ([]LabeledColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))
	for _, p := range points {
		c, err := img.SampleColor(p.X, p.Y)
		if err != nil {
			return nil, err
		}
		results = append(results, LabeledColorResult{Label: p.Label, X: p.X, Y: p.Y, Color: *c})
	}
	return results, nil
}

// ColorFrequency is one entry of DominantColors.
type ColorFrequency struct {
	Hex        string  `json:"hex"`
	Percentage float64 `json:"percentage"` // share of sampled pixels, 0-100
}

// DominantColors returns up to count of the most common colors inside
// region, or the whole image when region is empty. Channels are quantized to
// multiples of 16 so near-identical colors count together. Fully transparent
// pixels are skipped.
func (img *Image) DominantColors(count int, region image.Rectangle) ([]ColorFrequency, error) {
	if err := img.live("dominant colors"); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, invalidInput("dominant colors", "color count must be positive, %d given", count)
	}
	bounds := img.raster.Bounds()
	if !region.Empty() {
		bounds = region.Intersect(bounds)
		if bounds.Empty() {
			return nil, invalidInput("dominant colors", "region %v outside %dx%d image", region, img.Width(), img.Height())
		}
	}

	pix := img.raster.Image()
	counts := make(map[[3]uint8]int)
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(pix.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			counts[[3]uint8{c.R &^ 0x0F, c.G &^ 0x0F, c.B &^ 0x0F}]++
			total++
		}
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for k, n := range counts {
		colors = append(colors, ColorFrequency{
			Hex:        fmt.Sprintf("#%02X%02X%02X", k[0], k[1], k[2]),
			Percentage: float64(n) * 100 / float64(total),
		})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})
	if len(colors) > count {
		colors = colors[:count]
	}
	return colors, nil
}
