package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/ironsheep/imagekit/internal/format"
)

// Engine is the default Backend. It is stateless apart from its options and
// safe for concurrent use on distinct rasters.
type Engine struct {
	resample  imaging.ResampleFilter
	maxPixels int
}

// DefaultMaxPixels bounds the area of any raster an Engine creates: 128
// megapixels, 512 MiB of NRGBA.
const DefaultMaxPixels = 1 << 27

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithResampleFilter sets the filter Scale uses. The default is
// imaging.Linear.
func WithResampleFilter(f imaging.ResampleFilter) EngineOption {
	return func(e *Engine) {
		e.resample = f
	}
}

// WithMaxPixels sets the largest width*height a created raster may have.
// Non-positive values keep DefaultMaxPixels.
func WithMaxPixels(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxPixels = n
		}
	}
}

// NewEngine returns an Engine with the given options applied.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{resample: imaging.Linear, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ Backend = (*Engine)(nil)

// checkArea refuses a width x height raster larger than the pixel budget.
// Sizes must already be positive.
func (e *Engine) checkArea(what string, width, height int) error {
	if width > e.maxPixels/height {
		return fmt.Errorf("%w: %s size %dx%d exceeds the %d pixel limit",
			ErrInvalidGeometry, what, width, height, e.maxPixels)
	}
	return nil
}

// rotatedSize returns the bounds imaging.Rotate grows a width x height
// image to when turning it by angle degrees.
func rotatedSize(width, height int, angle float64) (int, int) {
	sin, cos := math.Sincos(angle * math.Pi / 180)
	w := math.Abs(float64(width)*cos) + math.Abs(float64(height)*sin)
	h := math.Abs(float64(width)*sin) + math.Abs(float64(height)*cos)
	return int(math.Ceil(w)) + 1, int(math.Ceil(h)) + 1
}

// New wraps a copy of img as a fresh raster with default metadata.
func New(img image.Image) *Raster {
	return newRaster(imaging.Clone(img))
}

// Decode reads a raster using the codec for f. GIF input keeps its first
// frame only.
func (e *Engine) Decode(r io.Reader, f format.Format) (*Raster, error) {
	var img image.Image
	var err error
	switch f {
	case format.PNG:
		img, err = png.Decode(r)
	case format.JPEG:
		img, err = jpeg.Decode(r)
	case format.GIF:
		img, err = gif.Decode(r)
	default:
		return nil, fmt.Errorf("no decoder for %s", f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decoded %s image is empty", f)
	}
	return New(img), nil
}

// Encode writes r as f and stamps its resolution into the stream header.
//
// PNG quality is a 0-9 compression level; JPEG quality is 0-100; GIF takes
// none. When the raster does not save alpha, PNG output is written opaque.
func (e *Engine) Encode(w io.Writer, r *Raster, f format.Format, quality int) error {
	if r.Released() {
		return ErrReleased
	}

	var buf bytes.Buffer
	var err error
	switch f {
	case format.PNG:
		var img image.Image = r.pix
		if !r.saveAlpha {
			img = opaque(r.pix)
		}
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(pngLevel(quality)))
	case format.JPEG:
		err = imaging.Encode(&buf, r.pix, imaging.JPEG, imaging.JPEGQuality(quality))
	case format.GIF:
		err = imaging.Encode(&buf, r.pix, imaging.GIF)
	default:
		return fmt.Errorf("no encoder for %s", f)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", f, err)
	}

	data, err := format.StampResolution(buf.Bytes(), f, r.hdpi, r.vdpi)
	if err != nil {
		return fmt.Errorf("failed to record resolution: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", f, err)
	}
	return nil
}

// pngLevel maps the 0-9 compression scale onto the levels Go's encoder has.
func pngLevel(q int) png.CompressionLevel {
	switch {
	case q <= 0:
		return png.NoCompression
	case q <= 3:
		return png.BestSpeed
	case q <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// opaque returns a copy of src with every pixel's alpha forced to 255.
func opaque(src *image.NRGBA) *image.NRGBA {
	dst := imaging.Clone(src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xFF
	}
	return dst
}

// Release frees r.
func (e *Engine) Release(r *Raster) {
	r.release()
}

// Crop returns the part of r inside rect. The origin must lie within r;
// extents running past the right or bottom edge are clipped.
func (e *Engine) Crop(r *Raster, rect image.Rectangle) (*Raster, error) {
	if r.Released() {
		return nil, ErrReleased
	}
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("%w: crop size %dx%d", ErrInvalidGeometry, rect.Dx(), rect.Dy())
	}
	b := r.pix.Bounds()
	if !rect.Min.In(b) {
		return nil, fmt.Errorf("%w: crop origin (%d,%d) outside %dx%d raster",
			ErrInvalidGeometry, rect.Min.X, rect.Min.Y, b.Dx(), b.Dy())
	}
	return r.derive(imaging.Crop(r.pix, rect.Intersect(b))), nil
}

// Scale resamples r to exactly width x height.
func (e *Engine) Scale(r *Raster, width, height int) (*Raster, error) {
	if r.Released() {
		return nil, ErrReleased
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: scale size %dx%d", ErrInvalidGeometry, width, height)
	}
	if err := e.checkArea("scale", width, height); err != nil {
		return nil, err
	}
	return r.derive(imaging.Resize(r.pix, width, height, e.resample)), nil
}

// Rotate turns r counter-clockwise. The result grows to hold the whole
// rotated image; uncovered corners are filled with bg.
func (e *Engine) Rotate(r *Raster, angle float64, bg Color) (*Raster, error) {
	if r.Released() {
		return nil, ErrReleased
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return nil, fmt.Errorf("%w: rotation angle %v", ErrInvalidGeometry, angle)
	}
	if w, h := rotatedSize(r.Width(), r.Height(), angle); w > 0 && h > 0 {
		if err := e.checkArea("rotated", w, h); err != nil {
			return nil, err
		}
	}
	return r.derive(imaging.Rotate(r.pix, angle, bg.c)), nil
}

// Flip mirrors r along the given axes.
func (e *Engine) Flip(r *Raster, mode FlipMode) (*Raster, error) {
	if r.Released() {
		return nil, ErrReleased
	}
	switch mode {
	case FlipHorizontal:
		return r.derive(imaging.FlipH(r.pix)), nil
	case FlipVertical:
		return r.derive(imaging.FlipV(r.pix)), nil
	case FlipBoth:
		return r.derive(imaging.Rotate180(r.pix)), nil
	default:
		return nil, fmt.Errorf("unknown flip mode %d", mode)
	}
}

// NewCanvas creates an opaque black true-color raster.
func (e *Engine) NewCanvas(width, height int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas size %dx%d", ErrInvalidGeometry, width, height)
	}
	if err := e.checkArea("canvas", width, height); err != nil {
		return nil, err
	}
	return newRaster(imaging.New(width, height, color.NRGBA{A: 0xFF})), nil
}

// AllocateColor validates the components (0-255, alpha 0-MaxAlpha) and
// returns the color for use on r.
func (e *Engine) AllocateColor(r *Raster, red, green, blue, alpha int) (Color, error) {
	if r.Released() {
		return Color{}, ErrReleased
	}
	for _, v := range [...]int{red, green, blue} {
		if v < 0 || v > 0xFF {
			return Color{}, fmt.Errorf("%w: component %d outside 0-255", ErrInvalidColor, v)
		}
	}
	if alpha < 0 || alpha > MaxAlpha {
		return Color{}, fmt.Errorf("%w: alpha %d outside 0-%d", ErrInvalidColor, alpha, MaxAlpha)
	}
	return Color{
		c:     color.NRGBA{R: uint8(red), G: uint8(green), B: uint8(blue), A: alphaToOpacity(alpha)},
		alpha: alpha,
	}, nil
}

// alphaToOpacity converts a 0-127 transparency into an 8-bit opacity.
func alphaToOpacity(alpha int) uint8 {
	return uint8(0xFF - (alpha*0xFF+MaxAlpha/2)/MaxAlpha)
}

// FillRect paints rect (clipped to r) with c according to r's layer effect.
func (e *Engine) FillRect(r *Raster, rect image.Rectangle, c Color) (*Raster, error) {
	if r.Released() {
		return nil, ErrReleased
	}
	dst := imaging.Clone(r.pix)
	rect = rect.Canon().Intersect(dst.Bounds())

	switch r.effect {
	case EffectReplace:
		draw.Draw(dst, rect, image.NewUniform(c.c), image.Point{}, draw.Src)
	case EffectAlphaBlend, EffectNormal:
		draw.Draw(dst, rect, image.NewUniform(c.c), image.Point{}, draw.Over)
	case EffectOverlay:
		blendRect(dst, rect, c.c, overlayChannel)
	case EffectMultiply:
		blendRect(dst, rect, c.c, multiplyChannel)
	default:
		return nil, fmt.Errorf("unknown layer effect %d", r.effect)
	}
	return r.derive(dst), nil
}

// blendRect combines every pixel of rect with src: color channels through
// fn, opacities multiplied.
func blendRect(dst *image.NRGBA, rect image.Rectangle, src color.NRGBA, fn func(s, d uint8) uint8) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		i := dst.PixOffset(rect.Min.X, y)
		for x := rect.Min.X; x < rect.Max.X; x++ {
			p := dst.Pix[i : i+4 : i+4]
			p[0] = fn(src.R, p[0])
			p[1] = fn(src.G, p[1])
			p[2] = fn(src.B, p[2])
			p[3] = uint8(int(p[3]) * int(src.A) / 0xFF)
			i += 4
		}
	}
}

func overlayChannel(s, d uint8) uint8 {
	src, dst := int(s), int(d)<<1
	if dst > 0xFF {
		return uint8(dst + src<<1 - dst*src/0xFF - 0xFF)
	}
	return uint8(dst * src / 0xFF)
}

func multiplyChannel(s, d uint8) uint8 {
	return uint8(int(s) * int(d) / 0xFF)
}

// Copy draws src onto a copy of dst at p. With blending on the source is
// composited over the destination; with blending off it replaces it.
func (e *Engine) Copy(dst, src *Raster, p image.Point) (*Raster, error) {
	if dst.Released() || src.Released() {
		return nil, ErrReleased
	}
	if dst.effect == EffectReplace {
		return dst.derive(imaging.Paste(dst.pix, src.pix, p)), nil
	}
	return dst.derive(imaging.Overlay(dst.pix, src.pix, p, 1.0)), nil
}

// SetAlphaBlending switches between EffectAlphaBlend and EffectReplace.
func (e *Engine) SetAlphaBlending(r *Raster, on bool) error {
	if r.Released() {
		return ErrReleased
	}
	if on {
		r.effect = EffectAlphaBlend
	} else {
		r.effect = EffectReplace
	}
	return nil
}

// SetSaveAlpha controls whether encoders keep the alpha channel.
func (e *Engine) SetSaveAlpha(r *Raster, on bool) error {
	if r.Released() {
		return ErrReleased
	}
	r.saveAlpha = on
	return nil
}

// SetLayerEffect sets the effect used by FillRect and Copy.
func (e *Engine) SetLayerEffect(r *Raster, effect LayerEffect) error {
	if r.Released() {
		return ErrReleased
	}
	if effect < EffectReplace || effect > EffectMultiply {
		return fmt.Errorf("unknown layer effect %d", effect)
	}
	r.effect = effect
	return nil
}

// SetResolution records the DPI metadata. Pixels are not touched.
func (e *Engine) SetResolution(r *Raster, horizontal, vertical int) error {
	if r.Released() {
		return ErrReleased
	}
	if horizontal <= 0 || vertical <= 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrInvalidGeometry, horizontal, vertical)
	}
	r.hdpi, r.vdpi = horizontal, vertical
	return nil
}

// Resolution returns the DPI metadata.
func (e *Engine) Resolution(r *Raster) (int, int, error) {
	if r.Released() {
		return 0, 0, ErrReleased
	}
	return r.hdpi, r.vdpi, nil
}
