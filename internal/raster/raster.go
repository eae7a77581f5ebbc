// Package raster is the pixel backend behind an imaging.Image.
//
// A *Raster is an opaque, exclusively owned decoded pixel buffer plus the
// metadata the backend manages for it: dimensions, alpha handling flags, the
// active layer effect and the DPI resolution. Rasters can only be produced by
// this package (decoders, New and Engine operations), so a value of the type
// is always a real backend resource.
//
// Geometric and pixel operations never modify their input pixels; they return
// a new *Raster and leave releasing the old one to the owner. Metadata setters
// (alpha flags, layer effect, resolution) change the raster in place.
//
// # Alpha conventions
//
// Colors are allocated with a 7-bit alpha where 0 is fully opaque and
// MaxAlpha (127) is fully transparent, the convention of classic raster
// libraries. Pixels are stored as non-premultiplied 8-bit NRGBA.
package raster

import (
	"image"
	"image/color"

	"github.com/ironsheep/imagekit/internal/format"
)

// MaxAlpha is the fully transparent value of an allocated color's alpha.
const MaxAlpha = 127

// LayerEffect selects how drawing primitives combine a color with the pixels
// already on the raster.
type LayerEffect int

const (
	// EffectReplace writes colors verbatim, alpha included (blending off).
	EffectReplace LayerEffect = iota
	// EffectAlphaBlend composites colors over the existing pixels (blending on).
	EffectAlphaBlend
	// EffectNormal behaves like EffectAlphaBlend.
	EffectNormal
	// EffectOverlay applies the overlay blend to color channels and multiplies
	// the opacities of source and destination.
	EffectOverlay
	// EffectMultiply multiplies color channels and opacities.
	EffectMultiply
)

func (e LayerEffect) String() string {
	switch e {
	case EffectReplace:
		return "replace"
	case EffectAlphaBlend:
		return "alphablend"
	case EffectNormal:
		return "normal"
	case EffectOverlay:
		return "overlay"
	case EffectMultiply:
		return "multiply"
	default:
		return "unknown"
	}
}

// FlipMode is the axis set for Flip.
type FlipMode int

const (
	FlipHorizontal FlipMode = iota + 1
	FlipVertical
	FlipBoth
)

// Color is a color allocated for a specific raster.
type Color struct {
	c     color.NRGBA
	alpha int
}

// NRGBA returns the 8-bit non-premultiplied form of the color.
func (c Color) NRGBA() color.NRGBA {
	return c.c
}

// Alpha returns the 7-bit alpha the color was allocated with (0 = opaque).
func (c Color) Alpha() int {
	return c.alpha
}

// Raster is a decoded pixel buffer owned by exactly one imaging.Image.
type Raster struct {
	pix *image.NRGBA

	effect    LayerEffect
	saveAlpha bool

	hdpi, vdpi int

	released bool
}

// newRaster wraps pix with the defaults of a freshly created true-color
// raster: blending on, alpha not saved, default resolution.
func newRaster(pix *image.NRGBA) *Raster {
	return &Raster{
		pix:    pix,
		effect: EffectAlphaBlend,
		hdpi:   format.DefaultDPI,
		vdpi:   format.DefaultDPI,
	}
}

// derive wraps pix with the metadata of r, for operation results.
func (r *Raster) derive(pix *image.NRGBA) *Raster {
	return &Raster{
		pix:       pix,
		effect:    r.effect,
		saveAlpha: r.saveAlpha,
		hdpi:      r.hdpi,
		vdpi:      r.vdpi,
	}
}

// Width returns the width in pixels, or 0 once released.
func (r *Raster) Width() int {
	if r.Released() {
		return 0
	}
	return r.pix.Bounds().Dx()
}

// Height returns the height in pixels, or 0 once released.
func (r *Raster) Height() int {
	if r.Released() {
		return 0
	}
	return r.pix.Bounds().Dy()
}

// Bounds returns the pixel rectangle, always anchored at (0,0).
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width(), r.Height())
}

// Image returns a read-only view of the pixels. Callers must not modify it.
// It returns nil once the raster is released.
func (r *Raster) Image() image.Image {
	if r.Released() {
		return nil
	}
	return r.pix
}

// Resolution returns the horizontal and vertical DPI.
func (r *Raster) Resolution() (int, int) {
	return r.hdpi, r.vdpi
}

// Effect returns the active layer effect.
func (r *Raster) Effect() LayerEffect {
	return r.effect
}

// AlphaBlending reports whether drawing composites over existing pixels.
func (r *Raster) AlphaBlending() bool {
	return r.effect != EffectReplace
}

// SaveAlpha reports whether encoders keep the alpha channel.
func (r *Raster) SaveAlpha() bool {
	return r.saveAlpha
}

// Released reports whether the pixel buffer has been freed.
func (r *Raster) Released() bool {
	return r == nil || r.released
}

// release drops the pixel buffer. It reports whether this call released it.
func (r *Raster) release() bool {
	if r.Released() {
		return false
	}
	r.pix = nil
	r.released = true
	return true
}
