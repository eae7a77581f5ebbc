package raster

import (
	"errors"
	"image"
	"io"

	"github.com/ironsheep/imagekit/internal/format"
)

var (
	// ErrReleased is returned by any operation on a released raster.
	ErrReleased = errors.New("raster: resource released")

	// ErrInvalidGeometry is returned for empty or out-of-range rectangles and
	// non-positive target sizes.
	ErrInvalidGeometry = errors.New("raster: invalid geometry")

	// ErrInvalidColor is returned when a color component is out of range.
	ErrInvalidColor = errors.New("raster: invalid color")

	// ErrFilterArgs is returned for an unknown filter or a wrong argument list.
	ErrFilterArgs = errors.New("raster: invalid filter arguments")
)

// Backend is the set of raster primitives an image handle orchestrates.
//
// Operations returning *Raster produce a new resource and leave their input
// untouched; ownership of the result passes to the caller. Engine is the
// default implementation.
type Backend interface {
	// Decode reads a full raster using the entry point for f.
	Decode(r io.Reader, f format.Format) (*Raster, error)
	// Encode writes r in format f. quality is ignored for formats without one.
	Encode(w io.Writer, r *Raster, f format.Format, quality int) error
	// Release frees r. Releasing twice is a no-op.
	Release(r *Raster)

	Crop(r *Raster, rect image.Rectangle) (*Raster, error)
	Scale(r *Raster, width, height int) (*Raster, error)
	// Rotate turns r counter-clockwise by angle degrees, filling exposed
	// corners with bg.
	Rotate(r *Raster, angle float64, bg Color) (*Raster, error)
	Flip(r *Raster, mode FlipMode) (*Raster, error)
	Filter(r *Raster, f Filter, args ...int) (*Raster, error)

	// NewCanvas creates an opaque black true-color raster.
	NewCanvas(width, height int) (*Raster, error)
	AllocateColor(r *Raster, red, green, blue, alpha int) (Color, error)
	// FillRect paints rect with c using r's layer effect.
	FillRect(r *Raster, rect image.Rectangle, c Color) (*Raster, error)
	// Copy draws src onto dst with its top-left corner at p, using dst's
	// layer effect. src is only read.
	Copy(dst, src *Raster, p image.Point) (*Raster, error)

	SetAlphaBlending(r *Raster, on bool) error
	SetSaveAlpha(r *Raster, on bool) error
	SetLayerEffect(r *Raster, e LayerEffect) error
	SetResolution(r *Raster, horizontal, vertical int) error
	Resolution(r *Raster) (int, int, error)
}
