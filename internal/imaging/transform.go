package imaging

import (
	"image"

	"github.com/ironsheep/imagekit/internal/format"
	"github.com/ironsheep/imagekit/internal/raster"
)

// Flip mirrors the image. direction is "h"/"horizontal", "v"/"vertical" or
// "b"/"both".
func (img *Image) Flip(direction string) error {
	mode, ok := ParseFlip(direction)
	if !ok {
		return invalidInput("flip", "invalid image flip direction: %s", direction)
	}
	if err := img.live("flip"); err != nil {
		return err
	}
	next, err := img.backend.Flip(img.raster, mode)
	if err != nil {
		return operationFailed("flip", "flip", "image could not be flipped", err)
	}
	img.replace("flip", next)
	return nil
}

// Crop keeps the width x height area whose top-left corner is at
// (marginLeft, marginTop). The origin must lie inside the image; an area
// running past the right or bottom edge is clipped.
func (img *Image) Crop(width, height, marginLeft, marginTop int) error {
	if err := img.live("crop"); err != nil {
		return err
	}
	next, err := img.backend.Crop(img.raster, CropRect(width, height, marginLeft, marginTop))
	if err != nil {
		return operationFailed("crop", "crop", "image could not be cropped", err)
	}
	img.replace("crop", next)
	return nil
}

// Scale resizes the image to width x height. Pass ProportionalHeight to keep
// the aspect ratio.
func (img *Image) Scale(width, height int) error {
	if err := img.live("scale"); err != nil {
		return err
	}
	width, height = ScaleSize(img.Width(), img.Height(), width, height)
	next, err := img.backend.Scale(img.raster, width, height)
	if err != nil {
		return operationFailed("scale", "scale", "image could not be scaled", err)
	}
	img.replace("scale", next)
	return nil
}

// Rotate turns the image clockwise by angle degrees. The canvas grows to fit;
// exposed corners are transparent for formats that keep alpha and white for
// JPEG.
func (img *Image) Rotate(angle float64) error {
	if err := img.live("rotate"); err != nil {
		return err
	}
	p, _ := format.Lookup(img.format)

	var bg raster.Color
	var err error
	if p.PreserveAlpha {
		bg, err = img.backend.AllocateColor(img.raster, 0, 0, 0, raster.MaxAlpha)
	} else {
		bg, err = img.backend.AllocateColor(img.raster, 0xFF, 0xFF, 0xFF, 0)
	}
	if err != nil {
		return operationFailed("rotate", "allocate color", "image could not allocate a color", err)
	}

	next, err := img.backend.Rotate(img.raster, -angle, bg)
	if err != nil {
		return operationFailed("rotate", "rotate", "image could not be rotated", err)
	}
	if p.PreserveAlpha {
		if err := img.keepAlpha(next); err != nil {
			img.backend.Release(next)
			return operationFailed("rotate", "rotate", "image could not be rotated", err)
		}
	}
	img.replace("rotate", next)
	return nil
}

// keepAlpha turns blending off and alpha saving on.
func (img *Image) keepAlpha(r *raster.Raster) error {
	if err := img.backend.SetAlphaBlending(r, false); err != nil {
		return err
	}
	return img.backend.SetSaveAlpha(r, true)
}

// Flatten composites the image over an opaque background of the given color
// and drops the alpha channel. Channels are 0-255.
func (img *Image) Flatten(red, green, blue int) error {
	if err := img.live("flatten"); err != nil {
		return err
	}
	canvas, err := img.backend.NewCanvas(img.Width(), img.Height())
	if err != nil {
		return operationFailed("flatten", "create canvas", "could not create a true color image", err)
	}
	defer img.backend.Release(canvas)

	bg, err := img.backend.AllocateColor(canvas, red, green, blue, 0)
	if err != nil {
		return operationFailed("flatten", "allocate color", "image could not allocate a color", err)
	}
	filled, err := img.backend.FillRect(canvas, canvas.Bounds(), bg)
	if err != nil {
		return operationFailed("flatten", "fill", "image could not be flattened", err)
	}
	defer img.backend.Release(filled)

	next, err := img.backend.Copy(filled, img.raster, image.Point{})
	if err != nil {
		return operationFailed("flatten", "copy", "image could not be flattened", err)
	}

	h, v := img.raster.Resolution()
	if err := img.backend.SetResolution(next, h, v); err != nil {
		img.backend.Release(next)
		return operationFailed("flatten", "copy", "image could not be flattened", err)
	}
	if err := img.backend.SetSaveAlpha(next, false); err != nil {
		img.backend.Release(next)
		return operationFailed("flatten", "copy", "image could not be flattened", err)
	}
	img.replace("flatten", next)
	return nil
}

// FlattenDefault flattens onto white.
func (img *Image) FlattenDefault() error {
	return img.Flatten(0xFF, 0xFF, 0xFF)
}

// SetResolution records the horizontal and vertical DPI written on export.
// Pixels are not resampled. Values the format's header cannot hold, such as
// JPEG densities above 65535, are refused rather than clamped.
func (img *Image) SetResolution(horizontal, vertical int) error {
	if err := img.live("set resolution"); err != nil {
		return err
	}
	if err := format.CheckResolution(img.format, horizontal, vertical); err != nil {
		return operationFailed("set resolution", "set resolution", "image resolution is out of range for the format", err)
	}
	if err := img.backend.SetResolution(img.raster, horizontal, vertical); err != nil {
		return operationFailed("set resolution", "set resolution", "image resolution could not be set", err)
	}
	return nil
}

// Resolution returns the horizontal and vertical DPI.
func (img *Image) Resolution() (int, int, error) {
	if err := img.live("get resolution"); err != nil {
		return 0, 0, err
	}
	h, v, err := img.backend.Resolution(img.raster)
	if err != nil {
		return 0, 0, operationFailed("get resolution", "get resolution", "image resolution could not be read", err)
	}
	return h, v, nil
}

// Filter applies a backend pixel filter.
func (img *Image) Filter(kind raster.Filter, args ...int) error {
	if err := img.live("filter"); err != nil {
		return err
	}
	next, err := img.backend.Filter(img.raster, kind, args...)
	if err != nil {
		return operationFailed("filter", "filter", "image could not apply the "+kind.String()+" filter", err)
	}
	img.replace("filter", next)
	return nil
}

// Opacity makes the image percent% opaque by washing it with a translucent
// gray overlay. 100 only turns blending on; pixels are untouched.
func (img *Image) Opacity(percent int) error {
	if percent < 0 || percent > 100 {
		return invalidInput("opacity", "opacity percentage must be between 0 and 100, %d given", percent)
	}
	if err := img.live("opacity"); err != nil {
		return err
	}
	if percent == 100 {
		if err := img.backend.SetAlphaBlending(img.raster, true); err != nil {
			return operationFailed("opacity", "set alpha blending", "image could not change its opacity", err)
		}
		return nil
	}

	prev := img.raster.Effect()
	if err := img.backend.SetLayerEffect(img.raster, raster.EffectOverlay); err != nil {
		return operationFailed("opacity", "set layer effect", "image could not change its opacity", err)
	}
	restore := func() { _ = img.backend.SetLayerEffect(img.raster, prev) }

	wash, err := img.backend.AllocateColor(img.raster, 0x7F, 0x7F, 0x7F, OpacityAlpha(percent))
	if err != nil {
		restore()
		return operationFailed("opacity", "allocate color", "image could not allocate a color", err)
	}
	next, err := img.backend.FillRect(img.raster, img.raster.Bounds(), wash)
	if err != nil {
		restore()
		return operationFailed("opacity", "fill", "image could not change its opacity", err)
	}
	if err := img.keepAlpha(next); err != nil {
		restore()
		img.backend.Release(next)
		return operationFailed("opacity", "fill", "image could not change its opacity", err)
	}
	img.replace("opacity", next)
	return nil
}

// Watermark draws other onto the image. Non-negative offsets are measured
// from the left/top edge; negative offsets from the right/bottom edge to the
// far side of other. other is only read.
func (img *Image) Watermark(other *Image, left, top int) error {
	if other == nil {
		return invalidInput("watermark", "watermark requires an image")
	}
	if err := img.live("watermark"); err != nil {
		return err
	}
	at := WatermarkOrigin(
		image.Pt(img.Width(), img.Height()),
		image.Pt(other.Width(), other.Height()),
		left, top,
	)
	next, err := img.backend.Copy(img.raster, other.raster, at)
	if err != nil {
		return operationFailed("watermark", "watermark", "image could not be watermarked", err)
	}
	img.replace("watermark", next)
	return nil
}
