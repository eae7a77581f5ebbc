package imaging

import "github.com/ironsheep/imagekit/internal/raster"

// Chain applies a sequence of operations to one image and keeps the first
// error. Once an operation fails the remaining calls are skipped.
//
//	err := img.Chain().
//		Crop(200, 200, 100, 100).
//		Scale(100, imaging.ProportionalHeight).
//		Flip("h").
//		Err()
type Chain struct {
	img *Image
	err error
}

// Chain starts a chain on img.
func (img *Image) Chain() *Chain {
	return &Chain{img: img}
}

func (c *Chain) do(fn func() error) *Chain {
	if c.err == nil {
		c.err = fn()
	}
	return c
}

func (c *Chain) Flip(direction string) *Chain {
	return c.do(func() error { return c.img.Flip(direction) })
}

func (c *Chain) Crop(width, height, marginLeft, marginTop int) *Chain {
	return c.do(func() error { return c.img.Crop(width, height, marginLeft, marginTop) })
}

func (c *Chain) Scale(width, height int) *Chain {
	return c.do(func() error { return c.img.Scale(width, height) })
}

func (c *Chain) Rotate(angle float64) *Chain {
	return c.do(func() error { return c.img.Rotate(angle) })
}

func (c *Chain) Flatten(red, green, blue int) *Chain {
	return c.do(func() error { return c.img.Flatten(red, green, blue) })
}

func (c *Chain) SetResolution(horizontal, vertical int) *Chain {
	return c.do(func() error { return c.img.SetResolution(horizontal, vertical) })
}

func (c *Chain) Filter(kind raster.Filter, args ...int) *Chain {
	return c.do(func() error { return c.img.Filter(kind, args...) })
}

func (c *Chain) Opacity(percent int) *Chain {
	return c.do(func() error { return c.img.Opacity(percent) })
}

func (c *Chain) Watermark(other *Image, left, top int) *Chain {
	return c.do(func() error { return c.img.Watermark(other, left, top) })
}

func (c *Chain) SetQuality(quality int) *Chain {
	return c.do(func() error { return c.img.SetQuality(quality) })
}

// Save ends a successful chain by saving; see Image.Save.
func (c *Chain) Save(path string) *Chain {
	return c.do(func() error { return c.img.Save(path) })
}

// Err returns the first error, if any.
func (c *Chain) Err() error {
	return c.err
}

// Image returns the image the chain operates on.
func (c *Chain) Image() *Image {
	return c.img
}
