package imaging

import (
	"log/slog"
	"runtime"

	"github.com/ironsheep/imagekit/internal/format"
	"github.com/ironsheep/imagekit/internal/raster"
)

// Image is a stateful handle over one decoded raster.
//
// The handle owns its raster exclusively. Transforms replace the raster on
// success and leave it untouched on failure. An Image is not safe for
// concurrent use; callers serialise access to a handle.
//
// Destroy releases the raster. Callers should defer it; a finalizer releases
// handles that are dropped without being destroyed.
type Image struct {
	backend raster.Backend
	log     *slog.Logger

	path   string
	format format.Format
	mime   string
	raster *raster.Raster

	quality   *int
	destroyed bool
}

// Option configures an Image at construction.
type Option func(*Image)

// WithBackend sets the raster backend. The default is a raster.Engine.
func WithBackend(b raster.Backend) Option {
	return func(img *Image) {
		img.backend = b
	}
}

// WithLogger sets the logger used for debug output. By default nothing is
// logged.
func WithLogger(l *slog.Logger) Option {
	return func(img *Image) {
		img.log = l
	}
}

var defaultBackend raster.Backend = raster.NewEngine()

func newImage(opts []Option) *Image {
	img := &Image{}
	for _, opt := range opts {
		opt(img)
	}
	if img.backend == nil {
		img.backend = defaultBackend
	}
	if img.log == nil {
		img.log = slog.New(slog.DiscardHandler)
	}
	return img
}

// install takes ownership of r and arms the finalizer.
func (img *Image) install(r *raster.Raster, f format.Format) {
	img.raster = r
	img.format = f
	img.mime = f.Mime()
	runtime.SetFinalizer(img, (*Image).Destroy)
}

// FromRaster wraps an existing raster as an Image of format f. The handle
// takes ownership of r; it has no source path.
func FromRaster(r *raster.Raster, f format.Format, opts ...Option) (*Image, error) {
	if r.Released() {
		return nil, invalidInput("from raster", "image requires a live raster")
	}
	if !f.Valid() {
		return nil, invalidInput("from raster", "unsupported image format: %s", f)
	}
	img := newImage(opts)
	img.install(r, f)
	return img, nil
}

// Destroy releases the raster. It is safe to call more than once.
func (img *Image) Destroy() {
	if img == nil || img.destroyed {
		return
	}
	img.destroyed = true
	img.backend.Release(img.raster)
	runtime.SetFinalizer(img, nil)
	img.log.Debug("image destroyed", "path", img.path)
}

// Destroyed reports whether Destroy has been called.
func (img *Image) Destroyed() bool {
	return img.destroyed
}

// live returns an InvalidOperation error once the handle is destroyed.
func (img *Image) live(op string) error {
	if img.destroyed {
		return invalidOperation(op, "image has been destroyed")
	}
	return nil
}

// replace installs next and releases the previous raster.
func (img *Image) replace(op string, next *raster.Raster) {
	prev := img.raster
	img.raster = next
	if prev != next {
		img.backend.Release(prev)
	}
	img.log.Debug("image transformed", "op", op, "width", next.Width(), "height", next.Height())
}

// Quality returns the encoding quality and whether the format has one.
// PNG and JPEG handles without an explicit quality are fixed to the format
// default on first call.
func (img *Image) Quality() (int, bool) {
	p, ok := format.Lookup(img.format)
	if !ok || !p.QualityApplicable {
		return 0, false
	}
	if img.quality == nil {
		q := p.DefaultQuality
		img.quality = &q
	}
	return *img.quality, true
}

// SetQuality stores an encoding quality. Values are range checked against
// the format, never clamped.
func (img *Image) SetQuality(quality int) error {
	if err := img.live("set quality"); err != nil {
		return err
	}
	p, _ := format.Lookup(img.format)
	if !p.QualityApplicable {
		return invalidOperation("set quality", "%s images do not receive a quality value", p.Name)
	}
	if quality < p.MinQuality || quality > p.MaxQuality {
		return invalidInput("set quality", "%s images must receive a quality value between %d and %d, %d given",
			p.Name, p.MinQuality, p.MaxQuality, quality)
	}
	img.quality = &quality
	return nil
}

// Width returns the raster width in pixels.
func (img *Image) Width() int { return img.raster.Width() }

// Height returns the raster height in pixels.
func (img *Image) Height() int { return img.raster.Height() }

// Format returns the format the image was loaded as.
func (img *Image) Format() format.Format { return img.format }

// Mime returns the MIME type paired with the format.
func (img *Image) Mime() string { return img.mime }

// Extension returns the canonical file extension, dot included.
func (img *Image) Extension() string { return img.format.Extension() }

// Path returns the canonical source path, or "" for handles built with
// FromRaster.
func (img *Image) Path() string { return img.path }

// Raster returns the current raster. The handle keeps ownership; callers must
// not release it or install it into another handle.
func (img *Image) Raster() *raster.Raster { return img.raster }

// SetRaster installs r and releases the previous raster. The handle takes
// ownership of r.
func (img *Image) SetRaster(r *raster.Raster) error {
	if err := img.live("set raster"); err != nil {
		return err
	}
	if r.Released() {
		return invalidInput("set raster", "image requires a live raster")
	}
	if r == img.raster {
		return nil
	}
	img.replace("set raster", r)
	return nil
}

// Info is a JSON-friendly summary of a handle.
type Info struct {
	Path      string `json:"path,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Mime      string `json:"mime"`
	Extension string `json:"extension"`
	Quality   *int   `json:"quality,omitempty"`
	HorizDPI  int    `json:"horizontal_dpi"`
	VertDPI   int    `json:"vertical_dpi"`
	SaveAlpha bool   `json:"save_alpha"`
	Blending  bool   `json:"alpha_blending"`
	LayerMode string `json:"layer_effect"`
	Destroyed bool   `json:"destroyed,omitempty"`
}

// Info summarises the handle.
func (img *Image) Info() Info {
	info := Info{
		Path:      img.path,
		Format:    img.format.String(),
		Mime:      img.mime,
		Extension: img.Extension(),
		Destroyed: img.destroyed,
	}
	if img.destroyed {
		return info
	}
	if q, ok := img.Quality(); ok {
		info.Quality = &q
	}
	info.Width, info.Height = img.Width(), img.Height()
	info.HorizDPI, info.VertDPI = img.raster.Resolution()
	info.SaveAlpha = img.raster.SaveAlpha()
	info.Blending = img.raster.AlphaBlending()
	info.LayerMode = img.raster.Effect().String()
	return info
}
