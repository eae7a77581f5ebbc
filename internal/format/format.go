// Package format holds the static policy for the raster formats imagekit
// accepts, and the header-only probe used to recognise them.
//
// The supported set is closed: PNG, JPEG and GIF. Every decision that depends
// on the format (quality range, default quality, alpha preservation on
// export, MIME type, file extension) is answered by the Policy table below
// rather than by branching on file names or integer codes.
package format

import (
	"strings"
)

// Format identifies one of the supported raster formats.
type Format int

const (
	// Unknown is the zero value; it is never stored on an open image.
	Unknown Format = iota
	PNG
	JPEG
	GIF
)

// Policy describes how a format is handled.
type Policy struct {
	Format Format
	Name   string
	Mime   string

	// Extensions lists the accepted file extensions; the first one is canonical.
	Extensions []string

	// QualityApplicable reports whether the format takes a quality value.
	// MinQuality, MaxQuality and DefaultQuality are meaningful only when it does.
	QualityApplicable bool
	MinQuality        int
	MaxQuality        int
	DefaultQuality    int

	// PreserveAlpha reports whether the alpha channel is kept on device output.
	PreserveAlpha bool

	// MaxDPI is the largest resolution the format's header records without
	// loss; zero means the format has no resolution record.
	MaxDPI int
}

var policies = [...]Policy{
	PNG: {
		Format:            PNG,
		Name:              "PNG",
		Mime:              "image/png",
		Extensions:        []string{".png"},
		QualityApplicable: true,
		MinQuality:        0,
		MaxQuality:        9,
		DefaultQuality:    6,
		PreserveAlpha:     true,
		// pHYs holds dots per metre as a PNG four-byte integer (at most 2^31-1).
		MaxDPI:            54546084,
	},
	JPEG: {
		Format:            JPEG,
		Name:              "JPEG",
		Mime:              "image/jpeg",
		Extensions:        []string{".jpeg", ".jpg"},
		QualityApplicable: true,
		MinQuality:        0,
		MaxQuality:        100,
		DefaultQuality:    75,
		PreserveAlpha:     false,
		// JFIF densities are 16-bit.
		MaxDPI:            0xFFFF,
	},
	GIF: {
		Format:        GIF,
		Name:          "GIF",
		Mime:          "image/gif",
		Extensions:    []string{".gif"},
		PreserveAlpha: true,
	},
}

// Supported lists the supported formats in table order.
func Supported() []Format {
	return []Format{PNG, JPEG, GIF}
}

// Lookup returns the policy for f. The boolean is false for Unknown or any
// value outside the closed set.
func Lookup(f Format) (Policy, bool) {
	switch f {
	case PNG, JPEG, GIF:
		return policies[f], true
	default:
		return Policy{}, false
	}
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	_, ok := Lookup(f)
	return ok
}

// String returns the format name ("PNG", "JPEG", "GIF") or "unknown".
func (f Format) String() string {
	if p, ok := Lookup(f); ok {
		return p.Name
	}
	return "unknown"
}

// Mime returns the canonical MIME type, or "" for Unknown.
func (f Format) Mime() string {
	p, _ := Lookup(f)
	return p.Mime
}

// Extension returns the canonical file extension including the dot, or ""
// for Unknown.
func (f Format) Extension() string {
	p, ok := Lookup(f)
	if !ok {
		return ""
	}
	return p.Extensions[0]
}

// MarshalText renders the format name so it reads well in JSON output.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// FromExtension maps a file extension (with or without the dot, any case)
// to a format.
func FromExtension(ext string) (Format, bool) {
	ext = strings.ToLower(ext)
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	for _, f := range Supported() {
		for _, e := range policies[f].Extensions {
			if e == ext {
				return f, true
			}
		}
	}
	return Unknown, false
}

// FromMime maps a MIME content type to a format. Parameters after ';' are
// ignored.
func FromMime(mime string) (Format, bool) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	for _, f := range Supported() {
		if policies[f].Mime == mime {
			return f, true
		}
	}
	return Unknown, false
}

// Parse maps a case-insensitive format name ("png", "jpeg", "jpg", "gif").
func Parse(name string) (Format, bool) {
	switch strings.ToLower(name) {
	case "png":
		return PNG, true
	case "jpeg", "jpg":
		return JPEG, true
	case "gif":
		return GIF, true
	default:
		return Unknown, false
	}
}
