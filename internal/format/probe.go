package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF config decoder
	_ "image/jpeg" // Register JPEG config decoder
	_ "image/png"  // Register PNG config decoder
	"io"
	"os"
)

// DefaultDPI is the resolution reported for images whose header carries none.
const DefaultDPI = 96

var (
	pngSignature  = [...]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	riffSignature = [...]byte{0x52, 0x49, 0x46, 0x46}
	webpSignature = [...]byte{0x57, 0x45, 0x42, 0x50}
	jfifID        = [...]byte{'J', 'F', 'I', 'F', 0x00}
)

// Header is what a probe learns about an image without decoding its pixels.
type Header struct {
	Format Format `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mime   string `json:"mime"`

	// HorizontalDPI and VerticalDPI come from the PNG pHYs chunk or the JPEG
	// JFIF density. They are DefaultDPI when HasResolution is false.
	HorizontalDPI int  `json:"horizontal_dpi"`
	VerticalDPI   int  `json:"vertical_dpi"`
	HasResolution bool `json:"has_resolution"`
}

// Detect identifies the image format from its leading magic bytes.
//
// The returned name is non-empty whenever a known signature matched, even for
// formats outside the supported set; in that case the Format is Unknown. An
// empty name means the bytes are not a recognised image at all.
func Detect(magic []byte) (Format, string) {
	switch {
	case len(magic) >= 3 && magic[0] == 0xFF && magic[1] == 0xD8 && magic[2] == 0xFF:
		return JPEG, "JPEG"
	case bytes.HasPrefix(magic, pngSignature[:]):
		return PNG, "PNG"
	case len(magic) >= 6 && bytes.HasPrefix(magic, []byte("GIF8")) &&
		(magic[4] == '7' || magic[4] == '9') && magic[5] == 'a':
		return GIF, "GIF"
	case len(magic) >= 12 && bytes.HasPrefix(magic, riffSignature[:]) &&
		bytes.Equal(magic[8:12], webpSignature[:]):
		return Unknown, "WebP"
	case len(magic) >= 2 && magic[0] == 'B' && magic[1] == 'M':
		return Unknown, "BMP"
	}
	return Unknown, ""
}

// ProbeFile opens path and probes it. See Probe.
func ProbeFile(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// Probe reads only the format-detection header of r and reports the declared
// dimensions, format, MIME type and resolution.
//
// # Errors
//
//   - ErrUnrecognized when no known signature matches
//   - ErrUnsupported when the signature is a known format outside PNG/JPEG/GIF
//   - ErrInvalidHeader when the header after the signature cannot be parsed
func Probe(r io.ReadSeeker) (*Header, error) {
	magic := make([]byte, 12)
	n, err := io.ReadFull(r, magic)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	f, name := Detect(magic[:n])
	if name == "" {
		return nil, ErrUnrecognized
	}
	if f == Unknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	h := &Header{
		Format:        f,
		Width:         cfg.Width,
		Height:        cfg.Height,
		Mime:          f.Mime(),
		HorizontalDPI: DefaultDPI,
		VerticalDPI:   DefaultDPI,
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var hd, vd int
	var ok bool
	switch f {
	case PNG:
		hd, vd, ok = readPNGResolution(r)
	case JPEG:
		hd, vd, ok = readJFIFResolution(r)
	case GIF:
		// GIF has no resolution record.
	}
	if ok {
		h.HorizontalDPI, h.VerticalDPI, h.HasResolution = hd, vd, true
	}

	return h, nil
}

// maxHeaderChunks bounds the walk over leading chunks/segments.
const maxHeaderChunks = 64

// readPNGResolution walks the chunks before the first IDAT looking for pHYs
// in pixels per metre.
func readPNGResolution(r io.Reader) (int, int, bool) {
	if _, err := io.CopyN(io.Discard, r, int64(len(pngSignature))); err != nil {
		return 0, 0, false
	}

	hdr := make([]byte, 8)
	for i := 0; i < maxHeaderChunks; i++ {
		if _, err := io.ReadFull(r, hdr); err != nil {
			return 0, 0, false
		}
		length := int64(binary.BigEndian.Uint32(hdr[0:4]))
		switch string(hdr[4:8]) {
		case "pHYs":
			if length != 9 {
				return 0, 0, false
			}
			data := make([]byte, 9)
			if _, err := io.ReadFull(r, data); err != nil {
				return 0, 0, false
			}
			if data[8] != 1 { // unit is not the metre: aspect ratio only
				return 0, 0, false
			}
			return dpmToDPI(binary.BigEndian.Uint32(data[0:4])),
				dpmToDPI(binary.BigEndian.Uint32(data[4:8])), true
		case "IDAT", "IEND":
			return 0, 0, false
		}
		if _, err := io.CopyN(io.Discard, r, length+4); err != nil {
			return 0, 0, false
		}
	}
	return 0, 0, false
}

// readJFIFResolution walks the JPEG segments before SOS looking for a JFIF
// APP0 density.
func readJFIFResolution(r io.Reader) (int, int, bool) {
	soi := make([]byte, 2)
	if _, err := io.ReadFull(r, soi); err != nil {
		return 0, 0, false
	}

	marker := make([]byte, 2)
	for i := 0; i < maxHeaderChunks; i++ {
		if _, err := io.ReadFull(r, marker); err != nil || marker[0] != 0xFF {
			return 0, 0, false
		}
		switch marker[1] {
		case 0xDA, 0xD9: // SOS, EOI
			return 0, 0, false
		}
		if _, err := io.ReadFull(r, soi); err != nil {
			return 0, 0, false
		}
		length := int(binary.BigEndian.Uint16(soi)) - 2
		if length < 0 {
			return 0, 0, false
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, 0, false
		}
		if marker[1] != 0xE0 || length < 12 || !bytes.HasPrefix(payload, jfifID[:]) {
			continue
		}
		xd := int(binary.BigEndian.Uint16(payload[8:10]))
		yd := int(binary.BigEndian.Uint16(payload[10:12]))
		switch payload[7] {
		case 1:
			return xd, yd, true
		case 2:
			return int(float64(xd)*2.54 + 0.5), int(float64(yd)*2.54 + 0.5), true
		}
		return 0, 0, false
	}
	return 0, 0, false
}

func dpmToDPI(dpm uint32) int {
	return int(float64(dpm)*0.0254 + 0.5)
}

func dpiToDPM(dpi int) uint32 {
	return uint32(float64(dpi)/0.0254 + 0.5)
}
