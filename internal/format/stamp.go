package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// pngIHDREnd is the offset just past the IHDR chunk, which the PNG standard
// requires to come first.
const pngIHDREnd = 8 + 4 + 4 + 13 + 4

// StampResolution records a DPI pair in the encoded stream's native header
// and returns the new stream. PNG gets a pHYs chunk right after IHDR, JPEG a
// JFIF APP0 segment right after SOI; an existing record is replaced. GIF has
// no resolution record and is returned unchanged. A value above the format's
// MaxDPI fails with ErrResolutionRange.
func StampResolution(data []byte, f Format, horizontal, vertical int) ([]byte, error) {
	if horizontal <= 0 || vertical <= 0 {
		return nil, fmt.Errorf("resolution must be positive, got %dx%d", horizontal, vertical)
	}
	if err := CheckResolution(f, horizontal, vertical); err != nil {
		return nil, err
	}
	switch f {
	case PNG:
		return stampPNG(data, horizontal, vertical)
	case JPEG:
		return stampJPEG(data, horizontal, vertical)
	case GIF:
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, f)
	}
}

func stampPNG(data []byte, horizontal, vertical int) ([]byte, error) {
	if len(data) < pngIHDREnd || !bytes.HasPrefix(data, pngSignature[:]) ||
		string(data[12:16]) != "IHDR" {
		return nil, fmt.Errorf("%w: PNG stream does not start with IHDR", ErrInvalidHeader)
	}

	phys := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(phys[0:4], 9)
	copy(phys[4:8], "pHYs")
	binary.BigEndian.PutUint32(phys[8:12], dpiToDPM(horizontal))
	binary.BigEndian.PutUint32(phys[12:16], dpiToDPM(vertical))
	phys[16] = 1 // unit: metre
	binary.BigEndian.PutUint32(phys[17:21], crc32.ChecksumIEEE(phys[4:17]))

	out := make([]byte, 0, len(data)+len(phys))
	out = append(out, data[:pngIHDREnd]...)
	out = append(out, phys...)

	// Copy the remaining chunks, dropping any earlier pHYs.
	rest := data[pngIHDREnd:]
	for len(rest) >= 12 {
		size := int(binary.BigEndian.Uint32(rest[0:4])) + 12
		if size > len(rest) {
			return nil, fmt.Errorf("%w: truncated PNG chunk", ErrInvalidHeader)
		}
		if string(rest[4:8]) != "pHYs" {
			out = append(out, rest[:size]...)
		}
		rest = rest[size:]
	}
	return append(out, rest...), nil
}

func stampJPEG(data []byte, horizontal, vertical int) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, fmt.Errorf("%w: JPEG stream does not start with SOI", ErrInvalidHeader)
	}

	app0 := []byte{
		0xFF, 0xE0, 0x00, 0x10,
		'J', 'F', 'I', 'F', 0x00,
		0x01, 0x01, // version 1.01
		0x01,       // units: dots per inch
		0x00, 0x00, // x density
		0x00, 0x00, // y density
		0x00, 0x00, // no thumbnail
	}
	binary.BigEndian.PutUint16(app0[12:14], uint16(horizontal))
	binary.BigEndian.PutUint16(app0[14:16], uint16(vertical))

	rest := data[2:]
	if len(rest) >= 4 && rest[0] == 0xFF && rest[1] == 0xE0 {
		size := int(binary.BigEndian.Uint16(rest[2:4])) + 2
		if size <= len(rest) && bytes.HasPrefix(rest[4:], jfifID[:]) {
			rest = rest[size:]
		}
	}

	out := make([]byte, 0, len(data)+len(app0))
	out = append(out, 0xFF, 0xD8)
	out = append(out, app0...)
	return append(out, rest...), nil
}

// CheckResolution reports whether a DPI pair fits f's resolution record.
// Formats without one accept any value.
func CheckResolution(f Format, horizontal, vertical int) error {
	p, ok := Lookup(f)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupported, f)
	}
	if p.MaxDPI == 0 {
		return nil
	}
	if horizontal > p.MaxDPI || vertical > p.MaxDPI {
		return fmt.Errorf("%w: %s records at most %d DPI, got %dx%d",
			ErrResolutionRange, p.Name, p.MaxDPI, horizontal, vertical)
	}
	return nil
}
