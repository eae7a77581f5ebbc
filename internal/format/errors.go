package format

import "errors"

var (
	// ErrUnrecognized is returned when the header matches no known signature.
	ErrUnrecognized = errors.New("format: unrecognized image data")

	// ErrUnsupported is returned when the header is a known image format
	// outside the supported set (for example WebP or BMP).
	ErrUnsupported = errors.New("format: unsupported image type")

	// ErrInvalidHeader indicates a recognised signature followed by a
	// malformed or truncated header.
	ErrInvalidHeader = errors.New("format: invalid header")

	// ErrResolutionRange is returned when a resolution does not fit the
	// format's header record.
	ErrResolutionRange = errors.New("format: resolution out of range")
)
