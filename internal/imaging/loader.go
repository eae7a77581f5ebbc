package imaging

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/imagekit/internal/format"
)

// Open loads the image at path.
//
// The path is made absolute with symlinks resolved and must name a readable
// regular file. The format is taken from the file's magic bytes, never from
// its extension, and the pixels are decoded with that format's decoder.
// Resolution metadata found in the header (PNG pHYs, JPEG JFIF density) is
// installed on the decoded raster.
//
// # Errors
//
//   - ErrInvalidInput when the file is missing, unreadable or not a regular file
//   - ErrUnsupported when the header cannot be probed, the format is outside
//     PNG/JPEG/GIF, or decoding does not yield a raster
func Open(path string, opts ...Option) (*Image, error) {
	canonical, err := resolvePath(path)
	if err != nil {
		return nil, &Error{
			Kind: ErrInvalidInput,
			Op:   "open",
			Msg:  fmt.Sprintf("file does not exist or is not readable: %s", path),
			Err:  err,
		}
	}

	hdr, err := format.ProbeFile(canonical)
	if err != nil {
		if errors.Is(err, format.ErrUnsupported) {
			return nil, unsupported("open", err, "unsupported image type: %s", canonical)
		}
		return nil, unsupported("open", err, "could not get image info from %s", canonical)
	}

	img := newImage(opts)
	img.path = canonical

	f, err := os.Open(canonical)
	if err != nil {
		return nil, &Error{
			Kind: ErrInvalidInput,
			Op:   "open",
			Msg:  fmt.Sprintf("file does not exist or is not readable: %s", path),
			Err:  err,
		}
	}
	defer f.Close()

	r, err := img.backend.Decode(bufio.NewReader(f), hdr.Format)
	if err != nil {
		return nil, unsupported("open", err, "image of type %s did not yield a raster", hdr.Format)
	}
	if hdr.HasResolution {
		if err := img.backend.SetResolution(r, hdr.HorizontalDPI, hdr.VerticalDPI); err != nil {
			img.log.Debug("ignoring header resolution", "path", canonical, "error", err)
		}
	}

	img.install(r, hdr.Format)
	img.log.Debug("image opened", "path", canonical, "format", hdr.Format,
		"width", r.Width(), "height", r.Height())
	return img, nil
}

// resolvePath returns the absolute, symlink-free form of path after checking
// it names a readable regular file.
func resolvePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(canonical)
	if err != nil {
		return "", err
	}
	if !st.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", canonical)
	}
	f, err := os.Open(canonical)
	if err != nil {
		return "", err
	}
	f.Close()
	return canonical, nil
}

// IsAcceptable reports whether path names a readable file whose header is a
// supported image. Pixels are not decoded and no error is ever returned.
func IsAcceptable(path string) bool {
	canonical, err := resolvePath(path)
	if err != nil {
		return false
	}
	_, err = format.ProbeFile(canonical)
	return err == nil
}
