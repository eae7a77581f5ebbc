package imaging

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/imagekit/internal/format"
)

// Save encodes the image to path, or to the source path when path is empty.
// The file is written through a temporary file in the same directory and
// renamed into place, so a failed save leaves any existing file intact.
func (img *Image) Save(path string) error {
	if err := img.live("save"); err != nil {
		return err
	}
	if path == "" {
		path = img.path
	}
	if path == "" {
		return invalidInput("save", "image has no source path; a target path is required")
	}
	quality, _ := img.Quality()

	mode := os.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return encodeFailed("save", "image could not be saved", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := img.backend.Encode(tmp, img.raster, img.format, quality); err != nil {
		tmp.Close()
		return encodeFailed("save", "image could not be saved", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return encodeFailed("save", "image could not be saved", err)
	}
	if err := tmp.Close(); err != nil {
		return encodeFailed("save", "image could not be saved", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return encodeFailed("save", "image could not be saved", err)
	}

	img.log.Debug("image saved", "path", path, "format", img.format, "quality", quality)
	return nil
}

// Send writes the encoded image to w, the way it would go to an output
// device. For formats that preserve alpha the raster is switched to saving
// alpha first, and stays that way.
func (img *Image) Send(w io.Writer) error {
	if err := img.live("send"); err != nil {
		return err
	}
	if p, _ := format.Lookup(img.format); p.PreserveAlpha {
		if err := img.backend.SetSaveAlpha(img.raster, true); err != nil {
			return encodeFailed("send", "image could not be sent", err)
		}
	}
	quality, _ := img.Quality()
	if err := img.backend.Encode(w, img.raster, img.format, quality); err != nil {
		return encodeFailed("send", "image could not be sent", err)
	}
	return nil
}

// Render returns the bytes Send would write.
func (img *Image) Render() ([]byte, error) {
	if err := img.live("render"); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := img.Send(&buf); err != nil {
		return nil, encodeFailed("render", "image could not be rendered", errors.Unwrap(err))
	}
	if buf.Len() == 0 {
		return nil, encodeFailed("render", "image could not be rendered", nil)
	}
	return buf.Bytes(), nil
}

// DataURI returns the rendered image as a base64 data URI.
func (img *Image) DataURI() (string, error) {
	data, err := img.Render()
	if err != nil {
		return "", err
	}
	return "data:" + img.mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// MarshalJSON encodes the image as its data URI string.
func (img *Image) MarshalJSON() ([]byte, error) {
	uri, err := img.DataURI()
	if err != nil {
		return nil, err
	}
	return json.Marshal(uri)
}
