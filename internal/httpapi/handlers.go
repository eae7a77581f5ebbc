package httpapi

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rcrowley/go-metrics"

	"github.com/ironsheep/imagekit/internal/imaging"
	"github.com/ironsheep/imagekit/internal/pipeline"
)

var (
	errOutsideRoot = errors.New("path is outside the image root")
	errNotFound    = errors.New("image not found")
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	metrics.WriteJSONOnce(s.metrics, w)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	s.withImage(w, r, func(img *imaging.Image) {
		data, err := img.Render()
		if err != nil {
			writeImageError(w, err)
			return
		}
		w.Header().Set("Content-Type", img.Mime())
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		if s.cfg.CacheMaxAge > 0 {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", s.cfg.CacheMaxAge))
		}
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.withImage(w, r, func(img *imaging.Image) {
		writeJSON(w, http.StatusOK, img.Info())
	})
}

func (s *Server) handleDataURI(w http.ResponseWriter, r *http.Request) {
	s.withImage(w, r, func(img *imaging.Image) {
		uri, err := img.DataURI()
		if err != nil {
			writeImageError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(uri))
	})
}

// withImage opens the named image, applies the op query parameters and hands
// the result to fn. The image is destroyed when fn returns.
func (s *Server) withImage(w http.ResponseWriter, r *http.Request, fn func(img *imaging.Image)) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image name")
		return
	}

	p, err := pipeline.Parse(r.URL.Query()["op"])
	if err != nil {
		writeImageError(w, err)
		return
	}

	path, err := s.resolve(name)
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s: %s", errNotFound, name))
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := imaging.Open(path, s.opts...)
	if err != nil {
		writeImageError(w, err)
		return
	}
	defer img.Destroy()

	if err := p.Apply(img, s.openWatermark); err != nil {
		s.logger.Debug("pipeline failed", "name", name, "ops", p.String(), "error", err)
		writeImageError(w, err)
		return
	}
	fn(img)
}

// openWatermark opens a watermark named in an op, confined to the root like
// the image itself.
func (s *Server) openWatermark(path string) (*imaging.Image, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return nil, &imaging.Error{
			Kind: imaging.ErrInvalidInput,
			Op:   "watermark",
			Msg:  fmt.Sprintf("watermark %s: %v", path, err),
			Err:  err,
		}
	}
	return imaging.Open(resolved, s.opts...)
}

// resolve maps a name relative to the root onto a file path. Both the lexical
// path and the symlink-free path must stay inside the root.
func (s *Server) resolve(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.ContainsRune(name, 0) {
		return "", errOutsideRoot
	}
	joined := filepath.Join(s.root, filepath.FromSlash(name))
	if !s.inside(joined) {
		return "", errOutsideRoot
	}

	if _, err := os.Stat(joined); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errNotFound
		}
		return "", err
	}

	canonical, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", err
	}
	if !s.inside(canonical) {
		return "", errOutsideRoot
	}
	return canonical, nil
}

func (s *Server) inside(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
