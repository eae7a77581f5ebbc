package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/imagekit/internal/imaging"
)

// Registry holds the image handles opened by MCP clients, keyed by a random
// ID handed back from image_open.
//
// Registry is safe for concurrent use. Each handle also carries its own lock,
// so tool calls on the same handle run one at a time while calls on
// different handles run in parallel.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*handle
	max     int
}

type handle struct {
	mu     sync.Mutex
	img    *imaging.Image
	opened time.Time
}

// ErrUnknownHandle is returned for an ID that was never opened or is closed.
var ErrUnknownHandle = errors.New("unknown image handle")

// NewRegistry creates an empty registry holding at most max handles.
func NewRegistry(max int) *Registry {
	return &Registry{
		handles: make(map[string]*handle),
		max:     max,
	}
}

// Add registers img and returns its new ID. It fails when the registry is
// full; the caller keeps ownership of img in that case.
func (r *Registry) Add(img *imaging.Image) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.handles) >= r.max {
		return "", fmt.Errorf("too many open images (limit %d): close one with image_close first", r.max)
	}
	id := uuid.NewString()
	r.handles[id] = &handle{img: img, opened: time.Now()}
	return id, nil
}

// With runs fn with the image for id while holding the handle's lock.
func (r *Registry) With(id string, fn func(img *imaging.Image) error) error {
	r.mu.RLock()
	h, ok := r.handles[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownHandle, id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.img.Destroyed() {
		return fmt.Errorf("%w: %q", ErrUnknownHandle, id)
	}
	return fn(h.img)
}

// Close destroys the image for id and forgets it.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	h, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownHandle, id)
	}

	h.mu.Lock()
	h.img.Destroy()
	h.mu.Unlock()
	return nil
}

// CloseAll destroys every registered image.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]*handle)
	r.mu.Unlock()

	for _, h := range handles {
		h.mu.Lock()
		h.img.Destroy()
		h.mu.Unlock()
	}
}

// Len returns the number of open handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// HandleSummary describes one open handle.
type HandleSummary struct {
	Handle string       `json:"handle"`
	Opened string       `json:"opened"` // RFC 3339
	Info   imaging.Info `json:"info"`
}

// List summarises the open handles, oldest first.
func (r *Registry) List() []HandleSummary {
	r.mu.RLock()
	ids := make([]string, 0, len(r.handles))
	hs := make(map[string]*handle, len(r.handles))
	for id, h := range r.handles {
		ids = append(ids, id)
		hs[id] = h
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool {
		a, b := hs[ids[i]].opened, hs[ids[j]].opened
		if !a.Equal(b) {
			return a.Before(b)
		}
		return ids[i] < ids[j]
	})

	out := make([]HandleSummary, 0, len(ids))
	for _, id := range ids {
		h := hs[id]
		h.mu.Lock()
		out = append(out, HandleSummary{
			Handle: id,
			Opened: h.opened.UTC().Format(time.RFC3339Nano),
			Info:   h.img.Info(),
		})
		h.mu.Unlock()
	}
	return out
}
