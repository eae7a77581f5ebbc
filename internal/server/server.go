package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ironsheep/imagekit/internal/config"
	"github.com/ironsheep/imagekit/internal/imaging"
)

const instructions = "imagekit edits raster images in place. Call image_open with a file path " +
	"to get a handle, apply operations to the handle (crop, scale, rotate, flip, flatten, " +
	"filter, opacity, watermark, or a list of ops with image_apply), then persist with " +
	"image_save or inspect with image_render / image_data_uri. Close handles you no longer need."

// Server exposes image handles as MCP tools.
type Server struct {
	cfg    config.ServerConfig
	log    *slog.Logger
	images *Registry
	mcp    *mcp.Server
	opts   []imaging.Option
}

// New creates a server with every tool registered. opts are applied to each
// image the server opens.
func New(cfg config.ServerConfig, log *slog.Logger, opts ...imaging.Option) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		cfg:    cfg,
		log:    log,
		images: NewRegistry(cfg.MaxHandles),
		opts:   append([]imaging.Option{imaging.WithLogger(log)}, opts...),
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Title:   "imagekit image editor",
		Version: cfg.Version,
	}, &mcp.ServerOptions{
		Instructions: instructions,
	})
	s.registerTools()
	return s
}

// Run serves MCP over stdin/stdout until ctx is done or the client hangs up.
// Open handles are destroyed on return.
func (s *Server) Run(ctx context.Context) error {
	defer s.images.CloseAll()
	s.log.Info("mcp server starting", "name", s.cfg.Name, "version", s.cfg.Version, "max_handles", s.cfg.MaxHandles)
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// Connect serves a single session over t. It is used by tests and by
// embedders that bring their own transport.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}

// Images returns the handle registry.
func (s *Server) Images() *Registry {
	return s.images
}

// Close destroys every open handle.
func (s *Server) Close() {
	s.images.CloseAll()
}
