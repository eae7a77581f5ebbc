package server

import (
	"context"
	"fmt"
	"image"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ironsheep/imagekit/internal/format"
	"github.com/ironsheep/imagekit/internal/imaging"
	"github.com/ironsheep/imagekit/internal/pipeline"
	"github.com/ironsheep/imagekit/internal/raster"
)

const defaultDominantColors = 5

// === Handles ===

func (s *Server) handleOpen(ctx context.Context, req *mcp.CallToolRequest, in OpenInput) (*mcp.CallToolResult, InfoOutput, error) {
	img, err := imaging.Open(in.Path, s.opts...)
	if err != nil {
		return nil, InfoOutput{}, err
	}
	id, err := s.images.Add(img)
	if err != nil {
		img.Destroy()
		return nil, InfoOutput{}, err
	}
	s.log.Debug("image opened", "handle", id, "path", img.Path(), "format", img.Format())
	return nil, InfoOutput{Handle: id, Info: img.Info()}, nil
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest, in HandleInput) (*mcp.CallToolResult, InfoOutput, error) {
	return s.info(in.Handle, nil)
}

func (s *Server) handleClose(ctx context.Context, req *mcp.CallToolRequest, in HandleInput) (*mcp.CallToolResult, CloseOutput, error) {
	if err := s.images.Close(in.Handle); err != nil {
		return nil, CloseOutput{}, err
	}
	s.log.Debug("image closed", "handle", in.Handle)
	return nil, CloseOutput{Handle: in.Handle, Closed: true}, nil
}

func (s *Server) handleList(ctx context.Context, req *mcp.CallToolRequest, in ListInput) (*mcp.CallToolResult, ListOutput, error) {
	return nil, ListOutput{Handles: s.images.List()}, nil
}

// info runs fn on the handle, when given, and reports the resulting state.
func (s *Server) info(id string, fn func(img *imaging.Image) error) (*mcp.CallToolResult, InfoOutput, error) {
	var out InfoOutput
	err := s.images.With(id, func(img *imaging.Image) error {
		if fn != nil {
			if err := fn(img); err != nil {
				return err
			}
		}
		out = InfoOutput{Handle: id, Info: img.Info()}
		return nil
	})
	if err != nil {
		return nil, InfoOutput{}, err
	}
	return nil, out, nil
}

// === Transforms ===

func (s *Server) handleApply(ctx context.Context, req *mcp.CallToolRequest, in ApplyInput) (*mcp.CallToolResult, InfoOutput, error) {
	p, err := pipeline.Parse(in.Ops)
	if err != nil {
		return nil, InfoOutput{}, err
	}
	return s.info(in.Handle, func(img *imaging.Image) error {
		return p.Apply(img, s.openWatermark)
	})
}

func (s *Server) openWatermark(path string) (*imaging.Image, error) {
	return imaging.Open(path, s.opts...)
}

func (s *Server) handleCrop(ctx context.Context, req *mcp.CallToolRequest, in CropInput) (*mcp.CallToolResult, InfoOutput, error) {
	return s.info(in.Handle, func(img *imaging.Image) error {
		return img.Crop(in.Width, in.Height, in.Left, in.Top)
	})
}

func (s *Server) handleScale(ctx context.Context, req *mcp.CallToolRequest, in ScaleInput) (*mcp.CallToolResult, InfoOutput, error) {
	height := in.Height
	if height == 0 {
		height = imaging.ProportionalHeight
	}
	return s.info(in.Handle, func(img *imaging.Image) error {
		return img.Scale(in.Width, height)
	})
}

func (s *Server) handleRotate(ctx context.Context, req *mcp.CallToolRequest, in RotateInput) (*mcp.CallToolResult, InfoOutput, error) {
	return s.info(in.Handle, func(img *imaging.Image) error {
		return img.Rotate(in.Angle)
	})
}

func (s *Server) handleFlip(ctx context.Context, req *mcp.CallToolRequest, in FlipInput) (*mcp.CallToolResult, InfoOutput, error) {
	return s.info(in.Handle, func(img *imaging.Image) error {
		return img.Flip(in.Direction)
	})
}

func (s *Server) handleFlatten(ctx context.Context, req *mcp.CallToolRequest, in FlattenInput) (*mcp.CallToolResult, InfoOutput, error) {
	if in.Color == "" {
		return s.info(in.Handle, (*imaging.Image).FlattenDefault)
	}
	c, err := pipeline.ParseColor(in.Color)
	if err != nil {
		return nil, InfoOutput{}, &imaging.Error{Kind: imaging.ErrInvalidInput, Op: "flatten", Msg: err.Error()}
	}
	return s.info(in.Handle, func(img *imaging.Image) error {
		return img.Flatten(c[0], c[1], c[2])
	})
}

func (s *Server) handleFilter(ctx context.Context, req *mcp.CallToolRequest, in FilterInput) (*mcp.CallToolResult, InfoOutput, error) {
	f, ok := raster.ParseFilter(in.Filter)
	if !ok {
		return nil, InfoOutput{}, &imaging.Error{Kind: imaging.ErrInvalidInput, Op: "filter", Msg: fmt.Sprintf("unknown filter %q", in.Filter)}
	}
	return s.info(in.Handle, func(img *imaging.Image) error {
		return img.Filter(f, in.Args...)
	})
}

func (s *Server) handleOpacity(ctx context.Context, req *mcp.CallToolRequest, in OpacityInput) (*mcp.CallToolResult, InfoOutput, error) {
	return s.info(in.Handle, func(img *imaging.Image) error {
		return img.Opacity(in.Percent)
	})
}

func (s *Server) handleWatermark(ctx context.Context, req *mcp.CallToolRequest, in WatermarkInput) (*mcp.CallToolResult, InfoOutput, error) {
	switch {
	case in.WatermarkHandle != "":
		if in.WatermarkHandle == in.Handle {
			return nil, InfoOutput{}, &imaging.Error{Kind: imaging.ErrInvalidInput, Op: "watermark", Msg: "an image cannot watermark itself"}
		}
		// The mark is rendered to a private copy first so only one handle is
		// locked at a time.
		var mark *imaging.Image
		err := s.images.With(in.WatermarkHandle, func(src *imaging.Image) error {
			var err error
			mark, err = copyImage(src, s.opts)
			return err
		})
		if err != nil {
			return nil, InfoOutput{}, err
		}
		defer mark.Destroy()
		return s.info(in.Handle, func(img *imaging.Image) error {
			return img.Watermark(mark, in.Left, in.Top)
		})

	case in.WatermarkPath != "":
		mark, err := s.openWatermark(in.WatermarkPath)
		if err != nil {
			return nil, InfoOutput{}, err
		}
		defer mark.Destroy()
		return s.info(in.Handle, func(img *imaging.Image) error {
			return img.Watermark(mark, in.Left, in.Top)
		})
	}
	return nil, InfoOutput{}, &imaging.Error{Kind: imaging.ErrInvalidInput, Op: "watermark", Msg: "watermark_handle or watermark_path is required"}
}

// copyImage snapshots src into a new handle sharing no pixels with it.
func copyImage(src *imaging.Image, opts []imaging.Option) (*imaging.Image, error) {
	return imaging.FromRaster(raster.New(src.Raster().Image()), src.Format(), opts...)
}

// === Metadata ===

func (s *Server) handleResolution(ctx context.Context, req *mcp.CallToolRequest, in ResolutionInput) (*mcp.CallToolResult, ResolutionOutput, error) {
	var out ResolutionOutput
	err := s.images.With(in.Handle, func(img *imaging.Image) error {
		if in.Horizontal != 0 || in.Vertical != 0 {
			v := in.Vertical
			if v == 0 {
				v = in.Horizontal
			}
			if err := img.SetResolution(in.Horizontal, v); err != nil {
				return err
			}
		}
		h, v, err := img.Resolution()
		out = ResolutionOutput{Horizontal: h, Vertical: v}
		return err
	})
	if err != nil {
		return nil, ResolutionOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleQuality(ctx context.Context, req *mcp.CallToolRequest, in QualityInput) (*mcp.CallToolResult, QualityOutput, error) {
	var out QualityOutput
	err := s.images.With(in.Handle, func(img *imaging.Image) error {
		if in.Quality != nil {
			if err := img.SetQuality(*in.Quality); err != nil {
				return err
			}
		}
		if q, ok := img.Quality(); ok {
			out = QualityOutput{Applicable: true, Quality: &q}
		}
		return nil
	})
	if err != nil {
		return nil, QualityOutput{}, err
	}
	return nil, out, nil
}

// === Output ===

func (s *Server) handleSave(ctx context.Context, req *mcp.CallToolRequest, in SaveInput) (*mcp.CallToolResult, SaveOutput, error) {
	var out SaveOutput
	err := s.images.With(in.Handle, func(img *imaging.Image) error {
		if err := img.Save(in.Path); err != nil {
			return err
		}
		out.Path = in.Path
		if out.Path == "" {
			out.Path = img.Path()
		}
		return nil
	})
	if err != nil {
		return nil, SaveOutput{}, err
	}
	s.log.Info("image saved", "handle", in.Handle, "path", out.Path)
	return nil, out, nil
}

func (s *Server) handleRender(ctx context.Context, req *mcp.CallToolRequest, in HandleInput) (*mcp.CallToolResult, RenderOutput, error) {
	var (
		data []byte
		mime string
	)
	err := s.images.With(in.Handle, func(img *imaging.Image) error {
		var err error
		data, err = img.Render()
		mime = img.Mime()
		return err
	})
	if err != nil {
		return nil, RenderOutput{}, err
	}
	res := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.ImageContent{Data: data, MIMEType: mime}},
	}
	return res, RenderOutput{Mime: mime, Bytes: len(data)}, nil
}

func (s *Server) handleDataURI(ctx context.Context, req *mcp.CallToolRequest, in HandleInput) (*mcp.CallToolResult, DataURIOutput, error) {
	var out DataURIOutput
	err := s.images.With(in.Handle, func(img *imaging.Image) error {
		uri, err := img.DataURI()
		out = DataURIOutput{DataURI: uri, Mime: img.Mime()}
		return err
	})
	if err != nil {
		return nil, DataURIOutput{}, err
	}
	return nil, out, nil
}

// === Inspection ===

func (s *Server) handleSampleColor(ctx context.Context, req *mcp.CallToolRequest, in SampleColorInput) (*mcp.CallToolResult, imaging.ColorResult, error) {
	var out imaging.ColorResult
	err := s.images.With(in.Handle, func(img *imaging.Image) error {
		c, err := img.SampleColor(in.X, in.Y)
		if err != nil {
			return err
		}
		out = *c
		return nil
	})
	if err != nil {
		return nil, imaging.ColorResult{}, err
	}
	return nil, out, nil
}

func (s *Server) handleDominantColors(ctx context.Context, req *mcp.CallToolRequest, in DominantColorsInput) (*mcp.CallToolResult, DominantColorsOutput, error) {
	count := in.Count
	if count == 0 {
		count = defaultDominantColors
	}
	var region image.Rectangle
	if in.Width > 0 && in.Height > 0 {
		region = image.Rect(in.Left, in.Top, in.Left+in.Width, in.Top+in.Height)
	}

	var out DominantColorsOutput
	err := s.images.With(in.Handle, func(img *imaging.Image) error {
		colors, err := img.DominantColors(count, region)
		out.Colors = colors
		return err
	})
	if err != nil {
		return nil, DominantColorsOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleIsAcceptable(ctx context.Context, req *mcp.CallToolRequest, in OpenInput) (*mcp.CallToolResult, AcceptableOutput, error) {
	return nil, AcceptableOutput{Path: in.Path, Acceptable: imaging.IsAcceptable(in.Path)}, nil
}

func (s *Server) handleFormats(ctx context.Context, req *mcp.CallToolRequest, in FormatsInput) (*mcp.CallToolResult, FormatsOutput, error) {
	var out FormatsOutput
	for _, f := range format.Supported() {
		p, _ := format.Lookup(f)
		out.Formats = append(out.Formats, FormatPolicy{
			Name:              p.Name,
			Mime:              p.Mime,
			Extensions:        p.Extensions,
			QualityApplicable: p.QualityApplicable,
			MinQuality:        p.MinQuality,
			MaxQuality:        p.MaxQuality,
			DefaultQuality:    p.DefaultQuality,
			PreserveAlpha:     p.PreserveAlpha,
		})
	}
	return nil, out, nil
}
