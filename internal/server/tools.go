package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ironsheep/imagekit/internal/imaging"
)

// Tool inputs. Fields tagged omitempty are optional.

type OpenInput struct {
	Path string `json:"path" jsonschema:"Path to a PNG, JPEG or GIF file"`
}

type HandleInput struct {
	Handle string `json:"handle" jsonschema:"Handle returned by image_open"`
}

type ApplyInput struct {
	Handle string   `json:"handle" jsonschema:"Handle returned by image_open"`
	Ops    []string `json:"ops" jsonschema:"Operations applied in order, e.g. crop=200x100+10+10, scale=300, rotate=90, flip=h, flatten=#ffffff, filter=brightness:40, opacity=50, resolution=300, quality=80, watermark=/path/logo.png@-10,-10"`
}

type CropInput struct {
	Handle string `json:"handle" jsonschema:"Handle returned by image_open"`
	Width  int    `json:"width" jsonschema:"Width of the kept area in pixels"`
	Height int    `json:"height" jsonschema:"Height of the kept area in pixels"`
	Left   int    `json:"left,omitempty" jsonschema:"X of the kept area's top-left corner (default 0)"`
	Top    int    `json:"top,omitempty" jsonschema:"Y of the kept area's top-left corner (default 0)"`
}

type ScaleInput struct {
	Handle string `json:"handle" jsonschema:"Handle returned by image_open"`
	Width  int    `json:"width" jsonschema:"New width in pixels"`
	Height int    `json:"height,omitempty" jsonschema:"New height in pixels; omit to keep the aspect ratio"`
}

type RotateInput struct {
	Handle string  `json:"handle" jsonschema:"Handle returned by image_open"`
	Angle  float64 `json:"angle" jsonschema:"Clockwise rotation in degrees"`
}

type FlipInput struct {
	Handle    string `json:"handle" jsonschema:"Handle returned by image_open"`
	Direction string `json:"direction" jsonschema:"h (horizontal), v (vertical) or b (both)"`
}

type FlattenInput struct {
	Handle string `json:"handle" jsonschema:"Handle returned by image_open"`
	Color  string `json:"color,omitempty" jsonschema:"Background as #rrggbb or r,g,b (default white)"`
}

type FilterInput struct {
	Handle string `json:"handle" jsonschema:"Handle returned by image_open"`
	Filter string `json:"filter" jsonschema:"One of negate, grayscale, brightness, contrast, colorize, edgedetect, emboss, gaussian_blur, selective_blur, mean_removal, smooth, pixelate"`
	Args   []int  `json:"args,omitempty" jsonschema:"Integer arguments of the filter, e.g. [40] for brightness"`
}

type OpacityInput struct {
	Handle  string `json:"handle" jsonschema:"Handle returned by image_open"`
	Percent int    `json:"percent" jsonschema:"0 (fully transparent) to 100 (unchanged)"`
}

type WatermarkInput struct {
	Handle          string `json:"handle" jsonschema:"Handle of the image to mark"`
	WatermarkHandle string `json:"watermark_handle,omitempty" jsonschema:"Handle of an open image to composite"`
	WatermarkPath   string `json:"watermark_path,omitempty" jsonschema:"File to composite when no watermark_handle is given"`
	Left            int    `json:"left,omitempty" jsonschema:"X offset; negative values are measured from the right edge"`
	Top             int    `json:"top,omitempty" jsonschema:"Y offset; negative values are measured from the bottom edge"`
}

type ResolutionInput struct {
	Handle     string `json:"handle" jsonschema:"Handle returned by image_open"`
	Horizontal int    `json:"horizontal,omitempty" jsonschema:"Horizontal DPI to set; omit both to only read"`
	Vertical   int    `json:"vertical,omitempty" jsonschema:"Vertical DPI to set (defaults to horizontal)"`
}

type QualityInput struct {
	Handle  string `json:"handle" jsonschema:"Handle returned by image_open"`
	Quality *int   `json:"quality,omitempty" jsonschema:"Quality to set: 0-9 for PNG, 0-100 for JPEG; omit to only read"`
}

type SaveInput struct {
	Handle string `json:"handle" jsonschema:"Handle returned by image_open"`
	Path   string `json:"path,omitempty" jsonschema:"Destination file; omit to overwrite the file the image was opened from"`
}

type SampleColorInput struct {
	Handle string `json:"handle" jsonschema:"Handle returned by image_open"`
	X      int    `json:"x" jsonschema:"X coordinate (0 is the left edge)"`
	Y      int    `json:"y" jsonschema:"Y coordinate (0 is the top edge)"`
}

type DominantColorsInput struct {
	Handle string `json:"handle" jsonschema:"Handle returned by image_open"`
	Count  int    `json:"count,omitempty" jsonschema:"Number of colors to return (default 5)"`
	Left   int    `json:"left,omitempty" jsonschema:"Region left edge"`
	Top    int    `json:"top,omitempty" jsonschema:"Region top edge"`
	Width  int    `json:"width,omitempty" jsonschema:"Region width; omit for the whole image"`
	Height int    `json:"height,omitempty" jsonschema:"Region height; omit for the whole image"`
}

type ListInput struct{}

type FormatsInput struct{}

// Tool outputs.

type InfoOutput struct {
	Handle string       `json:"handle"`
	Info   imaging.Info `json:"info"`
}

type CloseOutput struct {
	Handle string `json:"handle"`
	Closed bool   `json:"closed"`
}

type ListOutput struct {
	Handles []HandleSummary `json:"handles"`
}

type ResolutionOutput struct {
	Horizontal int `json:"horizontal"`
	Vertical   int `json:"vertical"`
}

type QualityOutput struct {
	Applicable bool `json:"applicable"`
	Quality    *int `json:"quality,omitempty"`
}

type SaveOutput struct {
	Path string `json:"path"`
}

type DataURIOutput struct {
	DataURI string `json:"data_uri"`
	Mime    string `json:"mime"`
}

type RenderOutput struct {
	Mime  string `json:"mime"`
	Bytes int    `json:"bytes"`
}

type DominantColorsOutput struct {
	Colors []imaging.ColorFrequency `json:"colors"`
}

type AcceptableOutput struct {
	Path       string `json:"path"`
	Acceptable bool   `json:"acceptable"`
}

type FormatPolicy struct {
	Name              string   `json:"name"`
	Mime              string   `json:"mime"`
	Extensions        []string `json:"extensions"`
	QualityApplicable bool     `json:"quality_applicable"`
	MinQuality        int      `json:"min_quality,omitempty"`
	MaxQuality        int      `json:"max_quality,omitempty"`
	DefaultQuality    int      `json:"default_quality,omitempty"`
	PreserveAlpha     bool     `json:"preserve_alpha"`
}

type FormatsOutput struct {
	Formats []FormatPolicy `json:"formats"`
}

func (s *Server) registerTools() {
	// Handles
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_open",
		Description: "Open a PNG, JPEG or GIF file and return a handle for the other image_* tools, with the image's dimensions, format and resolution.",
	}, s.handleOpen)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_info",
		Description: "Describe an open image: dimensions, format, MIME type, quality, resolution and alpha settings.",
	}, s.handleInfo)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_close",
		Description: "Close a handle and free its image. Unsaved changes are lost.",
	}, s.handleClose)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_list",
		Description: "List the open handles, oldest first.",
	}, s.handleList)

	// Transforms
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_apply",
		Description: "Apply a list of operations in order. Stops at the first failing operation; earlier operations stay applied.",
	}, s.handleApply)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_crop",
		Description: "Keep only a width x height area whose top-left corner is (left, top). An area running past the image edge is clipped.",
	}, s.handleCrop)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_scale",
		Description: "Resize the image. Omit height to keep the aspect ratio.",
	}, s.handleScale)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_rotate",
		Description: "Rotate the image clockwise. The canvas grows to fit; new corners are transparent (PNG, GIF) or white (JPEG).",
	}, s.handleRotate)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_flip",
		Description: "Mirror the image horizontally, vertically or both.",
	}, s.handleFlip)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_flatten",
		Description: "Composite the image onto an opaque background color and drop transparency.",
	}, s.handleFlatten)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_filter",
		Description: "Apply a named pixel filter such as grayscale, brightness or gaussian_blur.",
	}, s.handleFilter)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_opacity",
		Description: "Blend the image toward transparency: 100 leaves it unchanged, 0 makes it fully transparent.",
	}, s.handleOpacity)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_watermark",
		Description: "Composite another image (an open handle or a file) on top of this one at (left, top).",
	}, s.handleWatermark)

	// Metadata
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_resolution",
		Description: "Read or set the image's DPI, written to the file on save.",
	}, s.handleResolution)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_quality",
		Description: "Read or set the encoder quality used by image_save and image_render. GIF images have no quality.",
	}, s.handleQuality)

	// Output
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_save",
		Description: "Write the image to a file in its own format. Without a path the source file is overwritten.",
	}, s.handleSave)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_render",
		Description: "Return the current image so it can be viewed.",
	}, s.handleRender)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_data_uri",
		Description: "Return the current image as a data: URI.",
	}, s.handleDataURI)

	// Inspection
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_sample_color",
		Description: "Get the color of the pixel at (x, y) as hex, RGBA and HSL.",
	}, s.handleSampleColor)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_dominant_colors",
		Description: "List the most common colors in the image or in a region, with their share of the pixels.",
	}, s.handleDominantColors)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_is_acceptable",
		Description: "Check whether a file exists, is readable and is a supported image, without opening a handle.",
	}, s.handleIsAcceptable)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "image_formats",
		Description: "List the supported formats with their MIME types, extensions and quality ranges.",
	}, s.handleFormats)
}
