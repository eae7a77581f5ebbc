package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/imagekit/internal/config"
	"github.com/ironsheep/imagekit/internal/imaging"
)

// createTestImageFile writes a solid-color PNG (or GIF when the name ends in
// .gif) and returns its path.
func createTestImageFile(t *testing.T, name string, width, height int, c color.NRGBA) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	if strings.HasSuffix(name, ".gif") {
		require.NoError(t, gif.Encode(f, img, nil))
	} else {
		require.NoError(t, png.Encode(f, img))
	}
	return path
}

func testConfig() config.ServerConfig {
	cfg := config.Default().Server
	cfg.Version = "test"
	return cfg
}

// connect starts srv on an in-memory transport and returns a client session.
func connect(t *testing.T, srv *Server) *mcp.ClientSession {
	t.Helper()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	_, err := srv.Connect(ctx, serverTransport)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "v0.0.1",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		session.Close()
		srv.Close()
	})
	return session
}

func newSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	return connect(t, New(testConfig(), nil))
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, name)
	return res
}

// decode unmarshals the structured output of a successful call.
func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, "tool failed: %s", errorText(res))

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func errorText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// requireToolError asserts the call failed as a tool error mentioning want.
func requireToolError(t *testing.T, res *mcp.CallToolResult, want string) {
	t.Helper()
	require.True(t, res.IsError, "expected a tool error")
	assert.Contains(t, errorText(res), want)
}

func openImage(t *testing.T, session *mcp.ClientSession, path string) string {
	t.Helper()
	out := decode[InfoOutput](t, call(t, session, "image_open", map[string]any{"path": path}))
	require.NotEmpty(t, out.Handle)
	return out.Handle
}

func TestServerHasToolsRegistered(t *testing.T) {
	session := newSession(t)

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	for _, want := range []string{
		"image_open", "image_info", "image_close", "image_list",
		"image_apply", "image_crop", "image_scale", "image_rotate", "image_flip",
		"image_flatten", "image_filter", "image_opacity", "image_watermark",
		"image_resolution", "image_quality",
		"image_save", "image_render", "image_data_uri",
		"image_sample_color", "image_dominant_colors", "image_is_acceptable", "image_formats",
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}
	assert.Len(t, tools.Tools, 22)
}

func TestOpenCropDataURI(t *testing.T) {
	session := newSession(t)
	path := createTestImageFile(t, "red.png", 100, 80, color.NRGBA{R: 255, A: 255})

	opened := decode[InfoOutput](t, call(t, session, "image_open", map[string]any{"path": path}))
	assert.Equal(t, 100, opened.Info.Width)
	assert.Equal(t, 80, opened.Info.Height)
	assert.Equal(t, "PNG", opened.Info.Format)
	assert.Equal(t, "image/png", opened.Info.Mime)
	assert.Equal(t, 96, opened.Info.HorizDPI)

	cropped := decode[InfoOutput](t, call(t, session, "image_crop", map[string]any{
		"handle": opened.Handle, "width": 20, "height": 10, "left": 5, "top": 5,
	}))
	assert.Equal(t, 20, cropped.Info.Width)
	assert.Equal(t, 10, cropped.Info.Height)

	uri := decode[DataURIOutput](t, call(t, session, "image_data_uri", map[string]any{"handle": opened.Handle}))
	assert.True(t, strings.HasPrefix(uri.DataURI, "data:image/png;base64,"), uri.DataURI)
	assert.Equal(t, "image/png", uri.Mime)
}

func TestOpen_Errors(t *testing.T) {
	session := newSession(t)

	res := call(t, session, "image_open", map[string]any{"path": filepath.Join(t.TempDir(), "missing.png")})
	requireToolError(t, res, "file does not exist")

	text := filepath.Join(t.TempDir(), "notes.png")
	require.NoError(t, os.WriteFile(text, []byte("not an image at all"), 0o644))
	res = call(t, session, "image_open", map[string]any{"path": text})
	requireToolError(t, res, "could not get image info")

	bmp := filepath.Join(t.TempDir(), "pic.bmp")
	require.NoError(t, os.WriteFile(bmp, append([]byte("BM"), make([]byte, 64)...), 0o644))
	res = call(t, session, "image_open", map[string]any{"path": bmp})
	requireToolError(t, res, "unsupported image type")
}

func TestUnknownHandle(t *testing.T) {
	session := newSession(t)

	for _, tool := range []string{"image_info", "image_close", "image_render", "image_data_uri"} {
		res := call(t, session, tool, map[string]any{"handle": "nope"})
		requireToolError(t, res, "unknown image handle")
	}
}

func TestMissingRequiredArgument(t *testing.T) {
	session := newSession(t)
	path := createTestImageFile(t, "a.png", 4, 4, color.NRGBA{A: 255})
	h := openImage(t, session, path)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "image_crop",
		Arguments: map[string]any{"handle": h},
	})
	if err == nil {
		assert.True(t, res.IsError, "a crop without a size must be refused")
	}
}

func TestMaxHandles(t *testing.T) {
	cfg := testConfig()
	cfg.MaxHandles = 1
	session := connect(t, New(cfg, nil))
	path := createTestImageFile(t, "a.png", 4, 4, color.NRGBA{A: 255})

	first := openImage(t, session, path)
	requireToolError(t, call(t, session, "image_open", map[string]any{"path": path}), "too many open images")

	closed := decode[CloseOutput](t, call(t, session, "image_close", map[string]any{"handle": first}))
	assert.True(t, closed.Closed)
	openImage(t, session, path)
}

func TestList(t *testing.T) {
	session := newSession(t)
	path := createTestImageFile(t, "a.png", 4, 4, color.NRGBA{A: 255})
	h := openImage(t, session, path)

	out := decode[ListOutput](t, call(t, session, "image_list", map[string]any{}))
	require.Len(t, out.Handles, 1)
	assert.Equal(t, h, out.Handles[0].Handle)
	assert.Equal(t, 4, out.Handles[0].Info.Width)
}

func TestApply(t *testing.T) {
	session := newSession(t)
	path := createTestImageFile(t, "a.png", 100, 80, color.NRGBA{G: 255, A: 255})
	h := openImage(t, session, path)

	out := decode[InfoOutput](t, call(t, session, "image_apply", map[string]any{
		"handle": h,
		"ops":    []string{"scale=50", "rotate=90", "resolution=300"},
	}))
	assert.Equal(t, 40, out.Info.Width)
	assert.Equal(t, 50, out.Info.Height)
	assert.Equal(t, 300, out.Info.HorizDPI)

	res := call(t, session, "image_apply", map[string]any{"handle": h, "ops": []string{"twirl=3"}})
	requireToolError(t, res, "unknown operation")

	res = call(t, session, "image_apply", map[string]any{"handle": h, "ops": []string{"crop=10x10", "opacity=500"}})
	requireToolError(t, res, "op 2")
	info := decode[InfoOutput](t, call(t, session, "image_info", map[string]any{"handle": h}))
	assert.Equal(t, 10, info.Info.Width, "ops before the failure stay applied")
}

func TestTransformTools(t *testing.T) {
	session := newSession(t)
	path := createTestImageFile(t, "a.png", 30, 20, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	h := openImage(t, session, path)

	decode[InfoOutput](t, call(t, session, "image_filter", map[string]any{"handle": h, "filter": "negate"}))
	c := decode[imaging.ColorResult](t, call(t, session, "image_sample_color", map[string]any{"handle": h, "x": 1, "y": 1}))
	assert.Equal(t, "#379BCD", c.Hex)

	out := decode[InfoOutput](t, call(t, session, "image_scale", map[string]any{"handle": h, "width": 15}))
	assert.Equal(t, 15, out.Info.Width)
	assert.Equal(t, 10, out.Info.Height)

	out = decode[InfoOutput](t, call(t, session, "image_rotate", map[string]any{"handle": h, "angle": 90}))
	assert.Equal(t, 10, out.Info.Width)
	assert.Equal(t, 15, out.Info.Height)

	decode[InfoOutput](t, call(t, session, "image_flip", map[string]any{"handle": h, "direction": "v"}))
	requireToolError(t, call(t, session, "image_flip", map[string]any{"handle": h, "direction": "sideways"}), "")

	requireToolError(t, call(t, session, "image_filter", map[string]any{"handle": h, "filter": "sepia"}), "unknown filter")
	requireToolError(t, call(t, session, "image_filter", map[string]any{"handle": h, "filter": "brightness"}), "")

	decode[InfoOutput](t, call(t, session, "image_opacity", map[string]any{"handle": h, "percent": 100}))
	requireToolError(t, call(t, session, "image_opacity", map[string]any{"handle": h, "percent": 101}), "")
}

func TestFlatten(t *testing.T) {
	session := newSession(t)
	path := createTestImageFile(t, "clear.png", 6, 6, color.NRGBA{})
	h := openImage(t, session, path)

	out := decode[InfoOutput](t, call(t, session, "image_flatten", map[string]any{"handle": h, "color": "#336699"}))
	assert.False(t, out.Info.SaveAlpha)

	c := decode[imaging.ColorResult](t, call(t, session, "image_sample_color", map[string]any{"handle": h, "x": 3, "y": 3}))
	assert.Equal(t, "#336699", c.Hex)
	assert.Equal(t, uint8(255), c.RGBA.A)

	requireToolError(t, call(t, session, "image_flatten", map[string]any{"handle": h, "color": "#12"}), "invalid color")
}

func TestWatermark(t *testing.T) {
	session := newSession(t)
	base := openImage(t, session, createTestImageFile(t, "base.png", 20, 20, color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
	markPath := createTestImageFile(t, "mark.png", 4, 4, color.NRGBA{B: 255, A: 255})
	mark := openImage(t, session, markPath)

	decode[InfoOutput](t, call(t, session, "image_watermark", map[string]any{
		"handle": base, "watermark_handle": mark, "left": -2, "top": -2,
	}))
	c := decode[imaging.ColorResult](t, call(t, session, "image_sample_color", map[string]any{"handle": base, "x": 15, "y": 15}))
	assert.Equal(t, "#0000FF", c.Hex)

	decode[InfoOutput](t, call(t, session, "image_watermark", map[string]any{
		"handle": base, "watermark_path": markPath,
	}))
	c = decode[imaging.ColorResult](t, call(t, session, "image_sample_color", map[string]any{"handle": base, "x": 0, "y": 0}))
	assert.Equal(t, "#0000FF", c.Hex)

	// The watermark handle is still usable and unchanged.
	info := decode[InfoOutput](t, call(t, session, "image_info", map[string]any{"handle": mark}))
	assert.Equal(t, 4, info.Info.Width)

	requireToolError(t, call(t, session, "image_watermark", map[string]any{"handle": base, "watermark_handle": base}), "itself")
	requireToolError(t, call(t, session, "image_watermark", map[string]any{"handle": base}), "required")
}

func TestResolutionAndQuality(t *testing.T) {
	session := newSession(t)
	h := openImage(t, session, createTestImageFile(t, "a.png", 4, 4, color.NRGBA{A: 255}))

	res := decode[ResolutionOutput](t, call(t, session, "image_resolution", map[string]any{"handle": h}))
	assert.Equal(t, ResolutionOutput{Horizontal: 96, Vertical: 96}, res)

	res = decode[ResolutionOutput](t, call(t, session, "image_resolution", map[string]any{"handle": h, "horizontal": 300}))
	assert.Equal(t, ResolutionOutput{Horizontal: 300, Vertical: 300}, res)

	q := decode[QualityOutput](t, call(t, session, "image_quality", map[string]any{"handle": h}))
	require.True(t, q.Applicable)
	assert.Equal(t, 6, *q.Quality)

	q = decode[QualityOutput](t, call(t, session, "image_quality", map[string]any{"handle": h, "quality": 9}))
	assert.Equal(t, 9, *q.Quality)

	requireToolError(t, call(t, session, "image_quality", map[string]any{"handle": h, "quality": 10}), "between 0 and 9")

	g := openImage(t, session, createTestImageFile(t, "a.gif", 4, 4, color.NRGBA{A: 255}))
	q = decode[QualityOutput](t, call(t, session, "image_quality", map[string]any{"handle": g}))
	assert.False(t, q.Applicable)
	assert.Nil(t, q.Quality)
	requireToolError(t, call(t, session, "image_quality", map[string]any{"handle": g, "quality": 5}), "do not receive a quality value")
}

func TestSave(t *testing.T) {
	session := newSession(t)
	src := createTestImageFile(t, "a.png", 12, 8, color.NRGBA{R: 255, A: 255})
	h := openImage(t, session, src)

	decode[InfoOutput](t, call(t, session, "image_crop", map[string]any{"handle": h, "width": 6, "height": 4}))

	dst := filepath.Join(t.TempDir(), "out.png")
	out := decode[SaveOutput](t, call(t, session, "image_save", map[string]any{"handle": h, "path": dst}))
	assert.Equal(t, dst, out.Path)

	saved, err := imaging.Open(dst)
	require.NoError(t, err)
	defer saved.Destroy()
	assert.Equal(t, 6, saved.Width())
	assert.Equal(t, 4, saved.Height())

	out = decode[SaveOutput](t, call(t, session, "image_save", map[string]any{"handle": h}))
	resolved, err := filepath.EvalSymlinks(src)
	require.NoError(t, err)
	assert.Equal(t, resolved, out.Path, "no path overwrites the source")
}

func TestRender(t *testing.T) {
	session := newSession(t)
	h := openImage(t, session, createTestImageFile(t, "a.png", 9, 7, color.NRGBA{B: 255, A: 255}))

	res := call(t, session, "image_render", map[string]any{"handle": h})
	require.False(t, res.IsError, errorText(res))
	require.Len(t, res.Content, 1)
	ic, ok := res.Content[0].(*mcp.ImageContent)
	require.True(t, ok, "render returns image content, got %T", res.Content[0])
	assert.Equal(t, "image/png", ic.MIMEType)

	decoded, err := png.Decode(bytes.NewReader(ic.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 9, 7), decoded.Bounds())

	out := decode[RenderOutput](t, res)
	assert.Equal(t, len(ic.Data), out.Bytes)
}

func TestDominantColors(t *testing.T) {
	session := newSession(t)
	h := openImage(t, session, createTestImageFile(t, "a.png", 10, 10, color.NRGBA{R: 255, A: 255}))

	out := decode[DominantColorsOutput](t, call(t, session, "image_dominant_colors", map[string]any{"handle": h}))
	require.Len(t, out.Colors, 1)
	assert.Equal(t, "#F00000", out.Colors[0].Hex)
	assert.Equal(t, float64(100), out.Colors[0].Percentage)

	out = decode[DominantColorsOutput](t, call(t, session, "image_dominant_colors", map[string]any{
		"handle": h, "count": 2, "left": 2, "top": 2, "width": 3, "height": 3,
	}))
	require.Len(t, out.Colors, 1)
}

func TestIsAcceptableAndFormats(t *testing.T) {
	session := newSession(t)
	good := createTestImageFile(t, "a.png", 2, 2, color.NRGBA{A: 255})

	ok := decode[AcceptableOutput](t, call(t, session, "image_is_acceptable", map[string]any{"path": good}))
	assert.True(t, ok.Acceptable)
	bad := decode[AcceptableOutput](t, call(t, session, "image_is_acceptable", map[string]any{"path": good + ".missing"}))
	assert.False(t, bad.Acceptable)

	formats := decode[FormatsOutput](t, call(t, session, "image_formats", map[string]any{}))
	require.Len(t, formats.Formats, 3)
	assert.Equal(t, "PNG", formats.Formats[0].Name)
	assert.Equal(t, 9, formats.Formats[0].MaxQuality)
	assert.Equal(t, []string{".jpeg", ".jpg"}, formats.Formats[1].Extensions)
	assert.Equal(t, 100, formats.Formats[1].MaxQuality)
	assert.False(t, formats.Formats[2].QualityApplicable)
}
