package pipeline

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ironsheep/imagekit/internal/imaging"
	"github.com/ironsheep/imagekit/internal/raster"
)

func TestParseOp(t *testing.T) {
	white := [3]int{255, 255, 255}
	teal := [3]int{0, 128, 128}

	tests := []struct {
		spec string
		want Op
	}{
		{"crop=200x100", Op{Name: "crop", Width: 200, Height: 100}},
		{"crop=200x100+10+20", Op{Name: "crop", Width: 200, Height: 100, Left: 10, Top: 20}},
		{"crop=20x10-5+0", Op{Name: "crop", Width: 20, Height: 10, Left: -5}},
		{"scale=300", Op{Name: "scale", Width: 300, Height: imaging.ProportionalHeight}},
		{"scale=300x50", Op{Name: "scale", Width: 300, Height: 50}},
		{"rotate=90", Op{Name: "rotate", Angle: 90}},
		{"rotate=-12.5", Op{Name: "rotate", Angle: -12.5}},
		{"flip=H", Op{Name: "flip", Direction: "h"}},
		{"flip=both", Op{Name: "flip", Direction: "both"}},
		{"flatten", Op{Name: "flatten"}},
		{"flatten=#ffffff", Op{Name: "flatten", Color: &white}},
		{"flatten=008080", Op{Name: "flatten", Color: &teal}},
		{"flatten=#fff", Op{Name: "flatten", Color: &white}},
		{"flatten=0,128,128", Op{Name: "flatten", Color: &teal}},
		{"filter=negate", Op{Name: "filter", Filter: raster.FilterNegate}},
		{"filter=brightness:-40", Op{Name: "filter", Filter: raster.FilterBrightness, Args: []int{-40}}},
		{"filter=colorize:10,20,30,40", Op{Name: "filter", Filter: raster.FilterColorize, Args: []int{10, 20, 30, 40}}},
		{"opacity=40", Op{Name: "opacity", Value: 40}},
		{"quality=85", Op{Name: "quality", Value: 85}},
		{"resolution=300", Op{Name: "resolution", Width: 300, Height: 300}},
		{"resolution=300x150", Op{Name: "resolution", Width: 300, Height: 150}},
		{"watermark=logo.png", Op{Name: "watermark", Path: "logo.png"}},
		{"watermark=logo.png@-10,-10", Op{Name: "watermark", Path: "logo.png", Left: -10, Top: -10}},
		{"watermark=me@home.png", Op{Name: "watermark", Path: "me@home.png"}},
		{" CROP = 2x2 ", Op{Name: "crop", Width: 2, Height: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseOp(tt.spec)
			if err != nil {
				t.Fatalf("ParseOp(%q) failed: %v", tt.spec, err)
			}
			tt.want.Spec = strings.TrimSpace(tt.spec)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseOp(%q)\n got %+v\nwant %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseOp_Errors(t *testing.T) {
	specs := []string{
		"",
		"=5",
		"crop",
		"crop=200",
		"crop=axb",
		"crop=10x10+5",
		"scale=",
		"scale=-3",
		"rotate=left",
		"flip=diagonal",
		"flatten=#12345",
		"flatten=300,0,0",
		"flatten=chartreuse",
		"filter=sepia",
		"filter=brightness:a",
		"filter=brightness:1,,2",
		"opacity=half",
		"quality=",
		"resolution=72dpi",
		"watermark=",
		"watermark=@1,2",
		"sharpen=2",
	}
	for _, spec := range specs {
		_, err := ParseOp(spec)
		if !errors.Is(err, imaging.ErrInvalidInput) {
			t.Errorf("ParseOp(%q): got %v, want ErrInvalidInput", spec, err)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := map[string][3]int{
		"#FF8040":   {255, 128, 64},
		"ff8040":    {255, 128, 64},
		"#f84":      {255, 136, 68},
		"255,0,10":  {255, 0, 10},
		" #000000 ": {0, 0, 0},
	}
	for in, want := range tests {
		got, err := ParseColor(in)
		if err != nil {
			t.Errorf("ParseColor(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseColor(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	p, err := Parse([]string{"crop=10x10", "rotate=90", "flatten"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(p.Ops) != 3 {
		t.Fatalf("got %d ops, want 3", len(p.Ops))
	}
	if p.String() != "crop=10x10 rotate=90 flatten" {
		t.Errorf("String() = %q", p.String())
	}

	if _, err := Parse([]string{"crop=10x10", "twirl=3"}); !errors.Is(err, imaging.ErrInvalidInput) {
		t.Errorf("bad second spec: got %v, want ErrInvalidInput", err)
	}
}

func writePNG(t *testing.T, name string, w, h int, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

func TestApply(t *testing.T) {
	src := writePNG(t, "src.png", 40, 20, color.NRGBA{R: 255, A: 255})
	img, err := imaging.Open(src)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer img.Destroy()

	p, err := Parse([]string{"crop=30x20+5+0", "rotate=90", "scale=10", "resolution=300x150", "quality=3"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := p.Apply(img, nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if img.Width() != 10 || img.Height() != 15 {
		t.Errorf("size: got %dx%d, want 10x15", img.Width(), img.Height())
	}
	h, v, err := img.Resolution()
	if err != nil || h != 300 || v != 150 {
		t.Errorf("resolution: got %d,%d (%v), want 300,150", h, v, err)
	}
	if q, ok := img.Quality(); !ok || q != 3 {
		t.Errorf("quality: got %d,%v, want 3", q, ok)
	}
}

func TestApply_Watermark(t *testing.T) {
	src := writePNG(t, "src.png", 20, 20, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	mark := writePNG(t, "mark.png", 4, 4, color.NRGBA{B: 255, A: 255})

	img, err := imaging.Open(src)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer img.Destroy()

	p, err := Parse([]string{"watermark=" + mark + "@-2,-2"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var opened []string
	open := func(path string) (*imaging.Image, error) {
		opened = append(opened, path)
		return imaging.Open(path)
	}
	if err := p.Apply(img, open); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(opened) != 1 || opened[0] != mark {
		t.Errorf("opener calls: %v", opened)
	}

	c, err := img.ColorAt(15, 15)
	if err != nil {
		t.Fatalf("ColorAt failed: %v", err)
	}
	if c != (color.NRGBA{B: 255, A: 255}) {
		t.Errorf("watermark pixel: got %+v, want blue", c)
	}
	c, _ = img.ColorAt(2, 2)
	if c != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("untouched pixel: got %+v, want white", c)
	}
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	src := writePNG(t, "src.png", 10, 10, color.NRGBA{G: 255, A: 255})
	img, err := imaging.Open(src)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer img.Destroy()

	p, err := Parse([]string{"crop=4x4", "opacity=140", "crop=2x2"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	err = p.Apply(img, nil)
	if !errors.Is(err, imaging.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "op 2 (opacity=140)") {
		t.Errorf("error should name the failing op: %v", err)
	}
	if img.Width() != 4 || img.Height() != 4 {
		t.Errorf("ops before the failure stay applied: got %dx%d", img.Width(), img.Height())
	}
}

func TestApply_MissingWatermark(t *testing.T) {
	src := writePNG(t, "src.png", 10, 10, color.NRGBA{G: 255, A: 255})
	img, err := imaging.Open(src)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer img.Destroy()

	p, _ := Parse([]string{"watermark=" + filepath.Join(t.TempDir(), "none.png")})
	if err := p.Apply(img, nil); !errors.Is(err, imaging.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}
