// Package pipeline parses textual operation specs such as "crop=200x200+10+10"
// or "filter=brightness:40" and applies them to an image handle in order.
//
// The grammar, one operation per spec:
//
//	crop=WxH[+L+T]        crop to WxH whose top-left corner is (L,T)
//	scale=W[xH]           resize; a missing H keeps the aspect ratio
//	rotate=DEG            rotate clockwise by DEG degrees
//	flip=h|v|b            also horizontal, vertical, both
//	flatten[=COLOR]       composite onto COLOR (#rrggbb, #rgb or r,g,b; default white)
//	filter=NAME[:a,b,c]   apply a named filter with integer arguments
//	opacity=P             0 (transparent) to 100 (unchanged)
//	resolution=H[xV]      set DPI; a missing V equals H
//	quality=Q             encoder quality for the next save
//	watermark=PATH[@L,T]  composite another image at (L,T), default (0,0)
//
// Every parse error matches imaging.ErrInvalidInput.
package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/imagekit/internal/imaging"
	"github.com/ironsheep/imagekit/internal/raster"
)

// Op is one parsed operation.
type Op struct {
	// Name is the operation keyword, for example "crop".
	Name string
	// Spec is the text the op was parsed from.
	Spec string

	Width, Height int
	Left, Top     int
	Angle         float64
	Direction     string
	Filter        raster.Filter
	Args          []int
	// Color is the flatten background; nil means the default white.
	Color *[3]int
	Path  string
	Value int // opacity percent or quality
}

func (op Op) String() string { return op.Spec }

// Pipeline is an ordered list of operations.
type Pipeline struct {
	Ops []Op
}

// Opener loads the watermark image named by a watermark op.
type Opener func(path string) (*imaging.Image, error)

var (
	cropRE       = regexp.MustCompile(`^(\d+)x(\d+)(?:([+-]\d+)([+-]\d+))?$`)
	sizeRE       = regexp.MustCompile(`^(\d+)(?:x(\d+))?$`)
	placementRE  = regexp.MustCompile(`^(-?\d+),(-?\d+)$`)
	tripletRE    = regexp.MustCompile(`^(\d{1,3}),(\d{1,3}),(\d{1,3})$`)
	shortHexRE   = regexp.MustCompile(`^#?([0-9a-fA-F])([0-9a-fA-F])([0-9a-fA-F])$`)
	hexRE        = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	filterArgsRE = regexp.MustCompile(`^-?\d+(?:,-?\d+)*$`)
)

// Parse parses every spec. The first bad spec fails the whole pipeline.
func Parse(specs []string) (*Pipeline, error) {
	p := &Pipeline{Ops: make([]Op, 0, len(specs))}
	for _, s := range specs {
		op, err := ParseOp(s)
		if err != nil {
			return nil, err
		}
		p.Ops = append(p.Ops, op)
	}
	return p, nil
}

// ParseOp parses a single spec.
func ParseOp(spec string) (Op, error) {
	spec = strings.TrimSpace(spec)
	name, arg, hasArg := strings.Cut(spec, "=")
	name = strings.ToLower(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)
	op := Op{Name: name, Spec: spec}

	if name == "" {
		return op, parseError(spec, "empty operation")
	}
	if !hasArg && name != "flatten" {
		return op, parseError(spec, "%s needs a value", name)
	}

	switch name {
	case "crop":
		m := cropRE.FindStringSubmatch(arg)
		if m == nil {
			return op, parseError(spec, "crop wants WxH or WxH+L+T, got %q", arg)
		}
		op.Width, op.Height = atoi(m[1]), atoi(m[2])
		if m[3] != "" {
			op.Left, op.Top = atoi(m[3]), atoi(m[4])
		}

	case "scale":
		m := sizeRE.FindStringSubmatch(arg)
		if m == nil {
			return op, parseError(spec, "scale wants W or WxH, got %q", arg)
		}
		op.Width, op.Height = atoi(m[1]), imaging.ProportionalHeight
		if m[2] != "" {
			op.Height = atoi(m[2])
		}

	case "rotate":
		a, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return op, parseError(spec, "rotate wants a number of degrees, got %q", arg)
		}
		op.Angle = a

	case "flip":
		d := strings.ToLower(arg)
		if _, ok := imaging.ParseFlip(d); !ok {
			return op, parseError(spec, "flip direction must be h, v or b, got %q", arg)
		}
		op.Direction = d

	case "flatten":
		if arg != "" {
			c, err := ParseColor(arg)
			if err != nil {
				return op, parseError(spec, "%v", err)
			}
			op.Color = &c
		}

	case "filter":
		fname, fargs, _ := strings.Cut(arg, ":")
		f, ok := raster.ParseFilter(fname)
		if !ok {
			return op, parseError(spec, "unknown filter %q", fname)
		}
		op.Filter = f
		if fargs != "" {
			if !filterArgsRE.MatchString(fargs) {
				return op, parseError(spec, "filter arguments must be comma-separated integers, got %q", fargs)
			}
			for _, a := range strings.Split(fargs, ",") {
				op.Args = append(op.Args, atoi(a))
			}
		}

	case "opacity", "quality":
		v, err := strconv.Atoi(arg)
		if err != nil {
			return op, parseError(spec, "%s wants an integer, got %q", name, arg)
		}
		op.Value = v

	case "resolution":
		m := sizeRE.FindStringSubmatch(arg)
		if m == nil {
			return op, parseError(spec, "resolution wants H or HxV, got %q", arg)
		}
		op.Width = atoi(m[1])
		op.Height = op.Width
		if m[2] != "" {
			op.Height = atoi(m[2])
		}

	case "watermark":
		path, at := arg, ""
		if i := strings.LastIndex(arg, "@"); i >= 0 && placementRE.MatchString(arg[i+1:]) {
			path, at = arg[:i], arg[i+1:]
		}
		if path == "" {
			return op, parseError(spec, "watermark needs a file path")
		}
		op.Path = path
		if at != "" {
			m := placementRE.FindStringSubmatch(at)
			op.Left, op.Top = atoi(m[1]), atoi(m[2])
		}

	default:
		return op, parseError(spec, "unknown operation %q", name)
	}
	return op, nil
}

// ParseColor reads "#rrggbb", "#rgb" (the leading # optional) or "r,g,b" with
// channels in 0..255.
func ParseColor(s string) ([3]int, error) {
	s = strings.TrimSpace(s)
	if m := tripletRE.FindStringSubmatch(s); m != nil {
		c := [3]int{atoi(m[1]), atoi(m[2]), atoi(m[3])}
		for _, v := range c {
			if v > 255 {
				return [3]int{}, fmt.Errorf("color channel %d outside 0..255", v)
			}
		}
		return c, nil
	}
	if m := shortHexRE.FindStringSubmatch(s); m != nil {
		s = "#" + m[1] + m[1] + m[2] + m[2] + m[3] + m[3]
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if !hexRE.MatchString(s) {
		return [3]int{}, fmt.Errorf("invalid color %q", s)
	}
	col, err := colorful.Hex(s)
	if err != nil {
		return [3]int{}, fmt.Errorf("invalid color %q", s)
	}
	r, g, b := col.RGB255()
	return [3]int{int(r), int(g), int(b)}, nil
}

// Apply runs every op against img in order and stops at the first failure.
// The returned error keeps the handle's error kind. open loads watermark
// images; nil means imaging.Open.
func (p *Pipeline) Apply(img *imaging.Image, open Opener) error {
	if open == nil {
		open = func(path string) (*imaging.Image, error) { return imaging.Open(path) }
	}
	for i, op := range p.Ops {
		if err := op.Apply(img, open); err != nil {
			return fmt.Errorf("op %d (%s): %w", i+1, op.Spec, err)
		}
	}
	return nil
}

// Apply runs the op against img.
func (op Op) Apply(img *imaging.Image, open Opener) error {
	switch op.Name {
	case "crop":
		return img.Crop(op.Width, op.Height, op.Left, op.Top)
	case "scale":
		return img.Scale(op.Width, op.Height)
	case "rotate":
		return img.Rotate(op.Angle)
	case "flip":
		return img.Flip(op.Direction)
	case "flatten":
		if op.Color == nil {
			return img.FlattenDefault()
		}
		return img.Flatten(op.Color[0], op.Color[1], op.Color[2])
	case "filter":
		return img.Filter(op.Filter, op.Args...)
	case "opacity":
		return img.Opacity(op.Value)
	case "resolution":
		return img.SetResolution(op.Width, op.Height)
	case "quality":
		return img.SetQuality(op.Value)
	case "watermark":
		mark, err := open(op.Path)
		if err != nil {
			return err
		}
		defer mark.Destroy()
		return img.Watermark(mark, op.Left, op.Top)
	}
	return parseError(op.Spec, "unknown operation %q", op.Name)
}

// String renders the pipeline back to its specs.
func (p *Pipeline) String() string {
	specs := make([]string, len(p.Ops))
	for i, op := range p.Ops {
		specs[i] = op.Spec
	}
	return strings.Join(specs, " ")
}

func parseError(spec, format string, args ...any) error {
	return &imaging.Error{
		Kind: imaging.ErrInvalidInput,
		Op:   "parse " + strconv.Quote(spec),
		Msg:  fmt.Sprintf(format, args...),
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
