package retouch

import (
	"image"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WandOptions configures MagicWand.
type WandOptions struct {
	Tolerance uint8
	// Sample, when set and aligned with the surface, is read instead of it.
	Sample *Surface
	// Offset is the position of the surface in document space.
	Offset Vec
}

// Region is the result of a region growth: a membership mask over the
// surface grid and the bounding box of the masked pixels.
type Region struct {
	Width, Height int
	Mask          []bool
	Bounds        image.Rectangle
	Count         int
}

// Has reports whether the pixel (x, y) belongs to the region.
func (r *Region) Has(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.Width && y < r.Height && r.Mask[y*r.Width+x]
}

// GrowRegion collects the 4-connected pixels around seed whose color is
// within tolerance of the seed color. No pixel is modified. It returns nil
// when the seed lies outside the surface.
func GrowRegion(s *Surface, seed image.Point, tolerance uint8) *Region {
	if !s.In(seed.X, seed.Y) {
		return nil
	}
	r := &Region{
		Width:  s.Width,
		Height: s.Height,
		Mask:   make([]bool, s.Width*s.Height),
	}
	target := s.At(seed.X, seed.Y)
	minX, minY, maxX, maxY := seed.X, seed.Y, seed.X, seed.Y

	r.Count = scanFill(s.Width, s.Height, seed, func(x, y int) bool {
		return colorMatch(s.At(x, y), target, tolerance)
	}, func(x, y int) {
		r.Mask[y*s.Width+x] = true
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	})
	r.Bounds = image.Rect(minX, minY, maxX+1, maxY+1)
	return r
}

// start returns the masked pixel with the smallest (y, x) inside the bounding box.
func (r *Region) start() (image.Point, bool) {
	for y := r.Bounds.Min.Y; y < r.Bounds.Max.Y; y++ {
		for x := r.Bounds.Min.X; x < r.Bounds.Max.X; x++ {
			if r.Mask[y*r.Width+x] {
				return image.Pt(x, y), true
			}
		}
	}
	return image.Point{}, false
}

// Facing directions, clockwise in screen coordinates (y grows downwards).
type direction int

const (
	north direction = iota
	east
	south
	west
)

var steps = [4]image.Point{
	north: {0, -1},
	east:  {1, 0},
	south: {0, 1},
	west:  {-1, 0},
}

func (d direction) left() direction  { return (d + 3) % 4 }
func (d direction) right() direction { return (d + 1) % 4 }
func (d direction) back() direction  { return (d + 2) % 4 }

// Trace walks the outer boundary of the region with the left hand rule and
// returns the visited pixel positions, starting from the topmost-leftmost
// pixel. The walk ends on the start pixel when the next move would repeat the
// first one. A walk longer than 2*width*height steps means the mask is not
// a single 4-connected area and ErrTraceOverflow is returned.
func (r *Region) Trace() ([]image.Point, error) {
	return r.trace(2 * r.Width * r.Height)
}

func (r *Region) trace(limit int) ([]image.Point, error) {
	start, ok := r.start()
	if !ok {
		return nil, nil
	}

	next := func(p image.Point, facing direction) (direction, bool) {
		for _, d := range [4]direction{facing.left(), facing, facing.right(), facing.back()} {
			if r.Has(p.X+steps[d].X, p.Y+steps[d].Y) {
				return d, true
			}
		}
		return facing, false
	}

	first, ok := next(start, east)
	if !ok {
		// Isolated pixel.
		return []image.Point{start}, nil
	}

	path := []image.Point{start}
	cur, facing := start, first
	for n := 0; ; n++ {
		if n >= limit {
			return path, errors.Wrapf(ErrTraceOverflow, "%d steps from %v", n, start)
		}
		cur = cur.Add(steps[facing])
		if cur == start {
			if d, _ := next(cur, facing); d == first {
				break
			}
		}
		path = append(path, cur)
		facing, _ = next(cur, facing)
	}
	return path, nil
}

// simplify drops every point lying on a straight run, i.e. when the step
// coming into it equals the step leaving it. The path is treated as closed.
func simplify(path []image.Point) []image.Point {
	n := len(path)
	if n < 3 {
		return append([]image.Point(nil), path...)
	}
	out := make([]image.Point, 0, n)
	for i, p := range path {
		prev := path[(i+n-1)%n]
		next := path[(i+1)%n]
		if p.Sub(prev) == next.Sub(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// MagicWand grows the region around seed and converts its outline into a
// path selection in document space. Path points are pixel centers moved by
// opts.Offset; the selection bounding box is the region bounding box.
// It returns nil when the seed lies outside the surface.
func MagicWand(s *Surface, seed image.Point, opts WandOptions) (*Selection, error) {
	src := s
	if opts.Sample != nil && opts.Sample.Width == s.Width && opts.Sample.Height == s.Height {
		src = opts.Sample
	}
	region := GrowRegion(src, seed, opts.Tolerance)
	if region == nil {
		return nil, nil
	}

	trace, err := region.Trace()
	if err != nil {
		Logger().Error("magic wand trace", zap.Error(err), zap.Int("pixels", region.Count))
		return nil, err
	}
	outline := simplify(trace)

	path := make([]Vec, len(outline))
	for i, p := range outline {
		path[i] = Vec{float64(p.X) + 0.5 + opts.Offset.X, float64(p.Y) + 0.5 + opts.Offset.Y}
	}
	b := region.Bounds
	Logger().Debug("magic wand",
		zap.Int("pixels", region.Count),
		zap.Int("trace", len(trace)),
		zap.Int("points", len(path)),
	)
	return &Selection{
		Kind:   PathSelection,
		X:      float64(b.Min.X) + opts.Offset.X,
		Y:      float64(b.Min.Y) + opts.Offset.Y,
		Width:  float64(b.Dx()),
		Height: float64(b.Dy()),
		Path:   path,
	}, nil
}
