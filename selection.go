package retouch

import (
	"image"
	"math"
)

// Vec is a point or offset in document space.
type Vec struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec) Add(o Vec) Vec {
	return Vec{v.X + o.X, v.Y + o.Y}
}

// Sub returns v-o.
func (v Vec) Sub(o Vec) Vec {
	return Vec{v.X - o.X, v.Y - o.Y}
}

// Round returns the nearest integer point.
func (v Vec) Round() image.Point {
	return image.Pt(int(math.Round(v.X)), int(math.Round(v.Y)))
}

// SelectionKind describes the shape of a selection.
type SelectionKind int

const (
	RectSelection SelectionKind = iota
	EllipseSelection
	PathSelection
)

func (k SelectionKind) String() string {
	switch k {
	case RectSelection:
		return "rect"
	case EllipseSelection:
		return "ellipse"
	case PathSelection:
		return "path"
	}
	return "unknown"
}

// Selection is a region of interest in document space.
// A selection is immutable: operations return new values.
type Selection struct {
	Kind          SelectionKind
	X, Y          float64
	Width, Height float64
	Path          []Vec
}

// NewRectSelection returns a rectangular selection.
func NewRectSelection(x, y, width, height float64) *Selection {
	return &Selection{Kind: RectSelection, X: x, Y: y, Width: width, Height: height}
}

// NewEllipseSelection returns the ellipse inscribed in the given rectangle.
func NewEllipseSelection(x, y, width, height float64) *Selection {
	return &Selection{Kind: EllipseSelection, X: x, Y: y, Width: width, Height: height}
}

// NewPathSelection returns a polygonal selection; the bounding box is
// computed from the points.
func NewPathSelection(path []Vec) *Selection {
	s := &Selection{Kind: PathSelection, Path: append([]Vec(nil), path...)}
	if len(path) == 0 {
		return s
	}
	minX, minY := path[0].X, path[0].Y
	maxX, maxY := minX, minY
	for _, p := range path[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	s.X, s.Y = minX, minY
	s.Width, s.Height = maxX-minX, maxY-minY
	return s
}

// Bounds returns the integer rectangle covering the selection bounding box.
func (s *Selection) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(s.X)), int(math.Floor(s.Y)),
		int(math.Ceil(s.X+s.Width)), int(math.Ceil(s.Y+s.Height)),
	)
}

// Translate returns a copy of the selection moved by d.
func (s *Selection) Translate(d Vec) *Selection {
	t := *s
	t.X += d.X
	t.Y += d.Y
	if s.Path != nil {
		t.Path = make([]Vec, len(s.Path))
		for i, p := range s.Path {
			t.Path[i] = p.Add(d)
		}
	}
	return &t
}

// Contains reports whether the document space point (x, y) belongs to the
// selection. Points lying on a path outline are inside.
func (s *Selection) Contains(x, y float64) bool {
	if s == nil {
		return false
	}
	switch s.Kind {
	case RectSelection:
		return x >= s.X && y >= s.Y && x < s.X+s.Width && y < s.Y+s.Height
	case EllipseSelection:
		rx, ry := s.Width/2, s.Height/2
		if rx <= 0 || ry <= 0 {
			return false
		}
		dx := (x - (s.X + rx)) / rx
		dy := (y - (s.Y + ry)) / ry
		return dx*dx+dy*dy <= 1
	case PathSelection:
		return pathContains(s.Path, x, y)
	}
	return false
}

// ContainsPixel reports whether the center of the pixel (px, py) of a layer
// placed at offset belongs to the selection.
func (s *Selection) ContainsPixel(px, py int, offset Vec) bool {
	return s.Contains(float64(px)+offset.X+0.5, float64(py)+offset.Y+0.5)
}

// Mask rasterizes the selection over a width x height pixel grid placed at
// offset. Only the pixels inside the bounding box are tested.
func (s *Selection) Mask(width, height int, offset Vec) []bool {
	mask := make([]bool, width*height)
	if s == nil {
		return mask
	}
	b := s.Bounds().Sub(offset.Round()).Inset(-1).Intersect(image.Rect(0, 0, width, height))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			mask[y*width+x] = s.ContainsPixel(x, y, offset)
		}
	}
	return mask
}

const onSegmentEps = 1e-9

// pathContains runs an even-odd ray casting test, treating points on the
// outline as inside.
func pathContains(path []Vec, x, y float64) bool {
	n := len(path)
	switch n {
	case 0:
		return false
	case 1:
		return math.Abs(path[0].X-x) < onSegmentEps && math.Abs(path[0].Y-y) < onSegmentEps
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := path[j], path[i]
		if onSegment(a, b, x, y) {
			return true
		}
		if (b.Y > y) != (a.Y > y) {
			xi := a.X + (y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if x < xi {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(a, b Vec, x, y float64) bool {
	cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
	if math.Abs(cross) > onSegmentEps {
		return false
	}
	return x >= math.Min(a.X, b.X)-onSegmentEps && x <= math.Max(a.X, b.X)+onSegmentEps &&
		y >= math.Min(a.Y, b.Y)-onSegmentEps && y <= math.Max(a.Y, b.Y)+onSegmentEps
}
