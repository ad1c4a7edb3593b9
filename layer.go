package retouch

import (
	"github.com/esimov/retouch/imop"
	"github.com/google/uuid"
)

// LayerKind distinguishes pixel layers from groups.
type LayerKind int

const (
	PixelLayer LayerKind = iota
	GroupLayer
)

func (k LayerKind) String() string {
	if k == GroupLayer {
		return "group"
	}
	return "layer"
}

// Filter is a non destructive filter attached to a layer. Filters are
// carried through the document and its history; applying them is left
// to the renderer.
type Filter struct {
	Name    string
	Params  map[string]float64
	Enabled bool
}

// Layer is a node of the document layer tree.
//
// A layer reachable from a Document must not be modified in place:
// use Clone, change the copy and store it with Document.WithLayer.
type Layer struct {
	ID        string
	Name      string
	Kind      LayerKind
	Visible   bool
	Locked    bool
	Opacity   int // 0..100
	BlendMode string
	X, Y      float64
	Surface   *Surface
	Filters   []Filter
	Children  []string // group only, index 0 is the topmost child
}

// NewLayer creates a visible, fully opaque pixel layer owning surface.
func NewLayer(name string, surface *Surface) *Layer {
	return &Layer{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      PixelLayer,
		Visible:   true,
		Opacity:   100,
		BlendMode: imop.Normal,
		Surface:   surface,
	}
}

// NewGroup creates an empty, visible layer group.
func NewGroup(name string) *Layer {
	return &Layer{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      GroupLayer,
		Visible:   true,
		Opacity:   100,
		BlendMode: imop.Normal,
	}
}

// IsGroup reports whether the layer is a group.
func (l *Layer) IsGroup() bool {
	return l.Kind == GroupLayer
}

// Offset returns the layer position in document space.
func (l *Layer) Offset() Vec {
	return Vec{l.X, l.Y}
}

// Clone returns a shallow copy of the layer: slices are copied, the
// surface is shared since surfaces are replaced, never edited in place.
func (l *Layer) Clone() *Layer {
	c := *l
	if l.Filters != nil {
		c.Filters = make([]Filter, len(l.Filters))
		for i, f := range l.Filters {
			c.Filters[i] = f
			if f.Params != nil {
				c.Filters[i].Params = make(map[string]float64, len(f.Params))
				for k, v := range f.Params {
					c.Filters[i].Params[k] = v
				}
			}
		}
	}
	if l.Children != nil {
		c.Children = append([]string(nil), l.Children...)
	}
	return &c
}

// WithSurface returns a copy of the layer owning the given surface.
func (l *Layer) WithSurface(s *Surface) *Layer {
	c := l.Clone()
	c.Surface = s
	return c
}
