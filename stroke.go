package retouch

import (
	"image"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LayerDrag moves a layer interactively. The intermediate positions are
// live updates; End records the whole drag as a single undo step.
type LayerDrag struct {
	edit  *LiveEdit[*Document]
	id    string
	start Vec
}

// BeginMove starts dragging the layer with the given id.
// Only one drag or stroke can be in progress at a time.
func (e *Editor) BeginMove(id string) (*LayerDrag, error) {
	l, ok := e.Document().Layer(id)
	if !ok {
		return nil, errors.Wrapf(ErrLayerNotFound, "move %q", id)
	}
	if l.Locked {
		return nil, errors.Wrapf(ErrLayerLocked, "move %q", l.Name)
	}
	return &LayerDrag{
		edit:  e.history.BeginLiveEdit(),
		id:    id,
		start: l.Offset(),
	}, nil
}

// Drag places the layer at its initial position moved by delta.
func (g *LayerDrag) Drag(delta Vec) {
	g.edit.Update(func(*Document) *Document {
		base := g.edit.Base()
		l, _ := base.Layer(g.id)
		c := l.Clone()
		pos := g.start.Add(delta)
		c.X, c.Y = pos.X, pos.Y
		d, _ := base.WithLayer(c)
		return d
	})
}

// End terminates the drag and reports whether an undo step was recorded.
func (g *LayerDrag) End() bool {
	l, _ := g.edit.h.Present().Layer(g.id)
	if l != nil && l.Offset() == g.start {
		// Dropped where it started.
		g.edit.Cancel()
		return false
	}
	return g.edit.Commit(func(d *Document) *Document { return d })
}

// Cancel puts the layer back at its initial position.
func (g *LayerDrag) Cancel() {
	g.edit.Cancel()
}

// HealStroke is a healing brush stroke in progress. Every dab is previewed
// with the fast variant of the brush as a live update; End replays the
// stroke at full quality and commits it as one undo step.
type HealStroke struct {
	edit    *LiveEdit[*Document]
	layerID string
	opts    HealOptions

	source image.Point // document space
	origin *image.Point
	dabs   []image.Point // layer space
}

// BeginHeal starts a heal stroke on the active layer sampling the area
// around src. The distance between src and the first dab is kept for the
// whole stroke.
func (e *Editor) BeginHeal(src image.Point, opts HealOptions) (*HealStroke, error) {
	l, err := pixelLayer(e.Document())
	if err != nil {
		return nil, err
	}
	return &HealStroke{
		edit:    e.history.BeginLiveEdit(),
		layerID: l.ID,
		opts:    opts,
		source:  src,
	}, nil
}

// Dab stamps the brush at pt, in document space.
func (s *HealStroke) Dab(pt image.Point) {
	s.edit.Update(func(d *Document) *Document {
		l, _ := d.Layer(s.layerID)
		local := toLocal(l, pt)
		if s.origin == nil {
			s.origin = &local
		}
		s.dabs = append(s.dabs, local)

		fast := s.opts
		fast.Fast = true
		return s.paint(d, []image.Point{local}, fast)
	})
}

// paint applies dabs on the layer surface of d, sampling from the surface
// the layer had when the stroke began.
func (s *HealStroke) paint(d *Document, dabs []image.Point, opts HealOptions) *Document {
	base, _ := s.edit.Base().Layer(s.layerID)
	srcDelta := toLocal(base, s.source).Sub(*s.origin)

	l, _ := d.Layer(s.layerID)
	surface := l.Surface
	for _, pt := range dabs {
		dab := HealDab(base.Surface, surface, pt.Add(srcDelta), pt, opts)
		surface = dab.Apply(surface)
	}
	nd, _ := d.WithLayer(l.WithSurface(surface))
	return nd
}

// End renders the stroke at full quality and commits it. It reports
// whether an undo step was recorded.
func (s *HealStroke) End() bool {
	if len(s.dabs) == 0 {
		s.edit.Cancel()
		return false
	}
	full := s.opts
	full.Fast = false
	changed := s.edit.Commit(func(*Document) *Document {
		return s.paint(s.edit.Base(), s.dabs, full)
	})
	Logger().Debug("heal stroke", zap.Int("dabs", len(s.dabs)), zap.Bool("changed", changed))
	return changed
}

// Cancel drops the stroke.
func (s *HealStroke) Cancel() {
	s.edit.Cancel()
}
