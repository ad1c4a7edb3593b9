package retouch

import (
	"context"
	"image"
	"image/color"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Editor routes the editing tools through the document history: every
// tool resolves its target layer, runs the pixel algorithm on a copy of
// the layer surface and commits the resulting document.
//
// Points given to the tools are in document space. An Editor is not safe
// for concurrent use, but the documents it returns can be read from any
// goroutine.
type Editor struct {
	cfg     *Config
	history *History[*Document]
	merged  *lru.Cache
}

// NewEditor creates an editor holding an empty document.
// A nil configuration selects DefaultConfig.
func NewEditor(cfg *Config) *Editor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	// lru.New fails only for non positive sizes.
	cache, _ := lru.New(max(cfg.Cache.MergedSize, 1))

	h := NewHistory(NewDocument(0, 0))
	h.Limit = cfg.History.Limit
	return &Editor{cfg: cfg, history: h, merged: cache}
}

// Config returns the editor settings.
func (e *Editor) Config() *Config {
	return e.cfg
}

// New starts a new document with a single background layer filled with bg.
// The history is cleared.
func (e *Editor) New(width, height int, bg color.NRGBA) *Document {
	return e.open(NewLayer("Background", NewFilledSurface(width, height, bg)), width, height)
}

// Open starts a new document holding img as its only layer.
// The history is cleared.
func (e *Editor) Open(img image.Image, name string) *Document {
	s := FromImage(img)
	return e.open(NewLayer(name, s), s.Width, s.Height)
}

func (e *Editor) open(l *Layer, width, height int) *Document {
	doc, _ := NewDocument(width, height).AddLayer(l, "", 0)
	e.history.Reset(doc)
	e.merged.Purge()
	Logger().Debug("document opened", zap.Int("width", width), zap.Int("height", height))
	return doc
}

// Close discards the document and its history, leaving an empty document.
func (e *Editor) Close() {
	e.history.Reset(NewDocument(0, 0))
	e.merged.Purge()
}

// Document returns the current document snapshot.
func (e *Editor) Document() *Document {
	return e.history.Present()
}

// Undo reverts the last committed change.
func (e *Editor) Undo() { e.history.Undo() }

// Redo reapplies the last undone change.
func (e *Editor) Redo() { e.history.Redo() }

// CanUndo reports whether there is a change to undo.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether there is a change to redo.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// apply commits the document returned by fn. When fn fails nothing is
// recorded and its error is returned.
func (e *Editor) apply(fn func(*Document) (*Document, error)) (bool, error) {
	var err error
	changed := e.history.Commit(func(d *Document) *Document {
		nd, ferr := fn(d)
		if ferr != nil {
			err = ferr
			return d
		}
		return nd
	})
	return changed, err
}

// insertionPoint returns where a new layer goes: right above the active
// layer, or on top of the document.
func insertionPoint(d *Document) (parentID string, index int) {
	if d.active == "" {
		return "", 0
	}
	parentID, _ = d.Parent(d.active)
	siblings, _ := d.siblings(parentID)
	return parentID, max(indexOf(siblings, d.active), 0)
}

// AddLayer adds a transparent canvas sized layer above the active one
// and makes it active.
func (e *Editor) AddLayer(name string) (*Layer, error) {
	d := e.Document()
	w, h := d.Size()
	l := NewLayer(name, NewSurface(w, h))
	return l, e.addLayer(l)
}

// AddGroup adds an empty group above the active layer and makes it active.
func (e *Editor) AddGroup(name string) (*Layer, error) {
	g := NewGroup(name)
	return g, e.addLayer(g)
}

func (e *Editor) addLayer(l *Layer) error {
	_, err := e.apply(func(d *Document) (*Document, error) {
		parentID, index := insertionPoint(d)
		return d.AddLayer(l, parentID, index)
	})
	return err
}

// RemoveLayer deletes a layer, or a group with all of its descendants.
func (e *Editor) RemoveLayer(id string) error {
	_, err := e.apply(func(d *Document) (*Document, error) {
		return d.RemoveLayer(id)
	})
	return err
}

// SetActiveLayer changes the layer targeted by the tools.
func (e *Editor) SetActiveLayer(id string) error {
	_, err := e.apply(func(d *Document) (*Document, error) {
		if d.active == id {
			return d, nil
		}
		return d.WithActive(id)
	})
	return err
}

// UpdateLayer changes the properties of a layer. fn receives a copy of
// the layer and may modify any field but its id.
func (e *Editor) UpdateLayer(id string, fn func(l *Layer)) error {
	_, err := e.apply(func(d *Document) (*Document, error) {
		l, ok := d.Layer(id)
		if !ok {
			return d, errors.Wrapf(ErrLayerNotFound, "update %q", id)
		}
		c := l.Clone()
		fn(c)
		c.ID = id
		return d.WithLayer(c)
	})
	return err
}

// MoveLayer changes the position of a layer in the tree.
func (e *Editor) MoveLayer(id, parentID string, index int) error {
	_, err := e.apply(func(d *Document) (*Document, error) {
		return d.MoveLayer(id, parentID, index)
	})
	return err
}

// Select replaces the selection. A nil selection deselects.
func (e *Editor) Select(sel *Selection) {
	e.history.Commit(func(d *Document) *Document {
		if d.selection == sel {
			return d
		}
		return d.WithSelection(sel)
	})
}

// SelectAll selects the whole canvas.
func (e *Editor) SelectAll() {
	w, h := e.Document().Size()
	e.Select(NewRectSelection(0, 0, float64(w), float64(h)))
}

// Deselect drops the selection.
func (e *Editor) Deselect() {
	e.Select(nil)
}

// pixelLayer returns the active layer when the tools can paint on it.
func pixelLayer(d *Document) (*Layer, error) {
	l := d.ActiveLayer()
	switch {
	case l == nil:
		return nil, ErrNoActiveLayer
	case l.IsGroup() || l.Surface == nil:
		return nil, errors.Wrapf(ErrNotPixelLayer, "layer %q", l.Name)
	case l.Locked:
		return nil, errors.Wrapf(ErrLayerLocked, "layer %q", l.Name)
	}
	return l, nil
}

// toLocal converts a document point to the coordinates of the layer surface.
func toLocal(l *Layer, pt image.Point) image.Point {
	return pt.Sub(l.Offset().Round())
}

// sampleFor returns the merged document cropped to the frame of the layer.
func (e *Editor) sampleFor(l *Layer) *Surface {
	frame := l.Surface.Bounds().Add(l.Offset().Round())
	return e.Merged().Region(frame)
}

// Fill runs the flood fill tool at pt on the active layer. It reports
// whether the document changed.
func (e *Editor) Fill(pt image.Point, c color.NRGBA, cfg FillConfig) (bool, error) {
	return e.apply(func(d *Document) (*Document, error) {
		l, err := pixelLayer(d)
		if err != nil {
			return d, err
		}
		opts := FillOptions{
			Tolerance: cfg.Tolerance,
			Selection: d.selection,
			Offset:    l.Offset(),
			Whole:     cfg.Whole,
		}
		if cfg.SampleMerged {
			opts.Sample = e.sampleFor(l)
		}
		s, changed := FloodFill(l.Surface, toLocal(l, pt), c, opts)
		if !changed {
			return d, nil
		}
		return d.WithLayer(l.WithSurface(s))
	})
}

// MagicWand selects the area around pt on the active layer and returns
// the new selection, nil when pt lies outside the layer.
func (e *Editor) MagicWand(pt image.Point, cfg WandConfig) (*Selection, error) {
	var sel *Selection
	_, err := e.apply(func(d *Document) (*Document, error) {
		l := d.ActiveLayer()
		if l == nil {
			return d, ErrNoActiveLayer
		}
		if l.IsGroup() || l.Surface == nil {
			return d, errors.Wrapf(ErrNotPixelLayer, "layer %q", l.Name)
		}
		opts := WandOptions{Tolerance: cfg.Tolerance, Offset: l.Offset()}
		if cfg.SampleMerged {
			opts.Sample = e.sampleFor(l)
		}
		var err error
		sel, err = MagicWand(l.Surface, toLocal(l, pt), opts)
		if err != nil || sel == nil {
			return d, err
		}
		return d.WithSelection(sel), nil
	})
	return sel, err
}

// ContentAwareFill rebuilds the selected pixels of the active layer from
// the rest of the layer.
func (e *Editor) ContentAwareFill(ctx context.Context, opts InpaintOptions) (bool, error) {
	return e.apply(func(d *Document) (*Document, error) {
		l, err := pixelLayer(d)
		if err != nil {
			return d, err
		}
		if d.selection == nil {
			return d, ErrNoSelection
		}
		mask := d.selection.Mask(l.Surface.Width, l.Surface.Height, l.Offset())
		s, err := Inpaint(ctx, l.Surface, mask, opts)
		if err != nil {
			return d, err
		}
		if s.Equal(l.Surface) {
			return d, nil
		}
		return d.WithLayer(l.WithSurface(s))
	})
}

// Merged returns the flattened current document. The surface is cached
// per document revision and must not be modified.
func (e *Editor) Merged() *Surface {
	d := e.Document()
	if v, ok := e.merged.Get(d.Revision()); ok {
		return v.(*Surface)
	}
	s := Merge(d)
	e.merged.Add(d.Revision(), s)
	return s
}
