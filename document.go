package retouch

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

var revisions atomic.Uint64

// Document is the editor state snapshotted by the history: the layer tree,
// the active layer, the canvas size and the current selection.
//
// Layers are kept in an arena addressed by id. The top level order and
// the group children are ordered id lists, index 0 being the topmost.
//
// A Document is immutable. Every mutator returns a new Document sharing
// the untouched layers with its predecessor, so past snapshots stay valid
// and can be read concurrently.
type Document struct {
	layers    map[string]*Layer
	order     []string
	active    string
	width     int
	height    int
	selection *Selection
	rev       uint64
}

// NewDocument creates an empty document with the given canvas size.
func NewDocument(width, height int) *Document {
	return &Document{
		layers: make(map[string]*Layer),
		width:  width,
		height: height,
		rev:    revisions.Add(1),
	}
}

// clone returns a shallow copy with a fresh revision number.
func (d *Document) clone() *Document {
	nd := *d
	nd.layers = make(map[string]*Layer, len(d.layers))
	for id, l := range d.layers {
		nd.layers[id] = l
	}
	nd.order = append([]string(nil), d.order...)
	nd.rev = revisions.Add(1)
	return &nd
}

// Revision returns a process unique number identifying the snapshot.
func (d *Document) Revision() uint64 { return d.rev }

// Size returns the canvas size.
func (d *Document) Size() (width, height int) { return d.width, d.height }

// Len returns the total number of layers and groups.
func (d *Document) Len() int { return len(d.layers) }

// Selection returns the active selection, nil when nothing is selected.
func (d *Document) Selection() *Selection { return d.selection }

// ActiveLayerID returns the id of the active layer.
func (d *Document) ActiveLayerID() string { return d.active }

// ActiveLayer returns the active layer or nil.
func (d *Document) ActiveLayer() *Layer { return d.layers[d.active] }

// Layer looks up a layer by id.
func (d *Document) Layer(id string) (*Layer, bool) {
	l, ok := d.layers[id]
	return l, ok
}

// Layers returns the top level layers, topmost first.
func (d *Document) Layers() []*Layer {
	return d.resolve(d.order)
}

// Children returns the children of a group, topmost first.
func (d *Document) Children(id string) []*Layer {
	l, ok := d.layers[id]
	if !ok {
		return nil
	}
	return d.resolve(l.Children)
}

func (d *Document) resolve(ids []string) []*Layer {
	out := make([]*Layer, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.layers[id])
	}
	return out
}

// Walk visits the tree depth first in z-order, topmost first.
// Returning false from fn skips the children of the visited group.
func (d *Document) Walk(fn func(l *Layer, depth int) bool) {
	var walk func(ids []string, depth int)
	walk = func(ids []string, depth int) {
		for _, id := range ids {
			l := d.layers[id]
			if fn(l, depth) && l.IsGroup() {
				walk(l.Children, depth+1)
			}
		}
	}
	walk(d.order, 0)
}

// Parent returns the id of the group holding id, or "" for top level layers.
func (d *Document) Parent(id string) (string, bool) {
	if _, ok := d.layers[id]; !ok {
		return "", false
	}
	for gid, l := range d.layers {
		if l.IsGroup() && indexOf(l.Children, id) >= 0 {
			return gid, true
		}
	}
	return "", true
}

// WithSelection returns a document with the selection replaced.
func (d *Document) WithSelection(sel *Selection) *Document {
	nd := d.clone()
	nd.selection = sel
	return nd
}

// WithCanvasSize returns a document with a new canvas size.
// Layer surfaces are left untouched.
func (d *Document) WithCanvasSize(width, height int) *Document {
	nd := d.clone()
	nd.width, nd.height = width, height
	return nd
}

// WithActive returns a document with a different active layer.
func (d *Document) WithActive(id string) (*Document, error) {
	if _, ok := d.layers[id]; !ok {
		return d, errors.Wrapf(ErrLayerNotFound, "activate %q", id)
	}
	nd := d.clone()
	nd.active = id
	return nd, nil
}

// WithLayer returns a document where the layer with the same id is replaced by l.
func (d *Document) WithLayer(l *Layer) (*Document, error) {
	if _, ok := d.layers[l.ID]; !ok {
		return d, errors.Wrapf(ErrLayerNotFound, "replace %q", l.ID)
	}
	nd := d.clone()
	nd.layers[l.ID] = l
	return nd, nil
}

// AddLayer inserts l inside the parent group (the top level when parentID
// is empty) at index, clamped to the sibling list. The new layer becomes
// the active one. Groups are added empty and filled with MoveLayer.
func (d *Document) AddLayer(l *Layer, parentID string, index int) (*Document, error) {
	if _, ok := d.layers[l.ID]; ok {
		return d, errors.Wrapf(ErrDuplicateLayer, "add %q", l.ID)
	}
	if len(l.Children) > 0 {
		return d, errors.Wrapf(ErrInvalidMove, "add non empty group %q", l.ID)
	}
	siblings, err := d.siblings(parentID)
	if err != nil {
		return d, err
	}
	nd := d.clone()
	nd.layers[l.ID] = l
	nd.setSiblings(parentID, insertAt(siblings, index, l.ID))
	nd.active = l.ID
	return nd, nil
}

// RemoveLayer removes a layer and, for groups, all of its descendants.
func (d *Document) RemoveLayer(id string) (*Document, error) {
	parentID, ok := d.Parent(id)
	if !ok {
		return d, errors.Wrapf(ErrLayerNotFound, "remove %q", id)
	}
	siblings, _ := d.siblings(parentID)
	idx := indexOf(siblings, id)

	nd := d.clone()
	remaining := removeAt(siblings, idx)
	nd.setSiblings(parentID, remaining)

	removed := make(map[string]bool)
	var drop func(id string)
	drop = func(id string) {
		removed[id] = true
		for _, c := range nd.layers[id].Children {
			drop(c)
		}
		delete(nd.layers, id)
	}
	drop(id)

	if removed[nd.active] {
		switch {
		case len(remaining) > 0:
			nd.active = remaining[min(idx, len(remaining)-1)]
		case parentID != "":
			nd.active = parentID
		case len(nd.order) > 0:
			nd.active = nd.order[0]
		default:
			nd.active = ""
		}
	}
	return nd, nil
}

// MoveLayer moves a layer (with its subtree) inside parentID at index.
// A group cannot be moved inside itself or one of its descendants.
func (d *Document) MoveLayer(id, parentID string, index int) (*Document, error) {
	from, ok := d.Parent(id)
	if !ok {
		return d, errors.Wrapf(ErrLayerNotFound, "move %q", id)
	}
	if _, err := d.siblings(parentID); err != nil {
		return d, err
	}
	for p := parentID; p != ""; p, _ = d.Parent(p) {
		if p == id {
			return d, errors.Wrapf(ErrInvalidMove, "move %q inside itself", id)
		}
	}

	nd := d.clone()
	src, _ := nd.siblings(from)
	nd.setSiblings(from, removeAt(src, indexOf(src, id)))
	dst, _ := nd.siblings(parentID)
	nd.setSiblings(parentID, insertAt(dst, index, id))
	return nd, nil
}

// siblings returns the ordered id list of a parent.
func (d *Document) siblings(parentID string) ([]string, error) {
	if parentID == "" {
		return d.order, nil
	}
	g, ok := d.layers[parentID]
	if !ok {
		return nil, errors.Wrapf(ErrLayerNotFound, "parent %q", parentID)
	}
	if !g.IsGroup() {
		return nil, errors.Wrapf(ErrInvalidMove, "parent %q is not a group", parentID)
	}
	return g.Children, nil
}

// setSiblings stores the id list of a parent. Only call it on a fresh clone.
func (d *Document) setSiblings(parentID string, ids []string) {
	if parentID == "" {
		d.order = ids
		return
	}
	g := d.layers[parentID].Clone()
	g.Children = ids
	d.layers[parentID] = g
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func insertAt(ids []string, index int, id string) []string {
	index = max(0, min(index, len(ids)))
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	return append(out, ids[index:]...)
}

func removeAt(ids []string, index int) []string {
	out := make([]string, 0, len(ids))
	out = append(out, ids[:index]...)
	return append(out, ids[index+1:]...)
}
