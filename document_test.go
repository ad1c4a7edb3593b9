package retouch

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layerNames(layers []*Layer) []string {
	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = l.Name
	}
	return names
}

func TestDocument_AddLayerIsCopyOnWrite(t *testing.T) {
	assert := assert.New(t)

	d0 := NewDocument(4, 4)
	a := NewLayer("a", NewSurface(4, 4))
	d1, err := d0.AddLayer(a, "", 0)
	require.NoError(t, err)

	assert.Equal(0, d0.Len())
	assert.Equal(1, d1.Len())
	assert.Equal(a.ID, d1.ActiveLayerID())
	assert.NotEqual(d0.Revision(), d1.Revision())

	b := NewLayer("b", NewSurface(4, 4))
	d2, err := d1.AddLayer(b, "", 0)
	require.NoError(t, err)
	assert.Equal([]string{"b", "a"}, layerNames(d2.Layers()))
	assert.Equal([]string{"a"}, layerNames(d1.Layers()))

	// Untouched layers are shared.
	la1, _ := d1.Layer(a.ID)
	la2, _ := d2.Layer(a.ID)
	assert.Same(la1, la2)

	_, err = d2.AddLayer(a, "", 0)
	assert.True(errors.Is(err, ErrDuplicateLayer))
}

func TestDocument_Groups(t *testing.T) {
	assert := assert.New(t)

	d := NewDocument(4, 4)
	g := NewGroup("group")
	a := NewLayer("a", NewSurface(4, 4))
	b := NewLayer("b", NewSurface(4, 4))

	d, _ = d.AddLayer(g, "", 0)
	d, _ = d.AddLayer(a, g.ID, 0)
	d, _ = d.AddLayer(b, g.ID, 1)
	assert.Equal([]string{"a", "b"}, layerNames(d.Children(g.ID)))

	parent, ok := d.Parent(b.ID)
	assert.True(ok)
	assert.Equal(g.ID, parent)

	var visited []string
	d.Walk(func(l *Layer, depth int) bool {
		visited = append(visited, l.Name)
		return true
	})
	assert.Equal([]string{"group", "a", "b"}, visited)

	_, err := d.AddLayer(NewLayer("c", nil), a.ID, 0)
	assert.True(errors.Is(err, ErrInvalidMove))
}

func TestDocument_RemoveLayer(t *testing.T) {
	assert := assert.New(t)

	d := NewDocument(4, 4)
	g := NewGroup("group")
	a := NewLayer("a", NewSurface(4, 4))
	b := NewLayer("b", NewSurface(4, 4))
	d, _ = d.AddLayer(b, "", 0)
	d, _ = d.AddLayer(g, "", 0)
	d, _ = d.AddLayer(a, g.ID, 0)
	assert.Equal(a.ID, d.ActiveLayerID())

	nd, err := d.RemoveLayer(g.ID)
	require.NoError(t, err)
	assert.Equal(1, nd.Len())
	assert.Equal(b.ID, nd.ActiveLayerID())
	_, ok := nd.Layer(a.ID)
	assert.False(ok)

	// The removed subtree is still reachable from the old snapshot.
	assert.Equal(3, d.Len())

	_, err = nd.RemoveLayer("missing")
	assert.True(errors.Is(err, ErrLayerNotFound))
}

func TestDocument_MoveLayer(t *testing.T) {
	assert := assert.New(t)

	d := NewDocument(4, 4)
	outer := NewGroup("outer")
	inner := NewGroup("inner")
	a := NewLayer("a", NewSurface(4, 4))
	d, _ = d.AddLayer(a, "", 0)
	d, _ = d.AddLayer(outer, "", 0)
	d, _ = d.AddLayer(inner, outer.ID, 0)

	nd, err := d.MoveLayer(a.ID, inner.ID, 0)
	require.NoError(t, err)
	assert.Equal([]string{"outer"}, layerNames(nd.Layers()))
	assert.Equal([]string{"a"}, layerNames(nd.Children(inner.ID)))
	assert.Empty(d.Children(inner.ID))

	_, err = nd.MoveLayer(outer.ID, inner.ID, 0)
	assert.True(errors.Is(err, ErrInvalidMove))
	_, err = nd.MoveLayer(outer.ID, outer.ID, 0)
	assert.True(errors.Is(err, ErrInvalidMove))
	_, err = nd.MoveLayer(inner.ID, a.ID, 0)
	assert.True(errors.Is(err, ErrInvalidMove))
}

func TestDocument_WithLayer(t *testing.T) {
	assert := assert.New(t)

	d := NewDocument(4, 4)
	a := NewLayer("a", NewSurface(4, 4))
	d, _ = d.AddLayer(a, "", 0)

	c := a.Clone()
	c.Opacity = 50
	nd, err := d.WithLayer(c)
	require.NoError(t, err)

	l, _ := nd.Layer(a.ID)
	assert.Equal(50, l.Opacity)
	l, _ = d.Layer(a.ID)
	assert.Equal(100, l.Opacity)

	_, err = d.WithLayer(NewLayer("x", nil))
	assert.True(errors.Is(err, ErrLayerNotFound))
}
