package retouch

import (
	"image"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// surfaceFromArt builds a surface where 'X' is black and any other rune white.
func surfaceFromArt(rows ...string) *Surface {
	s := NewFilledSurface(len(rows[0]), len(rows), white)
	for y, row := range rows {
		for x, r := range row {
			if r == 'X' {
				s.Set(x, y, black)
			}
		}
	}
	return s
}

func TestMagicWand_SolidSquare(t *testing.T) {
	for _, n := range []int{1, 2, 5, 16} {
		s := NewFilledSurface(n, n, red)
		sel, err := MagicWand(s, image.Pt(n/2, n/2), WandOptions{})
		require.NoError(t, err)
		require.NotNil(t, sel)

		assert.Equal(t, PathSelection, sel.Kind)
		assert.Equal(t, image.Rect(0, 0, n, n), sel.Bounds())
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				assert.True(t, sel.ContainsPixel(x, y, Vec{}), "n=%d pixel (%d, %d)", n, x, y)
			}
		}
		if n > 1 {
			h := float64(n) - 0.5
			assert.Equal(t, []Vec{{0.5, 0.5}, {h, 0.5}, {h, h}, {0.5, h}}, sel.Path)
		}
	}
}

func TestMagicWand_SinglePixelIsland(t *testing.T) {
	assert := assert.New(t)

	s := surfaceFromArt(
		"XXX",
		"X.X",
		"XXX",
	)
	sel, err := MagicWand(s, image.Pt(1, 1), WandOptions{})
	require.NoError(t, err)
	assert.Equal(image.Rect(1, 1, 2, 2), sel.Bounds())
	assert.Equal([]Vec{{1.5, 1.5}}, sel.Path)
	assert.True(sel.ContainsPixel(1, 1, Vec{}))
	assert.False(sel.ContainsPixel(0, 1, Vec{}))
}

func TestMagicWand_Offset(t *testing.T) {
	s := NewFilledSurface(2, 2, red)
	sel, err := MagicWand(s, image.Pt(0, 0), WandOptions{Offset: Vec{10, 20}})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 20, 12, 22), sel.Bounds())
	assert.Equal(t, Vec{10.5, 20.5}, sel.Path[0])
}

func TestMagicWand_OutOfBounds(t *testing.T) {
	sel, err := MagicWand(NewSurface(3, 3), image.Pt(-1, 0), WandOptions{})
	assert.NoError(t, err)
	assert.Nil(t, sel)
}

func TestMagicWand_SelectionMatchesRegion(t *testing.T) {
	shapes := map[string][]string{
		"L": {
			"XXX.",
			"X...",
			"X...",
		},
		"U": {
			"X.X",
			"XXX",
		},
		"plus": {
			".X.",
			"XXX",
			".X.",
		},
		"line": {
			"XXXX",
		},
		"stairs": {
			"X....",
			"XX...",
			".XX..",
			"..XXX",
		},
		"comb": {
			"XXXXXXX",
			"X.X.X.X",
			"X.X.X.X",
			"X...X..",
		},
		"ring": {
			".XXX.",
			"XX.XX",
			".XXX.",
		},
	}
	for name, art := range shapes {
		t.Run(name, func(t *testing.T) {
			s := surfaceFromArt(art...)
			seed := image.Pt(strings.IndexRune(art[0], 'X'), 0)
			if seed.X < 0 {
				seed = image.Pt(strings.IndexRune(art[1], 'X'), 1)
			}
			region := GrowRegion(s, seed, 0)
			sel, err := MagicWand(s, seed, WandOptions{})
			require.NoError(t, err)

			for y := 0; y < s.Height; y++ {
				for x := 0; x < s.Width; x++ {
					if name == "ring" && x == 2 && y == 1 {
						// Holes are not represented by the outline.
						continue
					}
					assert.Equal(t, region.Has(x, y), sel.ContainsPixel(x, y, Vec{}), "pixel (%d, %d)", x, y)
				}
			}
		})
	}
}

func TestRegion_TraceStaysInBound(t *testing.T) {
	assert := assert.New(t)

	s := surfaceFromArt(
		"XXXXXX",
		"X....X",
		"X.XX.X",
		"X..X.X",
		"XXXX.X",
	)
	r := GrowRegion(s, image.Pt(0, 0), 0)
	path, err := r.Trace()
	require.NoError(t, err)
	assert.LessOrEqual(len(path), 2*r.Width*r.Height)
	assert.Equal(image.Pt(0, 0), path[0])
	for _, p := range path {
		assert.True(r.Has(p.X, p.Y))
	}
	for i := 1; i < len(path); i++ {
		d := path[i].Sub(path[i-1])
		assert.Equal(1, abs(d.X)+abs(d.Y), "step %d is not a 4-neighbor move", i)
	}
}

func TestRegion_TraceOverflow(t *testing.T) {
	r := GrowRegion(NewFilledSurface(4, 4, red), image.Pt(0, 0), 0)
	_, err := r.trace(5)
	assert.True(t, errors.Is(err, ErrTraceOverflow))

	path, err := r.trace(12)
	assert.NoError(t, err)
	assert.Len(t, path, 12)
}

func TestSimplify(t *testing.T) {
	assert := assert.New(t)

	path := []image.Point{{0, 0}, {1, 0}, {2, 0}, {2, 1}, {2, 2}, {1, 2}, {0, 2}, {0, 1}}
	assert.Equal([]image.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}}, simplify(path))
	assert.Equal([]image.Point{{3, 3}}, simplify([]image.Point{{3, 3}}))
}
