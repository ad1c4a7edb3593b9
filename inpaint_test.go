package retouch

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rectMask(w, h int, r image.Rectangle) []bool {
	mask := make([]bool, w*h)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			mask[y*w+x] = true
		}
	}
	return mask
}

func TestInpaint_RebuildsUniformBackground(t *testing.T) {
	assert := assert.New(t)

	s := NewFilledSurface(20, 20, gray(100))
	hole := image.Rect(8, 8, 12, 12)
	for y := hole.Min.Y; y < hole.Max.Y; y++ {
		for x := hole.Min.X; x < hole.Max.X; x++ {
			s.Set(x, y, color.NRGBA{R: 0xff, A: 77})
		}
	}
	orig := s.Clone()

	out, err := Inpaint(context.Background(), s, rectMask(20, 20, hole), InpaintOptions{PatchSize: 5, Iterations: 3, Seed: 1})
	require.NoError(t, err)
	assert.True(s.Equal(orig))

	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			c := out.At(x, y)
			if image.Pt(x, y).In(hole) {
				assert.Equal(color.NRGBA{R: 100, G: 100, B: 100, A: 77}, c, "pixel (%d, %d)", x, y)
			} else {
				assert.Equal(gray(100), c)
			}
		}
	}
}

func TestInpaint_IsDeterministic(t *testing.T) {
	s := checker(24, 24, 30, 220)
	mask := rectMask(24, 24, image.Rect(10, 9, 15, 13))
	opts := InpaintOptions{PatchSize: 5, Iterations: 4, Seed: 42}

	a, err := Inpaint(context.Background(), s, mask, opts)
	require.NoError(t, err)
	b, err := Inpaint(context.Background(), s, mask, opts)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestInpaint_EmptyMask(t *testing.T) {
	s := checker(8, 8, 0, 255)
	out, err := Inpaint(context.Background(), s, make([]bool, 64), InpaintOptions{})
	require.NoError(t, err)
	assert.True(t, out.Equal(s))
}

func TestInpaint_Errors(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewFilledSurface(6, 6, red)

	_, err := Inpaint(ctx, s, make([]bool, 3), InpaintOptions{})
	assert.Error(err)

	// The default 7x7 patch does not fit in the surface.
	_, err = Inpaint(ctx, s, rectMask(6, 6, image.Rect(2, 2, 3, 3)), InpaintOptions{})
	assert.True(errors.Is(err, ErrNoInpaintSource))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Inpaint(cancelled, NewFilledSurface(20, 20, red), rectMask(20, 20, image.Rect(8, 8, 10, 10)), InpaintOptions{PatchSize: 3})
	assert.True(errors.Is(err, context.Canceled))
}

func TestMaskFromSurface(t *testing.T) {
	m := NewSurface(3, 1)
	m.Set(0, 0, white)
	m.Set(1, 0, color.NRGBA{R: 128, A: 0xff})
	m.Set(2, 0, color.NRGBA{R: 129})
	assert.Equal(t, []bool{true, false, true}, MaskFromSurface(m))
}
