package retouch

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gray(v uint8) color.NRGBA {
	return color.NRGBA{R: v, G: v, B: v, A: 0xff}
}

// checker returns a textured surface alternating two gray levels.
func checker(w, h int, a, b uint8) *Surface {
	s := NewSurface(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				s.Set(x, y, gray(a))
			} else {
				s.Set(x, y, gray(b))
			}
		}
	}
	return s
}

func TestHealDab_AdaptsLuminance(t *testing.T) {
	for _, lp := range []LowPass{StackBlurLowPass, GaussianLowPass} {
		t.Run(lp.String(), func(t *testing.T) {
			src := checker(32, 32, 40, 60)
			dst := NewFilledSurface(32, 32, gray(200))

			dab := HealDab(src, dst, image.Pt(16, 16), image.Pt(16, 16), HealOptions{
				Size:     9,
				Strength: 1,
				Hardness: 0.5,
				LowPass:  lp,
			})
			assert.InDelta(t, 4, dab.Factor, 0.2)

			healed := patchStats(dab.Patch)
			require.Greater(t, healed.Count, 0)
			assert.InDelta(t, 200, healed.Lum, 15)

			// The texture survives the graft.
			c := dab.Patch.At(4, 4)
			n := dab.Patch.At(5, 4)
			assert.NotEqual(t, c.R, n.R)

			out := dab.Apply(dst)
			l1 := 50.0
			l2 := 200.0
			got := patchStats(out.Region(dab.Rect)).Lum
			assert.Less(t, math.Abs(got-l2), math.Abs(got-l1))
		})
	}
}

func TestHealDab_ZeroStrengthKeepsDestination(t *testing.T) {
	src := checker(20, 20, 10, 250)
	dst := checker(20, 20, 100, 120)

	for _, fast := range []bool{false, true} {
		dab := HealDab(src, dst, image.Pt(5, 5), image.Pt(12, 12), HealOptions{Size: 7, Strength: 0, Fast: fast})
		assert.True(t, dab.Apply(dst).Equal(dst))
	}
}

func TestHealDab_OddSize(t *testing.T) {
	assert := assert.New(t)

	s := NewFilledSurface(20, 20, red)
	dab := HealDab(s, s, image.Pt(10, 10), image.Pt(10, 10), HealOptions{Size: 8, Strength: 1})
	assert.Equal(9, dab.Patch.Width)
	assert.Equal(9, dab.Patch.Height)
	assert.Equal(image.Rect(6, 6, 15, 15), dab.Rect)

	dab = HealDab(s, s, image.Pt(10, 10), image.Pt(3, 3), HealOptions{Size: 0, Strength: 1})
	assert.Equal(1, dab.Patch.Width)
	assert.Equal(image.Rect(3, 3, 4, 4), dab.Rect)
}

func TestHealDab_SoftMask(t *testing.T) {
	assert := assert.New(t)

	s := NewFilledSurface(20, 20, white)
	dab := HealDab(s, s, image.Pt(10, 10), image.Pt(10, 10), HealOptions{Size: 9, Strength: 1, Hardness: 0.5})
	assert.Equal(uint8(0xff), dab.Patch.At(4, 4).A)
	assert.Equal(uint8(0), dab.Patch.At(0, 0).A)
	edge := dab.Patch.At(0, 4).A
	assert.Greater(edge, uint8(0))
	assert.Less(edge, uint8(0xff))

	half := HealDab(s, s, image.Pt(10, 10), image.Pt(10, 10), HealOptions{Size: 9, Strength: 0.5, Hardness: 0.5})
	assert.Equal(uint8(128), half.Patch.At(4, 4).A)
}

func TestHealDab_Fast(t *testing.T) {
	assert := assert.New(t)

	src := NewFilledSurface(20, 20, gray(50))
	dst := NewFilledSurface(20, 20, gray(100))
	dab := HealDab(src, dst, image.Pt(10, 10), image.Pt(10, 10), HealOptions{Size: 5, Strength: 1, Hardness: 1, Fast: true})
	assert.InDelta(2, dab.Factor, 1e-9)
	assert.Equal(gray(100), dab.Patch.At(2, 2))
}

func TestHealDab_TransparentSourceKeepsColors(t *testing.T) {
	assert := assert.New(t)

	src := NewSurface(10, 10)
	dst := NewFilledSurface(10, 10, gray(90))
	dab := HealDab(src, dst, image.Pt(5, 5), image.Pt(5, 5), HealOptions{Size: 5, Strength: 1})
	assert.Equal(0, dab.Source.Count)
	assert.Equal(1.0, dab.Factor)
	assert.True(dab.Apply(dst).Equal(dst))
}

func TestHealDab_OutOfBoundsReadsTransparent(t *testing.T) {
	src := NewFilledSurface(10, 10, gray(80))
	dst := NewFilledSurface(10, 10, gray(80))
	dab := HealDab(src, dst, image.Pt(0, 0), image.Pt(5, 5), HealOptions{Size: 5, Strength: 1, Hardness: 1, Fast: true})
	// The top-left quarter of the source patch is outside of the surface.
	assert.Equal(t, uint8(0), dab.Patch.At(0, 0).A)
	assert.Equal(t, uint8(0xff), dab.Patch.At(2, 2).A)
}

func TestParseLowPass(t *testing.T) {
	lp, err := ParseLowPass("Gaussian")
	assert.NoError(t, err)
	assert.Equal(t, GaussianLowPass, lp)

	lp, err = ParseLowPass("")
	assert.NoError(t, err)
	assert.Equal(t, StackBlurLowPass, lp)

	_, err = ParseLowPass("box")
	assert.Error(t, err)
}
