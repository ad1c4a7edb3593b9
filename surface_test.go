package retouch

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	green = color.NRGBA{G: 0xff, A: 0xff}
	blue  = color.NRGBA{B: 0xff, A: 0xff}
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	black = color.NRGBA{A: 0xff}
)

func TestSurface_BufferLength(t *testing.T) {
	assert := assert.New(t)

	s := NewSurface(7, 3)
	assert.Len(s.Pix, 7*3*4)

	s = NewSurface(-2, 5)
	assert.Equal(0, s.Width)
	assert.Len(s.Pix, 0)
}

func TestSurface_OutOfBounds(t *testing.T) {
	assert := assert.New(t)

	s := NewFilledSurface(4, 4, red)
	assert.Equal(red, s.At(3, 3))
	assert.Equal(color.NRGBA{}, s.At(-1, 0))
	assert.Equal(color.NRGBA{}, s.At(4, 0))

	before := s.Clone()
	s.Set(10, 10, blue)
	s.Set(-1, 2, blue)
	assert.True(before.Equal(s))
}

func TestSurface_Region(t *testing.T) {
	assert := assert.New(t)

	s := NewFilledSurface(4, 4, red)
	s.Set(0, 0, blue)

	r := s.Region(image.Rect(-1, -1, 2, 2))
	assert.Equal(3, r.Width)
	assert.Equal(3, r.Height)
	assert.Equal(color.NRGBA{}, r.At(0, 0))
	assert.Equal(color.NRGBA{}, r.At(2, 0))
	assert.Equal(blue, r.At(1, 1))
	assert.Equal(red, r.At(2, 2))
}

func TestSurface_CloneIsDeep(t *testing.T) {
	s := NewFilledSurface(2, 2, red)
	c := s.Clone()
	c.Set(0, 0, blue)
	assert.Equal(t, red, s.At(0, 0))
	assert.False(t, s.Equal(c))
}

func TestSurface_FromImage(t *testing.T) {
	assert := assert.New(t)

	img := image.NewNRGBA(image.Rect(-2, -2, 3, 3))
	img.Set(-2, -2, green)
	img.Set(2, 2, blue)

	s := FromImage(img)
	assert.Equal(5, s.Width)
	assert.Equal(5, s.Height)
	assert.Equal(green, s.At(0, 0))
	assert.Equal(blue, s.At(4, 4))

	view := s.NRGBA()
	view.Set(1, 1, red)
	assert.Equal(red, s.At(1, 1))
}
