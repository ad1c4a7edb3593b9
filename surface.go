package retouch

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Surface is an addressable grid of non premultiplied RGBA pixels.
// The pixel buffer is laid out row by row, four bytes per pixel,
// and its length is always Width*Height*4.
//
// Surfaces referenced by a Document are never mutated: an edit works
// on a Clone and the result replaces the layer's surface.
type Surface struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewSurface allocates a fully transparent surface.
// Negative sizes are treated as zero.
func NewSurface(width, height int) *Surface {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Surface{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// NewFilledSurface allocates a surface where every pixel has the color c.
func NewFilledSurface(width, height int, c color.NRGBA) *Surface {
	s := NewSurface(width, height)
	s.Fill(c)
	return s
}

// FromImage converts any image type to a surface with the origin at (0, 0).
func FromImage(img image.Image) *Surface {
	dst := imaging.Clone(img)
	return &Surface{
		Width:  dst.Rect.Dx(),
		Height: dst.Rect.Dy(),
		Pix:    dst.Pix,
	}
}

// NRGBA returns an *image.NRGBA view sharing the surface pixel buffer.
func (s *Surface) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    s.Pix,
		Stride: s.Width * 4,
		Rect:   image.Rect(0, 0, s.Width, s.Height),
	}
}

// Bounds returns the surface rectangle.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// In reports whether (x, y) addresses a pixel of the surface.
func (s *Surface) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.Width && y < s.Height
}

// offset returns the index of the first byte of the pixel at (x, y).
func (s *Surface) offset(x, y int) int {
	return (y*s.Width + x) * 4
}

// At returns the color of the pixel at (x, y).
// Coordinates outside of the surface read as fully transparent.
func (s *Surface) At(x, y int) color.NRGBA {
	if !s.In(x, y) {
		return color.NRGBA{}
	}
	i := s.offset(x, y)
	return color.NRGBA{R: s.Pix[i], G: s.Pix[i+1], B: s.Pix[i+2], A: s.Pix[i+3]}
}

// Set changes the color of the pixel at (x, y). Out of range writes are ignored.
func (s *Surface) Set(x, y int, c color.NRGBA) {
	if !s.In(x, y) {
		return
	}
	i := s.offset(x, y)
	s.Pix[i] = c.R
	s.Pix[i+1] = c.G
	s.Pix[i+2] = c.B
	s.Pix[i+3] = c.A
}

// Fill sets every pixel of the surface to c.
func (s *Surface) Fill(c color.NRGBA) {
	for i := 0; i < len(s.Pix); i += 4 {
		s.Pix[i] = c.R
		s.Pix[i+1] = c.G
		s.Pix[i+2] = c.B
		s.Pix[i+3] = c.A
	}
}

// Clone returns a deep copy of the surface.
func (s *Surface) Clone() *Surface {
	pix := make([]uint8, len(s.Pix))
	copy(pix, s.Pix)
	return &Surface{Width: s.Width, Height: s.Height, Pix: pix}
}

// Region copies the pixels of r into a new surface of r's size.
// Parts of r lying outside of the surface read as fully transparent.
func (s *Surface) Region(r image.Rectangle) *Surface {
	dst := NewSurface(r.Dx(), r.Dy())
	in := r.Intersect(s.Bounds())
	if in.Empty() {
		return dst
	}
	rowSize := in.Dx() * 4
	for y := in.Min.Y; y < in.Max.Y; y++ {
		si := s.offset(in.Min.X, y)
		di := dst.offset(in.Min.X-r.Min.X, y-r.Min.Y)
		copy(dst.Pix[di:di+rowSize], s.Pix[si:si+rowSize])
	}
	return dst
}

// Equal reports whether both surfaces have the same size and pixels.
func (s *Surface) Equal(o *Surface) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || s.Width != o.Width || s.Height != o.Height {
		return false
	}
	for i := range s.Pix {
		if s.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}
