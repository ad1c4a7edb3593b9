package retouch

import (
	"image"
	"image/color"

	"go.uber.org/zap"
)

// FillOptions configures FloodFill.
type FillOptions struct {
	// Tolerance is the maximum per channel difference to the seed color.
	Tolerance uint8
	// Sample, when set, is read by the color match instead of the target
	// surface (sample merged). It must be aligned with the target: same
	// size, same origin.
	Sample *Surface
	// Selection constrains the fill. Offset is the position of the
	// target surface in document space, used to test membership.
	Selection *Selection
	Offset    Vec
	// Whole paints every selected pixel regardless of its color, or the
	// whole surface when there is no selection.
	Whole bool
}

// colorMatch reports whether every channel of a and b differs by at most t.
func colorMatch(a, b color.NRGBA, t uint8) bool {
	return absDiff(a.R, b.R) <= t &&
		absDiff(a.G, b.G) <= t &&
		absDiff(a.B, b.B) <= t &&
		absDiff(a.A, b.A) <= t
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// sameFill reports whether a pixel already holds the fill color.
// The alpha channel is compared with a tolerance of one unit.
func sameFill(a, c color.NRGBA) bool {
	return a.R == c.R && a.G == c.G && a.B == c.B && absDiff(a.A, c.A) < 2
}

// FloodFill paints the 4-connected area of pixels matching the seed color
// with c and returns the resulting surface. The source surface is never
// modified. The second return value reports whether any pixel changed:
// when the seed lies outside the surface or the selection, or the seed
// pixel already holds the fill color, s itself is returned.
func FloodFill(s *Surface, seed image.Point, c color.NRGBA, opts FillOptions) (*Surface, bool) {
	if opts.Whole {
		return fillSelection(s, c, opts)
	}
	if !s.In(seed.X, seed.Y) {
		return s, false
	}
	sel := opts.Selection
	if sel != nil && !sel.ContainsPixel(seed.X, seed.Y, opts.Offset) {
		return s, false
	}

	sample := s
	if opts.Sample != nil && opts.Sample.Width == s.Width && opts.Sample.Height == s.Height {
		sample = opts.Sample
	}
	if sample == s && sameFill(s.At(seed.X, seed.Y), c) {
		return s, false
	}

	target := sample.At(seed.X, seed.Y)
	match := func(x, y int) bool {
		if sel != nil && !sel.ContainsPixel(x, y, opts.Offset) {
			return false
		}
		return colorMatch(sample.At(x, y), target, opts.Tolerance)
	}

	dst := s.Clone()
	filled := scanFill(s.Width, s.Height, seed, match, func(x, y int) {
		i := dst.offset(x, y)
		dst.Pix[i] = c.R
		dst.Pix[i+1] = c.G
		dst.Pix[i+2] = c.B
		dst.Pix[i+3] = c.A
	})

	Logger().Debug("flood fill",
		zap.Int("x", seed.X), zap.Int("y", seed.Y),
		zap.Int("pixels", filled),
		zap.Bool("merged", sample != s),
	)
	return dst, filled > 0
}

// fillSelection paints every pixel contained in the selection.
func fillSelection(s *Surface, c color.NRGBA, opts FillOptions) (*Surface, bool) {
	dst := s.Clone()
	if opts.Selection == nil {
		dst.Fill(c)
	} else {
		px := []uint8{c.R, c.G, c.B, c.A}
		for i, in := range opts.Selection.Mask(s.Width, s.Height, opts.Offset) {
			if in {
				copy(dst.Pix[i*4:i*4+4], px)
			}
		}
	}
	if dst.Equal(s) {
		return s, false
	}
	Logger().Debug("fill selection", zap.Bool("selection", opts.Selection != nil))
	return dst, true
}

// scanFill runs a 4-connected span flood fill over a width x height grid
// starting at seed. match tells whether a pixel belongs to the area and
// visit is called exactly once for every pixel of the area. It uses an
// explicit stack and pushes at most one seed per contiguous span found in
// the rows above and below a filled span. It returns the number of
// visited pixels.
func scanFill(width, height int, seed image.Point, match func(x, y int) bool, visit func(x, y int)) int {
	visited := make([]bool, width*height)
	accept := func(x, y int) bool {
		return !visited[y*width+x] && match(x, y)
	}

	var count int
	stack := []image.Point{seed}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !accept(p.X, p.Y) {
			continue
		}
		lx, rx := p.X, p.X
		for lx > 0 && accept(lx-1, p.Y) {
			lx--
		}
		for rx < width-1 && accept(rx+1, p.Y) {
			rx++
		}
		for x := lx; x <= rx; x++ {
			visited[p.Y*width+x] = true
			visit(x, p.Y)
		}
		count += rx - lx + 1

		for _, ny := range [2]int{p.Y - 1, p.Y + 1} {
			if ny < 0 || ny >= height {
				continue
			}
			inSpan := false
			for x := lx; x <= rx; x++ {
				if accept(x, ny) {
					if !inSpan {
						stack = append(stack, image.Pt(x, ny))
						inSpan = true
					}
				} else {
					inSpan = false
				}
			}
		}
	}
	return count
}
