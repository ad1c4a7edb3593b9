package retouch

import (
	"context"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// InpaintOptions configures the content aware fill.
type InpaintOptions struct {
	// PatchSize is the side of the square patches compared by the search,
	// rounded up to an odd value. Defaults to 7.
	PatchSize int
	// Iterations of propagation and random search. Defaults to 5.
	Iterations int
	// Seed of the random search. Two runs with the same seed and input
	// produce the same output.
	Seed int64
}

func (o InpaintOptions) withDefaults() InpaintOptions {
	if o.PatchSize <= 0 {
		o.PatchSize = 7
	}
	if o.PatchSize%2 == 0 {
		o.PatchSize++
	}
	if o.Iterations <= 0 {
		o.Iterations = 5
	}
	return o
}

// MaskFromSurface converts a painted mask to a fill mask: a pixel is
// filled when its red channel is above 128.
func MaskFromSurface(m *Surface) []bool {
	mask := make([]bool, m.Width*m.Height)
	for i := range mask {
		mask[i] = m.Pix[i*4] > 128
	}
	return mask
}

// inpainter holds the state of one PatchMatch run.
type inpainter struct {
	w, h   int
	half   int
	pix    []uint8
	mask   []bool
	source []bool // patch centers whose whole patch is known
	nnf    []int  // best source center for every masked pixel
	cost   []float64
	rnd    *rand.Rand
}

// Inpaint synthesizes the masked pixels from the rest of the surface with
// a single scale PatchMatch: the hole is first filled by peeling it from
// its border inwards, then every masked pixel is matched to the most
// similar fully known patch, and the hole is rebuilt by averaging the
// overlapping matches. Only the color channels of masked pixels are
// written; alpha is preserved. The input surface is left untouched.
func Inpaint(ctx context.Context, s *Surface, mask []bool, opts InpaintOptions) (*Surface, error) {
	if len(mask) != s.Width*s.Height {
		return nil, errors.Errorf("inpaint: mask has %d pixels, surface %dx%d", len(mask), s.Width, s.Height)
	}
	opts = opts.withDefaults()
	out := s.Clone()

	holes := 0
	for _, m := range mask {
		if m {
			holes++
		}
	}
	if holes == 0 {
		return out, nil
	}

	p := &inpainter{
		w:    s.Width,
		h:    s.Height,
		half: opts.PatchSize / 2,
		pix:  out.Pix,
		mask: mask,
		rnd:  rand.New(rand.NewSource(opts.Seed)),
	}
	sources := p.findSources()
	if len(sources) == 0 {
		return nil, errors.Wrapf(ErrNoInpaintSource, "patch size %d", opts.PatchSize)
	}
	p.peel()
	p.initField(sources)

	for it := 0; it < opts.Iterations; it++ {
		if err := p.iterate(ctx, it%2 == 1); err != nil {
			return nil, errors.Wrap(err, "inpaint")
		}
		p.reconstruct()
	}

	Logger().Debug("inpaint",
		zap.Int("holes", holes),
		zap.Int("sources", len(sources)),
		zap.Int("patch", opts.PatchSize),
		zap.Int("iterations", opts.Iterations),
	)
	return out, nil
}

// findSources marks the pixels whose patch lies inside the surface and
// contains no masked pixel.
func (p *inpainter) findSources() []int {
	p.source = make([]bool, p.w*p.h)
	var list []int
	for y := p.half; y < p.h-p.half; y++ {
	next:
		for x := p.half; x < p.w-p.half; x++ {
			for dy := -p.half; dy <= p.half; dy++ {
				for dx := -p.half; dx <= p.half; dx++ {
					if p.mask[(y+dy)*p.w+x+dx] {
						continue next
					}
				}
			}
			i := y*p.w + x
			p.source[i] = true
			list = append(list, i)
		}
	}
	return list
}

// peel gives every masked pixel an initial color, layer after layer from
// the hole border inwards, by averaging its already known neighbors.
func (p *inpainter) peel() {
	known := make([]bool, len(p.mask))
	var front []int
	for i, m := range p.mask {
		known[i] = !m
		if m {
			front = append(front, i)
		}
	}
	for len(front) > 0 {
		var ready, rest []int
		for _, i := range front {
			if p.knownNeighbors(known, i) > 0 {
				ready = append(ready, i)
			} else {
				rest = append(rest, i)
			}
		}
		if len(ready) == 0 {
			return
		}
		for _, i := range ready {
			p.averageNeighbors(known, i)
		}
		for _, i := range ready {
			known[i] = true
		}
		front = rest
	}
}

func (p *inpainter) knownNeighbors(known []bool, i int) int {
	x, y := i%p.w, i/p.w
	n := 0
	for _, d := range steps {
		nx, ny := x+d.X, y+d.Y
		if nx >= 0 && ny >= 0 && nx < p.w && ny < p.h && known[ny*p.w+nx] {
			n++
		}
	}
	return n
}

// averageNeighbors sets the color of pixel i to the mean of its known 8-neighbors.
func (p *inpainter) averageNeighbors(known []bool, i int) {
	x, y := i%p.w, i/p.w
	var sum [3]int
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if (dx == 0 && dy == 0) || nx < 0 || ny < 0 || nx >= p.w || ny >= p.h {
				continue
			}
			j := ny*p.w + nx
			if !known[j] {
				continue
			}
			for c := 0; c < 3; c++ {
				sum[c] += int(p.pix[j*4+c])
			}
			n++
		}
	}
	if n == 0 {
		return
	}
	for c := 0; c < 3; c++ {
		p.pix[i*4+c] = uint8((sum[c] + n/2) / n)
	}
}

// initField assigns a random source patch to every masked pixel.
func (p *inpainter) initField(sources []int) {
	p.nnf = make([]int, len(p.mask))
	p.cost = make([]float64, len(p.mask))
	for i, m := range p.mask {
		if !m {
			continue
		}
		p.nnf[i] = sources[p.rnd.Intn(len(sources))]
		p.cost[i] = p.distance(i, p.nnf[i], math.Inf(1))
	}
}

// distance returns the sum of squared color differences between the patch
// centered on the target pixel t and the one centered on the source pixel
// s, giving up as soon as it exceeds limit. Target patch pixels lying
// outside the surface are ignored.
func (p *inpainter) distance(t, s int, limit float64) float64 {
	tx, ty := t%p.w, t/p.w
	sx, sy := s%p.w, s/p.w

	var d float64
	for dy := -p.half; dy <= p.half; dy++ {
		y := ty + dy
		if y < 0 || y >= p.h {
			continue
		}
		for dx := -p.half; dx <= p.half; dx++ {
			x := tx + dx
			if x < 0 || x >= p.w {
				continue
			}
			ti := (y*p.w + x) * 4
			si := ((sy+dy)*p.w + sx + dx) * 4
			for c := 0; c < 3; c++ {
				diff := float64(p.pix[ti+c]) - float64(p.pix[si+c])
				d += diff * diff
			}
		}
		if d > limit {
			return d
		}
	}
	return d
}

// try replaces the match of t with the source center s when it is closer.
func (p *inpainter) try(t, s int) {
	if s < 0 || s >= len(p.source) || !p.source[s] || s == p.nnf[t] {
		return
	}
	if d := p.distance(t, s, p.cost[t]); d < p.cost[t] {
		p.nnf[t], p.cost[t] = s, d
	}
}

// iterate runs one propagation and random search pass, in scan order or in
// reverse scan order. The context is checked between rows.
func (p *inpainter) iterate(ctx context.Context, reverse bool) error {
	step, y0, y1 := 1, 0, p.h
	if reverse {
		step, y0, y1 = -1, p.h-1, -1
	}
	for y := y0; y != y1; y += step {
		if err := ctx.Err(); err != nil {
			return err
		}
		x0, x1 := 0, p.w
		if reverse {
			x0, x1 = p.w-1, -1
		}
		for x := x0; x != x1; x += step {
			t := y*p.w + x
			if !p.mask[t] {
				continue
			}
			// Propagation: shift the matches of the already visited neighbors.
			if nx := x - step; nx >= 0 && nx < p.w && p.mask[t-step] {
				if s := p.nnf[t-step]; s%p.w+step >= 0 && s%p.w+step < p.w {
					p.try(t, s+step)
				}
			}
			if ny := y - step; ny >= 0 && ny < p.h && p.mask[t-step*p.w] {
				p.try(t, p.nnf[t-step*p.w]+step*p.w)
			}
			p.search(t)
		}
	}
	return nil
}

// search samples source centers around the current match in windows of
// exponentially decreasing size.
func (p *inpainter) search(t int) {
	for r := max(p.w, p.h); r >= 1; r /= 2 {
		best := p.nnf[t]
		bx, by := best%p.w, best/p.w
		x := bx + p.rnd.Intn(2*r+1) - r
		y := by + p.rnd.Intn(2*r+1) - r
		if x < 0 || y < 0 || x >= p.w || y >= p.h {
			continue
		}
		p.try(t, y*p.w+x)
	}
}

// reconstruct rebuilds every masked pixel as the average of the colors
// proposed by the matches of the masked pixels whose patch covers it.
func (p *inpainter) reconstruct() {
	colors := make([]uint8, len(p.pix))
	copy(colors, p.pix)
	for t, m := range p.mask {
		if !m {
			continue
		}
		tx, ty := t%p.w, t/p.w
		var sum [3]int
		n := 0
		for dy := -p.half; dy <= p.half; dy++ {
			for dx := -p.half; dx <= p.half; dx++ {
				nx, ny := tx+dx, ty+dy
				if nx < 0 || ny < 0 || nx >= p.w || ny >= p.h {
					continue
				}
				j := ny*p.w + nx
				if !p.mask[j] {
					continue
				}
				// The match of j is a source center; the pixel it proposes
				// for t lies at the same relative position.
				s := p.nnf[j]
				si := ((s/p.w-dy)*p.w + s%p.w - dx) * 4
				for c := 0; c < 3; c++ {
					sum[c] += int(p.pix[si+c])
				}
				n++
			}
		}
		for c := 0; c < 3; c++ {
			colors[t*4+c] = uint8((sum[c] + n/2) / n)
		}
	}
	copy(p.pix, colors)
	for t, m := range p.mask {
		if m {
			p.cost[t] = p.distance(t, p.nnf[t], math.Inf(1))
		}
	}
}
