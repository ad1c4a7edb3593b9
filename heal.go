package retouch

import (
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/esimov/retouch/imop"
	"github.com/esimov/retouch/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LowPass selects the filter separating the low frequencies of a patch.
type LowPass int

const (
	// StackBlurLowPass is the separable stack blur from stackblur.go.
	StackBlurLowPass LowPass = iota
	// GaussianLowPass is the gaussian blur provided by imaging.
	GaussianLowPass
)

func (lp LowPass) String() string {
	if lp == GaussianLowPass {
		return "gaussian"
	}
	return "stack"
}

// ParseLowPass converts a filter name used in configuration files.
func ParseLowPass(name string) (LowPass, error) {
	switch strings.ToLower(name) {
	case "", "stack", "stackblur":
		return StackBlurLowPass, nil
	case "gaussian", "gauss":
		return GaussianLowPass, nil
	}
	return StackBlurLowPass, errors.Errorf("unknown low pass filter %q", name)
}

// healAlphaThreshold is the alpha above which a pixel counts in the patch statistics.
const healAlphaThreshold = 8

// HealOptions defines the brush used by HealDab.
type HealOptions struct {
	// Size is the brush diameter in pixels, rounded up to an odd value.
	Size int
	// Strength in the 0..1 range. Zero leaves the destination untouched.
	Strength float64
	// Hardness in the 0..1 range: the fraction of the radius kept at full
	// opacity before the linear falloff.
	Hardness float64
	// BlurRadius of the low pass filter. Values <= 0 derive it from the size.
	BlurRadius int
	LowPass    LowPass
	// Fast skips the frequency decomposition. Used for live previews.
	Fast bool
}

func (o HealOptions) size() int {
	size := max(o.Size, 1)
	if size%2 == 0 {
		size++
	}
	return size
}

func (o HealOptions) blurRadius() int {
	if o.BlurRadius > 0 {
		return o.BlurRadius
	}
	return max(1, o.size()/4)
}

// PatchStats holds the mean luminance and chroma of a patch, computed over
// its non transparent pixels. Cb and Cr are the blue and red differences
// to the luminance.
type PatchStats struct {
	Lum, Cb, Cr float64
	Count       int
}

// patchStats computes the statistics of the pixels whose alpha exceeds healAlphaThreshold.
func patchStats(s *Surface) PatchStats {
	var st PatchStats
	for i := 0; i < len(s.Pix); i += 4 {
		if s.Pix[i+3] <= healAlphaThreshold {
			continue
		}
		r, g, b := float64(s.Pix[i]), float64(s.Pix[i+1]), float64(s.Pix[i+2])
		y := 0.299*r + 0.587*g + 0.114*b
		st.Lum += y
		st.Cb += b - y
		st.Cr += r - y
		st.Count++
	}
	if st.Count > 0 {
		n := float64(st.Count)
		st.Lum /= n
		st.Cb /= n
		st.Cr /= n
	}
	return st
}

// lumFactor returns the ratio adapting the source luminance to the
// destination one, or 1 when either patch has no usable pixel.
func lumFactor(src, dst PatchStats) float64 {
	if src.Count == 0 || dst.Count == 0 || src.Lum < 1e-3 {
		return 1
	}
	return dst.Lum / src.Lum
}

// Dab is a single stamp of the healing brush.
type Dab struct {
	// Rect is the area covered by the patch, in destination coordinates.
	Rect image.Rectangle
	// Patch holds the healed pixels. Its alpha already carries the brush
	// mask and the strength.
	Patch *Surface
	// Source and Dest are the statistics the luminance factor derives from.
	Source, Dest PatchStats
	Factor       float64
}

// HealDab computes the patch grafting the texture found around srcPt in
// src onto the area around dstPt in dst, adapting its luminance to the
// destination. Neither surface is modified; use Dab.Apply to paint it.
func HealDab(src, dst *Surface, srcPt, dstPt image.Point, opts HealOptions) *Dab {
	size := opts.size()
	half := size / 2
	strength := utils.Clamp(opts.Strength, 0, 1)

	srcRect := image.Rect(srcPt.X-half, srcPt.Y-half, srcPt.X+half+1, srcPt.Y+half+1)
	dstRect := image.Rect(dstPt.X-half, dstPt.Y-half, dstPt.X+half+1, dstPt.Y+half+1)
	srcPatch := src.Region(srcRect)
	dstPatch := dst.Region(dstRect)

	dab := &Dab{Rect: dstRect}
	if opts.Fast {
		dab.Source, dab.Dest = patchStats(srcPatch), patchStats(dstPatch)
		dab.Factor = lumFactor(dab.Source, dab.Dest)
		dab.Patch = srcPatch.Clone()
		for i := 0; i < len(srcPatch.Pix); i += 4 {
			for c := 0; c < 3; c++ {
				dab.Patch.Pix[i+c] = utils.ClampByte(float64(srcPatch.Pix[i+c]) * dab.Factor)
			}
		}
	} else {
		radius := opts.blurRadius()
		srcLow := lowPass(srcPatch, radius, opts.LowPass)
		dstLow := lowPass(dstPatch, radius, opts.LowPass)
		dab.Source, dab.Dest = patchStats(srcLow), patchStats(dstLow)
		dab.Factor = lumFactor(dab.Source, dab.Dest)

		dab.Patch = NewSurface(size, size)
		f := dab.Factor
		for i := 0; i < len(srcPatch.Pix); i += 4 {
			for c := 0; c < 3; c++ {
				high := float64(srcPatch.Pix[i+c]) - float64(srcLow.Pix[i+c]) + 128
				low := float64(srcLow.Pix[i+c])*f*strength + float64(dstLow.Pix[i+c])*(1-strength)
				dab.Patch.Pix[i+c] = utils.ClampByte(low + high - 128)
			}
			dab.Patch.Pix[i+3] = srcLow.Pix[i+3]
		}
	}
	applyBrushMask(dab.Patch, opts.Hardness, strength)

	Logger().Debug("heal dab",
		zap.Stringer("dst", dstPt),
		zap.Int("size", size),
		zap.Bool("fast", opts.Fast),
		zap.Float64("factor", dab.Factor),
		zap.Float64("src_lum", dab.Source.Lum),
		zap.Float64("dst_lum", dab.Dest.Lum),
	)
	return dab
}

// Apply returns a copy of dst with the patch composited over it.
func (d *Dab) Apply(dst *Surface) *Surface {
	out := dst.Clone()
	imop.DrawAt(out.NRGBA(), d.Patch.NRGBA(), d.Rect.Min, 1, nil)
	return out
}

// lowPass returns a blurred copy of the patch.
func lowPass(p *Surface, radius int, kind LowPass) *Surface {
	if kind == GaussianLowPass {
		sigma := math.Max(float64(radius)/2, 0.5)
		return FromImage(imaging.Blur(p.NRGBA(), sigma))
	}
	return StackBlur(p.Clone(), radius)
}

// applyBrushMask multiplies the patch alpha by a circular mask: opaque up
// to radius*hardness from the center, then fading linearly to zero at the
// radius. The result is scaled by strength.
func applyBrushMask(p *Surface, hardness, strength float64) {
	radius := float64(p.Width) / 2
	inner := radius * utils.Clamp(hardness, 0, 1)
	c := float64(p.Width-1) / 2

	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			d := math.Hypot(float64(x)-c, float64(y)-c)
			var m float64
			switch {
			case d <= inner:
				m = 1
			case d >= radius:
				m = 0
			default:
				m = (radius - d) / (radius - inner)
			}
			i := p.offset(x, y)
			p.Pix[i+3] = utils.ClampByte(float64(p.Pix[i+3]) * m * strength)
		}
	}
}
