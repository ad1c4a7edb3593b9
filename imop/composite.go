package imop

import (
	"fmt"
	"image"

	"github.com/esimov/retouch/utils"
)

// Porter-Duff composition operations.
const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

var compositeOps = []string{
	Clear, Copy, Dst, SrcOver, DstOver, SrcIn, DstIn,
	SrcOut, DstOut, SrcAtop, DstAtop, Xor,
}

// Bitmap holds the result of a composition.
type Bitmap struct {
	Img *image.NRGBA
}

// Composite holds the currently active composition operation.
type Composite struct {
	current string
}

// NewBitmap initializes a new Bitmap.
func NewBitmap(rect image.Rectangle) *Bitmap {
	return &Bitmap{
		Img: image.NewNRGBA(rect),
	}
}

// InitOp initializes a new composition operation, defaulting to SrcOver.
func InitOp() *Composite {
	return &Composite{current: SrcOver}
}

// Set changes the current composition operation.
func (op *Composite) Set(cop string) error {
	if !utils.Contains(compositeOps, cop) {
		return fmt.Errorf("unsupported composition operation: %v", cop)
	}
	op.current = cop
	return nil
}

// Get returns the active composition operation.
func (op *Composite) Get() string {
	return op.current
}

// Draw composites the source over the destination image into the bitmap, using
// the active composition operation and the optional blend mode.
// The source and destination are expected to have the same dimensions.
func (op *Composite) Draw(bitmap *Bitmap, src, dst *image.NRGBA, blend *Blend) {
	if bitmap == nil {
		return
	}
	dx, dy := src.Bounds().Dx(), src.Bounds().Dy()

	for y := 0; y < dy; y++ {
		for x := 0; x < dx; x++ {
			si := src.PixOffset(src.Rect.Min.X+x, src.Rect.Min.Y+y)
			di := dst.PixOffset(dst.Rect.Min.X+x, dst.Rect.Min.Y+y)
			bi := bitmap.Img.PixOffset(bitmap.Img.Rect.Min.X+x, bitmap.Img.Rect.Min.Y+y)

			px := compose(op.current, src.Pix[si:si+4], dst.Pix[di:di+4], 1, blend)
			copy(bitmap.Img.Pix[bi:bi+4], px[:])
		}
	}
}

// DrawAt composites src over dst in place, with the top-left corner of src
// placed at the given point in dst coordinates. The source alpha is
// multiplied by opacity (0..1). Pixels falling outside dst are skipped.
func DrawAt(dst, src *image.NRGBA, at image.Point, opacity float64, blend *Blend) {
	if opacity <= 0 {
		return
	}
	opacity = utils.Min(opacity, 1)

	r := src.Bounds().Sub(src.Rect.Min).Add(at).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			si := src.PixOffset(src.Rect.Min.X+x-at.X, src.Rect.Min.Y+y-at.Y)
			di := dst.PixOffset(x, y)
			if src.Pix[si+3] == 0 {
				continue
			}
			px := compose(SrcOver, src.Pix[si:si+4], dst.Pix[di:di+4], opacity, blend)
			copy(dst.Pix[di:di+4], px[:])
		}
	}
}

// compose applies the Porter-Duff operator on a single pair of non premultiplied pixels.
// The source color is first mixed with the blend result weighted by the backdrop alpha,
// as described in the W3C compositing and blending specification.
func compose(cop string, s, b []uint8, opacity float64, blend *Blend) [4]uint8 {
	as := float64(s[3]) / 255 * opacity
	ab := float64(b[3]) / 255

	var fa, fb float64
	switch cop {
	case Clear:
		fa, fb = 0, 0
	case Copy:
		fa, fb = 1, 0
	case Dst:
		fa, fb = 0, 1
	case SrcOver:
		fa, fb = 1, 1-as
	case DstOver:
		fa, fb = 1-ab, 1
	case SrcIn:
		fa, fb = ab, 0
	case DstIn:
		fa, fb = 0, as
	case SrcOut:
		fa, fb = 1-ab, 0
	case DstOut:
		fa, fb = 0, 1-as
	case SrcAtop:
		fa, fb = ab, 1-as
	case DstAtop:
		fa, fb = 1-ab, as
	case Xor:
		fa, fb = 1-ab, 1-as
	}

	ao := fa*as + fb*ab
	if ao <= 0 {
		return [4]uint8{}
	}

	var out [4]uint8
	for c := 0; c < 3; c++ {
		cs := float64(s[c]) / 255
		cb := float64(b[c]) / 255
		if blend != nil {
			cs = (1-ab)*cs + ab*blend.Apply(cs, cb)
		}
		co := (fa*as*cs + fb*ab*cb) / ao
		out[c] = utils.ClampByte(co * 255)
	}
	out[3] = utils.ClampByte(ao * 255)

	return out
}
