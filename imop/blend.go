// Package imop implements the Porter-Duff composition operations and the
// separable blend modes used for mixing a layer with its backdrop.
// The image/draw core package implements only the source-over-destination
// and source operators, and offers no blend modes at all.
//
// It is used to build the merged document surface consumed by the
// sample-merged fill and selection tools, and to stamp heal dabs.
package imop

import (
	"fmt"
	"math"

	"github.com/esimov/retouch/utils"
)

// Supported blend modes.
const (
	Normal     = "normal"
	Darken     = "darken"
	Lighten    = "lighten"
	Multiply   = "multiply"
	Screen     = "screen"
	Overlay    = "overlay"
	SoftLight  = "soft_light"
	HardLight  = "hard_light"
	ColorDodge = "color_dodge"
	ColorBurn  = "color_burn"
	Difference = "difference"
	Exclusion  = "exclusion"
)

var blendModes = []string{
	Normal, Darken, Lighten, Multiply, Screen, Overlay,
	SoftLight, HardLight, ColorDodge, ColorBurn, Difference, Exclusion,
}

// Blend holds the currently active blend mode.
type Blend struct {
	OpType string
}

// NewBlend initializes a new Blend.
func NewBlend() *Blend {
	return &Blend{}
}

// IsBlendMode reports whether mode names a supported blend mode.
func IsBlendMode(mode string) bool {
	return utils.Contains(blendModes, mode)
}

// Set activates one of the supported blend modes.
func (o *Blend) Set(opType string) error {
	if !IsBlendMode(opType) {
		return fmt.Errorf("unsupported blend mode: %v", opType)
	}
	o.OpType = opType
	return nil
}

// Get returns the currently active blend mode.
func (o *Blend) Get() string {
	if o == nil || len(o.OpType) == 0 {
		return Normal
	}
	return o.OpType
}

// Apply returns the blended value of the normalized source channel cs
// over the normalized backdrop channel cb.
func (o *Blend) Apply(cs, cb float64) float64 {
	switch o.Get() {
	case Darken:
		return utils.Min(cs, cb)
	case Lighten:
		return utils.Max(cs, cb)
	case Multiply:
		return cs * cb
	case Screen:
		return screen(cs, cb)
	case Overlay:
		return hardLight(cb, cs)
	case HardLight:
		return hardLight(cs, cb)
	case SoftLight:
		if cs <= 0.5 {
			return cb - (1-2*cs)*cb*(1-cb)
		}
		var d float64
		if cb <= 0.25 {
			d = ((16*cb-12)*cb + 4) * cb
		} else {
			d = math.Sqrt(cb)
		}
		return cb + (2*cs-1)*(d-cb)
	case ColorDodge:
		if cb == 0 {
			return 0
		}
		if cs >= 1 {
			return 1
		}
		return utils.Min(1, cb/(1-cs))
	case ColorBurn:
		if cb >= 1 {
			return 1
		}
		if cs <= 0 {
			return 0
		}
		return 1 - utils.Min(1, (1-cb)/cs)
	case Difference:
		return utils.Abs(cb - cs)
	case Exclusion:
		return cb + cs - 2*cb*cs
	}
	return cs
}

func screen(cs, cb float64) float64 {
	return cb + cs - cb*cs
}

func hardLight(cs, cb float64) float64 {
	if cs <= 0.5 {
		return cb * 2 * cs
	}
	return screen(2*cs-1, cb)
}
