// Go implementation of the StackBlur algorithm described here:
// http://incubator.quasimondo.com/processing/fast_blur_deluxe.php

package retouch

// StackBlur blurs the surface in place with a horizontal pass followed by a
// vertical pass, each one convolving the pixels with a triangular kernel of
// the given radius. Edge pixels are repeated outside of the surface.
// The channels are blurred independently.
func StackBlur(s *Surface, radius int) *Surface {
	if radius < 1 || s.Width == 0 || s.Height == 0 {
		return s
	}
	radius = min(radius, max(s.Width, s.Height))

	stack := make([][4]uint32, 2*radius+1)
	for y := 0; y < s.Height; y++ {
		blurLine(s.Pix, y*s.Width*4, 4, s.Width, radius, stack)
	}
	for x := 0; x < s.Width; x++ {
		blurLine(s.Pix, x*4, s.Width*4, s.Height, radius, stack)
	}
	return s
}

// blurLine blurs n pixels located at pix[off+i*step]. The stack holds the
// 2*radius+1 pixels currently covered by the kernel; stackStart points to
// the oldest one. sum is the weighted sum of the window, sumOut the plain
// sum of its left half (center included) and sumIn of its right half.
func blurLine(pix []uint8, off, step, n, radius int, stack [][4]uint32) {
	div := 2*radius + 1
	weight := uint32((radius + 1) * (radius + 1))

	read := func(i int) (px [4]uint32) {
		i = max(0, min(i, n-1))
		p := off + i*step
		return [4]uint32{uint32(pix[p]), uint32(pix[p+1]), uint32(pix[p+2]), uint32(pix[p+3])}
	}

	var sum, sumIn, sumOut [4]uint32
	for k := -radius; k <= radius; k++ {
		px := read(k)
		stack[k+radius] = px
		w := uint32(radius + 1 - abs(k))
		for c := 0; c < 4; c++ {
			sum[c] += px[c] * w
			if k <= 0 {
				sumOut[c] += px[c]
			} else {
				sumIn[c] += px[c]
			}
		}
	}

	stackStart := 0
	for i := 0; i < n; i++ {
		p := off + i*step
		for c := 0; c < 4; c++ {
			pix[p+c] = uint8(sum[c] / weight)
		}

		// Slide the window one pixel forward.
		incoming := read(i + radius + 1)
		outgoing := stack[stackStart]
		stack[stackStart] = incoming
		center := stack[(stackStart+radius+1)%div]
		for c := 0; c < 4; c++ {
			sum[c] -= sumOut[c]
			sumOut[c] -= outgoing[c]
			sumIn[c] += incoming[c]
			sum[c] += sumIn[c]

			sumOut[c] += center[c]
			sumIn[c] -= center[c]
		}
		stackStart = (stackStart + 1) % div
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
