package retouch

import (
	"bytes"
	"image/color"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/esimov/retouch/utils"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

// DecodeImage decodes an image and converts it to a surface. The EXIF
// orientation of JPEG images is applied.
func DecodeImage(r io.Reader) (*Surface, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "could not decode the image")
	}
	return FromImage(img), nil
}

// DecodeBytes decodes an in memory image, like one downloaded with utils.FetchImage.
func DecodeBytes(data []byte) (*Surface, error) {
	return DecodeImage(bytes.NewReader(data))
}

// DecodeFile opens and decodes an image file.
func DecodeFile(path string) (*Surface, error) {
	ctype, err := utils.DetectContentType(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %q", path)
	}
	if !strings.Contains(ctype, "image") {
		return nil, errors.Errorf("%q is not an image file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %q", path)
	}
	defer f.Close()
	return DecodeImage(f)
}

// EncodeImage writes the surface in the format matching the file
// extension. An empty extension selects JPEG.
func EncodeImage(w io.Writer, s *Surface, ext string) error {
	img := s.NRGBA()
	switch ext = strings.ToLower(ext); ext {
	case "", ".jpg", ".jpeg":
		return errors.Wrap(imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(100)), "jpeg")
	case ".bmp":
		return errors.Wrap(bmp.Encode(w, img), "bmp")
	}
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return errors.Wrapf(err, "unsupported image format %q", ext)
	}
	return errors.Wrap(imaging.Encode(w, img, format), format.String())
}

// Threshold converts the surface to a black and white mask: pixels whose
// three color channels exceed 127 become opaque white, the others fully
// transparent. The result can be passed to MaskFromSurface.
func Threshold(s *Surface) *Surface {
	dst := NewSurface(s.Width, s.Height)
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			c := s.At(x, y)
			if c.R > 127 && c.G > 127 && c.B > 127 {
				dst.Set(x, y, white)
			}
		}
	}
	return dst
}
