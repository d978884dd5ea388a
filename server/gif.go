package server

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
)

var transparent = color.RGBA{0, 0, 0, 0}

// transparentQuantizer takes the palette of the median cut quantizer and makes sure
// it has a transparent color in it as well.
type transparentQuantizer struct {
	quantize.MedianCutQuantizer
}

func (q transparentQuantizer) Quantize(p color.Palette, m image.Image) color.Palette {
	palette := q.MedianCutQuantizer.Quantize(p, m)
	if len(palette) < 256 {
		return append(palette, transparent)
	}

	palette[len(palette)-1] = transparent
	return palette
}

// transparentDrawer dithers with Floyd-Steinberg and then puts back the pixels that
// were fully transparent in the source, which dithering would otherwise smear.
type transparentDrawer struct {
	dr draw.Drawer
}

func (td transparentDrawer) Draw(dst draw.Image, r image.Rectangle, src image.Image, sp image.Point) {
	td.dr.Draw(dst, r, src, sp)

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			_, _, _, a := src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y).RGBA()
			if a == 0 {
				dst.Set(x, y, transparent)
			}
		}
	}
}

// encodeGif encodes img as a single frame gif that keeps its transparency.
func encodeGif(img image.Image) (io.Reader, error) {
	// gif.Encode skips the quantizer for paletted images, so always hand it rgba
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	buff := new(bytes.Buffer)
	opts := &gif.Options{
		NumColors: 256,
		Quantizer: transparentQuantizer{quantize.MedianCutQuantizer{}},
		Drawer:    transparentDrawer{draw.FloydSteinberg},
	}
	if err := gif.Encode(buff, rgba, opts); err != nil {
		return nil, err
	}

	return buff, nil
}
