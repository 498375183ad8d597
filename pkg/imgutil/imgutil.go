// Package imgutil moves pixels between cimg images and the decoders/encoders
// that cimg doesn't cover (PNG in particular).
package imgutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/bmharper/cimg/v2"
)

// DecodeRGB decodes a PNG or JPEG into a 24-bit RGB image.
// JPEG goes through cimg (libjpeg-turbo). Everything else goes through the image package,
// which is the only place we have a PNG decoder.
func DecodeRGB(r io.Reader) (*cimg.Image, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) >= 2 && raw[0] == 0xFF && raw[1] == 0xD8 {
		img, err := cimg.Decompress(raw)
		if err != nil {
			return nil, fmt.Errorf("Failed to decode JPEG: %w", err)
		}
		if img.NChan() != 3 {
			return nil, fmt.Errorf("Expected RGB JPEG, but image has %v channels", img.NChan())
		}
		return img, nil
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("Failed to decode image: %w", err)
	}
	return FromImage(src), nil
}

// FromImage copies any image.Image into a new RGB cimg.Image (alpha is dropped)
func FromImage(src image.Image) *cimg.Image {
	b := src.Bounds()
	dst := cimg.NewImage(b.Dx(), b.Dy(), cimg.PixelFormatRGB)
	if rgba, ok := src.(*image.RGBA); ok {
		for y := 0; y < dst.Height; y++ {
			s := rgba.Pix[y*rgba.Stride:]
			d := dst.Pixels[y*dst.Stride:]
			for x := 0; x < dst.Width; x++ {
				d[x*3] = s[x*4]
				d[x*3+1] = s[x*4+1]
				d[x*3+2] = s[x*4+2]
			}
		}
		return dst
	}
	for y := 0; y < dst.Height; y++ {
		d := dst.Pixels[y*dst.Stride:]
		for x := 0; x < dst.Width; x++ {
			c := color.RGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			d[x*3] = c.R
			d[x*3+1] = c.G
			d[x*3+2] = c.B
		}
	}
	return dst
}

// ToRGBA copies an RGB cimg.Image into an opaque *image.RGBA
func ToRGBA(src *cimg.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	draw.Draw(dst, dst.Bounds(), image.Opaque, image.Point{}, draw.Src)
	for y := 0; y < src.Height; y++ {
		s := src.Pixels[y*src.Stride:]
		d := dst.Pix[y*dst.Stride:]
		for x := 0; x < src.Width; x++ {
			d[x*4] = s[x*3]
			d[x*4+1] = s[x*3+1]
			d[x*4+2] = s[x*3+2]
		}
	}
	return dst
}

// EncodePNG writes an RGB cimg.Image as PNG
func EncodePNG(w io.Writer, img *cimg.Image) error {
	return png.Encode(w, ToRGBA(img))
}

// EncodeJPEG compresses an RGB cimg.Image at the given quality
func EncodeJPEG(img *cimg.Image, quality int) ([]byte, error) {
	return cimg.Compress(img, cimg.MakeCompressParams(cimg.Sampling444, quality, 0))
}

// Fill sets every pixel of an RGB image to the grey level 'v'
func Fill(img *cimg.Image, v byte) {
	for y := 0; y < img.Height; y++ {
		row := img.Pixels[y*img.Stride : y*img.Stride+img.Width*3]
		for i := range row {
			row[i] = v
		}
	}
}
