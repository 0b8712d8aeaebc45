// Package imaging converts arbitrary decoded images into the 8-bit RGB form
// every model and OCR backend consumes.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

const DefaultJPEGQuality = 92

// Decode reads any registered raster format (JPEG, PNG, BMP, TIFF, WebP).
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrInvalidImage, "decode image", err)
	}
	if img.Bounds().Empty() {
		return nil, "", domain.WrapError(domain.ErrInvalidImage, "decode image", errors.New("empty image bounds"))
	}
	return img, format, nil
}

// ToRGB returns an opaque 8-bit RGB copy of img. Alpha is discarded rather
// than composited, and grayscale input is replicated across channels.
func ToRGB(img image.Image) (*image.RGBA, error) {
	if img == nil {
		return nil, domain.WrapError(domain.ErrInvalidImage, "normalize image", errors.New("nil image"))
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, domain.WrapError(domain.ErrInvalidImage, "normalize image", errors.New("empty image bounds"))
	}

	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return out, nil
}

// EncodeJPEG serializes img for backends that accept compressed rasters.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidImage, "encode jpeg", err)
	}
	return buf.Bytes(), nil
}

// DecodeBytes is Decode over an in-memory payload.
func DecodeBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidImage, "decode image", fmt.Errorf("empty payload"))
	}
	img, _, err := Decode(bytes.NewReader(data))
	return img, err
}
