// Package imaging holds the pixel buffers shared by the document pipeline
// stages and the decoding and grayscale helpers they build on.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/anime-shed/idcard-scanner-go/internal/errors"
)

// RawImage is a decoded source document. Stages read it but never modify it.
type RawImage struct {
	img    image.Image
	format string
}

// Decode reads an encoded image (JPEG, PNG, GIF, BMP, TIFF, WebP)
func Decode(data []byte) (*RawImage, error) {
	if len(data) == 0 {
		return nil, apperrors.NewDecodeError("empty image data", nil)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image", err)
	}
	if img.Bounds().Empty() {
		return nil, apperrors.NewDecodeError("image has no pixels", nil)
	}
	return &RawImage{img: img, format: format}, nil
}

// FromImage wraps an already decoded image
func FromImage(img image.Image) (*RawImage, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, apperrors.NewDecodeError("image has no pixels", nil)
	}
	return &RawImage{img: img, format: "memory"}, nil
}

// Image returns the decoded pixels
func (r *RawImage) Image() image.Image { return r.img }

// Format returns the codec name reported by the decoder
func (r *RawImage) Format() string { return r.format }

// Bounds returns the image rectangle
func (r *RawImage) Bounds() image.Rectangle { return r.img.Bounds() }

// Width returns the image width in pixels
func (r *RawImage) Width() int { return r.img.Bounds().Dx() }

// Height returns the image height in pixels
func (r *RawImage) Height() int { return r.img.Bounds().Dy() }

// Channels returns the number of colour channels of the underlying buffer
func (r *RawImage) Channels() int {
	switch r.img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return 4
	case *image.Paletted:
		return 1
	default:
		return 3
	}
}

// Valid reports whether r holds a non-empty image
func (r *RawImage) Valid() bool {
	return r != nil && r.img != nil && !r.img.Bounds().Empty()
}

// NormalizedImage is the single-channel binarized, denoised and dilated
// image handed to text recognition.
type NormalizedImage struct {
	Gray *image.Gray
}

// Bounds returns the image rectangle
func (n *NormalizedImage) Bounds() image.Rectangle { return n.Gray.Bounds() }

// PNG encodes the normalized image losslessly
func (n *NormalizedImage) PNG() ([]byte, error) {
	return EncodePNG(n.Gray)
}

// Grayscale converts img to 8-bit luma using the standard ITU-R BT.601
// weights (color.GrayModel). The result is a fresh buffer with the same bounds.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// Crop copies the pixels of rect out of img
func Crop(img image.Image, rect image.Rectangle) image.Image {
	rect = rect.Intersect(img.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}

// EncodePNG encodes img as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG encodes img as JPEG with the given quality (1-100)
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// TightPix returns gray's pixels row by row with no stride padding, as
// single-channel matrix constructors expect. When the buffer is already
// packed it is returned without copying.
func TightPix(gray *image.Gray) []byte {
	bounds := gray.Bounds()
	if gray.Stride == bounds.Dx() && len(gray.Pix) == bounds.Dx()*bounds.Dy() {
		return gray.Pix
	}
	pix := make([]byte, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		pix = append(pix, gray.Pix[gray.PixOffset(bounds.Min.X, y):gray.PixOffset(bounds.Max.X, y)]...)
	}
	return pix
}
