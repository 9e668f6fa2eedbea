package recognizer

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
)

const jpegQuality = 85

// Preprocess decodes an uploaded photo, applies its EXIF orientation, shrinks
// it to fit within maxDimension pixels and re-encodes it as JPEG.
// A maxDimension of 0 keeps the original size.
func Preprocess(data []byte, maxDimension int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	if maxDimension > 0 && (bounds.Dx() > maxDimension || bounds.Dy() > maxDimension) {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
		slog.Debug("Resized receipt image",
			"from", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
			"to", fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()),
		)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
