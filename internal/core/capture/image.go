package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
)

const (
	placeholderWidth  = 640
	placeholderHeight = 480

	// minImageBytes is the payload size below which a download is treated
	// as absent and the next tier is tried.
	minImageBytes = 1000
)

// placeholderImage synthesizes the solid-red JPEG used when neither the full
// media nor the thumbnail yields a usable image. It never fails at runtime:
// encoding a fresh in-memory RGB image cannot error in practice.
func placeholderImage() []byte {
	img := imaging.New(placeholderWidth, placeholderHeight, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		// Fall back to the raw pixels; callers only need non-empty bytes.
		return img.Pix
	}
	return buf.Bytes()
}

// validateImage sniffs and decodes the downloaded bytes. It reports what the
// payload is so the caller can log it; a failure never blocks persistence,
// since a corrupt-but-present file is still worth keeping for inspection.
func validateImage(data []byte) (string, image.Rectangle, error) {
	kind, err := filetype.Image(data)
	if err != nil {
		return "", image.Rectangle{}, fmt.Errorf("unrecognized image payload: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return kind.Extension, image.Rectangle{}, fmt.Errorf("failed to decode %s image: %w", kind.Extension, err)
	}
	return kind.Extension, img.Bounds(), nil
}
