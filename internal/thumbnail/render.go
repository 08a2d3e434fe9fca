package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	"vrchat-albums/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the largest width or height decoded at full size.
	MaxImageDimension = 4096

	// MaxImagePixels bounds total pixels decoded at full size. 20MP is about
	// 80MB as RGBA.
	MaxImagePixels = 20_000_000

	jpegQuality = 80
)

// ImagingRenderer renders JPEG previews in pure Go.
type ImagingRenderer struct {
	MaxDimension int
	MaxPixels    int
	Quality      int
}

// NewImagingRenderer returns a renderer with the default limits.
func NewImagingRenderer() *ImagingRenderer {
	return &ImagingRenderer{
		MaxDimension: MaxImageDimension,
		MaxPixels:    MaxImagePixels,
		Quality:      jpegQuality,
	}
}

// Ext implements Renderer.
func (r *ImagingRenderer) Ext() string { return "jpg" }

// Render implements Renderer. The preview keeps the source aspect ratio and
// is never wider than the source.
func (r *ImagingRenderer) Render(ctx context.Context, path string, width int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := loadConstrained(path, r.MaxDimension, r.MaxPixels)
	if err != nil {
		return nil, err
	}

	if width > 0 && img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(r.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// loadConstrained decodes an image, downscaling if it exceeds maxDimension
// or maxPixels.
func loadConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	width, height, err := imageSize(path)
	if err != nil {
		return nil, err
	}

	targetWidth, targetHeight := width, height
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}
	if pixels := targetWidth * targetHeight; pixels > maxPixels {
		scale := float64(maxPixels) / float64(pixels)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	if targetWidth == width && targetHeight == height {
		return img, nil
	}
	logging.Debug("Constraining large image %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// imageSize reads dimensions without decoding pixel data.
func imageSize(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	return config.Width, config.Height, nil
}
