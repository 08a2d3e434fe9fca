package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		img.Set(x, height/2, color.RGBA{R: 255, A: 255})
	}

	path := filepath.Join(t.TempDir(), "VRChat_2024-01-15_10-00-00.000_1920x1080.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func decodeJPEG(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds()
}

func TestImagingRendererResizes(t *testing.T) {
	path := writeTestPNG(t, 400, 200)
	r := NewImagingRenderer()
	assert.Equal(t, "jpg", r.Ext())

	tests := []struct {
		name         string
		width        int
		wantW, wantH int
	}{
		{"downscale", 100, 100, 50},
		{"original", 0, 400, 200},
		{"no upscale", 800, 400, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := r.Render(context.Background(), path, tt.width)
			require.NoError(t, err)
			bounds := decodeJPEG(t, data)
			assert.Equal(t, tt.wantW, bounds.Dx())
			assert.Equal(t, tt.wantH, bounds.Dy())
		})
	}
}

func TestImagingRendererConstrainsLargeImages(t *testing.T) {
	path := writeTestPNG(t, 400, 200)
	r := &ImagingRenderer{MaxDimension: 100, MaxPixels: MaxImagePixels, Quality: 80}

	data, err := r.Render(context.Background(), path, 0)
	require.NoError(t, err)
	bounds := decodeJPEG(t, data)
	assert.Equal(t, 100, bounds.Dx())
	assert.Equal(t, 50, bounds.Dy())

	r = &ImagingRenderer{MaxDimension: MaxImageDimension, MaxPixels: 20_000, Quality: 80}
	data, err = r.Render(context.Background(), path, 0)
	require.NoError(t, err)
	bounds = decodeJPEG(t, data)
	assert.LessOrEqual(t, bounds.Dx()*bounds.Dy(), 20_000)
}

func TestImagingRendererMissingSource(t *testing.T) {
	_, err := NewImagingRenderer().Render(context.Background(), filepath.Join(t.TempDir(), "gone.png"), 128)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestImagingRendererCorruptSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := NewImagingRenderer().Render(context.Background(), path, 128)
	require.Error(t, err)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
}

func TestImagingRendererWithStore(t *testing.T) {
	path := writeTestPNG(t, 64, 32)
	store := NewStore(HostTempDir{Path: t.TempDir()}, NewImagingRenderer(), Options{})

	data, err := store.GetOrGenerate(context.Background(), path, 32)
	require.NoError(t, err)

	lookup, err := store.Get(context.Background(), path, 32)
	require.NoError(t, err)
	assert.True(t, lookup.Hit)
	assert.Equal(t, data, lookup.Data, "cached bytes match the rendered preview")
	assert.Equal(t, 32, decodeJPEG(t, data).Dx())
}
