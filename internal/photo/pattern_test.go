package photo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPhotoFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"VRChat_2024-01-15_10-30-00.123_1920x1080.png", true},
		{"VRChat_2024-01-15_10-30-00.123_1920x1080.PNG", true},
		{"VRChat_2024-01-15_10-30-00.123_3840x2160.jpg", true},
		{"VRChat_2024-01-15_10-30-00.123_3840x2160.jpeg", true},
		{"VRChat_2024-01-15_10-30-00.123_3840x2160.webp", true},
		{"VRChat_1920x1080_2022-03-01_08-00-00.000.png", true},
		{"VRChat_anything.png", true},
		{"VRChat_2024-01-15_10-30-00.123_1920x1080.gif", false},
		{"VRChat_.png", false},
		{"vrchat_2024-01-15_10-30-00.123.png", false},
		{"Screenshot_2024-01-15.png", false},
		{".VRChat_2024-01-15_10-30-00.123.png", false},
		{"VRChat_2024-01-15_10-30-00.123.png.tmp", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPhotoFile(tt.name))
		})
	}
}

func TestParseTakenAt(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)

	t.Run("current format", func(t *testing.T) {
		got, ok := ParseTakenAt("VRChat_2024-01-15_10-30-00.123_1920x1080.png", time.UTC)
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 123_000_000, time.UTC), got)
	})

	t.Run("legacy format with resolution first", func(t *testing.T) {
		got, ok := ParseTakenAt("VRChat_1920x1080_2022-03-01_08-05-09.007.png", time.UTC)
		require.True(t, ok)
		assert.Equal(t, time.Date(2022, 3, 1, 8, 5, 9, 7_000_000, time.UTC), got)
	})

	t.Run("interpreted in location", func(t *testing.T) {
		got, ok := ParseTakenAt("VRChat_2024-01-15_10-30-00.000_1920x1080.png", tokyo)
		require.True(t, ok)
		assert.True(t, got.Equal(time.Date(2024, 1, 15, 1, 30, 0, 0, time.UTC)))
	})

	t.Run("nil location uses local", func(t *testing.T) {
		got, ok := ParseTakenAt("VRChat_2024-01-15_10-30-00.000_1920x1080.png", nil)
		require.True(t, ok)
		assert.Equal(t, time.Local, got.Location())
	})

	t.Run("no timestamp", func(t *testing.T) {
		_, ok := ParseTakenAt("VRChat_anything.png", time.UTC)
		assert.False(t, ok)
	})

	t.Run("impossible date", func(t *testing.T) {
		_, ok := ParseTakenAt("VRChat_2024-13-45_10-30-00.000_1920x1080.png", time.UTC)
		assert.False(t, ok)
	})
}
