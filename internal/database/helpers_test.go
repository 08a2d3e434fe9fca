package database

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubGovernor struct{}

func (stubGovernor) RecommendedParallelism(baseline int) int { return baseline }
func (stubGovernor) CheckMemory(ctx context.Context) error   { return ctx.Err() }

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 32, 18))))
	return buf.Bytes()
}
