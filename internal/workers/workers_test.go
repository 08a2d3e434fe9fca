package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(ScanWorkersEnv, "")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{
			name:       "CPU-bound task (1.0x multiplier)",
			multiplier: 1.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU,
		},
		{
			name:       "I/O-bound task (2.0x multiplier)",
			multiplier: 2.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU * 2,
		},
		{
			name:       "With limit lower than calculated",
			multiplier: 2.0,
			limit:      2,
			minExpect:  1,
			maxExpect:  2,
		},
		{
			name:       "Very low multiplier",
			multiplier: 0.1,
			limit:      0,
			minExpect:  1,
			maxExpect:  maxInt(1, int(float64(availableCPU)*0.1)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(ScanWorkersEnv, tt.multiplier, tt.limit)

			if got < tt.minExpect {
				t.Errorf("Count(%v, %d) = %d, expected >= %d", tt.multiplier, tt.limit, got, tt.minExpect)
			}
			if got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, expected <= %d", tt.multiplier, tt.limit, got, tt.maxExpect)
			}
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		limit    int
		expected int // -1 means the computed default
	}{
		{name: "Valid override", envValue: "8", limit: 0, expected: 8},
		{name: "Override with limit", envValue: "20", limit: 10, expected: 10},
		{name: "Override below limit", envValue: "5", limit: 10, expected: 5},
		{name: "Invalid override (non-numeric)", envValue: "invalid", expected: -1},
		{name: "Invalid override (zero)", envValue: "0", expected: -1},
		{name: "Invalid override (negative)", envValue: "-5", expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ThumbnailWorkersEnv, tt.envValue)

			got := Count(ThumbnailWorkersEnv, 1.0, tt.limit)

			want := tt.expected
			if want == -1 {
				want = maxInt(1, runtime.GOMAXPROCS(0))
			}
			if got != want {
				t.Errorf("Count with %s=%q = %d, want %d", ThumbnailWorkersEnv, tt.envValue, got, want)
			}
		})
	}
}

func TestOverridesAreIndependent(t *testing.T) {
	t.Setenv(ScanWorkersEnv, "3")
	t.Setenv(ThumbnailWorkersEnv, "7")

	if got := ForScan(0); got != 3 {
		t.Errorf("ForScan(0) = %d, want 3", got)
	}
	if got := ForThumbnails(0); got != 7 {
		t.Errorf("ForThumbnails(0) = %d, want 7", got)
	}
}

func TestEmptyEnvKeyIgnoresOverrides(t *testing.T) {
	t.Setenv(ScanWorkersEnv, "99")

	if got := Count("", 1.0, 0); got != maxInt(1, runtime.GOMAXPROCS(0)) {
		t.Errorf("Count with empty env key = %d, want GOMAXPROCS", got)
	}
}

func TestForScan(t *testing.T) {
	t.Setenv(ScanWorkersEnv, "")

	availableCPU := runtime.GOMAXPROCS(0)

	if got := ForScan(0); got != availableCPU*2 {
		t.Errorf("ForScan(0) = %d, want %d", got, availableCPU*2)
	}
	if got := ForScan(1); got != 1 {
		t.Errorf("ForScan(1) = %d, want 1", got)
	}
}

func TestForThumbnails(t *testing.T) {
	t.Setenv(ThumbnailWorkersEnv, "")

	availableCPU := runtime.GOMAXPROCS(0)

	if got := ForThumbnails(0); got != availableCPU {
		t.Errorf("ForThumbnails(0) = %d, want %d", got, availableCPU)
	}

	limit := 2
	want := availableCPU
	if want > limit {
		want = limit
	}
	if got := ForThumbnails(limit); got != want {
		t.Errorf("ForThumbnails(%d) = %d, want %d", limit, got, want)
	}
}

func TestCountBoundaries(t *testing.T) {
	t.Setenv(ScanWorkersEnv, "")

	tests := []struct {
		name       string
		multiplier float64
		limit      int
	}{
		{name: "Zero multiplier", multiplier: 0, limit: 0},
		{name: "Negative multiplier", multiplier: -1, limit: 0},
		{name: "Limit of one", multiplier: 10, limit: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(ScanWorkersEnv, tt.multiplier, tt.limit)
			if got < 1 {
				t.Errorf("Count(%v, %d) = %d, should never return less than 1", tt.multiplier, tt.limit, got)
			}
			if tt.limit > 0 && got > tt.limit {
				t.Errorf("Count(%v, %d) = %d, exceeds limit", tt.multiplier, tt.limit, got)
			}
		})
	}
}

func BenchmarkCount(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Count(ScanWorkersEnv, 2.0, 16)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
