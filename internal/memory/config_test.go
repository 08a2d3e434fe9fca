package memory

import (
	"math"
	"runtime/debug"
	"testing"
)

func restoreMemoryLimit(t *testing.T) {
	t.Helper()
	original := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(original) })
}

func TestConfigureFromEnv(t *testing.T) {
	tests := []struct {
		name           string
		memoryLimit    string
		memoryRatio    string
		wantConfigured bool
		wantSource     string
		wantRatio      float64
		wantGoMemLimit int64
	}{
		{
			name:       "No limit set",
			wantSource: sourceNone,
		},
		{
			name:        "Invalid limit",
			memoryLimit: "lots",
			wantSource:  sourceNone,
		},
		{
			name:        "Negative limit",
			memoryLimit: "-5",
			wantSource:  sourceNone,
		},
		{
			name:           "Limit with default ratio",
			memoryLimit:    "1000000000",
			wantConfigured: true,
			wantSource:     sourceMEMORYLIMIT,
			wantRatio:      DefaultMemoryRatio,
			wantGoMemLimit: 850000000,
		},
		{
			name:           "Limit with custom ratio",
			memoryLimit:    "1000000000",
			memoryRatio:    "0.5",
			wantConfigured: true,
			wantSource:     sourceMEMORYLIMIT,
			wantRatio:      0.5,
			wantGoMemLimit: 500000000,
		},
		{
			name:           "Out of range ratio falls back",
			memoryLimit:    "1000000000",
			memoryRatio:    "1.5",
			wantConfigured: true,
			wantSource:     sourceMEMORYLIMIT,
			wantRatio:      DefaultMemoryRatio,
			wantGoMemLimit: 850000000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreMemoryLimit(t)
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.memoryLimit)
			t.Setenv("MEMORY_RATIO", tt.memoryRatio)

			result := ConfigureFromEnv()

			if result.Configured != tt.wantConfigured {
				t.Errorf("Configured = %v, want %v", result.Configured, tt.wantConfigured)
			}
			if result.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", result.Source, tt.wantSource)
			}
			if !tt.wantConfigured {
				return
			}
			if math.Abs(result.Ratio-tt.wantRatio) > 1e-9 {
				t.Errorf("Ratio = %v, want %v", result.Ratio, tt.wantRatio)
			}
			// float rounding may shave a byte
			if diff := result.GoMemLimit - tt.wantGoMemLimit; diff < -1 || diff > 1 {
				t.Errorf("GoMemLimit = %d, want %d", result.GoMemLimit, tt.wantGoMemLimit)
			}
			if got := debug.SetMemoryLimit(-1); got != result.GoMemLimit {
				t.Errorf("runtime limit = %d, want %d", got, result.GoMemLimit)
			}
		})
	}
}
