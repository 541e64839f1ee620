package tracs

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	Level   string
	Message string
	Module  string
}

// recordingLogger keeps every message; workers log concurrently.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, message, module string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level, message, module})
}

func (l *recordingLogger) Info(message string, module string) { l.add("info", message, module) }
func (l *recordingLogger) Warn(message string, module string) { l.add("warn", message, module) }
func (l *recordingLogger) Error(message string)               { l.add("error", message, "") }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

func captureLogs(t *testing.T) *recordingLogger {
	t.Helper()
	l := &recordingLogger{}
	SetLogger(l)
	t.Cleanup(func() { SetLogger(nil) })
	return l
}

func TestSteps(t *testing.T) {
	tests := []struct {
		init, max, delta float64
		want             int
	}{
		{0, 10, 1, 10},
		{0, 0.3, 0.1, 3},
		{0, 10, 3, 3},
		{0, 10, 0, 0},
		{0, 10, -1, 0},
		{10, 5, 1, 0},
		{5, 5, 1, 0},
		{-20, 20, 10, 4},
		{0, 300, 1e-15, MaxSteps},
		{0, 300, 1e-300, MaxSteps},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%g_%g_%g", tt.init, tt.max, tt.delta), func(t *testing.T) {
			assert.Equal(t, tt.want, steps(tt.init, tt.max, tt.delta))
		})
	}
}

func TestTimeSteps(t *testing.T) {
	assert.Equal(t, 300, TimeSteps(15e-9, 5e-11))
	assert.Equal(t, 10, TimeSteps(1e-9, 1e-10))
	assert.Equal(t, 0, TimeSteps(0, 1e-10))
}

func TestBuildGrid(t *testing.T) {
	config := DefaultConfiguration()
	config.VInit, config.DeltaV, config.VMax = 100, 50, 200
	config.YInit, config.DeltaY, config.YMax = -10, 10, 10
	config.ZInit, config.DeltaZ, config.ZMax = 0, 0.1, 0.3

	grid := BuildGrid(config)
	assert.Equal(t, []float64{100, 150, 200}, grid.Voltages)
	assert.Equal(t, []float64{-10, 0, 10}, grid.Lateral)
	require.Len(t, grid.Depths, 4)
	assert.InDelta(t, 0.3, grid.Depths[3], 1e-12)
	assert.Equal(t, 36, grid.Points())
}

func TestBuildGridDegenerateAxes(t *testing.T) {
	config := DefaultConfiguration()
	config.VInit, config.DeltaV, config.VMax = 100, 0, 300
	config.YInit, config.DeltaY, config.YMax = 5, 1, 0
	config.ZInit, config.DeltaZ, config.ZMax = 7, 1, 7

	grid := BuildGrid(config)
	assert.Equal(t, []float64{100}, grid.Voltages)
	assert.Equal(t, []float64{5}, grid.Lateral)
	assert.Equal(t, []float64{7}, grid.Depths)
	assert.Equal(t, 1, grid.Points())
}

func TestPartitionDepthsIsPermutation(t *testing.T) {
	for n := 1; n <= 23; n++ {
		depths := make([]float64, n)
		for i := range depths {
			depths[i] = float64(i) * 10
		}
		for workers := 1; workers <= n; workers++ {
			partitions := PartitionDepths(depths, workers)
			require.Len(t, partitions, workers)

			var all []int
			minLen, maxLen := n, 0
			for i, p := range partitions {
				assert.Equal(t, i, p.Worker)
				require.Equal(t, p.Len(), len(p.Depths))
				assert.True(t, sort.IntsAreSorted(p.Indices))
				for j, index := range p.Indices {
					assert.Equal(t, depths[index], p.Depths[j])
				}
				if p.Len() > 0 {
					assert.Equal(t, i, p.Indices[0])
				}
				minLen = min(minLen, p.Len())
				maxLen = max(maxLen, p.Len())
				all = append(all, p.Indices...)
			}
			assert.LessOrEqual(t, maxLen-minLen, 1, "n=%d workers=%d", n, workers)

			sort.Ints(all)
			want := make([]int, n)
			for i := range want {
				want[i] = i
			}
			assert.Equal(t, want, all, "n=%d workers=%d", n, workers)
		}
	}
}

func TestPartitionDepthsStride(t *testing.T) {
	depths := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	partitions := PartitionDepths(depths, 3)
	assert.Equal(t, []int{0, 3, 6, 9}, partitions[0].Indices)
	assert.Equal(t, []int{1, 4, 7, 10}, partitions[1].Indices)
	assert.Equal(t, []int{2, 5, 8}, partitions[2].Indices)
}

func TestPartitionDepthsClampsWorkers(t *testing.T) {
	depths := []float64{0, 1, 2}
	for _, workers := range []int{-3, 0} {
		partitions := PartitionDepths(depths, workers)
		require.Len(t, partitions, 1)
		assert.Equal(t, []int{0, 1, 2}, partitions[0].Indices)
	}
	assert.Len(t, PartitionDepths(depths, 7), 3)
}

func TestEffectiveWorkers(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		points    int
		want      int
		warnings  int
	}{
		{"valid", 3, 11, 3, 0},
		{"equal", 5, 5, 5, 0},
		{"clamped", 10, 5, 5, 1},
		{"zero", 0, 11, DefaultWorkers, 1},
		{"negative", -2, 11, DefaultWorkers, 1},
		{"zero and clamped", 0, 2, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			assert.Equal(t, tt.want, EffectiveWorkers(tt.requested, tt.points))
			assert.Equal(t, tt.warnings, logs.count("warn"))
		})
	}
}
