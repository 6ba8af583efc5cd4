package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func defaultConfig(t *testing.T) config {
	t.Helper()
	cfg := config{}
	fs := flag.NewFlagSet("test", flag.PanicOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))
	return cfg
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig(t)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.Stress.Workers)
	assert.Equal(t, 100, cfg.Stress.AllocsPerWorker)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Arena.Capacity = 0
	cfg.Stress.Workers = 0
	cfg.Stress.Align = 3
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
}

func TestRunFillsArenaWithoutOverlap(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Arena.Name = "stress"
	cfg.Arena.Capacity = 1000

	var logs bytes.Buffer
	report, err := run(context.Background(), cfg, log.NewLogfmtLogger(&logs), nil)
	require.NoError(t, err)

	assert.True(t, report.OK())
	assert.Equal(t, 1000, report.Allocated)
	assert.Equal(t, 1000, report.Metrics.Used)
	assert.Zero(t, report.Metrics.Remaining)
	assert.Zero(t, report.Metrics.Failures)
	assert.Contains(t, logs.String(), `msg="stress run complete"`)
	assert.Contains(t, logs.String(), "used=\"1.0 kB\"")
}

func TestRunCountsFailuresOnceExhausted(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Arena.Capacity = 64
	cfg.Stress.Workers = 4
	cfg.Stress.Size = 8
	cfg.Stress.Align = 8

	report, err := run(context.Background(), cfg, log.NewNopLogger(), nil)
	require.NoError(t, err)

	assert.True(t, report.OK())
	assert.Equal(t, 8, report.Allocated)
	assert.Equal(t, uint64(4*100-8), report.Metrics.Failures)
}

func TestRunPrintsMetrics(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Arena.Name = "stress"
	cfg.Arena.Capacity = 64
	cfg.Stress.Workers = 2
	cfg.Stress.AllocsPerWorker = 16
	cfg.PrintMetrics = true

	var out bytes.Buffer
	_, err := run(context.Background(), cfg, log.NewNopLogger(), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `allocmany_bump_arena_used_bytes{arena="stress"} 32`)
	assert.Contains(t, out.String(), `allocmany_bump_arena_capacity_bytes{arena="stress"} 64`)
	assert.Contains(t, out.String(), `allocmany_bump_arena_allocations_total{arena="stress"} 32`)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := run(ctx, defaultConfig(t), log.NewNopLogger(), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheck(t *testing.T) {
	tests := map[string]struct {
		results    [][]block
		align      uintptr
		overlaps   int
		misaligned int
	}{
		"disjoint": {
			results: [][]block{{{0, 8}, {16, 24}}, {{8, 16}}},
			align:   8,
		},
		"touching ranges are disjoint": {
			results: [][]block{{{4, 8}}, {{8, 12}}},
			align:   4,
		},
		"overlap across workers": {
			results:  [][]block{{{0, 8}}, {{4, 12}}},
			align:    4,
			overlaps: 1,
		},
		"misaligned": {
			results:    [][]block{{{0, 3}, {3, 6}}},
			align:      2,
			misaligned: 1,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := check(tt.results, tt.align)
			assert.Equal(t, tt.overlaps, r.Overlaps)
			assert.Equal(t, tt.misaligned, r.Misaligned)
			assert.Equal(t, tt.overlaps == 0 && tt.misaligned == 0, r.OK())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("overrides defaults", func(t *testing.T) {
		path := filepath.Join(dir, "good.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
arena:
  name: scratch
  capacity: 2048
stress:
  workers: 3
log_level: debug
`), 0o644))

		cfg := defaultConfig(t)
		require.NoError(t, LoadConfig(path, &cfg))
		assert.Equal(t, "scratch", cfg.Arena.Name)
		assert.Equal(t, 2048, cfg.Arena.Capacity)
		assert.Equal(t, 3, cfg.Stress.Workers)
		assert.Equal(t, 100, cfg.Stress.AllocsPerWorker)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("unknown field", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("arena:\n  size: 1\n"), 0o644))

		cfg := defaultConfig(t)
		assert.ErrorContains(t, LoadConfig(path, &cfg), "Error parsing config file")
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := defaultConfig(t)
		assert.ErrorContains(t, LoadConfig(filepath.Join(dir, "absent.yaml"), &cfg), "Error reading config file")
	})
}

func TestParseConfigFileParameter(t *testing.T) {
	assert.Equal(t, "a.yaml", parseConfigFileParameter([]string{"-stress.workers=2", "-config.file=a.yaml", "-log.level", "debug"}))
	assert.Equal(t, "b.yaml", parseConfigFileParameter([]string{"-unknown", "-config.file", "b.yaml"}))
	assert.Empty(t, parseConfigFileParameter([]string{"-stress.workers=2"}))
}
