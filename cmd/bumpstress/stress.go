package main

import (
	"context"
	"io"
	"slices"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"golang.org/x/sync/errgroup"

	"github.com/pavanmanishd/allocmany"
	"github.com/pavanmanishd/allocmany/bump"
)

// Report is the outcome of one stress run.
type Report struct {
	Allocated  int
	Overlaps   int
	Misaligned int
	Metrics    bump.Metrics
}

// OK reports whether every block was aligned and disjoint.
func (r Report) OK() bool {
	return r.Overlaps == 0 && r.Misaligned == 0
}

type block struct {
	start, end uintptr
}

// run creates the configured arena, releases every worker at once and checks
// the blocks they got back. Metrics are written to out in the text format
// when cfg.PrintMetrics is set.
func run(ctx context.Context, cfg config, logger log.Logger, out io.Writer) (Report, error) {
	arena, err := bump.NewFromConfig(cfg.Arena)
	if err != nil {
		return Report{}, err
	}
	layout, err := allocmany.NewLayout(uintptr(cfg.Stress.Size), uintptr(cfg.Stress.Align))
	if err != nil {
		return Report{}, err
	}

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(bump.NewCollector(cfg.Arena.Name, arena)); err != nil {
		return Report{}, errors.Wrap(err, "registering arena collector")
	}

	results := make([][]block, cfg.Stress.Workers)
	start := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	for w := range cfg.Stress.Workers {
		g.Go(func() error {
			select {
			case <-start:
			case <-gctx.Done():
				return gctx.Err()
			}

			local := make([]block, 0, cfg.Stress.AllocsPerWorker)
			for range cfg.Stress.AllocsPerWorker {
				if err := gctx.Err(); err != nil {
					return err
				}
				p := arena.Alloc(layout)
				if p == nil {
					continue
				}
				local = append(local, block{start: uintptr(p), end: uintptr(unsafe.Add(p, layout.Size()))})
			}
			results[w] = local
			return nil
		})
	}
	close(start)
	if err := g.Wait(); err != nil {
		return Report{}, errors.Wrap(err, "stress run interrupted")
	}

	report := check(results, layout.Align())
	report.Metrics = arena.Metrics()

	logger = log.With(logger, "arena", cfg.Arena.Name)
	level.Info(logger).Log(
		"msg", "stress run complete",
		"workers", cfg.Stress.Workers,
		"allocated", report.Allocated,
		"failures", report.Metrics.Failures,
		"used", humanize.Bytes(uint64(report.Metrics.Used)),
		"remaining", humanize.Bytes(uint64(report.Metrics.Remaining)),
		"utilization", humanize.FormatFloat("#.##", report.Metrics.Utilization*100)+"%",
	)
	if report.Overlaps > 0 {
		level.Error(logger).Log("msg", "blocks overlap", "count", report.Overlaps)
	}
	if report.Misaligned > 0 {
		level.Error(logger).Log("msg", "blocks misaligned", "count", report.Misaligned, "align", layout.Align())
	}

	if cfg.PrintMetrics {
		if err := writeMetrics(out, reg); err != nil {
			return report, err
		}
	}
	return report, nil
}

// check counts misaligned blocks and adjacent pairs that overlap once all
// blocks are sorted by start address.
func check(results [][]block, align uintptr) Report {
	var all []block
	for _, local := range results {
		all = append(all, local...)
	}
	slices.SortFunc(all, func(a, b block) int {
		switch {
		case a.start < b.start:
			return -1
		case a.start > b.start:
			return 1
		}
		return 0
	})

	r := Report{Allocated: len(all)}
	for i, b := range all {
		if b.start%align != 0 {
			r.Misaligned++
		}
		if i > 0 && all[i-1].end > b.start {
			r.Overlaps++
		}
	}
	return r
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering arena metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "writing arena metrics")
		}
	}
	return nil
}
