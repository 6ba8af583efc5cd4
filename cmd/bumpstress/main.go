// Command bumpstress hammers a bump arena from many goroutines at once and
// verifies that every block it handed out is aligned and disjoint from the
// others.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/pavanmanishd/allocmany"
	"github.com/pavanmanishd/allocmany/bump"
)

const configFileOption = "config.file"

type config struct {
	Arena  bump.Config  `yaml:"arena"`
	Stress stressConfig `yaml:"stress"`

	LogLevel     string `yaml:"log_level"`
	PrintMetrics bool   `yaml:"print_metrics"`
}

type stressConfig struct {
	Workers         int `yaml:"workers"`
	AllocsPerWorker int `yaml:"allocs_per_worker"`
	Size            int `yaml:"size"`
	Align           int `yaml:"align"`
}

func (c *config) RegisterFlags(f *flag.FlagSet) {
	c.Arena.RegisterFlagsWithPrefix("arena.", f)
	c.Stress.RegisterFlagsWithPrefix("stress.", f)
	f.StringVar(&c.LogLevel, "log.level", "info", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]")
	f.BoolVar(&c.PrintMetrics, "metrics.print", false, "Write the arena metrics to stdout in the Prometheus text format once the run completes.")
}

func (c *config) Validate() error {
	err := multierr.Combine(c.Arena.Validate(), c.Stress.Validate())
	if _, lvlErr := parseLevel(c.LogLevel); lvlErr != nil {
		err = multierr.Append(err, lvlErr)
	}
	return err
}

func (c *stressConfig) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.IntVar(&c.Workers, prefix+"workers", 10, "Number of goroutines allocating concurrently.")
	f.IntVar(&c.AllocsPerWorker, prefix+"allocs-per-worker", 100, "Number of allocations each goroutine attempts.")
	f.IntVar(&c.Size, prefix+"size", 1, "Size in bytes of every allocation.")
	f.IntVar(&c.Align, prefix+"align", 1, "Alignment in bytes of every allocation. Must be a power of two.")
}

func (c *stressConfig) Validate() error {
	var err error
	if c.Workers <= 0 {
		err = multierr.Append(err, errors.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.AllocsPerWorker <= 0 {
		err = multierr.Append(err, errors.Errorf("allocs per worker must be positive, got %d", c.AllocsPerWorker))
	}
	if c.Size <= 0 || c.Size > bump.MaxCapacity {
		err = multierr.Append(err, errors.Errorf("size %d not in (0, %d]", c.Size, bump.MaxCapacity))
	}
	if c.Align <= 0 || c.Align > bump.MaxAlign || c.Align&(c.Align-1) != 0 {
		err = multierr.Append(err, errors.Errorf("align %d is not a power of two in [1, %d]", c.Align, bump.MaxAlign))
	}
	return err
}

func main() {
	cfg := config{}
	cfg.RegisterFlags(flag.CommandLine)

	configFile := parseConfigFileParameter(os.Args[1:])
	if configFile != "" {
		if err := LoadConfig(configFile, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "error loading config from %s: %v\n", configFile, err)
			os.Exit(1)
		}
	}
	// Ignore -config.file here, since it was already parsed, but it's still present on command line.
	flagext.IgnoredFlag(flag.CommandLine, configFileOption, "Configuration file to load.")

	if err := flagext.ParseFlagsWithoutArguments(flag.CommandLine); err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "failed while parsing flags"))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "configuration validation failed"))
		os.Exit(1)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel)
	allocmany.SetLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out := io.Discard
	if cfg.PrintMetrics {
		out = os.Stdout
	}
	report, err := run(ctx, cfg, logger, out)
	if err != nil {
		level.Error(logger).Log("msg", "stress run failed", "err", err)
		os.Exit(1)
	}
	if !report.OK() {
		os.Exit(1)
	}
}

// parseConfigFileParameter finds -config.file among args without failing on
// the flags it does not know about.
func parseConfigFileParameter(args []string) (configFile string) {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&configFile, configFileOption, "", "")

	// Parsing stops on the first unknown flag, so retry from every position.
	for len(args) > 0 {
		_ = fs.Parse(args)
		args = args[1:]
	}
	return
}

// LoadConfig reads YAML-formatted config from filename into cfg.
func LoadConfig(filename string, cfg *config) error {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "Error reading config file")
	}

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "Error parsing config file")
	}
	return nil
}

func newLogger(w io.Writer, lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	opt, err := parseLevel(lvl)
	if err != nil {
		opt = level.AllowInfo()
	}
	logger = level.NewFilter(logger, opt)
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func parseLevel(lvl string) (level.Option, error) {
	switch lvl {
	case "debug":
		return level.AllowDebug(), nil
	case "info":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	}
	return nil, errors.Errorf("unrecognized log level %q", lvl)
}
