package bump

import (
	"flag"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Config describes an arena to create at start-up.
type Config struct {
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
}

// RegisterFlagsWithPrefix registers the arena flags under prefix.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Name, prefix+"name", "default", "Name of the arena, used as the metrics label.")
	f.IntVar(&cfg.Capacity, prefix+"capacity", 4096, "Arena capacity in bytes. Must be in (0, 65535].")
}

// Validate reports every problem with the config.
func (cfg *Config) Validate() error {
	var err error
	if cfg.Name == "" {
		err = multierr.Append(err, errors.New("arena name must not be empty"))
	}
	if cfg.Capacity <= 0 || cfg.Capacity > MaxCapacity {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidCapacity, "capacity %d not in (0, %d]", cfg.Capacity, MaxCapacity))
	}
	return err
}

// NewFromConfig validates cfg and creates the arena it describes.
func NewFromConfig(cfg Config) (*Arena, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "arena %q", cfg.Name)
	}
	return New(cfg.Capacity)
}
