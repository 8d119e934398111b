package config

import (
	"fmt"
	"strings"

	"github.com/23skdu/longbow-bodkin/internal/backend"
	"github.com/23skdu/longbow-bodkin/internal/exec"
)

// Config drives the verification and vector-generation tools.
type Config struct {
	Format       backend.Format
	RoundingMode exec.RM

	// Sweep selection
	Operations []string
	Exhaustive bool // every input pattern; only feasible for binary16 unaries
	Count      int  // random samples per operation when not exhaustive
	Seed       int64

	// Output
	MaxReported int // mismatches reported per sweep; later ones are only counted

	LogLevel  string
	LogFormat string

	MetricsAddr string // empty disables the /metrics listener
}

// Default returns the configuration the CLIs start from.
func Default() Config {
	return Config{
		Format:       backend.Binary32,
		RoundingMode: exec.RNE,
		Operations:   []string{"add", "sub", "mul", "div", "sqrt"},
		Count:        100000,
		Seed:         1,
		MaxReported:  20,
		LogLevel:     "INFO",
		LogFormat:    "console",
	}
}

// ParseFormat maps a format name onto its descriptor.
func ParseFormat(name string) (backend.Format, error) {
	switch strings.ToLower(name) {
	case "binary16", "half", "fp16":
		return backend.Binary16, nil
	case "binary32", "single", "fp32":
		return backend.Binary32, nil
	case "binary64", "double", "fp64":
		return backend.Binary64, nil
	}
	return backend.Format{}, fmt.Errorf("unknown format %q", name)
}

// ParseRoundingMode maps a mode name onto its constant.
func ParseRoundingMode(name string) (exec.RM, error) {
	switch strings.ToUpper(name) {
	case "RNE":
		return exec.RNE, nil
	case "RNA":
		return exec.RNA, nil
	case "RTP":
		return exec.RTP, nil
	case "RTN":
		return exec.RTN, nil
	case "RTZ":
		return exec.RTZ, nil
	}
	return 0, fmt.Errorf("unknown rounding mode %q", name)
}

func (c *Config) Validate() error {
	if err := c.Format.Valid(); err != nil {
		return err
	}
	if len(c.Operations) == 0 {
		return fmt.Errorf("no operations selected")
	}
	if !c.Exhaustive && c.Count <= 0 {
		return fmt.Errorf("invalid count: %d (must be positive)", c.Count)
	}
	if c.Exhaustive && c.Format.PackedWidth() > 16 {
		return fmt.Errorf("exhaustive sweeps need a packed width of at most 16, got %d", c.Format.PackedWidth())
	}
	if c.MaxReported < 0 {
		return fmt.Errorf("invalid max-reported: %d", c.MaxReported)
	}
	return nil
}
