package retouch

import (
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds the editor settings. It is usually read from a TOML file
// with LoadConfig; zero sections fall back to DefaultConfig values.
type Config struct {
	History HistoryConfig `toml:"history"`
	Cache   CacheConfig   `toml:"cache"`
	Fill    FillConfig    `toml:"fill"`
	Wand    WandConfig    `toml:"wand"`
	Heal    HealConfig    `toml:"heal"`
	Inpaint InpaintConfig `toml:"inpaint"`
}

// HistoryConfig bounds the undo stack. A zero limit keeps every step.
type HistoryConfig struct {
	Limit int `toml:"limit"`
}

// CacheConfig sizes the cache of merged document surfaces.
type CacheConfig struct {
	MergedSize int `toml:"merged_size"`
}

// FillConfig holds the flood fill tool settings.
type FillConfig struct {
	Tolerance    uint8 `toml:"tolerance"`
	SampleMerged bool  `toml:"sample_merged"`
	// Whole paints the whole selection instead of growing from the seed.
	Whole bool `toml:"whole"`
}

// WandConfig holds the magic wand tool settings.
type WandConfig struct {
	Tolerance    uint8 `toml:"tolerance"`
	SampleMerged bool  `toml:"sample_merged"`
}

// HealConfig holds the healing brush settings.
type HealConfig struct {
	Size       int     `toml:"size"`
	Strength   float64 `toml:"strength"`
	Hardness   float64 `toml:"hardness"`
	BlurRadius int     `toml:"blur_radius"`
	LowPass    string  `toml:"low_pass"`
}

// Options converts the settings to brush options.
func (c HealConfig) Options() (HealOptions, error) {
	lp, err := ParseLowPass(c.LowPass)
	if err != nil {
		return HealOptions{}, err
	}
	return HealOptions{
		Size:       c.Size,
		Strength:   c.Strength,
		Hardness:   c.Hardness,
		BlurRadius: c.BlurRadius,
		LowPass:    lp,
	}, nil
}

// InpaintConfig holds the content aware fill settings.
type InpaintConfig struct {
	PatchSize  int   `toml:"patch_size"`
	Iterations int   `toml:"iterations"`
	Seed       int64 `toml:"seed"`
}

// Options converts the settings to inpaint options.
func (c InpaintConfig) Options() InpaintOptions {
	return InpaintOptions{PatchSize: c.PatchSize, Iterations: c.Iterations, Seed: c.Seed}
}

// DefaultConfig returns the settings used when no configuration is given.
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{Limit: 100},
		Cache:   CacheConfig{MergedSize: 8},
		Fill:    FillConfig{Tolerance: 32},
		Wand:    WandConfig{Tolerance: 32},
		Heal: HealConfig{
			Size:     21,
			Strength: 1,
			Hardness: 0.5,
			LowPass:  StackBlurLowPass.String(),
		},
		Inpaint: InpaintConfig{PatchSize: 7, Iterations: 5},
	}
}

// LoadConfig reads a TOML configuration file over the default settings.
// Unknown keys are reported as an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %q", path)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, errors.Wrapf(err, "config file %q", path)
	}
	if _, err := ParseLowPass(cfg.Heal.LowPass); err != nil {
		return nil, errors.Wrapf(err, "config file %q", path)
	}
	return cfg, nil
}

// WriteConfig encodes the configuration as TOML.
func WriteConfig(w io.Writer, cfg *Config) error {
	return errors.Wrap(toml.NewEncoder(w).Encode(cfg), "could not encode config")
}

func checkUndecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return errors.Errorf("unknown keys: %s", strings.Join(names, ", "))
}
