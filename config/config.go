package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration struct.  All fields have safe defaults
// so callers can start with Default() and override only what they need.
type Config struct {
	// Worker pool controls.
	WorkerCount int `toml:"worker_count"` // default: runtime.NumCPU()
	QueueSize   int `toml:"queue_size"`   // max queued jobs; a full queue fails new requests

	// Encode defaults applied when a request does not override them.
	DefaultQuality int    `toml:"default_quality"` // 1-100; default 85
	DefaultFormat  string `toml:"default_format"`  // used when the output path has no known extension

	// Resampler names the scaling filter: lanczos, catmullrom, mitchell,
	// linear, box, nearest.
	Resampler string `toml:"resampler"`

	// Memory limits.  MaxDimension and MaxPixels bound both the decoded input
	// and every resize target, so no request can allocate an unbounded image.
	MaxImageBytes int64 `toml:"max_image_bytes"` // 0 = no limit
	MaxDimension  int   `toml:"max_dimension"`   // longest side in pixels; default 16384
	MaxPixels     int64 `toml:"max_pixels"`      // width*height; default 64 Mpx
	ChunkSize     int   `toml:"chunk_size"`      // read chunk size in bytes; default 32 KiB

	// Output files.
	FilePermissions uint32 `toml:"file_permissions"` // default 0644

	// Logging.
	LogLevel  string `toml:"log_level"`  // "debug", "info", "warn", "error"
	LogFormat string `toml:"log_format"` // "text" or "json"
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		WorkerCount:     0, // resolved at runtime to NumCPU
		QueueSize:       256,
		DefaultQuality:  85,
		Resampler:       "lanczos",
		MaxDimension:    16384,
		MaxPixels:       64 << 20,
		ChunkSize:       32 * 1024,
		FilePermissions: 0o644,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load reads a TOML file on top of Default() and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var resamplers = map[string]bool{
	"lanczos": true, "catmullrom": true, "mitchell": true,
	"linear": true, "box": true, "nearest": true,
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.WorkerCount < 0 {
		return errors.New("config: WorkerCount must not be negative")
	}
	if c.QueueSize < 0 {
		return errors.New("config: QueueSize must not be negative")
	}
	if c.DefaultQuality < 1 || c.DefaultQuality > 100 {
		return errors.New("config: DefaultQuality must be between 1 and 100")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	if c.MaxImageBytes < 0 {
		return errors.New("config: MaxImageBytes must not be negative")
	}
	if c.MaxDimension <= 0 {
		return errors.New("config: MaxDimension must be positive")
	}
	if c.MaxPixels <= 0 {
		return errors.New("config: MaxPixels must be positive")
	}
	if c.Resampler != "" && !resamplers[c.Resampler] {
		return fmt.Errorf("config: unknown Resampler %q", c.Resampler)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown LogFormat %q", c.LogFormat)
	}
	return nil
}
