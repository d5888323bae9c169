// Package config handles touchhle.toml runtime configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "touchhle.toml"

// Memory backends.
const (
	BackendFlat   = "flat"
	BackendWazero = "wazero"
)

// Unimplemented-selector policies.
const (
	PolicyFatal = "fatal"
	PolicyStub  = "stub"
)

// wazeroMaxSize is the largest memory a wazero space can be given.
const wazeroMaxSize = 65535 * 65536

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config represents a touchhle.toml file.
type Config struct {
	Memory      MemoryConfig      `toml:"memory"`
	Dispatch    DispatchConfig    `toml:"dispatch"`
	Log         LogConfig         `toml:"log"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`

	// Dir is the directory containing the touchhle.toml file (set at load time).
	Dir string `toml:"-"`
}

// MemoryConfig sizes the guest address space.
type MemoryConfig struct {
	Backend  string `toml:"backend"`
	Size     uint64 `toml:"size"`
	HeapBase uint32 `toml:"heap-base"`
}

// DispatchConfig configures message dispatch.
type DispatchConfig struct {
	Unimplemented string `toml:"unimplemented"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// DiagnosticsConfig configures the diagnostics database. An empty Database
// disables it.
type DiagnosticsConfig struct {
	Database string `toml:"database"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Memory: MemoryConfig{
			Backend:  BackendFlat,
			Size:     16 << 20,
			HeapBase: 0x100000,
		},
		Dispatch: DispatchConfig{Unimplemented: PolicyFatal},
		Log:      LogConfig{Verbosity: 1},
	}
}

// Parse decodes a configuration over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load parses the touchhle.toml file in dir.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a touchhle.toml file, then
// loads it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Memory.Backend {
	case BackendFlat:
		if c.Memory.Size > math.MaxUint32 {
			return fmt.Errorf("memory size %d exceeds the 32-bit address space: %w", c.Memory.Size, ErrInvalid)
		}
	case BackendWazero:
		if c.Memory.Size > wazeroMaxSize {
			return fmt.Errorf("memory size %d exceeds the wazero limit %d: %w", c.Memory.Size, wazeroMaxSize, ErrInvalid)
		}
	default:
		return fmt.Errorf("unknown memory backend %q: %w", c.Memory.Backend, ErrInvalid)
	}
	if c.Memory.Size <= uint64(c.Memory.HeapBase) {
		return fmt.Errorf("memory size %d leaves no heap above 0x%x: %w", c.Memory.Size, c.Memory.HeapBase, ErrInvalid)
	}

	switch c.Dispatch.Unimplemented {
	case PolicyFatal, PolicyStub:
	default:
		return fmt.Errorf("unknown unimplemented policy %q: %w", c.Dispatch.Unimplemented, ErrInvalid)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("negative log verbosity: %w", ErrInvalid)
	}
	return nil
}

// DatabasePath resolves the diagnostics database relative to Dir. It is
// empty when diagnostics are disabled.
func (c *Config) DatabasePath() string {
	db := c.Diagnostics.Database
	if db == "" || filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(c.Dir, db)
}

// LogPath resolves the log file relative to Dir. Empty means stderr.
func (c *Config) LogPath() string {
	f := c.Log.File
	if f == "" || filepath.IsAbs(f) {
		return f
	}
	return filepath.Join(c.Dir, f)
}
