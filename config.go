package ggedit

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/halgpu"
	"github.com/gogpu/ggedit/internal/texture"
)

// Backend names accepted by Config.Backend.
const (
	BackendSoftware = "software"
	BackendGPU      = "gpu"
)

// Config holds the renderer settings. The zero value is not valid; start
// from DefaultConfig.
type Config struct {
	// Width and Height are the frame size in pixels.
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`

	// Background is the frame clear color as #RGB, #RRGGBB or #RRGGBBAA.
	Background string `toml:"background" yaml:"background"`

	// Backend selects the device when none is passed with WithDevice.
	Backend string `toml:"backend" yaml:"backend"`

	// Debug turns transform stack violations into panics.
	Debug bool `toml:"debug" yaml:"debug"`

	// EffectDir holds custom effect shaders, one fragment stage per
	// .wgsl file. Empty disables custom effects.
	EffectDir string `toml:"effect_dir" yaml:"effect_dir"`

	// WatchEffects recompiles custom effects when their files change.
	WatchEffects bool `toml:"watch_effects" yaml:"watch_effects"`

	// ReloadDebounceMS is the quiet period before a changed effect is
	// recompiled.
	ReloadDebounceMS int `toml:"reload_debounce_ms" yaml:"reload_debounce_ms"`

	// AtlasSize and MaxAtlasSize bound the glyph atlas side in texels.
	AtlasSize    int `toml:"atlas_size" yaml:"atlas_size"`
	MaxAtlasSize int `toml:"max_atlas_size" yaml:"max_atlas_size"`

	// MemoryLimit caps software device texture memory in bytes, zero
	// for no limit.
	MemoryLimit int `toml:"memory_limit" yaml:"memory_limit"`
}

// DefaultConfig returns the default settings: an 800x600 frame on the
// software device with a dark gray background.
func DefaultConfig() Config {
	return Config{
		Width:            800,
		Height:           600,
		Background:       "#202020",
		Backend:          BackendSoftware,
		ReloadDebounceMS: 200,
		AtlasSize:        texture.DefaultAtlasSize,
		MaxAtlasSize:     2048,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.Width > halgpu.DefaultMaxTextureSize || c.Height > halgpu.DefaultMaxTextureSize:
		return fmt.Errorf("%w: frame size %dx%d exceeds %d", ErrInvalidConfig, c.Width, c.Height, halgpu.DefaultMaxTextureSize)
	case c.Backend != BackendSoftware && c.Backend != BackendGPU:
		return fmt.Errorf("%w: backend %q", ErrInvalidConfig, c.Backend)
	case c.AtlasSize <= 0 || c.MaxAtlasSize < c.AtlasSize:
		return fmt.Errorf("%w: atlas size %d, max %d", ErrInvalidConfig, c.AtlasSize, c.MaxAtlasSize)
	case c.ReloadDebounceMS < 0 || c.MemoryLimit < 0:
		return fmt.Errorf("%w: negative debounce or memory limit", ErrInvalidConfig)
	}
	if _, err := c.BackgroundColor(); err != nil {
		return err
	}
	return nil
}

// BackgroundColor parses Background.
func (c Config) BackgroundColor() (core.RGBA, error) {
	col, ok := core.Hex(c.Background)
	if !ok {
		return core.RGBA{}, fmt.Errorf("%w: background %q", ErrInvalidConfig, c.Background)
	}
	return col, nil
}

// ReloadDebounce returns ReloadDebounceMS as a duration.
func (c Config) ReloadDebounce() time.Duration {
	return time.Duration(c.ReloadDebounceMS) * time.Millisecond
}

// LoadConfig reads a TOML (.toml) or YAML (.yaml, .yml) file over the
// defaults. Settings missing from the file keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("ggedit: read config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("ggedit: read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("ggedit: parse config %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrConfigFormat, path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as TOML.
func SaveConfig(path string, cfg Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("ggedit: encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("ggedit: write config %s: %w", path, err)
	}
	return nil
}
