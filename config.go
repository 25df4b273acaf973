package alternative

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Config controls how a Builder lays out an image.
//
// Example file:
//
//	arch = "riscv64"
//	enabled = true
//
//	[options]
//	ERRATA_SIFIVE = true
//	ERRATA_THEAD = false
type Config struct {
	// Arch is the GOARCH-style name of the target instruction set.
	Arch string

	// Enabled switches the whole mechanism. When false every site emits
	// only its default code and no table entry. It is forced to false
	// when built with -tags noalternative.
	Enabled bool

	// Options holds the build options candidates are gated on. A candidate
	// naming an option that is absent or false is compiled out.
	Options map[string]bool
}

type configFile struct {
	Arch    string          `toml:"arch"`
	Enabled *bool           `toml:"enabled"`
	Options map[string]bool `toml:"options"`
}

// DefaultConfig returns a config for the host architecture with the
// mechanism enabled and no options set.
func DefaultConfig() Config {
	return Config{
		Arch:    HostArch().Name(),
		Enabled: compiledIn,
		Options: map[string]bool{},
	}
}

// ParseConfig reads a TOML config. Missing keys take their DefaultConfig
// values.
func ParseConfig(data []byte) (Config, error) {
	var raw configFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := DefaultConfig()
	if raw.Arch != "" {
		if _, err := LookupArch(raw.Arch); err != nil {
			return Config{}, err
		}
		cfg.Arch = raw.Arch
	}
	if raw.Enabled != nil {
		cfg.Enabled = *raw.Enabled && compiledIn
	}
	for name, on := range raw.Options {
		cfg.Options[name] = on
	}
	return cfg, nil
}

// LoadConfig reads a TOML config from path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}

// enabled reports whether a candidate gated on option is compiled in. An
// empty option is always on.
func (c *Config) enabled(option string) bool {
	if !c.Enabled {
		return false
	}
	return option == "" || c.Options[option]
}
