//go:build !noalternative

package alternative

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	assert := assert.New(t)

	cfg, err := ParseConfig([]byte(`
arch = "arm64"
enabled = false

[options]
ERRATA_SIFIVE = true
ERRATA_THEAD = false
`))
	require.NoError(t, err)

	assert.Equal("arm64", cfg.Arch)
	assert.False(cfg.Enabled)
	assert.Equal(map[string]bool{"ERRATA_SIFIVE": true, "ERRATA_THEAD": false}, cfg.Options)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.True(t, cfg.Enabled)
}

func TestParseConfig_Errors(t *testing.T) {
	_, err := ParseConfig([]byte(`arch = "vax"`))
	assert.Error(t, err)

	_, err = ParseConfig([]byte(`arch = `))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alternative.toml")
	require.NoError(t, os.WriteFile(path, []byte("arch = \"riscv64\"\n[options]\nERRATA_ANDES = true\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "riscv64", cfg.Arch)
	assert.True(t, cfg.enabled("ERRATA_ANDES"))
	assert.True(t, cfg.enabled(""))
	assert.False(t, cfg.enabled("ERRATA_THEAD"))

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
