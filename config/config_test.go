package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/semafind/distmat/distmat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(DISTMAT_CONFIG, "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
debug: true
n: 10
m: 20
d: 3
seed: 7
parallel:
  workers: 4
  blockRows: 2
compare:
  repeats: 5
  methods: [gram, library]
`)
	t.Setenv(DISTMAT_CONFIG, path)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	// Values not in the file keep their defaults
	assert.True(t, cfg.PrettyLogOutput)
	assert.Equal(t, 10, cfg.N)
	assert.Equal(t, 20, cfg.M)
	assert.Equal(t, 3, cfg.D)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, distmat.ParallelOptions{Workers: 4, BlockRows: 2}, cfg.Parallel)
	assert.Equal(t, 5, cfg.Compare.Repeats)
	assert.Equal(t, []distmat.Method{distmat.MethodGram, distmat.MethodLibrary}, cfg.Compare.Methods)
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	t.Setenv(DISTMAT_CONFIG, writeConfig(t, ""))
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv(DISTMAT_CONFIG, writeConfig(t, "n: 10\nseed: 7\n"))
	t.Setenv("DISTMAT_N", "99")
	t.Setenv("DISTMAT_PARALLEL_WORKERS", "3")
	t.Setenv("DISTMAT_COMPARE_METHODS", "triple-loop,gram")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.N)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, 3, cfg.Parallel.Workers)
	assert.Equal(t, []distmat.Method{distmat.MethodTripleLoop, distmat.MethodGram}, cfg.Compare.Methods)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Setenv(DISTMAT_CONFIG, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
	// ---------------------------
	t.Setenv(DISTMAT_CONFIG, writeConfig(t, "unknownField: 1\n"))
	_, err = LoadConfig()
	assert.Error(t, err)
	// ---------------------------
	t.Setenv(DISTMAT_CONFIG, "")
	t.Setenv("DISTMAT_N", "many")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ConfigMap)
	}{
		{"ZeroN", func(c *ConfigMap) { c.N = 0 }},
		{"NegativeD", func(c *ConfigMap) { c.D = -1 }},
		{"NegativeWorkers", func(c *ConfigMap) { c.Parallel.Workers = -2 }},
		{"ZeroRepeats", func(c *ConfigMap) { c.Compare.Repeats = 0 }},
		{"UnknownMethod", func(c *ConfigMap) { c.Compare.Methods = []distmat.Method{"cdist"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
