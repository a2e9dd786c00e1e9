package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := Load(fs, "/etc/cueforge.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	raw := []byte(`
osc:
  enabled: true
  addr: "0.0.0.0:9000"
logLevel: debug
`)
	require.NoError(t, afero.WriteFile(fs, "/etc/cueforge.yaml", raw, 0o644))

	cfg, err := Load(fs, "/etc/cueforge.yaml")
	require.NoError(t, err)
	assert.True(t, cfg.OSC.Enabled)
	assert.Equal(t, "0.0.0.0:9000", cfg.OSC.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched sections keep their defaults.
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 30, cfg.Health.CheckIntervalSeconds)
}

func TestLoadRejectsBadValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	tests := []struct {
		name string
		raw  string
	}{
		{"bad log level", "logLevel: loud"},
		{"zero sample rate", "audio:\n  sampleRate: 0"},
		{"negative health interval", "health:\n  checkIntervalSeconds: -5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, afero.WriteFile(fs, "/cfg.yaml", []byte(tt.raw), 0o644))
			_, err := Load(fs, "/cfg.yaml")
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedYAMLFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg.yaml", []byte("osc: ["), 0o644))
	_, err := Load(fs, "/cfg.yaml")
	assert.Error(t, err)
}

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
