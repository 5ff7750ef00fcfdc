package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(dir), cfg)
	assert.Equal(t, filepath.Join(dir, "actas.db"), cfg.Database)
	assert.Equal(t, 24*time.Hour, cfg.Backup.Interval())
	assert.Equal(t, 30*time.Second, cfg.Master.IOTimeout)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `executive:
  name: Ana Pérez
  email: ana@example.com
timezone: America/Bogota
renderer: [actas-pdf, --a4]
master:
  io_timeout: 5s
backup:
  interval_hours: 6
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Ana Pérez", cfg.Executive.Name)
	assert.Equal(t, 5*time.Second, cfg.Master.IOTimeout)
	assert.Equal(t, "Actas_Master.xlsx", cfg.Master.Filename, "unset keys keep defaults")
	assert.Equal(t, 6*time.Hour, cfg.Backup.Interval())
	assert.True(t, cfg.Backup.Auto)
	assert.Equal(t, []string{"actas-pdf", "--a4"}, cfg.Renderer)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Bogota", loc.String())
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(dir), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown key":   "executve:\n  name: typo\n",
		"bad interval":  "backup:\n  interval_hours: 0\n",
		"bad timezone":  "timezone: Mars/Olympus\n",
		"bad duration":  "master:\n  io_timeout: soon\n",
		"negative io":   "master:\n  io_timeout: -1s\n",
		"not a mapping": "- a\n- b\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default(filepath.Dir(path))
	cfg.Executive = Executive{Name: "Ana", Email: "ana@example.com"}
	cfg.Backup.IntervalHours = 12

	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, got)
}
