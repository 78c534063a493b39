package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := defaultConfig()
	cfg.FlowRate = 2.5
	cfg.MotorTeeth = 12
	cfg.RetractionSteps = 75
	require.NoError(t, cfg.save(path))

	loaded, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfig_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(`{"flow_rate": 3}`), 0644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.FlowRate)
	assert.Equal(t, defaultConfig().PlanarSpeed, cfg.PlanarSpeed)
}

func TestSafePath(t *testing.T) {
	ok, name := safePath("data", "foo/../../etc/passwd")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("data", "etc", "passwd"), name)

	ok, name = safePath("data", "drawing.gcode")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("data", "drawing.gcode"), name)
}
