package Goraster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "config.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(`<config>
	<driver>SQLite</driver>
	<blockxsize>64</blockxsize>
	<verbose>true</verbose>
</config>`), 0o644))

	tomlPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("driver = \"MEM\"\nblockysize = 32\n"), 0o644))

	tests := []struct {
		name string
		path string
		want RasterConfig
	}{
		{
			name: "xml",
			path: xmlPath,
			want: RasterConfig{DefaultDriver: "SQLite", BlockXSize: 64, BlockYSize: 256, Verbose: true},
		},
		{
			name: "toml",
			path: tomlPath,
			want: RasterConfig{DefaultDriver: "MEM", BlockXSize: 256, BlockYSize: 32},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want.DefaultDriver, cfg.DefaultDriver)
			assert.Equal(t, tt.want.BlockXSize, cfg.BlockXSize)
			assert.Equal(t, tt.want.BlockYSize, cfg.BlockYSize)
			assert.Equal(t, tt.want.Verbose, cfg.Verbose)
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "config.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.xml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("blockxsize = 0\n"), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}

func TestSetConfig_AffectsNewBands(t *testing.T) {
	old := currentConfig()
	defer SetConfig(old)

	cfg := DefaultConfig()
	cfg.BlockXSize, cfg.BlockYSize = 2, 3
	SetConfig(cfg)

	rd, err := Create("MEM", "", 10, 10, 1, BandByte)
	require.NoError(t, err)
	defer rd.Close()
	band, err := rd.Bands().Get(1)
	require.NoError(t, err)
	bx, by := band.BlockSize()
	assert.Equal(t, 2, bx)
	assert.Equal(t, 3, by)
}
