/*
Copyright (C) 2025 [GrainArc]

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package Goraster

import (
	"encoding/xml"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

var (
	MainConfig = DefaultConfig()
	configMu   sync.RWMutex
)

// RasterConfig 全局配置
type RasterConfig struct {
	XMLName       xml.Name `xml:"config" toml:"-"`
	DefaultDriver string   `xml:"driver" toml:"driver"`         // Create 未指定驱动时使用
	BlockXSize    int      `xml:"blockxsize" toml:"blockxsize"` // 新建波段默认块宽
	BlockYSize    int      `xml:"blockysize" toml:"blockysize"` // 新建波段默认块高
	Verbose       bool     `xml:"verbose" toml:"verbose"`
}

// DefaultConfig 默认配置
func DefaultConfig() RasterConfig {
	return RasterConfig{
		DefaultDriver: "MEM",
		BlockXSize:    256,
		BlockYSize:    256,
	}
}

func init() {
	path, err := DefaultConfigPath()
	if err != nil {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		log.Printf("加载配置失败 %s: %v", path, err)
		return
	}
	SetConfig(cfg)
}

// DefaultConfigPath 用户配置目录下的 Goraster/config.xml
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "无法获取用户配置目录")
	}
	return filepath.Join(configDir, "Goraster", "config.xml"), nil
}

// LoadConfig 按扩展名读取 XML 或 TOML 配置，未出现的字段保持默认值
func LoadConfig(path string) (RasterConfig, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "decode toml %s", path)
		}
	case ".xml":
		f, err := os.Open(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		if err := xml.NewDecoder(f).Decode(&cfg); err != nil {
			return cfg, errors.Wrapf(err, "decode xml %s", path)
		}
	default:
		return cfg, errors.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate 检查配置
func (c RasterConfig) Validate() error {
	if c.BlockXSize <= 0 || c.BlockYSize <= 0 {
		return errors.Errorf("block size must be positive, got %dx%d", c.BlockXSize, c.BlockYSize)
	}
	if c.DefaultDriver == "" {
		return errors.New("default driver is empty")
	}
	return nil
}

// SetConfig 替换全局配置
func SetConfig(cfg RasterConfig) {
	configMu.Lock()
	MainConfig = cfg
	configMu.Unlock()
}

func currentConfig() RasterConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	return MainConfig
}

func logf(format string, args ...interface{}) {
	if currentConfig().Verbose {
		log.Printf(format, args...)
	}
}
