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
// RasterDriver.go
package Goraster

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Access 数据集访问模式
type Access int

const (
	ReadOnly Access = iota
	Update
)

func (a Access) String() string {
	if a == Update {
		return "update"
	}
	return "readonly"
}

// IOOperation 读写方向
type IOOperation int

const (
	IORead IOOperation = iota
	IOWrite
)

// 驱动能力
const (
	CapabilityCreate         = "CREATE"
	CapabilityOpen           = "OPEN"
	CapabilityUpdate         = "UPDATE"
	CapabilityCreateBand     = "CREATE_BAND"
	CapabilityDeferredCommit = "DEFERRED_COMMIT" // 结构变更需 Flush/Close 后才持久化
)

// Driver 栅格格式驱动
type Driver interface {
	ShortName() string
	LongName() string
	HasCapability(capability string) bool
	Create(name string, width, height, nBands int, dataType BandDataType, options CreationOptions) (DriverDataset, error)
	Open(name string, access Access) (DriverDataset, error)
}

// DriverDataset 驱动层数据集，波段序号从1开始
type DriverDataset interface {
	RasterSize() (width, height int)
	GetBandCount() int
	GetBand(index int) (DriverBand, error)
	AddBand(dataType BandDataType, options CreationOptions) (DriverBand, error)
	GeoTransform() ([6]float64, bool)
	SetGeoTransform(gt [6]float64) error
	Projection() string
	SetProjection(wkt string) error
	Flush() error
	Close() error
}

// DriverBand 驱动层波段
type DriverBand interface {
	DataType() BandDataType
	BlockSize() (x, y int)
	ColorInterp() ColorInterpretation
	SetColorInterp(ci ColorInterpretation) error
	NoData() (float64, bool)
	SetNoData(value float64) error
	Description() string
	RasterIO(op IOOperation, x, y, width, height int, buffer []float64) error
}

// ==================== 驱动注册 ====================

var (
	driverMu sync.RWMutex
	drivers  = map[string]Driver{}
)

func init() {
	RegisterDriver(&memDriver{})
	RegisterDriver(&sqliteDriver{})
	RegisterDriver(&imageDriver{})
}

// RegisterDriver 注册驱动，名称不区分大小写
func RegisterDriver(d Driver) error {
	if d == nil || d.ShortName() == "" {
		return invalidArgf("RegisterDriver", 0, "driver must have a name")
	}
	key := strings.ToUpper(d.ShortName())
	driverMu.Lock()
	defer driverMu.Unlock()
	if _, ok := drivers[key]; ok {
		return invalidArgf("RegisterDriver", 0, "driver %s already registered", d.ShortName())
	}
	drivers[key] = d
	return nil
}

// GetDriverByName 按名称获取驱动
func GetDriverByName(name string) (Driver, error) {
	driverMu.RLock()
	defer driverMu.RUnlock()
	d, ok := drivers[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, invalidArgf("GetDriverByName", 0, "unknown driver %q", name)
	}
	return d, nil
}

// Drivers 已注册驱动名称
func Drivers() []string {
	driverMu.RLock()
	defer driverMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for _, d := range drivers {
		names = append(names, d.ShortName())
	}
	sort.Strings(names)
	return names
}

// ==================== 创建选项 ====================

// CreationOptions 创建选项，键统一为大写
type CreationOptions map[string]string

// ParseCreationOptions 解析 KEY=VALUE 形式的选项列表
func ParseCreationOptions(options []string) (CreationOptions, error) {
	opts := CreationOptions{}
	for _, o := range options {
		i := strings.IndexByte(o, '=')
		if i < 0 {
			return nil, invalidArgf("ParseCreationOptions", 0, "malformed option %q, expected KEY=VALUE", o)
		}
		key := strings.ToUpper(strings.TrimSpace(o[:i]))
		if key == "" {
			return nil, invalidArgf("ParseCreationOptions", 0, "malformed option %q, empty key", o)
		}
		opts[key] = strings.TrimSpace(o[i+1:])
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func (o CreationOptions) validate() error {
	for _, key := range []string{"BLOCKXSIZE", "BLOCKYSIZE"} {
		if v, ok := o[key]; ok {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return invalidArgf("ParseCreationOptions", 0, "%s must be a positive integer, got %q", key, v)
			}
		}
	}
	if v, ok := o["NODATA"]; ok {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return invalidArgf("ParseCreationOptions", 0, "NODATA must be a number, got %q", v)
		}
	}
	if v, ok := o["COLORINTERP"]; ok {
		if _, err := ParseColorInterpretation(v); err != nil {
			return invalidArgf("ParseCreationOptions", 0, "unrecognized COLORINTERP %q", v)
		}
	}
	return nil
}

// Get 获取选项
func (o CreationOptions) Get(key string) (string, bool) {
	v, ok := o[strings.ToUpper(key)]
	return v, ok
}

// Int 获取整数选项，缺省或非法时返回 def
func (o CreationOptions) Int(key string, def int) int {
	v, ok := o.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Strings 还原为有序的 KEY=VALUE 列表
func (o CreationOptions) Strings() []string {
	out := make([]string, 0, len(o))
	for k, v := range o {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// bandSettings 新建波段的公共属性
type bandSettings struct {
	blockX, blockY int
	colorInterp    ColorInterpretation
	noData         float64
	hasNoData      bool
	description    string
}

// settingsFromOptions 按选项与全局配置得到波段属性
func settingsFromOptions(options CreationOptions, width, height int) bandSettings {
	cfg := currentConfig()
	s := bandSettings{
		blockX: options.Int("BLOCKXSIZE", minInt(cfg.BlockXSize, width)),
		blockY: options.Int("BLOCKYSIZE", minInt(cfg.BlockYSize, height)),
	}
	if s.blockX <= 0 {
		s.blockX = 1
	}
	if s.blockY <= 0 {
		s.blockY = 1
	}
	if v, ok := options.Get("NODATA"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.noData, s.hasNoData = f, true
		}
	}
	if v, ok := options.Get("COLORINTERP"); ok {
		s.colorInterp, _ = ParseColorInterpretation(v)
	}
	s.description, _ = options.Get("DESCRIPTION")
	return s
}

// windowIO 在按行存储的像元平面上执行窗口读写
func windowIO(plane []float64, rasterWidth, rasterHeight int, dt BandDataType,
	op IOOperation, x, y, width, height int, buffer []float64) error {
	if x < 0 || y < 0 || width <= 0 || height <= 0 || width > rasterWidth-x || height > rasterHeight-y {
		return errors.Errorf("window (%d,%d,%d,%d) out of bounds", x, y, width, height)
	}
	if len(buffer) < width*height {
		return errors.Errorf("buffer too small: %d < %d", len(buffer), width*height)
	}
	for row := 0; row < height; row++ {
		off := (y+row)*rasterWidth + x
		line := buffer[row*width : (row+1)*width]
		if op == IORead {
			copy(line, plane[off:off+width])
			continue
		}
		for i, v := range line {
			plane[off+i] = dt.Clamp(v)
		}
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
