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
// RasterBand.go
package Goraster

import (
	"fmt"
	"math"
	"strings"
)

// BandDataType 波段像元数据类型
type BandDataType int

const (
	BandUnknown BandDataType = iota
	BandByte
	BandUInt16
	BandInt16
	BandUInt32
	BandInt32
	BandFloat32
	BandFloat64
	BandCInt16
	BandCInt32
	BandCFloat32
	BandCFloat64
)

var bandDataTypeNames = map[BandDataType]string{
	BandUnknown:  "Unknown",
	BandByte:     "Byte",
	BandUInt16:   "UInt16",
	BandInt16:    "Int16",
	BandUInt32:   "UInt32",
	BandInt32:    "Int32",
	BandFloat32:  "Float32",
	BandFloat64:  "Float64",
	BandCInt16:   "CInt16",
	BandCInt32:   "CInt32",
	BandCFloat32: "CFloat32",
	BandCFloat64: "CFloat64",
}

func (dt BandDataType) String() string {
	if name, ok := bandDataTypeNames[dt]; ok {
		return name
	}
	return fmt.Sprintf("BandDataType(%d)", int(dt))
}

// Valid 是否为可识别的像元类型
func (dt BandDataType) Valid() bool {
	return dt >= BandByte && dt <= BandCFloat64
}

// IsComplex 是否为复数类型
func (dt BandDataType) IsComplex() bool {
	return dt >= BandCInt16 && dt <= BandCFloat64
}

// Size 单个像元占用字节数
func (dt BandDataType) Size() int {
	switch dt {
	case BandByte:
		return 1
	case BandInt16, BandUInt16:
		return 2
	case BandInt32, BandUInt32, BandFloat32, BandCInt16:
		return 4
	case BandCInt32, BandFloat64, BandCFloat32:
		return 8
	case BandCFloat64:
		return 16
	default:
		return 0
	}
}

// ParseBandDataType 按名称解析像元类型（不区分大小写）
func ParseBandDataType(name string) (BandDataType, error) {
	name = strings.TrimSpace(name)
	for dt, n := range bandDataTypeNames {
		if dt != BandUnknown && strings.EqualFold(n, name) {
			return dt, nil
		}
	}
	return BandUnknown, invalidArgf("ParseBandDataType", 0, "unrecognized data type %q", name)
}

// Clamp 将数值转换到该类型可表示的范围，复数类型只保留实部
func (dt BandDataType) Clamp(v float64) float64 {
	switch dt {
	case BandFloat64, BandCFloat64:
		return v
	case BandFloat32, BandCFloat32:
		return float64(float32(v))
	}
	if math.IsNaN(v) {
		return 0
	}
	lo, hi := dt.intRange()
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (dt BandDataType) intRange() (float64, float64) {
	switch dt {
	case BandByte:
		return 0, math.MaxUint8
	case BandUInt16:
		return 0, math.MaxUint16
	case BandInt16, BandCInt16:
		return math.MinInt16, math.MaxInt16
	case BandUInt32:
		return 0, math.MaxUint32
	case BandInt32, BandCInt32:
		return math.MinInt32, math.MaxInt32
	}
	return math.Inf(-1), math.Inf(1)
}

// ColorInterpretation 颜色解释
type ColorInterpretation int

const (
	ColorUndefined ColorInterpretation = iota
	ColorGray
	ColorPalette
	ColorRed
	ColorGreen
	ColorBlue
	ColorAlpha
	ColorHue
	ColorSaturation
	ColorLightness
	ColorCyan
	ColorMagenta
	ColorYellow
	ColorBlack
)

var colorInterpNames = []string{
	"Undefined", "Gray", "Palette", "Red", "Green", "Blue", "Alpha",
	"Hue", "Saturation", "Lightness", "Cyan", "Magenta", "Yellow", "Black",
}

func (ci ColorInterpretation) String() string {
	if ci < 0 || int(ci) >= len(colorInterpNames) {
		return "Undefined"
	}
	return colorInterpNames[ci]
}

// ParseColorInterpretation 按名称解析颜色解释
func ParseColorInterpretation(name string) (ColorInterpretation, error) {
	for i, n := range colorInterpNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return ColorInterpretation(i), nil
		}
	}
	return ColorUndefined, invalidArgf("ParseColorInterpretation", 0, "unrecognized color interpretation %q", name)
}

// BandInfo 波段信息
type BandInfo struct {
	BandIndex   int
	DataType    BandDataType
	ColorInterp ColorInterpretation
	NoDataValue float64
	HasNoData   bool
	Description string
}

// BandStructure 波段结构
type BandStructure struct {
	SizeX, SizeY           int
	BlockSizeX, BlockSizeY int
	DataType               BandDataType
}

// RasterBand 数据集中单个波段的句柄，只记录 (数据集, 序号)，
// 每次访问都通过驱动重新取得底层波段
type RasterBand struct {
	dataset *RasterDataset
	index   int
}

// Index 波段序号（从1开始）
func (b *RasterBand) Index() int {
	return b.index
}

// Dataset 所属数据集
func (b *RasterBand) Dataset() *RasterDataset {
	return b.dataset
}

// Equal 判断两个句柄是否指向同一波段
func (b *RasterBand) Equal(other *RasterBand) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.dataset == other.dataset && b.index == other.index
}

func (b *RasterBand) String() string {
	return fmt.Sprintf("RasterBand(%d)", b.index)
}

// source 解析底层驱动波段
func (b *RasterBand) source(op string) (DriverBand, error) {
	rd := b.dataset
	if rd == nil || !rd.IsValid() {
		return nil, NewBandError(KindInvalidArgument, op, b.index, errDatasetClosed)
	}
	if count := rd.GetBandCount(); b.index < 1 || b.index > count {
		return nil, outOfRange(op, b.index, count)
	}
	src, err := rd.ds.GetBand(b.index)
	if err != nil {
		return nil, driverErr(op, b.index, rd.driver.ShortName(), err)
	}
	return src, nil
}

// writable 写操作前检查
func (b *RasterBand) writable(op string) (DriverBand, error) {
	src, err := b.source(op)
	if err != nil {
		return nil, err
	}
	if b.dataset.access == ReadOnly {
		return nil, unsupportedf(op, "dataset %s opened read-only", b.dataset.name)
	}
	return src, nil
}

// DataType 像元类型，数据集已关闭时返回 BandUnknown
func (b *RasterBand) DataType() BandDataType {
	src, err := b.source("DataType")
	if err != nil {
		return BandUnknown
	}
	return src.DataType()
}

// BlockSize 块大小
func (b *RasterBand) BlockSize() (int, int) {
	src, err := b.source("BlockSize")
	if err != nil {
		return 0, 0
	}
	return src.BlockSize()
}

// Size 波段像元尺寸，与数据集一致
func (b *RasterBand) Size() (int, int) {
	if b.dataset == nil || !b.dataset.IsValid() {
		return 0, 0
	}
	return b.dataset.RasterSize()
}

// Structure 获取波段结构
func (b *RasterBand) Structure() (BandStructure, error) {
	src, err := b.source("Structure")
	if err != nil {
		return BandStructure{}, err
	}
	sx, sy := b.dataset.RasterSize()
	bx, by := src.BlockSize()
	return BandStructure{
		SizeX:      sx,
		SizeY:      sy,
		BlockSizeX: bx,
		BlockSizeY: by,
		DataType:   src.DataType(),
	}, nil
}

// ColorInterp 获取颜色解释
func (b *RasterBand) ColorInterp() ColorInterpretation {
	src, err := b.source("ColorInterp")
	if err != nil {
		return ColorUndefined
	}
	return src.ColorInterp()
}

// SetColorInterp 设置颜色解释
func (b *RasterBand) SetColorInterp(ci ColorInterpretation) error {
	src, err := b.writable("SetColorInterp")
	if err != nil {
		return err
	}
	if ci < ColorUndefined || ci > ColorBlack {
		return invalidArgf("SetColorInterp", b.index, "invalid color interpretation %d", int(ci))
	}
	if err := src.SetColorInterp(ci); err != nil {
		return driverErr("SetColorInterp", b.index, b.dataset.driver.ShortName(), err)
	}
	return nil
}

// NoData 获取 NoData 值
func (b *RasterBand) NoData() (float64, bool) {
	src, err := b.source("NoData")
	if err != nil {
		return 0, false
	}
	return src.NoData()
}

// SetNoData 设置 NoData 值
func (b *RasterBand) SetNoData(value float64) error {
	src, err := b.writable("SetNoData")
	if err != nil {
		return err
	}
	if err := src.SetNoData(value); err != nil {
		return driverErr("SetNoData", b.index, b.dataset.driver.ShortName(), err)
	}
	return nil
}

// Description 波段描述
func (b *RasterBand) Description() string {
	src, err := b.source("Description")
	if err != nil {
		return ""
	}
	return src.Description()
}

// Info 获取波段信息
func (b *RasterBand) Info() (*BandInfo, error) {
	src, err := b.source("Info")
	if err != nil {
		return nil, err
	}
	nodata, hasNoData := src.NoData()
	return &BandInfo{
		BandIndex:   b.index,
		DataType:    src.DataType(),
		ColorInterp: src.ColorInterp(),
		NoDataValue: nodata,
		HasNoData:   hasNoData,
		Description: src.Description(),
	}, nil
}
