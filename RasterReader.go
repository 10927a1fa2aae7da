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
// RasterReader.go
package Goraster

import (
	"image"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// RasterDataset 栅格数据集。调用方负责 Close，波段集合与波段句柄不持有数据集
type RasterDataset struct {
	ds     DriverDataset
	driver Driver
	id     string
	name   string
	access Access
	bands  *BandCollection
	closed bool
}

// DatasetInfo 数据集信息
type DatasetInfo struct {
	Width        int
	Height       int
	BandCount    int
	GeoTransform [6]float64
	Projection   string
	HasGeoInfo   bool
	Driver       string
}

func newRasterDataset(driver Driver, ds DriverDataset, name string, access Access) *RasterDataset {
	rd := &RasterDataset{
		ds:     ds,
		driver: driver,
		id:     uuid.New().String(),
		name:   name,
		access: access,
	}
	rd.bands = &BandCollection{dataset: rd}
	return rd
}

// Create 使用指定驱动创建数据集，driverName 为空时使用配置中的默认驱动
func Create(driverName, name string, width, height, nBands int, dataType BandDataType, options ...string) (*RasterDataset, error) {
	const op = "Create"
	if driverName == "" {
		driverName = currentConfig().DefaultDriver
	}
	driver, err := GetDriverByName(driverName)
	if err != nil {
		return nil, err
	}
	if !driver.HasCapability(CapabilityCreate) {
		return nil, unsupportedf(op, "driver %s does not support dataset creation", driver.ShortName())
	}
	if width <= 0 || height <= 0 {
		return nil, invalidArgf(op, 0, "invalid raster size %dx%d", width, height)
	}
	if nBands < 0 {
		return nil, invalidArgf(op, 0, "invalid band count %d", nBands)
	}
	if !dataType.Valid() {
		return nil, invalidArgf(op, 0, "unrecognized data type %s", dataType)
	}
	opts, err := ParseCreationOptions(options)
	if err != nil {
		return nil, err
	}

	ds, err := driver.Create(name, width, height, nBands, dataType, opts)
	if err != nil {
		return nil, driverErr(op, 0, driver.ShortName(), err)
	}
	logf("创建数据集 %s (%s) %dx%d, %d 个波段", name, driver.ShortName(), width, height, nBands)
	return newRasterDataset(driver, ds, name, Update), nil
}

// Open 打开数据集，依次尝试 drivers 中的驱动；未指定时尝试所有支持打开的驱动
func Open(name string, access Access, driverNames ...string) (*RasterDataset, error) {
	const op = "Open"
	explicit := len(driverNames) > 0
	if !explicit {
		driverNames = Drivers()
	}

	var lastErr error
	for _, dn := range driverNames {
		driver, err := GetDriverByName(dn)
		if err != nil {
			return nil, err
		}
		if !driver.HasCapability(CapabilityOpen) {
			if explicit && len(driverNames) == 1 {
				return nil, unsupportedf(op, "driver %s cannot open datasets", driver.ShortName())
			}
			continue
		}
		if access == Update && !driver.HasCapability(CapabilityUpdate) {
			if explicit && len(driverNames) == 1 {
				return nil, unsupportedf(op, "driver %s is read-only", driver.ShortName())
			}
			continue
		}
		ds, err := driver.Open(name, access)
		if err != nil {
			lastErr = errors.Wrap(err, driver.ShortName())
			continue
		}
		logf("打开数据集 %s (%s, %s)", name, driver.ShortName(), access)
		return newRasterDataset(driver, ds, name, access), nil
	}
	if lastErr == nil {
		lastErr = errors.Errorf("no driver among [%s] can open it", strings.Join(driverNames, ", "))
	}
	return nil, NewBandError(KindDriverError, op, 0, errors.Wrapf(lastErr, "error opening dataset %s", name))
}

// OpenImage 以只读方式包装已解码的影像，每个颜色通道为一个波段
func OpenImage(img image.Image) (*RasterDataset, error) {
	if img == nil {
		return nil, invalidArgf("OpenImage", 0, "image is nil")
	}
	driver, err := GetDriverByName("IMAGE")
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, invalidArgf("OpenImage", 0, "empty image")
	}
	return newRasterDataset(driver, newImageDataset(img), "", ReadOnly), nil
}

// Close 提交并关闭数据集，提交失败时数据集仍然有效，可重复调用
func (rd *RasterDataset) Close() error {
	if rd == nil || rd.closed {
		return nil
	}
	if rd.access == Update {
		if err := rd.ds.Flush(); err != nil {
			return driverErr("Close", 0, rd.driver.ShortName(), err)
		}
	}
	rd.closed = true
	if err := rd.ds.Close(); err != nil {
		return driverErr("Close", 0, rd.driver.ShortName(), err)
	}
	logf("关闭数据集 %s", rd.name)
	return nil
}

// IsValid 数据集是否仍可用
func (rd *RasterDataset) IsValid() bool {
	return rd != nil && !rd.closed && rd.ds != nil
}

// Flush 将未提交的修改写入存储
func (rd *RasterDataset) Flush() error {
	if !rd.IsValid() {
		return NewBandError(KindInvalidArgument, "Flush", 0, errDatasetClosed)
	}
	if err := rd.ds.Flush(); err != nil {
		return driverErr("Flush", 0, rd.driver.ShortName(), err)
	}
	return nil
}

// RequiresFlush 新建波段是否需要 Flush/Close 才能持久化
func (rd *RasterDataset) RequiresFlush() bool {
	return rd.driver.HasCapability(CapabilityDeferredCommit)
}

// Bands 数据集的波段集合
func (rd *RasterDataset) Bands() *BandCollection {
	return rd.bands
}

// GetBandCount 获取波段数量，已关闭时为0
func (rd *RasterDataset) GetBandCount() int {
	if !rd.IsValid() {
		return 0
	}
	return rd.ds.GetBandCount()
}

func (rd *RasterDataset) Driver() Driver { return rd.driver }

func (rd *RasterDataset) Access() Access { return rd.access }

func (rd *RasterDataset) ID() string { return rd.id }

func (rd *RasterDataset) Name() string { return rd.name }

// RasterSize 像元尺寸
func (rd *RasterDataset) RasterSize() (width, height int) {
	if !rd.IsValid() {
		return 0, 0
	}
	return rd.ds.RasterSize()
}

// GeoTransform 地理变换，无地理信息时返回像素坐标系
func (rd *RasterDataset) GeoTransform() ([6]float64, bool) {
	if !rd.IsValid() {
		return pixelGeoTransform, false
	}
	gt, ok := rd.ds.GeoTransform()
	if !ok {
		return pixelGeoTransform, false
	}
	return gt, true
}

var pixelGeoTransform = [6]float64{0, 1, 0, 0, 0, 1}

// SetGeoTransform 设置地理变换
func (rd *RasterDataset) SetGeoTransform(gt [6]float64) error {
	if err := rd.checkWritable("SetGeoTransform"); err != nil {
		return err
	}
	if gt[1] == 0 || gt[5] == 0 {
		return invalidArgf("SetGeoTransform", 0, "pixel size must be non-zero")
	}
	if err := rd.ds.SetGeoTransform(gt); err != nil {
		return driverErr("SetGeoTransform", 0, rd.driver.ShortName(), err)
	}
	return nil
}

// Projection 投影 WKT
func (rd *RasterDataset) Projection() string {
	if !rd.IsValid() {
		return ""
	}
	return rd.ds.Projection()
}

// SetProjection 设置投影 WKT
func (rd *RasterDataset) SetProjection(wkt string) error {
	if err := rd.checkWritable("SetProjection"); err != nil {
		return err
	}
	if err := rd.ds.SetProjection(wkt); err != nil {
		return driverErr("SetProjection", 0, rd.driver.ShortName(), err)
	}
	return nil
}

func (rd *RasterDataset) checkWritable(op string) error {
	if !rd.IsValid() {
		return NewBandError(KindInvalidArgument, op, 0, errDatasetClosed)
	}
	if rd.access == ReadOnly {
		return unsupportedf(op, "dataset %s opened read-only", rd.name)
	}
	return nil
}

// Bounds 四个角点经地理变换后的外包矩形
func (rd *RasterDataset) Bounds() orb.Bound {
	gt, _ := rd.GeoTransform()
	w, h := rd.RasterSize()
	corners := orb.MultiPoint{
		applyGeoTransform(gt, 0, 0),
		applyGeoTransform(gt, float64(w), 0),
		applyGeoTransform(gt, 0, float64(h)),
		applyGeoTransform(gt, float64(w), float64(h)),
	}
	return corners.Bound()
}

func applyGeoTransform(gt [6]float64, px, py float64) orb.Point {
	return orb.Point{
		gt[0] + px*gt[1] + py*gt[2],
		gt[3] + px*gt[4] + py*gt[5],
	}
}

// Footprint 数据集范围的 GeoJSON 要素
func (rd *RasterDataset) Footprint() *geojson.Feature {
	f := geojson.NewFeature(rd.Bounds().ToPolygon())
	f.Properties["id"] = rd.id
	f.Properties["name"] = rd.name
	f.Properties["driver"] = rd.driver.ShortName()
	f.Properties["bands"] = rd.GetBandCount()
	return f
}

// GetInfo 获取数据集信息
func (rd *RasterDataset) GetInfo() DatasetInfo {
	w, h := rd.RasterSize()
	gt, hasGeo := rd.GeoTransform()
	return DatasetInfo{
		Width:        w,
		Height:       h,
		BandCount:    rd.GetBandCount(),
		GeoTransform: gt,
		Projection:   rd.Projection(),
		HasGeoInfo:   hasGeo,
		Driver:       rd.driver.ShortName(),
	}
}
