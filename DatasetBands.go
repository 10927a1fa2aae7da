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
// DatasetBands.go
package Goraster

import (
	"github.com/pkg/errors"
)

// BandCollection 数据集波段集合视图。
// 只保存对数据集的引用，不拥有波段，也不会关闭数据集；生命周期不超过数据集
type BandCollection struct {
	dataset *RasterDataset
}

// NewBandCollection 绑定到指定数据集
func NewBandCollection(ds *RasterDataset) (*BandCollection, error) {
	if ds == nil {
		return nil, invalidArgf("NewBandCollection", 0, "dataset is nil")
	}
	if !ds.IsValid() {
		return nil, NewBandError(KindInvalidArgument, "NewBandCollection", 0, errDatasetClosed)
	}
	return &BandCollection{dataset: ds}, nil
}

// Dataset 绑定的数据集
func (c *BandCollection) Dataset() *RasterDataset {
	return c.dataset
}

// Count 当前波段数量
func (c *BandCollection) Count() int {
	return c.dataset.GetBandCount()
}

// Get 获取第 index 个波段（从1开始），每次返回新的句柄
func (c *BandCollection) Get(index int) (*RasterBand, error) {
	const op = "DatasetBands.get"
	if !c.dataset.IsValid() {
		return nil, NewBandError(KindInvalidArgument, op, index, errDatasetClosed)
	}
	count := c.Count()
	if index < 1 || index > count {
		return nil, outOfRange(op, index, count)
	}
	return &RasterBand{dataset: c.dataset, index: index}, nil
}

// Create 追加一个新波段，options 为 KEY=VALUE 形式的创建选项
func (c *BandCollection) Create(dataType BandDataType, options ...string) (*RasterBand, error) {
	const op = "DatasetBands.create"
	rd := c.dataset
	if !rd.IsValid() {
		return nil, NewBandError(KindInvalidArgument, op, 0, errDatasetClosed)
	}
	driverName := rd.driver.ShortName()
	if !rd.driver.HasCapability(CapabilityCreateBand) {
		return nil, unsupportedf(op, "driver %s does not support adding bands", driverName)
	}
	if rd.access == ReadOnly {
		return nil, unsupportedf(op, "dataset %s opened read-only", rd.name)
	}
	if !dataType.Valid() {
		return nil, invalidArgf(op, 0, "unrecognized data type %s", dataType)
	}
	opts, err := ParseCreationOptions(options)
	if err != nil {
		return nil, err
	}

	before := c.Count()
	if _, err := rd.ds.AddBand(dataType, opts); err != nil {
		return nil, driverErr(op, before+1, driverName, err)
	}
	if after := c.Count(); after != before+1 {
		return nil, driverErr(op, before+1, driverName,
			errors.Errorf("band count went from %d to %d", before, after))
	}
	logf("数据集 %s 新增波段 %d (%s)", rd.name, before+1, dataType)
	return &RasterBand{dataset: rd, index: before + 1}, nil
}

// ForEach 按序遍历波段，fn 返回 false 时停止
func (c *BandCollection) ForEach(fn func(band *RasterBand) bool) error {
	n := c.Count()
	for i := 1; i <= n; i++ {
		band, err := c.Get(i)
		if err != nil {
			return err
		}
		if !fn(band) {
			return nil
		}
	}
	return nil
}

// All 返回全部波段句柄
func (c *BandCollection) All() ([]*RasterBand, error) {
	bands := make([]*RasterBand, 0, c.Count())
	err := c.ForEach(func(band *RasterBand) bool {
		bands = append(bands, band)
		return true
	})
	if err != nil {
		return nil, err
	}
	return bands, nil
}

func (c *BandCollection) String() string {
	return "DatasetBands"
}
