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
// RasterBandAdvanced.go
package Goraster

import (
	"math"
)

// ==================== 波段数据读写 ====================

// checkWindow 检查读写窗口是否在波段范围内
func (b *RasterBand) checkWindow(op string, x, y, width, height int) error {
	sx, sy := b.dataset.RasterSize()
	if width <= 0 || height <= 0 {
		return invalidArgf(op, b.index, "invalid window size %dx%d", width, height)
	}
	if x < 0 || y < 0 || width > sx-x || height > sy-y {
		return invalidArgf(op, b.index, "window (%d,%d,%d,%d) out of bounds %dx%d", x, y, width, height, sx, sy)
	}
	return nil
}

// Read 读取矩形区域数据
func (b *RasterBand) Read(x, y, width, height int) ([]float64, error) {
	src, err := b.source("Read")
	if err != nil {
		return nil, err
	}
	if err := b.checkWindow("Read", x, y, width, height); err != nil {
		return nil, err
	}
	buffer := make([]float64, width*height)
	if err := src.RasterIO(IORead, x, y, width, height, buffer); err != nil {
		return nil, driverErr("Read", b.index, b.dataset.driver.ShortName(), err)
	}
	return buffer, nil
}

// Write 写入矩形区域数据，数值按波段类型截断
func (b *RasterBand) Write(x, y, width, height int, data []float64) error {
	src, err := b.writable("Write")
	if err != nil {
		return err
	}
	if err := b.checkWindow("Write", x, y, width, height); err != nil {
		return err
	}
	if len(data) != width*height {
		return invalidArgf("Write", b.index, "data size mismatch: expected %d, got %d", width*height, len(data))
	}
	if err := src.RasterIO(IOWrite, x, y, width, height, data); err != nil {
		return driverErr("Write", b.index, b.dataset.driver.ShortName(), err)
	}
	return nil
}

// ReadAll 读取整个波段
func (b *RasterBand) ReadAll() ([]float64, error) {
	sx, sy := b.Size()
	if sx == 0 || sy == 0 {
		_, err := b.source("ReadAll")
		if err == nil {
			err = invalidArgf("ReadAll", b.index, "empty raster")
		}
		return nil, err
	}
	return b.Read(0, 0, sx, sy)
}

// WriteAll 写入整个波段
func (b *RasterBand) WriteAll(data []float64) error {
	sx, sy := b.Size()
	if sx == 0 || sy == 0 {
		_, err := b.writable("WriteAll")
		if err == nil {
			err = invalidArgf("WriteAll", b.index, "empty raster")
		}
		return err
	}
	return b.Write(0, 0, sx, sy, data)
}

// Fill 用常量填充整个波段
func (b *RasterBand) Fill(value float64) error {
	sx, sy := b.Size()
	data := make([]float64, sx*sy)
	for i := range data {
		data[i] = value
	}
	return b.WriteAll(data)
}

// ==================== 波段统计 ====================

// BandStatistics 波段统计信息
type BandStatistics struct {
	Min        float64
	Max        float64
	Mean       float64
	StdDev     float64
	ValidCount int
}

// ComputeStatistics 计算波段统计信息，跳过 NoData 与 NaN
func (b *RasterBand) ComputeStatistics() (*BandStatistics, error) {
	data, err := b.ReadAll()
	if err != nil {
		return nil, err
	}
	nodata, hasNoData := b.NoData()

	stats := &BandStatistics{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum, sumSq float64
	for _, v := range data {
		if math.IsNaN(v) || (hasNoData && v == nodata) {
			continue
		}
		stats.ValidCount++
		sum += v
		sumSq += v * v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	if stats.ValidCount == 0 {
		return nil, invalidArgf("ComputeStatistics", b.index, "no valid pixels")
	}
	n := float64(stats.ValidCount)
	stats.Mean = sum / n
	variance := sumSq/n - stats.Mean*stats.Mean
	if variance < 0 {
		variance = 0
	}
	stats.StdDev = math.Sqrt(variance)
	return stats, nil
}

// Histogram 获取波段直方图，区间 [min, max)，最大值计入最后一个桶
func (b *RasterBand) Histogram(buckets int, min, max float64) ([]uint64, error) {
	if buckets <= 0 {
		return nil, invalidArgf("Histogram", b.index, "buckets must be positive, got %d", buckets)
	}
	if !(max > min) {
		return nil, invalidArgf("Histogram", b.index, "invalid range [%v, %v]", min, max)
	}
	data, err := b.ReadAll()
	if err != nil {
		return nil, err
	}
	nodata, hasNoData := b.NoData()

	result := make([]uint64, buckets)
	width := (max - min) / float64(buckets)
	for _, v := range data {
		if math.IsNaN(v) || (hasNoData && v == nodata) || v < min || v > max {
			continue
		}
		idx := int((v - min) / width)
		if idx >= buckets {
			idx = buckets - 1
		}
		result[idx]++
	}
	return result, nil
}
