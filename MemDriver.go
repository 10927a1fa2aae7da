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
// MemDriver.go
package Goraster

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// memDriver 内存栅格驱动，支持追加波段
type memDriver struct{}

func (d *memDriver) ShortName() string { return "MEM" }

func (d *memDriver) LongName() string { return "In Memory Raster" }

func (d *memDriver) HasCapability(capability string) bool {
	switch capability {
	case CapabilityCreate, CapabilityCreateBand:
		return true
	}
	return false
}

func (d *memDriver) Create(name string, width, height, nBands int, dataType BandDataType, options CreationOptions) (DriverDataset, error) {
	if name == "" {
		name = "mem_" + uuid.New().String()
	}
	ds := &memDataset{name: name, width: width, height: height}
	for i := 0; i < nBands; i++ {
		if _, err := ds.AddBand(dataType, options); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func (d *memDriver) Open(name string, access Access) (DriverDataset, error) {
	return nil, errors.New("MEM datasets cannot be opened by name")
}

type memDataset struct {
	mu            sync.RWMutex
	name          string
	width, height int
	bands         []*memBand
	geoTransform  [6]float64
	hasGeo        bool
	projection    string
}

func (ds *memDataset) RasterSize() (int, int) {
	return ds.width, ds.height
}

func (ds *memDataset) GetBandCount() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.bands)
}

func (ds *memDataset) GetBand(index int) (DriverBand, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if index < 1 || index > len(ds.bands) {
		return nil, errors.Errorf("band %d does not exist", index)
	}
	return ds.bands[index-1], nil
}

func (ds *memDataset) AddBand(dataType BandDataType, options CreationOptions) (DriverBand, error) {
	if !dataType.Valid() {
		return nil, errors.Errorf("unsupported data type %s", dataType)
	}
	s := settingsFromOptions(options, ds.width, ds.height)
	band := &memBand{
		ds:          ds,
		dataType:    dataType,
		blockX:      s.blockX,
		blockY:      s.blockY,
		colorInterp: s.colorInterp,
		noData:      s.noData,
		hasNoData:   s.hasNoData,
		description: s.description,
		data:        make([]float64, ds.width*ds.height),
	}
	ds.mu.Lock()
	ds.bands = append(ds.bands, band)
	ds.mu.Unlock()
	return band, nil
}

func (ds *memDataset) GeoTransform() ([6]float64, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.geoTransform, ds.hasGeo
}

func (ds *memDataset) SetGeoTransform(gt [6]float64) error {
	ds.mu.Lock()
	ds.geoTransform, ds.hasGeo = gt, true
	ds.mu.Unlock()
	return nil
}

func (ds *memDataset) Projection() string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.projection
}

func (ds *memDataset) SetProjection(wkt string) error {
	ds.mu.Lock()
	ds.projection = wkt
	ds.mu.Unlock()
	return nil
}

func (ds *memDataset) Flush() error { return nil }

func (ds *memDataset) Close() error {
	ds.mu.Lock()
	ds.bands = nil
	ds.mu.Unlock()
	return nil
}

type memBand struct {
	ds             *memDataset
	dataType       BandDataType
	blockX, blockY int
	colorInterp    ColorInterpretation
	noData         float64
	hasNoData      bool
	description    string
	data           []float64
}

func (b *memBand) DataType() BandDataType { return b.dataType }

func (b *memBand) BlockSize() (int, int) { return b.blockX, b.blockY }

func (b *memBand) ColorInterp() ColorInterpretation {
	b.ds.mu.RLock()
	defer b.ds.mu.RUnlock()
	return b.colorInterp
}

func (b *memBand) SetColorInterp(ci ColorInterpretation) error {
	b.ds.mu.Lock()
	b.colorInterp = ci
	b.ds.mu.Unlock()
	return nil
}

func (b *memBand) NoData() (float64, bool) {
	b.ds.mu.RLock()
	defer b.ds.mu.RUnlock()
	return b.noData, b.hasNoData
}

func (b *memBand) SetNoData(value float64) error {
	b.ds.mu.Lock()
	b.noData, b.hasNoData = value, true
	b.ds.mu.Unlock()
	return nil
}

func (b *memBand) Description() string { return b.description }

func (b *memBand) RasterIO(op IOOperation, x, y, width, height int, buffer []float64) error {
	if op == IOWrite {
		b.ds.mu.Lock()
		defer b.ds.mu.Unlock()
	} else {
		b.ds.mu.RLock()
		defer b.ds.mu.RUnlock()
	}
	return windowIO(b.data, b.ds.width, b.ds.height, b.dataType, op, x, y, width, height, buffer)
}
