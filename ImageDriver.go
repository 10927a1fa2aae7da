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
// ImageDriver.go
package Goraster

import (
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
)

var errImageReadOnly = errors.New("IMAGE datasets are read-only")

// imageDriver 只读影像驱动，按颜色模型拆分为灰度/调色板单波段或 RGBA 四波段
type imageDriver struct{}

func (d *imageDriver) ShortName() string { return "IMAGE" }

func (d *imageDriver) LongName() string { return "Decoded PNG/JPEG/GIF image" }

func (d *imageDriver) HasCapability(capability string) bool {
	return capability == CapabilityOpen
}

func (d *imageDriver) Create(name string, width, height, nBands int, dataType BandDataType, options CreationOptions) (DriverDataset, error) {
	return nil, errImageReadOnly
}

func (d *imageDriver) Open(name string, access Access) (DriverDataset, error) {
	if access != ReadOnly {
		return nil, errImageReadOnly
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", name)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s", name)
	}
	return newImageDataset(img), nil
}

type imageDataset struct {
	img   image.Image
	bands []*imageBand
}

func newImageDataset(img image.Image) *imageDataset {
	ds := &imageDataset{img: img}
	switch img.(type) {
	case *image.Gray:
		ds.bands = []*imageBand{{ds: ds, dataType: BandByte, colorInterp: ColorGray}}
	case *image.Gray16:
		ds.bands = []*imageBand{{ds: ds, dataType: BandUInt16, colorInterp: ColorGray}}
	case *image.Paletted:
		ds.bands = []*imageBand{{ds: ds, dataType: BandByte, colorInterp: ColorPalette}}
	default:
		dt := BandByte
		switch img.ColorModel() {
		case color.RGBA64Model, color.NRGBA64Model:
			dt = BandUInt16
		}
		for i, ci := range []ColorInterpretation{ColorRed, ColorGreen, ColorBlue, ColorAlpha} {
			ds.bands = append(ds.bands, &imageBand{ds: ds, dataType: dt, colorInterp: ci, channel: i})
		}
	}
	return ds
}

func (ds *imageDataset) RasterSize() (int, int) {
	b := ds.img.Bounds()
	return b.Dx(), b.Dy()
}

func (ds *imageDataset) GetBandCount() int { return len(ds.bands) }

func (ds *imageDataset) GetBand(index int) (DriverBand, error) {
	if index < 1 || index > len(ds.bands) {
		return nil, errors.Errorf("band %d does not exist", index)
	}
	return ds.bands[index-1], nil
}

func (ds *imageDataset) AddBand(dataType BandDataType, options CreationOptions) (DriverBand, error) {
	return nil, errImageReadOnly
}

func (ds *imageDataset) GeoTransform() ([6]float64, bool) { return [6]float64{}, false }

func (ds *imageDataset) SetGeoTransform(gt [6]float64) error { return errImageReadOnly }

func (ds *imageDataset) Projection() string { return "" }

func (ds *imageDataset) SetProjection(wkt string) error { return errImageReadOnly }

func (ds *imageDataset) Flush() error { return nil }

func (ds *imageDataset) Close() error {
	ds.img = nil
	return nil
}

type imageBand struct {
	ds          *imageDataset
	dataType    BandDataType
	colorInterp ColorInterpretation
	channel     int
}

func (b *imageBand) DataType() BandDataType { return b.dataType }

// BlockSize 按扫描行组织
func (b *imageBand) BlockSize() (int, int) {
	w, _ := b.ds.RasterSize()
	return w, 1
}

func (b *imageBand) ColorInterp() ColorInterpretation { return b.colorInterp }

func (b *imageBand) SetColorInterp(ci ColorInterpretation) error { return errImageReadOnly }

func (b *imageBand) NoData() (float64, bool) { return 0, false }

func (b *imageBand) SetNoData(value float64) error { return errImageReadOnly }

func (b *imageBand) Description() string { return "" }

func (b *imageBand) RasterIO(op IOOperation, x, y, width, height int, buffer []float64) error {
	if op == IOWrite {
		return errImageReadOnly
	}
	w, h := b.ds.RasterSize()
	if x < 0 || y < 0 || width <= 0 || height <= 0 || width > w-x || height > h-y {
		return errors.Errorf("window (%d,%d,%d,%d) out of bounds", x, y, width, height)
	}
	if len(buffer) < width*height {
		return errors.Errorf("buffer too small: %d < %d", len(buffer), width*height)
	}
	origin := b.ds.img.Bounds().Min
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			buffer[row*width+col] = b.pixel(origin.X+x+col, origin.Y+y+row)
		}
	}
	return nil
}

func (b *imageBand) pixel(px, py int) float64 {
	switch img := b.ds.img.(type) {
	case *image.Gray:
		return float64(img.GrayAt(px, py).Y)
	case *image.Gray16:
		return float64(img.Gray16At(px, py).Y)
	case *image.Paletted:
		return float64(img.ColorIndexAt(px, py))
	}
	if b.dataType == BandUInt16 {
		c := color.NRGBA64Model.Convert(b.ds.img.At(px, py)).(color.NRGBA64)
		return float64([4]uint16{c.R, c.G, c.B, c.A}[b.channel])
	}
	c := color.NRGBAModel.Convert(b.ds.img.At(px, py)).(color.NRGBA)
	return float64([4]uint8{c.R, c.G, c.B, c.A}[b.channel])
}
