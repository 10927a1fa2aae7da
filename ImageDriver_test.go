package Goraster

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenImage_RGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 20, 12, 21))
	img.SetNRGBA(11, 20, color.NRGBA{R: 1, G: 2, B: 3, A: 4})

	rd, err := OpenImage(img)
	require.NoError(t, err)
	defer rd.Close()

	assert.Equal(t, ReadOnly, rd.Access())
	w, h := rd.RasterSize()
	assert.Equal(t, 2, w)
	assert.Equal(t, 1, h)

	bands, err := rd.Bands().All()
	require.NoError(t, err)
	require.Len(t, bands, 4)
	for i, ci := range []ColorInterpretation{ColorRed, ColorGreen, ColorBlue, ColorAlpha} {
		assert.Equal(t, ci, bands[i].ColorInterp())
		assert.Equal(t, BandByte, bands[i].DataType())
		v, err := bands[i].Read(1, 0, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, []float64{float64(i + 1)}, v)
	}

	bx, by := bands[0].BlockSize()
	assert.Equal(t, 2, bx)
	assert.Equal(t, 1, by)

	src := newImageDataset(img)
	buf := make([]float64, 1)
	assert.Error(t, src.bands[0].RasterIO(IORead, math.MaxInt, 0, 1, 1, buf))
	assert.Error(t, src.bands[0].RasterIO(IORead, 0, math.MaxInt, 1, 1, buf))
}

func TestOpenImage_SingleBandModels(t *testing.T) {
	gray16 := image.NewGray16(image.Rect(0, 0, 2, 2))
	gray16.SetGray16(1, 1, color.Gray16{Y: 60000})

	palette := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White})
	palette.SetColorIndex(0, 1, 1)

	tests := []struct {
		name  string
		img   image.Image
		dt    BandDataType
		ci    ColorInterpretation
		x, y  int
		value float64
	}{
		{"gray16", gray16, BandUInt16, ColorGray, 1, 1, 60000},
		{"paletted", palette, BandByte, ColorPalette, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd, err := OpenImage(tt.img)
			require.NoError(t, err)
			defer rd.Close()

			require.Equal(t, 1, rd.Bands().Count())
			band, err := rd.Bands().Get(1)
			require.NoError(t, err)
			assert.Equal(t, tt.dt, band.DataType())
			assert.Equal(t, tt.ci, band.ColorInterp())
			v, err := band.Read(tt.x, tt.y, 1, 1)
			require.NoError(t, err)
			assert.Equal(t, []float64{tt.value}, v)
		})
	}
}

func TestOpenImage_ReadOnly(t *testing.T) {
	rd, err := OpenImage(image.NewRGBA64(image.Rect(0, 0, 2, 2)))
	require.NoError(t, err)
	defer rd.Close()

	band, err := rd.Bands().Get(1)
	require.NoError(t, err)
	assert.Equal(t, BandUInt16, band.DataType())
	assert.Equal(t, KindUnsupportedOperation, KindOf(band.Write(0, 0, 1, 1, []float64{1})))
	assert.Equal(t, KindUnsupportedOperation, KindOf(band.SetNoData(0)))
	assert.Equal(t, KindUnsupportedOperation, KindOf(rd.SetGeoTransform([6]float64{0, 1, 0, 0, 0, -1})))
	assert.NoError(t, rd.Flush())

	_, err = OpenImage(nil)
	assert.Equal(t, KindInvalidArgument, KindOf(err))
	_, err = OpenImage(image.NewGray(image.Rect(0, 0, 0, 0)))
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}
