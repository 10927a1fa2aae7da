package hostbind

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/GrainArc/Goraster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBands(t *testing.T, nBands int) *Bands {
	t.Helper()
	rd, err := Goraster.Create("MEM", "", 4, 4, nBands, Goraster.BandByte)
	require.NoError(t, err)
	t.Cleanup(func() { rd.Close() })
	b, err := New(rd)
	require.NoError(t, err)
	return b
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))

	b := newBands(t, 1)
	assert.NotNil(t, b.Dataset())
	assert.Equal(t, "DatasetBands", b.String())

	w, err := Wrap(b.Dataset().Bands())
	require.NoError(t, err)
	assert.Same(t, b.Dataset(), w.Dataset())

	w, err = Wrap(nil)
	assert.Nil(t, w)
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))
}

func TestCall_CountAndToString(t *testing.T) {
	b := newBands(t, 3)

	v, err := b.Call("count")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = b.Call("toString")
	require.NoError(t, err)
	assert.Equal(t, "DatasetBands", v)

	_, err = b.Call("remove", 1)
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))
}

func TestCall_GetIndexCoercion(t *testing.T) {
	b := newBands(t, 2)

	tests := []struct {
		name  string
		arg   interface{}
		index int
		kind  Goraster.ErrorKind
	}{
		{name: "int", arg: 1, index: 1},
		{name: "int64", arg: int64(2), index: 2},
		{name: "integral float", arg: 2.0, index: 2},
		{name: "json number", arg: json.Number("1"), index: 1},
		{name: "zero", arg: 0, kind: Goraster.KindIndexOutOfRange},
		{name: "negative", arg: -3, kind: Goraster.KindIndexOutOfRange},
		{name: "past end", arg: 3, kind: Goraster.KindIndexOutOfRange},
		{name: "fractional", arg: 1.5, kind: Goraster.KindInvalidArgument},
		{name: "fractional json", arg: json.Number("1.25"), kind: Goraster.KindInvalidArgument},
		{name: "huge", arg: 1e20, kind: Goraster.KindInvalidArgument},
		{name: "string", arg: "1", kind: Goraster.KindInvalidArgument},
		{name: "nil", arg: nil, kind: Goraster.KindInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := b.Call("get", tt.arg)
			if tt.kind != Goraster.KindUnknown {
				require.Error(t, err)
				assert.Nil(t, v)
				assert.Equal(t, tt.kind, Goraster.KindOf(err))
				return
			}
			require.NoError(t, err)
			band, ok := v.(*Goraster.RasterBand)
			require.True(t, ok)
			assert.Equal(t, tt.index, band.Index())
		})
	}

	_, err := b.Call("get")
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))
}

func TestCall_Create(t *testing.T) {
	b := newBands(t, 0)

	v, err := b.Call("create", "Float32", map[string]string{"BLOCKXSIZE": "2"})
	require.NoError(t, err)
	band := v.(*Goraster.RasterBand)
	assert.Equal(t, 1, band.Index())
	assert.Equal(t, Goraster.BandFloat32, band.DataType())
	bx, _ := band.BlockSize()
	assert.Equal(t, 2, bx)

	v, err = b.Call("create", Goraster.BandInt16, []string{"NODATA=0"})
	require.NoError(t, err)
	assert.Equal(t, 2, v.(*Goraster.RasterBand).Index())

	_, err = b.Call("create", "Complex128")
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))
	_, err = b.Call("create", 7)
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))
	_, err = b.Call("create", "Byte", 42)
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))
	_, err = b.Call("create")
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))

	count, err := b.Call("count")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCall_CreateUnsupported(t *testing.T) {
	rd, err := Goraster.OpenImage(image.NewGray(image.Rect(0, 0, 2, 2)))
	require.NoError(t, err)
	defer rd.Close()

	b, err := New(rd)
	require.NoError(t, err)
	for _, arg := range []interface{}{"Byte", "Bogus", 7, Goraster.BandUnknown} {
		v, err := b.Call("create", arg)
		assert.Nil(t, v)
		assert.Equal(t, Goraster.KindUnsupportedOperation, Goraster.KindOf(err), "%v", arg)

		_, coreErr := rd.Bands().Create(toDataType(arg))
		assert.Equal(t, Goraster.KindOf(coreErr), Goraster.KindOf(err), "%v", arg)
	}
	assert.Equal(t, 1, rd.Bands().Count())
}

func TestCall_ErrorsReturnNilValue(t *testing.T) {
	b := newBands(t, 1)

	tests := []struct {
		name   string
		method string
		args   []interface{}
		kind   Goraster.ErrorKind
	}{
		{"unknown method", "remove", []interface{}{1}, Goraster.KindInvalidArgument},
		{"get without index", "get", nil, Goraster.KindInvalidArgument},
		{"get past end", "get", []interface{}{9}, Goraster.KindIndexOutOfRange},
		{"get zero", "get", []interface{}{0}, Goraster.KindIndexOutOfRange},
		{"get fractional", "get", []interface{}{1.5}, Goraster.KindInvalidArgument},
		{"create without type", "create", nil, Goraster.KindInvalidArgument},
		{"create unknown type", "create", []interface{}{"Bogus"}, Goraster.KindInvalidArgument},
		{"create bad options", "create", []interface{}{"Byte", 42}, Goraster.KindInvalidArgument},
		{"create malformed option", "create", []interface{}{"Byte", []string{"NOEQUALS"}}, Goraster.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := b.Call(tt.method, tt.args...)
			require.Error(t, err)
			assert.True(t, v == nil, "got %#v", v)
			assert.Equal(t, tt.kind, Goraster.KindOf(err))
		})
	}

	v, err := b.CallJSON("get", []byte(`[9]`))
	require.Error(t, err)
	assert.True(t, v == nil, "got %#v", v)
	assert.Equal(t, 1, b.bands.Count())
}

func TestCallJSON(t *testing.T) {
	b := newBands(t, 1)

	v, err := b.CallJSON("count", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = b.CallJSON("create", []byte(`["UInt16", {"NODATA": 7, "DESCRIPTION": "mask"}]`))
	require.NoError(t, err)
	band := v.(*Goraster.RasterBand)
	assert.Equal(t, 2, band.Index())
	nodata, ok := band.NoData()
	assert.True(t, ok)
	assert.Equal(t, 7.0, nodata)
	assert.Equal(t, "mask", band.Description())

	v, err = b.CallJSON("create", []byte(`["CFloat64", ["BLOCKYSIZE=1"]]`))
	require.NoError(t, err)
	assert.Equal(t, Goraster.BandCFloat64, v.(*Goraster.RasterBand).DataType())

	v, err = b.CallJSON("get", []byte(`[2]`))
	require.NoError(t, err)
	assert.Equal(t, 2, v.(*Goraster.RasterBand).Index())

	_, err = b.CallJSON("get", []byte(`[2.5]`))
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))
	_, err = b.CallJSON("get", []byte(`[9]`))
	assert.Equal(t, Goraster.KindIndexOutOfRange, Goraster.KindOf(err))
	_, err = b.CallJSON("get", []byte(`{"index": 1}`))
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))
	_, err = b.CallJSON("get", []byte(`[1`))
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))
	_, err = b.CallJSON("create", []byte(`["Byte", [1, 2]]`))
	assert.Equal(t, Goraster.KindInvalidArgument, Goraster.KindOf(err))
}
