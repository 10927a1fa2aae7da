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
// Package hostbind 将波段集合暴露给动态类型的脚本宿主：
// 方法名分派、参数类型转换、JSON 参数解析
package hostbind

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/GrainArc/Goraster"
	"github.com/antonholmquist/jason"
	"github.com/pkg/errors"
)

// Bands 宿主侧的 DatasetBands 对象
type Bands struct {
	bands *Goraster.BandCollection
}

// New 绑定到数据集，数据集为空或已关闭时返回 InvalidArgument
func New(ds *Goraster.RasterDataset) (*Bands, error) {
	c, err := Goraster.NewBandCollection(ds)
	if err != nil {
		return nil, err
	}
	return &Bands{bands: c}, nil
}

// Wrap 包装已有的波段集合，集合为空时返回 InvalidArgument
func Wrap(c *Goraster.BandCollection) (*Bands, error) {
	if c == nil {
		return nil, Goraster.NewBandError(Goraster.KindInvalidArgument, "DatasetBands", 0, errors.New("band collection is nil"))
	}
	return &Bands{bands: c}, nil
}

// Dataset 只读的 ds 属性
func (b *Bands) Dataset() *Goraster.RasterDataset {
	return b.bands.Dataset()
}

func (b *Bands) String() string {
	return b.bands.String()
}

// Call 按方法名分派：get / count / create / toString
func (b *Bands) Call(method string, args ...interface{}) (interface{}, error) {
	switch method {
	case "count":
		return b.bands.Count(), nil
	case "get":
		if len(args) < 1 {
			return nil, argError(method, "band index is required")
		}
		index, err := toIndex(args[0])
		if err != nil {
			return nil, argError(method, err.Error())
		}
		band, err := b.bands.Get(index)
		if err != nil {
			return nil, err
		}
		return band, nil
	case "create":
		if len(args) < 1 {
			return nil, argError(method, "data type is required")
		}
		var options []string
		if len(args) > 1 {
			var err error
			if options, err = toOptions(args[1]); err != nil {
				return nil, argError(method, err.Error())
			}
		}
		band, err := b.bands.Create(toDataType(args[0]), options...)
		if err != nil {
			return nil, err
		}
		return band, nil
	case "toString":
		return b.bands.String(), nil
	}
	return nil, argError(method, "unknown method")
}

// CallJSON 以 JSON 数组作为参数列表调用
func (b *Bands) CallJSON(method string, raw []byte) (interface{}, error) {
	var args []interface{}
	if len(strings.TrimSpace(string(raw))) > 0 {
		v, err := jason.NewValueFromBytes(raw)
		if err != nil {
			return nil, argError(method, "arguments are not valid JSON: "+err.Error())
		}
		list, err := v.Array()
		if err != nil {
			return nil, argError(method, "arguments must be a JSON array")
		}
		for _, item := range list {
			arg, err := toNative(item)
			if err != nil {
				return nil, argError(method, err.Error())
			}
			args = append(args, arg)
		}
	}
	return b.Call(method, args...)
}

func argError(method, msg string) error {
	return Goraster.NewBandError(Goraster.KindInvalidArgument, "DatasetBands."+method, 0, errors.New(msg))
}

// toNative 将 jason 值转换为 Go 原生值，数字保留为 json.Number
func toNative(v *jason.Value) (interface{}, error) {
	if err := v.Null(); err == nil {
		return nil, nil
	}
	if n, err := v.Number(); err == nil {
		return n, nil
	}
	if s, err := v.String(); err == nil {
		return s, nil
	}
	if bv, err := v.Boolean(); err == nil {
		return bv, nil
	}
	if arr, err := v.Array(); err == nil {
		out := make([]interface{}, len(arr))
		for i, item := range arr {
			item, err := toNative(item)
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	}
	if obj, err := v.Object(); err == nil {
		out := map[string]interface{}{}
		for k, item := range obj.Map() {
			item, err := toNative(item)
			if err != nil {
				return nil, err
			}
			out[k] = item
		}
		return out, nil
	}
	return nil, errors.New("unsupported JSON value")
}

// toIndex 只接受可表示为整数的值
func toIndex(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("band index %d out of integer range", n)
		}
		return int(n), nil
	case float64:
		return floatIndex(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return toIndex(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("band index %q is not a number", n.String())
		}
		return floatIndex(f)
	}
	return 0, fmt.Errorf("band index must be an integer, got %T", v)
}

func floatIndex(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("band index %v is not an integer", f)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("band index %v out of integer range", f)
	}
	return int(f), nil
}

// toDataType 无法识别的值映射为 BandUnknown，由 Create 按检查顺序拒绝
func toDataType(v interface{}) Goraster.BandDataType {
	switch t := v.(type) {
	case Goraster.BandDataType:
		return t
	case string:
		if dt, err := Goraster.ParseBandDataType(t); err == nil {
			return dt
		}
	}
	return Goraster.BandUnknown
}

// toOptions 支持 []string、字符串数组、键值对对象
func toOptions(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return t, nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("option list must contain strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	case map[string]string:
		out := make([]string, 0, len(t))
		for k, val := range t {
			out = append(out, k+"="+val)
		}
		sort.Strings(out)
		return out, nil
	case map[string]interface{}:
		out := make([]string, 0, len(t))
		for k, val := range t {
			out = append(out, fmt.Sprintf("%s=%v", k, val))
		}
		sort.Strings(out)
		return out, nil
	}
	return nil, fmt.Errorf("options must be a list or an object, got %T", v)
}
