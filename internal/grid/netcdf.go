package grid

import (
	"bytes"
	"fmt"
	"math"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

// Decode reads a NetCDF (classic or HDF5) payload held in memory.
func Decode(data []byte) (*Grid, error) {
	group, err := netcdf.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("grid: decode: %w", err)
	}
	defer group.Close()
	return read(group)
}

// Open reads the NetCDF file at path. Variables that are not numeric are
// skipped.
func Open(path string) (*Grid, error) {
	group, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grid: open %s: %w", path, err)
	}
	defer group.Close()
	return read(group)
}

func read(group api.Group) (*Grid, error) {
	g := &Grid{Attributes: readAttributes(group.Attributes())}
	for _, name := range group.ListDimensions() {
		length, ok := group.GetDimension(name)
		if !ok {
			continue
		}
		g.Dimensions = append(g.Dimensions, Dimension{Name: name, Len: int(length)})
	}

	for _, name := range group.ListVariables() {
		getter, err := group.GetVarGetter(name)
		if err != nil {
			return nil, fmt.Errorf("grid: variable %s: %w", name, err)
		}
		raw, err := getter.Values()
		if err != nil {
			return nil, fmt.Errorf("grid: variable %s: %w", name, err)
		}
		values, ok := flatten(raw)
		if !ok {
			continue
		}

		dims := getter.Dimensions()
		shape := getter.Shape()
		for i, dim := range dims {
			if _, known := g.Dimension(dim); !known && i < len(shape) {
				g.Dimensions = append(g.Dimensions, Dimension{Name: dim, Len: int(shape[i])})
			}
		}

		v := &Variable{
			Name:       name,
			Dimensions: dims,
			Type:       getter.GoType(),
			Values:     values,
			Attributes: readAttributes(getter.Attributes()),
		}
		want, err := g.Shape(v)
		if err != nil {
			return nil, err
		}
		if product(want) != len(values) {
			return nil, fmt.Errorf("grid: variable %s holds %d values for shape %v", name, len(values), want)
		}
		g.Variables = append(g.Variables, v)
	}
	return g, nil
}

// Write stores g as a NetCDF classic file, replacing any existing file.
func Write(path string, g *Grid) (err error) {
	writer, err := cdf.NewCDFWriter(path)
	if err != nil {
		return fmt.Errorf("grid: create %s: %w", path, err)
	}
	defer func() {
		closeErr := writer.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("grid: write %s: %w", path, closeErr)
		}
	}()

	globals, err := attributeMap(g.Attributes, false)
	if err != nil {
		return err
	}
	if err := writer.AddGlobalAttrs(globals); err != nil {
		return fmt.Errorf("grid: global attributes: %w", err)
	}

	for _, v := range g.Variables {
		shape, err := g.Shape(v)
		if err != nil {
			return err
		}
		goType := v.Type
		promoted := false
		if hasNaN(v.Values) && !isFloat(goType) {
			goType = "float64"
			promoted = true
		}
		attrs, err := attributeMap(v.Attributes, promoted)
		if err != nil {
			return err
		}
		err = writer.AddVar(v.Name, api.Variable{
			Values:     nest(v.Values, shape, elemType(goType)).Interface(),
			Dimensions: v.Dimensions,
			Attributes: attrs,
		})
		if err != nil {
			return fmt.Errorf("grid: variable %s: %w", v.Name, err)
		}
	}
	return nil
}

func readAttributes(attrs api.AttributeMap) []Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]Attribute, 0, len(attrs.Keys()))
	for _, key := range attrs.Keys() {
		value, ok := attrs.Get(key)
		if !ok {
			continue
		}
		out = append(out, Attribute{Name: key, Value: value})
	}
	return out
}

func attributeMap(attrs []Attribute, dropFill bool) (api.AttributeMap, error) {
	keys := make([]string, 0, len(attrs))
	values := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		if _, dup := values[attr.Name]; dup || !writableAttribute(attr.Value) {
			continue
		}
		if dropFill && (attr.Name == "_FillValue" || attr.Name == "missing_value") {
			continue
		}
		keys = append(keys, attr.Name)
		values[attr.Name] = attr.Value
	}
	om, err := util.NewOrderedMap(keys, values)
	if err != nil {
		return nil, fmt.Errorf("grid: attributes: %w", err)
	}
	return om, nil
}

func writableAttribute(value any) bool {
	switch value.(type) {
	case string,
		int8, []int8, int16, []int16, int32, []int32,
		float32, []float32, float64, []float64:
		return true
	default:
		return false
	}
}

// flatten converts nested numeric slices into row-major float64 values.
func flatten(raw any) ([]float64, bool) {
	out := make([]float64, 0)
	ok := appendValues(&out, reflect.ValueOf(raw))
	return out, ok
}

func appendValues(out *[]float64, value reflect.Value) bool {
	switch value.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			if !appendValues(out, value.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Float32, reflect.Float64:
		*out = append(*out, value.Float())
		return true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		*out = append(*out, float64(value.Int()))
		return true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		*out = append(*out, float64(value.Uint()))
		return true
	default:
		return false
	}
}

func elemType(goType string) reflect.Type {
	switch goType {
	case "float32":
		return reflect.TypeOf(float32(0))
	case "int32":
		return reflect.TypeOf(int32(0))
	case "int16":
		return reflect.TypeOf(int16(0))
	case "int8":
		return reflect.TypeOf(int8(0))
	default:
		return reflect.TypeOf(float64(0))
	}
}

// nest rebuilds nested slices of elem from flat row-major values.
func nest(values []float64, shape []int, elem reflect.Type) reflect.Value {
	if len(shape) == 0 {
		if len(values) == 0 {
			return reflect.Zero(elem)
		}
		return convert(values[0], elem)
	}
	sliceType := elem
	for range shape {
		sliceType = reflect.SliceOf(sliceType)
	}
	out := reflect.MakeSlice(sliceType, shape[0], shape[0])
	if len(shape) == 1 {
		for i := 0; i < shape[0]; i++ {
			out.Index(i).Set(convert(values[i], elem))
		}
		return out
	}
	step := product(shape[1:])
	for i := 0; i < shape[0]; i++ {
		out.Index(i).Set(nest(values[i*step:(i+1)*step], shape[1:], elem))
	}
	return out
}

func convert(value float64, elem reflect.Type) reflect.Value {
	if elem.Kind() != reflect.Float32 && elem.Kind() != reflect.Float64 {
		value = math.Round(value)
	}
	return reflect.ValueOf(value).Convert(elem)
}
