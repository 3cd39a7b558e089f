// Package grid holds multidimensional labeled arrays decoded from NetCDF
// payloads and merges them along their coordinates.
package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrMergeConflict = errors.New("grid: merge conflict")

type Dimension struct {
	Name string
	Len  int
}

type Attribute struct {
	Name  string
	Value any
}

// Variable is a numeric array stored flat in row-major order. Type is the Go
// base type the values were read as and are written back as.
type Variable struct {
	Name       string
	Dimensions []string
	Type       string
	Values     []float64
	Attributes []Attribute
}

type Grid struct {
	Dimensions []Dimension
	Variables  []*Variable
	Attributes []Attribute
}

func (g *Grid) Dimension(name string) (Dimension, bool) {
	for _, dim := range g.Dimensions {
		if dim.Name == name {
			return dim, true
		}
	}
	return Dimension{}, false
}

func (g *Grid) Variable(name string) *Variable {
	for _, v := range g.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Coordinate returns the coordinate variable of a dimension: a
// one-dimensional variable named after it.
func (g *Grid) Coordinate(dim string) *Variable {
	v := g.Variable(dim)
	if v == nil || len(v.Dimensions) != 1 || v.Dimensions[0] != dim {
		return nil
	}
	return v
}

// Shape returns the lengths of the variable's dimensions within g.
func (g *Grid) Shape(v *Variable) ([]int, error) {
	shape := make([]int, len(v.Dimensions))
	for i, name := range v.Dimensions {
		dim, ok := g.Dimension(name)
		if !ok {
			return nil, fmt.Errorf("grid: variable %s uses unknown dimension %s", v.Name, name)
		}
		shape[i] = dim.Len
	}
	return shape, nil
}

func (g *Grid) Attribute(name string) (any, bool) {
	return findAttribute(g.Attributes, name)
}

func (v *Variable) Attribute(name string) (any, bool) {
	return findAttribute(v.Attributes, name)
}

func findAttribute(attrs []Attribute, name string) (any, bool) {
	for _, attr := range attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return nil, false
}

// Merge combines two grids into a new one. Dimensions with coordinate
// variables in both grids are joined on the sorted union of their coordinate
// values; other shared dimensions must have equal lengths. Data variables are
// laid out on the joined grid with NaN where neither grid has a value.
// Overlapping values must agree. Attributes of a take precedence.
func Merge(a, b *Grid) (*Grid, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}

	out := &Grid{Attributes: mergeAttributes(a.Attributes, b.Attributes)}
	mapsA := make(map[string][]int)
	mapsB := make(map[string][]int)
	joined := make(map[string][]float64)

	for _, name := range dimensionNames(a, b) {
		dimA, inA := a.Dimension(name)
		dimB, inB := b.Dimension(name)
		switch {
		case inA && !inB:
			out.Dimensions = append(out.Dimensions, dimA)
		case inB && !inA:
			out.Dimensions = append(out.Dimensions, dimB)
		default:
			coordA, coordB := a.Coordinate(name), b.Coordinate(name)
			if coordA == nil || coordB == nil {
				if dimA.Len != dimB.Len {
					return nil, fmt.Errorf("%w: dimension %s has length %d and %d", ErrMergeConflict, name, dimA.Len, dimB.Len)
				}
				out.Dimensions = append(out.Dimensions, dimA)
				continue
			}
			valuesB, err := alignTimeUnits(coordA, coordB)
			if err != nil {
				return nil, err
			}
			union := sortedUnion(coordA.Values, valuesB)
			mapsA[name] = positions(coordA.Values, union)
			mapsB[name] = positions(valuesB, union)
			joined[name] = union
			out.Dimensions = append(out.Dimensions, Dimension{Name: name, Len: len(union)})
		}
	}

	for _, name := range variableNames(a, b) {
		varA, varB := a.Variable(name), b.Variable(name)
		if union, ok := joined[name]; ok && a.Coordinate(name) != nil {
			out.Variables = append(out.Variables, &Variable{
				Name:       name,
				Dimensions: []string{name},
				Type:       a.Coordinate(name).Type,
				Values:     union,
				Attributes: mergeAttributes(varA.Attributes, varB.Attributes),
			})
			continue
		}

		merged, err := mergeVariable(out, a, b, varA, varB, mapsA, mapsB)
		if err != nil {
			return nil, err
		}
		out.Variables = append(out.Variables, merged)
	}
	return out, nil
}

func mergeVariable(out, a, b *Grid, varA, varB *Variable, mapsA, mapsB map[string][]int) (*Variable, error) {
	base := varA
	if base == nil {
		base = varB
	}
	if varA != nil && varB != nil && !sameDimensions(varA.Dimensions, varB.Dimensions) {
		return nil, fmt.Errorf("%w: variable %s has dimensions %v and %v", ErrMergeConflict, base.Name, varA.Dimensions, varB.Dimensions)
	}

	shape, err := out.Shape(base)
	if err != nil {
		return nil, err
	}
	merged := &Variable{
		Name:       base.Name,
		Dimensions: append([]string(nil), base.Dimensions...),
		Type:       base.Type,
		Values:     filled(product(shape), math.NaN()),
	}

	if varA != nil {
		if err := scatter(merged, shape, a, varA, mapsA); err != nil {
			return nil, err
		}
		merged.Attributes = append(merged.Attributes, varA.Attributes...)
	}
	if varB != nil {
		if err := scatter(merged, shape, b, varB, mapsB); err != nil {
			return nil, err
		}
		if varA == nil {
			merged.Attributes = append(merged.Attributes, varB.Attributes...)
		} else {
			merged.Attributes = mergeAttributes(merged.Attributes, varB.Attributes)
			if varA.Type != varB.Type {
				merged.Type = "float64"
			}
		}
	}
	if hasNaN(merged.Values) && !isFloat(merged.Type) {
		merged.Type = "float64"
	}
	return merged, nil
}

// scatter copies src values into dst, remapping each dimension through maps.
func scatter(dst *Variable, dstShape []int, srcGrid *Grid, src *Variable, maps map[string][]int) error {
	srcShape, err := srcGrid.Shape(src)
	if err != nil {
		return err
	}
	if len(src.Values) != product(srcShape) {
		return fmt.Errorf("grid: variable %s holds %d values for shape %v", src.Name, len(src.Values), srcShape)
	}
	dstStrides := strides(dstShape)
	index := make([]int, len(srcShape))
	for flat, value := range src.Values {
		rem := flat
		for d := len(srcShape) - 1; d >= 0; d-- {
			index[d] = rem % srcShape[d]
			rem /= srcShape[d]
		}
		target := 0
		for d, i := range index {
			if m := maps[src.Dimensions[d]]; m != nil {
				i = m[i]
			}
			target += i * dstStrides[d]
		}
		current := dst.Values[target]
		if math.IsNaN(value) {
			continue
		}
		if !math.IsNaN(current) && current != value {
			return fmt.Errorf("%w: variable %s disagrees at offset %d (%g != %g)", ErrMergeConflict, src.Name, target, current, value)
		}
		dst.Values[target] = value
	}
	return nil
}

func dimensionNames(a, b *Grid) []string {
	names := make([]string, 0, len(a.Dimensions)+len(b.Dimensions))
	seen := make(map[string]bool)
	for _, g := range []*Grid{a, b} {
		for _, dim := range g.Dimensions {
			if !seen[dim.Name] {
				seen[dim.Name] = true
				names = append(names, dim.Name)
			}
		}
	}
	return names
}

func variableNames(a, b *Grid) []string {
	names := make([]string, 0, len(a.Variables)+len(b.Variables))
	seen := make(map[string]bool)
	for _, g := range []*Grid{a, b} {
		for _, v := range g.Variables {
			if !seen[v.Name] {
				seen[v.Name] = true
				names = append(names, v.Name)
			}
		}
	}
	return names
}

func mergeAttributes(first, second []Attribute) []Attribute {
	out := append([]Attribute(nil), first...)
	for _, attr := range second {
		if _, ok := findAttribute(out, attr.Name); !ok {
			out = append(out, attr)
		}
	}
	return out
}

func sortedUnion(a, b []float64) []float64 {
	seen := make(map[float64]bool, len(a)+len(b))
	union := make([]float64, 0, len(a)+len(b))
	for _, values := range [][]float64{a, b} {
		for _, value := range values {
			if !seen[value] {
				seen[value] = true
				union = append(union, value)
			}
		}
	}
	sort.Float64s(union)
	return union
}

func positions(values, union []float64) []int {
	at := make(map[float64]int, len(union))
	for i, value := range union {
		at[value] = i
	}
	out := make([]int, len(values))
	for i, value := range values {
		out[i] = at[value]
	}
	return out
}

func sameDimensions(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func strides(shape []int) []int {
	out := make([]int, len(shape))
	step := 1
	for i := len(shape) - 1; i >= 0; i-- {
		out[i] = step
		step *= shape[i]
	}
	return out
}

func product(shape []int) int {
	n := 1
	for _, length := range shape {
		n *= length
	}
	return n
}

func filled(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, value := range values {
		if math.IsNaN(value) {
			return true
		}
	}
	return false
}

func isFloat(goType string) bool {
	return goType == "float32" || goType == "float64"
}
