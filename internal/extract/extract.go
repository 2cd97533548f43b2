// Package extract implements typed column reads from a loaded element's
// data buffer: scalar tuples, list properties as flat arrays, and the
// header-time convert_list_to_fixed_size transform (spec §4.5).
package extract

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dyuri/goply/internal/model"
)

// Extractor reads typed columns out of one loaded element's fixed-row
// data buffer and its properties' list buffers.
type Extractor struct {
	el   *model.Element
	data []byte // count * el.RowStride bytes, the fixed-row data
}

// New wraps a loaded element and its fixed-row data buffer.
func New(el *model.Element, data []byte) *Extractor {
	return &Extractor{el: el, data: data}
}

// HasProperty reports whether el declares a property named name.
func (e *Extractor) HasProperty(name string) bool {
	return e.el.FindProperty(name) >= 0
}

// HasScalarTuple reports whether every named property exists and is a
// scalar (non-list) property.
func (e *Extractor) HasScalarTuple(names []string) bool {
	for _, n := range names {
		idx := e.el.FindProperty(n)
		if idx < 0 || e.el.Properties[idx].IsList() {
			return false
		}
	}
	return true
}

// ExtractScalarTuple writes count tuples of len(names) float32s each into
// dst (which must be at least count*len(names) long), reading from the
// named scalar properties in the given order. Returns false if any name
// is missing or refers to a list property.
func (e *Extractor) ExtractScalarTuple(names []string, dst []float32) bool {
	k := len(names)
	if k == 0 {
		return true
	}
	props := make([]*model.Property, k)
	for i, n := range names {
		idx := e.el.FindProperty(n)
		if idx < 0 || e.el.Properties[idx].IsList() {
			return false
		}
		props[i] = &e.el.Properties[idx]
	}
	count := e.el.Count

	if allFloat32Contiguous(props) {
		if len(e.el.Properties) == k && props[0].Offset == 0 {
			// Tier 1: single memcpy of the entire buffer.
			copyFloat32Block(dst[:count*k], e.data[:count*k*4])
			return true
		}
		// Tier 2: per-row memcpy with stride.
		stride := e.el.RowStride
		base := props[0].Offset
		for row := 0; row < count; row++ {
			src := e.data[row*stride+base : row*stride+base+k*4]
			copyFloat32Block(dst[row*k:row*k+k], src)
		}
		return true
	}

	allFloat32 := true
	for _, p := range props {
		if p.Type != model.Float32 {
			allFloat32 = false
			break
		}
	}
	stride := e.el.RowStride
	if allFloat32 {
		// Tier 3: not contiguous, per-field scalar copies.
		for row := 0; row < count; row++ {
			for j, p := range props {
				off := row*stride + p.Offset
				dst[row*k+j] = math.Float32frombits(binary.LittleEndian.Uint32(e.data[off : off+4]))
			}
		}
		return true
	}

	// Tier 4: mixed types, per-field type-dispatched conversion.
	for row := 0; row < count; row++ {
		for j, p := range props {
			off := row*stride + p.Offset
			dst[row*k+j] = readAsFloat32(e.data[off:off+p.Type.Size()], p.Type)
		}
	}
	return true
}

func allFloat32Contiguous(props []*model.Property) bool {
	for i, p := range props {
		if p.Type != model.Float32 {
			return false
		}
		if i > 0 && p.Offset != props[i-1].Offset+4 {
			return false
		}
	}
	return true
}

func copyFloat32Block(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4 : i*4+4]))
	}
}

func readAsFloat32(b []byte, t model.ScalarType) float32 {
	switch t {
	case model.Int8:
		return float32(int8(b[0]))
	case model.UInt8:
		return float32(b[0])
	case model.Int16:
		return float32(int16(binary.LittleEndian.Uint16(b)))
	case model.UInt16:
		return float32(binary.LittleEndian.Uint16(b))
	case model.Int32:
		return float32(int32(binary.LittleEndian.Uint32(b)))
	case model.UInt32:
		return float32(binary.LittleEndian.Uint32(b))
	case model.Float32:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case model.Float64:
		return float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	}
	return 0
}

func readAsInt64(b []byte, t model.ScalarType) int64 {
	switch t {
	case model.Int8:
		return int64(int8(b[0]))
	case model.UInt8:
		return int64(b[0])
	case model.Int16:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case model.UInt16:
		return int64(binary.LittleEndian.Uint16(b))
	case model.Int32:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	case model.UInt32:
		return int64(binary.LittleEndian.Uint32(b))
	case model.Float32:
		return int64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case model.Float64:
		return int64(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	}
	return 0
}

// ExtractListAsInt32 copies all elements of a list property, row by row,
// into a flat int32 array, converting each item via a truncating cast.
func (e *Extractor) ExtractListAsInt32(propName string) ([]int32, bool) {
	p, ok := e.listProperty(propName)
	if !ok {
		return nil, false
	}
	total := e.SumOfListCounts(propName)
	out := make([]int32, 0, total)
	sz := p.Type.Size()
	for row := range p.RowCount {
		start := p.RowStart[row]
		n := p.RowCount[row]
		for i := 0; i < n; i++ {
			off := start + i*sz
			out = append(out, int32(readAsInt64(p.ListData[off:off+sz], p.Type)))
		}
	}
	return out, true
}

func (e *Extractor) listProperty(name string) (*model.Property, bool) {
	idx := e.el.FindProperty(name)
	if idx < 0 || !e.el.Properties[idx].IsList() {
		return nil, false
	}
	return &e.el.Properties[idx], true
}

// ListRowCounts returns a copy of the property's per-row item counts.
func (e *Extractor) ListRowCounts(propName string) ([]int, bool) {
	p, ok := e.listProperty(propName)
	if !ok {
		return nil, false
	}
	out := make([]int, len(p.RowCount))
	copy(out, p.RowCount)
	return out, true
}

// SumOfListCounts returns the total item count across all rows of the
// named list property.
func (e *Extractor) SumOfListCounts(propName string) int {
	p, ok := e.listProperty(propName)
	if !ok {
		return 0
	}
	total := 0
	for _, c := range p.RowCount {
		total += c
	}
	return total
}

// CountTriangles returns the sum over rows of max(0, rowCount[i]-2) — the
// number of triangles an ear-clip triangulation of each row would emit.
func (e *Extractor) CountTriangles(propName string) int {
	p, ok := e.listProperty(propName)
	if !ok {
		return 0
	}
	total := 0
	for _, c := range p.RowCount {
		if c > 2 {
			total += c - 2
		}
	}
	return total
}

// AllRowsHaveN reports whether every row of the named list property has
// exactly n items.
func (e *Extractor) AllRowsHaveN(propName string, n int) bool {
	p, ok := e.listProperty(propName)
	if !ok {
		return false
	}
	for _, c := range p.RowCount {
		if c != n {
			return false
		}
	}
	return true
}

// ConvertListToFixedSize is a header-time transform: it splices a list
// property believed to have constant size n into a leading scalar count
// property (original count type, value ignored on load) followed by n
// scalar properties of the original value type, and recomputes the
// element's layout. Must be called before the element is loaded. Returns
// the property indices of the n new scalar columns.
func ConvertListToFixedSize(el *model.Element, propName string, n int) ([]int, error) {
	idx := el.FindProperty(propName)
	if idx < 0 {
		return nil, fmt.Errorf("extract: no property %q", propName)
	}
	p := el.Properties[idx]
	if !p.IsList() {
		return nil, fmt.Errorf("extract: property %q is not a list", propName)
	}
	if n < 0 {
		return nil, fmt.Errorf("extract: invalid fixed size %d", n)
	}

	expanded := make([]model.Property, 0, len(el.Properties)+n)
	expanded = append(expanded, el.Properties[:idx]...)
	expanded = append(expanded, model.Property{
		Name: p.Name + "_count",
		Type: p.CountType,
	})
	colIndices := make([]int, n)
	for i := 0; i < n; i++ {
		expanded = append(expanded, model.Property{
			Name: fmt.Sprintf("%s_%d", p.Name, i),
			Type: p.Type,
		})
		colIndices[i] = idx + 1 + i
	}
	expanded = append(expanded, el.Properties[idx+1:]...)

	el.Properties = expanded
	el.ComputeLayout()
	return colIndices, nil
}
