package model

// Property describes one field of an element's row: either a scalar of a
// single primitive type, or a list (a count of CountType followed by Count
// values of Type).
//
// Scalar properties are packed tightly into the element's fixed row at
// Offset, computed by ComputeLayout. List properties carry no fixed-row
// offset; instead, once the owning element has been loaded, ListData,
// RowStart and RowCount hold the per-row payload: row i's RowCount[i]
// items start at byte RowStart[i] of ListData, and ListData holds
// sum(RowCount) * Type.Size() bytes in row order.
type Property struct {
	Name      string
	Type      ScalarType
	CountType ScalarType // None for scalar properties
	Offset    int        // byte offset in the element's fixed row; scalar only

	ListData []byte // raw concatenated list payloads, native byte order
	RowStart []int  // RowStart[i] = byte index into ListData where row i begins
	RowCount []int  // RowCount[i] = item count of row i
}

// IsList reports whether p is a list property.
func (p *Property) IsList() bool {
	return p.CountType != None
}

// Element describes one named collection of rows: vertex, face, edge, and
// so on. Properties are kept in on-disk declaration order.
//
// FixedSize is true iff no property in Properties is a list; in that case
// RowStride is the byte size of one row and the element's payload is a
// flat count*RowStride block. Invariant maintained by ComputeLayout: for
// every scalar property p, p.Offset is the sum of the sizes of all scalar
// properties declared before it.
type Element struct {
	Name       string
	Count      int
	Properties []Property
	FixedSize  bool
	RowStride  int
}

// ComputeLayout performs the single left-to-right walk over e.Properties
// described in spec §4.3: list properties get no offset and clear
// FixedSize; scalar properties are packed with no alignment padding,
// bit-identical to the PLY on-disk row layout.
func (e *Element) ComputeLayout() {
	e.FixedSize = true
	offset := 0
	for i := range e.Properties {
		p := &e.Properties[i]
		if p.IsList() {
			e.FixedSize = false
			p.Offset = 0
			continue
		}
		p.Offset = offset
		offset += p.Type.Size()
	}
	e.RowStride = offset
}

// FindProperty returns the index of the property named name, or -1.
func (e *Element) FindProperty(name string) int {
	for i := range e.Properties {
		if e.Properties[i].Name == name {
			return i
		}
	}
	return -1
}

// ReleaseRowData drops the per-loaded-element buffers (the fixed-row data
// lives elsewhere, owned by the loader; this clears only list payloads so
// next_element's release leaves no dangling references to the element's
// previous load).
func (e *Element) ReleaseRowData() {
	for i := range e.Properties {
		e.Properties[i].ListData = nil
		e.Properties[i].RowStart = nil
		e.Properties[i].RowCount = nil
	}
}
