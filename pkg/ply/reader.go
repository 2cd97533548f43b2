// Package ply implements a read-only, streaming parser for the PLY
// polygon file format (ASCII, binary little-endian, binary big-endian).
// Construct a Reader, inspect its header, then load elements one at a
// time in declared order to extract typed column data or triangulate
// polygonal faces.
package ply

import (
	"fmt"
	"io"
	"os"

	"github.com/dyuri/goply/internal/bytewindow"
	"github.com/dyuri/goply/internal/extract"
	"github.com/dyuri/goply/internal/header"
	"github.com/dyuri/goply/internal/loader"
	"github.com/dyuri/goply/internal/model"
	"github.com/dyuri/goply/internal/triangulate"
)

// Reader is a streaming, element-at-a-time PLY reader. See spec §4.7:
// it is a state machine over an element cursor, exposing at most one
// loaded element's data at a time.
type Reader struct {
	cfg *config
	w   *bytewindow.Reader
	ld  *loader.Loader
	f   io.Closer

	format       model.Format
	versionMajor int
	versionMinor int
	elements     []model.Element
	comments     []string

	valid   bool
	cursor  int
	loaded  bool
	curData []byte
	curEx   *extract.Extractor
}

// Construct opens path and parses its header. On any I/O or grammar
// error the returned Reader has valid() == false; Construct itself
// still returns a non-nil error so callers that don't want to inspect
// valid() can fail fast.
func Construct(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return invalidReader(opts), newError(CodeIO, "open file", err)
	}
	r, err := NewReader(f, opts...)
	if err != nil {
		f.Close()
		return r, err
	}
	r.f = f
	return r, nil
}

// NewReader parses a header from src. The caller retains ownership of
// src (Reader.Close only closes a source it opened itself via Construct).
func NewReader(src io.Reader, opts ...Option) (*Reader, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	body := src
	if cfg.decompress {
		decompressed, err := decompressSource(src, cfg.forcedCodec)
		if err != nil {
			return invalidReaderWithConfig(cfg), newError(CodeIO, "decompress source", err)
		}
		body = decompressed
	}

	w := bytewindow.NewSize(body, cfg.bufferSize, cfg.log)
	r := &Reader{cfg: cfg, w: w}

	res, err := header.New(w, cfg.log).Parse()
	if err != nil {
		cfg.log.WithError(err).WithField("reason", "header parse").Warn("ply: valid -> false")
		return r, newError(CodeInvalidHeader, "parse header", err)
	}

	r.valid = true
	r.format = res.Format
	r.versionMajor = res.VersionMajor
	r.versionMinor = res.VersionMinor
	r.elements = res.Elements
	r.comments = res.Comments
	r.ld = loader.New(w, r.format, cfg.log)
	return r, nil
}

// Comments returns the header's comment lines in file order, decoded
// via WithCodePage if one was configured (raw bytes-as-string
// otherwise). Comment text is never parsed, only surfaced for display.
func (r *Reader) Comments() []string {
	if r.cfg.codePage == nil {
		return r.comments
	}
	out := make([]string, len(r.comments))
	decoder := r.cfg.codePage.NewDecoder()
	for i, c := range r.comments {
		if decoded, err := decoder.String(c); err == nil {
			out[i] = decoded
		} else {
			out[i] = c
		}
	}
	return out
}

func invalidReader(opts []Option) *Reader {
	return invalidReaderWithConfig(applyOptions(opts))
}

func invalidReaderWithConfig(cfg *config) *Reader {
	return &Reader{cfg: cfg, valid: false}
}

func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Close releases the underlying file handle, if Construct opened one.
func (r *Reader) Close() error {
	if r.f != nil {
		return r.f.Close()
	}
	return nil
}

// Valid reports whether the reader's state is still trustworthy.
// Sticky-false after any parse or I/O error (spec §7).
func (r *Reader) Valid() bool { return r.valid }

// FileType returns the on-disk encoding declared by the header.
func (r *Reader) FileType() model.Format { return r.format }

// VersionMajor returns the header's declared major version.
func (r *Reader) VersionMajor() int { return r.versionMajor }

// VersionMinor returns the header's declared minor version.
func (r *Reader) VersionMinor() int { return r.versionMinor }

// NumElements returns the number of element descriptors in the header.
func (r *Reader) NumElements() int { return len(r.elements) }

// GetElement returns the i'th element descriptor (header metadata only,
// independent of the current cursor).
func (r *Reader) GetElement(i int) (*model.Element, bool) {
	if i < 0 || i >= len(r.elements) {
		return nil, false
	}
	return &r.elements[i], true
}

// HasElement reports whether the cursor still points at an element
// (false once every element has been passed).
func (r *Reader) HasElement() bool {
	return r.valid && r.cursor < len(r.elements)
}

// Element returns the element descriptor the cursor currently points
// at.
func (r *Reader) Element() (*model.Element, bool) {
	if !r.HasElement() {
		return nil, false
	}
	return &r.elements[r.cursor], true
}

// LoadElement reads the current element's payload into memory. Valid
// only when the cursor points at an unloaded element.
func (r *Reader) LoadElement() error {
	if !r.valid {
		return newError(CodeIO, "load_element on invalid reader", nil)
	}
	if !r.HasElement() {
		return newError(CodeBounds, "load_element past last element", nil)
	}
	if r.loaded {
		return nil
	}
	el := &r.elements[r.cursor]
	data, err := r.ld.Load(el)
	if err != nil {
		r.valid = false
		r.cfg.log.WithError(err).WithField("reason", "load_element").Warn("ply: valid -> false")
		return newError(CodeIO, fmt.Sprintf("load element %q", el.Name), err)
	}
	r.curData = data
	r.curEx = extract.New(el, data)
	r.loaded = true
	return nil
}

// NextElement releases the current element's buffers (if loaded) and
// advances the cursor, skipping the on-disk footprint of an unloaded
// element (spec §4.4 skip-over-unloaded).
func (r *Reader) NextElement() error {
	if !r.valid || !r.HasElement() {
		return newError(CodeBounds, "next_element past last element", nil)
	}
	el := &r.elements[r.cursor]
	if r.loaded {
		el.ReleaseRowData()
	} else if err := r.ld.Skip(el); err != nil {
		r.valid = false
		r.cfg.log.WithError(err).WithField("reason", "skip_element").Warn("ply: valid -> false")
		return newError(CodeIO, fmt.Sprintf("skip element %q", el.Name), err)
	}
	r.curData = nil
	r.curEx = nil
	r.loaded = false
	r.cursor++
	return nil
}

// FindProperty returns the property index of name within the current
// element, or -1.
func (r *Reader) FindProperty(name string) int {
	el, ok := r.Element()
	if !ok {
		return -1
	}
	return el.FindProperty(name)
}

// ConvertListToFixedSize splices a constant-size list property in the
// current element's descriptor into a count property plus n scalar
// columns (spec §4.5). Must be called before LoadElement.
func (r *Reader) ConvertListToFixedSize(propName string, n int) ([]int, error) {
	el, ok := r.Element()
	if !ok {
		return nil, newError(CodeBounds, "convert_list_to_fixed_size past last element", nil)
	}
	if r.loaded {
		return nil, newError(CodeNotLoaded, "convert_list_to_fixed_size after load_element", nil)
	}
	cols, err := extract.ConvertListToFixedSize(el, propName, n)
	if err != nil {
		return nil, newError(CodeUnknownProperty, "convert_list_to_fixed_size", err)
	}
	return cols, nil
}

func (r *Reader) extractor() (*extract.Extractor, error) {
	if !r.loaded {
		return nil, ErrNotLoaded
	}
	return r.curEx, nil
}

// HasScalarTuple reports whether every named property exists on the
// loaded element and is scalar.
func (r *Reader) HasScalarTuple(names []string) (bool, error) {
	ex, err := r.extractor()
	if err != nil {
		return false, err
	}
	return ex.HasScalarTuple(names), nil
}

// HasProperty reports whether the loaded element declares a property
// named name.
func (r *Reader) HasProperty(name string) (bool, error) {
	ex, err := r.extractor()
	if err != nil {
		return false, err
	}
	return ex.HasProperty(name), nil
}

// ExtractScalarTuple writes count tuples of len(names) float32s into
// dst from the loaded element.
func (r *Reader) ExtractScalarTuple(names []string, dst []float32) (bool, error) {
	ex, err := r.extractor()
	if err != nil {
		return false, err
	}
	return ex.ExtractScalarTuple(names, dst), nil
}

// ExtractListAsInt32 flattens a list property's rows into a new int32
// slice, in row order.
func (r *Reader) ExtractListAsInt32(propName string) ([]int32, error) {
	ex, err := r.extractor()
	if err != nil {
		return nil, err
	}
	out, ok := ex.ExtractListAsInt32(propName)
	if !ok {
		return nil, ErrUnknownProperty
	}
	return out, nil
}

// ListRowCounts returns the per-row item counts of a list property.
func (r *Reader) ListRowCounts(propName string) ([]int, error) {
	ex, err := r.extractor()
	if err != nil {
		return nil, err
	}
	out, ok := ex.ListRowCounts(propName)
	if !ok {
		return nil, ErrUnknownProperty
	}
	return out, nil
}

// SumOfListCounts returns the total item count of a list property
// across all rows.
func (r *Reader) SumOfListCounts(propName string) (int, error) {
	ex, err := r.extractor()
	if err != nil {
		return 0, err
	}
	return ex.SumOfListCounts(propName), nil
}

// CountTriangles returns the sum over rows of max(0, rowCount[i]-2).
func (r *Reader) CountTriangles(propName string) (int, error) {
	ex, err := r.extractor()
	if err != nil {
		return 0, err
	}
	return ex.CountTriangles(propName), nil
}

// AllRowsHaveN reports whether every row of a list property has
// exactly n items.
func (r *Reader) AllRowsHaveN(propName string, n int) (bool, error) {
	ex, err := r.extractor()
	if err != nil {
		return false, err
	}
	return ex.AllRowsHaveN(propName, n), nil
}

// ExtractTriangles triangulates every row of a list property using
// vertPos as the vertex positions.
func (r *Reader) ExtractTriangles(propName string, vertPos []float32, numVerts int) ([]int32, error) {
	ex, err := r.extractor()
	if err != nil {
		return nil, err
	}
	out, ok := ex.ExtractTriangles(propName, vertPos, numVerts)
	if !ok {
		return nil, ErrUnknownProperty
	}
	return out, nil
}

// TriangulatePolygon is the free-function triangulator from spec §4.6,
// exported for callers that already have in-memory index/vertex data
// without a Reader (spec §6's "free function triangulate_polygon").
func TriangulatePolygon(n int, vertPos []float32, numVerts int, inIdx, outIdx []int32) int {
	return triangulate.TriangulatePolygon(n, vertPos, numVerts, inIdx, outIdx)
}
