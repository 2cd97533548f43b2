// Package loader implements the three element payload strategies
// described in spec §4.4: fixed-size binary block reads, variable-size
// binary per-row walks, and ASCII per-row parsing — plus the
// skip-over-unloaded paths used when a caller advances past an element
// without loading it.
package loader

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/dyuri/goply/internal/bytewindow"
	"github.com/dyuri/goply/internal/lexer"
	"github.com/dyuri/goply/internal/model"
)

// Loader reads one element's payload at a time from a shared byte window.
type Loader struct {
	w      *bytewindow.Reader
	lex    *lexer.Lexer
	format model.Format
	log    *logrus.Entry
}

// New builds a Loader. w must be the same window the header was parsed
// from (the element payloads immediately follow the header in the same
// stream).
func New(w *bytewindow.Reader, format model.Format, log *logrus.Entry) *Loader {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Loader{w: w, lex: lexer.New(w), format: format, log: log}
}

// Load reads el's payload into memory: el's list properties get their
// ListData/RowStart/RowCount populated, and the returned slice holds the
// element's fixed-row (scalar-only) data, count*el.RowStride bytes.
func (l *Loader) Load(el *model.Element) ([]byte, error) {
	switch {
	case l.format == model.ASCII:
		return l.loadASCII(el)
	case el.FixedSize:
		return l.loadFixedBinary(el)
	default:
		return l.loadVariableBinary(el)
	}
}

// Skip advances past el's on-disk footprint without retaining any data.
func (l *Loader) Skip(el *model.Element) error {
	switch {
	case l.format == model.ASCII:
		return l.skipASCII(el)
	case el.FixedSize:
		return l.skipFixedBinary(el)
	default:
		return l.skipVariableBinary(el)
	}
}

// --- fixed-size binary -----------------------------------------------

func (l *Loader) loadFixedBinary(el *model.Element) ([]byte, error) {
	total := el.Count * el.RowStride
	buf := make([]byte, total)
	if !l.w.ReadInto(buf) {
		return nil, fmt.Errorf("loader: element %q: unexpected EOF reading %d bytes", el.Name, total)
	}
	if l.format == model.BinaryBigEndian {
		swapRowsInPlace(buf, el)
	}
	return buf, nil
}

func (l *Loader) skipFixedBinary(el *model.Element) error {
	total := int64(el.Count) * int64(el.RowStride)
	target := l.w.Pos() + total
	if !l.w.SeekForward(target) {
		return fmt.Errorf("loader: element %q: seek past %d bytes failed", el.Name, total)
	}
	return nil
}

// swapRowsInPlace walks buf in declaration order, byte-swapping each
// scalar field per its type size — used when the source file is
// binary_big_endian, converting to the host's assumed little-endian.
func swapRowsInPlace(buf []byte, el *model.Element) {
	for row := 0; row < el.Count; row++ {
		base := row * el.RowStride
		for i := range el.Properties {
			p := &el.Properties[i]
			if p.IsList() {
				continue
			}
			sz := p.Type.Size()
			bytewindow.SwapN(buf[base+p.Offset:base+p.Offset+sz], sz)
		}
	}
}

// --- variable-size binary ----------------------------------------------

func (l *Loader) loadVariableBinary(el *model.Element) ([]byte, error) {
	buf := make([]byte, el.Count*el.RowStride)
	for i := range el.Properties {
		p := &el.Properties[i]
		if p.IsList() {
			p.ListData = nil
			p.RowStart = make([]int, el.Count)
			p.RowCount = make([]int, el.Count)
		}
	}

	for row := 0; row < el.Count; row++ {
		base := row * el.RowStride
		for i := range el.Properties {
			p := &el.Properties[i]
			if !p.IsList() {
				sz := p.Type.Size()
				field := buf[base+p.Offset : base+p.Offset+sz]
				if !l.w.ReadInto(field) {
					return nil, fmt.Errorf("loader: element %q row %d: unexpected EOF", el.Name, row)
				}
				if l.format == model.BinaryBigEndian {
					bytewindow.SwapN(field, sz)
				}
				continue
			}

			count, err := l.readListCount(p.CountType)
			if err != nil {
				return nil, fmt.Errorf("loader: element %q row %d: %w", el.Name, row, err)
			}
			valSz := p.Type.Size()
			payload := make([]byte, count*valSz)
			if !l.w.ReadInto(payload) {
				return nil, fmt.Errorf("loader: element %q row %d: unexpected EOF reading list payload", el.Name, row)
			}
			if l.format == model.BinaryBigEndian {
				for k := 0; k < count; k++ {
					bytewindow.SwapN(payload[k*valSz:(k+1)*valSz], valSz)
				}
			}
			p.RowStart[row] = len(p.ListData)
			p.RowCount[row] = count
			p.ListData = append(p.ListData, payload...)
		}
	}
	return buf, nil
}

func (l *Loader) readListCount(countType model.ScalarType) (int, error) {
	sz := countType.Size()
	raw := make([]byte, sz)
	if !l.w.ReadInto(raw) {
		return 0, fmt.Errorf("unexpected EOF reading list count")
	}
	if l.format == model.BinaryBigEndian {
		bytewindow.SwapN(raw, sz)
	}
	count, err := decodeSignedCount(raw, countType)
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, fmt.Errorf("negative list count %d", count)
	}
	return count, nil
}

func decodeSignedCount(raw []byte, t model.ScalarType) (int, error) {
	switch t {
	case model.Int8:
		return int(int8(raw[0])), nil
	case model.UInt8:
		return int(raw[0]), nil
	case model.Int16:
		return int(int16(binary.LittleEndian.Uint16(raw))), nil
	case model.UInt16:
		return int(binary.LittleEndian.Uint16(raw)), nil
	case model.Int32:
		return int(int32(binary.LittleEndian.Uint32(raw))), nil
	case model.UInt32:
		return int(binary.LittleEndian.Uint32(raw)), nil
	default:
		return 0, fmt.Errorf("invalid list count type %s", t)
	}
}

func (l *Loader) skipVariableBinary(el *model.Element) error {
	for row := 0; row < el.Count; row++ {
		for i := range el.Properties {
			p := &el.Properties[i]
			if !p.IsList() {
				if !l.w.Ensure(p.Type.Size()) {
					return fmt.Errorf("loader: element %q row %d: unexpected EOF skipping scalar", el.Name, row)
				}
				l.w.AdvanceBytes(p.Type.Size())
				continue
			}
			count, err := l.readListCount(p.CountType)
			if err != nil {
				return fmt.Errorf("loader: element %q row %d: %w", el.Name, row, err)
			}
			skipBytes := count * p.Type.Size()
			if !advanceInChunks(l.w, skipBytes) {
				return fmt.Errorf("loader: element %q row %d: unexpected EOF skipping list payload", el.Name, row)
			}
		}
	}
	return nil
}

func advanceInChunks(w *bytewindow.Reader, n int) bool {
	for n > 0 {
		chunk := n
		if !w.Ensure(chunk) {
			chunk = w.Available()
			if chunk == 0 {
				return false
			}
		}
		if !w.AdvanceBytes(chunk) {
			return false
		}
		n -= chunk
	}
	return true
}

// --- ASCII (fixed and variable) -----------------------------------------

func (l *Loader) loadASCII(el *model.Element) ([]byte, error) {
	l.w.SetASCIIMode(true)
	buf := make([]byte, el.Count*el.RowStride)
	for i := range el.Properties {
		p := &el.Properties[i]
		if p.IsList() {
			p.ListData = nil
			p.RowStart = make([]int, el.Count)
			p.RowCount = make([]int, el.Count)
		}
	}

	for row := 0; row < el.Count; row++ {
		base := row * el.RowStride
		for i := range el.Properties {
			p := &el.Properties[i]
			l.lex.Advance()
			if !p.IsList() {
				if err := l.readASCIIScalar(buf[base+p.Offset:base+p.Offset+p.Type.Size()], p.Type); err != nil {
					return nil, fmt.Errorf("loader: element %q row %d property %q: %w", el.Name, row, p.Name, err)
				}
				continue
			}
			countVal, ok := l.lex.IntLiteral()
			if !ok || countVal < 0 {
				return nil, fmt.Errorf("loader: element %q row %d property %q: invalid list count", el.Name, row, p.Name)
			}
			count := int(countVal)
			payload := make([]byte, count*p.Type.Size())
			for k := 0; k < count; k++ {
				l.lex.Advance()
				if err := l.readASCIIScalar(payload[k*p.Type.Size():(k+1)*p.Type.Size()], p.Type); err != nil {
					return nil, fmt.Errorf("loader: element %q row %d property %q item %d: %w", el.Name, row, p.Name, k, err)
				}
			}
			p.RowStart[row] = len(p.ListData)
			p.RowCount[row] = count
			p.ListData = append(p.ListData, payload...)
		}
		if !l.lex.NextLine() && row != el.Count-1 {
			return nil, fmt.Errorf("loader: element %q row %d: unexpected EOF", el.Name, row)
		}
	}
	return buf, nil
}

func (l *Loader) readASCIIScalar(dst []byte, t model.ScalarType) error {
	if t.IsInteger() {
		v, ok := l.lex.IntLiteral()
		if !ok {
			return fmt.Errorf("expected integer literal")
		}
		writeIntScalar(dst, t, v)
		return nil
	}
	v, ok := l.lex.DoubleLiteral()
	if !ok {
		return fmt.Errorf("expected floating point literal")
	}
	writeFloatScalar(dst, t, v)
	return nil
}

func writeIntScalar(dst []byte, t model.ScalarType, v int64) {
	switch t {
	case model.Int8:
		dst[0] = byte(int8(v))
	case model.UInt8:
		dst[0] = byte(uint8(v))
	case model.Int16:
		binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
	case model.UInt16:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case model.Int32:
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
	case model.UInt32:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	case model.Float32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case model.Float64:
		binary.LittleEndian.PutUint64(dst, math.Float64bits(float64(v)))
	}
}

func writeFloatScalar(dst []byte, t model.ScalarType, v float64) {
	switch t {
	case model.Int8:
		dst[0] = byte(int8(v))
	case model.UInt8:
		dst[0] = byte(uint8(v))
	case model.Int16:
		binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
	case model.UInt16:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case model.Int32:
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
	case model.UInt32:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	case model.Float32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case model.Float64:
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	}
}

func (l *Loader) skipASCII(el *model.Element) error {
	l.w.SetASCIIMode(true)
	for row := 0; row < el.Count; row++ {
		if !l.lex.NextLine() {
			return fmt.Errorf("loader: element %q row %d: unexpected EOF skipping", el.Name, row)
		}
	}
	return nil
}
