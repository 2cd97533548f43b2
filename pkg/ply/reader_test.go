package ply

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

const asciiCube = "ply\n" +
	"format ascii 1.0\n" +
	"comment cube\n" +
	"element vertex 8\n" +
	"property float x\n" +
	"property float y\n" +
	"property float z\n" +
	"element face 6\n" +
	"property list uchar uint vertex_indices\n" +
	"end_header\n" +
	"0 0 0\n1 0 0\n1 1 0\n0 1 0\n" +
	"0 0 1\n1 0 1\n1 1 1\n0 1 1\n" +
	"4 0 1 2 3\n4 4 5 6 7\n4 0 1 5 4\n4 1 2 6 5\n4 2 3 7 6\n4 3 0 4 7\n"

func TestReaderASCIICubeEndToEnd(t *testing.T) {
	r, err := NewReader(strings.NewReader(asciiCube))
	if err != nil {
		t.Fatalf("NewReader error: %v", err)
	}
	if !r.Valid() {
		t.Fatalf("Valid() = false")
	}
	if r.NumElements() != 2 {
		t.Fatalf("NumElements() = %d, want 2", r.NumElements())
	}
	if got := r.Comments(); len(got) != 1 || got[0] != "cube" {
		t.Fatalf("Comments() = %v, want [cube]", got)
	}

	// vertex element
	if !r.HasElement() {
		t.Fatalf("HasElement() = false at vertex")
	}
	if err := r.LoadElement(); err != nil {
		t.Fatalf("LoadElement(vertex) error: %v", err)
	}
	dst := make([]float32, 8*3)
	ok, err := r.ExtractScalarTuple([]string{"x", "y", "z"}, dst)
	if err != nil || !ok {
		t.Fatalf("ExtractScalarTuple error=%v ok=%v", err, ok)
	}
	if dst[0] != 0 || dst[1] != 0 || dst[2] != 0 {
		t.Fatalf("vertex 0 = %v, want [0 0 0]", dst[:3])
	}
	if dst[3*4+2] != 1 {
		t.Fatalf("vertex 4.z = %v, want 1", dst[3*4+2])
	}
	if err := r.NextElement(); err != nil {
		t.Fatalf("NextElement() error: %v", err)
	}

	// face element
	if !r.HasElement() {
		t.Fatalf("HasElement() = false at face")
	}
	if err := r.LoadElement(); err != nil {
		t.Fatalf("LoadElement(face) error: %v", err)
	}
	vertPos := dst
	tris, err := r.ExtractTriangles("vertex_indices", vertPos, 8)
	if err != nil {
		t.Fatalf("ExtractTriangles error: %v", err)
	}
	if len(tris) != 12*3 {
		t.Fatalf("len(tris) = %d, want 36 (12 triangles)", len(tris))
	}
	for _, idx := range tris {
		if idx < 0 || idx >= 8 {
			t.Fatalf("triangle index %d out of [0,8)", idx)
		}
	}
	if err := r.NextElement(); err != nil {
		t.Fatalf("NextElement() error: %v", err)
	}
	if r.HasElement() {
		t.Fatalf("HasElement() = true after last element")
	}
}

func TestReaderBinaryBigEndianInt32(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ply\nformat binary_big_endian 1.0\nelement thing 1\nproperty int v\nend_header\n")
	// Chosen to be exactly representable as a float32 (< 2^24) so the
	// round trip through ExtractScalarTuple's f32 tuple path is exact.
	binary.Write(&buf, binary.BigEndian, int32(0x00010203))

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader error: %v", err)
	}
	if err := r.LoadElement(); err != nil {
		t.Fatalf("LoadElement error: %v", err)
	}
	el, _ := r.Element()
	_ = el
	dst := make([]float32, 1)
	ok, err := r.ExtractScalarTuple([]string{"v"}, dst)
	if err != nil || !ok {
		t.Fatalf("ExtractScalarTuple error=%v ok=%v", err, ok)
	}
	if int32(dst[0]) != 0x00010203 {
		t.Fatalf("v = %x, want %x", int32(dst[0]), 0x00010203)
	}
}

func TestReaderSkipOverUnloadedVariableSizeElement(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ply\nformat binary_little_endian 1.0\n" +
		"element a 1\nproperty list uchar uint idx\n" +
		"element b 1\nproperty int v\n" +
		"end_header\n")
	buf.WriteByte(2)
	binary.Write(&buf, binary.LittleEndian, uint32(10))
	binary.Write(&buf, binary.LittleEndian, uint32(20))
	binary.Write(&buf, binary.LittleEndian, int32(99))

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader error: %v", err)
	}
	if err := r.NextElement(); err != nil {
		t.Fatalf("NextElement() (skip a) error: %v", err)
	}
	if err := r.LoadElement(); err != nil {
		t.Fatalf("LoadElement(b) error: %v", err)
	}
	dst := make([]float32, 1)
	ok, err := r.ExtractScalarTuple([]string{"v"}, dst)
	if err != nil || !ok {
		t.Fatalf("ExtractScalarTuple error=%v ok=%v", err, ok)
	}
	if int32(dst[0]) != 99 {
		t.Fatalf("v = %v, want 99", dst[0])
	}
}

func TestReaderInvalidHeaderSetsValidFalse(t *testing.T) {
	r, err := NewReader(strings.NewReader("not a ply file\n"))
	if err == nil {
		t.Fatalf("NewReader() succeeded on garbage input")
	}
	if r.Valid() {
		t.Fatalf("Valid() = true after header parse failure")
	}
}

func TestReaderConvertListToFixedSizeRoundTrip(t *testing.T) {
	// Every row of "face" has exactly 3 indices, so it's a candidate for
	// convert_list_to_fixed_size. Build the same bytes twice and verify
	// the fixed-column extraction yields the same values as extracting
	// the original list property (spec §8 scenario 4's round-trip law).
	build := func() []byte {
		var buf bytes.Buffer
		buf.WriteString("ply\nformat binary_little_endian 1.0\n" +
			"element face 2\nproperty list uchar uint vertex_indices\n" +
			"end_header\n")
		buf.WriteByte(3)
		binary.Write(&buf, binary.LittleEndian, uint32(0))
		binary.Write(&buf, binary.LittleEndian, uint32(1))
		binary.Write(&buf, binary.LittleEndian, uint32(2))
		buf.WriteByte(3)
		binary.Write(&buf, binary.LittleEndian, uint32(3))
		binary.Write(&buf, binary.LittleEndian, uint32(4))
		binary.Write(&buf, binary.LittleEndian, uint32(5))
		return buf.Bytes()
	}

	rList, err := NewReader(bytes.NewReader(build()))
	if err != nil {
		t.Fatalf("NewReader (list) error: %v", err)
	}
	if err := rList.LoadElement(); err != nil {
		t.Fatalf("LoadElement (list) error: %v", err)
	}
	wantFlat, err := rList.ExtractListAsInt32("vertex_indices")
	if err != nil {
		t.Fatalf("ExtractListAsInt32 error: %v", err)
	}
	if len(wantFlat) != 6 {
		t.Fatalf("len(wantFlat) = %d, want 6", len(wantFlat))
	}

	rFixed, err := NewReader(bytes.NewReader(build()))
	if err != nil {
		t.Fatalf("NewReader (fixed) error: %v", err)
	}
	if _, err := rFixed.ConvertListToFixedSize("vertex_indices", 3); err != nil {
		t.Fatalf("ConvertListToFixedSize error: %v", err)
	}
	if err := rFixed.LoadElement(); err != nil {
		t.Fatalf("LoadElement (fixed) error: %v", err)
	}
	cols := []string{"vertex_indices_0", "vertex_indices_1", "vertex_indices_2"}
	dst := make([]float32, 2*3)
	ok, err := rFixed.ExtractScalarTuple(cols, dst)
	if err != nil || !ok {
		t.Fatalf("ExtractScalarTuple error=%v ok=%v", err, ok)
	}

	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			got := int32(dst[row*3+col])
			want := wantFlat[row*3+col]
			if got != want {
				t.Fatalf("row %d col %d = %d, want %d (same value as extracting the original list property)", row, col, got, want)
			}
		}
	}
}

func TestReaderEmptyElement(t *testing.T) {
	src := "ply\nformat ascii 1.0\nelement nothing 0\nproperty float x\nend_header\n"
	r, err := NewReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("NewReader error: %v", err)
	}
	if err := r.LoadElement(); err != nil {
		t.Fatalf("LoadElement() error: %v", err)
	}
	el, _ := r.Element()
	if el.Count != 0 {
		t.Fatalf("Count = %d, want 0", el.Count)
	}
	if err := r.NextElement(); err != nil {
		t.Fatalf("NextElement() error: %v", err)
	}
	if r.HasElement() {
		t.Fatalf("HasElement() = true, want false at EOF")
	}
}
