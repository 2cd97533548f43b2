package header

import (
	"strings"
	"testing"

	"github.com/dyuri/goply/internal/bytewindow"
	"github.com/dyuri/goply/internal/model"
)

func parseHeader(t *testing.T, src string) *Result {
	t.Helper()
	w := bytewindow.NewSize(strings.NewReader(src), 4096, nil)
	res, err := New(w, nil).Parse()
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return res
}

const cubeHeader = "ply\n" +
	"format ascii 1.0\n" +
	"comment generated for testing\n" +
	"element vertex 8\n" +
	"property float x\n" +
	"property float y\n" +
	"property float z\n" +
	"element face 6\n" +
	"property list uchar uint vertex_indices\n" +
	"end_header\n"

func TestParseCubeHeader(t *testing.T) {
	res := parseHeader(t, cubeHeader)

	if res.Format != model.ASCII {
		t.Fatalf("Format = %v, want ASCII", res.Format)
	}
	if res.VersionMajor != 1 || res.VersionMinor != 0 {
		t.Fatalf("Version = %d.%d, want 1.0", res.VersionMajor, res.VersionMinor)
	}
	if len(res.Elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(res.Elements))
	}

	vertex := res.Elements[0]
	if vertex.Name != "vertex" || vertex.Count != 8 {
		t.Fatalf("vertex element = %+v", vertex)
	}
	if !vertex.FixedSize || vertex.RowStride != 12 {
		t.Fatalf("vertex FixedSize/RowStride = %v/%d, want true/12", vertex.FixedSize, vertex.RowStride)
	}
	if vertex.Properties[2].Offset != 8 {
		t.Fatalf("z offset = %d, want 8", vertex.Properties[2].Offset)
	}

	face := res.Elements[1]
	if face.FixedSize {
		t.Fatalf("face element should not be fixed-size (has a list property)")
	}
	if face.Properties[0].Type != model.UInt32 || face.Properties[0].CountType != model.UInt8 {
		t.Fatalf("face list property types = %v/%v", face.Properties[0].Type, face.Properties[0].CountType)
	}
}

func TestParseRejectsMissingMagic(t *testing.T) {
	w := bytewindow.NewSize(strings.NewReader("nope\n"), 4096, nil)
	if _, err := New(w, nil).Parse(); err == nil {
		t.Fatalf("Parse() succeeded on a file missing the \"ply\" magic")
	}
}

func TestParseRejectsNegativeElementCount(t *testing.T) {
	src := "ply\nformat ascii 1.0\nelement vertex -1\nproperty float x\nend_header\n"
	w := bytewindow.NewSize(strings.NewReader(src), 4096, nil)
	if _, err := New(w, nil).Parse(); err == nil {
		t.Fatalf("Parse() succeeded with a negative element count")
	}
}

func TestParseAcceptsExplicitWidthAliases(t *testing.T) {
	src := "ply\nformat binary_little_endian 1.0\n" +
		"element vertex 1\nproperty int32 a\nproperty uint8 b\nend_header\n"
	w := bytewindow.NewSize(strings.NewReader(src), 4096, nil)
	res, err := New(w, nil).Parse()
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if res.Format != model.BinaryLittleEndian {
		t.Fatalf("Format = %v, want BinaryLittleEndian", res.Format)
	}
	props := res.Elements[0].Properties
	if props[0].Type != model.Int32 || props[1].Type != model.UInt8 {
		t.Fatalf("property types = %v/%v", props[0].Type, props[1].Type)
	}
}

func TestParseCommentsEverywhere(t *testing.T) {
	src := "ply\n" +
		"comment before format\n" +
		"format ascii 1.0\n" +
		"comment before element\n" +
		"element vertex 1\n" +
		"comment before property\n" +
		"property float x\n" +
		"comment before end_header\n" +
		"end_header\n"
	res := parseHeader(t, src)
	if len(res.Elements) != 1 || res.Elements[0].Properties[0].Name != "x" {
		t.Fatalf("comments interfered with parsing: %+v", res)
	}
	wantComments := []string{"before format", "before element", "before property", "before end_header"}
	if len(res.Comments) != len(wantComments) {
		t.Fatalf("Comments = %v, want %v", res.Comments, wantComments)
	}
	for i, c := range wantComments {
		if res.Comments[i] != c {
			t.Fatalf("Comments[%d] = %q, want %q", i, res.Comments[i], c)
		}
	}
}
