package triangulate

import (
	"math"
	"testing"
)

func TestTriangulateBelowThree(t *testing.T) {
	out := make([]int32, 3)
	if n := TriangulatePolygon(2, nil, 2, []int32{0, 1}, out); n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
}

func TestTriangulateThree(t *testing.T) {
	in := []int32{3, 1, 4}
	out := make([]int32, 3)
	n := TriangulatePolygon(3, nil, 5, in, out)
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], in[i])
		}
	}
}

func TestTriangulateFour(t *testing.T) {
	in := []int32{0, 1, 2, 3}
	out := make([]int32, 6)
	n := TriangulatePolygon(4, nil, 4, in, out)
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	want := []int32{0, 1, 3, 2, 3, 1}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestTriangulateOutOfRangeAborts(t *testing.T) {
	in := []int32{0, 1, 99}
	out := make([]int32, 3)
	if n := TriangulatePolygon(3, nil, 3, in, out); n != 0 {
		t.Fatalf("n = %d, want 0 for out-of-range index", n)
	}
}

// squareOfVerts is a unit square in the xy plane with one corner at the
// origin, plus a fifth point outside it, for building larger
// convex/concave test polygons.
func squareOfVerts() []float32 {
	return []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
		2, 0.5, 0, // concave dent point for pentagon tests
	}
}

func TestTriangulatePentagonConvex(t *testing.T) {
	// A convex pentagon (regular-ish), indices 0..4 around a loop.
	verts := []float32{
		0, 0, 0,
		2, 0, 0,
		3, 1, 0,
		1, 2, 0,
		-1, 1, 0,
	}
	in := []int32{0, 1, 2, 3, 4}
	out := make([]int32, 9)
	n := TriangulatePolygon(5, verts, 5, in, out)
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	seen := map[int32]int{}
	for _, idx := range out[:9] {
		seen[idx]++
	}
	if len(seen) != 5 {
		t.Fatalf("expected all 5 vertices referenced across triangles, got %v", seen)
	}
}

// triangleArea2D returns the unsigned area of the triangle (a, b, c) in
// the xy plane.
func triangleArea2D(verts []float32, a, b, c int32) float64 {
	px := func(i int32) (float64, float64) {
		base := int(i) * 3
		return float64(verts[base]), float64(verts[base+1])
	}
	ax, ay := px(a)
	bx, by := px(b)
	cx, cy := px(c)
	return math.Abs(ax*(by-cy)+bx*(cy-ay)+cx*(ay-by)) / 2
}

func TestTriangulateConcavePentagon(t *testing.T) {
	// Concave pentagon: vertex 4 is pulled inward, making the polygon
	// non-convex at that vertex. Shoelace area of the pentagon is 12 (the
	// enclosing square minus the excluded notch triangle (0,0)-(0,4)-(2,2),
	// which has area 4).
	verts := []float32{
		0, 0, 0,
		4, 0, 0,
		4, 4, 0,
		0, 4, 0,
		2, 2, 0, // reflex vertex pulled toward center
	}
	in := []int32{0, 1, 2, 3, 4}
	out := make([]int32, 9)
	n := TriangulatePolygon(5, verts, 5, in, out)
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	for _, idx := range out[:9] {
		if idx < 0 || int(idx) >= 5 {
			t.Fatalf("triangle references out-of-range vertex %d", idx)
		}
	}

	total := 0.0
	for i := 0; i < n; i++ {
		a, b, c := out[i*3], out[i*3+1], out[i*3+2]
		total += triangleArea2D(verts, a, b, c)
		seen := map[int32]bool{a: true, b: true, c: true}
		if len(seen) == 3 && seen[0] && seen[3] && seen[4] {
			t.Fatalf("triangulation emitted the excluded notch triangle (0,3,4)")
		}
	}
	const wantArea = 12.0
	if math.Abs(total-wantArea) > 1e-9 {
		t.Fatalf("sum of triangle areas = %v, want %v (polygon does not cross the reflex vertex)", total, wantArea)
	}
}
