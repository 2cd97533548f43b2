package extract

import "github.com/dyuri/goply/internal/triangulate"

// ExtractTriangles triangulates every row of the named list property
// (spec §4.6) and returns the resulting triangle indices, using
// vertPos (a flat xyz float32 array of numVerts vertices) as the vertex
// positions. Rows with bad indices are skipped, not fatal.
func (e *Extractor) ExtractTriangles(propName string, vertPos []float32, numVerts int) ([]int32, bool) {
	p, ok := e.listProperty(propName)
	if !ok {
		return nil, false
	}

	dst := make([]int32, 0, e.CountTriangles(propName)*3)
	sz := p.Type.Size()
	scratch := make([]int32, 0, 16)
	triScratch := make([]int32, 0, 16*3)

	for row := range p.RowCount {
		n := p.RowCount[row]
		if n < 3 {
			continue
		}
		start := p.RowStart[row]
		scratch = scratch[:0]
		for i := 0; i < n; i++ {
			off := start + i*sz
			scratch = append(scratch, int32(readAsInt64(p.ListData[off:off+sz], p.Type)))
		}
		need := (n - 2) * 3
		if cap(triScratch) < need {
			triScratch = make([]int32, need)
		}
		triScratch = triScratch[:need]
		numTris := triangulate.TriangulatePolygon(n, vertPos, numVerts, scratch, triScratch)
		dst = append(dst, triScratch[:numTris*3]...)
	}
	return dst, true
}
