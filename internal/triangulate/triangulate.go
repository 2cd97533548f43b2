// Package triangulate implements the ear-clipping polygon triangulator
// described in spec §4.6: fast paths for n=3,4 and a sharpest-angle
// heuristic for n>=5.
package triangulate

import "math"

// infeasible is the sentinel angle assigned to a vertex that cannot be
// clipped this round (reflex, or angle outside (0, π)).
const infeasible = 10000.0

type vec3 struct{ x, y, z float64 }

func sub(a, b vec3) vec3    { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }
func dot(a, b vec3) float64 { return a.x*b.x + a.y*b.y + a.z*b.z }
func cross(a, b vec3) vec3 {
	return vec3{a.y*b.z - a.z*b.y, a.z*b.x - a.x*b.z, a.x*b.y - a.y*b.x}
}
func normalize(a vec3) vec3 {
	l := math.Sqrt(dot(a, a))
	if l == 0 {
		return vec3{}
	}
	return vec3{a.x / l, a.y / l, a.z / l}
}

type vec2 struct{ x, y float64 }

// TriangulatePolygon triangulates the simple polygon given by inIdx[0:n]
// (indices into vertPos, a flat xyz float32 array of numVerts vertices),
// writing 3*(n-2) indices into outIdx (which must have that capacity) and
// returning the triangle count. Any out-of-range index aborts the whole
// polygon, returning 0.
func TriangulatePolygon(n int, vertPos []float32, numVerts int, inIdx []int32, outIdx []int32) int {
	for i := 0; i < n; i++ {
		if inIdx[i] < 0 || int(inIdx[i]) >= numVerts {
			return 0
		}
	}

	switch {
	case n < 3:
		return 0
	case n == 3:
		outIdx[0], outIdx[1], outIdx[2] = inIdx[0], inIdx[1], inIdx[2]
		return 1
	case n == 4:
		outIdx[0], outIdx[1], outIdx[2] = inIdx[0], inIdx[1], inIdx[3]
		outIdx[3], outIdx[4], outIdx[5] = inIdx[2], inIdx[3], inIdx[1]
		return 2
	}

	return earClip(n, vertPos, inIdx, outIdx)
}

func vertexAt(vertPos []float32, idx int32) vec3 {
	base := int(idx) * 3
	return vec3{float64(vertPos[base]), float64(vertPos[base+1]), float64(vertPos[base+2])}
}

func earClip(n int, vertPos []float32, inIdx []int32, outIdx []int32) int {
	p0 := vertexAt(vertPos, inIdx[0])
	p1 := vertexAt(vertPos, inIdx[1])
	pLast := vertexAt(vertPos, inIdx[n-1])

	u := normalize(sub(p1, p0))
	normal := normalize(cross(u, normalize(sub(pLast, p0))))
	v := normalize(cross(normal, u))

	pts := make([]vec2, n)
	for i := 0; i < n; i++ {
		p := vertexAt(vertPos, inIdx[i])
		d := sub(p, p0)
		pts[i] = vec2{dot(d, u), dot(d, v)}
	}

	next := make([]int, n)
	prev := make([]int, n)
	for i := 0; i < n; i++ {
		next[i] = (i + 1) % n
		prev[i] = (i - 1 + n) % n
	}

	remaining := n
	outPos := 0
	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}

	for remaining > 3 {
		bestI := -1
		bestAngle := math.Inf(1)
		i := 0
		for c, started := 0, false; c < remaining; c++ {
			if !started {
				for !alive[i] {
					i = next[i]
				}
				started = true
			}
			angle := vertexAngle(pts, prev[i], i, next[i])
			if angle < bestAngle {
				bestAngle = angle
				bestI = i
			}
			i = next[i]
		}
		if bestI < 0 {
			bestI = firstAlive(alive)
		}

		pn := next[bestI]
		pp := prev[bestI]
		outIdx[outPos] = inIdx[bestI]
		outIdx[outPos+1] = inIdx[pn]
		outIdx[outPos+2] = inIdx[pp]
		outPos += 3

		next[pp] = pn
		prev[pn] = pp
		alive[bestI] = false
		remaining--
	}

	i := firstAlive(alive)
	outIdx[outPos] = inIdx[i]
	outIdx[outPos+1] = inIdx[next[i]]
	outIdx[outPos+2] = inIdx[prev[i]]
	outPos += 3

	return outPos / 3
}

func firstAlive(alive []bool) int {
	for i, a := range alive {
		if a {
			return i
		}
	}
	return -1
}

// vertexAngle computes the interior angle at pts[i] as seen from
// (prev, i, next): the signed angle from vector i->next to vector
// i->prev. For a CCW-wound polygon this is in (0, π) at a convex
// vertex and negative at a reflex one. Angles outside (0, π) are
// infeasible.
func vertexAngle(pts []vec2, prevI, i, nextI int) float64 {
	pi := pts[i]
	toPrev := vec2{pts[prevI].x - pi.x, pts[prevI].y - pi.y}
	toNext := vec2{pts[nextI].x - pi.x, pts[nextI].y - pi.y}

	cosT := toNext.x*toPrev.x + toNext.y*toPrev.y
	sinT := toNext.x*toPrev.y - toNext.y*toPrev.x
	angle := math.Atan2(sinT, cosT)
	if angle <= 0 || angle >= math.Pi {
		return infeasible
	}
	return angle
}
