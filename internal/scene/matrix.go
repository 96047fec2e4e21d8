package scene

import "math"

// Matrix is a row-major 4x4 transform using row vectors; the translation
// occupies elements 12..14.
type Matrix [16]float64

// Vec3 is a three component vector.
type Vec3 [3]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns an identity rotation positioned at p.
func Translation(p Vec3) Matrix {
	m := Identity()
	m[12], m[13], m[14] = p[0], p[1], p[2]
	return m
}

// Position returns the translation component.
func (m Matrix) Position() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// Mul returns m * o.
func (m Matrix) Mul(o Matrix) Matrix {
	var out Matrix
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[r*4+k] * o[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// MirrorYZ reflects the transform through the YZ plane: the X component of
// every axis and of the translation is negated, Y and Z are preserved.
func (m Matrix) MirrorYZ() Matrix {
	return m.Mul(Matrix{
		-1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// Offset returns m translated by d in world space.
func (m Matrix) Offset(d Vec3) Matrix {
	m[12] += d[0]
	m[13] += d[1]
	m[14] += d[2]
	return m
}

// ApproxEqual reports whether every element differs by less than eps.
func (m Matrix) ApproxEqual(o Matrix, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}

// Distance returns the euclidean distance between two points.
func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v[0]-o[0], v[1]-o[1], v[2]-o[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
