package common

// Vector represents a point or vector in space. Simulation output positions
// are 3D; 2D output is padded with a zero z rather than special-cased.
type Vector []float64

// Vec3 creates a 3D vector from its components.
func Vec3(x, y, z float64) Vector {
	return Vector{x, y, z}
}

// Clone creates a deep copy of the vector.
func (v Vector) Clone() Vector {
	clone := make(Vector, len(v))
	copy(clone, v)
	return clone
}
