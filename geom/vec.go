package geom

// Vec is a spatial coordinate. Swarms over 2D meshes leave the trailing
// component zero.
type Vec [3]float64

// Dist2 returns the squared distance between v and u over the first dim
// components.
func (v *Vec) Dist2(u *Vec, dim int) float64 {
	sum := 0.0
	for d := 0; d < dim; d++ {
		diff := v[d] - u[d]
		sum += diff * diff
	}
	return sum
}
