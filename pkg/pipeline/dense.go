package pipeline

// Densify expands sparse vectors into a dense row-major matrix of the given width.
// The boosting stage only accepts dense input.
func Densify(vectors []SparseVector, width int) [][]float64 {
	out := make([][]float64, len(vectors))
	for i, vec := range vectors {
		out[i] = DensifyOne(vec, width)
	}
	return out
}

func DensifyOne(vec SparseVector, width int) []float64 {
	row := make([]float64, width)
	for k, idx := range vec.Indices {
		if idx < width {
			row[idx] = vec.Values[k]
		}
	}
	return row
}
