package spectrogram

// Matrix is a dense [rows][cols] float32 matrix. Every row has the same
// length.
type Matrix [][]float32

// NewMatrix allocates a zeroed rows x cols matrix backed by one slice.
func NewMatrix(rows, cols int) Matrix {
	backing := make([]float32, rows*cols)
	m := make(Matrix, rows)
	for r := range m {
		m[r] = backing[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return m
}

// Shape returns (rows, cols).
func (m Matrix) Shape() (int, int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}
