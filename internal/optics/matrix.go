package optics

// Mat2 is a 2×2 complex matrix (row-major).
type Mat2 struct {
	M [2][2]complex128
}

func Identity2() Mat2 {
	return Mat2{M: [2][2]complex128{
		{1, 0},
		{0, 1},
	}}
}

// Mul returns A·B. Order matters: it encodes the physical layer order.
func (A Mat2) Mul(B Mat2) Mat2 {
	var R Mat2
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			var sum complex128
			for k := 0; k < 2; k++ {
				sum += A.M[r][k] * B.M[k][c]
			}
			R.M[r][c] = sum
		}
	}
	return R
}

// Apply returns A·[x; y].
func (A Mat2) Apply(x, y complex128) (complex128, complex128) {
	return A.M[0][0]*x + A.M[0][1]*y, A.M[1][0]*x + A.M[1][1]*y
}
