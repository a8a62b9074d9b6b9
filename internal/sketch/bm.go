package sketch

// berlekampMassey recovers the minimal-degree "locator" polynomial Λ(x)
// (Λ(0)=1) satisfied by the syndrome sequence syn = S_1..S_n, via the
// classical Berlekamp–Massey recurrence generalized from GF(2) to GF(2^64)
// (field subtraction collapses to XOR in characteristic 2). For a
// characteristic-polynomial set sketch, Λ(x) is the product of (1 + e·x)
// over the elements e that differ between the two merged sets, so its roots
// are the multiplicative inverses of those elements — the same power-sum /
// Newton's-identity relationship BCH and PinSketch-style reconciliation
// sketches rely on.
func berlekampMassey(syn []uint64) polynomial {
	c := polynomial{1}
	b := polynomial{1}
	l := 0
	m := 1
	bCoef := uint64(1)

	for n := 0; n < len(syn); n++ {
		delta := syn[n]
		for i := 1; i <= l; i++ {
			delta ^= gfMul(c[i], syn[n-i])
		}
		if delta == 0 {
			m++
			continue
		}

		coef := gfMul(delta, gfInv(bCoef))
		grow := func() {
			needLen := m + len(b)
			if needLen > len(c) {
				grown := make(polynomial, needLen)
				copy(grown, c)
				c = grown
			}
		}

		if 2*l <= n {
			prevC := make(polynomial, len(c))
			copy(prevC, c)
			grow()
			for i := range b {
				c[i+m] ^= gfMul(coef, b[i])
			}
			l = n + 1 - l
			b = prevC
			bCoef = delta
			m = 1
		} else {
			grow()
			for i := range b {
				c[i+m] ^= gfMul(coef, b[i])
			}
			m++
		}
	}
	return c.trim()
}
