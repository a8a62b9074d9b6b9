package sketch

// polynomial represents a polynomial over GF(2^64) as a little-endian
// coefficient slice: p[i] is the coefficient of x^i.
type polynomial []uint64

// degree returns the polynomial's degree, or -1 for the zero polynomial.
func (p polynomial) degree() int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] != 0 {
			return i
		}
	}
	return -1
}

func (p polynomial) trim() polynomial {
	d := p.degree()
	if d < 0 {
		return polynomial{}
	}
	return p[:d+1]
}

func polyAdd(a, b polynomial) polynomial {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	r := make(polynomial, n)
	copy(r, a)
	for i, bv := range b {
		r[i] ^= bv
	}
	return r.trim()
}

func polyMul(a, b polynomial) polynomial {
	da, db := a.degree(), b.degree()
	if da < 0 || db < 0 {
		return polynomial{}
	}
	r := make(polynomial, da+db+1)
	for i := 0; i <= da; i++ {
		if a[i] == 0 {
			continue
		}
		for j := 0; j <= db; j++ {
			if b[j] == 0 {
				continue
			}
			r[i+j] ^= gfMul(a[i], b[j])
		}
	}
	return r.trim()
}

// polyDivMod divides a by b, returning quotient and remainder. b must be
// non-zero.
func polyDivMod(a, b polynomial) (q, r polynomial) {
	db := b.degree()
	r = make(polynomial, len(a))
	copy(r, a)
	lcInv := gfInv(b[db])

	da := r.degree()
	if da < db {
		return polynomial{}, r.trim()
	}
	q = make(polynomial, da-db+1)
	for {
		dr := r.degree()
		if dr < db {
			break
		}
		coef := gfMul(r[dr], lcInv)
		shift := dr - db
		q[shift] ^= coef
		for i := 0; i <= db; i++ {
			r[i+shift] ^= gfMul(coef, b[i])
		}
	}
	return q.trim(), r.trim()
}

// monic returns p scaled so its leading coefficient is 1.
func (p polynomial) monic() polynomial {
	d := p.degree()
	if d < 0 {
		return p
	}
	lcInv := gfInv(p[d])
	r := make(polynomial, d+1)
	for i := 0; i <= d; i++ {
		r[i] = gfMul(p[i], lcInv)
	}
	return r
}

// polyGCD computes the monic GCD of a and b via the Euclidean algorithm.
func polyGCD(a, b polynomial) polynomial {
	a, b = a.trim(), b.trim()
	for b.degree() >= 0 {
		_, r := polyDivMod(a, b)
		a, b = b, r
	}
	return a.monic()
}

// squareMod computes p^2 mod f.
func squareMod(p, f polynomial) polynomial {
	sq := polyMul(p, p)
	_, r := polyDivMod(sq, f)
	return r
}
