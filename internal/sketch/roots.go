package sketch

import "math/rand"

// rootsOf returns every root of f in GF(2^64), assuming f is known to split
// completely into distinct linear factors over the field (guaranteed for a
// valid locator polynomial recovered from a characteristic-polynomial
// sketch whose symmetric difference did not exceed capacity).
//
// It implements Berlekamp's trace-splitting algorithm: for a random r,
// gcd(f, Tr_r(x)) partitions f's roots by the value of the trace function
// Tr_r(x) = rx + (rx)^2 + (rx)^4 + ... + (rx)^(2^63) mod f, recursing until
// every factor is linear.
func rootsOf(f polynomial) ([]uint64, bool) {
	f = f.monic()
	rng := rand.New(rand.NewSource(0xE6A1A7))
	return rootsRec(f, rng, 0)
}

const maxSplitAttempts = 256

func rootsRec(f polynomial, rng *rand.Rand, depth int) ([]uint64, bool) {
	d := f.degree()
	switch {
	case d < 0:
		return nil, true
	case d == 0:
		return nil, true
	case d == 1:
		// f = f0 + x (monic): root satisfies x = f0.
		return []uint64{f[0]}, true
	}
	if depth > 128 {
		return nil, false
	}

	for attempt := 0; attempt < maxSplitAttempts; attempt++ {
		r := rng.Uint64()
		if r == 0 {
			continue
		}
		cur := polynomial{0, r}
		if cur.degree() >= f.degree() {
			_, cur = polyDivMod(cur, f)
		}
		acc := make(polynomial, len(cur))
		copy(acc, cur)
		for i := 1; i < 64; i++ {
			cur = squareMod(cur, f)
			acc = polyAdd(acc, cur)
		}
		g := polyGCD(f, acc)
		gd := g.degree()
		if gd <= 0 || gd >= d {
			continue
		}
		left, ok := rootsRec(g, rng, depth+1)
		if !ok {
			return nil, false
		}
		q, _ := polyDivMod(f, g)
		right, ok := rootsRec(q, rng, depth+1)
		if !ok {
			return nil, false
		}
		return append(left, right...), true
	}
	return nil, false
}
