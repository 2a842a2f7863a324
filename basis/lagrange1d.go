package basis

// Lagrange1D interpolates a uniform set of order+1 points spanning [-1,1]
// in barycentric form. The evaluation routines skip the node closest to
// the query point when forming the product of differences, which keeps
// every quotient well conditioned arbitrarily close to (and exactly at)
// the interpolation nodes.
type Lagrange1D struct {
	P     int
	Nodes []float64
	Wj    []float64 // barycentric weights 1/prod(xj-xk)
}

func NewLagrange1D(p int) (lb Lagrange1D) {
	lb.P = p
	lb.Nodes = make([]float64, p+1)
	lb.Wj = make([]float64, p+1)
	if p == 0 {
		// finite volume should recover the cell center
		lb.Nodes[0] = 0
		lb.Wj[0] = 1
		return
	}
	dx := 2. / float64(p)
	lb.Nodes[0] = -1
	for j := 1; j <= p; j++ {
		lb.Nodes[j] = lb.Nodes[j-1] + dx
	}
	for j := 0; j <= p; j++ {
		w := 1.
		for k := 0; k <= p; k++ {
			if k != j {
				w *= lb.Nodes[j] - lb.Nodes[k]
			}
		}
		lb.Wj[j] = 1. / w
	}
	return
}

func (lb Lagrange1D) NumBasis() int { return lb.P + 1 }

// closestSkip accumulates the product of (xi - node) over all nodes except
// the one nearest to xi, returning that product and the skipped index.
func (lb Lagrange1D) closestSkip(xi float64) (lskip float64, k int) {
	lskip = 1
	for k = 0; k < lb.P; k++ {
		if xi >= (lb.Nodes[k]+lb.Nodes[k+1])/2 {
			lskip *= xi - lb.Nodes[k]
		} else {
			break
		}
	}
	for i := k + 1; i <= lb.P; i++ {
		lskip *= xi - lb.Nodes[i]
	}
	return
}

// EvalAll returns all order+1 interpolating polynomial values at xi.
func (lb Lagrange1D) EvalAll(xi float64) (Nj []float64) {
	Nj = make([]float64, lb.P+1)
	switch lb.P {
	case 0:
		Nj[0] = 1
	case 1:
		// hard code the simple case for reproducibility
		Nj[0] = 0.5 * (1 - xi)
		Nj[1] = 1 - Nj[0]
	default:
		lskip, k := lb.closestSkip(xi)
		lprod := lskip * (xi - lb.Nodes[k])
		for j := 0; j <= lb.P; j++ {
			if j == k {
				Nj[k] = lskip * lb.Wj[k]
			} else {
				Nj[j] = lprod * lb.Wj[j] / (xi - lb.Nodes[j])
			}
		}
	}
	return
}

// DerivAll returns values and first derivatives of all interpolating
// polynomials at xi.
func (lb Lagrange1D) DerivAll(xi float64) (Nj, dNj []float64) {
	Nj = make([]float64, lb.P+1)
	dNj = make([]float64, lb.P+1)
	switch lb.P {
	case 0:
		Nj[0] = 1
	case 1:
		Nj[0] = 0.5 * (1 - xi)
		Nj[1] = 1 - Nj[0]
		dNj[0] = -0.5
		dNj[1] = 0.5
	default:
		lskip, k := lb.closestSkip(xi)
		lprod := lskip * (xi - lb.Nodes[k])
		// sum of inverse differences neglecting the skipped node
		var s float64
		for j := 0; j <= lb.P; j++ {
			if j == k {
				Nj[k] = lskip * lb.Wj[k]
				continue
			}
			invDiff := 1. / (xi - lb.Nodes[j])
			s += invDiff
			Nj[j] = lprod * invDiff * lb.Wj[j]
		}
		lprime := lprod*s + lskip
		for j := 0; j <= lb.P; j++ {
			if j == k {
				dNj[k] = s * Nj[k]
			} else {
				// quotient rule
				dNj[j] = (lprime*lb.Wj[j] - Nj[j]) / (xi - lb.Nodes[j])
			}
		}
	}
	return
}

// D2All returns values, first and second derivatives of all interpolating
// polynomials at xi.
func (lb Lagrange1D) D2All(xi float64) (Nj, dNj, d2Nj []float64) {
	d2Nj = make([]float64, lb.P+1)
	if lb.P < 2 {
		Nj, dNj = lb.DerivAll(xi)
		return
	}
	Nj = make([]float64, lb.P+1)
	dNj = make([]float64, lb.P+1)
	lskip, k := lb.closestSkip(xi)
	lprod := lskip * (xi - lb.Nodes[k])
	var s, s2 float64
	for j := 0; j <= lb.P; j++ {
		if j == k {
			Nj[k] = lskip * lb.Wj[k]
			continue
		}
		invDiff := 1. / (xi - lb.Nodes[j])
		s += invDiff
		s2 += invDiff * invDiff
		Nj[j] = lprod * invDiff * lb.Wj[j]
	}
	lprime := lprod*s + lskip
	ldub := lprime*s - lprod*s2 + lskip*s
	for j := 0; j <= lb.P; j++ {
		if j == k {
			dNj[k] = s * Nj[k]
			d2Nj[k] = -s2*Nj[k] + s*dNj[k]
		} else {
			dNj[j] = (lprime*lb.Wj[j] - Nj[j]) / (xi - lb.Nodes[j])
			d2Nj[j] = (ldub*lb.Wj[j] - 2*dNj[j]) / (xi - lb.Nodes[j])
		}
	}
	return
}
