package schemes

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// BiCGStab is the stabilised bi-conjugate gradient method for a
// non-symmetric linear system given only as a matrix-vector product A.
// M, when set, applies an approximate inverse of A as a right
// preconditioner.
type BiCGStab struct {
	A       func(x []float64) []float64
	M       func(r []float64) []float64
	MaxIter int
	RelTol  float64
}

// BiCGStabResult reports the solution and how it was reached.
type BiCGStabResult struct {
	X          []float64
	Iterations int
	Error      float64
}

// Solve solves A x = b starting from x0. A nil x0 starts from zero.
func (s BiCGStab) Solve(b, x0 []float64) (BiCGStabResult, error) {
	n := len(b)
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		return BiCGStabResult{X: make([]float64, n)}, nil
	}

	x := make([]float64, n)
	if x0 != nil {
		copy(x, x0)
	}
	r := floats.SubTo(make([]float64, n), b, s.A(x))
	rTld := append([]float64(nil), r...)

	p := make([]float64, n)
	v := make([]float64, n)
	var pTld, sTld []float64
	omega, rhoTld, alpha := 1.0, 1.0, 0.0

	relErr := floats.Norm(r, 2) / bnorm
	i := 0
	for ; i < s.MaxIter && relErr >= s.RelTol; i++ {
		rho := floats.Dot(rTld, r)
		if rho == 0 || omega == 0 {
			break
		}

		if i > 0 {
			beta := (rho / rhoTld) * (alpha / omega)
			for k := range p {
				p[k] = r[k] + beta*(p[k]-omega*v[k])
			}
		} else {
			copy(p, r)
		}

		pTld = s.precondition(p)
		v = s.A(pTld)
		alpha = rho / floats.Dot(rTld, v)

		sv := floats.AddScaledTo(make([]float64, n), r, -alpha, v)
		if floats.Norm(sv, 2) < s.RelTol*bnorm {
			floats.AddScaled(x, alpha, pTld)
			relErr = floats.Norm(sv, 2) / bnorm
			break
		}

		sTld = s.precondition(sv)
		t := s.A(sTld)
		omega = floats.Dot(t, sv) / floats.Dot(t, t)

		floats.AddScaled(x, alpha, pTld)
		floats.AddScaled(x, omega, sTld)
		floats.AddScaledTo(r, sv, -omega, t)

		relErr = floats.Norm(r, 2) / bnorm
		rhoTld = rho
	}

	res := BiCGStabResult{X: x, Iterations: i, Error: relErr}
	if relErr >= s.RelTol {
		return res, fmt.Errorf("bicgstab: relative residual %g after %d iterations: %w", relErr, i, ErrNoConvergence)
	}
	return res, nil
}

func (s BiCGStab) precondition(r []float64) []float64 {
	if s.M == nil {
		return append([]float64(nil), r...)
	}
	return s.M(r)
}
