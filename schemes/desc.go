package schemes

import (
	"fmt"
	"math"
	"strings"
)

// Type selects a time-stepping algorithm.
type Type int

const (
	Douglas Type = iota
	CraigSneyd
	ModifiedCraigSneyd
	Hundsdorfer
	ModifiedHundsdorfer
	ExplicitEuler
	ImplicitEuler
	CrankNicolson
	MethodOfLines
	TrBDF2
)

func (t Type) String() string {
	switch t {
	case Douglas:
		return "Douglas"
	case CraigSneyd:
		return "CraigSneyd"
	case ModifiedCraigSneyd:
		return "ModifiedCraigSneyd"
	case Hundsdorfer:
		return "Hundsdorfer"
	case ModifiedHundsdorfer:
		return "ModifiedHundsdorfer"
	case ExplicitEuler:
		return "ExplicitEuler"
	case ImplicitEuler:
		return "ImplicitEuler"
	case CrankNicolson:
		return "CrankNicolson"
	case MethodOfLines:
		return "MethodOfLines"
	case TrBDF2:
		return "TrBDF2"
	}
	return "Unknown"
}

// Desc is a scheme choice plus its parameters. The meaning of Theta and Mu
// depends on the type:
//
//	ADI schemes      Theta implicitness, Mu mixed-term weight
//	CrankNicolson    Theta implicitness
//	MethodOfLines    Theta error tolerance, Mu initial step relative to dt
//	TrBDF2           Theta trapezoidal fraction α, Mu linear solver tolerance
type Desc struct {
	Type  Type
	Theta float64
	Mu    float64
}

// DouglasDesc is the Douglas ADI scheme with θ = 1/2.
func DouglasDesc() Desc { return Desc{Type: Douglas, Theta: 0.5} }

// CraigSneydDesc treats the mixed term explicitly with one corrector.
func CraigSneydDesc() Desc { return Desc{Type: CraigSneyd, Theta: 0.5, Mu: 0.5} }

// ModifiedCraigSneydDesc is the In 't Hout-Welfert variant with θ = μ = 1/3.
func ModifiedCraigSneydDesc() Desc {
	return Desc{Type: ModifiedCraigSneyd, Theta: 1.0 / 3.0, Mu: 1.0 / 3.0}
}

// HundsdorferDesc is the Hundsdorfer-Verwer scheme with θ = 1/2 + √3/6.
func HundsdorferDesc() Desc {
	return Desc{Type: Hundsdorfer, Theta: 0.5 + math.Sqrt(3)/6, Mu: 0.5}
}

// ModifiedHundsdorferDesc runs Hundsdorfer-Verwer with θ = 1 - √2/2.
func ModifiedHundsdorferDesc() Desc {
	return Desc{Type: ModifiedHundsdorfer, Theta: 1 - math.Sqrt2/2, Mu: 0.5}
}

// ExplicitEulerDesc is forward Euler.
func ExplicitEulerDesc() Desc { return Desc{Type: ExplicitEuler} }

// ImplicitEulerDesc is backward Euler.
func ImplicitEulerDesc() Desc { return Desc{Type: ImplicitEuler} }

// CrankNicolsonDesc is the θ-scheme with θ = 1/2.
func CrankNicolsonDesc() Desc { return Desc{Type: CrankNicolson, Theta: 0.5} }

// MethodOfLinesDesc integrates each step with an adaptive Runge-Kutta
// method; eps is the local error tolerance and relInitStep the first trial
// step as a fraction of dt.
func MethodOfLinesDesc(eps, relInitStep float64) Desc {
	return Desc{Type: MethodOfLines, Theta: eps, Mu: relInitStep}
}

// TrBDF2Desc uses α = 2 - √2 and a 1e-8 linear solver tolerance.
func TrBDF2Desc() Desc { return Desc{Type: TrBDF2, Theta: 2 - math.Sqrt2, Mu: 1e-8} }

// DescByName returns the default descriptor of the named scheme, matched
// case-insensitively against Type.String.
func DescByName(name string) (Desc, error) {
	defaults := []Desc{
		DouglasDesc(), CraigSneydDesc(), ModifiedCraigSneydDesc(),
		HundsdorferDesc(), ModifiedHundsdorferDesc(), ExplicitEulerDesc(),
		ImplicitEulerDesc(), CrankNicolsonDesc(), MethodOfLinesDesc(1e-4, 1e-2),
		TrBDF2Desc(),
	}
	for _, d := range defaults {
		if strings.EqualFold(d.Type.String(), name) {
			return d, nil
		}
	}
	return Desc{}, fmt.Errorf("scheme %q: %w", name, ErrUnknownScheme)
}
