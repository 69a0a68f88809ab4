package engines

import (
	"fmt"

	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/models"
	"github.com/bcdannyboy/fdquant/solvers"
	"github.com/bcdannyboy/fdquant/utilities"
)

// strikeDensity is how tightly spot points cluster around the strike.
const strikeDensity = 0.1

// FdBlackScholesVanillaEngine prices European, American and Bermudan
// options under a Black-Scholes process, optionally with local volatility
// and discrete cash dividends.
type FdBlackScholesVanillaEngine struct {
	process *models.BlackScholesProcess
	grid    GridParams
	opts    options
}

var _ VanillaEngine = (*FdBlackScholesVanillaEngine)(nil)

func NewFdBlackScholesVanillaEngine(process *models.BlackScholesProcess, grid GridParams, opts ...Option) (*FdBlackScholesVanillaEngine, error) {
	if err := process.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidOption)
	}
	if err := grid.validate(false); err != nil {
		return nil, err
	}
	return &FdBlackScholesVanillaEngine{process: process, grid: grid, opts: buildOptions(opts)}, nil
}

func (e *FdBlackScholesVanillaEngine) Calculate(opt VanillaOption) (Results, error) {
	if err := opt.validate(); err != nil {
		return Results{}, err
	}
	return e.calculate(opt, nil)
}

// calculate runs the rollback; a non-nil barrier knocks the option out on
// one face of the spot axis.
func (e *FdBlackScholesVanillaEngine) calculate(opt VanillaOption, barrier *barrierSetup) (Results, error) {
	strike := opt.Payoff.Strike()
	maturity := opt.Exercise.Maturity()
	_, divAmounts := opt.dividendsBefore(maturity)

	mesherOpts := []meshers.BlackScholesMesherOption{
		meshers.WithConcentration(strike, strikeDensity),
		meshers.WithCashDividends(divAmounts...),
	}
	if barrier != nil {
		mesherOpts = append(mesherOpts, barrier.mesherOption())
	}
	x, err := meshers.NewBlackScholesMesher(e.grid.XGrid, e.process, maturity, strike, mesherOpts...)
	if err != nil {
		return Results{}, fmt.Errorf("spot mesh: %w", err)
	}
	mesh, err := meshers.NewComposite(x)
	if err != nil {
		return Results{}, err
	}

	calc := utilities.NewLogInnerValue(opt.Payoff, mesh, 0)
	condition, err := vanillaCondition(mesh, calc, opt)
	if err != nil {
		return Results{}, err
	}

	desc := solvers.SolverDesc{
		Mesh:         mesh,
		Condition:    condition,
		Calculator:   calc,
		Maturity:     maturity,
		TimeSteps:    e.grid.TGrid,
		DampingSteps: e.grid.DampingSteps,
	}
	if barrier != nil {
		desc.BCs = barrier.boundary(mesh)
	}

	e.opts.logger.Debug("pricing",
		"engine", "black-scholes",
		"exercise", opt.Exercise.Style.String(),
		"strike", strike,
		"maturity", maturity,
		"scheme", e.grid.Scheme.Type.String(),
	)

	s, err := solvers.NewBlackScholesSolver(e.process, strike, desc, e.grid.Scheme, e.opts.solverOptions()...)
	if err != nil {
		return Results{}, err
	}
	return blackScholesResults(s, e.process.Spot)
}

func blackScholesResults(s *solvers.BlackScholesSolver, spot float64) (Results, error) {
	var (
		res Results
		err error
	)
	if res.NPV, err = s.ValueAt(spot); err != nil {
		return Results{}, err
	}
	if res.Delta, err = s.DeltaAt(spot); err != nil {
		return Results{}, err
	}
	if res.Gamma, err = s.GammaAt(spot); err != nil {
		return Results{}, err
	}
	if res.Theta, err = s.ThetaAt(spot); err != nil {
		return Results{}, err
	}
	return res, nil
}
