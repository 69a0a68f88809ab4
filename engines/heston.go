package engines

import (
	"fmt"

	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/models"
	"github.com/bcdannyboy/fdquant/solvers"
	"github.com/bcdannyboy/fdquant/utilities"
)

// FdHestonVanillaEngine prices vanilla options under the Heston model on a
// (log spot, variance) grid. Results are read at (spot, v0).
type FdHestonVanillaEngine struct {
	process *models.HestonProcess
	grid    GridParams
	opts    options
}

var _ VanillaEngine = (*FdHestonVanillaEngine)(nil)

func NewFdHestonVanillaEngine(process *models.HestonProcess, grid GridParams, opts ...Option) (*FdHestonVanillaEngine, error) {
	if err := process.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidOption)
	}
	if err := grid.validate(true); err != nil {
		return nil, err
	}
	return &FdHestonVanillaEngine{process: process, grid: grid, opts: buildOptions(opts)}, nil
}

func (e *FdHestonVanillaEngine) Calculate(opt VanillaOption) (Results, error) {
	if err := opt.validate(); err != nil {
		return Results{}, err
	}
	return e.calculate(opt, nil)
}

func (e *FdHestonVanillaEngine) calculate(opt VanillaOption, barrier *barrierSetup) (Results, error) {
	model := e.process.Model
	strike := opt.Payoff.Strike()
	maturity := opt.Exercise.Maturity()
	_, divAmounts := opt.dividendsBefore(maturity)

	v, err := meshers.NewHestonVarianceMesher(e.grid.VGrid, model, maturity,
		meshers.WithAveragingSteps(max(3, e.grid.TGrid/50)))
	if err != nil {
		return Results{}, fmt.Errorf("variance mesh: %w", err)
	}

	// the spot axis is sized with the average volatility of the variance mesh
	helper := models.NewBlackScholesProcess(e.process.Spot, e.process.Rate, e.process.Dividend, v.VolaEstimate())
	mesherOpts := []meshers.BlackScholesMesherOption{
		meshers.WithScaleFactor(2),
		meshers.WithConcentration(strike, strikeDensity),
		meshers.WithCashDividends(divAmounts...),
	}
	if barrier != nil {
		mesherOpts = append(mesherOpts, barrier.mesherOption())
	}
	x, err := meshers.NewBlackScholesMesher(e.grid.XGrid, helper, maturity, strike, mesherOpts...)
	if err != nil {
		return Results{}, fmt.Errorf("spot mesh: %w", err)
	}
	mesh, err := meshers.NewComposite(x, v)
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
		"engine", "heston",
		"exercise", opt.Exercise.Style.String(),
		"strike", strike,
		"maturity", maturity,
		"scheme", e.grid.Scheme.Type.String(),
		"feller", model.FellerSatisfied(),
	)

	s, err := solvers.NewHestonSolver(e.process, desc, e.grid.Scheme, solvers.WithLogger(e.opts.logger))
	if err != nil {
		return Results{}, err
	}

	spot, v0 := e.process.Spot, model.V0
	var res Results
	if res.NPV, err = s.ValueAt(spot, v0); err != nil {
		return Results{}, err
	}
	if res.Delta, err = s.DeltaAt(spot, v0); err != nil {
		return Results{}, err
	}
	if res.Gamma, err = s.GammaAt(spot, v0); err != nil {
		return Results{}, err
	}
	if res.Theta, err = s.ThetaAt(spot, v0); err != nil {
		return Results{}, err
	}
	return res, nil
}
