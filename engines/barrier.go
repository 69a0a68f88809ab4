package engines

import (
	"fmt"

	"github.com/bcdannyboy/fdquant/models"
)

// FdBlackScholesBarrierEngine prices European knock-out options. The spot
// mesh ends at the barrier, where the value is pinned to the rebate.
type FdBlackScholesBarrierEngine struct {
	vanilla *FdBlackScholesVanillaEngine
}

func NewFdBlackScholesBarrierEngine(process *models.BlackScholesProcess, grid GridParams, opts ...Option) (*FdBlackScholesBarrierEngine, error) {
	vanilla, err := NewFdBlackScholesVanillaEngine(process, grid, opts...)
	if err != nil {
		return nil, err
	}
	return &FdBlackScholesBarrierEngine{vanilla: vanilla}, nil
}

func (e *FdBlackScholesBarrierEngine) Calculate(opt BarrierOption) (Results, error) {
	barrier, err := newBarrierSetup(opt, e.vanilla.process.Spot)
	if err != nil {
		return Results{}, err
	}
	return e.vanilla.calculate(opt.VanillaOption, &barrier)
}

// FdHestonBarrierEngine is the Heston counterpart of
// FdBlackScholesBarrierEngine.
type FdHestonBarrierEngine struct {
	vanilla *FdHestonVanillaEngine
}

func NewFdHestonBarrierEngine(process *models.HestonProcess, grid GridParams, opts ...Option) (*FdHestonBarrierEngine, error) {
	vanilla, err := NewFdHestonVanillaEngine(process, grid, opts...)
	if err != nil {
		return nil, err
	}
	return &FdHestonBarrierEngine{vanilla: vanilla}, nil
}

func (e *FdHestonBarrierEngine) Calculate(opt BarrierOption) (Results, error) {
	barrier, err := newBarrierSetup(opt, e.vanilla.process.Spot)
	if err != nil {
		return Results{}, fmt.Errorf("heston barrier: %w", err)
	}
	return e.vanilla.calculate(opt.VanillaOption, &barrier)
}
