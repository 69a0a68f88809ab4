package models

import "math"

// OptionType distinguishes calls from puts.
type OptionType int

const (
	Call OptionType = 1
	Put  OptionType = -1
)

func (t OptionType) String() string {
	if t == Put {
		return "put"
	}
	return "call"
}

// Payoff maps a terminal spot onto a cash amount.
type Payoff interface {
	Value(spot float64) float64
}

// StrikedPayoff is a payoff with a single strike, the only kind the
// finite-difference engines concentrate their meshes around.
type StrikedPayoff interface {
	Payoff
	Strike() float64
	OptionType() OptionType
}

// PlainVanillaPayoff pays max(±(S-K), 0).
type PlainVanillaPayoff struct {
	optionType OptionType
	strike     float64
}

func NewPlainVanillaPayoff(optionType OptionType, strike float64) *PlainVanillaPayoff {
	return &PlainVanillaPayoff{optionType: optionType, strike: strike}
}

func (p *PlainVanillaPayoff) Value(spot float64) float64 {
	if p.optionType == Put {
		return math.Max(p.strike-spot, 0)
	}
	return math.Max(spot-p.strike, 0)
}

func (p *PlainVanillaPayoff) Strike() float64        { return p.strike }
func (p *PlainVanillaPayoff) OptionType() OptionType { return p.optionType }

// CashOrNothingPayoff pays a fixed cash amount when the option ends in the money.
type CashOrNothingPayoff struct {
	optionType OptionType
	strike     float64
	cash       float64
}

func NewCashOrNothingPayoff(optionType OptionType, strike, cash float64) *CashOrNothingPayoff {
	return &CashOrNothingPayoff{optionType: optionType, strike: strike, cash: cash}
}

func (p *CashOrNothingPayoff) Value(spot float64) float64 {
	if (p.optionType == Call && spot > p.strike) || (p.optionType == Put && spot < p.strike) {
		return p.cash
	}
	return 0
}

func (p *CashOrNothingPayoff) Strike() float64        { return p.strike }
func (p *CashOrNothingPayoff) OptionType() OptionType { return p.optionType }
func (p *CashOrNothingPayoff) Cash() float64          { return p.cash }
