package strategy

import (
	"errors"
	"log"

	"HorizonTrader/internal/calculator"
	"HorizonTrader/internal/model"
)

// ErrStopConditionReached halts all trading for the rest of the process lifetime.
var ErrStopConditionReached = errors.New("stop condition reached")

// StopCondition trips once the traded portfolio is worth less than half of
// the initial USDT investment.
type StopCondition struct {
	InitialInvestment float64
	Symbols           []string
}

// Floor is the valuation under which trading stops.
func (c StopCondition) Floor() float64 {
	return c.InitialInvestment / 2
}

// Check values the portfolio at the latest prices and reports whether it fell below Floor.
func (c StopCondition) Check(balances model.Balances, stats map[string]model.AssetStat) (bool, float64) {
	valuation := calculator.Valuation(balances, stats, c.Symbols)
	log.Printf("[INFO] total traded asset amounts as usdt: %.4f, change: %.3f %%",
		valuation, calculator.ChangeFromInvestment(valuation, c.InitialInvestment))
	return valuation < c.Floor(), valuation
}
