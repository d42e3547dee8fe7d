package strategy

import (
	"errors"
	"fmt"

	"HorizonTrader/internal/model"
)

var (
	ErrInsufficientUSDT  = errors.New("insufficient USDT")
	ErrInsufficientAsset = errors.New("insufficient asset balance")
	ErrNoOrder           = errors.New("decision is not an order")
)

// Feasible reports whether the tracked balances can cover a decision.
func Feasible(d model.Decision, price float64, balances model.Balances) error {
	switch d.Side {
	case model.Buy:
		if cost := d.Quantity * price; cost > balances.USDT() {
			return fmt.Errorf("%w: need %g, have %g", ErrInsufficientUSDT, cost, balances.USDT())
		}
	case model.Sell:
		if have := balances[d.Symbol]; have < d.Quantity {
			return fmt.Errorf("%w: need %g %s, have %g", ErrInsufficientAsset, d.Quantity, d.Symbol, have)
		}
	default:
		return ErrNoOrder
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientUSDT):
		return "insufficient_usdt"
	case errors.Is(err, ErrInsufficientAsset):
		return "insufficient_asset"
	default:
		return "other"
	}
}
