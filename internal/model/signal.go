package model

import (
	"fmt"
	"time"
)

// Side is the closed set of trading decisions.
type Side int

const (
	NoOrder Side = iota
	Buy
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "NO_ORDER"
	}
}

// Trigger pairs a percent threshold with the quantity to trade when it is crossed.
type Trigger struct {
	Percent  float64 `yaml:"percent" json:"percent"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
}

// ThresholdRule is the buy/sell configuration of one symbol on one horizon.
// Buy.Percent is a (negative) decrease, Sell.Percent a (positive) increase.
type ThresholdRule struct {
	Buy  Trigger `yaml:"buy" json:"buy"`
	Sell Trigger `yaml:"sell" json:"sell"`
}

// Thresholds maps symbol -> horizon -> rule.
type Thresholds map[string]map[Horizon]ThresholdRule

// Lookup returns the rule for a symbol on a horizon.
func (t Thresholds) Lookup(symbol string, h Horizon) (ThresholdRule, bool) {
	byHorizon, ok := t[symbol]
	if !ok {
		return ThresholdRule{}, false
	}
	rule, ok := byHorizon[h]
	return rule, ok
}

// Decision is the result of checking one change percent against a rule.
type Decision struct {
	Side     Side
	Symbol   string
	Quantity float64
}

// Order is a feasible decision waiting for the executor. It is never
// modified after it has been enqueued.
type Order struct {
	ID             string
	Side           Side
	Symbol         string
	Quantity       float64
	ReferencePrice float64
	Horizon        Horizon
	CreatedAt      time.Time
}

func (o Order) String() string {
	return fmt.Sprintf("%s:%s:%g:%g", o.Side, o.Symbol, o.Quantity, o.ReferencePrice)
}

// Execution is what the exchange reported for a filled market order.
type Execution struct {
	OrderID         int64
	ExecutedQty     float64
	QuoteQty        float64
	Commission      float64
	CommissionAsset string
}
