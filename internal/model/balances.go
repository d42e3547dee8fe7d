package model

import (
	"maps"
	"sort"
)

// QuoteAsset is the ledger entry holding the traded USDT.
const QuoteAsset = "USDT"

// Balances maps a symbol (plus QuoteAsset) to the amount held by the trader.
type Balances map[string]float64

// Clone returns an independent copy.
func (b Balances) Clone() Balances {
	if b == nil {
		return Balances{}
	}
	return maps.Clone(b)
}

// USDT returns the quote balance.
func (b Balances) USDT() float64 {
	return b[QuoteAsset]
}

// Symbols returns the non-quote entries sorted by name.
func (b Balances) Symbols() []string {
	out := make([]string, 0, len(b))
	for s := range b {
		if s != QuoteAsset {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
