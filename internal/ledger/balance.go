package ledger

import (
	"fmt"
	"log"
	"sync/atomic"

	"HorizonTrader/internal/model"
)

// BalanceLedger tracks the amounts bought and sold by the trader, plus its
// USDT. Apply has a single caller, the order executor; everything else only
// reads through the atomically published snapshot.
type BalanceLedger struct {
	path    string
	current atomic.Pointer[model.Balances]
}

// OpenBalanceLedger restores the ledger from path, or starts from initial
// when no file exists yet.
func OpenBalanceLedger(path string, initial model.Balances) (*BalanceLedger, error) {
	var stored model.Balances
	found, err := readJSON(path, &stored)
	if err != nil {
		return nil, fmt.Errorf("load balance ledger: %w", err)
	}

	l := &BalanceLedger{path: path}
	if found && len(stored) > 0 {
		log.Printf("[INFO] restoring traded asset amounts from %s", path)
		l.current.Store(&stored)
		return l, nil
	}

	start := initial.Clone()
	l.current.Store(&start)
	if err := writeJSON(path, start); err != nil {
		return nil, fmt.Errorf("store initial balances: %w", err)
	}
	return l, nil
}

// Snapshot returns a copy of the current balances.
func (l *BalanceLedger) Snapshot() model.Balances {
	return (*l.current.Load()).Clone()
}

// Apply adds assetDelta to symbol and usdtDelta to the quote balance, then
// rewrites the ledger file. The new balances are published even when the
// flush fails, since they mirror a fill that already happened.
func (l *BalanceLedger) Apply(symbol string, assetDelta, usdtDelta float64) (model.Balances, error) {
	next := l.Snapshot()
	next[symbol] += assetDelta
	next[model.QuoteAsset] += usdtDelta
	published := next.Clone()
	l.current.Store(&published)

	log.Printf("[INFO] updated %s by %g, current USDT amount=%g", symbol, assetDelta, next.USDT())

	if err := writeJSON(l.path, next); err != nil {
		return next, fmt.Errorf("flush balances to %s: %w", l.path, err)
	}
	return next, nil
}
