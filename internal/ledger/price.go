package ledger

import (
	"errors"
	"fmt"
	"log"
	"maps"
	"sync"

	"HorizonTrader/internal/model"
)

// ErrNotSeeded is returned for lookups before Seed or for a pair that has no baseline.
var ErrNotSeeded = errors.New("price ledger not seeded")

// PriceLedger stores, per horizon and symbol, the price the last evaluation
// compared against. Every update rewrites the whole file.
type PriceLedger struct {
	mu        sync.RWMutex
	path      string
	baselines map[model.Horizon]map[string]float64
	seeded    bool
}

// OpenPriceLedger loads the ledger at path, if any.
func OpenPriceLedger(path string) (*PriceLedger, error) {
	l := &PriceLedger{path: path, baselines: make(map[model.Horizon]map[string]float64, len(model.AllHorizons))}
	for _, h := range model.AllHorizons {
		l.baselines[h] = make(map[string]float64)
	}

	var doc map[string]map[string]float64
	found, err := readJSON(path, &doc)
	if err != nil {
		return nil, fmt.Errorf("load price ledger: %w", err)
	}
	if !found {
		return l, nil
	}

	log.Printf("[INFO] loading last evaluated prices from %s", path)
	for key, prices := range doc {
		h, err := model.ParseHorizon(key)
		if err != nil {
			log.Printf("[WARN] price ledger: ignoring %v", err)
			continue
		}
		maps.Copy(l.baselines[h], prices)
	}
	return l, nil
}

// Seed gives every horizon a baseline for every symbol in prices. Pairs that
// already have a baseline, loaded from disk or seeded earlier, keep it.
func (l *PriceLedger) Seed(prices map[string]float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := false
	for _, h := range model.AllHorizons {
		for symbol, price := range prices {
			if _, ok := l.baselines[h][symbol]; ok {
				continue
			}
			l.baselines[h][symbol] = price
			changed = true
		}
	}
	l.seeded = true

	if !changed {
		return nil
	}
	log.Printf("[INFO] saving initial price data for %d symbols", len(prices))
	return l.save()
}

// Baseline returns the last evaluated price of symbol on horizon h.
func (l *PriceLedger) Baseline(h model.Horizon, symbol string) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.seeded {
		return 0, ErrNotSeeded
	}
	price, ok := l.baselines[h][symbol]
	if !ok {
		return 0, fmt.Errorf("%w: no %s baseline for %s", ErrNotSeeded, h, symbol)
	}
	return price, nil
}

// SetBaseline records price as the new baseline and persists the ledger
// before returning.
func (l *PriceLedger) SetBaseline(h model.Horizon, symbol string, price float64) error {
	if !h.Valid() {
		return fmt.Errorf("set baseline: unknown horizon %d", int(h))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.baselines[h][symbol] = price
	if err := l.save(); err != nil {
		return fmt.Errorf("persist %s baseline for %s: %w", h, symbol, err)
	}
	return nil
}

// Baselines returns a copy of every baseline.
func (l *PriceLedger) Baselines() map[model.Horizon]map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[model.Horizon]map[string]float64, len(l.baselines))
	for h, prices := range l.baselines {
		out[h] = maps.Clone(prices)
	}
	return out
}

// save must be called with the write lock held.
func (l *PriceLedger) save() error {
	doc := make(map[string]map[string]float64, len(l.baselines))
	for h, prices := range l.baselines {
		doc[h.Key()] = prices
	}
	return writeJSON(l.path, doc)
}
