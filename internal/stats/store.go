package stats

import (
	"sort"
	"sync"
	"time"

	"HorizonTrader/internal/model"
)

// Store keeps the latest statistics of every symbol fed by the tick stream.
// One goroutine writes (the ticker callback), any number read.
type Store struct {
	mu    sync.RWMutex
	stats map[string]model.AssetStat
}

func NewStore() *Store {
	return &Store{stats: make(map[string]model.AssetStat)}
}

// Update records a tick, moving the previous latest price into PrevPrice.
func (s *Store) Update(tick model.Tick) {
	at := tick.EventTime
	if at.IsZero() {
		at = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.stats[tick.Symbol]
	s.stats[tick.Symbol] = model.AssetStat{
		PrevPrice:     prev.LatestPrice,
		LatestPrice:   tick.ClosePrice,
		PrevDayPrice:  tick.PrevDayClosePrice,
		PriceChange:   tick.PriceChange,
		ChangePercent: tick.ChangePercent,
		UpdatedAt:     at,
	}
}

// Get returns the statistics of one symbol.
func (s *Store) Get(symbol string) (model.AssetStat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[symbol]
	return st, ok
}

// Snapshot returns a point-in-time copy of all entries.
func (s *Store) Snapshot() map[string]model.AssetStat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := make(map[string]model.AssetStat, len(s.stats))
	for k, v := range s.stats {
		clone[k] = v
	}
	return clone
}

// Symbols returns every symbol seen so far, sorted.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.stats))
	for k := range s.stats {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
