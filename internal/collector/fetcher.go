package collector

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
)

// PriceFetcher looks up the current price of a symbol.
type PriceFetcher interface {
	SymbolPrice(ctx context.Context, symbol string) (float64, error)
}

// FetchPrices gets the current price of every symbol in parallel. Any
// failure fails the whole fetch.
func FetchPrices(ctx context.Context, f PriceFetcher, symbols []string) (map[string]float64, error) {
	var (
		mu      sync.Mutex
		prices  = make(map[string]float64, len(symbols))
		g, gctx = errgroup.WithContext(ctx)
	)

	for _, symbol := range symbols {
		g.Go(func() error {
			price, err := f.SymbolPrice(gctx, symbol)
			if err != nil {
				return fmt.Errorf("fetch price of %s: %w", symbol, err)
			}
			mu.Lock()
			prices[symbol] = price
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Printf("[INFO] initial prices: %v", prices)
	return prices, nil
}
