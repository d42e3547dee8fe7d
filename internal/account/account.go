package account

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"HorizonTrader/internal/model"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Exchange reads account balances and prices.
type Exchange interface {
	AssetBalance(ctx context.Context, asset string) (float64, error)
	SymbolPrice(ctx context.Context, symbol string) (float64, error)
}

// Holding is one asset of the account, on the exchange and in wallets.
type Holding struct {
	Asset    string
	Exchange float64
	Wallet   float64
	Price    float64
}

func (h Holding) Amount() float64 { return h.Exchange + h.Wallet }
func (h Holding) Value() float64  { return h.Amount() * h.Price }

// Summary values every owned asset in USDT.
type Summary struct {
	Holdings   []Holding
	Total      float64
	Investment float64
}

// Benefit is the total value minus the invested amount.
func (s Summary) Benefit() float64 { return s.Total - s.Investment }

// Account reports on everything the user owns, not only the traded amounts.
type Account struct {
	exchange   Exchange
	assets     []string
	wallet     map[string]float64
	investment float64
}

// New creates an Account over the owned assets plus the amounts held in
// off-exchange wallets.
func New(ex Exchange, assets []string, wallet map[string]float64, investment float64) *Account {
	extra := lo.Keys(wallet)
	slices.Sort(extra)
	return &Account{
		exchange:   ex,
		assets:     lo.Uniq(append(slices.Clone(assets), extra...)),
		wallet:     wallet,
		investment: investment,
	}
}

// Summary fetches balances and prices for every asset in parallel.
func (a *Account) Summary(ctx context.Context) (Summary, error) {
	var (
		mu       sync.Mutex
		holdings = make(map[string]Holding, len(a.assets))
		g, gctx  = errgroup.WithContext(ctx)
	)

	for _, asset := range a.assets {
		g.Go(func() error {
			h, err := a.holding(gctx, asset)
			if err != nil {
				return err
			}
			mu.Lock()
			holdings[asset] = h
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	ordered := lo.Map(a.assets, func(asset string, _ int) Holding { return holdings[asset] })
	return Summary{
		Holdings:   ordered,
		Total:      lo.SumBy(ordered, Holding.Value),
		Investment: a.investment,
	}, nil
}

func (a *Account) holding(ctx context.Context, asset string) (Holding, error) {
	balance, err := a.exchange.AssetBalance(ctx, asset)
	if err != nil {
		return Holding{}, fmt.Errorf("balance of %s: %w", asset, err)
	}

	price := 1.0
	if asset != model.QuoteAsset {
		price, err = a.exchange.SymbolPrice(ctx, asset+model.QuoteAsset)
		if err != nil {
			return Holding{}, fmt.Errorf("price of %s: %w", asset, err)
		}
	}

	h := Holding{Asset: asset, Exchange: balance, Wallet: a.wallet[asset], Price: price}
	log.Printf("[INFO] asset: %s balance: %g price: %g", asset, h.Amount(), price)
	return h, nil
}
