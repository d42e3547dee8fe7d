package strategy

import (
	"context"
	"fmt"
	"log"
	"time"

	"HorizonTrader/internal/metrics"
	"HorizonTrader/internal/model"

	"github.com/google/uuid"
)

// OrderSink accepts orders for execution.
type OrderSink interface {
	Enqueue(ctx context.Context, order model.Order) error
}

// BalanceReader gives a consistent view of the traded balances.
type BalanceReader interface {
	Snapshot() model.Balances
}

// Decide checks a change percent against a rule. The buy and sell checks
// are independent and the later match wins, so a sell overrides a buy.
func Decide(symbol string, rule model.ThresholdRule, changePercent float64) model.Decision {
	d := model.Decision{Side: model.NoOrder, Symbol: symbol}
	if changePercent <= rule.Buy.Percent {
		d.Side = model.Buy
		d.Quantity = rule.Buy.Quantity
	}
	if changePercent >= rule.Sell.Percent {
		d.Side = model.Sell
		d.Quantity = rule.Sell.Quantity
	}
	return d
}

// Engine turns the change percentages of one horizon cycle into orders.
type Engine struct {
	Thresholds model.Thresholds
	Stop       StopCondition
	Balances   BalanceReader
	Sink       OrderSink
	Metrics    *metrics.Metrics

	now func() time.Time
}

// NewEngine creates an Engine. Symbols are evaluated in the order of stop.Symbols.
func NewEngine(thresholds model.Thresholds, stop StopCondition, balances BalanceReader, sink OrderSink, m *metrics.Metrics) *Engine {
	return &Engine{
		Thresholds: thresholds,
		Stop:       stop,
		Balances:   balances,
		Sink:       sink,
		Metrics:    m,
		now:        time.Now,
	}
}

// Perform evaluates every traded symbol that has a change percent. The stop
// condition is checked for each symbol before anything is enqueued; once it
// trips, Perform returns ErrStopConditionReached and submits nothing more.
func (e *Engine) Perform(ctx context.Context, h model.Horizon, changes map[string]float64, snapshot map[string]model.AssetStat) error {
	log.Printf("[INFO] performing strategy for %s interval", h)

	for _, symbol := range e.Stop.Symbols {
		change, ok := changes[symbol]
		if !ok {
			continue
		}

		decision := e.decide(h, symbol, change)
		e.Metrics.ObserveDecision(h.String(), symbol, decision.Side.String())

		balances := e.Balances.Snapshot()
		reached, valuation := e.Stop.Check(balances, snapshot)
		e.Metrics.SetValuation(valuation)
		if reached {
			log.Printf("[WARN] ===== STOP CONDITION REACHED ===== valuation=%.4f floor=%.4f", valuation, e.Stop.Floor())
			return fmt.Errorf("%w: valuation %.4f below %.4f", ErrStopConditionReached, valuation, e.Stop.Floor())
		}

		if decision.Side == model.NoOrder {
			continue
		}

		price := snapshot[symbol].LatestPrice
		if err := Feasible(decision, price, balances); err != nil {
			log.Printf("[INFO] not enough assets to %s %g %s: %v", decision.Side, decision.Quantity, symbol, err)
			e.Metrics.ObserveRejection(symbol, rejectionReason(err))
			continue
		}

		order := model.Order{
			ID:             uuid.NewString(),
			Side:           decision.Side,
			Symbol:         symbol,
			Quantity:       decision.Quantity,
			ReferencePrice: price,
			Horizon:        h,
			CreatedAt:      e.now(),
		}
		log.Printf("[INFO] adding order[%s] from %s interval to queue", order, h)
		if err := e.Sink.Enqueue(ctx, order); err != nil {
			return fmt.Errorf("enqueue order %s: %w", order, err)
		}
	}
	return nil
}

func (e *Engine) decide(h model.Horizon, symbol string, change float64) model.Decision {
	rule, ok := e.Thresholds.Lookup(symbol, h)
	if !ok {
		log.Printf("[WARN] no %s threshold rule for %s", h, symbol)
		return model.Decision{Side: model.NoOrder, Symbol: symbol}
	}
	d := Decide(symbol, rule, change)
	switch d.Side {
	case model.Buy:
		log.Printf("[INFO] decided to buy %g %s (%s change %.3f%%)", d.Quantity, symbol, h, change)
	case model.Sell:
		log.Printf("[INFO] decided to sell %g %s (%s change %.3f%%)", d.Quantity, symbol, h, change)
	default:
		log.Printf("[INFO] decided not to buy or sell %s (%s change %.3f%%)", symbol, h, change)
	}
	return d
}
