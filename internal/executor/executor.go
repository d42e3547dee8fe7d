package executor

import (
	"context"
	"fmt"
	"log"

	"HorizonTrader/internal/exchange"
	"HorizonTrader/internal/metrics"
	"HorizonTrader/internal/model"
	"HorizonTrader/internal/notifier"
	"HorizonTrader/internal/recorder"
)

// Exchange places market orders.
type Exchange interface {
	MarketBuy(ctx context.Context, symbol string, quantity float64) (model.Execution, error)
	MarketSell(ctx context.Context, symbol string, quantity float64) (model.Execution, error)
}

// Ledger receives the balance changes of filled orders.
type Ledger interface {
	Apply(symbol string, assetDelta, usdtDelta float64) (model.Balances, error)
}

// Executor is the single consumer of the order queue.
type Executor struct {
	queue    *Queue
	exchange Exchange
	ledger   Ledger
	recorder recorder.Recorder
	notifier notifier.Notifier
	metrics  *metrics.Metrics
}

// New creates an Executor. A nil recorder or notifier disables that output.
func New(queue *Queue, ex Exchange, ledger Ledger, rec recorder.Recorder, n notifier.Notifier, m *metrics.Metrics) *Executor {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if n == nil {
		n = notifier.Noop{}
	}
	return &Executor{queue: queue, exchange: ex, ledger: ledger, recorder: rec, notifier: n, metrics: m}
}

// Run executes orders one at a time in arrival order. It returns once the
// queue is closed and every pending order has been handled, so ctx should
// not be the process shutdown context if queued orders must still go out.
func (e *Executor) Run(ctx context.Context) {
	log.Println("[INFO] order executor started")
	for order := range e.queue.orders {
		e.metrics.SetQueueDepth(e.queue.Len())
		e.execute(ctx, order)
	}
	log.Println("[INFO] order executor stopped")
}

func (e *Executor) execute(ctx context.Context, order model.Order) {
	log.Printf("[INFO] executing order[%s] from %s interval", order, order.Horizon)

	evt := &recorder.ExecutionEvent{
		OrderID:        order.ID,
		Horizon:        order.Horizon.String(),
		Side:           order.Side.String(),
		Symbol:         order.Symbol,
		Quantity:       order.Quantity,
		ReferencePrice: order.ReferencePrice,
	}

	exec, err := e.submit(ctx, order)
	if err != nil {
		class := exchange.Classify(err)
		log.Printf("[ERROR] %s error while executing order[%s]: %v", class, order, err)
		e.metrics.ObserveOrder(order.Side.String(), "failed_"+class)

		evt.Status = "FAILED"
		evt.ErrorClass = class
		evt.Error = err.Error()
		e.record(evt)
		e.notifier.Notify(ctx, notifier.FormatFailure(order, class, err))
		return
	}
	log.Printf("[INFO] order[%s] filled: exchange id %d, commission %g %s",
		order, exec.OrderID, exec.Commission, exec.CommissionAsset)

	assetDelta, usdtDelta := Settle(order, exec)
	balances, err := e.ledger.Apply(order.Symbol, assetDelta, usdtDelta)
	if err != nil {
		log.Printf("[ERROR] persist balances after order[%s]: %v", order, err)
	}
	e.metrics.ObserveOrder(order.Side.String(), "filled")
	e.metrics.SetBalances(balances)

	evt.ExchangeOrderID = exec.OrderID
	evt.ExecutedQty = exec.ExecutedQty
	evt.QuoteQty = exec.QuoteQty
	evt.Commission = exec.Commission
	evt.CommissionAsset = exec.CommissionAsset
	evt.AssetDelta = assetDelta
	evt.USDTDelta = usdtDelta
	evt.AssetAfter = balances[order.Symbol]
	evt.USDTAfter = balances.USDT()
	evt.Status = "FILLED"
	e.record(evt)
	e.notifier.Notify(ctx, notifier.FormatExecution(order, exec, balances))
}

func (e *Executor) submit(ctx context.Context, order model.Order) (model.Execution, error) {
	switch order.Side {
	case model.Buy:
		return e.exchange.MarketBuy(ctx, order.Symbol, order.Quantity)
	case model.Sell:
		return e.exchange.MarketSell(ctx, order.Symbol, order.Quantity)
	default:
		return model.Execution{}, fmt.Errorf("%w: unsupported side %s", exchange.ErrOrderRejected, order.Side)
	}
}

func (e *Executor) record(evt *recorder.ExecutionEvent) {
	if err := e.recorder.RecordExecution(evt); err != nil {
		log.Printf("[WARN] record execution %s: %v", evt.OrderID, err)
	}
}

// Settle returns the asset and USDT deltas of a filled order. Amounts are
// valued at the order's reference price and the commission is taken from
// the received side.
func Settle(order model.Order, exec model.Execution) (assetDelta, usdtDelta float64) {
	notional := order.Quantity * order.ReferencePrice
	switch order.Side {
	case model.Buy:
		return order.Quantity - exec.Commission, -notional
	case model.Sell:
		return -order.Quantity, notional - exec.Commission
	}
	return 0, 0
}
