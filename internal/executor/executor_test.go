package executor

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"HorizonTrader/internal/ledger"
	"HorizonTrader/internal/model"
	"HorizonTrader/internal/recorder"

	"github.com/adshao/go-binance/v2/common"
)

type fakeExchange struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]error
	commis float64
	nextID int64
}

func (f *fakeExchange) place(side, symbol string, qty float64) (model.Execution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, side+":"+symbol)
	if err, ok := f.fail[side+":"+symbol]; ok {
		return model.Execution{}, err
	}
	f.nextID++
	return model.Execution{
		OrderID:         f.nextID,
		ExecutedQty:     qty,
		QuoteQty:        qty * 1.25,
		Commission:      f.commis,
		CommissionAsset: "BNB",
	}, nil
}

func (f *fakeExchange) MarketBuy(_ context.Context, symbol string, qty float64) (model.Execution, error) {
	return f.place("BUY", symbol, qty)
}

func (f *fakeExchange) MarketSell(_ context.Context, symbol string, qty float64) (model.Execution, error) {
	return f.place("SELL", symbol, qty)
}

type memRecorder struct {
	recorder.NoopRecorder
	events []*recorder.ExecutionEvent
}

func (m *memRecorder) RecordExecution(evt *recorder.ExecutionEvent) error {
	m.events = append(m.events, evt)
	return nil
}

func openLedger(t *testing.T, initial model.Balances) *ledger.BalanceLedger {
	t.Helper()
	l, err := ledger.OpenBalanceLedger(filepath.Join(t.TempDir(), "balances.json"), initial)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	return l
}

func order(side model.Side, symbol string, qty, price float64) model.Order {
	return model.Order{ID: symbol + side.String(), Side: side, Symbol: symbol, Quantity: qty, ReferencePrice: price, Horizon: model.Horizon10Sec}
}

func runAll(t *testing.T, ex *fakeExchange, l Ledger, rec recorder.Recorder, orders ...model.Order) {
	t.Helper()
	q := NewQueue(len(orders)+1, nil)
	for _, o := range orders {
		if err := q.Enqueue(context.Background(), o); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	q.Close()

	done := make(chan struct{})
	go func() {
		New(q, ex, l, rec, nil, nil).Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("executor did not drain the queue")
	}
}

func TestExecutor_ExecutesInArrivalOrder(t *testing.T) {
	ex := &fakeExchange{}
	l := openLedger(t, model.Balances{"ADAUSDT": 100, "VETUSDT": 100, "USDT": 1000})

	runAll(t, ex, l, nil,
		order(model.Buy, "ADAUSDT", 1, 1),
		order(model.Sell, "VETUSDT", 1, 1),
		order(model.Sell, "ADAUSDT", 1, 1),
		order(model.Buy, "VETUSDT", 1, 1),
	)

	want := []string{"BUY:ADAUSDT", "SELL:VETUSDT", "SELL:ADAUSDT", "BUY:VETUSDT"}
	if len(ex.calls) != len(want) {
		t.Fatalf("calls = %v", ex.calls)
	}
	for i := range want {
		if ex.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, ex.calls[i], want[i])
		}
	}
}

func TestExecutor_AppliesSumOfFilledDeltas(t *testing.T) {
	ex := &fakeExchange{
		commis: 0.1,
		fail: map[string]error{
			"SELL:VETUSDT": &common.APIError{Code: -2010, Message: "insufficient balance"},
		},
	}
	l := openLedger(t, model.Balances{"ADAUSDT": 0, "VETUSDT": 500, "USDT": 120})
	rec := &memRecorder{}

	runAll(t, ex, l, rec,
		order(model.Buy, "ADAUSDT", 10, 1.2),    // ADA +9.9, USDT -12
		order(model.Sell, "VETUSDT", 200, 0.02), // fails, no effect
		order(model.Sell, "ADAUSDT", 5, 1.3),    // ADA -5, USDT +6.4
	)

	got := l.Snapshot()
	checks := map[string]float64{"ADAUSDT": 4.9, "VETUSDT": 500, "USDT": 120 - 12 + 6.4}
	for symbol, want := range checks {
		if math.Abs(got[symbol]-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", symbol, got[symbol], want)
		}
	}

	if len(rec.events) != 3 {
		t.Fatalf("recorded %d executions, want 3", len(rec.events))
	}
	failed := rec.events[1]
	if failed.Status != "FAILED" || failed.ErrorClass != "api" {
		t.Errorf("failed event = %+v", failed)
	}
	if rec.events[2].Status != "FILLED" || math.Abs(rec.events[2].AssetAfter-4.9) > 1e-9 {
		t.Errorf("last event = %+v", rec.events[2])
	}

	filled := rec.events[0]
	if filled.ExecutedQty != 10 || filled.QuoteQty != 12.5 || filled.Commission != 0.1 || filled.CommissionAsset != "BNB" {
		t.Errorf("filled event = %+v", filled)
	}
	if failed.ExecutedQty != 0 || failed.CommissionAsset != "" {
		t.Errorf("failed event carries fill data: %+v", failed)
	}
}

func TestSettle(t *testing.T) {
	buy := order(model.Buy, "ADAUSDT", 10, 2)
	asset, usdt := Settle(buy, model.Execution{Commission: 0.01})
	if math.Abs(asset-9.99) > 1e-12 || usdt != -20 {
		t.Errorf("buy deltas = %v, %v", asset, usdt)
	}

	sell := order(model.Sell, "ADAUSDT", 10, 2)
	asset, usdt = Settle(sell, model.Execution{Commission: 0.02})
	if asset != -10 || math.Abs(usdt-19.98) > 1e-12 {
		t.Errorf("sell deltas = %v, %v", asset, usdt)
	}
}

func TestQueue_ClosedRejectsOrders(t *testing.T) {
	q := NewQueue(1, nil)
	q.Close()
	q.Close()
	if err := q.Enqueue(context.Background(), order(model.Buy, "ADAUSDT", 1, 1)); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestQueue_FullHonoursContext(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Enqueue(context.Background(), order(model.Buy, "ADAUSDT", 1, 1)); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, order(model.Buy, "ADAUSDT", 1, 1)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue(4, nil)
	ex := &fakeExchange{}
	l := openLedger(t, model.Balances{"ADAUSDT": 1000, "USDT": 1000})

	done := make(chan struct{})
	go func() {
		New(q, ex, l, nil, nil, nil).Run(context.Background())
		close(done)
	}()

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				if err := q.Enqueue(context.Background(), order(model.Sell, "ADAUSDT", 1, 1)); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	q.Close()
	<-done

	if got := l.Snapshot()["ADAUSDT"]; got != 950 {
		t.Errorf("ADAUSDT = %v, want 950", got)
	}
}
