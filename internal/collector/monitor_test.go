package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"HorizonTrader/internal/model"

	"github.com/adshao/go-binance/v2"
)

type recordingSink struct {
	mu    sync.Mutex
	ticks []model.Tick
}

func (s *recordingSink) Update(tick model.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks = append(s.ticks, tick)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ticks)
}

// fakeStreams stands in for the websocket: every serve call is recorded and
// its stream ends when stopped or killed.
type fakeStreams struct {
	mu         sync.Mutex
	opened     []string
	handler    binance.WsMarketStatHandler
	errHandler binance.ErrHandler
	failOn     string
	kills      []chan struct{}
}

func (f *fakeStreams) serve(symbol string, h binance.WsMarketStatHandler, eh binance.ErrHandler) (chan struct{}, chan struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if symbol == f.failOn {
		return nil, nil, errors.New("dial failed")
	}
	f.opened = append(f.opened, symbol)
	f.handler, f.errHandler = h, eh

	done, stop, kill := make(chan struct{}), make(chan struct{}), make(chan struct{})
	f.kills = append(f.kills, kill)
	go func() {
		select {
		case <-stop:
		case <-kill:
		}
		close(done)
	}()
	return done, stop, nil
}

func (f *fakeStreams) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opened)
}

func (f *fakeStreams) handlers() (binance.WsMarketStatHandler, binance.ErrHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler, f.errHandler
}

func newTestMonitor(streams *fakeStreams, sink TickSink, symbols ...string) *Monitor {
	m := NewMonitor(symbols, sink, nil)
	m.serve = streams.serve
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMonitor_FeedsTicksAndStopsOnCancel(t *testing.T) {
	streams := &fakeStreams{}
	sink := &recordingSink{}
	m := newTestMonitor(streams, sink, "ADAUSDT", "VETUSDT")

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- m.Run(ctx) }()

	waitFor(t, "streams to open", func() bool { return streams.openCount() == 2 })
	handler, _ := streams.handlers()
	handler(&binance.WsMarketStatEvent{
		Symbol: "ADAUSDT", LastPrice: "1.25", PrevClosePrice: "1.20",
		PriceChange: "0.05", PriceChangePercent: "4.167", Time: 1700000000000,
	})

	if sink.count() != 1 {
		t.Fatalf("sink got %d ticks, want 1", sink.count())
	}
	tick := sink.ticks[0]
	if tick.ClosePrice != 1.25 || tick.PrevDayClosePrice != 1.2 || tick.ChangePercent != 4.167 {
		t.Errorf("unexpected tick: %+v", tick)
	}

	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if streams.openCount() != 2 {
		t.Errorf("streams reopened on shutdown: %d", streams.openCount())
	}
}

func TestMonitor_ReconnectsAfterTooManyErrors(t *testing.T) {
	streams := &fakeStreams{}
	m := newTestMonitor(streams, &recordingSink{}, "ADAUSDT")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitFor(t, "stream to open", func() bool { return streams.openCount() == 1 })
	handler, errHandler := streams.handlers()

	// A good message in between resets the run of errors.
	for range MaxConsecutiveErrors {
		errHandler(errors.New("boom"))
	}
	handler(&binance.WsMarketStatEvent{Symbol: "ADAUSDT", LastPrice: "1", PrevClosePrice: "1", PriceChange: "0", PriceChangePercent: "0"})
	for range MaxConsecutiveErrors {
		errHandler(errors.New("boom"))
	}
	time.Sleep(20 * time.Millisecond)
	if streams.openCount() != 1 {
		t.Fatalf("reconnected without %d consecutive errors", MaxConsecutiveErrors+1)
	}

	errHandler(errors.New("boom"))
	waitFor(t, "reconnect", func() bool { return streams.openCount() == 2 })
}

func TestMonitor_ReconnectsWhenStreamEnds(t *testing.T) {
	streams := &fakeStreams{}
	m := newTestMonitor(streams, &recordingSink{}, "ADAUSDT")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitFor(t, "stream to open", func() bool { return streams.openCount() == 1 })
	streams.mu.Lock()
	close(streams.kills[0])
	streams.mu.Unlock()

	waitFor(t, "reconnect", func() bool { return streams.openCount() == 2 })
}

func TestMonitor_StartFailure(t *testing.T) {
	streams := &fakeStreams{failOn: "VETUSDT"}
	m := newTestMonitor(streams, &recordingSink{}, "ADAUSDT", "VETUSDT")

	err := m.Run(context.Background())
	if !errors.Is(err, ErrMonitoringStart) {
		t.Fatalf("expected ErrMonitoringStart, got %v", err)
	}
}

func TestParseTick_BadField(t *testing.T) {
	_, err := parseTick(&binance.WsMarketStatEvent{Symbol: "ADAUSDT", LastPrice: "x"})
	if err == nil {
		t.Fatal("expected parse error")
	}
}
