package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"HorizonTrader/internal/metrics"
	"HorizonTrader/internal/model"

	"github.com/adshao/go-binance/v2"
)

// ErrMonitoringStart is returned when the ticker streams cannot be opened.
var ErrMonitoringStart = errors.New("failed to start price monitoring")

// MaxConsecutiveErrors is how many stream errors in a row are tolerated
// before every stream is reconnected.
const MaxConsecutiveErrors = 10

// ServeFunc opens a 24h ticker stream for one symbol.
type ServeFunc func(symbol string, handler binance.WsMarketStatHandler, errHandler binance.ErrHandler) (doneC, stopC chan struct{}, err error)

// TickSink receives parsed ticks.
type TickSink interface {
	Update(tick model.Tick)
}

type stream struct {
	symbol string
	done   chan struct{}
	stop   chan struct{}
}

// Monitor keeps one ticker stream open per traded symbol and feeds the
// ticks into a TickSink.
type Monitor struct {
	symbols []string
	sink    TickSink
	metrics *metrics.Metrics
	serve   ServeFunc

	errCount  atomic.Int32
	reconnect chan struct{}
}

// NewMonitor creates a Monitor over the Binance spot websocket.
func NewMonitor(symbols []string, sink TickSink, m *metrics.Metrics) *Monitor {
	return &Monitor{
		symbols:   symbols,
		sink:      sink,
		metrics:   m,
		serve:     binance.WsMarketStatServe,
		reconnect: make(chan struct{}, 1),
	}
}

// Run opens the streams and blocks until ctx is done. It returns an error
// wrapping ErrMonitoringStart when a stream cannot be opened, initially or
// on reconnect.
func (m *Monitor) Run(ctx context.Context) error {
	log.Println("[INFO] start monitoring prices...")

	for {
		genCtx, cancelGen := context.WithCancel(ctx)
		streams, err := m.open(genCtx)
		if err != nil {
			cancelGen()
			return err
		}

		select {
		case <-ctx.Done():
			cancelGen()
			m.close(streams)
			log.Println("[INFO] stop monitoring prices...")
			return nil
		case <-m.reconnect:
			cancelGen()
			m.close(streams)
			m.metrics.ObserveReconnect()
			log.Println("[WARN] reconnecting ticker streams")
		}
	}
}

func (m *Monitor) open(genCtx context.Context) ([]stream, error) {
	streams := make([]stream, 0, len(m.symbols))
	for _, symbol := range m.symbols {
		done, stop, err := m.serve(symbol, m.handleEvent, m.handleError)
		if err != nil {
			m.close(streams)
			return nil, fmt.Errorf("%w: %s: %v", ErrMonitoringStart, symbol, err)
		}
		s := stream{symbol: symbol, done: done, stop: stop}
		streams = append(streams, s)

		go func() {
			<-s.done
			if genCtx.Err() == nil {
				log.Printf("[WARN] ticker stream for %s closed unexpectedly", s.symbol)
				m.requestReconnect()
			}
		}()
	}
	return streams, nil
}

func (m *Monitor) close(streams []stream) {
	for _, s := range streams {
		close(s.stop)
	}
	for _, s := range streams {
		select {
		case <-s.done:
		case <-time.After(5 * time.Second):
			log.Printf("[WARN] ticker stream for %s did not close in time", s.symbol)
		}
	}
}

func (m *Monitor) requestReconnect() {
	select {
	case m.reconnect <- struct{}{}:
	default:
	}
}

func (m *Monitor) handleEvent(event *binance.WsMarketStatEvent) {
	tick, err := parseTick(event)
	if err != nil {
		m.handleError(err)
		return
	}
	m.errCount.Store(0)

	log.Printf("[INFO] symbol: %s, close price: %g, prev. day close price: %g, change: %g, change percent: %g",
		tick.Symbol, tick.ClosePrice, tick.PrevDayClosePrice, tick.PriceChange, tick.ChangePercent)
	m.metrics.ObserveTick(tick.Symbol)
	m.sink.Update(tick)
}

func (m *Monitor) handleError(err error) {
	m.metrics.ObserveTickError()
	n := m.errCount.Add(1)
	log.Printf("[ERROR] error received from symbol ticker socket (%d in a row): %v", n, err)

	if n > MaxConsecutiveErrors {
		log.Printf("[ERROR] more than %d consecutive ticker errors", MaxConsecutiveErrors)
		m.errCount.Store(0)
		m.requestReconnect()
	}
}

func parseTick(event *binance.WsMarketStatEvent) (model.Tick, error) {
	if event == nil {
		return model.Tick{}, errors.New("empty ticker event")
	}

	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"c", event.LastPrice, new(float64)},
		{"x", event.PrevClosePrice, new(float64)},
		{"p", event.PriceChange, new(float64)},
		{"P", event.PriceChangePercent, new(float64)},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return model.Tick{}, fmt.Errorf("parse %s field %q of %s ticker: %w", f.name, f.raw, event.Symbol, err)
		}
		*f.dst = v
	}

	return model.Tick{
		Symbol:            event.Symbol,
		ClosePrice:        *fields[0].dst,
		PrevDayClosePrice: *fields[1].dst,
		PriceChange:       *fields[2].dst,
		ChangePercent:     *fields[3].dst,
		EventTime:         time.UnixMilli(event.Time),
	}, nil
}
