package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments of the trader. All methods are
// safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	TicksTotal      *prometheus.CounterVec
	TickErrorsTotal prometheus.Counter
	Reconnects      prometheus.Counter

	ChangePercent  *prometheus.GaugeVec
	CyclesTotal    *prometheus.CounterVec
	DecisionsTotal *prometheus.CounterVec
	Rejections     *prometheus.CounterVec
	Valuation      prometheus.Gauge

	QueueDepth  prometheus.Gauge
	OrdersTotal *prometheus.CounterVec
	Balance     *prometheus.GaugeVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TicksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_ticks_total",
			Help: "Ticker updates received per symbol",
		}, []string{"symbol"}),
		TickErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "trader_tick_errors_total",
			Help: "Error events received from the ticker streams",
		}),
		Reconnects: f.NewCounter(prometheus.CounterOpts{
			Name: "trader_ticker_reconnects_total",
			Help: "Ticker stream reconnections after repeated errors",
		}),
		ChangePercent: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trader_change_percent",
			Help: "Last evaluated price change percent per horizon and symbol",
		}, []string{"horizon", "symbol"}),
		CyclesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_cycles_total",
			Help: "Completed evaluation cycles per horizon",
		}, []string{"horizon", "result"}),
		DecisionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_decisions_total",
			Help: "Decisions per horizon, symbol and side",
		}, []string{"horizon", "symbol", "side"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_feasibility_rejections_total",
			Help: "Decisions dropped for insufficient balance",
		}, []string{"symbol", "reason"}),
		Valuation: f.NewGauge(prometheus.GaugeOpts{
			Name: "trader_portfolio_valuation_usdt",
			Help: "Traded portfolio value in USDT at the last stop-condition check",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "trader_order_queue_depth",
			Help: "Orders waiting for the executor",
		}),
		OrdersTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_orders_total",
			Help: "Executed orders by side and result",
		}, []string{"side", "result"}),
		Balance: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trader_balance",
			Help: "Tracked traded balance per asset",
		}, []string{"asset"}),
	}
}

func (m *Metrics) ObserveTick(symbol string) {
	if m == nil {
		return
	}
	m.TicksTotal.WithLabelValues(symbol).Inc()
}

func (m *Metrics) ObserveTickError() {
	if m == nil {
		return
	}
	m.TickErrorsTotal.Inc()
}

func (m *Metrics) ObserveReconnect() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

func (m *Metrics) ObserveChange(horizon, symbol string, pct float64) {
	if m == nil {
		return
	}
	m.ChangePercent.WithLabelValues(horizon, symbol).Set(pct)
}

func (m *Metrics) ObserveCycle(horizon, result string) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(horizon, result).Inc()
}

func (m *Metrics) ObserveDecision(horizon, symbol, side string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(horizon, symbol, side).Inc()
}

func (m *Metrics) ObserveRejection(symbol, reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(symbol, reason).Inc()
}

func (m *Metrics) SetValuation(v float64) {
	if m == nil {
		return
	}
	m.Valuation.Set(v)
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) ObserveOrder(side, result string) {
	if m == nil {
		return
	}
	m.OrdersTotal.WithLabelValues(side, result).Inc()
}

// SetBalances publishes every tracked balance.
func (m *Metrics) SetBalances(balances map[string]float64) {
	if m == nil {
		return
	}
	for asset, amount := range balances {
		m.Balance.WithLabelValues(asset).Set(amount)
	}
}
