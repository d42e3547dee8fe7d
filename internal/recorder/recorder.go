package recorder

// EvaluationEvent is one (horizon, symbol) price comparison.
type EvaluationEvent struct {
	Horizon       string
	Symbol        string
	Baseline      float64
	Latest        float64
	ChangePercent float64
	Skipped       bool
}

// ExecutionEvent is the outcome of one order taken off the queue.
type ExecutionEvent struct {
	OrderID         string
	ExchangeOrderID int64
	Horizon         string
	Side            string // "BUY" or "SELL"
	Symbol          string
	Quantity        float64
	ReferencePrice  float64
	ExecutedQty     float64
	QuoteQty        float64
	Commission      float64
	CommissionAsset string
	AssetDelta      float64
	USDTDelta       float64
	AssetAfter      float64
	USDTAfter       float64
	Status          string // "FILLED" or "FAILED"
	ErrorClass      string
	Error           string
}

// StopEvent records the stop condition tripping.
type StopEvent struct {
	Valuation         float64
	InitialInvestment float64
	Balances          map[string]float64
}

// Recorder persists the trading journal.
type Recorder interface {
	RecordEvaluation(evt *EvaluationEvent) error
	RecordExecution(evt *ExecutionEvent) error
	RecordStop(evt *StopEvent) error
	Close() error
}
