package model

import "time"

// Tick is a single 24h ticker update for one symbol.
type Tick struct {
	Symbol            string
	ClosePrice        float64
	PrevDayClosePrice float64
	PriceChange       float64
	ChangePercent     float64
	EventTime         time.Time
}

// AssetStat holds the latest tick-derived statistics of a symbol.
type AssetStat struct {
	PrevPrice     float64   `json:"prev_price"`
	LatestPrice   float64   `json:"latest_price"`
	PrevDayPrice  float64   `json:"prev_day_price"`
	PriceChange   float64   `json:"price_change"`
	ChangePercent float64   `json:"change_percent"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Evaluation is the outcome of one horizon cycle for one symbol.
type Evaluation struct {
	Horizon       Horizon   `json:"horizon"`
	Symbol        string    `json:"symbol"`
	Baseline      float64   `json:"baseline"`
	Latest        float64   `json:"latest"`
	ChangePercent float64   `json:"change_percent"`
	Skipped       bool      `json:"skipped,omitempty"` // baseline was zero
	At            time.Time `json:"at"`
}
