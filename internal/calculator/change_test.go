package calculator

import (
	"errors"
	"testing"

	"HorizonTrader/internal/model"
)

func TestChangePercent(t *testing.T) {
	tests := []struct {
		baseline, latest float64
		want             float64
	}{
		{100, 92, -8.0},
		{100, 100, 0},
		{100, 104, 4.0},
		{0.5, 0.50004, 0.008},
		{0.5, 0.49996, -0.008},
		{3, 4, 33.333},
		{3, 2, -33.333},
	}
	for _, tt := range tests {
		got, err := ChangePercent(tt.baseline, tt.latest)
		if err != nil {
			t.Fatalf("ChangePercent(%v, %v): %v", tt.baseline, tt.latest, err)
		}
		if got != tt.want {
			t.Errorf("ChangePercent(%v, %v) = %v, want %v", tt.baseline, tt.latest, got, tt.want)
		}
	}
}

func TestChangePercent_ZeroBaseline(t *testing.T) {
	if _, err := ChangePercent(0, 10); !errors.Is(err, ErrZeroBaseline) {
		t.Fatalf("expected ErrZeroBaseline, got %v", err)
	}
}

func TestValuation(t *testing.T) {
	balances := model.Balances{"ADAUSDT": 10, "VETUSDT": 100, model.QuoteAsset: 50}
	stats := map[string]model.AssetStat{
		"ADAUSDT": {LatestPrice: 1.5},
		"VETUSDT": {LatestPrice: 0.02},
	}
	got := Valuation(balances, stats, []string{"ADAUSDT", "VETUSDT"})
	if want := 50 + 15 + 2.0; got != want {
		t.Errorf("Valuation = %v, want %v", got, want)
	}

	// A symbol that has not ticked yet is not valued.
	got = Valuation(balances, map[string]model.AssetStat{"ADAUSDT": {LatestPrice: 1}}, []string{"ADAUSDT", "VETUSDT"})
	if got != 60 {
		t.Errorf("Valuation without VET price = %v, want 60", got)
	}
}

func TestChangeFromInvestment(t *testing.T) {
	if got := ChangeFromInvestment(60, 120); got != -50 {
		t.Errorf("ChangeFromInvestment(60, 120) = %v, want -50", got)
	}
	if got := ChangeFromInvestment(10, 0); got != 0 {
		t.Errorf("ChangeFromInvestment with zero investment = %v, want 0", got)
	}
}
