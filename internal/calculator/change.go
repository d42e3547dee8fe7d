package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ChangePrecision is the number of decimal places kept in a change percent.
const ChangePrecision = 3

// ErrZeroBaseline is returned when a change is requested against a zero price.
var ErrZeroBaseline = errors.New("baseline price is zero")

// ChangePercent returns the percentage move from baseline to latest,
// rounded to ChangePrecision decimal places.
func ChangePercent(baseline, latest float64) (float64, error) {
	if baseline == 0 {
		return 0, ErrZeroBaseline
	}
	pct := (latest - baseline) / baseline * 100
	return decimal.NewFromFloat(pct).Round(ChangePrecision).InexactFloat64(), nil
}
