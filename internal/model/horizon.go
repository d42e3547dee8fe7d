package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Horizon is an evaluation period expressed in seconds.
type Horizon int

const (
	Horizon10Sec   Horizon = 10
	Horizon10Min   Horizon = 10 * 60
	Horizon30Min   Horizon = 30 * 60
	Horizon1Hour   Horizon = 60 * 60
	Horizon12Hours Horizon = 12 * 60 * 60
)

// AllHorizons lists every horizon in evaluation order.
var AllHorizons = []Horizon{Horizon10Sec, Horizon10Min, Horizon30Min, Horizon1Hour, Horizon12Hours}

var horizonLabels = map[Horizon]string{
	Horizon10Sec:   "10s",
	Horizon10Min:   "10m",
	Horizon30Min:   "30m",
	Horizon1Hour:   "1h",
	Horizon12Hours: "12h",
}

// Period returns the horizon as a duration.
func (h Horizon) Period() time.Duration {
	return time.Duration(h) * time.Second
}

// Key is the identifier used in the durable price ledger.
func (h Horizon) Key() string {
	return strconv.Itoa(int(h))
}

func (h Horizon) String() string {
	if label, ok := horizonLabels[h]; ok {
		return label
	}
	return h.Key() + "s"
}

// Valid reports whether h is one of the five supported horizons.
func (h Horizon) Valid() bool {
	_, ok := horizonLabels[h]
	return ok
}

// ParseHorizon accepts either a label ("10m") or a number of seconds ("600").
func ParseHorizon(s string) (Horizon, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for h, label := range horizonLabels {
		if label == s {
			return h, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err == nil && Horizon(n).Valid() {
		return Horizon(n), nil
	}
	return 0, fmt.Errorf("unknown horizon %q", s)
}
