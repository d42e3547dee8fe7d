package calculator

import "HorizonTrader/internal/model"

// Valuation returns the USDT value of the traded portfolio: the quote
// balance plus every traded symbol's balance at its latest price.
// Symbols without a price contribute nothing.
func Valuation(balances model.Balances, stats map[string]model.AssetStat, symbols []string) float64 {
	total := balances.USDT()
	for _, symbol := range symbols {
		stat, ok := stats[symbol]
		if !ok {
			continue
		}
		total += balances[symbol] * stat.LatestPrice
	}
	return total
}

// ChangeFromInvestment returns how far (in percent) a valuation is from the
// initial investment.
func ChangeFromInvestment(valuation, investment float64) float64 {
	if investment == 0 {
		return 0
	}
	return (valuation - investment) / investment * 100
}
