package notifier

import (
	"fmt"
	"strings"
	"time"

	"HorizonTrader/internal/account"
	"HorizonTrader/internal/model"
)

// FormatExecution formats a filled order and the balances after it.
func FormatExecution(order model.Order, exec model.Execution, balances model.Balances) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ <b>%s %g %s</b> (%s interval)\n", order.Side, order.Quantity, order.Symbol, order.Horizon))
	b.WriteString(fmt.Sprintf("Reference price: %g\n", order.ReferencePrice))
	b.WriteString(fmt.Sprintf("Exchange order: %d\n", exec.OrderID))
	if exec.Commission > 0 {
		b.WriteString(fmt.Sprintf("Commission: %g %s\n", exec.Commission, exec.CommissionAsset))
	}
	b.WriteString(fmt.Sprintf("%s: %g | USDT: %.4f\n", order.Symbol, balances[order.Symbol], balances.USDT()))
	return b.String()
}

// FormatFailure formats an order the exchange did not fill.
func FormatFailure(order model.Order, class string, err error) string {
	return fmt.Sprintf("❌ <b>%s %g %s failed</b> (%s error)\n%v\n", order.Side, order.Quantity, order.Symbol, class, err)
}

// FormatBalances formats the traded balances.
func FormatBalances(balances model.Balances) string {
	var b strings.Builder
	b.WriteString("📦 <b>Traded balances</b>\n\n")
	for _, symbol := range balances.Symbols() {
		b.WriteString(fmt.Sprintf("%s: %g\n", symbol, balances[symbol]))
	}
	b.WriteString(fmt.Sprintf("USDT: %.4f\n", balances.USDT()))
	return b.String()
}

// FormatStats formats the latest ticker statistics, one line per symbol.
func FormatStats(symbols []string, stats map[string]model.AssetStat) string {
	var b strings.Builder
	b.WriteString("📈 <b>Market stats</b>\n\n")
	if len(symbols) == 0 {
		b.WriteString("no ticks received yet\n")
		return b.String()
	}
	for _, symbol := range symbols {
		s := stats[symbol]
		b.WriteString(fmt.Sprintf("%s: %g (24h %+.2f%%) at %s\n",
			symbol, s.LatestPrice, s.ChangePercent, s.UpdatedAt.Format("15:04:05")))
	}
	return b.String()
}

// FormatStop formats the stop condition report.
func FormatStop(valuation, investment float64, balances model.Balances) string {
	var b strings.Builder
	b.WriteString("🛑 <b>Stop condition reached</b>\n\n")
	b.WriteString(fmt.Sprintf("Valuation: %.4f USDT (floor %.4f)\n", valuation, investment/2))
	b.WriteString(fmt.Sprintf("Initial investment: %.2f USDT\n\n", investment))
	b.WriteString(FormatBalances(balances))
	return b.String()
}

// FormatAccountSummary formats the full account report.
func FormatAccountSummary(s account.Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💰 <b>Account summary</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	for _, h := range s.Holdings {
		b.WriteString(fmt.Sprintf("%s: %g (≈ %.2f USDT)\n", h.Asset, h.Amount(), h.Value()))
	}
	b.WriteString(fmt.Sprintf("\nTotal: %.2f USDT\n", s.Total))
	b.WriteString(fmt.Sprintf("Benefit: %+.2f USDT\n", s.Benefit()))
	return b.String()
}
