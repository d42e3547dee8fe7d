package notifier

import (
	"context"
	"fmt"
	"strings"

	"HorizonTrader/internal/model"
)

// Commands answers the chat commands of the bot.
type Commands struct {
	Balances func() model.Balances
	Stats    func() ([]string, map[string]model.AssetStat)
	Evaluate func(ctx context.Context, h model.Horizon) error
}

const helpText = `<b>Commands</b>
/balances  traded balances
/stats     latest ticker stats
/evaluate &lt;horizon&gt;  run one evaluation now (10s, 10m, 30m, 1h, 12h)
/help      this message`

// Handle dispatches one command and returns the reply.
func (c *Commands) Handle(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	// "/stats@MyBot" in group chats
	cmd, _, _ := strings.Cut(fields[0], "@")

	switch cmd {
	case "/balances":
		return FormatBalances(c.Balances())
	case "/stats":
		symbols, stats := c.Stats()
		return FormatStats(symbols, stats)
	case "/evaluate":
		if len(fields) < 2 {
			return "usage: /evaluate &lt;horizon&gt;"
		}
		h, err := model.ParseHorizon(fields[1])
		if err != nil {
			return fmt.Sprintf("unknown horizon %q", fields[1])
		}
		if err := c.Evaluate(ctx, h); err != nil {
			return fmt.Sprintf("%s evaluation failed: %v", h, err)
		}
		return fmt.Sprintf("%s evaluation done", h)
	case "/help", "/start":
		return helpText
	default:
		return "unknown command, try /help"
	}
}
