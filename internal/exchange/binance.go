package exchange

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"HorizonTrader/internal/model"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"
)

// QuantityPrecision is the number of decimals sent for order quantities.
const QuantityPrecision = 8

var (
	// ErrOrderRejected is returned when the exchange accepted the request but
	// did not fill the order.
	ErrOrderRejected = errors.New("order rejected")
	// ErrSymbolNotFound is returned when a price lookup has no match.
	ErrSymbolNotFound = errors.New("symbol not found in price list")
)

// Error classes reported by Classify.
const (
	ClassAPI     = "api"
	ClassOrder   = "order"
	ClassUnknown = "unknown"
)

// Classify maps an exchange error onto api, order or unknown.
func Classify(err error) string {
	var apiErr *common.APIError
	switch {
	case errors.As(err, &apiErr):
		return ClassAPI
	case errors.Is(err, ErrOrderRejected):
		return ClassOrder
	default:
		return ClassUnknown
	}
}

// Client places market orders and reads balances and prices on Binance spot.
type Client struct {
	client *binance.Client
}

// NewClient creates a spot client. With testnet set, requests go to the
// Binance spot test network.
func NewClient(apiKey, secretKey string, testnet bool) *Client {
	binance.UseTestnet = testnet
	return &Client{client: binance.NewClient(apiKey, secretKey)}
}

// Ping checks connectivity to the REST API.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.NewPingService().Do(ctx)
}

// MarketBuy submits a market buy of quantity units of symbol.
func (c *Client) MarketBuy(ctx context.Context, symbol string, quantity float64) (model.Execution, error) {
	return c.marketOrder(ctx, binance.SideTypeBuy, symbol, quantity)
}

// MarketSell submits a market sell of quantity units of symbol.
func (c *Client) MarketSell(ctx context.Context, symbol string, quantity float64) (model.Execution, error) {
	return c.marketOrder(ctx, binance.SideTypeSell, symbol, quantity)
}

func (c *Client) marketOrder(ctx context.Context, side binance.SideType, symbol string, quantity float64) (model.Execution, error) {
	qty := FormatQuantity(quantity)
	log.Printf("[INFO] submitting market %s %s %s", side, qty, symbol)

	resp, err := c.client.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(qty).
		Do(ctx)
	if err != nil {
		return model.Execution{}, fmt.Errorf("create %s order for %s: %w", side, symbol, err)
	}
	return executionFromResponse(resp)
}

// AssetBalance returns the free balance of asset (e.g. "ADA").
func (c *Client) AssetBalance(ctx context.Context, asset string) (float64, error) {
	account, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("get account: %w", err)
	}
	for _, b := range account.Balances {
		if b.Asset == asset {
			return strconv.ParseFloat(b.Free, 64)
		}
	}
	return 0, nil
}

// SymbolPrice returns the latest price of symbol (e.g. "ADAUSDT").
func (c *Client) SymbolPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := c.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("list prices for %s: %w", symbol, err)
	}
	for _, p := range prices {
		if p.Symbol == symbol {
			return strconv.ParseFloat(p.Price, 64)
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
}

// FormatQuantity renders a quantity without exponent notation or trailing zeros.
func FormatQuantity(quantity float64) string {
	return decimal.NewFromFloat(quantity).Round(QuantityPrecision).String()
}

func executionFromResponse(resp *binance.CreateOrderResponse) (model.Execution, error) {
	if resp == nil {
		return model.Execution{}, fmt.Errorf("%w: empty response", ErrOrderRejected)
	}
	switch resp.Status {
	case binance.OrderStatusTypeRejected, binance.OrderStatusTypeExpired, binance.OrderStatusTypeCanceled:
		return model.Execution{}, fmt.Errorf("%w: order %d status %s", ErrOrderRejected, resp.OrderID, resp.Status)
	}

	exec := model.Execution{OrderID: resp.OrderID}

	var err error
	if exec.ExecutedQty, err = parseAmount(resp.ExecutedQuantity); err != nil {
		return model.Execution{}, fmt.Errorf("parse executed quantity: %w", err)
	}
	if exec.QuoteQty, err = parseAmount(resp.CummulativeQuoteQuantity); err != nil {
		return model.Execution{}, fmt.Errorf("parse quote quantity: %w", err)
	}

	commission := decimal.Zero
	for _, fill := range resp.Fills {
		if fill == nil {
			continue
		}
		c, err := decimal.NewFromString(fill.Commission)
		if err != nil {
			return model.Execution{}, fmt.Errorf("parse commission %q: %w", fill.Commission, err)
		}
		commission = commission.Add(c)
		if exec.CommissionAsset == "" {
			exec.CommissionAsset = fill.CommissionAsset
		}
	}
	exec.Commission = commission.InexactFloat64()
	return exec, nil
}

func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
