package exchange

import (
	"errors"
	"fmt"
	"testing"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"api error", &common.APIError{Code: -2010, Message: "insufficient balance"}, ClassAPI},
		{"wrapped api error", fmt.Errorf("create order: %w", &common.APIError{Code: -1013}), ClassAPI},
		{"rejected", fmt.Errorf("%w: status REJECTED", ErrOrderRejected), ClassOrder},
		{"other", errors.New("connection reset"), ClassUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10"},
		{0.5, "0.5"},
		{0.00000001, "0.00000001"},
		{1234.123456789, "1234.12345679"},
	}
	for _, tt := range tests {
		if got := FormatQuantity(tt.in); got != tt.want {
			t.Errorf("FormatQuantity(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExecutionFromResponse_SumsCommissionOverFills(t *testing.T) {
	resp := &binance.CreateOrderResponse{
		OrderID:                  42,
		Status:                   binance.OrderStatusTypeFilled,
		ExecutedQuantity:         "10.00000000",
		CummulativeQuoteQuantity: "12.30000000",
		Fills: []*binance.Fill{
			{Price: "1.23", Quantity: "6", Commission: "0.006", CommissionAsset: "ADA"},
			{Price: "1.23", Quantity: "4", Commission: "0.004", CommissionAsset: "ADA"},
		},
	}

	exec, err := executionFromResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.OrderID != 42 || exec.ExecutedQty != 10 || exec.QuoteQty != 12.3 {
		t.Errorf("unexpected execution: %+v", exec)
	}
	if exec.Commission != 0.01 {
		t.Errorf("Commission = %v, want 0.01", exec.Commission)
	}
	if exec.CommissionAsset != "ADA" {
		t.Errorf("CommissionAsset = %q", exec.CommissionAsset)
	}
}

func TestExecutionFromResponse_Rejected(t *testing.T) {
	_, err := executionFromResponse(&binance.CreateOrderResponse{OrderID: 7, Status: binance.OrderStatusTypeRejected})
	if !errors.Is(err, ErrOrderRejected) {
		t.Fatalf("expected ErrOrderRejected, got %v", err)
	}
	if Classify(err) != ClassOrder {
		t.Errorf("rejected order classified as %q", Classify(err))
	}
}

func TestExecutionFromResponse_BadCommission(t *testing.T) {
	resp := &binance.CreateOrderResponse{
		Status: binance.OrderStatusTypeFilled,
		Fills:  []*binance.Fill{{Commission: "n/a"}},
	}
	if _, err := executionFromResponse(resp); err == nil {
		t.Fatal("expected parse error")
	}
}
