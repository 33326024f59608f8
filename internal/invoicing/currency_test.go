package invoicing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wortmann-import/internal/invoicing"
)

func TestResolveCurrency(t *testing.T) {
	ports := newFakePorts()
	ports.knownCurrencies["SEK"] = true
	resolver := invoicing.NewCurrencyResolver(ports)
	ctx := context.Background()

	tests := []struct {
		name  string
		label string
		want  string
	}{
		{name: "german label", label: "Euro", want: "EUR"},
		{name: "label with whitespace", label: "  US Dollar ", want: "USD"},
		{name: "iso passthrough via table", label: "USD", want: "USD"},
		{name: "unmapped but known to tenant", label: "SEK", want: "SEK"},
		{name: "unmapped label falls back to default", label: "Martian Credits", want: "EUR"},
		{name: "empty label falls back to default", label: "", want: "EUR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.ResolveCurrency(ctx, tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRate(t *testing.T) {
	asOf := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	ports := newFakePorts()
	ports.exactRates["USD->EUR@2026-08-15"] = 0.91
	ports.latestRates["GBP->EUR"] = 1.17
	resolver := invoicing.NewCurrencyResolver(ports)
	ctx := context.Background()

	assert.InDelta(t, 1.0, resolver.ResolveRate(ctx, "EUR", "EUR", asOf), 1e-9)
	assert.InDelta(t, 0.91, resolver.ResolveRate(ctx, "USD", "EUR", asOf), 1e-9)

	// No exact-date rate for GBP, the latest selling rate applies.
	assert.InDelta(t, 1.17, resolver.ResolveRate(ctx, "GBP", "EUR", asOf), 1e-9)

	// No rate at all: last-resort 1.0.
	assert.InDelta(t, 1.0, resolver.ResolveRate(ctx, "CHF", "EUR", asOf), 1e-9)
}
