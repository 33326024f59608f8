package invoicing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wortmann-import/internal/logger"
)

// currencyLabels maps the distributor's free-text currency labels to
// ISO codes. ISO codes appearing verbatim in the feed pass through.
var currencyLabels = map[string]string{
	"Euro":              "EUR",
	"EUR":               "EUR",
	"US Dollar":         "USD",
	"US-Dollar":         "USD",
	"USD":               "USD",
	"Britisches Pfund":  "GBP",
	"GBP":               "GBP",
	"Schweizer Franken": "CHF",
	"CHF":               "CHF",
}

// CurrencyResolver normalizes the feed's currency labels and resolves
// conversion rates against the tenant's default currency.
type CurrencyResolver struct {
	currencies Currencies
	log        zerolog.Logger
}

// NewCurrencyResolver creates a currency resolver backed by the
// tenant's currency store.
func NewCurrencyResolver(currencies Currencies) *CurrencyResolver {
	return &CurrencyResolver{
		currencies: currencies,
		log:        logger.WithComponent("currency-resolver"),
	}
}

// ResolveCurrency maps a feed label to a currency code. Unmapped labels
// that exist in the tenant's currency store are used as-is; anything
// else falls back to the tenant default with a warning. The fallback is
// not a row error and never blocks invoice creation.
func (r *CurrencyResolver) ResolveCurrency(ctx context.Context, label string) (string, error) {
	const op = "ResolveCurrency"

	trimmed := strings.TrimSpace(label)
	if code, ok := currencyLabels[trimmed]; ok {
		return code, nil
	}

	if trimmed != "" {
		exists, err := r.currencies.Exists(ctx, trimmed)
		if err != nil {
			r.log.Warn().Err(err).Str("label", trimmed).Msg("Currency existence check failed")
		} else if exists {
			return trimmed, nil
		}
	}

	fallback, err := r.currencies.DefaultCurrency(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve tenant default currency: %w", op, err)
	}

	r.log.Warn().
		Str("label", label).
		Str("fallback", fallback).
		Msg("Unmapped currency label, using tenant default")

	return fallback, nil
}

// ResolveRate returns the conversion rate from one currency to another
// as of a date. Identical currencies rate 1.0. An exact-date selling
// rate is preferred, then the most recent selling rate; with neither
// available the rate degrades to 1.0 with a warning.
func (r *CurrencyResolver) ResolveRate(ctx context.Context, from, to string, asOf time.Time) float64 {
	if from == to {
		return 1.0
	}

	rate, err := r.currencies.SellingRate(ctx, from, to, asOf)
	if err == nil {
		return rate
	}

	rate, err = r.currencies.LatestSellingRate(ctx, from, to)
	if err == nil {
		r.log.Debug().
			Str("from", from).
			Str("to", to).
			Str("as_of", asOf.Format("2006-01-02")).
			Msg("No exchange rate for the exact date, using most recent")
		return rate
	}

	r.log.Warn().
		Str("from", from).
		Str("to", to).
		Msg("No exchange rate found, falling back to 1.0")

	return 1.0
}
