package invoicing

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"wortmann-import/internal/logger"
)

// DefaultTaxRate is the percentage applied when no usable rate can be
// derived from the configured tax account.
const DefaultTaxRate = 19.0

// namedRatePattern extracts a percentage from an account display name
// such as "1520 - Abziehbare Vorsteuer 19 % - AZ ITD".
var namedRatePattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)

// TaxResolver derives the invoice tax percentage from the configured
// tax account.
type TaxResolver struct {
	accounts Accounts
	log      zerolog.Logger
}

// NewTaxResolver creates a tax resolver backed by the account store.
func NewTaxResolver(accounts Accounts) *TaxResolver {
	return &TaxResolver{
		accounts: accounts,
		log:      logger.WithComponent("tax-resolver"),
	}
}

// ResolveTaxRate returns the tax percentage for the configured account.
// Preference order: the account's explicit tax-rate attribute, its
// generic rate attribute, a percentage embedded in the account name.
// Every failure degrades to DefaultTaxRate; tax resolution never aborts
// an invoice.
func (r *TaxResolver) ResolveTaxRate(ctx context.Context, settings Settings) float64 {
	if settings.TaxAccount == "" {
		r.log.Warn().Msg("No tax account configured, using default tax rate")
		return DefaultTaxRate
	}

	account, err := r.accounts.AccountByName(ctx, settings.TaxAccount)
	if err != nil {
		r.log.Warn().
			Err(err).
			Str("account", settings.TaxAccount).
			Msg("Failed to fetch tax account, using default tax rate")
		return DefaultTaxRate
	}

	if account.TaxRate != nil {
		return *account.TaxRate
	}
	if account.Rate != nil {
		return *account.Rate
	}

	if m := namedRatePattern.FindStringSubmatch(account.Name); m != nil {
		if rate, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64); err == nil {
			return rate
		}
	}

	r.log.Warn().
		Str("account", settings.TaxAccount).
		Msg("Tax account carries no rate, using default tax rate")

	return DefaultTaxRate
}
