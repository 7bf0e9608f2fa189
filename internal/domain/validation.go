package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidCurrency = errors.New("invalid currency code")

// Pagination limits for journal listings.
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// Reporting currencies a consolidation group may be labelled with. Amounts
// are never converted; the code only names the unit of the report.
var reportingCurrencies = map[string]struct{}{
	"AED": {}, "AUD": {}, "BRL": {}, "CAD": {}, "CHF": {}, "CNY": {},
	"CZK": {}, "DKK": {}, "EUR": {}, "GBP": {}, "HKD": {}, "IDR": {},
	"INR": {}, "JPY": {}, "KRW": {}, "MXN": {}, "NOK": {}, "NZD": {},
	"PLN": {}, "SEK": {}, "SGD": {}, "TRY": {}, "USD": {}, "ZAR": {},
}

// NormalizeCurrency upper-cases code and checks it is a known reporting
// currency.
func NormalizeCurrency(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := reportingCurrencies[normalized]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return normalized, nil
}

// ValidateCurrency reports whether code is an accepted reporting currency.
func ValidateCurrency(code string) error {
	_, err := NormalizeCurrency(code)
	return err
}

// ValidateDateRange checks that start is not after end.
func ValidateDateRange(start, end time.Time) error {
	if start.After(end) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidDateRange, start.Format(DateLayout), end.Format(DateLayout))
	}
	return nil
}

// ValidatePagination clamps a listing window to sane bounds.
func ValidatePagination(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return limit, max(offset, 0)
}

// DateLayout is the calendar date format used for entry and report dates.
const DateLayout = "2006-01-02"

// TruncateDate drops the time of day, keeping the calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
