package domain

import (
	"errors"
	"testing"
	"time"
)

func TestValidateCurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		currency string
		wantErr  bool
	}{
		{"upper case", "USD", false},
		{"lower case with spaces", " idr ", false},
		{"unknown", "XXX", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCurrency(tt.currency)
			if tt.wantErr && !errors.Is(err, ErrInvalidCurrency) {
				t.Fatalf("expected ErrInvalidCurrency, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateDateRange(t *testing.T) {
	t.Parallel()

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	if err := ValidateDateRange(jan, feb); err != nil {
		t.Fatalf("expected valid range, got %v", err)
	}
	if err := ValidateDateRange(jan, jan); err != nil {
		t.Fatalf("expected single-day range to be valid, got %v", err)
	}
	if err := ValidateDateRange(feb, jan); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, DefaultPageSize, 0},
		{5000, -3, MaxPageSize, 0},
		{20, 40, 20, 40},
	}

	for _, tt := range tests {
		limit, offset := ValidatePagination(tt.limit, tt.offset)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Fatalf("ValidatePagination(%d, %d) = (%d, %d), want (%d, %d)",
				tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestTruncateDate(t *testing.T) {
	t.Parallel()

	in := time.Date(2025, 3, 9, 23, 59, 1, 5, time.UTC)
	got := TruncateDate(in)
	want := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("TruncateDate = %v, want %v", got, want)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	t.Parallel()

	got, err := NormalizeCurrency(" eur ")
	if err != nil || got != "EUR" {
		t.Fatalf("NormalizeCurrency = %q, %v; want EUR", got, err)
	}

	g := &ConsolidationGroup{
		Name:       "Nordics",
		Currency:   "sek",
		PeriodType: PeriodTypeMonthly,
		StartDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Currency != "SEK" {
		t.Fatalf("expected currency normalized to SEK, got %q", g.Currency)
	}
}
