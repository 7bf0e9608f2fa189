package domain

import (
	"sort"
	"strings"
	"time"
)

// PeriodType is the reporting cadence of a consolidation group.
type PeriodType string

const (
	PeriodTypeMonthly   PeriodType = "monthly"
	PeriodTypeQuarterly PeriodType = "quarterly"
	PeriodTypeYearly    PeriodType = "yearly"
)

// IsValid reports whether p is a known period type.
func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodTypeMonthly, PeriodTypeQuarterly, PeriodTypeYearly:
		return true
	}
	return false
}

// ConsolidationGroup is a named set of entities reported on together.
// EntityIDs reflects membership at the time the group was loaded.
type ConsolidationGroup struct {
	ID         string
	ClientID   int64
	Name       string
	Currency   string
	StartDate  time.Time
	EndDate    time.Time
	PeriodType PeriodType
	EntityIDs  []int64
	CreatedAt  time.Time
}

// Validate checks required fields and normalizes the currency code.
func (g *ConsolidationGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrInvalidGroupName
	}
	currency, err := NormalizeCurrency(g.Currency)
	if err != nil {
		return err
	}
	g.Currency = currency
	if !g.PeriodType.IsValid() {
		return ErrInvalidPeriodType
	}
	return ValidateDateRange(g.StartDate, g.EndDate)
}

// SortEntityIDs returns a sorted, de-duplicated copy of ids.
func SortEntityIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
