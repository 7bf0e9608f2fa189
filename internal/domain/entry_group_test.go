package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestProposedLine_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount   string
		wantSide Side
		wantAmt  string
	}{
		{"250.00", SideDebit, "250"},
		{"-250.00", SideCredit, "250"},
		{"0", SideDebit, "0"},
	}

	for _, tt := range tests {
		l := ProposedLine{AccountCode: "1000", Amount: decimal.RequireFromString(tt.amount)}
		got := l.Normalize(3)
		if got.Side != tt.wantSide || !got.Amount.Equal(decimal.RequireFromString(tt.wantAmt)) || got.LineNo != 3 {
			t.Fatalf("Normalize(%s) = %s %s line %d", tt.amount, got.Side, got.Amount, got.LineNo)
		}
	}
}

func TestProposedLine_TagsSortedByDimension(t *testing.T) {
	t.Parallel()

	l := ProposedLine{Dimensions: map[string]string{"REGION": "EU", "DEPT": "OPS"}}
	tags := l.Tags()
	if len(tags) != 2 || tags[0].DimensionCode != "DEPT" || tags[1].DimensionCode != "REGION" {
		t.Fatalf("unexpected tag order: %+v", tags)
	}
}

func TestEntryGroup_Balance(t *testing.T) {
	t.Parallel()

	g := EntryGroup{Lines: []ProposedLine{
		{AccountCode: "1", Amount: decimal.RequireFromString("250.00")},
		{AccountCode: "2", Amount: decimal.RequireFromString("-250.00")},
	}}

	if !g.IsBalanced() {
		t.Fatal("expected balanced group")
	}
	debits, credits := g.Totals()
	if !debits.Equal(decimal.NewFromInt(250)) || !credits.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected totals %s/%s", debits, credits)
	}

	g.Lines = append(g.Lines, ProposedLine{AccountCode: "3", Amount: decimal.RequireFromString("0.02")})
	if g.IsBalanced() {
		t.Fatal("expected 0.02 difference to exceed tolerance")
	}
}

func TestEntryGroup_EntryDate(t *testing.T) {
	t.Parallel()

	lineDate := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	g := EntryGroup{Lines: []ProposedLine{{}, {Date: &lineDate}}}

	got, ok := g.EntryDate()
	if !ok || !got.Equal(lineDate) {
		t.Fatalf("expected line date fallback, got %v ok=%v", got, ok)
	}

	if _, ok := (EntryGroup{}).EntryDate(); ok {
		t.Fatal("expected no date for empty group")
	}
}

func TestAccountCodes_SortedDistinct(t *testing.T) {
	t.Parallel()

	groups := []EntryGroup{
		{Lines: []ProposedLine{{AccountCode: "2000"}, {AccountCode: "1000"}}},
		{Lines: []ProposedLine{{AccountCode: "1000"}, {AccountCode: "1500"}}},
	}

	got := AccountCodes(groups)
	want := []string{"1000", "1500", "2000"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBatchPostError_Unwrap(t *testing.T) {
	t.Parallel()

	err := error(&BatchPostError{Failures: []GroupFailure{
		{GroupKey: "g3", Index: 2, Reason: "account 4000 is inactive", Err: ErrAccountInactive},
	}})

	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected errors.Is to find ErrAccountInactive in %v", err)
	}
	var bpe *BatchPostError
	if !errors.As(err, &bpe) || len(bpe.Failures) != 1 {
		t.Fatalf("expected BatchPostError, got %T", err)
	}
}
