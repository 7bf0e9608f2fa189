package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func posted(id int64, code string, typ AccountType, side Side, amount string) PostedLine {
	return PostedLine{AccountID: id, AccountCode: code, AccountName: code, AccountType: typ, Side: side, Amount: decimal.RequireFromString(amount)}
}

func sampleLines() []PostedLine {
	return []PostedLine{
		posted(1, "1000", AccountTypeAsset, SideDebit, "1000"),
		posted(3, "3000", AccountTypeEquity, SideCredit, "1000"),
		posted(5, "6000", AccountTypeExpense, SideDebit, "250"),
		posted(1, "1000", AccountTypeAsset, SideCredit, "250"),
		posted(4, "4000", AccountTypeRevenue, SideCredit, "400"),
		posted(1, "1000", AccountTypeAsset, SideDebit, "400"),
		posted(2, "2000", AccountTypeLiability, SideCredit, "100"),
		posted(5, "6000", AccountTypeExpense, SideDebit, "100"),
	}
}

func aggregate(lines []PostedLine) []AccountBalance {
	agg := NewLedgerAggregate()
	for _, l := range lines {
		agg.Add(l)
	}
	return agg.Balances()
}

func TestLedgerAggregate_BalancesSortedByCode(t *testing.T) {
	t.Parallel()

	balances := aggregate(sampleLines())
	for i := 1; i < len(balances); i++ {
		if balances[i-1].Code > balances[i].Code {
			t.Fatalf("balances not sorted: %s before %s", balances[i-1].Code, balances[i].Code)
		}
	}
	if got := balances[0].Balance(); !got.Equal(decimal.NewFromInt(1150)) {
		t.Fatalf("cash balance = %s, want 1150", got)
	}
}

func TestBuildSections_BalanceSheet(t *testing.T) {
	t.Parallel()

	sections, totals, balanced := BuildSections(ReportTypeBalanceSheet, aggregate(sampleLines()))
	if len(sections) != 3 || sections[0].Key != "asset" || sections[1].Key != "liability" || sections[2].Key != "equity" {
		t.Fatalf("unexpected sections: %+v", sections)
	}

	r := &Report{Totals: totals}
	want := map[string]string{
		TotalAssets:               "1150",
		TotalLiabilities:          "100",
		TotalEquity:               "1000",
		TotalCurrentEarnings:      "50",
		TotalLiabilitiesAndEquity: "1150",
	}
	for key, amount := range want {
		got, ok := r.Total(key)
		if !ok || !got.Equal(decimal.RequireFromString(amount)) {
			t.Fatalf("total %s = %s (ok=%v), want %s", key, got, ok, amount)
		}
	}
	if !balanced {
		t.Fatal("expected balance sheet to balance")
	}
}

func TestBuildSections_IncomeStatement(t *testing.T) {
	t.Parallel()

	sections, totals, _ := BuildSections(ReportTypeIncomeStatement, aggregate(sampleLines()))
	if len(sections) != 2 || sections[0].Key != "revenue" || sections[1].Key != "expense" {
		t.Fatalf("unexpected sections: %+v", sections)
	}
	r := &Report{Totals: totals}
	if got, _ := r.Total(TotalNetIncome); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("net income = %s, want 50", got)
	}
}

func TestBuildSections_TrialBalance(t *testing.T) {
	t.Parallel()

	sections, totals, balanced := BuildSections(ReportTypeTrialBalance, aggregate(sampleLines()))
	if len(sections) != len(AccountTypes) {
		t.Fatalf("expected one section per account type, got %d", len(sections))
	}
	r := &Report{Totals: totals}
	debits, _ := r.Total(TotalDebits)
	credits, _ := r.Total(TotalCredits)
	if !debits.Equal(decimal.NewFromInt(1750)) || !credits.Equal(decimal.NewFromInt(1750)) || !balanced {
		t.Fatalf("trial balance totals %s/%s balanced=%v", debits, credits, balanced)
	}
}

func TestBuildSections_EmptyLedger(t *testing.T) {
	t.Parallel()

	sections, totals, balanced := BuildSections(ReportTypeBalanceSheet, nil)
	if len(sections) != 3 || !balanced {
		t.Fatalf("expected empty balanced sheet, got %d sections balanced=%v", len(sections), balanced)
	}
	for _, s := range sections {
		if s.Accounts == nil || !s.Total.IsZero() {
			t.Fatalf("section %s should be empty with zero total", s.Key)
		}
	}
	for _, tot := range totals {
		if !tot.Amount.IsZero() {
			t.Fatalf("total %s should be zero", tot.Key)
		}
	}
}
