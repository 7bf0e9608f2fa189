package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ReportType selects how ledger balances are bucketed.
type ReportType string

const (
	ReportTypeBalanceSheet    ReportType = "balance_sheet"
	ReportTypeIncomeStatement ReportType = "income_statement"
	ReportTypeTrialBalance    ReportType = "trial_balance"
)

// IsValid reports whether t is a supported report type.
func (t ReportType) IsValid() bool {
	switch t {
	case ReportTypeBalanceSheet, ReportTypeIncomeStatement, ReportTypeTrialBalance:
		return true
	}
	return false
}

// Report total keys.
const (
	TotalAssets               = "assets"
	TotalLiabilities          = "liabilities"
	TotalEquity               = "equity"
	TotalCurrentEarnings      = "currentEarnings"
	TotalLiabilitiesAndEquity = "liabilitiesAndEquity"
	TotalRevenue              = "revenue"
	TotalExpenses             = "expenses"
	TotalNetIncome            = "netIncome"
	TotalDebits               = "totalDebits"
	TotalCredits              = "totalCredits"
)

// PostedLine is a posted journal line joined with its entry and account.
type PostedLine struct {
	EntryID     string
	EntityID    int64
	EntryDate   time.Time
	AccountID   int64
	AccountCode string
	AccountName string
	AccountType AccountType
	Side        Side
	Amount      decimal.Decimal
}

// AccountBalance aggregates the posted activity of one account.
type AccountBalance struct {
	AccountID int64
	Code      string
	Name      string
	Type      AccountType
	Debits    decimal.Decimal
	Credits   decimal.Decimal
}

// Balance is the account's net activity on its normal side.
func (a AccountBalance) Balance() decimal.Decimal {
	if a.Type.NormalSide() == SideDebit {
		return a.Debits.Sub(a.Credits)
	}
	return a.Credits.Sub(a.Debits)
}

// ReportSection is one bucket of a report.
type ReportSection struct {
	Key      string
	Label    string
	Accounts []AccountBalance
	Total    decimal.Decimal
}

// ReportTotal is a named figure at the foot of a report.
type ReportTotal struct {
	Key    string
	Amount decimal.Decimal
}

// Report is a consolidated financial statement over a group's entities.
// For identical inputs and ledger state every field except GeneratedAt is
// identical between runs.
type Report struct {
	GroupID     string
	GroupName   string
	Currency    string
	Type        ReportType
	StartDate   time.Time
	EndDate     time.Time
	EntityIDs   []int64
	Sections    []ReportSection
	Totals      []ReportTotal
	Balanced    bool
	GeneratedAt time.Time
}

// Total returns the named total and whether it exists.
func (r *Report) Total(key string) (decimal.Decimal, bool) {
	for _, t := range r.Totals {
		if t.Key == key {
			return t.Amount, true
		}
	}
	return decimal.Zero, false
}

// LedgerAggregate accumulates posted lines per account.
type LedgerAggregate struct {
	accounts map[int64]*AccountBalance
}

// NewLedgerAggregate returns an empty aggregate.
func NewLedgerAggregate() *LedgerAggregate {
	return &LedgerAggregate{accounts: make(map[int64]*AccountBalance)}
}

// Add folds a posted line into its account bucket.
func (a *LedgerAggregate) Add(line PostedLine) {
	acc, ok := a.accounts[line.AccountID]
	if !ok {
		acc = &AccountBalance{
			AccountID: line.AccountID,
			Code:      line.AccountCode,
			Name:      line.AccountName,
			Type:      line.AccountType,
			Debits:    decimal.Zero,
			Credits:   decimal.Zero,
		}
		a.accounts[line.AccountID] = acc
	}
	switch line.Side {
	case SideDebit:
		acc.Debits = acc.Debits.Add(line.Amount)
	case SideCredit:
		acc.Credits = acc.Credits.Add(line.Amount)
	}
}

// Balances returns account balances ordered by code, then account id.
func (a *LedgerAggregate) Balances() []AccountBalance {
	out := make([]AccountBalance, 0, len(a.accounts))
	for _, acc := range a.accounts {
		out = append(out, *acc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out
}

var sectionLabels = map[AccountType]string{
	AccountTypeAsset:     "Assets",
	AccountTypeLiability: "Liabilities",
	AccountTypeEquity:    "Equity",
	AccountTypeRevenue:   "Revenue",
	AccountTypeExpense:   "Expenses",
}

// BuildSections buckets balances for the report type. Balances must already be
// in their final order; sections are emitted in a fixed order.
func BuildSections(t ReportType, balances []AccountBalance) ([]ReportSection, []ReportTotal, bool) {
	switch t {
	case ReportTypeBalanceSheet:
		return buildBalanceSheet(balances)
	case ReportTypeIncomeStatement:
		return buildIncomeStatement(balances)
	default:
		return buildTrialBalance(balances)
	}
}

func bucket(types []AccountType, balances []AccountBalance) []ReportSection {
	sections := make([]ReportSection, len(types))
	index := make(map[AccountType]int, len(types))
	for i, typ := range types {
		sections[i] = ReportSection{Key: string(typ), Label: sectionLabels[typ], Accounts: []AccountBalance{}, Total: decimal.Zero}
		index[typ] = i
	}
	for _, b := range balances {
		i, ok := index[b.Type]
		if !ok {
			continue
		}
		sections[i].Accounts = append(sections[i].Accounts, b)
		sections[i].Total = sections[i].Total.Add(b.Balance())
	}
	return sections
}

func netIncome(balances []AccountBalance) (revenue, expenses decimal.Decimal) {
	revenue, expenses = decimal.Zero, decimal.Zero
	for _, b := range balances {
		switch b.Type {
		case AccountTypeRevenue:
			revenue = revenue.Add(b.Balance())
		case AccountTypeExpense:
			expenses = expenses.Add(b.Balance())
		}
	}
	return revenue, expenses
}

func buildBalanceSheet(balances []AccountBalance) ([]ReportSection, []ReportTotal, bool) {
	sections := bucket([]AccountType{AccountTypeAsset, AccountTypeLiability, AccountTypeEquity}, balances)
	revenue, expenses := netIncome(balances)
	earnings := revenue.Sub(expenses)

	assets, liabilities, equity := sections[0].Total, sections[1].Total, sections[2].Total
	liabilitiesAndEquity := liabilities.Add(equity).Add(earnings)

	totals := []ReportTotal{
		{Key: TotalAssets, Amount: assets},
		{Key: TotalLiabilities, Amount: liabilities},
		{Key: TotalEquity, Amount: equity},
		{Key: TotalCurrentEarnings, Amount: earnings},
		{Key: TotalLiabilitiesAndEquity, Amount: liabilitiesAndEquity},
	}
	return sections, totals, WithinTolerance(assets.Sub(liabilitiesAndEquity))
}

func buildIncomeStatement(balances []AccountBalance) ([]ReportSection, []ReportTotal, bool) {
	sections := bucket([]AccountType{AccountTypeRevenue, AccountTypeExpense}, balances)
	revenue, expenses := sections[0].Total, sections[1].Total

	totals := []ReportTotal{
		{Key: TotalRevenue, Amount: revenue},
		{Key: TotalExpenses, Amount: expenses},
		{Key: TotalNetIncome, Amount: revenue.Sub(expenses)},
	}
	return sections, totals, true
}

func buildTrialBalance(balances []AccountBalance) ([]ReportSection, []ReportTotal, bool) {
	sections := bucket(AccountTypes, balances)
	debits, credits := decimal.Zero, decimal.Zero
	for _, b := range balances {
		debits = debits.Add(b.Debits)
		credits = credits.Add(b.Credits)
	}

	totals := []ReportTotal{
		{Key: TotalDebits, Amount: debits},
		{Key: TotalCredits, Amount: credits},
	}
	return sections, totals, WithinTolerance(debits.Sub(credits))
}
