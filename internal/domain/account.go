package domain

import (
	"time"
)

// AccountType classifies an account within the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// AccountTypes lists the account types in reporting order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalSide returns the side on which balances of this type increase.
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Account is a client-scoped entry in the chart of accounts.
type Account struct {
	ID          int64
	ClientID    int64
	Code        string
	Name        string
	Description string
	Type        AccountType
	ParentCode  *string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanPost reports whether new lines may reference the account.
func (a *Account) CanPost() bool {
	return a.Active
}

// ChartOfAccounts indexes a client's accounts by code.
type ChartOfAccounts map[string]*Account

// NewChartOfAccounts builds a code index over accounts.
func NewChartOfAccounts(accounts []*Account) ChartOfAccounts {
	chart := make(ChartOfAccounts, len(accounts))
	for _, a := range accounts {
		chart[a.Code] = a
	}
	return chart
}

// Lookup returns the account with the given code.
func (c ChartOfAccounts) Lookup(code string) (*Account, bool) {
	a, ok := c[code]
	return a, ok
}
