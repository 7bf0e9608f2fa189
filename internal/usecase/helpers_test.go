package usecase_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase/mocks"
)

const testClientID int64 = 7

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func datePtr(t *testing.T, s string) *time.Time {
	d := date(t, s)
	return &d
}

func int64Ptr(v int64) *int64 { return &v }

func line(row int, code, amount string) domain.ProposedLine {
	return domain.ProposedLine{
		RowIndex:    row,
		AccountCode: code,
		Amount:      decimal.RequireFromString(amount),
	}
}

func testAccounts() []domain.Account {
	return []domain.Account{
		{ID: 1, ClientID: testClientID, Code: "1", Name: "Cash", Type: domain.AccountTypeAsset, Active: true},
		{ID: 2, ClientID: testClientID, Code: "2", Name: "Revenue", Type: domain.AccountTypeRevenue, Active: true},
		{ID: 3, ClientID: testClientID, Code: "2100", Name: "Accrued Liabilities", Type: domain.AccountTypeLiability, Active: true},
		{ID: 4, ClientID: testClientID, Code: "6000", Name: "Utilities", Type: domain.AccountTypeExpense, Active: true},
		{ID: 5, ClientID: testClientID, Code: "3000", Name: "Share Capital", Type: domain.AccountTypeEquity, Active: true},
		{ID: 6, ClientID: testClientID, Code: "9999", Name: "Closed", Type: domain.AccountTypeAsset, Active: false},
	}
}

func seededStore() *mocks.Store {
	store := mocks.NewStore()
	store.AddClient(testClientID)
	for _, a := range testAccounts() {
		store.AddAccount(a)
	}
	store.AddDimension(&domain.Dimension{
		ID:       1,
		ClientID: testClientID,
		Code:     "DEPT",
		Name:     "Department",
		Values: []domain.DimensionValue{
			{ID: 1, Code: "SALES", Name: "Sales", SortOrder: 1},
			{ID: 2, Code: "OPS", Name: "Operations", SortOrder: 2},
		},
	})
	return store
}

func fixedClock(t *testing.T, s string) func() time.Time {
	at := date(t, s).Add(9 * time.Hour)
	return func() time.Time { return at }
}
