package dto

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

func TestValidationResultFromDomain(t *testing.T) {
	row := 1
	debits := decimal.RequireFromString("100")
	credits := decimal.RequireFromString("90.5")
	result := &domain.BatchValidationResult{
		Groups: []domain.GroupValidation{
			{
				GroupKey: "g1",
				IsValid:  false,
				Debits:   debits,
				Credits:  credits,
				Lines: []domain.LineValidation{
					{RowIndex: 0},
					{RowIndex: 1, Errors: []domain.ValidationIssue{{
						Kind: domain.ErrorKindAccountNotFound, RowIndex: &row, AccountCode: "4040", Message: "account 4040 not found",
					}}},
				},
				Errors: []domain.ValidationIssue{{
					Kind: domain.ErrorKindUnbalancedEntry, Debits: &debits, Credits: &credits,
				}},
			},
		},
		Suggestions: []domain.DimensionValueSuggestion{{DimensionCode: "DEPT", ValueCode: "R&D", GroupKeys: []string{"g1"}}},
		Summary:     domain.BatchSummary{TotalEntries: 1, EntriesWithErrors: 1, NewDimensionValues: 1},
	}

	resp := ValidationResultFromDomain(result)

	if len(resp.EntryGroups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(resp.EntryGroups))
	}
	g := resp.EntryGroups[0]
	if g.IsValid || g.Debits != "100.00" || g.Credits != "90.50" {
		t.Fatalf("unexpected group: valid=%v debits=%s credits=%s", g.IsValid, g.Debits, g.Credits)
	}
	if len(g.Lines[1].Errors) != 1 {
		t.Fatalf("expected 1 line error, got %+v", g.Lines[1].Errors)
	}
	if le := g.Lines[1].Errors[0]; le.Type != "ACCOUNT_NOT_FOUND" || le.AccountCode != "4040" {
		t.Fatalf("unexpected line error: %+v", le)
	}
	if len(g.Errors) != 1 {
		t.Fatalf("expected 1 group error, got %+v", g.Errors)
	}
	if ge := g.Errors[0]; ge.Type != "UNBALANCED_ENTRY" || ge.Credits == nil || *ge.Credits != "90.50" {
		t.Fatalf("unexpected group error: %+v", ge)
	}
	if resp.BatchSummary.NewDimensionValues != 1 || resp.NewDimensionValueSuggestions[0].ValueCode != "R&D" {
		t.Fatalf("unexpected suggestions: %+v", resp.NewDimensionValueSuggestions)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `"batchSummary":{"totalEntries":1,"validEntries":0,"entriesWithErrors":1,"newDimensionValues":1}`; !strings.Contains(string(b), want) {
		t.Fatalf("expected %s in %s", want, b)
	}
}

func TestJournalEntryFromDomain(t *testing.T) {
	entity := int64(393)
	entry := &domain.JournalEntry{
		ID:       "je-1",
		ClientID: 7,
		EntityID: &entity,
		Date:     time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:   domain.JournalStatusDraft,
		Lines: []domain.JournalLine{
			{ID: "l1", LineNo: 1, AccountCode: "1", Side: domain.SideDebit, Amount: decimal.NewFromInt(250)},
			{ID: "l2", LineNo: 2, AccountCode: "2", Side: domain.SideCredit, Amount: decimal.NewFromInt(250)},
		},
	}

	resp := JournalEntryFromDomain(entry)
	if resp.Debits != "250.00" || resp.Credits != "250.00" {
		t.Fatalf("unexpected totals: %s / %s", resp.Debits, resp.Credits)
	}
	if resp.Status != "draft" || resp.Lines[1].Side != "credit" {
		t.Fatalf("unexpected status %s or side %s", resp.Status, resp.Lines[1].Side)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"date":"2025-01-15"`) {
		t.Fatalf("expected calendar date in %s", b)
	}

	if list := JournalEntriesFromDomain([]*domain.JournalEntry{entry}); len(list) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(list))
	}
}

func TestReportFromDomain(t *testing.T) {
	report := &domain.Report{
		GroupID:   "grp-1",
		Type:      domain.ReportTypeTrialBalance,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		EntityIDs: []int64{10, 20},
		Sections: []domain.ReportSection{{
			Key:   "asset",
			Label: "Assets",
			Accounts: []domain.AccountBalance{{
				AccountID: 1, Code: "1", Name: "Cash", Type: domain.AccountTypeAsset,
				Debits: decimal.NewFromInt(300), Credits: decimal.RequireFromString("99.999"),
			}},
			Total: decimal.RequireFromString("200.001"),
		}},
		Totals:   []domain.ReportTotal{{Key: "totalDebits", Amount: decimal.NewFromInt(300)}},
		Balanced: true,
	}

	resp := ReportFromDomain(report)
	if resp.ReportType != "trial_balance" || !reflect.DeepEqual(resp.EntityIDs, []int64{10, 20}) {
		t.Fatalf("unexpected report header: %s %v", resp.ReportType, resp.EntityIDs)
	}
	if resp.Sections[0].Total != "200.00" || resp.Sections[0].Accounts[0].Balance != "200.00" {
		t.Fatalf("unexpected section: %+v", resp.Sections[0])
	}
	if resp.Totals["totalDebits"] != "300.00" {
		t.Fatalf("unexpected totals: %v", resp.Totals)
	}

	if empty := ReportFromDomain(&domain.Report{}); empty.EntityIDs == nil {
		t.Fatal("expected entity ids to encode as an empty list")
	}
}

func TestSmallConverters(t *testing.T) {
	run := ReversalRunFromDomain(&domain.ReversalRunResult{SuccessCount: 2, FailCount: 1})
	if run.ReversalEntryIDs == nil || len(run.ReversalEntryIDs) != 0 || run.SuccessCount != 2 {
		t.Fatalf("unexpected run response: %+v", run)
	}

	cons := ConsistencyFromReport(&usecase.ConsistencyReport{Consistent: true, TotalDebits: decimal.NewFromInt(5), TotalCredits: decimal.NewFromInt(5)})
	if cons.TotalDebits != "5.00" || cons.UnbalancedEntryIDs == nil || len(cons.UnbalancedEntryIDs) != 0 {
		t.Fatalf("unexpected consistency response: %+v", cons)
	}

	failures := GroupFailuresFromDomain(&domain.BatchPostError{Failures: []domain.GroupFailure{{GroupKey: "g3", Index: 2, Reason: "storage failure"}}})
	if want := []GroupFailureResponse{{GroupKey: "g3", Index: 2, Reason: "storage failure"}}; !reflect.DeepEqual(failures, want) {
		t.Fatalf("expected %+v, got %+v", want, failures)
	}

	group := GroupFromDomain(&domain.ConsolidationGroup{ID: "grp-1", PeriodType: domain.PeriodTypeMonthly})
	if group.EntityIDs == nil || len(group.EntityIDs) != 0 || group.PeriodType != "monthly" {
		t.Fatalf("unexpected group response: %+v", group)
	}
}
