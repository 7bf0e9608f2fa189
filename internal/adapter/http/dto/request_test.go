package dto

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

func TestDateUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"calendar date", `"2025-01-15"`, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"timestamp truncated", `"2025-01-15T17:30:00Z"`, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"garbage", `"15/01/2025"`, time.Time{}, true},
		{"number", `20250115`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !d.Equal(tt.want) {
				t.Fatalf("got %v, want %v", d.Time, tt.want)
			}
		})
	}
}

func TestDateMarshal(t *testing.T) {
	b, err := json.Marshal(NewDate(time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != `"2025-03-09"` {
		t.Fatalf("unexpected date json %s", b)
	}
}

func TestProcessBatchRequest_ToUseCaseInput(t *testing.T) {
	body := `{
		"approvedEntries": [{
			"groupKey": "g1",
			"header": {"date": "2025-01-15", "description": "Office Supplies"},
			"lines": [
				{"accountCode": "1", "amount": 250.00, "dimensions": {"DEPT": "SALES"}},
				{"accountCode": "2", "amount": -250.00, "entityId": 394}
			]
		}],
		"entityId": 393,
		"batchSettings": {"isAccrual": true, "description": "Jan", "reversalDate": "2025-02-01"}
	}`

	var req ProcessBatchRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if err := Validate(&req); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	input := req.ToUseCaseInput(7, "req-1")
	if input.ClientID != 7 || input.RequestID != "req-1" || input.EntityID == nil || *input.EntityID != 393 {
		t.Fatalf("unexpected input header: %+v", input)
	}
	if !input.Settings.IsAccrual || input.Settings.ReversalDate == nil ||
		!input.Settings.ReversalDate.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected settings: %+v", input.Settings)
	}

	group := input.Groups[0]
	if group.GroupKey != "g1" || group.Date == nil || group.Description != "Office Supplies" {
		t.Fatalf("unexpected group: %+v", group)
	}
	if !group.IsBalanced() {
		t.Fatalf("expected balanced group")
	}
	if group.Lines[1].RowIndex != 1 || group.Lines[1].Side() != domain.SideCredit {
		t.Fatalf("unexpected second line: %+v", group.Lines[1])
	}
	if *group.Lines[1].EntityID != 394 || group.Lines[0].Dimensions["DEPT"] != "SALES" {
		t.Fatalf("line tags not carried: %+v", group.Lines)
	}
	if !group.Lines[0].Amount.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected amount %s", group.Lines[0].Amount)
	}
}

func TestProcessBatchRequest_EmptyBatchPassesShapeValidation(t *testing.T) {
	var req ProcessBatchRequest
	if err := json.Unmarshal([]byte(`{"approvedEntries": [], "entityId": null}`), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if err := Validate(&req); err != nil {
		t.Fatalf("empty batch is rejected by the posting engine, not struct validation: %v", err)
	}
	input := req.ToUseCaseInput(7, "")
	if len(input.Groups) != 0 || input.EntityID != nil {
		t.Fatalf("unexpected input: %+v", input)
	}
}

func TestValidateReportsJSONFieldPaths(t *testing.T) {
	req := ValidateBatchRequest{EntryGroups: []EntryGroupRequest{{
		GroupKey: "g1",
		Lines:    []ProposedLineRequest{{AccountCode: "", Amount: amountPtr("10")}},
	}}}

	err := Validate(&req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Field != "entryGroups[0].lines[0].accountCode" || verr.Fields[0].Rule != "required" {
		t.Fatalf("unexpected field errors: %+v", verr.Fields)
	}
}

func amountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestEntryGroupRequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		rule  string
	}{
		{
			name:  "group without lines",
			body:  `{"entryGroups": [{"groupKey": "g1", "lines": []}]}`,
			field: "entryGroups[0].lines",
			rule:  "min",
		},
		{
			name:  "group with lines omitted",
			body:  `{"entryGroups": [{"groupKey": "g1"}]}`,
			field: "entryGroups[0].lines",
			rule:  "min",
		},
		{
			name:  "line without amount",
			body:  `{"entryGroups": [{"groupKey": "g1", "lines": [{"accountCode": "1"}]}]}`,
			field: "entryGroups[0].lines[0].amount",
			rule:  "required",
		},
		{
			name:  "amount finer than storage",
			body:  `{"entryGroups": [{"groupKey": "g1", "lines": [{"accountCode": "1", "amount": "10.00005"}]}]}`,
			field: "entryGroups[0].lines[0].amount",
			rule:  "amount_scale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ValidateBatchRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}

			var verr *ValidationError
			if err := Validate(&req); !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Fields) != 1 || verr.Fields[0].Field != tt.field || verr.Fields[0].Rule != tt.rule {
				t.Fatalf("unexpected field errors: %+v", verr.Fields)
			}
		})
	}
}

func TestEntryGroupRequestAcceptsStorableAmounts(t *testing.T) {
	body := `{"entryGroups": [{"groupKey": "g1", "lines": [
		{"accountCode": "1", "amount": "10.1234"},
		{"accountCode": "2", "amount": "-10.12340000"},
		{"accountCode": "3", "amount": 0}
	]}]}`
	var req ValidateBatchRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if err := Validate(&req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := req.ToUseCaseInput(7).Groups[0].Lines
	if !lines[1].Amount.Equal(decimal.RequireFromString("-10.1234")) {
		t.Fatalf("unexpected amount %s", lines[1].Amount)
	}
	if !lines[2].Amount.IsZero() {
		t.Fatalf("expected explicit zero, got %s", lines[2].Amount)
	}
}

func TestGenerateReportRequestValidation(t *testing.T) {
	start, _ := ParseDate("2024-01-01")
	end, _ := ParseDate("2024-12-31")

	valid := GenerateReportRequest{GroupID: "grp-1", ReportType: "balance_sheet", StartDate: &start, EndDate: &end}
	if err := Validate(&valid); err != nil {
		t.Fatalf("expected valid request: %v", err)
	}

	input := valid.ToUseCaseInput()
	if input.ReportType != domain.ReportTypeBalanceSheet || !input.EndDate.Equal(end.Time) {
		t.Fatalf("unexpected input: %+v", input)
	}

	invalid := GenerateReportRequest{GroupID: "grp-1", ReportType: "cash_flow"}
	err := Validate(&invalid)
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 3 {
		t.Fatalf("expected three field errors, got %v", err)
	}
}

func TestCreateGroupRequestValidation(t *testing.T) {
	start, _ := ParseDate("2024-01-01")
	end, _ := ParseDate("2024-03-31")

	req := CreateGroupRequest{
		ClientID:   7,
		Name:       "EU",
		Currency:   "eur",
		StartDate:  &start,
		EndDate:    &end,
		PeriodType: "quarterly",
		EntityIDs:  []int64{10, 0},
	}

	err := Validate(&req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Rule
	}
	if fields["currency"] != "uppercase" || fields["entityIds[1]"] != "gt" {
		t.Fatalf("unexpected field errors: %+v", verr.Fields)
	}

	req.Currency = "EUR"
	req.EntityIDs = []int64{10, 20}
	if err := Validate(&req); err != nil {
		t.Fatalf("expected valid request: %v", err)
	}
	if in := req.ToUseCaseInput(); in.PeriodType != domain.PeriodTypeQuarterly || len(in.EntityIDs) != 2 {
		t.Fatalf("unexpected input: %+v", in)
	}
}
