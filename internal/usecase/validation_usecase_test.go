package usecase_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
	"github.com/iho/bookkeeper/internal/usecase/mocks"
)

func TestBatchValidationUseCase_FetchesReferenceDataOnce(t *testing.T) {
	ctrl := gomock.NewController(t)

	clients := mocks.NewMockClientRepository(ctrl)
	refData := mocks.NewMockReferenceDataReader(ctrl)

	accounts := testAccounts()
	ptrs := make([]*domain.Account, len(accounts))
	for i := range accounts {
		ptrs[i] = &accounts[i]
	}

	clients.EXPECT().Exists(gomock.Any(), testClientID).Return(true, nil).Times(1)
	refData.EXPECT().GetAccounts(gomock.Any(), testClientID).Return(ptrs, nil).Times(1)
	refData.EXPECT().GetDimensions(gomock.Any(), testClientID).Return(nil, nil).Times(1)

	groups := make([]domain.EntryGroup, 0, 25)
	for i := 0; i < 25; i++ {
		groups = append(groups, domain.EntryGroup{
			GroupKey: string(rune('a' + i)),
			Lines:    []domain.ProposedLine{line(i*2, "1", "10.00"), line(i*2+1, "2", "-10.00")},
		})
	}

	uc := usecase.NewBatchValidationUseCase(clients, refData)
	result, err := uc.Validate(context.Background(), usecase.ValidateBatchInput{ClientID: testClientID, Groups: groups})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.TotalEntries != 25 || result.Summary.ValidEntries != 25 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
}

func TestBatchValidationUseCase_Validate(t *testing.T) {
	tests := []struct {
		name      string
		groups    []domain.EntryGroup
		valid     []bool
		kinds     [][]domain.ErrorKind
		suggested int
	}{
		{
			name: "balanced group with known accounts is valid",
			groups: []domain.EntryGroup{{
				GroupKey: "g1",
				Lines:    []domain.ProposedLine{line(0, "1", "250.00"), line(1, "2", "-250.00")},
			}},
			valid: []bool{true},
			kinds: [][]domain.ErrorKind{nil},
		},
		{
			name: "difference within tolerance is balanced",
			groups: []domain.EntryGroup{{
				GroupKey: "g1",
				Lines:    []domain.ProposedLine{line(0, "1", "100.00"), line(1, "2", "-99.995")},
			}},
			valid: []bool{true},
			kinds: [][]domain.ErrorKind{nil},
		},
		{
			name: "unbalanced group gets exactly one group-level error",
			groups: []domain.EntryGroup{{
				GroupKey: "g1",
				Lines:    []domain.ProposedLine{line(0, "1", "100.00"), line(1, "2", "-90.00")},
			}},
			valid: []bool{false},
			kinds: [][]domain.ErrorKind{{domain.ErrorKindUnbalancedEntry}},
		},
		{
			name: "unknown and inactive accounts are flagged per line",
			groups: []domain.EntryGroup{{
				GroupKey: "g1",
				Lines: []domain.ProposedLine{
					line(0, "404", "10.00"),
					line(1, "9999", "-10.00"),
				},
			}},
			valid: []bool{false},
			kinds: [][]domain.ErrorKind{{domain.ErrorKindAccountNotFound, domain.ErrorKindAccountNotFound}},
		},
		{
			name: "group without lines is invalid",
			groups: []domain.EntryGroup{
				{GroupKey: "g1"},
				{GroupKey: "g2", Lines: []domain.ProposedLine{line(0, "1", "5.00"), line(1, "2", "-5.00")}},
			},
			valid: []bool{false, true},
			kinds: [][]domain.ErrorKind{{domain.ErrorKindEmptyEntry}, nil},
		},
		{
			name: "unknown dimension is an error, unknown value a suggestion",
			groups: []domain.EntryGroup{
				{
					GroupKey: "g1",
					Lines: []domain.ProposedLine{
						withDims(line(0, "1", "10.00"), map[string]string{"REGION": "EU"}),
						withDims(line(1, "2", "-10.00"), map[string]string{"DEPT": "LEGAL"}),
					},
				},
				{
					GroupKey: "g2",
					Lines: []domain.ProposedLine{
						withDims(line(2, "1", "5.00"), map[string]string{"DEPT": "LEGAL"}),
						withDims(line(3, "2", "-5.00"), map[string]string{"DEPT": "SALES"}),
					},
				},
			},
			valid:     []bool{false, true},
			kinds:     [][]domain.ErrorKind{{domain.ErrorKindDimensionNotFound}, nil},
			suggested: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore()
			uc := usecase.NewBatchValidationUseCase(store, store)

			result, err := uc.Validate(context.Background(), usecase.ValidateBatchInput{
				ClientID: testClientID,
				Groups:   tt.groups,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Groups) != len(tt.groups) {
				t.Fatalf("expected %d groups, got %d", len(tt.groups), len(result.Groups))
			}

			for i, g := range result.Groups {
				if g.IsValid != tt.valid[i] {
					t.Errorf("group %s: expected valid=%v", g.GroupKey, tt.valid[i])
				}
				var kinds []domain.ErrorKind
				for _, issue := range g.Issues() {
					kinds = append(kinds, issue.Kind)
				}
				if !reflect.DeepEqual(kinds, tt.kinds[i]) {
					t.Errorf("group %s: expected issues %v, got %v", g.GroupKey, tt.kinds[i], kinds)
				}
			}
			if len(result.Suggestions) != tt.suggested {
				t.Errorf("expected %d suggestions, got %d", tt.suggested, len(result.Suggestions))
			}
			sum := result.Summary
			if sum.TotalEntries != len(tt.groups) || sum.TotalEntries != sum.ValidEntries+sum.EntriesWithErrors {
				t.Errorf("inconsistent summary: %+v", sum)
			}
			if store.GetAccountsCalls != 1 || store.GetDimensionsCalls != 1 {
				t.Errorf("expected reference data read once, got accounts=%d dimensions=%d",
					store.GetAccountsCalls, store.GetDimensionsCalls)
			}
		})
	}
}

func TestBatchValidationUseCase_SuggestionsAreDeduplicated(t *testing.T) {
	store := seededStore()
	uc := usecase.NewBatchValidationUseCase(store, store)

	groups := []domain.EntryGroup{
		{GroupKey: "a", Lines: []domain.ProposedLine{
			withDims(line(0, "1", "1.00"), map[string]string{"DEPT": "LEGAL"}),
			withDims(line(1, "2", "-1.00"), map[string]string{"DEPT": "LEGAL"}),
		}},
		{GroupKey: "b", Lines: []domain.ProposedLine{
			withDims(line(2, "1", "1.00"), map[string]string{"DEPT": "LEGAL"}),
			withDims(line(3, "2", "-1.00"), map[string]string{"DEPT": "HR"}),
		}},
	}

	result, err := uc.Validate(context.Background(), usecase.ValidateBatchInput{ClientID: testClientID, Groups: groups})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %+v", result.Suggestions)
	}

	legal := result.Suggestions[0]
	if legal.DimensionCode != "DEPT" || legal.ValueCode != "LEGAL" || legal.FirstRowIndex != 0 {
		t.Fatalf("unexpected first suggestion: %+v", legal)
	}
	if !reflect.DeepEqual(legal.GroupKeys, []string{"a", "b"}) {
		t.Fatalf("expected group keys [a b], got %v", legal.GroupKeys)
	}

	hr := result.Suggestions[1]
	if hr.ValueCode != "HR" || hr.FirstRowIndex != 3 {
		t.Fatalf("unexpected second suggestion: %+v", hr)
	}
	if result.Summary.NewDimensionValues != 2 || result.Summary.ValidEntries != 2 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
}

func TestBatchValidationUseCase_UnbalancedCarriesTotals(t *testing.T) {
	store := seededStore()
	uc := usecase.NewBatchValidationUseCase(store, store)

	result, err := uc.Validate(context.Background(), usecase.ValidateBatchInput{
		ClientID: testClientID,
		Groups: []domain.EntryGroup{{GroupKey: "g", Lines: []domain.ProposedLine{
			line(0, "1", "120.50"),
			line(1, "2", "-100.00"),
		}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issues := result.Groups[0].Errors
	if len(issues) != 1 {
		t.Fatalf("expected 1 group issue, got %+v", issues)
	}
	if issues[0].Debits.StringFixed(2) != "120.50" || issues[0].Credits.StringFixed(2) != "100.00" {
		t.Fatalf("unexpected totals: debits=%s credits=%s", issues[0].Debits, issues[0].Credits)
	}
	if issues[0].RowIndex != nil {
		t.Fatalf("group issue must not carry a row index, got %d", *issues[0].RowIndex)
	}
}

func TestBatchValidationUseCase_ClientNotFound(t *testing.T) {
	store := seededStore()
	uc := usecase.NewBatchValidationUseCase(store, store)

	_, err := uc.Validate(context.Background(), usecase.ValidateBatchInput{ClientID: 999})
	if !errors.Is(err, domain.ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
	if store.GetAccountsCalls != 0 {
		t.Fatalf("expected no account lookup, got %d", store.GetAccountsCalls)
	}
}

func TestBatchValidationUseCase_ReferenceDataError(t *testing.T) {
	ctrl := gomock.NewController(t)

	clients := mocks.NewMockClientRepository(ctrl)
	refData := mocks.NewMockReferenceDataReader(ctrl)

	clients.EXPECT().Exists(gomock.Any(), testClientID).Return(true, nil)
	refData.EXPECT().GetAccounts(gomock.Any(), testClientID).Return(nil, errors.New("connection reset"))

	uc := usecase.NewBatchValidationUseCase(clients, refData)
	_, err := uc.Validate(context.Background(), usecase.ValidateBatchInput{ClientID: testClientID})
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected reference data error, got %v", err)
	}
}

func TestBatchValidationUseCase_RecordsMetrics(t *testing.T) {
	store := seededStore()
	metrics := mocks.NewRecordingMetrics()
	uc := usecase.NewBatchValidationUseCase(store, store).WithMetrics(metrics)

	_, err := uc.Validate(context.Background(), usecase.ValidateBatchInput{
		ClientID: testClientID,
		Groups: []domain.EntryGroup{{GroupKey: "g", Lines: []domain.ProposedLine{
			line(0, "404", "1.00"),
			line(1, "2", "-2.00"),
		}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.BatchesValidated != 1 {
		t.Fatalf("expected 1 validated batch, got %d", metrics.BatchesValidated)
	}
	if metrics.Issues[domain.ErrorKindAccountNotFound] != 1 || metrics.Issues[domain.ErrorKindUnbalancedEntry] != 1 {
		t.Fatalf("unexpected issue counts: %v", metrics.Issues)
	}
}

func withDims(l domain.ProposedLine, dims map[string]string) domain.ProposedLine {
	l.Dimensions = dims
	return l
}
