package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/bookkeeper/internal/domain"
)

// ConsolidationUseCase manages consolidation groups and generates
// consolidated reports over their member entities.
type ConsolidationUseCase struct {
	groups      ConsolidationRepository
	ledger      PostedLedgerReader
	idGen       IDGenerator
	audit       AuditRepository
	metrics     MetricsRecorder
	logger      zerolog.Logger
	now         func() time.Time
	concurrency int
}

// NewConsolidationUseCase creates a new ConsolidationUseCase.
func NewConsolidationUseCase(groups ConsolidationRepository, ledger PostedLedgerReader, idGen IDGenerator) *ConsolidationUseCase {
	return &ConsolidationUseCase{
		groups:      groups,
		ledger:      ledger,
		idGen:       idGen,
		metrics:     noopMetrics{},
		logger:      zerolog.Nop(),
		now:         time.Now,
		concurrency: DefaultReportConcurrency,
	}
}

// WithConcurrency caps parallel per-entity ledger reads.
func (uc *ConsolidationUseCase) WithConcurrency(n int) *ConsolidationUseCase {
	if n > 0 {
		uc.concurrency = n
	}
	return uc
}

// WithAudit records group changes.
func (uc *ConsolidationUseCase) WithAudit(a AuditRepository) *ConsolidationUseCase {
	uc.audit = a
	return uc
}

// WithMetrics sets the metrics recorder.
func (uc *ConsolidationUseCase) WithMetrics(m MetricsRecorder) *ConsolidationUseCase {
	if m != nil {
		uc.metrics = m
	}
	return uc
}

// WithLogger sets the logger.
func (uc *ConsolidationUseCase) WithLogger(l zerolog.Logger) *ConsolidationUseCase {
	uc.logger = l
	return uc
}

// WithClock overrides the time source used for GeneratedAt.
func (uc *ConsolidationUseCase) WithClock(now func() time.Time) *ConsolidationUseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

// GenerateReportInput represents input for generating a consolidated report.
type GenerateReportInput struct {
	GroupID    string
	ReportType domain.ReportType
	StartDate  time.Time
	EndDate    time.Time
}

// Generate aggregates posted lines of the group's current members within
// [StartDate, EndDate]. It only reads, and for unchanged ledger state every
// field but GeneratedAt is identical across calls.
func (uc *ConsolidationUseCase) Generate(ctx context.Context, input GenerateReportInput) (*domain.Report, error) {
	if !input.ReportType.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidReportType, input.ReportType)
	}
	start, end := domain.TruncateDate(input.StartDate), domain.TruncateDate(input.EndDate)
	if err := domain.ValidateDateRange(start, end); err != nil {
		return nil, err
	}

	began := uc.now()

	group, err := uc.groups.GetGroup(ctx, input.GroupID)
	if err != nil {
		return nil, err
	}

	members, err := uc.groups.MemberEntityIDs(ctx, input.GroupID)
	if err != nil {
		return nil, fmt.Errorf("load group members: %w", err)
	}
	entityIDs := domain.SortEntityIDs(members)

	perEntity := make([][]domain.PostedLine, len(entityIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i, entityID := range entityIDs {
		g.Go(func() error {
			lines, err := uc.ledger.PostedLines(gctx, entityID, start, end)
			if err != nil {
				return fmt.Errorf("load posted lines for entity %d: %w", entityID, err)
			}
			perEntity[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Fold in entity order so aggregation never depends on fetch completion order.
	agg := domain.NewLedgerAggregate()
	for i := range entityIDs {
		for _, line := range perEntity[i] {
			agg.Add(line)
		}
	}

	sections, totals, balanced := domain.BuildSections(input.ReportType, agg.Balances())
	report := &domain.Report{
		GroupID:     group.ID,
		GroupName:   group.Name,
		Currency:    group.Currency,
		Type:        input.ReportType,
		StartDate:   start,
		EndDate:     end,
		EntityIDs:   entityIDs,
		Sections:    sections,
		Totals:      totals,
		Balanced:    balanced,
		GeneratedAt: uc.now().UTC(),
	}

	uc.metrics.ReportGenerated(input.ReportType, len(entityIDs), uc.now().Sub(began))
	if !balanced {
		uc.logger.Warn().
			Str("group_id", group.ID).
			Str("report_type", string(input.ReportType)).
			Msg("consolidated report does not balance")
	}

	return report, nil
}

// CreateGroupInput represents input for creating a consolidation group.
type CreateGroupInput struct {
	ClientID   int64
	Name       string
	Currency   string
	StartDate  time.Time
	EndDate    time.Time
	PeriodType domain.PeriodType
	EntityIDs  []int64
}

// CreateGroup creates a group together with its initial members.
func (uc *ConsolidationUseCase) CreateGroup(ctx context.Context, input CreateGroupInput) (*domain.ConsolidationGroup, error) {
	group := &domain.ConsolidationGroup{
		ID:         uc.idGen.Generate(),
		ClientID:   input.ClientID,
		Name:       input.Name,
		Currency:   input.Currency,
		StartDate:  domain.TruncateDate(input.StartDate),
		EndDate:    domain.TruncateDate(input.EndDate),
		PeriodType: input.PeriodType,
		EntityIDs:  domain.SortEntityIDs(input.EntityIDs),
		CreatedAt:  uc.now().UTC(),
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	if err := uc.groups.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	uc.recordAudit(ctx, group.ClientID, domain.AuditActionGroupCreate, group.ID, domain.MarshalState(map[string]any{
		"name":       group.Name,
		"currency":   group.Currency,
		"entity_ids": group.EntityIDs,
	}))

	return group, nil
}

// GetGroup returns a group with its current membership.
func (uc *ConsolidationUseCase) GetGroup(ctx context.Context, groupID string) (*domain.ConsolidationGroup, error) {
	group, err := uc.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, err := uc.groups.MemberEntityIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.EntityIDs = domain.SortEntityIDs(members)

	return group, nil
}

// AddEntity links an entity to a group.
func (uc *ConsolidationUseCase) AddEntity(ctx context.Context, groupID string, entityID int64) error {
	group, err := uc.groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if err := uc.groups.AddEntity(ctx, groupID, entityID); err != nil {
		return err
	}

	uc.recordAudit(ctx, group.ClientID, domain.AuditActionGroupMembership, groupID, domain.JSON{"added": entityID})
	return nil
}

// RemoveEntity unlinks an entity from a group. The entity itself is untouched.
func (uc *ConsolidationUseCase) RemoveEntity(ctx context.Context, groupID string, entityID int64) error {
	group, err := uc.groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if err := uc.groups.RemoveEntity(ctx, groupID, entityID); err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return fmt.Errorf("%w: entity %d in group %s", err, entityID, groupID)
		}
		return err
	}

	uc.recordAudit(ctx, group.ClientID, domain.AuditActionGroupMembership, groupID, domain.JSON{"removed": entityID})
	return nil
}

func (uc *ConsolidationUseCase) recordAudit(ctx context.Context, clientID int64, action domain.AuditAction, groupID string, state domain.JSON) {
	if uc.audit == nil {
		return
	}

	log := domain.NewAuditLog(uc.idGen.Generate(), clientID, action,
		domain.AuditResourceConsolidationGroup, groupID, uc.now()).
		WithState(state)
	err := uc.audit.Create(ctx, log)
	if err != nil {
		uc.logger.Warn().Err(err).Str("group_id", groupID).Msg("failed to write audit log")
	}
}
