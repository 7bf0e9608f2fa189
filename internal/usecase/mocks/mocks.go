package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// Store is an in-memory implementation of the repository ports. Writes made
// through a transaction are staged on a private copy of the state and become
// visible only on Commit, so rollback semantics match the postgres adapter.
type Store struct {
	mu    sync.Mutex
	state *state

	BeginFunc          func(ctx context.Context) error
	CommitFunc         func(tx *Tx) error
	CreateEntryFunc    func(entry *domain.JournalEntry) error
	CreateScheduleFunc func(schedule *domain.AccrualReversalSchedule) error
	ListDueFunc        func(asOf time.Time) error
	GetEntryFunc       func(id string) error
	PostedLinesFunc    func(entityID int64) error
	AuditFunc          func(log *domain.AuditLog) error

	BeginCalls         int
	Commits            int
	Rollbacks          int
	GetAccountsCalls   int
	GetDimensionsCalls int
	PostedLinesCalls   int
	ListDueCalls       int
	AuditLogs          []*domain.AuditLog
}

type state struct {
	clients       map[int64]bool
	accounts      map[int64][]domain.Account
	dimensions    map[int64][]*domain.Dimension
	entries       map[string]*domain.JournalEntry
	entryOrder    []string
	schedules     map[string]*domain.AccrualReversalSchedule
	scheduleOrder []string
	groups        map[string]*domain.ConsolidationGroup
	members       map[string]map[int64]bool
	outbox        []*domain.OutboxEvent
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{state: &state{
		clients:    make(map[int64]bool),
		accounts:   make(map[int64][]domain.Account),
		dimensions: make(map[int64][]*domain.Dimension),
		entries:    make(map[string]*domain.JournalEntry),
		schedules:  make(map[string]*domain.AccrualReversalSchedule),
		groups:     make(map[string]*domain.ConsolidationGroup),
		members:    make(map[string]map[int64]bool),
	}}
}

func (s *state) clone() *state {
	c := &state{
		clients:       make(map[int64]bool, len(s.clients)),
		accounts:      make(map[int64][]domain.Account, len(s.accounts)),
		dimensions:    s.dimensions,
		entries:       make(map[string]*domain.JournalEntry, len(s.entries)),
		entryOrder:    append([]string(nil), s.entryOrder...),
		schedules:     make(map[string]*domain.AccrualReversalSchedule, len(s.schedules)),
		scheduleOrder: append([]string(nil), s.scheduleOrder...),
		groups:        make(map[string]*domain.ConsolidationGroup, len(s.groups)),
		members:       make(map[string]map[int64]bool, len(s.members)),
		outbox:        append([]*domain.OutboxEvent(nil), s.outbox...),
	}
	for k, v := range s.clients {
		c.clients[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = append([]domain.Account(nil), v...)
	}
	for k, v := range s.entries {
		c.entries[k] = copyEntry(v)
	}
	for k, v := range s.schedules {
		sc := *v
		c.schedules[k] = &sc
	}
	for k, v := range s.groups {
		g := *v
		c.groups[k] = &g
	}
	for k, v := range s.members {
		m := make(map[int64]bool, len(v))
		for id := range v {
			m[id] = true
		}
		c.members[k] = m
	}
	return c
}

func copyEntry(e *domain.JournalEntry) *domain.JournalEntry {
	c := *e
	c.Lines = append([]domain.JournalLine(nil), e.Lines...)
	return &c
}

// Tx is a staged transaction over a Store.
type Tx struct {
	store     *Store
	state     *state
	done      bool
	Committed bool
}

// Commit applies the staged state.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("transaction already closed")
	}
	if t.store.CommitFunc != nil {
		if err := t.store.CommitFunc(t); err != nil {
			return err
		}
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.state = t.state
	t.store.Commits++
	t.done = true
	t.Committed = true
	return nil
}

// Rollback discards the staged state. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	t.store.Rollbacks++
	t.store.mu.Unlock()
	return nil
}

// Begin implements usecase.TransactionManager.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	s.mu.Lock()
	s.BeginCalls++
	s.mu.Unlock()
	if s.BeginFunc != nil {
		if err := s.BeginFunc(ctx); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Tx{store: s, state: s.state.clone()}, nil
}

func (s *Store) txState(tx usecase.Transaction) *state {
	return tx.(*Tx).state
}

// Seeding helpers

// AddClient registers a client id.
func (s *Store) AddClient(clientID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.clients[clientID] = true
}

// AddAccount registers an account for its client.
func (s *Store) AddAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.clients[a.ClientID] = true
	s.state.accounts[a.ClientID] = append(s.state.accounts[a.ClientID], a)
}

// SetAccountActive flips the active flag of a client's account.
func (s *Store) SetAccountActive(clientID int64, code string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.accounts[clientID] {
		if s.state.accounts[clientID][i].Code == code {
			s.state.accounts[clientID][i].Active = active
		}
	}
}

// AddDimension registers a dimension for its client.
func (s *Store) AddDimension(d *domain.Dimension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.dimensions[d.ClientID] = append(s.state.dimensions[d.ClientID], d)
}

// SeedEntry stores a committed journal entry.
func (s *Store) SeedEntry(e *domain.JournalEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.putEntry(copyEntry(e))
}

// SeedSchedule stores a committed schedule row.
func (s *Store) SeedSchedule(sc *domain.AccrualReversalSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *sc
	s.state.putSchedule(&c)
}

// Entries returns committed entries in creation order.
func (s *Store) Entries() []*domain.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.JournalEntry, 0, len(s.state.entryOrder))
	for _, id := range s.state.entryOrder {
		out = append(out, copyEntry(s.state.entries[id]))
	}
	return out
}

// Schedules returns committed schedule rows in creation order.
func (s *Store) Schedules() []domain.AccrualReversalSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AccrualReversalSchedule, 0, len(s.state.scheduleOrder))
	for _, id := range s.state.scheduleOrder {
		out = append(out, *s.state.schedules[id])
	}
	return out
}

// OutboxEvents returns committed outbox events.
func (s *Store) OutboxEvents() []*domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.OutboxEvent(nil), s.state.outbox...)
}

func (st *state) putEntry(e *domain.JournalEntry) {
	if _, ok := st.entries[e.ID]; !ok {
		st.entryOrder = append(st.entryOrder, e.ID)
	}
	st.entries[e.ID] = e
}

func (st *state) putSchedule(sc *domain.AccrualReversalSchedule) {
	if _, ok := st.schedules[sc.ID]; !ok {
		st.scheduleOrder = append(st.scheduleOrder, sc.ID)
	}
	st.schedules[sc.ID] = sc
}

// ClientRepository

func (s *Store) Exists(ctx context.Context, clientID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clients[clientID], nil
}

// ReferenceDataReader

func (s *Store) GetAccounts(ctx context.Context, clientID int64) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetAccountsCalls++
	out := make([]*domain.Account, 0, len(s.state.accounts[clientID]))
	for _, a := range s.state.accounts[clientID] {
		acc := a
		out = append(out, &acc)
	}
	return out, nil
}

func (s *Store) GetDimensions(ctx context.Context, clientID int64) ([]*domain.Dimension, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetDimensionsCalls++
	return append([]*domain.Dimension(nil), s.state.dimensions[clientID]...), nil
}

// AccountLocker

func (s *Store) GetByCodesForShare(ctx context.Context, tx usecase.Transaction, clientID int64, codes []string) ([]*domain.Account, error) {
	st := s.txState(tx)
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	var out []*domain.Account
	for _, a := range st.accounts[clientID] {
		if want[a.Code] {
			acc := a
			out = append(out, &acc)
		}
	}
	return out, nil
}

// JournalRepository

func (s *Store) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	if s.CreateEntryFunc != nil {
		if err := s.CreateEntryFunc(entry); err != nil {
			return err
		}
	}
	st := s.txState(tx)
	if _, ok := st.entries[entry.ID]; ok {
		return fmt.Errorf("duplicate journal entry %s", entry.ID)
	}
	if entry.ReversalOfID != nil {
		for _, e := range st.entries {
			if e.ReversalOfID != nil && *e.ReversalOfID == *entry.ReversalOfID {
				return domain.ErrAlreadyReversed
			}
		}
	}
	st.putEntry(copyEntry(entry))
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	if s.GetEntryFunc != nil {
		if err := s.GetEntryFunc(id); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.state.entries[id]
	if !ok {
		return nil, domain.ErrJournalEntryNotFound
	}
	return copyEntry(e), nil
}

func (s *Store) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	if s.GetEntryFunc != nil {
		if err := s.GetEntryFunc(id); err != nil {
			return nil, err
		}
	}
	e, ok := s.txState(tx).entries[id]
	if !ok {
		return nil, domain.ErrJournalEntryNotFound
	}
	return copyEntry(e), nil
}

func (s *Store) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return s.GetByIDTx(ctx, tx, id)
}

func (s *Store) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.JournalStatus, postedAt *time.Time) error {
	e, ok := s.txState(tx).entries[id]
	if !ok {
		return domain.ErrJournalEntryNotFound
	}
	e.Status = status
	e.PostedAt = postedAt
	return nil
}

func (s *Store) List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.JournalEntry
	for _, id := range s.state.entryOrder {
		e := s.state.entries[id]
		if e.ClientID != filter.ClientID {
			continue
		}
		if filter.EntityID != nil && (e.EntityID == nil || *e.EntityID != *filter.EntityID) {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, copyEntry(e))
	}
	if filter.Offset >= len(out) {
		return []*domain.JournalEntry{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ScheduleRepo returns a view of the store implementing usecase.AccrualScheduleRepository.
func (s *Store) ScheduleRepo() *ScheduleRepo {
	return &ScheduleRepo{store: s}
}

// OutboxRepo returns a view of the store implementing usecase.OutboxRepository.
func (s *Store) OutboxRepo() *OutboxRepo {
	return &OutboxRepo{store: s}
}

// AuditRepo returns a view of the store implementing usecase.AuditRepository.
func (s *Store) AuditRepo() *AuditRepo {
	return &AuditRepo{store: s}
}

// ScheduleRepo implements usecase.AccrualScheduleRepository over a Store.
type ScheduleRepo struct {
	store *Store
}

func (r *ScheduleRepo) Create(ctx context.Context, tx usecase.Transaction, schedule *domain.AccrualReversalSchedule) error {
	if r.store.CreateScheduleFunc != nil {
		if err := r.store.CreateScheduleFunc(schedule); err != nil {
			return err
		}
	}
	c := *schedule
	r.store.txState(tx).putSchedule(&c)
	return nil
}

func (r *ScheduleRepo) ListDue(ctx context.Context, asOf time.Time, after *domain.ScheduleCursor, limit int) ([]*domain.AccrualReversalSchedule, error) {
	r.store.mu.Lock()
	r.store.ListDueCalls++
	r.store.mu.Unlock()
	if r.store.ListDueFunc != nil {
		if err := r.store.ListDueFunc(asOf); err != nil {
			return nil, err
		}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var due []*domain.AccrualReversalSchedule
	for _, id := range r.store.state.scheduleOrder {
		sc := r.store.state.schedules[id]
		if sc.IsDue(asOf) && (after == nil || sc.After(*after)) {
			c := *sc
			due = append(due, &c)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if !due[i].ReversalDate.Equal(due[j].ReversalDate) {
			return due[i].ReversalDate.Before(due[j].ReversalDate)
		}
		return due[i].ID < due[j].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *ScheduleRepo) ClaimForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.AccrualReversalSchedule, error) {
	sc, ok := r.store.txState(tx).schedules[id]
	if !ok {
		return nil, domain.ErrScheduleNotFound
	}
	if sc.Processed {
		return nil, nil
	}
	c := *sc
	return &c, nil
}

func (r *ScheduleRepo) MarkProcessed(ctx context.Context, tx usecase.Transaction, id, reversalEntryID string, processedAt time.Time) error {
	sc, ok := r.store.txState(tx).schedules[id]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	return sc.MarkProcessed(reversalEntryID, processedAt)
}

func (r *ScheduleRepo) RecordFailure(ctx context.Context, id, reason string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sc, ok := r.store.state.schedules[id]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	sc.Attempts++
	sc.LastError = reason
	return nil
}

// OutboxRepo implements usecase.OutboxRepository over a Store.
type OutboxRepo struct {
	store *Store
}

func (r *OutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	st := r.store.txState(tx)
	st.outbox = append(st.outbox, event)
	return nil
}

func (r *OutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range r.store.state.outbox {
		if !e.Published {
			out = append(out, e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.state.outbox {
		if e.ID == id {
			at := publishedAt
			e.Published = true
			e.PublishedAt = &at
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", id)
}

func (r *OutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.state.outbox[:0]
	for _, e := range r.store.state.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.store.state.outbox = kept
	return nil
}

// AuditRepo implements usecase.AuditRepository over a Store.
type AuditRepo struct {
	store *Store
}

func (r *AuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	if r.store.AuditFunc != nil {
		if err := r.store.AuditFunc(log); err != nil {
			return err
		}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.AuditLogs = append(r.store.AuditLogs, log)
	return nil
}

// ConsolidationRepository

func (s *Store) CreateGroup(ctx context.Context, group *domain.ConsolidationGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := *group
	g.EntityIDs = nil
	s.state.groups[g.ID] = &g
	members := make(map[int64]bool, len(group.EntityIDs))
	for _, id := range group.EntityIDs {
		members[id] = true
	}
	s.state.members[g.ID] = members
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (*domain.ConsolidationGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.state.groups[groupID]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	c := *g
	return &c, nil
}

func (s *Store) MemberEntityIDs(ctx context.Context, groupID string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.state.members[groupID]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	// Map iteration order is random on purpose: callers must sort.
	out := make([]int64, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out, nil
}

func (s *Store) AddEntity(ctx context.Context, groupID string, entityID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.state.members[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if members[entityID] {
		return domain.ErrDuplicateMember
	}
	members[entityID] = true
	return nil
}

func (s *Store) RemoveEntity(ctx context.Context, groupID string, entityID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.state.members[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if !members[entityID] {
		return domain.ErrMemberNotFound
	}
	delete(members, entityID)
	return nil
}

// PostedLedgerReader

func (s *Store) PostedLines(ctx context.Context, entityID int64, start, end time.Time) ([]domain.PostedLine, error) {
	if s.PostedLinesFunc != nil {
		if err := s.PostedLinesFunc(entityID); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PostedLinesCalls++

	entries := make([]*domain.JournalEntry, 0, len(s.state.entries))
	for _, id := range s.state.entryOrder {
		e := s.state.entries[id]
		if e.Status != domain.JournalStatusPosted || e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].ID < entries[j].ID
	})

	var out []domain.PostedLine
	for _, e := range entries {
		for _, l := range e.Lines {
			lineEntity := l.EntityID
			if lineEntity == nil {
				lineEntity = e.EntityID
			}
			if lineEntity == nil || *lineEntity != entityID {
				continue
			}
			acc := s.state.account(e.ClientID, l.AccountID)
			out = append(out, domain.PostedLine{
				EntryID:     e.ID,
				EntityID:    entityID,
				EntryDate:   e.Date,
				AccountID:   l.AccountID,
				AccountCode: acc.Code,
				AccountName: acc.Name,
				AccountType: acc.Type,
				Side:        l.Side,
				Amount:      l.Amount,
			})
		}
	}
	return out, nil
}

func (st *state) account(clientID, accountID int64) domain.Account {
	for _, a := range st.accounts[clientID] {
		if a.ID == accountID {
			return a
		}
	}
	return domain.Account{ID: accountID}
}

// SequentialIDGenerator yields predictable ids: prefix-000001, prefix-000002, ...
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a SequentialIDGenerator.
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	return &SequentialIDGenerator{prefix: prefix}
}

func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}

// MemoryLock implements usecase.RunLock in process.
type MemoryLock struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMemoryLock creates a MemoryLock.
func NewMemoryLock() *MemoryLock {
	return &MemoryLock{held: make(map[string]bool)}
}

func (l *MemoryLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, true, nil
}

// RecordingMetrics implements usecase.MetricsRecorder and keeps counts.
type RecordingMetrics struct {
	mu               sync.Mutex
	BatchesValidated int
	Issues           map[domain.ErrorKind]int
	EntriesPosted    int
	BatchFailures    map[string]int
	ReversalsOK      int
	ReversalsFailed  int
	ReportsGenerated map[domain.ReportType]int
}

// NewRecordingMetrics creates a RecordingMetrics.
func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{
		Issues:           make(map[domain.ErrorKind]int),
		BatchFailures:    make(map[string]int),
		ReportsGenerated: make(map[domain.ReportType]int),
	}
}

func (m *RecordingMetrics) BatchValidated(groups, invalid int, issues map[domain.ErrorKind]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchesValidated++
	for k, v := range issues {
		m.Issues[k] += v
	}
}

func (m *RecordingMetrics) BatchPosted(entries int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesPosted += entries
}

func (m *RecordingMetrics) BatchFailed(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchFailures[reason]++
}

func (m *RecordingMetrics) ReversalProcessed(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.ReversalsOK++
	} else {
		m.ReversalsFailed++
	}
}

func (m *RecordingMetrics) ReportGenerated(reportType domain.ReportType, entities int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReportsGenerated[reportType]++
}

var (
	_ usecase.TransactionManager        = (*Store)(nil)
	_ usecase.ClientRepository          = (*Store)(nil)
	_ usecase.ReferenceDataReader       = (*Store)(nil)
	_ usecase.AccountLocker             = (*Store)(nil)
	_ usecase.JournalRepository         = (*Store)(nil)
	_ usecase.ConsolidationRepository   = (*Store)(nil)
	_ usecase.PostedLedgerReader        = (*Store)(nil)
	_ usecase.AccrualScheduleRepository = (*ScheduleRepo)(nil)
	_ usecase.OutboxRepository          = (*OutboxRepo)(nil)
	_ usecase.AuditRepository           = (*AuditRepo)(nil)
	_ usecase.IDGenerator               = (*SequentialIDGenerator)(nil)
	_ usecase.RunLock                   = (*MemoryLock)(nil)
	_ usecase.MetricsRecorder           = (*RecordingMetrics)(nil)
)
