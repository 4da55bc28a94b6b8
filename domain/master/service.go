package master

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lo "github.com/samber/lo"
)

var (
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrMockMode       = errors.New("master data is running on mock data")
)

// Sheets reads cell values of a spreadsheet range.
type Sheets interface {
	Values(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
}

// Repository stores the mirrored master data.
type Repository interface {
	Ping(ctx context.Context) error
	ReplaceEntries(ctx context.Context, entries []Entry) error
	ReplaceFields(ctx context.Context, e Entry, fields []Field) error
	RebuildAggregates(ctx context.Context, plantilla string, anio, mes int) error
	LogSync(ctx context.Context, l SyncLog) error
	Summary(ctx context.Context, f Filter) ([]Summary, error)
	Aggregates(ctx context.Context, f Filter) ([]Aggregate, error)
	Entries(ctx context.Context, f Filter) ([]Entry, error)
	RecentSyncs(ctx context.Context, limit int) ([]SyncLog, error)
}

// Options configures a Service.
type Options struct {
	SpreadsheetID  string
	IndexRange     string
	DetailRange    string
	FallbackToMock bool
}

// Result describes one finished sync.
type Result struct {
	Entries int `json:"entries"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
	Records int `json:"records"`
}

// Service mirrors the master spreadsheet into the repository and answers
// summary queries, serving mock data when the backends are unreachable and
// fallback is enabled.
type Service struct {
	sheets Sheets
	repo   Repository
	opts   Options
	log    *slog.Logger
	now    func() time.Time

	syncMu sync.Mutex

	mu     sync.RWMutex
	status Status
}

func NewService(sheets Sheets, repo Repository, opts Options, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		sheets: sheets,
		repo:   repo,
		opts:   opts,
		log:    log,
		now:    time.Now,
		status: Status{State: StateIdle},
	}
}

// Initialize checks connectivity. On failure it switches to mock data when
// fallback is enabled, otherwise it returns the error.
func (s *Service) Initialize(ctx context.Context) error {
	err := s.TestConnection(ctx)
	if err == nil {
		s.log.Info("master.init.ok")
		s.setStatus(func(st *Status) { st.Mock = false })
		return nil
	}
	if !s.opts.FallbackToMock {
		return err
	}
	s.log.Warn("master.init.fallback", "error", err)
	s.setStatus(func(st *Status) { st.Mock = true })
	return nil
}

// TestConnection pings the repository and reads the master index.
func (s *Service) TestConnection(ctx context.Context) error {
	if s.repo == nil {
		return errors.New("no repository configured")
	}
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if s.sheets == nil || s.opts.SpreadsheetID == "" {
		return errors.New("no master spreadsheet configured")
	}
	if _, err := s.sheets.Values(ctx, s.opts.SpreadsheetID, s.opts.IndexRange); err != nil {
		return fmt.Errorf("sheets: %w", err)
	}
	return nil
}

// Mock reports whether queries are served from mock data.
func (s *Service) Mock() bool {
	return s.Status().Mock
}

// Status returns a copy of the current sync status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Service) setStatus(fn func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.status
	fn(&next)
	s.status = next
}

// Sync replaces the mirrored master index, the field rows of every confirmed
// entry and the aggregates of the touched periods. A failing detail sheet is
// logged and counted; the sync then ends as partial.
func (s *Service) Sync(ctx context.Context) (Result, error) {
	if s.Mock() {
		return Result{}, ErrMockMode
	}
	if !s.syncMu.TryLock() {
		return Result{}, ErrSyncInProgress
	}
	defer s.syncMu.Unlock()

	started := s.now()
	s.setStatus(func(st *Status) {
		st.State = StateRunning
		st.LastStarted = &started
		st.Error = ""
	})
	s.log.Info("master.sync.start", "spreadsheet", s.opts.SpreadsheetID)

	res, err := s.sync(ctx)
	finished := s.now()
	entry := SyncLog{SyncType: "full", RecordsProcessed: res.Records, Status: SyncSuccess, CreatedAt: finished}
	switch {
	case err != nil:
		entry.Status = SyncError
		entry.ErrorMessage = err.Error()
	case res.Failed > 0:
		entry.Status = SyncPartial
		entry.ErrorMessage = fmt.Sprintf("%d detail sheets failed", res.Failed)
	}
	if lerr := s.repo.LogSync(ctx, entry); lerr != nil {
		s.log.Warn("master.sync.log.error", "error", lerr)
	}

	s.setStatus(func(st *Status) {
		st.LastFinished = &finished
		st.RecordsProcessed = res.Records
		if err != nil {
			st.State = StateError
			st.Error = err.Error()
			return
		}
		st.State = StateSuccess
	})
	if err != nil {
		s.log.Error("master.sync.error", "error", err)
		return res, err
	}
	s.log.Info("master.sync.done", "entries", res.Entries, "synced", res.Synced, "failed", res.Failed, "records", res.Records, "took", finished.Sub(started))
	return res, nil
}

func (s *Service) sync(ctx context.Context) (Result, error) {
	var res Result
	values, err := s.sheets.Values(ctx, s.opts.SpreadsheetID, s.opts.IndexRange)
	if err != nil {
		return res, fmt.Errorf("fetch master index: %w", err)
	}
	entries, skipped, err := ParseIndex(values)
	if err != nil {
		return res, err
	}
	if skipped > 0 {
		s.log.Warn("master.sync.index.skipped", "rows", skipped)
	}
	res.Entries = len(entries)
	if err := s.repo.ReplaceEntries(ctx, entries); err != nil {
		return res, fmt.Errorf("store master index: %w", err)
	}

	for _, e := range lo.Filter(entries, func(e Entry, _ int) bool { return e.Confirmed() }) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		detail, err := s.sheets.Values(ctx, e.IDConfirmado, s.opts.DetailRange)
		if err != nil {
			s.log.Warn("master.sync.detail.error", "plantilla", e.Plantilla, "numero", e.Numero, "period", e.Period(), "error", err)
			res.Failed++
			continue
		}
		fields, dropped := FlattenDetail(detail)
		if len(dropped) > 0 {
			s.log.Warn("master.sync.detail.duplicate", "sheet", e.IDConfirmado, "period", e.Period(), "fields", dropped)
		}
		if err := s.repo.ReplaceFields(ctx, e, fields); err != nil {
			s.log.Warn("master.sync.detail.store.error", "plantilla", e.Plantilla, "numero", e.Numero, "period", e.Period(), "error", err)
			res.Failed++
			continue
		}
		res.Synced++
		res.Records += len(fields)
	}
	// Every indexed period is rebuilt, including those without a synced entry.
	type period struct {
		plantilla string
		anio, mes int
	}
	periods := lo.Uniq(lo.Map(entries, func(e Entry, _ int) period { return period{e.Plantilla, e.Anio, e.Mes} }))
	for _, p := range periods {
		if err := s.repo.RebuildAggregates(ctx, p.plantilla, p.anio, p.mes); err != nil {
			return res, fmt.Errorf("aggregate %s %04d%02d: %w", p.plantilla, p.anio, p.mes, err)
		}
	}
	return res, nil
}

// Summary returns record counts per dependency and month.
func (s *Service) Summary(ctx context.Context, f Filter) ([]Summary, error) {
	if s.Mock() {
		return MockSummary(f), nil
	}
	out, err := s.repo.Summary(ctx, f)
	if err != nil && s.opts.FallbackToMock {
		s.log.Warn("master.summary.fallback", "error", err)
		return MockSummary(f), nil
	}
	return out, err
}

// Aggregates returns the pre-rolled metrics.
func (s *Service) Aggregates(ctx context.Context, f Filter) ([]Aggregate, error) {
	if s.Mock() {
		return MockAggregates(f), nil
	}
	out, err := s.repo.Aggregates(ctx, f)
	if err != nil && s.opts.FallbackToMock {
		s.log.Warn("master.aggregates.fallback", "error", err)
		return MockAggregates(f), nil
	}
	return out, err
}

// Entries returns the mirrored master index.
func (s *Service) Entries(ctx context.Context, f Filter) ([]Entry, error) {
	if s.Mock() {
		return MockEntries(f), nil
	}
	out, err := s.repo.Entries(ctx, f)
	if err != nil && s.opts.FallbackToMock {
		s.log.Warn("master.entries.fallback", "error", err)
		return MockEntries(f), nil
	}
	return out, err
}

// RecentSyncs returns the newest sync log rows.
func (s *Service) RecentSyncs(ctx context.Context, limit int) ([]SyncLog, error) {
	if s.Mock() {
		return []SyncLog{}, nil
	}
	return s.repo.RecentSyncs(ctx, limit)
}
