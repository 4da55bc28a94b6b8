package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	lo "github.com/samber/lo"
)

// ErrNoData is returned when a single-dependency query matches no rows.
var ErrNoData = errors.New("no data for dependency and period")

// ErrNotResolved means no file exists for the requested period.
var ErrNotResolved = errors.New("period file not found")

// TopCategories caps the DependencyStats result.
const TopCategories = 10

// FileHandle identifies the resolved data file of one period.
type FileHandle struct {
	Name   string
	Period PeriodCode
}

// Resolver finds the data file of a period. ok is false when none exists.
type Resolver interface {
	Resolve(ctx context.Context, year, month int) (h FileHandle, ok bool)
}

// Loader reads the rows of a resolved file.
type Loader interface {
	Load(ctx context.Context, h FileHandle) ([]RawRow, error)
}

// DiscoveryOptions drives the sampling scan behind Dependencies and
// ObjectTypes. Periods outside SamplePeriods are never inspected, so values
// that only appear there are not discovered.
type DiscoveryOptions struct {
	SamplePeriods   []PeriodCode
	MinFiles        int
	DependencyLimit int
	ObjectTypeLimit int
}

// DefaultSamplePeriods is the fixed period sample scanned by discovery.
var DefaultSamplePeriods = []PeriodCode{
	"202412", "202406", "202401",
	"202312", "202306", "202301",
	"202212", "202206", "202201",
	"202112", "202106", "202101",
	"202012", "202006", "202001",
}

// DefaultDiscovery returns the stock discovery settings.
func DefaultDiscovery() DiscoveryOptions {
	return DiscoveryOptions{
		SamplePeriods:   DefaultSamplePeriods,
		MinFiles:        3,
		DependencyLimit: 50,
		ObjectTypeLimit: 20,
	}
}

// Service answers the dashboard queries from period files. Every call
// resolves and loads its files again; nothing is memoized between calls.
type Service struct {
	resolver  Resolver
	loader    Loader
	discovery DiscoveryOptions
	log       *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithDiscovery overrides the discovery sample and thresholds.
func WithDiscovery(d DiscoveryOptions) Option {
	return func(s *Service) { s.discovery = d }
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService wires a resolver and a loader into the query façade.
func NewService(r Resolver, l Loader, opts ...Option) *Service {
	s := &Service{resolver: r, loader: l, discovery: DefaultDiscovery(), log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// rows resolves and loads the file of one period.
func (s *Service) rows(ctx context.Context, year, month int) ([]RawRow, PeriodCode, error) {
	code := NewPeriodCode(year, month)
	h, ok := s.resolver.Resolve(ctx, year, month)
	if !ok {
		s.log.Info("stats.resolve.miss", "period", code)
		return nil, code, fmt.Errorf("%w: %s", ErrNotResolved, code)
	}
	rows, err := s.loader.Load(ctx, h)
	if err != nil {
		s.log.Warn("stats.load.error", "period", code, "file", h.Name, "error", err)
		return nil, code, err
	}
	return rows, code, nil
}

func (s *Service) period(month, year string) (int, int, error) {
	m, err := ParseMonth(month)
	if err != nil {
		return 0, 0, err
	}
	y, err := ParseYear(year)
	if err != nil {
		return 0, 0, err
	}
	return y, m, nil
}

// DependencyStats returns the top categories of dependency for one month,
// highest value first. Any failure yields an empty slice.
func (s *Service) DependencyStats(ctx context.Context, dependency, month, year string) []DependencyStat {
	y, m, err := s.period(month, year)
	if err != nil {
		s.log.Warn("stats.dependency.invalid", "month", month, "year", year, "error", err)
		return []DependencyStat{}
	}
	rows, code, err := s.rows(ctx, y, m)
	if err != nil {
		return []DependencyStat{}
	}
	out, err := dependencyStats(rows, dependency, code)
	if err != nil {
		s.log.Info("stats.dependency.empty", "dependency", dependency, "period", code, "error", err)
		return []DependencyStat{}
	}
	return out
}

func dependencyStats(rows []RawRow, dependency string, code PeriodCode) ([]DependencyStat, error) {
	matched := Filter(rows, dependency, code, "")
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNoData, dependency, code)
	}
	return Sum(matched).Top(TopCategories), nil
}

// ComparisonStats aggregates each dependency over the same month. A
// dependency without rows contributes nothing.
func (s *Service) ComparisonStats(ctx context.Context, dependencies []string, month, year string) []ComparisonStat {
	out := []ComparisonStat{}
	y, m, err := s.period(month, year)
	if err != nil {
		s.log.Warn("stats.comparison.invalid", "month", month, "year", year, "error", err)
		return out
	}
	rows, code, err := s.rows(ctx, y, m)
	if err != nil {
		return out
	}
	for _, dep := range dependencies {
		totals := Aggregate(rows, dep, code, "")
		for _, c := range totals.Categories() {
			out = append(out, ComparisonStat{Dependency: dep, Category: c, Value: totals[c]})
		}
	}
	return out
}

// EvolutionStats returns one point per month from startMonth to endMonth.
// Months without a readable file give a zero point. Invalid month names or
// a reversed range fail before any file is touched.
func (s *Service) EvolutionStats(ctx context.Context, dependency, startMonth, endMonth, year, objectType string) ([]EvolutionPoint, error) {
	months, err := MonthRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	y, err := ParseYear(year)
	if err != nil {
		return nil, err
	}
	yearStr := strconv.Itoa(y)
	out := make([]EvolutionPoint, 0, len(months))
	for _, m := range months {
		p := EvolutionPoint{Period: NewPeriodCode(y, m), Year: yearStr, Month: MonthName(m)}
		rows, code, err := s.rows(ctx, y, m)
		if err == nil {
			p.Value = Aggregate(rows, dependency, code, objectType).Total()
		}
		out = append(out, p)
	}
	return out, nil
}

// Dependencies lists the dependency names seen in the discovery sample.
func (s *Service) Dependencies(ctx context.Context) []string {
	return s.scan(ctx, "dependencies", s.discovery.DependencyLimit, func(rows []RawRow) []string {
		return lo.FilterMap(rows, func(r RawRow, _ int) (string, bool) {
			d := Dependency(r)
			return d, d != ""
		})
	})
}

// ObjectTypes lists the Objeto values of dependency seen in the discovery
// sample.
func (s *Service) ObjectTypes(ctx context.Context, dependency string) []string {
	dep := strings.TrimSpace(dependency)
	return s.scan(ctx, "object_types", s.discovery.ObjectTypeLimit, func(rows []RawRow) []string {
		return lo.FilterMap(rows, func(r RawRow, _ int) (string, bool) {
			o := ObjectType(r)
			return o, o != "" && Dependency(r) == dep
		})
	})
}

// scan walks the sample periods in order, collecting distinct values. It
// stops early once MinFiles files were loaded and limit values were seen.
func (s *Service) scan(ctx context.Context, what string, limit int, extract func([]RawRow) []string) []string {
	seen := map[string]struct{}{}
	loaded := 0
	for _, p := range s.discovery.SamplePeriods {
		if !p.Valid() {
			continue
		}
		y, _ := strconv.Atoi(string(p[:4]))
		m, _ := strconv.Atoi(string(p[4:]))
		rows, _, err := s.rows(ctx, y, m)
		if err != nil {
			continue
		}
		loaded++
		for _, v := range extract(rows) {
			seen[v] = struct{}{}
		}
		if loaded >= s.discovery.MinFiles && limit > 0 && len(seen) >= limit {
			break
		}
	}
	out := lo.Keys(seen)
	sort.Strings(out)
	s.log.Debug("stats.discovery.done", "what", what, "files", loaded, "count", len(out))
	return out
}
