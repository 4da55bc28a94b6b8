package export

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"judicial-stats/command/app"
	"judicial-stats/connectors/config"
	ccsv "judicial-stats/connectors/csv"
	"judicial-stats/connectors/xlsx"
	"judicial-stats/domain/stats"
)

// Kinds of report the export command can write.
const (
	KindDependency = "dependency"
	KindComparison = "comparison"
	KindEvolution  = "evolution"
)

// Request describes one export.
type Request struct {
	Kind         string
	Dependencies []string
	Month        string
	StartMonth   string
	EndMonth     string
	Year         string
	ObjectType   string
	Format       string
	Out          string
}

// Querier is the subset of the stats service the export needs.
type Querier interface {
	DependencyStats(ctx context.Context, dependency, month, year string) []stats.DependencyStat
	ComparisonStats(ctx context.Context, dependencies []string, month, year string) []stats.ComparisonStat
	EvolutionStats(ctx context.Context, dependency, startMonth, endMonth, year, objectType string) ([]stats.EvolutionPoint, error)
}

// Run computes a report and writes it as CSV or XLSX.
//
// Usage:
//
//	judicial-stats export -kind dependency -dependency X -month Enero -year 2024 [-format xlsx] [-out data/out.xlsx]
func Run(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	kind := fs.String("kind", KindDependency, "dependency | comparison | evolution")
	deps := fs.String("dependency", "", "dependency name; comma-separated for comparison")
	month := fs.String("month", "", "month name (dependency, comparison)")
	start := fs.String("start", "Enero", "first month (evolution)")
	end := fs.String("end", "Diciembre", "last month (evolution)")
	year := fs.String("year", "", "four digit year")
	objectType := fs.String("object-type", "", "Objeto filter for evolution, ALL or empty for every type")
	format := fs.String("format", "csv", "csv | xlsx")
	out := fs.String("out", "", "output file (default data/<kind>.<format>)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}
	req := Request{
		Kind:         *kind,
		Dependencies: splitList(*deps),
		Month:        *month,
		StartMonth:   *start,
		EndMonth:     *end,
		Year:         *year,
		ObjectType:   *objectType,
		Format:       strings.ToLower(*format),
		Out:          *out,
	}
	if req.Out == "" {
		req.Out = filepath.Join(cfg.Data.Dir, "export", req.Kind+"."+req.Format)
	}
	return Export(context.Background(), app.NewStats(cfg), req)
}

// Export runs req against q and writes the result to req.Out.
func Export(ctx context.Context, q Querier, req Request) error {
	if len(req.Dependencies) == 0 {
		return fmt.Errorf("export: at least one dependency is required")
	}
	if req.Format != "csv" && req.Format != "xlsx" {
		return fmt.Errorf("export: unknown format %q", req.Format)
	}
	dep := req.Dependencies[0]

	var (
		writeCSV func(io.Writer) error
		addSheet func(*xlsx.Report) error
		n        int
	)
	switch req.Kind {
	case KindDependency:
		rows := q.DependencyStats(ctx, dep, req.Month, req.Year)
		n = len(rows)
		writeCSV = func(w io.Writer) error { return ccsv.WriteDependencyStats(w, rows) }
		addSheet = func(r *xlsx.Report) error { return r.AddDependencyStats(dep, rows) }
	case KindComparison:
		rows := q.ComparisonStats(ctx, req.Dependencies, req.Month, req.Year)
		n = len(rows)
		writeCSV = func(w io.Writer) error { return ccsv.WriteComparisonStats(w, rows) }
		addSheet = func(r *xlsx.Report) error { return r.AddComparisonStats("Comparación", rows) }
	case KindEvolution:
		points, err := q.EvolutionStats(ctx, dep, req.StartMonth, req.EndMonth, req.Year, req.ObjectType)
		if err != nil {
			return err
		}
		n = len(points)
		writeCSV = func(w io.Writer) error { return ccsv.WriteEvolution(w, points) }
		addSheet = func(r *xlsx.Report) error { return r.AddEvolution(dep, points) }
	default:
		return fmt.Errorf("export: unknown kind %q", req.Kind)
	}

	if req.Format == "csv" {
		if err := ccsv.WriteFile(req.Out, writeCSV); err != nil {
			return err
		}
	} else {
		r := xlsx.NewReport()
		defer r.Close()
		if err := addSheet(r); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(req.Out), 0o755); err != nil {
			return err
		}
		if err := r.SaveAs(req.Out); err != nil {
			return err
		}
	}
	slog.Info("export.written", "kind", req.Kind, "format", req.Format, "rows", n, "path", req.Out)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
