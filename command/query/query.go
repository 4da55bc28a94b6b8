package query

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"judicial-stats/command/app"
	"judicial-stats/connectors/config"
	"judicial-stats/domain/stats"
)

// Stats is the query façade driven from the command line.
type Stats interface {
	DependencyStats(ctx context.Context, dependency, month, year string) []stats.DependencyStat
	ComparisonStats(ctx context.Context, dependencies []string, month, year string) []stats.ComparisonStat
	EvolutionStats(ctx context.Context, dependency, startMonth, endMonth, year, objectType string) ([]stats.EvolutionPoint, error)
	Dependencies(ctx context.Context) []string
	ObjectTypes(ctx context.Context, dependency string) []string
}

// Run prints the result of one query as JSON on stdout.
//
// Usage:
//
//	judicial-stats query dependencies
//	judicial-stats query object-types -dependency X
//	judicial-stats query dependency -dependency X -month Enero -year 2024
//	judicial-stats query comparison -dependency X,Y -month Enero -year 2024
//	judicial-stats query evolution -dependency X -start Enero -end Junio -year 2024 [-object-type T]
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("query: missing operation (dependencies|object-types|dependency|comparison|evolution)")
	}
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}
	return Exec(context.Background(), app.NewStats(cfg), os.Stdout, args[0], args[1:])
}

// Exec parses the flags of op and writes its JSON result to out.
func Exec(ctx context.Context, st Stats, out io.Writer, op string, args []string) error {
	fs := flag.NewFlagSet("query "+op, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	dep := fs.String("dependency", "", "dependency name; comma-separated for comparison")
	month := fs.String("month", "", "month name")
	start := fs.String("start", "", "first month (evolution)")
	end := fs.String("end", "", "last month (evolution)")
	year := fs.String("year", "", "four digit year")
	objectType := fs.String("object-type", "", "Objeto filter (evolution)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var result any
	switch op {
	case "dependencies":
		result = st.Dependencies(ctx)
	case "object-types":
		if *dep == "" {
			return fmt.Errorf("query: -dependency is required")
		}
		result = st.ObjectTypes(ctx, *dep)
	case "dependency":
		result = st.DependencyStats(ctx, *dep, *month, *year)
	case "comparison":
		var deps []string
		for _, d := range strings.Split(*dep, ",") {
			if d = strings.TrimSpace(d); d != "" {
				deps = append(deps, d)
			}
		}
		result = st.ComparisonStats(ctx, deps, *month, *year)
	case "evolution":
		points, err := st.EvolutionStats(ctx, *dep, *start, *end, *year, *objectType)
		if err != nil {
			return err
		}
		result = points
	default:
		return fmt.Errorf("query: unknown operation %q", op)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
