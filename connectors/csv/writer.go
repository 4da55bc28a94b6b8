package csv

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"judicial-stats/domain/stats"
)

// WriteFile creates path (and its directory) and hands it to write.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func WriteDependencyStats(out io.Writer, rows []stats.DependencyStat) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"category", "value"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Category, strconv.Itoa(r.Value)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func WriteComparisonStats(out io.Writer, rows []stats.ComparisonStat) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"dependency", "category", "value"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Dependency, r.Category, strconv.Itoa(r.Value)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func WriteEvolution(out io.Writer, points []stats.EvolutionPoint) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"period", "year", "month", "value"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := w.Write([]string{string(p.Period), p.Year, p.Month, strconv.Itoa(p.Value)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
