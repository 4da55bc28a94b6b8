package csv

import (
	"context"
	"log/slog"

	"judicial-stats/domain/stats"
)

// FileVariants lists the file name spellings used for a period across the
// export history, most common first.
func FileVariants(code stats.PeriodCode) []string {
	base := "Datos " + string(code)
	return []string{
		base + " - Hoja1.csv",
		base + " -Hoja1.csv",
		base + "- Hoja1.csv",
		base + "-Hoja1.csv",
		base + " - Hoja 1.csv",
		base + " - Sheet1.csv",
		base + ".csv",
		"Datos" + string(code) + " - Hoja1.csv",
	}
}

// ProbeResolver tries FileVariants in order against a Source and returns the
// first that exists. Nothing is remembered between calls.
type ProbeResolver struct {
	src Source
	log *slog.Logger
}

func NewProbeResolver(src Source, log *slog.Logger) *ProbeResolver {
	if log == nil {
		log = slog.Default()
	}
	return &ProbeResolver{src: src, log: log}
}

func (r *ProbeResolver) Resolve(ctx context.Context, year, month int) (stats.FileHandle, bool) {
	code := stats.NewPeriodCode(year, month)
	for _, name := range FileVariants(code) {
		ok, err := r.src.Exists(ctx, name)
		if err != nil {
			r.log.Debug("csv.resolve.probe.error", "file", name, "error", err)
			continue
		}
		if ok {
			return stats.FileHandle{Name: name, Period: code}, true
		}
	}
	return stats.FileHandle{}, false
}
