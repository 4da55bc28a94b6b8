// Package app wires configuration into the stats and master services shared
// by the subcommands.
package app

import (
	"context"
	"log/slog"
	"net/http"

	ccsv "judicial-stats/connectors/csv"
	"judicial-stats/connectors/sheets"
	"judicial-stats/connectors/sqlstore"
	dc "judicial-stats/domain/config"
	"judicial-stats/domain/master"
	"judicial-stats/domain/stats"
)

// Source picks the HTTP endpoint when configured, the data dir otherwise.
func Source(cfg *dc.Config) ccsv.Source {
	if cfg.Data.BaseURL != "" {
		return ccsv.NewHTTPSource(cfg.Data.BaseURL, &http.Client{Timeout: cfg.Data.Timeout})
	}
	return ccsv.NewDirSource(cfg.Data.Dir)
}

// Discovery converts the configured sample, keeping defaults for unset
// fields.
func Discovery(cfg *dc.Config) stats.DiscoveryOptions {
	d := stats.DefaultDiscovery()
	if len(cfg.Discovery.SamplePeriods) > 0 {
		d.SamplePeriods = make([]stats.PeriodCode, 0, len(cfg.Discovery.SamplePeriods))
		for _, p := range cfg.Discovery.SamplePeriods {
			code := stats.PeriodCode(p)
			if !code.Valid() {
				slog.Warn("config.discovery.period.invalid", "period", p)
				continue
			}
			d.SamplePeriods = append(d.SamplePeriods, code)
		}
	}
	if cfg.Discovery.MinFiles > 0 {
		d.MinFiles = cfg.Discovery.MinFiles
	}
	if cfg.Discovery.DependencyLimit > 0 {
		d.DependencyLimit = cfg.Discovery.DependencyLimit
	}
	if cfg.Discovery.ObjectTypeLimit > 0 {
		d.ObjectTypeLimit = cfg.Discovery.ObjectTypeLimit
	}
	return d
}

// NewStats builds the CSV-backed query service.
func NewStats(cfg *dc.Config) *stats.Service {
	src := Source(cfg)
	log := slog.Default()
	return stats.NewService(
		ccsv.NewProbeResolver(src, log),
		ccsv.NewLoader(src, log),
		stats.WithDiscovery(Discovery(cfg)),
		stats.WithLogger(log),
	)
}

// NewMaster opens the master database and the Sheets client and runs the
// connectivity check. The returned closer releases the database.
func NewMaster(ctx context.Context, cfg *dc.Config) (*master.Service, func() error, error) {
	m := cfg.Master
	opts := master.Options{
		SpreadsheetID:  m.SpreadsheetID,
		IndexRange:     m.IndexRange,
		DetailRange:    m.DetailRange,
		FallbackToMock: m.Fallback(),
	}

	var repo master.Repository
	closer := func() error { return nil }
	store, err := sqlstore.Open(ctx, m.Driver, m.DSN)
	if err != nil {
		if !opts.FallbackToMock {
			return nil, nil, err
		}
		slog.Warn("master.db.open.error", "driver", m.Driver, "error", err)
		repo = unavailableRepo{err: err}
	} else {
		repo = store
		closer = store.Close
	}

	var sh master.Sheets
	if client, err := sheets.New(ctx, m.ServiceAccountEmail, m.PrivateKey); err == nil {
		sh = client
	} else {
		slog.Warn("master.sheets.auth.error", "error", err)
	}

	svc := master.NewService(sh, repo, opts, slog.Default())
	if err := svc.Initialize(ctx); err != nil {
		_ = closer()
		return nil, nil, err
	}
	return svc, closer, nil
}
