package cmdsync

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"judicial-stats/command/app"
	"judicial-stats/connectors/config"
)

// Run performs one master synchronization from the spreadsheet into the
// configured database. With -test it only checks connectivity.
func Run(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	spreadsheet := fs.String("spreadsheet", "", "spreadsheet id (overrides MASTER_SPREADSHEET_ID)")
	driver := fs.String("driver", "", "database driver: sqlite3 or pgx")
	dsn := fs.String("dsn", "", "database DSN or sqlite file path")
	testOnly := fs.Bool("test", false, "only test the database and Sheets connections")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}
	if *spreadsheet != "" {
		cfg.Master.SpreadsheetID = *spreadsheet
	}
	if *driver != "" {
		cfg.Master.Driver = *driver
	}
	if *dsn != "" {
		cfg.Master.DSN = *dsn
	}
	if cfg.Master.SpreadsheetID == "" {
		slog.Error("sync.validation.error", "reason", "missing spreadsheet id")
		return fmt.Errorf("missing -spreadsheet or MASTER_SPREADSHEET_ID")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeDB, err := app.NewMaster(ctx, cfg)
	if err != nil {
		slog.Error("sync.init.error", "error", err)
		return err
	}
	defer closeDB()

	if svc.Mock() {
		slog.Error("sync.mock", "reason", "backends unavailable, serving mock data")
		return fmt.Errorf("master backends unavailable")
	}
	if *testOnly {
		slog.Info("sync.test.ok", "driver", cfg.Master.Driver)
		return nil
	}

	slog.Info("sync.start", "spreadsheet", cfg.Master.SpreadsheetID, "driver", cfg.Master.Driver)
	res, err := svc.Sync(ctx)
	if err != nil {
		slog.Error("sync.error", "error", err)
		return err
	}
	slog.Info("sync.done", "entries", res.Entries, "synced", res.Synced, "failed", res.Failed, "records", res.Records)
	return nil
}
