package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	cmdexport "judicial-stats/command/export"
	cmdquery "judicial-stats/command/query"
	cmdsync "judicial-stats/command/sync"
	cmdweb "judicial-stats/command/web"
)

// Court statistics dashboard backend.
// Usage:
//   judicial-stats web [-addr :8080] [-data ./data] [-ui ./ui/dist]
//   judicial-stats query <dependencies|object-types|dependency|comparison|evolution> [flags]
//   judicial-stats export -kind <dependency|comparison|evolution> [-format csv|xlsx] [flags]
//   judicial-stats sync [-spreadsheet id] [-driver sqlite3|pgx] [-dsn dsn] [-test]
// Notes:
// - Monthly period files are read from DATA_DIR, or fetched from DATA_BASE_URL when set.
// - The master variant needs MASTER_SPREADSHEET_ID plus GOOGLE_SERVICE_ACCOUNT_EMAIL and GOOGLE_PRIVATE_KEY.
// - A .env file in the working directory is loaded when present.

func main() {
	_ = godotenv.Load()

	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))

	commands := map[string]func([]string) error{
		"web":    cmdweb.Run,
		"query":  cmdquery.Run,
		"export": cmdexport.Run,
		"sync":   cmdsync.Run,
	}
	if len(os.Args) > 1 {
		if run, ok := commands[os.Args[1]]; ok {
			if err := run(append([]string{}, os.Args[2:]...)); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: judicial-stats web | query <op> | export -kind <kind> | sync\nENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml)")
	os.Exit(2)
}
