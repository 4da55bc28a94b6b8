package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	dc "judicial-stats/domain/config"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "./config.yml"

// Load parses the YAML configuration file at path, fills defaults and
// applies environment overrides. A missing file is not an error.
func Load(path string) (*dc.Config, error) {
	var c dc.Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		slog.Info(fmt.Sprintf("Loaded config: %s", path))
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("config.missing", "path", path)
	default:
		return nil, err
	}
	applyEnv(&c)
	applyDefaults(&c)
	return &c, nil
}

// LoadDefault loads CONFIG_PATH or ./config.yml.
func LoadDefault() (*dc.Config, error) {
	return Load(firstNonEmpty(os.Getenv("CONFIG_PATH"), DefaultPath))
}

func applyDefaults(c *dc.Config) {
	if c.Data.Dir == "" {
		c.Data.Dir = "./data"
	}
	if c.Data.Timeout <= 0 {
		c.Data.Timeout = 30 * time.Second
	}
	if c.Master.Driver == "" {
		c.Master.Driver = "sqlite3"
	}
	if c.Master.DSN == "" {
		c.Master.DSN = "./data/master.db"
	}
	if c.Master.IndexRange == "" {
		c.Master.IndexRange = "Maestro!A:G"
	}
	if c.Master.DetailRange == "" {
		c.Master.DetailRange = "A1:ZZ"
	}
	if c.Master.SyncInterval <= 0 {
		c.Master.SyncInterval = time.Hour
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
	if c.Web.UI == "" {
		c.Web.UI = "./ui/dist"
	}
}

func applyEnv(c *dc.Config) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.Data.Dir, "DATA_DIR")
	set(&c.Data.BaseURL, "DATA_BASE_URL")
	set(&c.Master.Driver, "MASTER_DB_DRIVER")
	set(&c.Master.DSN, "MASTER_DB_DSN", "DATABASE_URL")
	set(&c.Master.SpreadsheetID, "MASTER_SPREADSHEET_ID")
	set(&c.Master.ServiceAccountEmail, "GOOGLE_SERVICE_ACCOUNT_EMAIL")
	set(&c.Master.PrivateKey, "GOOGLE_PRIVATE_KEY")
	set(&c.Web.Addr, "WEB_ADDR")
	if c.Master.SpreadsheetID != "" && os.Getenv("MASTER_ENABLED") == "" {
		c.Master.Enabled = true
	}
	if v := strings.TrimSpace(os.Getenv("MASTER_ENABLED")); v != "" {
		c.Master.Enabled = parseBool(v)
	}
}

func parseBool(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "true" || s == "1" || s == "yes"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
