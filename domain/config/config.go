package config

import "time"

// Config represents the structure of config.yml used by the tool.
type Config struct {
	Data      Data      `yaml:"data"`
	Discovery Discovery `yaml:"discovery"`
	Master    Master    `yaml:"master"`
	Web       Web       `yaml:"web"`
}

// Data locates the monthly CSV exports. When BaseURL is set files are
// fetched over HTTP, otherwise read from Dir.
type Data struct {
	Dir     string        `yaml:"dir"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Discovery struct {
	SamplePeriods   []string `yaml:"sample_periods"`
	MinFiles        int      `yaml:"min_files"`
	DependencyLimit int      `yaml:"dependency_limit"`
	ObjectTypeLimit int      `yaml:"object_type_limit"`
}

type Master struct {
	Enabled        bool          `yaml:"enabled"`
	Driver         string        `yaml:"driver"`
	DSN            string        `yaml:"dsn"`
	SpreadsheetID  string        `yaml:"spreadsheet_id"`
	IndexRange     string        `yaml:"index_range"`
	DetailRange    string        `yaml:"detail_range"`
	SyncInterval   time.Duration `yaml:"sync_interval"`
	FallbackToMock *bool         `yaml:"fallback_to_mock"`

	// Credentials come from the environment only.
	ServiceAccountEmail string `yaml:"-"`
	PrivateKey          string `yaml:"-"`
}

// Fallback reports whether mock data may mask backend failures.
func (m Master) Fallback() bool {
	return m.FallbackToMock == nil || *m.FallbackToMock
}

type Web struct {
	Addr string `yaml:"addr"`
	UI   string `yaml:"ui"`
}
