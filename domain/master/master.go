package master

import "time"

// Entry is one row of the master index: which spreadsheet holds the detail
// data of a dependency for a month. (Plantilla, Numero, Anio, Mes) is unique.
type Entry struct {
	ID           int64  `json:"id,omitempty"`
	Plantilla    string `json:"plantilla"`
	Numero       int    `json:"numero"`
	Anio         int    `json:"anio"`
	Mes          int    `json:"mes"`
	IDOriginal   string `json:"id_original"`
	IDConfirmado string `json:"id_confirmado"`
	Estado       string `json:"estado"`
}

// EstadoConfirmado marks entries whose detail sheet is synced.
const EstadoConfirmado = "CONFIRMADO"

// Field is one flattened key/value of a detail sheet. NumericValue is nil
// when FieldValue is not a number.
type Field struct {
	Name         string   `json:"field_name"`
	Value        string   `json:"field_value"`
	NumericValue *float64 `json:"numeric_value,omitempty"`
}

// Aggregate is a pre-rolled metric over every dependency of a plantilla and
// month.
type Aggregate struct {
	Plantilla         string  `json:"plantilla"`
	Anio              int     `json:"anio"`
	Mes               int     `json:"mes"`
	MetricName        string  `json:"metric_name"`
	MetricValue       float64 `json:"metric_value"`
	CountDependencies int     `json:"count_dependencies"`
}

// Summary counts the stored field rows of one dependency and month.
type Summary struct {
	Plantilla string `json:"plantilla"`
	Numero    int    `json:"numero"`
	Anio      int    `json:"anio"`
	Mes       int    `json:"mes"`
	Records   int    `json:"records"`
}

// Filter narrows summary and aggregate queries. Zero values match all.
type Filter struct {
	Plantilla string
	Anio      int
	Mes       int
}

// Sync log outcomes.
const (
	SyncSuccess = "success"
	SyncPartial = "partial"
	SyncError   = "error"
)

// SyncLog is one audit row written after each sync.
type SyncLog struct {
	ID               int64     `json:"id,omitempty"`
	SyncType         string    `json:"sync_type"`
	Plantilla        string    `json:"plantilla,omitempty"`
	Anio             int       `json:"anio,omitempty"`
	Mes              int       `json:"mes,omitempty"`
	RecordsProcessed int       `json:"records_processed"`
	Status           string    `json:"status"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// State of the sync status record.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Status is the current sync state as seen by pollers.
type Status struct {
	State            State      `json:"state"`
	Mock             bool       `json:"mock"`
	LastStarted      *time.Time `json:"last_started,omitempty"`
	LastFinished     *time.Time `json:"last_finished,omitempty"`
	RecordsProcessed int        `json:"records_processed"`
	Error            string     `json:"error,omitempty"`
}
