package stats

import (
	"fmt"
	"strconv"
	"strings"
)

// Column names as they appear in the monthly exports. Older files use the
// unaccented/capitalized spellings, newer ones the accented/lower-case ones.
const (
	ColDependencia  = "Dependencia"
	ColCodigo       = "Codigo"
	ColCodObjeto    = "CodObjeto"
	ColNaturaleza   = "Naturaleza"
	ColObjeto       = "Objeto"
	ColPeriodo      = "Período"
	ColPeriodoPlain = "Periodo"
	ColCantidad     = "cantidad"
	ColCantidadCap  = "Cantidad"
	ColObjetoDesc   = "Objeto-Desc - Tipo_Expte"
)

// NoCategory labels rows whose Objeto column is blank.
const NoCategory = "Sin categoría"

// AllObjectTypes disables the object-type filter.
const AllObjectTypes = "ALL"

// RawRow is one CSV record keyed by header. Key spelling depends on the
// export era, so fields are read through the accessors below.
type RawRow map[string]string

// PeriodCode is a YYYYMM string.
type PeriodCode string

// NewPeriodCode builds the YYYYMM code for year and month.
func NewPeriodCode(year, month int) PeriodCode {
	return PeriodCode(fmt.Sprintf("%04d%02d", year, month))
}

// Valid reports whether p is six digits with a month in 01..12.
func (p PeriodCode) Valid() bool {
	if len(p) != 6 {
		return false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return false
		}
	}
	mm := (p[4]-'0')*10 + (p[5] - '0')
	return mm >= 1 && mm <= 12
}

// Year returns the YYYY part.
func (p PeriodCode) Year() string {
	if len(p) < 4 {
		return ""
	}
	return string(p[:4])
}

// DependencyStat is one aggregated category within a dependency and period.
type DependencyStat struct {
	Category string `json:"category"`
	Value    int    `json:"value"`
}

// ComparisonStat is one (dependency, category) total for a shared period.
type ComparisonStat struct {
	Dependency string `json:"dependency"`
	Category   string `json:"category"`
	Value      int    `json:"value"`
}

// EvolutionPoint is the total of one period in a time series.
type EvolutionPoint struct {
	Period PeriodCode `json:"period"`
	Value  int        `json:"value"`
	Year   string     `json:"year"`
	Month  string     `json:"month"`
}

// Quantity reads "cantidad", falling back to "Cantidad". Unparseable or
// missing values count as 0.
func Quantity(row RawRow) int {
	v := strings.TrimSpace(row[ColCantidad])
	if v == "" {
		v = strings.TrimSpace(row[ColCantidadCap])
	}
	return parseLeadingInt(v)
}

// Period reads "Período", falling back to "Periodo"; "" when neither is set.
func Period(row RawRow) string {
	if v := strings.TrimSpace(row[ColPeriodo]); v != "" {
		return v
	}
	return strings.TrimSpace(row[ColPeriodoPlain])
}

// Dependency returns the trimmed Dependencia value.
func Dependency(row RawRow) string {
	return strings.TrimSpace(row[ColDependencia])
}

// ObjectType returns the trimmed Objeto value without the blank default.
func ObjectType(row RawRow) string {
	return strings.TrimSpace(row[ColObjeto])
}

// Category returns the grouping label of row.
func Category(row RawRow) string {
	if c := ObjectType(row); c != "" {
		return c
	}
	return NoCategory
}

// parseLeadingInt accepts an optional sign followed by digits and ignores
// anything after them, so "12", "12.0" and "12 exp" all give 12. Values out
// of int range give 0.
func parseLeadingInt(s string) int {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
