package master

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	lo "github.com/samber/lo"
	"golang.org/x/text/unicode/norm"

	"judicial-stats/domain/stats"
)

// Master index headers after folding.
const (
	hdrPlantilla    = "plantilla"
	hdrNumero       = "numero"
	hdrAnio         = "ano"
	hdrMes          = "mes"
	hdrIDOriginal   = "id original"
	hdrIDConfirmado = "id confirmado"
	hdrEstado       = "estado"
)

// ParseIndex reads the master index sheet. The first row holds the headers;
// rows with an unusable key are skipped and counted. Duplicate keys keep the
// first row.
func ParseIndex(values [][]string) (entries []Entry, skipped int, err error) {
	if len(values) == 0 {
		return nil, 0, fmt.Errorf("master index is empty")
	}
	idx := map[string]int{}
	for i, h := range values[0] {
		idx[foldHeader(h)] = i
	}
	for _, col := range []string{hdrPlantilla, hdrNumero, hdrAnio, hdrMes} {
		if _, ok := idx[col]; !ok {
			return nil, 0, fmt.Errorf("master index missing column %s", col)
		}
	}
	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for _, row := range values[1:] {
		e := Entry{
			Plantilla:    cell(row, hdrPlantilla),
			IDOriginal:   cell(row, hdrIDOriginal),
			IDConfirmado: cell(row, hdrIDConfirmado),
			Estado:       cell(row, hdrEstado),
		}
		num, err1 := strconv.Atoi(cell(row, hdrNumero))
		anio, err2 := stats.ParseYear(cell(row, hdrAnio))
		mes, err3 := parseMes(cell(row, hdrMes))
		if e.Plantilla == "" || err1 != nil || err2 != nil || err3 != nil {
			skipped++
			continue
		}
		e.Numero, e.Anio, e.Mes = num, anio, mes
		entries = append(entries, e)
	}
	entries = lo.UniqBy(entries, func(e Entry) string {
		return fmt.Sprintf("%s|%d|%d|%d", e.Plantilla, e.Numero, e.Anio, e.Mes)
	})
	return entries, skipped, nil
}

// Confirmed reports whether the entry points at a confirmed detail sheet.
func (e Entry) Confirmed() bool {
	return strings.EqualFold(strings.TrimSpace(e.Estado), EstadoConfirmado) && strings.TrimSpace(e.IDConfirmado) != ""
}

// Period returns the YYYYMM code of the entry.
func (e Entry) Period() stats.PeriodCode {
	return stats.NewPeriodCode(e.Anio, e.Mes)
}

// parseMes accepts 1..12 or a Spanish month name.
func parseMes(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("month out of range: %d", n)
		}
		return n, nil
	}
	return stats.ParseMonth(s)
}

// FlattenDetail turns a detail sheet into fields. Row 1 names the fields;
// the first data row maps to the plain names and row n>1 to "name #n".
// Blank cells are skipped. A name produced twice keeps its first value and
// is reported in dropped.
func FlattenDetail(values [][]string) (fields []Field, dropped []string) {
	if len(values) < 2 {
		return nil, nil
	}
	headers := lo.Map(values[0], func(h string, _ int) string { return strings.TrimSpace(h) })
	seen := map[string]bool{}
	for r, row := range values[1:] {
		for c, v := range row {
			if c >= len(headers) || headers[c] == "" {
				continue
			}
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			name := headers[c]
			if r > 0 {
				name = fmt.Sprintf("%s #%d", name, r+1)
			}
			if seen[name] {
				dropped = append(dropped, name)
				continue
			}
			seen[name] = true
			fields = append(fields, Field{Name: name, Value: v, NumericValue: ParseNumber(v)})
		}
	}
	return fields, dropped
}

var (
	groupedNumRe = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+(,\d+)?$`)
	commaNumRe   = regexp.MustCompile(`^-?\d+,\d+$`)
)

// ParseNumber reads plain ("1234.5") and Spanish grouped ("1.234,5") numbers.
// A single dot followed by three digits is read as a thousands separator.
func ParseNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if !strings.ContainsAny(s, "0123456789") {
		return nil
	}
	if groupedNumRe.MatchString(s) || commaNumRe.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func foldHeader(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.TrimSpace(s)) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case r == '_' || r == '-':
			b.WriteRune(' ')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
