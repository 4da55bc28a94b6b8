package stats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidMonth = errors.New("invalid month name")
	ErrMonthOrder   = errors.New("start month follows end month")
	ErrInvalidYear  = errors.New("invalid year")
)

// Months lists the Spanish month names in calendar order.
var Months = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

var monthAliases = map[string]int{
	"setiembre": 9,
}

// ParseMonth maps a Spanish month name to 1..12. Case and accents are ignored.
func ParseMonth(name string) (int, error) {
	key := fold(name)
	for i, m := range Months {
		if fold(m) == key {
			return i + 1, nil
		}
	}
	if n, ok := monthAliases[key]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, name)
}

// MonthName returns the Spanish name for month 1..12, "" otherwise.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return Months[month-1]
}

// ParseYear parses a four digit year.
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	y, err := strconv.Atoi(s)
	if err != nil || len(s) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}
	return y, nil
}

// MonthRange validates start..end and returns the month numbers in between,
// both ends included.
func MonthRange(start, end string) ([]int, error) {
	s, err := ParseMonth(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseMonth(end)
	if err != nil {
		return nil, err
	}
	if s > e {
		return nil, fmt.Errorf("%w: %s > %s", ErrMonthOrder, start, end)
	}
	out := make([]int, 0, e-s+1)
	for m := s; m <= e; m++ {
		out = append(out, m)
	}
	return out, nil
}

// fold lower-cases s and drops diacritics.
func fold(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.TrimSpace(s)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
