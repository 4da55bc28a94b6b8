package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"judicial-stats/domain/stats"
)

// Report builds a workbook with one sheet per exported result.
type Report struct {
	f     *excelize.File
	first bool
}

func NewReport() *Report {
	return &Report{f: excelize.NewFile(), first: true}
}

// sheet creates name, reusing the default sheet for the first one.
func (r *Report) sheet(name string) (string, error) {
	name = SheetName(name)
	if r.first {
		r.first = false
		if err := r.f.SetSheetName("Sheet1", name); err != nil {
			return "", err
		}
		return name, nil
	}
	if _, err := r.f.NewSheet(name); err != nil {
		return "", err
	}
	return name, nil
}

func (r *Report) table(name string, head []any, rows [][]any) error {
	sheet, err := r.sheet(name)
	if err != nil {
		return err
	}
	if err := r.f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	for i, row := range rows {
		if err := r.f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) AddDependencyStats(name string, rows []stats.DependencyStat) error {
	data := make([][]any, 0, len(rows))
	for _, s := range rows {
		data = append(data, []any{s.Category, s.Value})
	}
	return r.table(name, []any{"Categoría", "Cantidad"}, data)
}

func (r *Report) AddComparisonStats(name string, rows []stats.ComparisonStat) error {
	data := make([][]any, 0, len(rows))
	for _, s := range rows {
		data = append(data, []any{s.Dependency, s.Category, s.Value})
	}
	return r.table(name, []any{"Dependencia", "Categoría", "Cantidad"}, data)
}

func (r *Report) AddEvolution(name string, points []stats.EvolutionPoint) error {
	data := make([][]any, 0, len(points))
	for _, p := range points {
		data = append(data, []any{string(p.Period), p.Year, p.Month, p.Value})
	}
	return r.table(name, []any{"Período", "Año", "Mes", "Cantidad"}, data)
}

func (r *Report) Write(w io.Writer) error {
	return r.f.Write(w)
}

func (r *Report) SaveAs(path string) error {
	return r.f.SaveAs(path)
}

func (r *Report) Close() error {
	return r.f.Close()
}

var sheetNameReplacer = strings.NewReplacer(":", "-", "\\", "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")")

// SheetName strips the characters Excel rejects and caps the length at 31.
func SheetName(name string) string {
	name = strings.TrimSpace(sheetNameReplacer.Replace(name))
	if name == "" {
		name = "Hoja"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}
