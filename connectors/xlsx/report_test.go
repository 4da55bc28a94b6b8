package xlsx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"judicial-stats/domain/stats"
)

func TestReportSheets(t *testing.T) {
	r := NewReport()
	require.NoError(t, r.AddDependencyStats("Juzgado 1", []stats.DependencyStat{{Category: "Amparo", Value: 8}}))
	require.NoError(t, r.AddEvolution("Evolución", []stats.EvolutionPoint{{Period: "202101", Year: "2021", Month: "Enero", Value: 3}}))
	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	require.NoError(t, r.Close())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Juzgado 1", "Evolución"}, f.GetSheetList())

	rows, err := f.GetRows("Juzgado 1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Categoría", "Cantidad"}, {"Amparo", "8"}}, rows)

	rows, err = f.GetRows("Evolución")
	require.NoError(t, err)
	assert.Equal(t, []string{"202101", "2021", "Enero", "3"}, rows[1])
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Juzgado 1-2 (Sala)", SheetName("Juzgado 1/2 [Sala]"))
	assert.Equal(t, "Hoja", SheetName(" ?* "))
	assert.Len(t, []rune(SheetName("Juzgado Nacional de Primera Instancia en lo Civil N° 1")), 31)
}
