package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRows() []RawRow {
	return []RawRow{
		{"Dependencia": "X", "Objeto": "Tipo1", "Periodo": "202001", "cantidad": "5"},
		{"Dependencia": "X", "Objeto": "Tipo1", "Periodo": "202001", "cantidad": "3"},
		{"Dependencia": "X", "Objeto": "Tipo2", "Periodo": "202001", "cantidad": "2"},
		{"Dependencia": "Y", "Objeto": "Tipo1", "Periodo": "202001", "cantidad": "100"},
		{"Dependencia": "X", "Objeto": "Tipo1", "Periodo": "202002", "cantidad": "100"},
		{"Dependencia": " X ", "Objeto": "", "Período": "202001", "Cantidad": "1"},
	}
}

func TestAggregateGroupsAndSums(t *testing.T) {
	got := Aggregate(sampleRows(), "X", "202001", "")
	assert.Equal(t, Totals{"Tipo1": 8, "Tipo2": 2, NoCategory: 1}, got)
	assert.Equal(t, 11, got.Total())
}

func TestAggregateObjectTypeFilter(t *testing.T) {
	assert.Equal(t, Totals{"Tipo2": 2}, Aggregate(sampleRows(), "X", "202001", "Tipo2"))
	assert.Equal(t, Aggregate(sampleRows(), "X", "202001", ""), Aggregate(sampleRows(), "X", "202001", AllObjectTypes))
}

func TestAggregateIgnoresRowOrder(t *testing.T) {
	rows := sampleRows()
	want := Aggregate(rows, "X", "202001", "")
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		r.Shuffle(len(rows), func(a, b int) { rows[a], rows[b] = rows[b], rows[a] })
		assert.Equal(t, want, Aggregate(rows, "X", "202001", ""))
	}
}

func TestAggregateNoMatch(t *testing.T) {
	got := Aggregate(sampleRows(), "Z", "202001", "")
	assert.Empty(t, got)
	assert.Equal(t, 0, got.Total())
}

func TestTopSortsDescendingAndCaps(t *testing.T) {
	totals := Totals{}
	for i := 0; i < 15; i++ {
		totals[string(rune('a'+i))] = i
	}
	top := totals.Top(TopCategories)
	assert.Len(t, top, TopCategories)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Value, top[i].Value)
	}
	assert.Equal(t, DependencyStat{Category: "o", Value: 14}, top[0])
}

func TestCategoriesAlphabetical(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Totals{"c": 1, "a": 2, "b": 3}.Categories())
}
