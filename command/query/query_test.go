package query

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"judicial-stats/domain/stats"
)

type fakeStats struct {
	comparedWith []string
}

func (f *fakeStats) DependencyStats(context.Context, string, string, string) []stats.DependencyStat {
	return []stats.DependencyStat{{Category: "Tipo1", Value: 3}}
}

func (f *fakeStats) ComparisonStats(_ context.Context, deps []string, _, _ string) []stats.ComparisonStat {
	f.comparedWith = deps
	return []stats.ComparisonStat{}
}

func (f *fakeStats) EvolutionStats(_ context.Context, _, start, end, _, _ string) ([]stats.EvolutionPoint, error) {
	if _, err := stats.MonthRange(start, end); err != nil {
		return nil, err
	}
	return []stats.EvolutionPoint{{Period: "202401", Month: "Enero", Year: "2024", Value: 1}}, nil
}

func (f *fakeStats) Dependencies(context.Context) []string { return []string{"X", "Y"} }

func (f *fakeStats) ObjectTypes(context.Context, string) []string { return []string{"T"} }

func TestExecDependencies(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Exec(context.Background(), &fakeStats{}, &buf, "dependencies", nil))
	var got []string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{"X", "Y"}, got)
}

func TestExecComparisonSplitsDependencies(t *testing.T) {
	var buf bytes.Buffer
	f := &fakeStats{}
	require.NoError(t, Exec(context.Background(), f, &buf, "comparison", []string{"-dependency", "A, B", "-month", "Enero", "-year", "2024"}))
	assert.Equal(t, []string{"A", "B"}, f.comparedWith)
	assert.JSONEq(t, `[]`, buf.String())
}

func TestExecEvolutionErrors(t *testing.T) {
	var buf bytes.Buffer
	err := Exec(context.Background(), &fakeStats{}, &buf, "evolution", []string{"-dependency", "A", "-start", "Junio", "-end", "Enero", "-year", "2024"})
	assert.ErrorIs(t, err, stats.ErrMonthOrder)
	assert.Zero(t, buf.Len())
}

func TestExecValidation(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Exec(context.Background(), &fakeStats{}, &buf, "object-types", nil))
	assert.Error(t, Exec(context.Background(), &fakeStats{}, &buf, "nope", nil))
}
