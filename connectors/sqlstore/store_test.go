package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"judicial-stats/domain/master"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "db", "master.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func num(f float64) *float64 { return &f }

func TestNormalizeDriver(t *testing.T) {
	d, err := NormalizeDriver("postgres")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, d)
	d, err = NormalizeDriver("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, d)
	_, err = NormalizeDriver("oracle")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))
	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestReplaceEntriesIsWholesale(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	first := []master.Entry{
		{Plantilla: "Sala", Numero: 1, Anio: 2024, Mes: 1, IDConfirmado: "s1", Estado: "CONFIRMADO"},
		{Plantilla: "Sala", Numero: 2, Anio: 2024, Mes: 1, IDConfirmado: "s2", Estado: "CONFIRMADO"},
	}
	require.NoError(t, s.ReplaceEntries(ctx, first))
	require.NoError(t, s.ReplaceFields(ctx, first[1], []master.Field{{Name: "A", Value: "1", NumericValue: num(1)}}))

	require.NoError(t, s.ReplaceEntries(ctx, first[:1]))
	got, err := s.Entries(ctx, master.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].IDConfirmado)

	fields, err := s.Fields(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestReplaceEntriesRejectsDuplicateKey(t *testing.T) {
	s := openTest(t)
	e := master.Entry{Plantilla: "Sala", Numero: 1, Anio: 2024, Mes: 1}
	assert.Error(t, s.ReplaceEntries(context.Background(), []master.Entry{e, e}))
}

func TestFieldsSummaryAndAggregates(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	a := master.Entry{Plantilla: "Previsional", Numero: 1, Anio: 2024, Mes: 3, IDConfirmado: "p1", Estado: "CONFIRMADO"}
	b := master.Entry{Plantilla: "Previsional", Numero: 2, Anio: 2024, Mes: 3, IDConfirmado: "p2", Estado: "CONFIRMADO"}
	c := master.Entry{Plantilla: "Tributaria", Numero: 1, Anio: 2024, Mes: 3, IDConfirmado: "t1", Estado: "CONFIRMADO"}
	require.NoError(t, s.ReplaceEntries(ctx, []master.Entry{a, b, c}))

	require.NoError(t, s.ReplaceFields(ctx, a, []master.Field{
		{Name: "Ingresados", Value: "10", NumericValue: num(10)},
		{Name: "Obs", Value: "n/a"},
	}))
	require.NoError(t, s.ReplaceFields(ctx, b, []master.Field{{Name: "Ingresados", Value: "5", NumericValue: num(5)}}))
	require.NoError(t, s.ReplaceFields(ctx, c, []master.Field{{Name: "Ingresados", Value: "1", NumericValue: num(1)}}))
	// a second sync of b replaces its rows
	require.NoError(t, s.ReplaceFields(ctx, b, []master.Field{{Name: "Ingresados", Value: "6", NumericValue: num(6)}}))

	fields, err := s.Fields(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Nil(t, fields[1].NumericValue)

	sum, err := s.Summary(ctx, master.Filter{Plantilla: "Previsional"})
	require.NoError(t, err)
	assert.Equal(t, []master.Summary{
		{Plantilla: "Previsional", Numero: 1, Anio: 2024, Mes: 3, Records: 2},
		{Plantilla: "Previsional", Numero: 2, Anio: 2024, Mes: 3, Records: 1},
	}, sum)

	require.NoError(t, s.RebuildAggregates(ctx, "Previsional", 2024, 3))
	require.NoError(t, s.RebuildAggregates(ctx, "Previsional", 2024, 3))
	aggs, err := s.Aggregates(ctx, master.Filter{Anio: 2024, Mes: 3})
	require.NoError(t, err)
	assert.Equal(t, []master.Aggregate{
		{Plantilla: "Previsional", Anio: 2024, Mes: 3, MetricName: "Ingresados", MetricValue: 16, CountDependencies: 2},
	}, aggs)
}

func TestSyncLog(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.LogSync(ctx, master.SyncLog{SyncType: "full", RecordsProcessed: 3, Status: master.SyncSuccess, CreatedAt: at}))
	require.NoError(t, s.LogSync(ctx, master.SyncLog{SyncType: "full", Status: master.SyncError, ErrorMessage: "boom", CreatedAt: at.Add(time.Hour)}))

	logs, err := s.RecentSyncs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, master.SyncError, logs[0].Status)
	assert.Equal(t, "boom", logs[0].ErrorMessage)
	assert.True(t, logs[1].CreatedAt.Equal(at))
	assert.NoError(t, s.Ping(ctx))
}

func TestServiceSyncAgainstSQLite(t *testing.T) {
	s := openTest(t)
	sheets := sheetsFunc(func(_ context.Context, id, _ string) ([][]string, error) {
		switch id {
		case "master":
			return [][]string{
				{"Plantilla", "Número", "Año", "Mes", "ID Original", "ID Confirmado", "Estado"},
				{"Sala", "1", "2024", "Abril", "o1", "d1", "CONFIRMADO"},
				{"Sala", "2", "2024", "Abril", "o2", "d2", "CONFIRMADO"},
			}, nil
		case "d1":
			return [][]string{{"Resueltos"}, {"1.200"}}, nil
		default:
			return [][]string{{"Resueltos"}, {"300"}}, nil
		}
	})
	svc := master.NewService(sheets, s, master.Options{SpreadsheetID: "master"}, nil)
	require.NoError(t, svc.Initialize(context.Background()))
	_, err := svc.Sync(context.Background())
	require.NoError(t, err)

	aggs, err := svc.Aggregates(context.Background(), master.Filter{Plantilla: "Sala"})
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, 1500.0, aggs[0].MetricValue)
	assert.Equal(t, 2, aggs[0].CountDependencies)
}

func resyncService(t *testing.T, s *Store, index *[][]string) *master.Service {
	t.Helper()
	sheets := sheetsFunc(func(_ context.Context, id, _ string) ([][]string, error) {
		switch id {
		case "master":
			return *index, nil
		case "t1":
			return [][]string{{"Ingresados"}, {"7"}}, nil
		default:
			return [][]string{{"Ingresados"}, {"10"}}, nil
		}
	})
	svc := master.NewService(sheets, s, master.Options{SpreadsheetID: "master"}, nil)
	require.NoError(t, svc.Initialize(context.Background()))
	return svc
}

var indexHeader = []string{"Plantilla", "Número", "Año", "Mes", "ID Original", "ID Confirmado", "Estado"}

func TestResyncDropsAggregatesOfRemovedPeriods(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	index := [][]string{indexHeader, {"Sala", "1", "2024", "Enero", "o1", "d1", "CONFIRMADO"}}
	svc := resyncService(t, s, &index)
	_, err := svc.Sync(ctx)
	require.NoError(t, err)
	aggs, err := svc.Aggregates(ctx, master.Filter{})
	require.NoError(t, err)
	require.Len(t, aggs, 1)

	index = [][]string{indexHeader}
	_, err = svc.Sync(ctx)
	require.NoError(t, err)
	aggs, err = svc.Aggregates(ctx, master.Filter{})
	require.NoError(t, err)
	assert.Empty(t, aggs)
	sum, err := svc.Summary(ctx, master.Filter{})
	require.NoError(t, err)
	assert.Empty(t, sum)
}

func TestResyncDropsDemotedEntries(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	index := [][]string{
		indexHeader,
		{"Sala", "1", "2024", "Enero", "o1", "d1", "CONFIRMADO"},
		{"Sala", "2", "2024", "Enero", "o2", "d2", "CONFIRMADO"},
		{"Tributaria", "1", "2024", "Febrero", "o3", "t1", "CONFIRMADO"},
	}
	svc := resyncService(t, s, &index)
	_, err := svc.Sync(ctx)
	require.NoError(t, err)
	aggs, err := svc.Aggregates(ctx, master.Filter{Plantilla: "Sala"})
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, 20.0, aggs[0].MetricValue)

	// d2 keeps its ID Confirmado cell but is no longer confirmed
	index = [][]string{
		indexHeader,
		{"Sala", "1", "2024", "Enero", "o1", "d1", "CONFIRMADO"},
		{"Sala", "2", "2024", "Enero", "o2", "d2", "PENDIENTE"},
		{"Tributaria", "1", "2024", "Febrero", "o3", "t1", "pendiente"},
	}
	_, err = svc.Sync(ctx)
	require.NoError(t, err)

	aggs, err = svc.Aggregates(ctx, master.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []master.Aggregate{
		{Plantilla: "Sala", Anio: 2024, Mes: 1, MetricName: "Ingresados", MetricValue: 10, CountDependencies: 1},
	}, aggs)
	sum, err := svc.Summary(ctx, master.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []master.Summary{{Plantilla: "Sala", Numero: 1, Anio: 2024, Mes: 1, Records: 1}}, sum)
	fields, err := s.Fields(ctx, "d2")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

type sheetsFunc func(ctx context.Context, id, rng string) ([][]string, error)

func (f sheetsFunc) Values(ctx context.Context, id, rng string) ([][]string, error) {
	return f(ctx, id, rng)
}
