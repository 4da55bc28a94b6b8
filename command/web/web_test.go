package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ccsv "judicial-stats/connectors/csv"
	"judicial-stats/domain/master"
	"judicial-stats/domain/stats"
)

const periodCSV = "Dependencia,Objeto,Periodo,cantidad\nX,Tipo1,202001,5\nX,Tipo1,202001,3\nX,Tipo2,202001,2\nY,Tipo1,202001,4\n"

func newTestServer(t *testing.T, m Master) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Datos 202001 - Hoja1.csv"), []byte(periodCSV), 0o644))
	src := ccsv.NewDirSource(dir)
	svc := stats.NewService(ccsv.NewProbeResolver(src, nil), ccsv.NewLoader(src, nil),
		stats.WithDiscovery(stats.DiscoveryOptions{SamplePeriods: []stats.PeriodCode{"202001"}, MinFiles: 1}))
	return NewServer(svc, m, dir, filepath.Join(dir, "no-ui")), dir
}

func get(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestDependencyStatsEndpoint(t *testing.T) {
	h, _ := newTestServer(t, nil)
	var got []stats.DependencyStat
	require.Equal(t, http.StatusOK, get(t, h, "/api/stats/dependency?dependency=X&month=Enero&year=2020", &got))
	assert.Equal(t, []stats.DependencyStat{{Category: "Tipo1", Value: 8}, {Category: "Tipo2", Value: 2}}, got)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/dependency?dependency=Z&month=Enero&year=2020", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestComparisonEndpoint(t *testing.T) {
	h, _ := newTestServer(t, nil)
	var got []stats.ComparisonStat
	require.Equal(t, http.StatusOK, get(t, h, "/api/stats/comparison?dependencies=X,Nope&dependency=Y&month=Enero&year=2020", &got))
	assert.Equal(t, []stats.ComparisonStat{
		{Dependency: "Y", Category: "Tipo1", Value: 4},
		{Dependency: "X", Category: "Tipo1", Value: 8},
		{Dependency: "X", Category: "Tipo2", Value: 2},
	}, got)
}

func TestEvolutionEndpoint(t *testing.T) {
	h, _ := newTestServer(t, nil)
	var got []stats.EvolutionPoint
	require.Equal(t, http.StatusOK, get(t, h, "/api/stats/evolution?dependency=X&start_month=Enero&end_month=Marzo&year=2020", &got))
	require.Len(t, got, 3)
	assert.Equal(t, 10, got[0].Value)
	assert.Equal(t, 0, got[2].Value)
	assert.Equal(t, "Marzo", got[2].Month)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/stats/evolution?dependency=X&start_month=Marzo&end_month=Enero&year=2020", nil))
}

func TestDiscoveryEndpoints(t *testing.T) {
	h, _ := newTestServer(t, nil)
	var deps []string
	require.Equal(t, http.StatusOK, get(t, h, "/api/dependencies", &deps))
	assert.Equal(t, []string{"X", "Y"}, deps)

	var types []string
	require.Equal(t, http.StatusOK, get(t, h, "/api/object_types?dependency=X", &types))
	assert.Equal(t, []string{"Tipo1", "Tipo2"}, types)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/object_types", nil))
}

func TestDataFilesServedForHTTPSource(t *testing.T) {
	h, _ := newTestServer(t, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	src := ccsv.NewHTTPSource(srv.URL+"/data", srv.Client())
	svc := stats.NewService(ccsv.NewProbeResolver(src, nil), ccsv.NewLoader(src, nil))
	got := svc.DependencyStats(context.Background(), "Y", "Enero", "2020")
	assert.Equal(t, []stats.DependencyStat{{Category: "Tipo1", Value: 4}}, got)
}

func TestExportDependencyXLSX(t *testing.T) {
	h, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/dependency.xlsx?dependency=X&month=Enero&year=2020", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "dependencia.xlsx")
	assert.True(t, rec.Body.Len() > 0)
}

type stubMaster struct {
	syncErr error
}

func (s *stubMaster) Summary(_ context.Context, f master.Filter) ([]master.Summary, error) {
	return master.MockSummary(f), nil
}
func (s *stubMaster) Aggregates(_ context.Context, f master.Filter) ([]master.Aggregate, error) {
	return master.MockAggregates(f), nil
}
func (s *stubMaster) Entries(_ context.Context, f master.Filter) ([]master.Entry, error) {
	return master.MockEntries(f), nil
}
func (s *stubMaster) RecentSyncs(context.Context, int) ([]master.SyncLog, error) {
	return []master.SyncLog{}, nil
}
func (s *stubMaster) Status() master.Status {
	return master.Status{State: master.StateIdle, Mock: true}
}
func (s *stubMaster) Sync(context.Context) (master.Result, error) {
	return master.Result{Entries: 1}, s.syncErr
}

func TestMasterEndpoints(t *testing.T) {
	h, _ := newTestServer(t, &stubMaster{})
	var sum []master.Summary
	require.Equal(t, http.StatusOK, get(t, h, "/api/master/summary?plantilla=Previsional&anio=2024", &sum))
	assert.Len(t, sum, 2)

	var st master.Status
	require.Equal(t, http.StatusOK, get(t, h, "/api/master/sync/status", &st))
	assert.True(t, st.Mock)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/master/sync", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	busy, _ := newTestServer(t, &stubMaster{syncErr: master.ErrSyncInProgress})
	rec = httptest.NewRecorder()
	busy.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/master/sync", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMasterDisabled(t *testing.T) {
	h, _ := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/master/summary", nil))
}
