package master

import (
	lo "github.com/samber/lo"
)

var mockEntries = []Entry{
	{Plantilla: "Previsional", Numero: 1, Anio: 2024, Mes: 1, Estado: EstadoConfirmado, IDConfirmado: "mock-prev-1"},
	{Plantilla: "Previsional", Numero: 2, Anio: 2024, Mes: 1, Estado: EstadoConfirmado, IDConfirmado: "mock-prev-2"},
	{Plantilla: "Tributaria", Numero: 1, Anio: 2024, Mes: 1, Estado: EstadoConfirmado, IDConfirmado: "mock-trib-1"},
	{Plantilla: "Sala", Numero: 1, Anio: 2024, Mes: 2, Estado: EstadoConfirmado, IDConfirmado: "mock-sala-1"},
	{Plantilla: "Sala", Numero: 2, Anio: 2024, Mes: 2, Estado: "PENDIENTE", IDOriginal: "mock-sala-2"},
}

var mockRecords = map[string]int{
	"mock-prev-1": 42,
	"mock-prev-2": 37,
	"mock-trib-1": 28,
	"mock-sala-1": 15,
}

var mockAggregates = []Aggregate{
	{Plantilla: "Previsional", Anio: 2024, Mes: 1, MetricName: "Expedientes ingresados", MetricValue: 1250, CountDependencies: 2},
	{Plantilla: "Previsional", Anio: 2024, Mes: 1, MetricName: "Sentencias", MetricValue: 310, CountDependencies: 2},
	{Plantilla: "Tributaria", Anio: 2024, Mes: 1, MetricName: "Expedientes ingresados", MetricValue: 480, CountDependencies: 1},
	{Plantilla: "Sala", Anio: 2024, Mes: 2, MetricName: "Resoluciones", MetricValue: 95, CountDependencies: 1},
}

func (f Filter) match(plantilla string, anio, mes int) bool {
	return (f.Plantilla == "" || f.Plantilla == plantilla) &&
		(f.Anio == 0 || f.Anio == anio) &&
		(f.Mes == 0 || f.Mes == mes)
}

// MockEntries is the static master index used when the backends are down.
func MockEntries(f Filter) []Entry {
	return lo.Filter(mockEntries, func(e Entry, _ int) bool { return f.match(e.Plantilla, e.Anio, e.Mes) })
}

// MockSummary derives record counts from the static master index.
func MockSummary(f Filter) []Summary {
	return lo.FilterMap(MockEntries(f), func(e Entry, _ int) (Summary, bool) {
		n, ok := mockRecords[e.IDConfirmado]
		return Summary{Plantilla: e.Plantilla, Numero: e.Numero, Anio: e.Anio, Mes: e.Mes, Records: n}, ok && e.Confirmed()
	})
}

// MockAggregates returns static rollups.
func MockAggregates(f Filter) []Aggregate {
	return lo.Filter(mockAggregates, func(a Aggregate, _ int) bool { return f.match(a.Plantilla, a.Anio, a.Mes) })
}
