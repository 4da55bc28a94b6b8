package app

import (
	"context"

	"judicial-stats/domain/master"
)

// unavailableRepo stands in for a database that failed to open so the
// master service can start on mock data.
type unavailableRepo struct{ err error }

func (u unavailableRepo) Ping(context.Context) error                           { return u.err }
func (u unavailableRepo) ReplaceEntries(context.Context, []master.Entry) error { return u.err }
func (u unavailableRepo) ReplaceFields(context.Context, master.Entry, []master.Field) error {
	return u.err
}
func (u unavailableRepo) RebuildAggregates(context.Context, string, int, int) error { return u.err }
func (u unavailableRepo) LogSync(context.Context, master.SyncLog) error             { return u.err }
func (u unavailableRepo) Summary(context.Context, master.Filter) ([]master.Summary, error) {
	return nil, u.err
}
func (u unavailableRepo) Aggregates(context.Context, master.Filter) ([]master.Aggregate, error) {
	return nil, u.err
}
func (u unavailableRepo) Entries(context.Context, master.Filter) ([]master.Entry, error) {
	return nil, u.err
}
func (u unavailableRepo) RecentSyncs(context.Context, int) ([]master.SyncLog, error) {
	return nil, u.err
}
