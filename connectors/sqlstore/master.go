package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"judicial-stats/domain/master"
)

// ReplaceEntries swaps the whole master index. Field rows of sheets that are
// gone or no longer confirmed are dropped, and so are the aggregates of
// periods left without numeric fields.
func (s *Store) ReplaceEntries(ctx context.Context, entries []master.Entry) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM master_sheets`); err != nil {
			return fmt.Errorf("clear master_sheets: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO master_sheets
			(plantilla, numero, anio, mes, id_original, id_confirmado, estado)
			VALUES (?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.Plantilla, e.Numero, e.Anio, e.Mes, e.IDOriginal, e.IDConfirmado, e.Estado); err != nil {
				return fmt.Errorf("insert master sheet %s/%d %04d%02d: %w", e.Plantilla, e.Numero, e.Anio, e.Mes, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM dependency_statistics
			WHERE sheet_id NOT IN (SELECT id_confirmado FROM master_sheets
				WHERE TRIM(id_confirmado) <> '' AND UPPER(TRIM(estado)) = 'CONFIRMADO')`); err != nil {
			return fmt.Errorf("drop unconfirmed fields: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM aggregated_statistics
			WHERE NOT EXISTS (SELECT 1 FROM dependency_statistics d
				WHERE d.plantilla = aggregated_statistics.plantilla
					AND d.anio = aggregated_statistics.anio
					AND d.mes = aggregated_statistics.mes
					AND d.numeric_value IS NOT NULL)`); err != nil {
			return fmt.Errorf("drop stale aggregates: %w", err)
		}
		return nil
	})
}

// ReplaceFields swaps the field rows of one entry's detail sheet.
func (s *Store) ReplaceFields(ctx context.Context, e master.Entry, fields []master.Field) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM dependency_statistics WHERE sheet_id = ?`), e.IDConfirmado); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO dependency_statistics
			(sheet_id, plantilla, numero, anio, mes, field_name, field_value, numeric_value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, f := range fields {
			var num sql.NullFloat64
			if f.NumericValue != nil {
				num = sql.NullFloat64{Float64: *f.NumericValue, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, e.IDConfirmado, e.Plantilla, e.Numero, e.Anio, e.Mes, f.Name, f.Value, num); err != nil {
				return fmt.Errorf("insert field %s: %w", f.Name, err)
			}
		}
		return nil
	})
}

// RebuildAggregates recomputes the rollups of one plantilla and month.
func (s *Store) RebuildAggregates(ctx context.Context, plantilla string, anio, mes int) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM aggregated_statistics
			WHERE plantilla = ? AND anio = ? AND mes = ?`), plantilla, anio, mes); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO aggregated_statistics
			(plantilla, anio, mes, metric_name, metric_value, count_dependencies)
			SELECT plantilla, anio, mes, field_name, SUM(numeric_value), COUNT(DISTINCT numero)
			FROM dependency_statistics
			WHERE plantilla = ? AND anio = ? AND mes = ? AND numeric_value IS NOT NULL
			GROUP BY plantilla, anio, mes, field_name`), plantilla, anio, mes)
		return err
	})
}

func (s *Store) LogSync(ctx context.Context, l master.SyncLog) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO master_sync_log
		(sync_type, plantilla, anio, mes, records_processed, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		l.SyncType, l.Plantilla, l.Anio, l.Mes, l.RecordsProcessed, l.Status, l.ErrorMessage, l.CreatedAt.UTC())
	return err
}

// where renders the non-zero filter fields as a WHERE clause.
func where(f master.Filter) (string, []any) {
	var conds []string
	var args []any
	if f.Plantilla != "" {
		conds = append(conds, "plantilla = ?")
		args = append(args, f.Plantilla)
	}
	if f.Anio != 0 {
		conds = append(conds, "anio = ?")
		args = append(args, f.Anio)
	}
	if f.Mes != 0 {
		conds = append(conds, "mes = ?")
		args = append(args, f.Mes)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Summary counts field rows per dependency and month.
func (s *Store) Summary(ctx context.Context, f master.Filter) ([]master.Summary, error) {
	w, args := where(f)
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT plantilla, numero, anio, mes, COUNT(*)
		FROM dependency_statistics`+w+`
		GROUP BY plantilla, numero, anio, mes
		ORDER BY anio, mes, plantilla, numero`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []master.Summary{}
	for rows.Next() {
		var m master.Summary
		if err := rows.Scan(&m.Plantilla, &m.Numero, &m.Anio, &m.Mes, &m.Records); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) Aggregates(ctx context.Context, f master.Filter) ([]master.Aggregate, error) {
	w, args := where(f)
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT plantilla, anio, mes, metric_name, metric_value, count_dependencies
		FROM aggregated_statistics`+w+`
		ORDER BY anio, mes, plantilla, metric_name`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []master.Aggregate{}
	for rows.Next() {
		var a master.Aggregate
		if err := rows.Scan(&a.Plantilla, &a.Anio, &a.Mes, &a.MetricName, &a.MetricValue, &a.CountDependencies); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) Entries(ctx context.Context, f master.Filter) ([]master.Entry, error) {
	w, args := where(f)
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, plantilla, numero, anio, mes, id_original, id_confirmado, estado
		FROM master_sheets`+w+`
		ORDER BY anio, mes, plantilla, numero`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []master.Entry{}
	for rows.Next() {
		var e master.Entry
		if err := rows.Scan(&e.ID, &e.Plantilla, &e.Numero, &e.Anio, &e.Mes, &e.IDOriginal, &e.IDConfirmado, &e.Estado); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Fields returns the stored field rows of one detail sheet.
func (s *Store) Fields(ctx context.Context, sheetID string) ([]master.Field, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT field_name, field_value, numeric_value
		FROM dependency_statistics WHERE sheet_id = ? ORDER BY id`), sheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []master.Field{}
	for rows.Next() {
		var f master.Field
		var num sql.NullFloat64
		if err := rows.Scan(&f.Name, &f.Value, &num); err != nil {
			return nil, err
		}
		if num.Valid {
			v := num.Float64
			f.NumericValue = &v
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) RecentSyncs(ctx context.Context, limit int) ([]master.SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, sync_type, plantilla, anio, mes, records_processed, status, error_message, created_at
		FROM master_sync_log ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []master.SyncLog{}
	for rows.Next() {
		var l master.SyncLog
		if err := rows.Scan(&l.ID, &l.SyncType, &l.Plantilla, &l.Anio, &l.Mes, &l.RecordsProcessed, &l.Status, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
