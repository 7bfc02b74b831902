package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

func (r *Repository) GetSchedulesBetween(start, end time.Time) ([]*domain.ScheduleEntry, error) {
	query := `
		SELECT id, analyst_id, date, shift_type, is_screener, pattern, is_comp_off, created_at
		FROM schedules
		WHERE date BETWEEN $1 AND $2
		ORDER BY date, analyst_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.ScheduleEntry, 0)
	for rows.Next() {
		e := &domain.ScheduleEntry{}
		dst := []any{&e.ID, &e.AnalystID, &e.Date, &e.ShiftType, &e.IsScreener, &e.Pattern, &e.IsCompOff, &e.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// AcceptGeneration 在一个事务中替换范围内的排班并保存本次生成的轮换状态、快照和模式连续性记录
func (r *Repository) AcceptGeneration(scope domain.ScheduleScope, entries []*domain.ScheduleEntry, gen *domain.GenerationState) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := deleteStaleSchedules(ctx, tx, scope, entries); err != nil {
		return err
	}
	if err := upsertSchedules(ctx, tx, entries); err != nil {
		return err
	}
	if err := r.saveGenerationState(ctx, tx, gen); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// deleteStaleSchedules 删除范围内属于本次分析师、但不在新排班中的旧记录
func deleteStaleSchedules(ctx context.Context, tx *sql.Tx, scope domain.ScheduleScope, entries []*domain.ScheduleEntry) error {
	query := `
		DELETE FROM schedules s
		WHERE s.date BETWEEN $1 AND $2
			AND s.analyst_id = ANY($3)
			AND NOT EXISTS (
				SELECT 1
				FROM unnest($4::bigint[], $5::date[]) AS kept(analyst_id, date)
				WHERE kept.analyst_id = s.analyst_id AND kept.date = s.date
			)
	`

	keptAnalysts := make([]int64, 0, len(entries))
	keptDates := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		keptAnalysts = append(keptAnalysts, e.AnalystID)
		keptDates = append(keptDates, domain.DateOnly(e.Date))
	}

	if _, err := tx.ExecContext(ctx, query, scope.StartDate, scope.EndDate, scope.AnalystIDs, keptAnalysts, keptDates); err != nil {
		return err
	}

	return nil
}

// upsertSchedules 每个分析师每天只有一条排班，冲突时覆盖
func upsertSchedules(ctx context.Context, tx *sql.Tx, entries []*domain.ScheduleEntry) error {
	query := `
		INSERT INTO schedules (analyst_id, date, shift_type, is_screener, pattern, is_comp_off)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (analyst_id, date) DO UPDATE SET
			shift_type = EXCLUDED.shift_type,
			is_screener = EXCLUDED.is_screener,
			pattern = EXCLUDED.pattern,
			is_comp_off = EXCLUDED.is_comp_off
		RETURNING id, created_at
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		args := []any{e.AnalystID, e.Date, e.ShiftType, e.IsScreener, e.Pattern, e.IsCompOff}
		if err := stmt.QueryRowContext(ctx, args...).Scan(&e.ID, &e.CreatedAt); err != nil {
			return err
		}
	}

	return nil
}
