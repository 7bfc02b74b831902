package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

const rotationStateColumns = `
	id, algorithm_type, shift_type,
	week1_analyst_id, week1_cycle_start,
	week2_analyst_id, week2_cycle_start,
	available_pool, completed_pool,
	cycle_generation, last_advanced_week, updated_at, version
`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRotationState(row rowScanner) (*domain.RotationState, error) {
	var (
		state      domain.RotationState
		week1ID    *int64
		week1Start *time.Time
		week2ID    *int64
		week2Start *time.Time
		available  []int64
		completed  []int64
	)

	dst := []any{
		&state.ID, &state.AlgorithmType, &state.ShiftType,
		&week1ID, &week1Start,
		&week2ID, &week2Start,
		r.typeMap.SQLScanner(&available), r.typeMap.SQLScanner(&completed),
		&state.CycleGeneration, &state.LastAdvancedWeek, &state.UpdatedAt, &state.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if week1ID != nil && week1Start != nil {
		state.Week1Slot = &domain.RotationSlot{AnalystID: *week1ID, CycleStart: *week1Start}
	}
	if week2ID != nil && week2Start != nil {
		state.Week2Slot = &domain.RotationSlot{AnalystID: *week2ID, CycleStart: *week2Start}
	}
	state.AvailablePool = available
	state.CompletedPool = completed
	if state.AvailablePool == nil {
		state.AvailablePool = []int64{}
	}
	if state.CompletedPool == nil {
		state.CompletedPool = []int64{}
	}

	return &state, nil
}

// GetRotationState 不存在时返回 sql.ErrNoRows
func (r *Repository) GetRotationState(algorithm string, shiftType domain.ShiftType) (*domain.RotationState, error) {
	query := `SELECT ` + rotationStateColumns + ` FROM rotation_states WHERE algorithm_type = $1 AND shift_type = $2`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return r.scanRotationState(r.dbpool.QueryRowContext(ctx, query, algorithm, shiftType))
}

func (r *Repository) GetRotationStates(algorithm string) ([]*domain.RotationState, error) {
	query := `SELECT ` + rotationStateColumns + ` FROM rotation_states WHERE algorithm_type = $1 ORDER BY shift_type`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, algorithm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make([]*domain.RotationState, 0)
	for rows.Next() {
		state, err := r.scanRotationState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return states, nil
}

// GetRotationCheckpointBefore 返回 week 之前最近一周推进后的状态快照，没有时返回 sql.ErrNoRows
func (r *Repository) GetRotationCheckpointBefore(algorithm string, shiftType domain.ShiftType, week time.Time) (*domain.RotationState, error) {
	query := `
		SELECT state
		FROM rotation_state_checkpoints
		WHERE algorithm_type = $1 AND shift_type = $2 AND week_start < $3
		ORDER BY week_start DESC
		LIMIT 1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var data []byte
	if err := r.dbpool.QueryRowContext(ctx, query, algorithm, shiftType, week).Scan(&data); err != nil {
		return nil, err
	}

	var state domain.RotationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.AvailablePool == nil {
		state.AvailablePool = []int64{}
	}
	if state.CompletedPool == nil {
		state.CompletedPool = []int64{}
	}

	return &state, nil
}

func (r *Repository) GetPatternContinuity(algorithm string) ([]*domain.PatternContinuity, error) {
	query := `
		SELECT id, analyst_id, last_pattern, last_work_date, week_number, metadata
		FROM pattern_continuity
		WHERE algorithm_type = $1
		ORDER BY analyst_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, algorithm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.PatternContinuity, 0)
	for rows.Next() {
		c := &domain.PatternContinuity{AlgorithmType: algorithm}
		var metadata []byte
		dst := []any{&c.ID, &c.AnalystID, &c.LastPattern, &c.LastWorkDate, &c.WeekNumber, &metadata}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
				return nil, err
			}
		}
		records = append(records, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// SaveGenerationState 一次生成的最终状态整体保存，中途失败不会留下部分写入
func (r *Repository) SaveGenerationState(gen *domain.GenerationState) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.saveGenerationState(ctx, tx, gen); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) saveGenerationState(ctx context.Context, tx *sql.Tx, gen *domain.GenerationState) error {
	stateQuery := `
		INSERT INTO rotation_states (
			algorithm_type, shift_type,
			week1_analyst_id, week1_cycle_start,
			week2_analyst_id, week2_cycle_start,
			available_pool, completed_pool, cycle_generation, last_advanced_week, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (algorithm_type, shift_type) DO UPDATE SET
			week1_analyst_id = EXCLUDED.week1_analyst_id,
			week1_cycle_start = EXCLUDED.week1_cycle_start,
			week2_analyst_id = EXCLUDED.week2_analyst_id,
			week2_cycle_start = EXCLUDED.week2_cycle_start,
			available_pool = EXCLUDED.available_pool,
			completed_pool = EXCLUDED.completed_pool,
			cycle_generation = EXCLUDED.cycle_generation,
			last_advanced_week = EXCLUDED.last_advanced_week,
			updated_at = NOW(),
			version = rotation_states.version + 1
		RETURNING id, updated_at, version
	`

	for _, state := range gen.States {
		var week1ID, week2ID *int64
		var week1Start, week2Start *time.Time
		if state.Week1Slot != nil {
			week1ID, week1Start = &state.Week1Slot.AnalystID, &state.Week1Slot.CycleStart
		}
		if state.Week2Slot != nil {
			week2ID, week2Start = &state.Week2Slot.AnalystID, &state.Week2Slot.CycleStart
		}

		args := []any{
			state.AlgorithmType, state.ShiftType,
			week1ID, week1Start,
			week2ID, week2Start,
			state.AvailablePool, state.CompletedPool, state.CycleGeneration, state.LastAdvancedWeek,
		}
		if err := tx.QueryRowContext(ctx, stateQuery, args...).Scan(&state.ID, &state.UpdatedAt, &state.Version); err != nil {
			return err
		}
	}

	if err := saveCheckpoints(ctx, tx, gen.Checkpoints); err != nil {
		return err
	}

	continuityQuery := `
		INSERT INTO pattern_continuity (algorithm_type, analyst_id, last_pattern, last_work_date, week_number, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (algorithm_type, analyst_id) DO UPDATE SET
			last_pattern = EXCLUDED.last_pattern,
			last_work_date = EXCLUDED.last_work_date,
			week_number = EXCLUDED.week_number,
			metadata = EXCLUDED.metadata
		RETURNING id
	`

	for _, c := range gen.Continuity {
		metadata, err := json.Marshal(c.Metadata)
		if err != nil {
			return err
		}

		args := []any{c.AlgorithmType, c.AnalystID, c.LastPattern, c.LastWorkDate, c.WeekNumber, metadata}
		if err := tx.QueryRowContext(ctx, continuityQuery, args...).Scan(&c.ID); err != nil {
			return err
		}
	}

	return nil
}

// saveCheckpoints 本次生成从某一周开始重新推进，这一周及之后的旧快照全部作废
func saveCheckpoints(ctx context.Context, tx *sql.Tx, checkpoints []*domain.RotationCheckpoint) error {
	type track struct {
		algorithm string
		shiftType domain.ShiftType
	}
	firstWeek := make(map[track]time.Time)
	for _, cp := range checkpoints {
		k := track{algorithm: cp.AlgorithmType, shiftType: cp.ShiftType}
		if first, exists := firstWeek[k]; !exists || cp.WeekStart.Before(first) {
			firstWeek[k] = cp.WeekStart
		}
	}

	for k, first := range firstWeek {
		query := `DELETE FROM rotation_state_checkpoints WHERE algorithm_type = $1 AND shift_type = $2 AND week_start >= $3`
		if _, err := tx.ExecContext(ctx, query, k.algorithm, k.shiftType, first); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO rotation_state_checkpoints (algorithm_type, shift_type, week_start, state)
		VALUES ($1, $2, $3, $4)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, cp := range checkpoints {
		state, err := json.Marshal(cp.State)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, cp.AlgorithmType, cp.ShiftType, cp.WeekStart, state); err != nil {
			return err
		}
	}

	return nil
}
