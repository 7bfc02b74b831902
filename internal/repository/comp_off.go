package repository

import (
	"context"
	"database/sql"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/compoff"
	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

const compOffColumns = `id, analyst_id, type, earned_date, comp_off_date, reason, days, is_auto_assigned, is_banked, description, created_at`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listCompOffTransactions(ctx context.Context, q queryer, analystID int64) ([]*domain.CompOffTransaction, error) {
	query := `SELECT ` + compOffColumns + ` FROM comp_off_transactions WHERE analyst_id = $1 ORDER BY created_at, id`

	rows, err := q.QueryContext(ctx, query, analystID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]*domain.CompOffTransaction, 0)
	for rows.Next() {
		t := &domain.CompOffTransaction{}
		dst := []any{&t.ID, &t.AnalystID, &t.Type, &t.EarnedDate, &t.CompOffDate, &t.Reason, &t.Days, &t.IsAutoAssigned, &t.IsBanked, &t.Description, &t.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return txns, nil
}

func (r *Repository) ListCompOffTransactions(analystID int64) ([]*domain.CompOffTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return listCompOffTransactions(ctx, r.dbpool, analystID)
}

func (r *Repository) DeleteCompOffTransaction(id int64) error {
	query := `DELETE FROM comp_off_transactions WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// WithAnalystLedger 用事务级 advisory lock 串行化同一分析师的调休写操作，事务提交或回滚时自动释放
func (r *Repository) WithAnalystLedger(analystID int64, fn func(compoff.Ledger) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryKey("comp_off", analystID)); err != nil {
		return err
	}

	if err := fn(&ledger{ctx: ctx, tx: tx, analystID: analystID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

type ledger struct {
	ctx       context.Context
	tx        *sql.Tx
	analystID int64
}

func (l *ledger) Transactions() ([]*domain.CompOffTransaction, error) {
	return listCompOffTransactions(l.ctx, l.tx, l.analystID)
}

func (l *ledger) Insert(t *domain.CompOffTransaction) error {
	query := `
		INSERT INTO comp_off_transactions (analyst_id, type, earned_date, comp_off_date, reason, days, is_auto_assigned, is_banked, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	args := []any{l.analystID, t.Type, t.EarnedDate, t.CompOffDate, t.Reason, t.Days, t.IsAutoAssigned, t.IsBanked, t.Description}
	if err := l.tx.QueryRowContext(l.ctx, query, args...).Scan(&t.ID, &t.CreatedAt); err != nil {
		return err
	}
	t.AnalystID = l.analystID

	return nil
}

func (l *ledger) HasWorkingScheduleOn(date time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM schedules WHERE analyst_id = $1 AND date = $2 AND NOT is_comp_off)`

	var exists bool
	if err := l.tx.QueryRowContext(l.ctx, query, l.analystID, date).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (l *ledger) HasApprovedAbsenceOn(date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM analyst_absences
			WHERE analyst_id = $1 AND is_approved AND start_date <= $2 AND end_date >= $2
		)
	`

	var exists bool
	if err := l.tx.QueryRowContext(l.ctx, query, l.analystID, date).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// advisoryKey 给 advisory lock 的键加上命名空间，避免和其他用途的锁冲突
func advisoryKey(namespace string, id int64) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(namespace))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(strconv.FormatInt(id, 10)))
	return int64(h.Sum64())
}
