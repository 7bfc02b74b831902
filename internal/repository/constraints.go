package repository

import (
	"context"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

func (r *Repository) CreateConstraint(c *domain.Constraint) error {
	query := `
		INSERT INTO scheduling_constraints (analyst_id, constraint_type, start_date, end_date, value, is_active, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{c.AnalystID, c.Type, c.StartDate, c.EndDate, c.Value, c.IsActive, c.Description}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&c.ID); err != nil {
		return err
	}

	return nil
}

// GetActiveConstraintsBetween 返回与 [start, end] 有交集的有效约束
func (r *Repository) GetActiveConstraintsBetween(start, end time.Time) ([]*domain.Constraint, error) {
	query := `
		SELECT id, analyst_id, constraint_type, start_date, end_date, value, is_active, description
		FROM scheduling_constraints
		WHERE is_active AND start_date <= $2 AND end_date >= $1
		ORDER BY start_date, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	constraints := make([]*domain.Constraint, 0)
	for rows.Next() {
		c := &domain.Constraint{}
		dst := []any{&c.ID, &c.AnalystID, &c.Type, &c.StartDate, &c.EndDate, &c.Value, &c.IsActive, &c.Description}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		constraints = append(constraints, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return constraints, nil
}
