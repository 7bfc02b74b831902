package repository

import (
	"context"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

func (r *Repository) CreateAnalyst(analyst *domain.Analyst) error {
	query := `
		INSERT INTO analysts (username, full_name, shift_type, region_id, skills, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{analyst.Username, analyst.FullName, analyst.ShiftType, analyst.RegionID, analyst.Skills, analyst.IsActive}
	dst := []any{&analyst.ID, &analyst.CreatedAt, &analyst.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) CreateAbsence(absence *domain.AbsenceWindow) error {
	query := `
		INSERT INTO analyst_absences (analyst_id, start_date, end_date, kind, is_approved)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{absence.AnalystID, absence.StartDate, absence.EndDate, absence.Kind, absence.IsApproved}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&absence.ID); err != nil {
		return err
	}

	return nil
}

// GetAllAnalysts 返回全部分析师及其已批准的请假区间
func (r *Repository) GetAllAnalysts() ([]*domain.Analyst, error) {
	query := `
		SELECT
			a.id,
			a.username,
			a.full_name,
			a.shift_type,
			a.region_id,
			a.skills,
			a.is_active,
			a.created_at,
			a.version,
			ab.id,
			ab.start_date,
			ab.end_date,
			ab.kind
		FROM analysts a
		LEFT JOIN analyst_absences ab ON ab.analyst_id = a.id AND ab.is_approved
		ORDER BY a.id, ab.start_date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analysts := make([]*domain.Analyst, 0)
	analystsMap := make(map[int64]*domain.Analyst)

	for rows.Next() {
		var row struct {
			analyst   domain.Analyst
			absenceID *int64
			start     *time.Time
			end       *time.Time
			kind      *string
		}

		dst := []any{
			&row.analyst.ID,
			&row.analyst.Username,
			&row.analyst.FullName,
			&row.analyst.ShiftType,
			&row.analyst.RegionID,
			r.typeMap.SQLScanner(&row.analyst.Skills),
			&row.analyst.IsActive,
			&row.analyst.CreatedAt,
			&row.analyst.Version,
			&row.absenceID,
			&row.start,
			&row.end,
			&row.kind,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		analyst, exists := analystsMap[row.analyst.ID]
		if !exists {
			a := row.analyst
			analyst = &a
			analystsMap[a.ID] = analyst
			analysts = append(analysts, analyst)
		}

		if row.absenceID == nil {
			// 没有请假记录
			continue
		}

		analyst.Absences = append(analyst.Absences, domain.AbsenceWindow{
			ID:         *row.absenceID,
			AnalystID:  analyst.ID,
			StartDate:  *row.start,
			EndDate:    *row.end,
			Kind:       domain.AbsenceKind(*row.kind),
			IsApproved: true,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return analysts, nil
}
