package scheduler

import (
	"fmt"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

type Availability struct {
	Date              time.Time
	AvailableAnalysts []*domain.Analyst
	IsHoliday         bool
	IsBlackout        bool
	Info              []string
}

// Contains 判断某个分析师当天是否可用
func (a *Availability) Contains(analystID int64) bool {
	for _, analyst := range a.AvailableAnalysts {
		if analyst.ID == analystID {
			return true
		}
	}
	return false
}

// FilterAvailability 纯函数，不修改任何输入
func FilterAvailability(date time.Time, analysts []*domain.Analyst, constraints []*domain.Constraint) *Availability {
	d := domain.DateOnly(date)
	res := &Availability{
		Date:              d,
		AvailableAnalysts: []*domain.Analyst{},
		Info:              []string{},
	}

	for _, c := range constraints {
		if !c.IsActive || c.AnalystID != nil || !c.Covers(d) {
			continue
		}
		switch c.Type {
		case domain.ConstraintBlackoutDate:
			res.IsBlackout = true
			res.Info = append(res.Info, fmt.Sprintf("禁排日: %s", c.Description))
		case domain.ConstraintHoliday:
			res.IsHoliday = true
			res.Info = append(res.Info, fmt.Sprintf("节假日: %s", c.Description))
		}
	}

	// 禁排日当天不安排任何人
	if res.IsBlackout {
		return res
	}

	for _, analyst := range analysts {
		if !analyst.IsActive {
			continue
		}
		if onLeave(analyst, d) {
			res.Info = append(res.Info, fmt.Sprintf("分析师 %d 当天请假", analyst.ID))
			continue
		}
		res.AvailableAnalysts = append(res.AvailableAnalysts, analyst)
	}

	return res
}

func onLeave(analyst *domain.Analyst, date time.Time) bool {
	for _, absence := range analyst.Absences {
		if !absence.IsApproved {
			continue
		}
		if !date.Before(domain.DateOnly(absence.StartDate)) && !date.After(domain.DateOnly(absence.EndDate)) {
			return true
		}
	}
	return false
}
