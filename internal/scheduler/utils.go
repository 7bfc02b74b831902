package scheduler

import (
	"slices"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

// filterByRegion regionID 为空时不过滤
func filterByRegion(analysts []*domain.Analyst, regionID *int64) []*domain.Analyst {
	if regionID == nil {
		return analysts
	}
	out := make([]*domain.Analyst, 0, len(analysts))
	for _, a := range analysts {
		if a.RegionID != nil && *a.RegionID == *regionID {
			out = append(out, a)
		}
	}
	return out
}

// activeShifts 至少有一名在职分析师的班次
func activeShifts(analysts []*domain.Analyst) []domain.ShiftType {
	var shifts []domain.ShiftType
	for _, shift := range domain.ShiftTypes {
		if slices.ContainsFunc(analysts, func(a *domain.Analyst) bool { return a.IsActive && a.ShiftType == shift }) {
			shifts = append(shifts, shift)
		}
	}
	return shifts
}

func analystsOf(analysts []*domain.Analyst, shift domain.ShiftType) []*domain.Analyst {
	var out []*domain.Analyst
	for _, a := range analysts {
		if a.ShiftType == shift {
			out = append(out, a)
		}
	}
	return out
}

// continuityHistory 把持久化的模式连续性记录转成模拟的历史记录，
// 让上一次生成的轮换时间参与本次的公平性打分。已有真实排班的日期不再重复添加
func continuityHistory(continuity []*domain.PatternContinuity, existing []*domain.ScheduleEntry, shiftOf map[int64]domain.ShiftType, before time.Time) []*domain.ScheduleEntry {
	type key struct {
		analystID int64
		date      time.Time
	}
	seen := make(map[key]bool, len(existing))
	for _, e := range existing {
		seen[key{analystID: e.AnalystID, date: domain.DateOnly(e.Date)}] = true
	}

	var out []*domain.ScheduleEntry
	for _, c := range continuity {
		d := domain.DateOnly(c.LastWorkDate)
		if c.LastWorkDate.IsZero() || !d.Before(before) || seen[key{analystID: c.AnalystID, date: d}] {
			continue
		}
		if c.LastPattern != domain.PatternSunThu && c.LastPattern != domain.PatternTueSat {
			continue
		}
		out = append(out, &domain.ScheduleEntry{
			AnalystID: c.AnalystID,
			Date:      d,
			ShiftType: shiftOf[c.AnalystID],
			Pattern:   c.LastPattern,
		})
	}
	return out
}
