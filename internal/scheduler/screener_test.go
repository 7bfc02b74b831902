package scheduler

import (
	"testing"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func workEntries(days []string, ids ...int64) []*domain.ScheduleEntry {
	var out []*domain.ScheduleEntry
	for _, d := range days {
		for _, id := range ids {
			out = append(out, &domain.ScheduleEntry{AnalystID: id, Date: date(d), ShiftType: domain.ShiftMorning, Pattern: domain.PatternMonFri})
		}
	}
	return out
}

func screenersByDay(entries []*domain.ScheduleEntry) map[string]int64 {
	out := map[string]int64{}
	for _, e := range entries {
		if e.IsScreener {
			out[e.Date.Format(time.DateOnly)] = e.AnalystID
		}
	}
	return out
}

func TestScreenerFairnessSpreadsAssignments(t *testing.T) {
	entries := workEntries([]string{"2025-01-06", "2025-01-07"}, 1, 2)
	newScreenerAssigner(ScreenerStrategyFairness, nil, nil, date("2025-01-06")).assign(entries)

	assert.Equal(t, map[string]int64{"2025-01-06": 1, "2025-01-07": 2}, screenersByDay(entries))
}

func TestScreenerHistoryCounts(t *testing.T) {
	history := []*domain.ScheduleEntry{{AnalystID: 1, Date: date("2025-01-05"), IsScreener: true}}
	entries := workEntries([]string{"2025-01-06"}, 1, 2)
	newScreenerAssigner(ScreenerStrategyFairness, nil, history, date("2025-01-06")).assign(entries)

	assert.Equal(t, map[string]int64{"2025-01-06": 2}, screenersByDay(entries))
}

func TestScreenerRoundRobin(t *testing.T) {
	entries := workEntries([]string{"2025-01-06", "2025-01-07", "2025-01-08"}, 2, 1)
	newScreenerAssigner(ScreenerStrategyRoundRobin, nil, nil, date("2025-01-06")).assign(entries)

	assert.Equal(t, map[string]int64{"2025-01-06": 1, "2025-01-07": 2, "2025-01-08": 1}, screenersByDay(entries))
}

func TestScreenerConstraints(t *testing.T) {
	one, two := int64(1), int64(2)
	day := date("2025-01-06")

	t.Run("不能做筛查的人不会被选中", func(t *testing.T) {
		entries := workEntries([]string{"2025-01-06"}, 1, 2)
		constraints := []*domain.Constraint{{AnalystID: &one, Type: domain.ConstraintUnavailableScreener, StartDate: day, EndDate: day, IsActive: true}}
		newScreenerAssigner(ScreenerStrategyFairness, constraints, nil, day).assign(entries)

		assert.Equal(t, map[string]int64{"2025-01-06": 2}, screenersByDay(entries))
	})

	t.Run("偏好做筛查的人优先", func(t *testing.T) {
		entries := workEntries([]string{"2025-01-06"}, 1, 2)
		constraints := []*domain.Constraint{{AnalystID: &two, Type: domain.ConstraintPreferredScreener, StartDate: day, EndDate: day, IsActive: true}}
		newScreenerAssigner(ScreenerStrategyFairness, constraints, nil, day).assign(entries)

		assert.Equal(t, map[string]int64{"2025-01-06": 2}, screenersByDay(entries))
	})

	t.Run("达到上限后不再安排", func(t *testing.T) {
		limit := int32(1)
		entries := workEntries([]string{"2025-01-06", "2025-01-07"}, 1)
		constraints := []*domain.Constraint{{AnalystID: &one, Type: domain.ConstraintScreenerMax, StartDate: day, EndDate: date("2025-01-12"), Value: &limit, IsActive: true}}
		newScreenerAssigner(ScreenerStrategyFairness, constraints, nil, day).assign(entries)

		assert.Equal(t, map[string]int64{"2025-01-06": 1}, screenersByDay(entries))
	})

	t.Run("周末和调休不安排筛查", func(t *testing.T) {
		entries := []*domain.ScheduleEntry{
			{AnalystID: 1, Date: date("2025-01-11"), ShiftType: domain.ShiftMorning, Pattern: domain.PatternTueSat},
			{AnalystID: 2, Date: date("2025-01-10"), ShiftType: domain.ShiftMorning, Pattern: domain.PatternSunThu, IsCompOff: true},
		}
		newScreenerAssigner(ScreenerStrategyFairness, nil, nil, day).assign(entries)

		assert.Empty(t, screenersByDay(entries))
	})
}
