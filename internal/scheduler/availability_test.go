package scheduler

import (
	"testing"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFilterAvailability(t *testing.T) {
	day := date("2025-01-06")
	onLeave := newAnalyst(1, domain.ShiftMorning)
	onLeave.Absences = []domain.AbsenceWindow{{StartDate: date("2025-01-05"), EndDate: date("2025-01-07"), IsApproved: true}}
	pending := newAnalyst(2, domain.ShiftMorning)
	pending.Absences = []domain.AbsenceWindow{{StartDate: day, EndDate: day}}
	inactive := newAnalyst(3, domain.ShiftEvening)
	inactive.IsActive = false
	available := newAnalyst(4, domain.ShiftEvening)

	analysts := []*domain.Analyst{onLeave, pending, inactive, available}

	t.Run("请假和离职的人不可用", func(t *testing.T) {
		av := FilterAvailability(day, analysts, nil)
		assert.False(t, av.IsBlackout)
		assert.False(t, av.IsHoliday)
		assert.False(t, av.Contains(1))
		assert.True(t, av.Contains(2))
		assert.False(t, av.Contains(3))
		assert.True(t, av.Contains(4))
	})

	t.Run("节假日不影响可用性", func(t *testing.T) {
		av := FilterAvailability(day, analysts, []*domain.Constraint{{
			Type: domain.ConstraintHoliday, StartDate: day, EndDate: day, IsActive: true, Description: "元旦调休",
		}})
		assert.True(t, av.IsHoliday)
		assert.Len(t, av.AvailableAnalysts, 2)
		assert.NotEmpty(t, av.Info)
	})

	t.Run("禁排日没有人可用", func(t *testing.T) {
		av := FilterAvailability(day, analysts, []*domain.Constraint{{
			Type: domain.ConstraintBlackoutDate, StartDate: date("2025-01-01"), EndDate: date("2025-01-10"), IsActive: true,
		}})
		assert.True(t, av.IsBlackout)
		assert.Empty(t, av.AvailableAnalysts)
	})

	t.Run("未启用或针对个人的禁排约束不生效", func(t *testing.T) {
		id := int64(4)
		av := FilterAvailability(day, analysts, []*domain.Constraint{
			{Type: domain.ConstraintBlackoutDate, StartDate: day, EndDate: day},
			{Type: domain.ConstraintBlackoutDate, StartDate: day, EndDate: day, IsActive: true, AnalystID: &id},
		})
		assert.False(t, av.IsBlackout)
		assert.True(t, av.Contains(4))
	})
}
