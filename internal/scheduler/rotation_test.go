package scheduler

import (
	"testing"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRotationManager() *RotationManager {
	return NewRotationManager(NewFairnessScorer(DefaultWeights(), testLogger()), testLogger())
}

func TestRotationSync(t *testing.T) {
	m := newTestRotationManager()
	state := domain.NewRotationState(testAlgorithm, domain.ShiftMorning)
	state.Week1Slot = &domain.RotationSlot{AnalystID: 9, CycleStart: date("2025-01-05")}
	state.AvailablePool = []int64{1, 1, 4}
	state.CompletedPool = []int64{2}

	left := newAnalyst(9, domain.ShiftMorning)
	left.IsActive = false
	analysts := []*domain.Analyst{
		newAnalyst(1, domain.ShiftMorning),
		newAnalyst(2, domain.ShiftMorning),
		newAnalyst(3, domain.ShiftMorning),
		newAnalyst(4, domain.ShiftEvening),
		left,
	}

	warnings := m.Sync(state, analysts)
	assert.Len(t, warnings, 1)
	assert.Nil(t, state.Week1Slot)
	assert.Equal(t, []int64{1, 3}, state.AvailablePool)
	assert.Equal(t, []int64{2}, state.CompletedPool)
}

func TestRotationAdvance(t *testing.T) {
	m := newTestRotationManager()

	t.Run("同一周重复推进是幂等的", func(t *testing.T) {
		state := domain.NewRotationState(testAlgorithm, domain.ShiftMorning)
		state.AvailablePool = []int64{1, 2}

		tr := m.Advance(state, date("2025-01-05"), nil, nil)
		require.NotNil(t, tr.Drawn)
		assert.Equal(t, int64(1), *tr.Drawn)
		require.NotNil(t, tr.Seeded)
		assert.Equal(t, int64(2), *tr.Seeded)
		require.NotNil(t, state.LastAdvancedWeek)
		assert.Equal(t, "2025-01-05", state.LastAdvancedWeek.Format("2006-01-02"))

		tr = m.Advance(state, date("2025-01-08"), nil, nil)
		assert.Nil(t, tr.Drawn)
		assert.Nil(t, tr.Seeded)
		assert.Nil(t, tr.Promoted)
		assert.Nil(t, tr.Completed)
		assert.Equal(t, int64(1), state.Week1Slot.AnalystID)
		assert.Equal(t, int64(2), state.Week2Slot.AnalystID)
		assert.Empty(t, state.AvailablePool)
	})

	t.Run("冷启动时第二周槽位直接有人", func(t *testing.T) {
		state := domain.NewRotationState(testAlgorithm, domain.ShiftMorning)
		state.AvailablePool = []int64{1, 2, 3}

		m.Advance(state, date("2025-01-05"), nil, nil)
		require.NotNil(t, state.Week2Slot)
		assert.Equal(t, "2024-12-29", state.Week2Slot.CycleStart.Format("2006-01-02"))
		assert.Equal(t, []int64{3}, state.AvailablePool)

		// 下一周第二周槽位的人完成，第一周槽位的人晋升
		tr := m.Advance(state, date("2025-01-12"), nil, nil)
		require.NotNil(t, tr.Completed)
		assert.Equal(t, int64(2), *tr.Completed)
		assert.Nil(t, tr.Seeded)
		assert.Equal(t, int64(1), state.Week2Slot.AnalystID)
		assert.Equal(t, int64(3), state.Week1Slot.AnalystID)
	})

	t.Run("不能回到已经推进过的周", func(t *testing.T) {
		state := domain.NewRotationState(testAlgorithm, domain.ShiftMorning)
		state.AvailablePool = []int64{1, 2, 3}

		m.Advance(state, date("2025-01-05"), nil, nil)
		m.Advance(state, date("2025-01-12"), nil, nil)
		before := state.Clone()

		tr := m.Advance(state, date("2025-01-05"), nil, nil)
		assert.True(t, tr.Stale)
		assert.Len(t, tr.Warnings, 1)
		assert.Nil(t, tr.Drawn)
		assert.Nil(t, tr.Completed)
		assert.Equal(t, before, state)
	})

	t.Run("空档周之后第二周槽位只停留一周", func(t *testing.T) {
		state := domain.NewRotationState(testAlgorithm, domain.ShiftMorning)
		state.Week1Slot = &domain.RotationSlot{AnalystID: 1, CycleStart: date("2025-01-05")}
		state.AvailablePool = []int64{2, 3}

		tr := m.Advance(state, date("2025-01-26"), nil, nil)
		require.NotNil(t, tr.Promoted)
		assert.Equal(t, "2025-01-19", state.Week2Slot.CycleStart.Format("2006-01-02"))
		assert.Equal(t, int64(2), state.Week1Slot.AnalystID)

		tr = m.Advance(state, date("2025-02-02"), nil, nil)
		require.NotNil(t, tr.Completed)
		assert.Equal(t, int64(1), *tr.Completed)
		assert.Equal(t, []int64{1}, state.CompletedPool)
		assert.Equal(t, int64(2), state.Week2Slot.AnalystID)
		assert.Equal(t, int64(3), state.Week1Slot.AnalystID)
	})

	t.Run("池子耗尽时重置", func(t *testing.T) {
		state := domain.NewRotationState(testAlgorithm, domain.ShiftMorning)
		state.CompletedPool = []int64{1, 2}

		tr := m.Advance(state, date("2025-01-05"), nil, nil)
		assert.True(t, tr.CycleReset)
		assert.Equal(t, int32(1), state.CycleGeneration)
		assert.Empty(t, state.CompletedPool)
		assert.Equal(t, int64(1), state.Week1Slot.AnalystID)
		assert.Equal(t, int64(2), state.Week2Slot.AnalystID)
		assert.Empty(t, state.AvailablePool)
	})

	t.Run("不满足条件的人不会被选中", func(t *testing.T) {
		state := domain.NewRotationState(testAlgorithm, domain.ShiftMorning)
		state.AvailablePool = []int64{1, 2}

		tr := m.Advance(state, date("2025-01-05"), nil, func(id int64) bool { return id != 1 })
		require.NotNil(t, tr.Drawn)
		assert.Equal(t, int64(2), *tr.Drawn)
		assert.Nil(t, tr.Seeded)
		assert.Nil(t, state.Week2Slot)
		assert.Equal(t, []int64{1}, state.AvailablePool)
	})

	t.Run("没有候选人时给出警告", func(t *testing.T) {
		state := domain.NewRotationState(testAlgorithm, domain.ShiftEvening)

		tr := m.Advance(state, date("2025-01-05"), nil, nil)
		assert.Nil(t, tr.Drawn)
		assert.Nil(t, state.Week1Slot)
		assert.Len(t, tr.Warnings, 1)
	})
}

func TestPatternDays(t *testing.T) {
	assert.True(t, WorksOn(domain.PatternSunThu, date("2025-01-05").Weekday()))
	assert.False(t, WorksOn(domain.PatternSunThu, date("2025-01-10").Weekday()))
	assert.True(t, WorksOn(domain.PatternTueSat, date("2025-01-11").Weekday()))
	assert.False(t, WorksOn(domain.PatternMonFri, date("2025-01-11").Weekday()))

	off, ok := CompOffDay(domain.PatternSunThu)
	assert.True(t, ok)
	assert.Equal(t, date("2025-01-10").Weekday(), off)

	off, ok = CompOffDay(domain.PatternTueSat)
	assert.True(t, ok)
	assert.Equal(t, date("2025-01-06").Weekday(), off)

	_, ok = CompOffDay(domain.PatternMonFri)
	assert.False(t, ok)
}
