package scheduler

import (
	"testing"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFairnessScores(t *testing.T) {
	scorer := NewFairnessScorer(DefaultWeights(), testLogger())

	t.Run("没有历史记录", func(t *testing.T) {
		scores := scorer.CalculateFairnessScores([]int64{1}, nil, date("2025-01-06"))
		require.Contains(t, scores, int64(1))
		assert.InDelta(t, 80, scores[1].Total, 1e-9)
		assert.True(t, scores[1].LastRotation.IsZero())
		assert.False(t, scores[1].RecentlyRotated)
	})

	t.Run("近期轮换过的人被惩罚", func(t *testing.T) {
		records := []*domain.ScheduleEntry{
			{AnalystID: 1, Date: date("2025-01-02"), ShiftType: domain.ShiftMorning, Pattern: domain.PatternSunThu},
		}
		scores := scorer.CalculateFairnessScores([]int64{1, 2}, records, date("2025-01-06"))
		assert.True(t, scores[1].RecentlyRotated)
		assert.Equal(t, 4, scores[1].DaysSinceRotation)
		assert.InDelta(t, 50+4-1000, scores[1].Total, 1e-9)
		assert.Greater(t, scores[2].Total, scores[1].Total)
	})

	t.Run("周六上班的人周日得到连续性加分", func(t *testing.T) {
		records := []*domain.ScheduleEntry{
			{AnalystID: 1, Date: date("2025-01-11"), ShiftType: domain.ShiftMorning, Pattern: domain.PatternMonFri},
		}
		scores := scorer.CalculateFairnessScores([]int64{1, 2}, records, date("2025-01-12"))
		assert.Equal(t, 1, scores[1].SaturdayDays)
		assert.InDelta(t, 25+30+5+1000, scores[1].Total, 1e-9)
		assert.InDelta(t, 80, scores[2].Total, 1e-9)
	})

	t.Run("只统计截止日期之前的非调休记录", func(t *testing.T) {
		records := []*domain.ScheduleEntry{
			{AnalystID: 1, Date: date("2025-01-04"), Pattern: domain.PatternTueSat, IsCompOff: true},
			{AnalystID: 1, Date: date("2025-01-11"), Pattern: domain.PatternTueSat},
		}
		scores := scorer.CalculateFairnessScores([]int64{1}, records, date("2025-01-06"))
		assert.Zero(t, scores[1].WeekendDays)
		assert.True(t, scores[1].LastRotation.IsZero())
	})
}

func TestRankCandidates(t *testing.T) {
	scores := map[int64]*Score{
		1: {AnalystID: 1, Total: 5},
		2: {AnalystID: 2, Total: 5},
		3: {AnalystID: 3, Total: 0},
		4: {AnalystID: 4, Total: 10, LastRotation: date("2025-01-01")},
	}
	pool := []int64{4, 3, 2, 1, 5}

	var order []int64
	for _, c := range RankCandidates(pool, scores) {
		order = append(order, c.AnalystID)
	}
	// 从未轮换优先，其次得分高的优先，最后按 ID
	assert.Equal(t, []int64{1, 2, 3, 5, 4}, order)
	assert.Equal(t, []int64{4, 3, 2, 1, 5}, pool)
}

func TestSelectNext(t *testing.T) {
	scores := map[int64]*Score{
		1: {AnalystID: 1, Total: 5},
		2: {AnalystID: 2, Total: 1},
	}

	id, ok := SelectNext([]int64{1, 2}, scores, map[int64]bool{1: true})
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)

	_, ok = SelectNext([]int64{1}, scores, map[int64]bool{1: true})
	assert.False(t, ok)

	_, ok = SelectNext(nil, scores, nil)
	assert.False(t, ok)
}
