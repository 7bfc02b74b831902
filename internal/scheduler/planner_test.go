package scheduler

import (
	"testing"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanner(excludePreviousTueSat bool) *RotationPlanner {
	return NewRotationPlanner(NewFairnessScorer(DefaultWeights(), testLogger()), excludePreviousTueSat, testLogger())
}

// weeklyPicks 按周返回 SUN_THU 和 TUE_SAT 的人选，0 表示无人
func weeklyPicks(t *testing.T, res *PlanResult, first time.Time) (sunThu, tueSat []int64) {
	t.Helper()
	for _, p := range res.Plans {
		w := domain.WeeksBetween(first, p.WeekStart)
		for len(sunThu) <= w {
			sunThu = append(sunThu, 0)
			tueSat = append(tueSat, 0)
		}
		if p.AnalystID == nil {
			continue
		}
		switch p.Pattern {
		case domain.PatternSunThu:
			sunThu[w] = *p.AnalystID
		case domain.PatternTueSat:
			tueSat[w] = *p.AnalystID
		}
	}
	return sunThu, tueSat
}

func TestPlanPipelinesSunThuIntoTueSat(t *testing.T) {
	p := newTestPlanner(false)
	first := date("2025-01-05")

	res := p.Plan(PlanInput{
		ShiftType: domain.ShiftMorning,
		Analysts:  morningTrio(),
		StartDate: first,
		EndDate:   date("2025-03-08"),
	})
	assert.Empty(t, res.Warnings)

	sunThu, tueSat := weeklyPicks(t, res, first)
	require.Len(t, sunThu, 9)
	assert.Equal(t, []int64{1, 2, 3, 1, 2, 3, 1, 2, 3}, sunThu)
	assert.Zero(t, tueSat[0])
	for w := 1; w < len(sunThu); w++ {
		assert.Equal(t, sunThu[w-1], tueSat[w])
	}

	// 回看窗口内同一个人不会再次进入 SUN_THU
	lastStart := map[int64]int{}
	for w, id := range sunThu {
		if last, exists := lastStart[id]; exists {
			assert.GreaterOrEqual(t, w-last, 3)
		}
		lastStart[id] = w
	}

	// 每人每周恰好一条计划
	perWeek := map[time.Time]map[int64]int{}
	for _, plan := range res.Plans {
		if plan.AnalystID == nil {
			continue
		}
		if perWeek[plan.WeekStart] == nil {
			perWeek[plan.WeekStart] = map[int64]int{}
		}
		perWeek[plan.WeekStart][*plan.AnalystID]++
	}
	for _, counts := range perWeek {
		assert.Equal(t, map[int64]int{1: 1, 2: 1, 3: 1}, counts)
	}
}

func TestPlanShrinksLookbackWhenPoolIsTooSmall(t *testing.T) {
	p := newTestPlanner(false)
	first := date("2025-01-05")

	analysts := morningTrio()
	// 第三周的周日请假，不能进入轮换
	analysts[2].Absences = []domain.AbsenceWindow{{StartDate: date("2025-01-19"), EndDate: date("2025-01-19"), IsApproved: true}}

	res := p.Plan(PlanInput{
		ShiftType: domain.ShiftMorning,
		Analysts:  analysts,
		StartDate: first,
		EndDate:   date("2025-01-25"),
	})
	assert.Empty(t, res.Warnings)

	sunThu, tueSat := weeklyPicks(t, res, first)
	assert.Equal(t, []int64{1, 2, 1}, sunThu)
	assert.Equal(t, []int64{0, 1, 2}, tueSat)
}

func TestPlanSingleAnalyst(t *testing.T) {
	p := newTestPlanner(false)
	first := date("2025-01-05")

	res := p.Plan(PlanInput{
		ShiftType: domain.ShiftEvening,
		Analysts:  []*domain.Analyst{newAnalyst(7, domain.ShiftEvening)},
		StartDate: first,
		EndDate:   date("2025-01-25"),
	})
	assert.Len(t, res.Warnings, 1)

	sunThu, tueSat := weeklyPicks(t, res, first)
	assert.Equal(t, []int64{7, 0, 7}, sunThu)
	assert.Equal(t, []int64{0, 7, 0}, tueSat)
}

func TestPlanUsesHistory(t *testing.T) {
	p := newTestPlanner(false)
	first := date("2025-01-05")

	var history []*domain.ScheduleEntry
	for d := date("2024-12-29"); d.Before(date("2025-01-03")); d = d.AddDate(0, 0, 1) {
		history = append(history, &domain.ScheduleEntry{AnalystID: 2, Date: d, ShiftType: domain.ShiftMorning, Pattern: domain.PatternSunThu})
	}

	res := p.Plan(PlanInput{
		ShiftType: domain.ShiftMorning,
		Analysts:  morningTrio(),
		StartDate: first,
		EndDate:   date("2025-01-11"),
		History:   history,
	})

	sunThu, tueSat := weeklyPicks(t, res, first)
	assert.Equal(t, []int64{1}, sunThu)
	assert.Equal(t, []int64{2}, tueSat)
}

func TestPlanExcludesPreviousTueSat(t *testing.T) {
	p := newTestPlanner(true)
	first := date("2025-01-05")

	res := p.Plan(PlanInput{
		ShiftType: domain.ShiftMorning,
		Analysts:  []*domain.Analyst{newAnalyst(1, domain.ShiftMorning), newAnalyst(2, domain.ShiftMorning)},
		StartDate: first,
		EndDate:   date("2025-01-25"),
	})

	sunThu, _ := weeklyPicks(t, res, first)
	assert.Equal(t, []int64{1, 2, 0}, sunThu)
	assert.Len(t, res.Warnings, 1)
}

func TestPlanWithoutAnalysts(t *testing.T) {
	res := newTestPlanner(false).Plan(PlanInput{
		ShiftType: domain.ShiftEvening,
		Analysts:  morningTrio(),
		StartDate: date("2025-01-05"),
		EndDate:   date("2025-01-11"),
	})
	assert.Empty(t, res.Plans)
	assert.Len(t, res.Warnings, 1)
}

func TestFindPlan(t *testing.T) {
	id := int64(1)
	plans := []domain.RotationPlan{
		{AnalystID: nil, Pattern: domain.PatternTueSat, WeekStart: date("2025-01-05"), WeekEnd: date("2025-01-11")},
		{AnalystID: &id, Pattern: domain.PatternSunThu, WeekStart: date("2025-01-05"), WeekEnd: date("2025-01-11")},
	}

	plan, ok := FindPlan(plans, 1, date("2025-01-08"))
	require.True(t, ok)
	assert.Equal(t, domain.PatternSunThu, plan.Pattern)

	_, ok = FindPlan(plans, 1, date("2025-01-12"))
	assert.False(t, ok)
}
