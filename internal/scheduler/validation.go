package scheduler

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

// validateCoverage 周末每个班次必须恰好一个非调休的人；任何一天某个班次没人则是人手不足。
// 禁排日不检查
func validateCoverage(proposals []*domain.ScheduleEntry, shifts []domain.ShiftType, start, end time.Time, blackouts map[time.Time]bool) []Conflict {
	type key struct {
		date  time.Time
		shift domain.ShiftType
	}
	counts := make(map[key]int)
	for _, e := range proposals {
		if e.IsCompOff {
			continue
		}
		counts[key{date: domain.DateOnly(e.Date), shift: e.ShiftType}]++
	}

	conflicts := []Conflict{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if blackouts[d] {
			continue
		}
		for _, shift := range shifts {
			n := counts[key{date: d, shift: shift}]
			if domain.IsWeekend(d) && n != 1 {
				conflicts = append(conflicts, Conflict{
					Date:      d,
					ShiftType: shift,
					Type:      ConflictWeekendCoverage,
					Severity:  SeverityCritical,
					Message:   fmt.Sprintf("%s %s 班次周末需要恰好 1 人，实际 %d 人", d.Format(time.DateOnly), shift, n),
				})
			}
			if n == 0 {
				conflicts = append(conflicts, Conflict{
					Date:      d,
					ShiftType: shift,
					Type:      ConflictInsufficientCoverage,
					Severity:  SeverityHigh,
					Message:   fmt.Sprintf("%s %s 班次没有任何人上班", d.Format(time.DateOnly), shift),
				})
			}
		}
	}
	return conflicts
}

// distributionScore 1 - 变异系数，截断到 [0,1]
func distributionScore(values []float64) float64 {
	if len(values) == 0 {
		return 1
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 1
	}

	variance := 0.0
	for _, v := range values {
		variance += math.Pow(v-mean, 2)
	}
	variance /= float64(len(values))

	return 1 - math.Min(1, math.Sqrt(variance)/mean)
}

func computeFairnessMetrics(proposals []*domain.ScheduleEntry, analysts []*domain.Analyst) FairnessMetrics {
	m := FairnessMetrics{
		WorkDays:     make(map[int64]int),
		ScreenerDays: make(map[int64]int),
		WeekendDays:  make(map[int64]int),
	}
	for _, a := range analysts {
		if a.IsActive {
			m.WorkDays[a.ID] = 0
			m.ScreenerDays[a.ID] = 0
			m.WeekendDays[a.ID] = 0
		}
	}
	for _, e := range proposals {
		if e.IsCompOff {
			continue
		}
		m.WorkDays[e.AnalystID]++
		if e.IsScreener {
			m.ScreenerDays[e.AnalystID]++
		}
		if domain.IsWeekend(e.Date) {
			m.WeekendDays[e.AnalystID]++
		}
	}

	values := func(counts map[int64]int) []float64 {
		out := make([]float64, 0, len(counts))
		for _, c := range counts {
			out = append(out, float64(c))
		}
		return out
	}
	m.WorkloadDistribution = distributionScore(values(m.WorkDays))
	m.ScreenerDistribution = distributionScore(values(m.ScreenerDays))
	m.WeekendDistribution = distributionScore(values(m.WeekendDays))
	m.Overall = (m.WorkloadDistribution + m.ScreenerDistribution + m.WeekendDistribution) / 3
	return m
}

// detectOverwrites 新排班覆盖了已持久化的同一 (analyst, date) 时记录前后差异；
// 范围内属于本次分析师、但新排班里没有的旧记录记为 Removed
func detectOverwrites(proposals []*domain.ScheduleEntry, existing []*domain.ScheduleEntry, scope domain.ScheduleScope) []Overwrite {
	type key struct {
		analystID int64
		date      time.Time
	}
	persisted := make(map[key]*domain.ScheduleEntry, len(existing))
	for _, e := range existing {
		persisted[key{analystID: e.AnalystID, date: domain.DateOnly(e.Date)}] = e
	}

	overwrites := []Overwrite{}
	proposed := make(map[key]bool, len(proposals))
	for _, p := range proposals {
		k := key{analystID: p.AnalystID, date: domain.DateOnly(p.Date)}
		proposed[k] = true
		old, exists := persisted[k]
		if !exists {
			continue
		}
		overwrites = append(overwrites, Overwrite{
			AnalystID:        p.AnalystID,
			Date:             k.date,
			BeforeShiftType:  old.ShiftType,
			AfterShiftType:   p.ShiftType,
			BeforeIsScreener: old.IsScreener,
			AfterIsScreener:  p.IsScreener,
		})
	}

	inScope := make(map[int64]bool, len(scope.AnalystIDs))
	for _, id := range scope.AnalystIDs {
		inScope[id] = true
	}
	for _, e := range existing {
		k := key{analystID: e.AnalystID, date: domain.DateOnly(e.Date)}
		if k.date.Before(scope.StartDate) || k.date.After(scope.EndDate) || !inScope[e.AnalystID] || proposed[k] {
			continue
		}
		overwrites = append(overwrites, Overwrite{
			AnalystID:        e.AnalystID,
			Date:             k.date,
			BeforeShiftType:  e.ShiftType,
			BeforeIsScreener: e.IsScreener,
			Removed:          true,
		})
	}

	return overwrites
}

// scopeOf 本次生成负责的日期范围和分析师（按区域过滤后的全部分析师，包括已离职的）
func scopeOf(start, end time.Time, analysts []*domain.Analyst) domain.ScheduleScope {
	ids := make([]int64, 0, len(analysts))
	for _, a := range analysts {
		ids = append(ids, a.ID)
	}
	slices.Sort(ids)
	return domain.ScheduleScope{
		StartDate:  start,
		EndDate:    end,
		AnalystIDs: ids,
	}
}

// buildContinuity 用本次生成的结果更新每个人的模式连续性记录，没有排班的人保留原记录
func buildContinuity(algorithm string, proposals []*domain.ScheduleEntry, previous []*domain.PatternContinuity, states map[domain.ShiftType]*domain.RotationState, shiftOf map[int64]domain.ShiftType) []*domain.PatternContinuity {
	byAnalyst := make(map[int64]*domain.PatternContinuity)
	for _, p := range previous {
		c := *p
		byAnalyst[p.AnalystID] = &c
	}

	screenerDays := make(map[int64]int)
	weekendDays := make(map[int64]int)
	for _, e := range proposals {
		if e.IsCompOff {
			continue
		}
		if e.IsScreener {
			screenerDays[e.AnalystID]++
		}
		if domain.IsWeekend(e.Date) {
			weekendDays[e.AnalystID]++
		}

		c, exists := byAnalyst[e.AnalystID]
		if !exists {
			c = &domain.PatternContinuity{AlgorithmType: algorithm, AnalystID: e.AnalystID}
			byAnalyst[e.AnalystID] = c
		}
		d := domain.DateOnly(e.Date)
		if !d.Before(c.LastWorkDate) {
			c.LastWorkDate = d
			c.LastPattern = e.Pattern
			c.WeekNumber = int32(domain.WeekNumber(d))
		}
	}

	out := make([]*domain.PatternContinuity, 0, len(byAnalyst))
	for id, c := range byAnalyst {
		c.AlgorithmType = algorithm
		metadata := map[string]any{}
		for k, v := range c.Metadata {
			metadata[k] = v
		}
		metadata["runScreenerDays"] = screenerDays[id]
		metadata["runWeekendDays"] = weekendDays[id]
		if st, exists := states[shiftOf[id]]; exists {
			metadata["cycleGeneration"] = st.CycleGeneration
		}
		c.Metadata = metadata
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *domain.PatternContinuity) int {
		return cmp.Compare(a.AnalystID, b.AnalystID)
	})
	return out
}
