package scheduler

import (
	"cmp"
	"slices"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

const (
	screenerRecentWindowDays = 7
	screenerRecentWeight     = 10.0
	screenerSoftCapPenalty   = 100.0 // 最近 7 天已经筛查 2 次及以上
	screenerYesterdayPenalty = 50.0
	screenerLifetimeWeight   = 1.0
	screenerPreferredBonus   = 20.0
	screenerBelowMinBonus    = 30.0
)

type screenerAssigner struct {
	strategy    string
	constraints []*domain.Constraint
	dates       map[int64][]time.Time // 每个人做过筛查的日期，升序
	cursor      map[domain.ShiftType]int
}

func newScreenerAssigner(strategy string, constraints []*domain.Constraint, history []*domain.ScheduleEntry, before time.Time) *screenerAssigner {
	a := &screenerAssigner{
		strategy:    strategy,
		constraints: constraints,
		dates:       make(map[int64][]time.Time),
		cursor:      make(map[domain.ShiftType]int),
	}
	for _, e := range history {
		d := domain.DateOnly(e.Date)
		if e.IsScreener && d.Before(before) {
			a.dates[e.AnalystID] = append(a.dates[e.AnalystID], d)
		}
	}
	for id := range a.dates {
		slices.SortFunc(a.dates[id], func(x, y time.Time) int { return x.Compare(y) })
	}
	return a
}

func (a *screenerAssigner) countBetween(analystID int64, from, to time.Time) int {
	n := 0
	for _, d := range a.dates[analystID] {
		if !d.Before(from) && !d.After(to) {
			n++
		}
	}
	return n
}

// assign 只在工作日，从当天实际上班（非调休）的人里每个班次选一名筛查员
func (a *screenerAssigner) assign(proposals []*domain.ScheduleEntry) {
	type key struct {
		date  time.Time
		shift domain.ShiftType
	}
	groups := make(map[key][]*domain.ScheduleEntry)
	var keys []key
	for _, e := range proposals {
		if e.IsCompOff || domain.IsWeekend(e.Date) {
			continue
		}
		k := key{date: domain.DateOnly(e.Date), shift: e.ShiftType}
		if _, exists := groups[k]; !exists {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], e)
	}
	slices.SortFunc(keys, func(x, y key) int {
		if c := x.date.Compare(y.date); c != 0 {
			return c
		}
		return cmp.Compare(x.shift, y.shift)
	})

	for _, k := range keys {
		entries := groups[k]
		for _, e := range entries {
			e.IsScreener = false
		}

		eligible := slices.DeleteFunc(slices.Clone(entries), func(e *domain.ScheduleEntry) bool {
			return !a.eligible(e.AnalystID, k.date)
		})
		if len(eligible) == 0 {
			continue
		}

		var chosen *domain.ScheduleEntry
		if a.strategy == ScreenerStrategyRoundRobin {
			chosen = a.roundRobin(k.shift, eligible)
		} else {
			chosen = a.best(eligible, k.date)
		}
		chosen.IsScreener = true
		a.dates[chosen.AnalystID] = append(a.dates[chosen.AnalystID], k.date)
	}
}

func (a *screenerAssigner) eligible(analystID int64, date time.Time) bool {
	for _, c := range a.constraints {
		if !c.IsActive || c.AnalystID == nil || *c.AnalystID != analystID || !c.Covers(date) {
			continue
		}
		switch c.Type {
		case domain.ConstraintUnavailableScreener:
			return false
		case domain.ConstraintScreenerMax:
			if c.Value != nil && a.countBetween(analystID, domain.DateOnly(c.StartDate), domain.DateOnly(c.EndDate)) >= int(*c.Value) {
				return false
			}
		}
	}
	return true
}

func (a *screenerAssigner) score(analystID int64, date time.Time) float64 {
	recent := a.countBetween(analystID, date.AddDate(0, 0, -screenerRecentWindowDays), date.AddDate(0, 0, -1))
	s := -screenerRecentWeight * float64(recent)
	if recent >= 2 {
		s -= screenerSoftCapPenalty
	}
	if a.countBetween(analystID, date.AddDate(0, 0, -1), date.AddDate(0, 0, -1)) > 0 {
		s -= screenerYesterdayPenalty
	}
	s -= screenerLifetimeWeight * float64(len(a.dates[analystID]))

	for _, c := range a.constraints {
		if !c.IsActive || c.AnalystID == nil || *c.AnalystID != analystID || !c.Covers(date) {
			continue
		}
		switch c.Type {
		case domain.ConstraintPreferredScreener:
			s += screenerPreferredBonus
		case domain.ConstraintScreenerMin:
			if c.Value != nil && a.countBetween(analystID, domain.DateOnly(c.StartDate), domain.DateOnly(c.EndDate)) < int(*c.Value) {
				s += screenerBelowMinBonus
			}
		}
	}
	return s
}

func (a *screenerAssigner) best(entries []*domain.ScheduleEntry, date time.Time) *domain.ScheduleEntry {
	var best *domain.ScheduleEntry
	bestScore := 0.0
	for _, e := range entries {
		s := a.score(e.AnalystID, date)
		if best == nil || s > bestScore || (s == bestScore && e.AnalystID < best.AnalystID) {
			best = e
			bestScore = s
		}
	}
	return best
}

func (a *screenerAssigner) roundRobin(shift domain.ShiftType, entries []*domain.ScheduleEntry) *domain.ScheduleEntry {
	slices.SortFunc(entries, func(x, y *domain.ScheduleEntry) int { return cmp.Compare(x.AnalystID, y.AnalystID) })
	i := a.cursor[shift] % len(entries)
	a.cursor[shift]++
	return entries[i]
}
