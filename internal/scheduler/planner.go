package scheduler

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

// RotationPlanner 预先算出整段时间里每个人每周的模式，而不是按周推进状态。
// 上周的 SUN_THU 直接流水线到本周的 TUE_SAT；SUN_THU 的人选在回看窗口之外按公平性挑选
type RotationPlanner struct {
	scorer                *FairnessScorer
	excludePreviousTueSat bool
	logger                *slog.Logger
}

func NewRotationPlanner(scorer *FairnessScorer, excludePreviousTueSat bool, logger *slog.Logger) *RotationPlanner {
	return &RotationPlanner{
		scorer:                scorer,
		excludePreviousTueSat: excludePreviousTueSat,
		logger:                logger,
	}
}

type PlanInput struct {
	ShiftType domain.ShiftType
	Analysts  []*domain.Analyst
	StartDate time.Time
	EndDate   time.Time
	History   []*domain.ScheduleEntry
}

type PlanResult struct {
	ShiftType domain.ShiftType      `json:"shiftType"`
	Plans     []domain.RotationPlan `json:"plans"`
	Warnings  []string              `json:"warnings"`
}

// Plan 为一个班次生成日历，每人每周恰好一条记录
func (p *RotationPlanner) Plan(in PlanInput) *PlanResult {
	res := &PlanResult{
		ShiftType: in.ShiftType,
		Plans:     []domain.RotationPlan{},
		Warnings:  []string{},
	}

	byID := make(map[int64]*domain.Analyst)
	var pool []int64
	for _, a := range in.Analysts {
		if a.IsActive && a.ShiftType == in.ShiftType {
			byID[a.ID] = a
			pool = append(pool, a.ID)
		}
	}
	slices.Sort(pool)
	if len(pool) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s 没有在职的分析师", in.ShiftType))
		return res
	}

	firstWeek := domain.WeekStart(in.StartDate)
	lastWeek := domain.WeekStart(in.EndDate)
	lookback := max(1, len(pool))

	// 用历史记录初始化：每个人最近一次进入 SUN_THU 的周，以及上一周的 SUN_THU / TUE_SAT
	lastStart := make(map[int64]int)
	var prevSunThu, prevTueSat *int64
	for _, r := range in.History {
		if r.IsCompOff || !r.IsRotation() || byID[r.AnalystID] == nil {
			continue
		}
		ws := domain.WeekStart(r.Date)
		if !ws.Before(firstWeek) {
			continue
		}
		idx := -domain.WeeksBetween(ws, firstWeek)
		id := r.AnalystID
		if r.Pattern == domain.PatternSunThu {
			if prev, exists := lastStart[id]; !exists || idx > prev {
				lastStart[id] = idx
			}
			if idx == -1 {
				prevSunThu = &id
			}
		}
		if r.Pattern == domain.PatternTueSat && idx == -1 {
			prevTueSat = &id
		}
	}

	simulated := slices.Clone(in.History)

	for w, ws := 0, firstWeek; !ws.After(lastWeek); w, ws = w+1, ws.AddDate(0, 0, 7) {
		we := ws.AddDate(0, 0, 6)

		var tueSat *int64
		if prevSunThu != nil && byID[*prevSunThu] != nil {
			id := *prevSunThu
			tueSat = &id
		}

		exclude := make(map[int64]bool)
		if tueSat != nil {
			exclude[*tueSat] = true
		}
		if p.excludePreviousTueSat && prevTueSat != nil {
			exclude[*prevTueSat] = true
		}

		// 回看窗口放不下时逐步缩小，而不是强行排除到没人可选
		var candidates []int64
		window := lookback
		for ; window >= 0; window-- {
			candidates = candidates[:0]
			for _, id := range pool {
				if exclude[id] || !coversRotationWeekends(byID[id], ws) {
					continue
				}
				if last, exists := lastStart[id]; exists && window > 0 && w-last < window {
					continue
				}
				candidates = append(candidates, id)
			}
			if len(candidates) > 0 {
				break
			}
		}
		if window < lookback && len(candidates) > 0 {
			p.logger.Debug("回看窗口已缩小",
				"shiftType", in.ShiftType,
				"weekStart", ws.Format(time.DateOnly),
				"lookback", lookback,
				"window", window,
			)
		}

		var sunThu *int64
		scores := p.scorer.CalculateFairnessScores(candidates, simulated, ws)
		if id, ok := SelectNext(candidates, scores, nil); ok {
			sunThu = &id
			lastStart[id] = w
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s 在 %s 这一周没有可以进入 SUN_THU 的候选人", in.ShiftType, ws.Format(time.DateOnly)))
		}

		res.Plans = append(res.Plans,
			domain.RotationPlan{AnalystID: sunThu, ShiftType: in.ShiftType, Pattern: domain.PatternSunThu, WeekStart: ws, WeekEnd: we},
			domain.RotationPlan{AnalystID: tueSat, ShiftType: in.ShiftType, Pattern: domain.PatternTueSat, WeekStart: ws, WeekEnd: we},
		)
		for _, id := range pool {
			if (sunThu != nil && *sunThu == id) || (tueSat != nil && *tueSat == id) {
				continue
			}
			analystID := id
			res.Plans = append(res.Plans, domain.RotationPlan{AnalystID: &analystID, ShiftType: in.ShiftType, Pattern: domain.PatternMonFri, WeekStart: ws, WeekEnd: we})
		}

		// 把本周的决定作为模拟的历史记录，下一周打分时就能看到
		if sunThu != nil {
			simulated = append(simulated, simulateWeek(*sunThu, in.ShiftType, domain.PatternSunThu, ws)...)
		}
		if tueSat != nil {
			simulated = append(simulated, simulateWeek(*tueSat, in.ShiftType, domain.PatternTueSat, ws)...)
		}

		prevTueSat = tueSat
		prevSunThu = sunThu
	}

	return res
}

func simulateWeek(analystID int64, shift domain.ShiftType, pattern domain.Pattern, weekStart time.Time) []*domain.ScheduleEntry {
	entries := make([]*domain.ScheduleEntry, 0, 5)
	for i := 0; i < 7; i++ {
		d := weekStart.AddDate(0, 0, i)
		if WorksOn(pattern, d.Weekday()) {
			entries = append(entries, &domain.ScheduleEntry{
				AnalystID: analystID,
				Date:      d,
				ShiftType: shift,
				Pattern:   pattern,
			})
		}
	}
	return entries
}

// coversRotationWeekends 进入轮换的人需要能覆盖本周日和下周六两个周末班
func coversRotationWeekends(analyst *domain.Analyst, weekStart time.Time) bool {
	if analyst == nil || !analyst.IsActive {
		return false
	}
	return !onLeave(analyst, weekStart) && !onLeave(analyst, weekStart.AddDate(0, 0, 13))
}

// FindPlan 找到覆盖某天的某人的计划。找不到时调用方必须视为不上班
func FindPlan(plans []domain.RotationPlan, analystID int64, date time.Time) (*domain.RotationPlan, bool) {
	for i := range plans {
		p := &plans[i]
		if p.AnalystID != nil && *p.AnalystID == analystID && p.Covers(date) {
			return p, true
		}
	}
	return nil, false
}
