package scheduler

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

var patternDays = map[domain.Pattern][]time.Weekday{
	domain.PatternSunThu: {time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
	domain.PatternTueSat: {time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
	domain.PatternMonFri: {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
}

// WorksOn 某个模式在星期几上班
func WorksOn(pattern domain.Pattern, wd time.Weekday) bool {
	return slices.Contains(patternDays[pattern], wd)
}

// CompOffDay 轮换模式自带的调休日：第一周周五休，第二周周一休
func CompOffDay(pattern domain.Pattern) (time.Weekday, bool) {
	switch pattern {
	case domain.PatternSunThu:
		return time.Friday, true
	case domain.PatternTueSat:
		return time.Monday, true
	default:
		return 0, false
	}
}

type Transition struct {
	WeekStart  time.Time
	Completed  *int64
	Promoted   *int64
	Drawn      *int64
	Seeded     *int64
	CycleReset bool
	Stale      bool // 状态已经推进到 WeekStart 之后，本次没有做任何修改
	Warnings   []string
}

// RotationManager 交错的双槽位轮换状态机，每个 (algorithm, shiftType) 一份状态
type RotationManager struct {
	scorer *FairnessScorer
	logger *slog.Logger
}

func NewRotationManager(scorer *FairnessScorer, logger *slog.Logger) *RotationManager {
	return &RotationManager{
		scorer: scorer,
		logger: logger,
	}
}

// Sync 让状态中的成员和当前在职的同班次分析师保持一致：
// 离职或换班次的人从所有集合中移除，新人加入 availablePool，重复出现的 ID 只保留第一次
func (m *RotationManager) Sync(state *domain.RotationState, analysts []*domain.Analyst) []string {
	var warnings []string

	active := make(map[int64]bool)
	var activeIDs []int64
	for _, a := range analysts {
		if a.IsActive && a.ShiftType == state.ShiftType {
			active[a.ID] = true
			activeIDs = append(activeIDs, a.ID)
		}
	}
	slices.Sort(activeIDs)

	seen := make(map[int64]bool)
	keep := func(id int64) bool {
		if !active[id] || seen[id] {
			return false
		}
		seen[id] = true
		return true
	}

	if state.Week1Slot != nil && !keep(state.Week1Slot.AnalystID) {
		warnings = append(warnings, fmt.Sprintf("%s 第一周槽位的分析师 %d 已不在职，槽位已清空", state.ShiftType, state.Week1Slot.AnalystID))
		state.Week1Slot = nil
	}
	if state.Week2Slot != nil && !keep(state.Week2Slot.AnalystID) {
		warnings = append(warnings, fmt.Sprintf("%s 第二周槽位的分析师 %d 已不在职，槽位已清空", state.ShiftType, state.Week2Slot.AnalystID))
		state.Week2Slot = nil
	}
	state.AvailablePool = slices.DeleteFunc(state.AvailablePool, func(id int64) bool { return !keep(id) })
	state.CompletedPool = slices.DeleteFunc(state.CompletedPool, func(id int64) bool { return !keep(id) })

	for _, id := range activeIDs {
		if !seen[id] {
			seen[id] = true
			state.AvailablePool = append(state.AvailablePool, id)
		}
	}

	return warnings
}

// Advance 在周边界上推进一次状态：
//  1. 第二周槽位已满两周（一个完整的 Week1+Week2）则移入 completedPool
//  2. 第一周槽位已满一周则晋升到第二周槽位
//  3. 第一周槽位为空时从 availablePool 中按公平性选出下一个人，池子空了先用 completedPool 重置
//  4. 两个槽位都空（冷启动）时再选一个人直接进入第二周槽位，保证本周六有人
//
// 同一周重复调用是幂等的。状态只能向前推进，weekStart 早于已推进到的周时不做修改并给出警告。
// eligible 为 nil 时不过滤
func (m *RotationManager) Advance(state *domain.RotationState, weekStart time.Time, history []*domain.ScheduleEntry, eligible func(int64) bool) Transition {
	weekStart = domain.WeekStart(weekStart)
	t := Transition{WeekStart: weekStart}

	if last := state.LastAdvancedWeek; last != nil {
		if last.Equal(weekStart) {
			return t
		}
		if last.After(weekStart) {
			msg := fmt.Sprintf("%s 轮换状态已推进到 %s，不能回到 %s", state.ShiftType, last.Format(time.DateOnly), weekStart.Format(time.DateOnly))
			t.Stale = true
			t.Warnings = append(t.Warnings, msg)
			m.logger.Warn(msg)
			return t
		}
	}

	if state.Week2Slot != nil && domain.WeeksBetween(state.Week2Slot.CycleStart, weekStart) >= 2 {
		id := state.Week2Slot.AnalystID
		state.CompletedPool = append(state.CompletedPool, id)
		state.Week2Slot = nil
		t.Completed = &id
	}

	if state.Week1Slot != nil && state.Week2Slot == nil && domain.WeeksBetween(state.Week1Slot.CycleStart, weekStart) >= 1 {
		id := state.Week1Slot.AnalystID
		// 中间有空档周时也只在第二周槽位停留一周
		state.Week2Slot = &domain.RotationSlot{
			AnalystID:  id,
			CycleStart: weekStart.AddDate(0, 0, -7),
		}
		state.Week1Slot = nil
		t.Promoted = &id
	}

	if state.Week1Slot == nil {
		coldStart := state.Week2Slot == nil

		if id, ok := m.draw(state, weekStart, history, eligible, &t); ok {
			state.Week1Slot = &domain.RotationSlot{
				AnalystID:  id,
				CycleStart: weekStart,
			}
			t.Drawn = &id
		} else {
			msg := fmt.Sprintf("%s 在 %s 这一周没有可以进入轮换的候选人", state.ShiftType, weekStart.Format(time.DateOnly))
			t.Warnings = append(t.Warnings, msg)
			m.logger.Warn(msg, "available", len(state.AvailablePool), "completed", len(state.CompletedPool))
		}

		// 第二个人视为上周已经进入轮换，本周直接上 TUE_SAT，下周完成
		if coldStart && state.Week1Slot != nil {
			if id, ok := m.draw(state, weekStart, history, eligible, &t); ok {
				state.Week2Slot = &domain.RotationSlot{
					AnalystID:  id,
					CycleStart: weekStart.AddDate(0, 0, -7),
				}
				t.Seeded = &id
			}
		}
	}

	advanced := weekStart
	state.LastAdvancedWeek = &advanced

	return t
}

// draw 从 availablePool 中选出得分最高的合格候选人并移出池子，池子空了先用 completedPool 重置
func (m *RotationManager) draw(state *domain.RotationState, weekStart time.Time, history []*domain.ScheduleEntry, eligible func(int64) bool, t *Transition) (int64, bool) {
	if len(state.AvailablePool) == 0 && len(state.CompletedPool) > 0 {
		state.AvailablePool = state.CompletedPool
		state.CompletedPool = []int64{}
		state.CycleGeneration++
		t.CycleReset = true
		m.logger.Debug("轮换池已耗尽，重置",
			"shiftType", state.ShiftType,
			"cycleGeneration", state.CycleGeneration,
		)
	}

	candidates := make([]int64, 0, len(state.AvailablePool))
	for _, id := range state.AvailablePool {
		if eligible == nil || eligible(id) {
			candidates = append(candidates, id)
		}
	}

	scores := m.scorer.CalculateFairnessScores(candidates, history, weekStart)
	id, ok := SelectNext(candidates, scores, nil)
	if !ok {
		return 0, false
	}
	state.AvailablePool = slices.DeleteFunc(state.AvailablePool, func(x int64) bool { return x == id })
	return id, true
}
