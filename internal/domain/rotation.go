package domain

import (
	"slices"
	"time"
)

// RotationSlot 轮换槽位。CycleStart 为进入第一周槽位的那个周日，在晋升到第二周槽位后保持不变
type RotationSlot struct {
	AnalystID  int64     `json:"analystID"`
	CycleStart time.Time `json:"cycleStart"`
}

type RotationState struct {
	ID               int64         `json:"id"`
	AlgorithmType    string        `json:"algorithmType"`
	ShiftType        ShiftType     `json:"shiftType"`
	Week1Slot        *RotationSlot `json:"week1Slot"` // SUN_THU
	Week2Slot        *RotationSlot `json:"week2Slot"` // TUE_SAT
	AvailablePool    []int64       `json:"availablePool"`
	CompletedPool    []int64       `json:"completedPool"`
	CycleGeneration  int32         `json:"cycleGeneration"`
	LastAdvancedWeek *time.Time    `json:"lastAdvancedWeek"` // 已经推进到的那一周（周日），为空表示从未推进
	UpdatedAt        time.Time     `json:"updatedAt"`
	Version          int32         `json:"-"`
}

func NewRotationState(algorithm string, shift ShiftType) *RotationState {
	return &RotationState{
		AlgorithmType: algorithm,
		ShiftType:     shift,
		AvailablePool: []int64{},
		CompletedPool: []int64{},
	}
}

// Members 返回四个集合中出现的全部 ID（可能重复，用于校验）
func (s *RotationState) Members() []int64 {
	ids := make([]int64, 0, len(s.AvailablePool)+len(s.CompletedPool)+2)
	if s.Week1Slot != nil {
		ids = append(ids, s.Week1Slot.AnalystID)
	}
	if s.Week2Slot != nil {
		ids = append(ids, s.Week2Slot.AnalystID)
	}
	ids = append(ids, s.AvailablePool...)
	ids = append(ids, s.CompletedPool...)
	return ids
}

// PatternOf 返回分析师当前所处的模式
func (s *RotationState) PatternOf(analystID int64) Pattern {
	switch {
	case s.Week1Slot != nil && s.Week1Slot.AnalystID == analystID:
		return PatternSunThu
	case s.Week2Slot != nil && s.Week2Slot.AnalystID == analystID:
		return PatternTueSat
	default:
		return PatternMonFri
	}
}

func (s *RotationState) Clone() *RotationState {
	c := *s
	if s.Week1Slot != nil {
		slot := *s.Week1Slot
		c.Week1Slot = &slot
	}
	if s.Week2Slot != nil {
		slot := *s.Week2Slot
		c.Week2Slot = &slot
	}
	if s.LastAdvancedWeek != nil {
		week := *s.LastAdvancedWeek
		c.LastAdvancedWeek = &week
	}
	c.AvailablePool = slices.Clone(s.AvailablePool)
	c.CompletedPool = slices.Clone(s.CompletedPool)
	return &c
}

// RotationCheckpoint 某一周推进之后的状态快照。从更早的日期重新生成时，
// 从范围开始之前最近的一个快照继续推进
type RotationCheckpoint struct {
	AlgorithmType string         `json:"algorithmType"`
	ShiftType     ShiftType      `json:"shiftType"`
	WeekStart     time.Time      `json:"weekStart"`
	State         *RotationState `json:"state"`
}

// GenerationState 一次生成结束时需要一起保存的内容
type GenerationState struct {
	States      []*RotationState
	Checkpoints []*RotationCheckpoint
	Continuity  []*PatternContinuity
}

// PatternContinuity 连接前后两次生成，使轮换和筛查历史不会丢失
type PatternContinuity struct {
	ID            int64          `json:"id"`
	AlgorithmType string         `json:"algorithmType"`
	AnalystID     int64          `json:"analystID"`
	LastPattern   Pattern        `json:"lastPattern"`
	LastWorkDate  time.Time      `json:"lastWorkDate"`
	WeekNumber    int32          `json:"weekNumber"`
	Metadata      map[string]any `json:"metadata"`
}
