package domain

import "time"

type Pattern string

const (
	PatternSunThu Pattern = "SUN_THU"
	PatternTueSat Pattern = "TUE_SAT"
	PatternMonFri Pattern = "MON_FRI"
)

// ScheduleEntry 某个分析师某一天的排班，每人每天最多一条
type ScheduleEntry struct {
	ID         int64     `json:"id,omitempty"`
	AnalystID  int64     `json:"analystID"`
	Date       time.Time `json:"date"`
	ShiftType  ShiftType `json:"shiftType"`
	IsScreener bool      `json:"isScreener"`
	Pattern    Pattern   `json:"pattern"`
	IsCompOff  bool      `json:"isCompOff"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// IsRotation 是否处于轮换模式（SUN_THU 或 TUE_SAT）
func (e *ScheduleEntry) IsRotation() bool {
	return e.Pattern == PatternSunThu || e.Pattern == PatternTueSat
}

// ScheduleScope 一次生成覆盖的日期范围和分析师。接受排班时，
// 范围内这些分析师不在新排班中的旧记录会被删除
type ScheduleScope struct {
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	AnalystIDs []int64   `json:"analystIDs"`
}

// RotationPlan 规划模式下的一条记录，AnalystID 为空表示该模式本周无人
type RotationPlan struct {
	AnalystID *int64    `json:"analystID"`
	ShiftType ShiftType `json:"shiftType"`
	Pattern   Pattern   `json:"pattern"`
	WeekStart time.Time `json:"weekStart"`
	WeekEnd   time.Time `json:"weekEnd"`
}

// Covers 判断日期是否落在该计划所在的周内
func (p *RotationPlan) Covers(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(p.WeekStart) && !d.After(p.WeekEnd)
}

// ScheduleAcceptedEvent 排班被接受后投递到消息队列的事件
type ScheduleAcceptedEvent struct {
	RunID     string           `json:"runID"`
	StartDate time.Time        `json:"startDate"`
	EndDate   time.Time        `json:"endDate"`
	Holidays  []time.Time      `json:"holidays"`
	Entries   []*ScheduleEntry `json:"entries"` // 仅包含周末和节假日的非调休排班
}
