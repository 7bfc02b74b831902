package domain

import "time"

type ShiftType string

const (
	ShiftMorning ShiftType = "MORNING"
	ShiftEvening ShiftType = "EVENING"
)

// ShiftTypes 两条互相独立的轮换轨道
var ShiftTypes = []ShiftType{ShiftMorning, ShiftEvening}

type AbsenceKind string

const (
	AbsenceVacation  AbsenceKind = "VACATION"
	AbsenceSickLeave AbsenceKind = "SICK_LEAVE"
	AbsenceDayOff    AbsenceKind = "DAY_OFF"
)

// AbsenceWindow 已审批的请假区间，起止日期均包含在内
type AbsenceWindow struct {
	ID         int64       `json:"id"`
	AnalystID  int64       `json:"analystID"`
	StartDate  time.Time   `json:"startDate"`
	EndDate    time.Time   `json:"endDate"`
	Kind       AbsenceKind `json:"kind"`
	IsApproved bool        `json:"isApproved"`
}

type Analyst struct {
	ID        int64           `json:"id" validate:"required"`
	Username  string          `json:"username"`
	FullName  string          `json:"fullName"`
	ShiftType ShiftType       `json:"shiftType" validate:"required,oneof=MORNING EVENING"`
	RegionID  *int64          `json:"regionID,omitempty"`
	Skills    []string        `json:"skills,omitempty"`
	IsActive  bool            `json:"isActive"`
	Absences  []AbsenceWindow `json:"absences,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Version   int32           `json:"-"`
}
