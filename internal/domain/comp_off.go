package domain

import "time"

type CompOffType string

const (
	CompOffEarned       CompOffType = "EARNED"
	CompOffUsed         CompOffType = "USED"
	CompOffAutoAssigned CompOffType = "AUTO_ASSIGNED"
)

type CompOffReason string

const (
	ReasonWeekendWork   CompOffReason = "WEEKEND_WORK"
	ReasonHolidayWork   CompOffReason = "HOLIDAY_WORK"
	ReasonOvertime      CompOffReason = "OVERTIME"
	ReasonManualRequest CompOffReason = "MANUAL_REQUEST"
)

type WorkType string

const (
	WorkWeekend WorkType = "WEEKEND"
	WorkHoliday WorkType = "HOLIDAY"
)

// CompOffTransaction 调休流水，只追加
type CompOffTransaction struct {
	ID             int64         `json:"id"`
	AnalystID      int64         `json:"analystID"`
	Type           CompOffType   `json:"type"`
	EarnedDate     *time.Time    `json:"earnedDate,omitempty"`
	CompOffDate    *time.Time    `json:"compOffDate,omitempty"`
	Reason         CompOffReason `json:"reason"`
	Days           float64       `json:"days"`
	IsAutoAssigned bool          `json:"isAutoAssigned"`
	IsBanked       bool          `json:"isBanked"`
	Description    string        `json:"description"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// CompOffBalance 由流水推导出的余额视图
type CompOffBalance struct {
	AnalystID        int64   `json:"analystID"`
	TotalEarned      float64 `json:"totalEarned"`
	TotalUsed        float64 `json:"totalUsed"`
	AutoAssigned     float64 `json:"autoAssigned"`
	BankedDays       float64 `json:"bankedDays"`
	AvailableBalance float64 `json:"availableBalance"`
}
