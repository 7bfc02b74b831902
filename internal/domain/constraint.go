package domain

import "time"

type ConstraintType string

const (
	ConstraintBlackoutDate        ConstraintType = "BLACKOUT_DATE"
	ConstraintHoliday             ConstraintType = "HOLIDAY"
	ConstraintScreenerMin         ConstraintType = "SCREENER_MIN"
	ConstraintScreenerMax         ConstraintType = "SCREENER_MAX"
	ConstraintPreferredScreener   ConstraintType = "PREFERRED_SCREENER"
	ConstraintUnavailableScreener ConstraintType = "UNAVAILABLE_SCREENER"
)

// Constraint 约束。AnalystID 为空表示全局约束
type Constraint struct {
	ID          int64          `json:"id"`
	AnalystID   *int64         `json:"analystID,omitempty"`
	Type        ConstraintType `json:"type" validate:"required,oneof=BLACKOUT_DATE HOLIDAY SCREENER_MIN SCREENER_MAX PREFERRED_SCREENER UNAVAILABLE_SCREENER"`
	StartDate   time.Time      `json:"startDate" validate:"required"`
	EndDate     time.Time      `json:"endDate" validate:"required,gtefield=StartDate"`
	Value       *int32         `json:"value,omitempty"` // 仅 SCREENER_MIN / SCREENER_MAX 使用
	IsActive    bool           `json:"isActive"`
	Description string         `json:"description"`
}

// Covers 判断约束是否覆盖某一天（包含起止日期）
func (c *Constraint) Covers(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(c.StartDate)) && !d.After(DateOnly(c.EndDate))
}

// AppliesTo 全局约束对所有人生效
func (c *Constraint) AppliesTo(analystID int64) bool {
	return c.AnalystID == nil || *c.AnalystID == analystID
}
