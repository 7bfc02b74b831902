package utils

import (
	"fmt"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

// ParseDate 解析 YYYY-MM-DD 格式的日期，结果为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期 %q 格式错误，应为 YYYY-MM-DD", s)
	}
	return domain.DateOnly(t), nil
}

// ParseDateRange 解析并检查起止日期，结束日期不能早于开始日期，跨度不能超过 maxDays（maxDays <= 0 表示不限制）
func ParseDateRange(start, end string, maxDays int) (time.Time, time.Time, error) {
	startDate, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDate, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("结束日期不能早于开始日期")
	}

	days := int(endDate.Sub(startDate).Hours()/24) + 1
	if maxDays > 0 && days > maxDays {
		return time.Time{}, time.Time{}, fmt.Errorf("一次最多只能处理 %d 天", maxDays)
	}

	return startDate, endDate, nil
}

// ValidateConstraint 检查约束的取值是否和类型匹配
func ValidateConstraint(c *domain.Constraint) error {
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("约束的结束日期不能早于开始日期")
	}

	switch c.Type {
	case domain.ConstraintScreenerMin, domain.ConstraintScreenerMax:
		if c.Value == nil || *c.Value < 0 {
			return fmt.Errorf("%s 约束需要一个非负的 value", c.Type)
		}
		if c.AnalystID == nil {
			return fmt.Errorf("%s 约束必须指定分析师", c.Type)
		}
	case domain.ConstraintPreferredScreener, domain.ConstraintUnavailableScreener:
		if c.AnalystID == nil {
			return fmt.Errorf("%s 约束必须指定分析师", c.Type)
		}
	case domain.ConstraintBlackoutDate, domain.ConstraintHoliday:
		if c.AnalystID != nil {
			return fmt.Errorf("%s 只能是全局约束", c.Type)
		}
	default:
		return fmt.Errorf("未知的约束类型 %s", c.Type)
	}

	return nil
}
