package compoff

import (
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

// TargetDate 根据上班日期和类型计算自动调休日：
// 周日上班调休同一周的周五；周六上班不再额外调休（轮换本身已经安排了周一休息）；
// 其他节假日上班调休下一个工作日。返回 false 表示没有需要自动安排的调休
func TargetDate(workDate time.Time, workType domain.WorkType) (time.Time, bool) {
	d := domain.DateOnly(workDate)
	switch d.Weekday() {
	case time.Sunday:
		return d.AddDate(0, 0, 5), true
	case time.Saturday:
		return time.Time{}, false
	}
	if workType != domain.WorkHoliday {
		return time.Time{}, false
	}
	next := d.AddDate(0, 0, 1)
	for domain.IsWeekend(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next, true
}

// CalculateBalance 余额永远由流水推导。自动调休同时计入获得和使用，对可用余额的影响为 0
func CalculateBalance(analystID int64, txns []*domain.CompOffTransaction) *domain.CompOffBalance {
	b := &domain.CompOffBalance{AnalystID: analystID}
	for _, t := range txns {
		switch t.Type {
		case domain.CompOffEarned:
			b.TotalEarned += t.Days
			if t.IsBanked {
				b.BankedDays += t.Days
			}
		case domain.CompOffUsed:
			b.TotalUsed += t.Days
		case domain.CompOffAutoAssigned:
			b.TotalEarned += t.Days
			b.TotalUsed += t.Days
			b.AutoAssigned += t.Days
		}
	}
	b.AvailableBalance = b.TotalEarned - b.TotalUsed
	return b
}

func sameDay(t *time.Time, d time.Time) bool {
	return t != nil && domain.DateOnly(*t).Equal(d)
}
