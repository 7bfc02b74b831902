package domain

import "time"

// DateOnly 把时间截断到 UTC 零点，所有排班日期都按这个口径比较
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart 返回该日期所在周的周日（轮换周从周日开始）
func WeekStart(t time.Time) time.Time {
	d := DateOnly(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// WeekNumber 按周日开始的周计算周序号，同一周的七天序号相同。
// 跨年的那一周算在周日所在的年份
func WeekNumber(t time.Time) int {
	return (WeekStart(t).YearDay()-1)/7 + 1
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WeeksBetween 两个周日之间相差的整周数
func WeeksBetween(from, to time.Time) int {
	return int(WeekStart(to).Sub(WeekStart(from)).Hours() / 24 / 7)
}

// ContainsDate 按日期（忽略时分秒）判断
func ContainsDate(dates []time.Time, date time.Time) bool {
	d := DateOnly(date)
	for _, t := range dates {
		if DateOnly(t).Equal(d) {
			return true
		}
	}
	return false
}
