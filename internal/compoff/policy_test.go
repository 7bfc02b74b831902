package compoff

import (
	"testing"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTargetDate(t *testing.T) {
	cases := []struct {
		name     string
		workDate string
		workType domain.WorkType
		want     string
	}{
		{"周日上班调休周五", "2025-01-05", domain.WorkWeekend, "2025-01-10"},
		{"周日节假日同样调休周五", "2025-01-05", domain.WorkHoliday, "2025-01-10"},
		{"周六上班不自动调休", "2025-01-11", domain.WorkWeekend, ""},
		{"周六节假日不自动调休", "2025-01-11", domain.WorkHoliday, ""},
		{"工作日节假日调休下一个工作日", "2025-01-01", domain.WorkHoliday, "2025-01-02"},
		{"周五节假日调休下周一", "2025-01-03", domain.WorkHoliday, "2025-01-06"},
		{"工作日的周末班无效", "2025-01-06", domain.WorkWeekend, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := TargetDate(date(tc.workDate), tc.workType)
			if tc.want == "" {
				assert.False(t, ok)
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tc.want, got.Format(time.DateOnly))
		})
	}
}

func TestCalculateBalance(t *testing.T) {
	txns := []*domain.CompOffTransaction{
		{Type: domain.CompOffEarned, Days: 1, IsBanked: true},
		{Type: domain.CompOffEarned, Days: 0.5},
		{Type: domain.CompOffAutoAssigned, Days: 1, IsAutoAssigned: true},
		{Type: domain.CompOffUsed, Days: 1},
	}

	b := CalculateBalance(7, txns)
	assert.Equal(t, int64(7), b.AnalystID)
	assert.Equal(t, 2.5, b.TotalEarned)
	assert.Equal(t, 2.0, b.TotalUsed)
	assert.Equal(t, 1.0, b.AutoAssigned)
	assert.Equal(t, 1.0, b.BankedDays)
	assert.Equal(t, 0.5, b.AvailableBalance)

	empty := CalculateBalance(7, nil)
	assert.Zero(t, empty.AvailableBalance)
}
