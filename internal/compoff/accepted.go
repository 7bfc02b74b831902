package compoff

import (
	"errors"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

// HandleScheduleAccepted 为被接受的排班中的周末和节假日上班安排调休。
// 规则类错误只记录日志并跳过该条；返回的 error 都是可以重试的错误，
// 由于 AutoAssign 对同一上班日幂等，整条消息重新处理是安全的
func (s *Service) HandleScheduleAccepted(event *domain.ScheduleAcceptedEvent) (int, error) {
	processed := 0
	for _, entry := range event.Entries {
		if entry.IsCompOff {
			continue
		}

		workType := domain.WorkWeekend
		if domain.ContainsDate(event.Holidays, entry.Date) {
			workType = domain.WorkHoliday
		} else if !domain.IsWeekend(entry.Date) {
			continue
		}

		txn, err := s.AutoAssign(entry.AnalystID, entry.Date, workType)
		if err != nil {
			if errors.Is(err, ErrInvalidCompOffDay) || errors.Is(err, ErrInvalidWorkType) {
				s.logger.Warn("跳过无法调休的排班", "runID", event.RunID, "analystID", entry.AnalystID, "date", entry.Date.Format(time.DateOnly), "error", err)
				continue
			}
			return processed, err
		}
		if txn != nil {
			processed++
		}
	}
	return processed, nil
}
