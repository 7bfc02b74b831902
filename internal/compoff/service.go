package compoff

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

// Ledger 单个分析师的调休流水视图，只在 Store.WithAnalystLedger 的事务内有效
type Ledger interface {
	Transactions() ([]*domain.CompOffTransaction, error)
	Insert(t *domain.CompOffTransaction) error
	HasWorkingScheduleOn(date time.Time) (bool, error)
	HasApprovedAbsenceOn(date time.Time) (bool, error)
}

// Store 同一分析师的写操作需要串行化，WithAnalystLedger 在持有该分析师锁的事务中执行 fn，
// fn 返回 error 时整个事务回滚
type Store interface {
	WithAnalystLedger(analystID int64, fn func(Ledger) error) error
	ListCompOffTransactions(analystID int64) ([]*domain.CompOffTransaction, error)
	DeleteCompOffTransaction(id int64) error
}

// Recorder 记录成功写入的流水，用于监控
type Recorder interface {
	CompOffRecorded(t *domain.CompOffTransaction)
}

type Service struct {
	store    Store
	recorder Recorder
	logger   *slog.Logger
}

func NewService(store Store, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		logger:   logger,
	}
}

func (s *Service) record(t *domain.CompOffTransaction) {
	if s.recorder != nil && t.ID != 0 {
		s.recorder.CompOffRecorded(t)
	}
}

// Earn 记录一笔获得的调休。加班原因按自然周（周日开始）幂等：
// 同一周已经记过的话返回一条 0 天的流水，不会重复入账
func (s *Service) Earn(analystID int64, date time.Time, reason domain.CompOffReason, days float64, description string) (*domain.CompOffTransaction, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	date = domain.DateOnly(date)
	if reason == domain.ReasonWeekendWork && !domain.IsWeekend(date) {
		return nil, fmt.Errorf("%w: %s 不是周末", ErrInvalidCompOffDay, date.Format(time.DateOnly))
	}

	var result *domain.CompOffTransaction
	err := s.store.WithAnalystLedger(analystID, func(l Ledger) error {
		if reason == domain.ReasonOvertime {
			txns, err := l.Transactions()
			if err != nil {
				return err
			}
			week := domain.WeekStart(date)
			for _, t := range txns {
				if t.Type == domain.CompOffEarned && t.Reason == domain.ReasonOvertime && t.EarnedDate != nil && domain.WeekStart(*t.EarnedDate).Equal(week) {
					s.logger.Debug("本周已记录加班调休，忽略", "analystID", analystID, "week", week.Format(time.DateOnly))
					result = &domain.CompOffTransaction{
						AnalystID:   analystID,
						Type:        domain.CompOffEarned,
						EarnedDate:  &date,
						Reason:      reason,
						Description: "本周已记录加班调休",
					}
					return nil
				}
			}
		}

		t := &domain.CompOffTransaction{
			AnalystID:   analystID,
			Type:        domain.CompOffEarned,
			EarnedDate:  &date,
			Reason:      reason,
			Days:        days,
			Description: description,
		}
		if err := l.Insert(t); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(result)
	return result, nil
}

// AutoAssign 为周末或节假日上班计算调休日。目标日已有上班排班、已批准的请假或已经安排过的调休时，
// 这一天调休存入余额（banked），否则直接记为自动调休。周六上班返回 nil。
// 同一个上班日重复调用返回已有的流水
func (s *Service) AutoAssign(analystID int64, workDate time.Time, workType domain.WorkType) (*domain.CompOffTransaction, error) {
	workDate = domain.DateOnly(workDate)

	var reason domain.CompOffReason
	switch workType {
	case domain.WorkWeekend:
		if !domain.IsWeekend(workDate) {
			return nil, fmt.Errorf("%w: %s 不是周末", ErrInvalidCompOffDay, workDate.Format(time.DateOnly))
		}
		reason = domain.ReasonWeekendWork
	case domain.WorkHoliday:
		reason = domain.ReasonHolidayWork
	default:
		return nil, ErrInvalidWorkType
	}

	target, ok := TargetDate(workDate, workType)
	if !ok {
		return nil, nil
	}

	var result *domain.CompOffTransaction
	created := false
	err := s.store.WithAnalystLedger(analystID, func(l Ledger) error {
		txns, err := l.Transactions()
		if err != nil {
			return err
		}
		for _, t := range txns {
			if t.Type != domain.CompOffUsed && t.Reason == reason && sameDay(t.EarnedDate, workDate) {
				result = t
				return nil
			}
		}

		conflict, err := s.targetConflicts(l, txns, target)
		if err != nil {
			return err
		}

		t := &domain.CompOffTransaction{
			AnalystID:  analystID,
			EarnedDate: &workDate,
			Reason:     reason,
			Days:       1,
		}
		if conflict != "" {
			t.Type = domain.CompOffEarned
			t.IsBanked = true
			t.Description = fmt.Sprintf("%s 无法调休（%s），存入余额", target.Format(time.DateOnly), conflict)
		} else {
			t.Type = domain.CompOffAutoAssigned
			t.IsAutoAssigned = true
			t.CompOffDate = &target
			t.Description = fmt.Sprintf("%s 上班，自动调休", workDate.Format(time.DateOnly))
		}
		if err := l.Insert(t); err != nil {
			return err
		}
		result = t
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !created {
		return result, nil
	}

	s.logger.Info("已处理自动调休",
		"analystID", analystID,
		"workDate", workDate.Format(time.DateOnly),
		"type", result.Type,
		"banked", result.IsBanked,
	)
	s.record(result)
	return result, nil
}

// targetConflicts 返回冲突原因，没有冲突时返回空字符串
func (s *Service) targetConflicts(l Ledger, txns []*domain.CompOffTransaction, target time.Time) (string, error) {
	working, err := l.HasWorkingScheduleOn(target)
	if err != nil {
		return "", err
	}
	if working {
		return "当天已有排班", nil
	}

	absent, err := l.HasApprovedAbsenceOn(target)
	if err != nil {
		return "", err
	}
	if absent {
		return "当天已请假", nil
	}

	for _, t := range txns {
		if (t.Type == domain.CompOffUsed || t.Type == domain.CompOffAutoAssigned) && sameDay(t.CompOffDate, target) {
			return "当天已安排调休", nil
		}
	}
	return "", nil
}

// Use 使用调休，可用余额不足时返回 ErrInsufficientBalance
func (s *Service) Use(analystID int64, date time.Time, days float64, description string) (*domain.CompOffTransaction, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	date = domain.DateOnly(date)

	var result *domain.CompOffTransaction
	err := s.store.WithAnalystLedger(analystID, func(l Ledger) error {
		txns, err := l.Transactions()
		if err != nil {
			return err
		}
		balance := CalculateBalance(analystID, txns)
		if balance.AvailableBalance < days {
			return fmt.Errorf("%w: 可用 %.1f 天，申请 %.1f 天", ErrInsufficientBalance, balance.AvailableBalance, days)
		}

		t := &domain.CompOffTransaction{
			AnalystID:   analystID,
			Type:        domain.CompOffUsed,
			CompOffDate: &date,
			Reason:      domain.ReasonManualRequest,
			Days:        days,
			Description: description,
		}
		if err := l.Insert(t); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(result)
	return result, nil
}

func (s *Service) Balance(analystID int64) (*domain.CompOffBalance, error) {
	txns, err := s.store.ListCompOffTransactions(analystID)
	if err != nil {
		return nil, err
	}
	return CalculateBalance(analystID, txns), nil
}

func (s *Service) Transactions(analystID int64) ([]*domain.CompOffTransaction, error) {
	return s.store.ListCompOffTransactions(analystID)
}

// Delete 删除一条流水（人工更正），余额随之重新推导
func (s *Service) Delete(id int64) error {
	return s.store.DeleteCompOffTransaction(id)
}
