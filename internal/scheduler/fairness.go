package scheduler

import (
	"log/slog"
	"math"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

const (
	// 最近 14 天内轮换过的人直接给一个很大的负分
	recencyWindowDays = 14
	recencyPenalty    = -1000.0
)

// Score 某个分析师在某个时间点的公平性得分，不持久化
type Score struct {
	AnalystID         int64     `json:"analystID"`
	Total             float64   `json:"total"`
	WeekendDays       int       `json:"weekendDays"`
	SaturdayDays      int       `json:"saturdayDays"`
	SundayDays        int       `json:"sundayDays"`
	LastRotation      time.Time `json:"lastRotation"` // 零值表示从未轮换
	DaysSinceRotation int       `json:"daysSinceRotation"`
	RecentlyRotated   bool      `json:"recentlyRotated"`
}

type FairnessScorer struct {
	weights Weights
	logger  *slog.Logger
}

func NewFairnessScorer(weights Weights, logger *slog.Logger) *FairnessScorer {
	return &FairnessScorer{
		weights: weights,
		logger:  logger,
	}
}

type workStats struct {
	saturdays    int
	sundays      int
	lastRotation time.Time
	workedDates  map[time.Time]bool
}

// collectStats 只统计 asOf 之前的记录，历史记录和模拟记录一视同仁
func collectStats(records []*domain.ScheduleEntry, asOf time.Time) map[int64]*workStats {
	stats := make(map[int64]*workStats)
	for _, r := range records {
		d := domain.DateOnly(r.Date)
		if !d.Before(asOf) || r.IsCompOff {
			continue
		}

		st, exists := stats[r.AnalystID]
		if !exists {
			st = &workStats{workedDates: make(map[time.Time]bool)}
			stats[r.AnalystID] = st
		}

		st.workedDates[d] = true
		switch d.Weekday() {
		case time.Saturday:
			st.saturdays++
		case time.Sunday:
			st.sundays++
		}
		if r.IsRotation() && d.After(st.lastRotation) {
			st.lastRotation = d
		}
	}
	return stats
}

// CalculateFairnessScores 计算候选池中每个人的得分：
// 周末天数的倒数 + 距上次轮换的时间 + 周六/周日平衡 + 周六到周日的连续性 + 近期轮换惩罚
func (s *FairnessScorer) CalculateFairnessScores(pool []int64, records []*domain.ScheduleEntry, asOf time.Time) map[int64]*Score {
	asOf = domain.DateOnly(asOf)
	stats := collectStats(records, asOf)
	w := s.weights

	scores := make(map[int64]*Score, len(pool))
	for _, id := range pool {
		st, exists := stats[id]
		if !exists {
			st = &workStats{workedDates: map[time.Time]bool{}}
		}

		score := &Score{
			AnalystID:    id,
			SaturdayDays: st.saturdays,
			SundayDays:   st.sundays,
			WeekendDays:  st.saturdays + st.sundays,
			LastRotation: st.lastRotation,
		}

		weekendScore := w.WeekendPenalty / (1 + float64(score.WeekendDays)*w.ScoringFactors.WeekendDaysMultiplier)
		total := math.Min(w.MaxWeekendPenalty, weekendScore)

		if st.lastRotation.IsZero() {
			total += w.MaxTimeBonus
		} else {
			score.DaysSinceRotation = int(asOf.Sub(st.lastRotation).Hours() / 24)
			total += math.Min(w.MaxTimeBonus, w.TimeBonus*float64(score.DaysSinceRotation)/w.ScoringFactors.TimeDivisor)
		}

		switch asOf.Weekday() {
		case time.Saturday:
			if st.saturdays < st.sundays {
				total += math.Min(w.MaxBalanceBonus, w.BalanceBonus*float64(st.sundays-st.saturdays))
			}
		case time.Sunday:
			if st.sundays < st.saturdays {
				total += math.Min(w.MaxBalanceBonus, w.BalanceBonus*float64(st.saturdays-st.sundays))
			}
			// 昨天周六上班的人今天继续，保持周六周日连在一起
			if st.workedDates[asOf.AddDate(0, 0, -1)] {
				total += w.ContinuityBonus
			}
		}

		if !st.lastRotation.IsZero() && score.DaysSinceRotation < recencyWindowDays {
			score.RecentlyRotated = true
			total += recencyPenalty
		}

		score.Total = total
		scores[id] = score

		s.logger.Debug("公平性得分",
			"analystID", id,
			"asOf", asOf.Format(time.DateOnly),
			"total", total,
			"weekendDays", score.WeekendDays,
			"daysSinceRotation", score.DaysSinceRotation,
			"recentlyRotated", score.RecentlyRotated,
		)
	}

	return scores
}
