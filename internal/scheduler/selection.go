package scheduler

import (
	"cmp"
	"slices"
	"time"
)

type Candidate struct {
	AnalystID    int64
	LastRotation time.Time
	Score        float64
}

// RankCandidates 按最久未轮换优先排序，相同时按得分从高到低，再按 ID 保证结果稳定。
// 不修改传入的 pool
func RankCandidates(pool []int64, scores map[int64]*Score) []Candidate {
	ranked := make([]Candidate, 0, len(pool))
	for _, id := range pool {
		c := Candidate{AnalystID: id}
		if s, exists := scores[id]; exists {
			c.LastRotation = s.LastRotation
			c.Score = s.Total
		}
		ranked = append(ranked, c)
	}

	slices.SortFunc(ranked, func(a, b Candidate) int {
		if c := a.LastRotation.Compare(b.LastRotation); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.AnalystID, b.AnalystID)
	})
	return ranked
}

// SelectNext 返回排名最靠前且不在 exclude 中的候选人
func SelectNext(pool []int64, scores map[int64]*Score, exclude map[int64]bool) (int64, bool) {
	for _, c := range RankCandidates(pool, scores) {
		if exclude[c.AnalystID] {
			continue
		}
		return c.AnalystID, true
	}
	return 0, false
}
