package scheduler

import (
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
)

const (
	StrategyStaggered = "STAGGERED"
	StrategyPlanned   = "PLANNED"

	ScreenerStrategyFairness   = "FAIRNESS"
	ScreenerStrategyRoundRobin = "ROUND_ROBIN"
)

// AlgorithmConfig 生成算法参数。轮换算法本身是公平的，不需要迭代优化，
// 迭代类参数只做校验并在性能指标中回显
type AlgorithmConfig struct {
	OptimizationStrategy       string  `json:"optimizationStrategy" validate:"omitempty,oneof=GREEDY NONE"`
	MaxIterations              int32   `json:"maxIterations" validate:"min=0"`
	ConvergenceThreshold       float64 `json:"convergenceThreshold" validate:"min=0"`
	FairnessWeight             float64 `json:"fairnessWeight" validate:"min=0,max=1"`
	EfficiencyWeight           float64 `json:"efficiencyWeight" validate:"min=0,max=1"`
	ConstraintWeight           float64 `json:"constraintWeight" validate:"min=0,max=1"`
	RandomizationFactor        float64 `json:"randomizationFactor" validate:"min=0,max=1"`
	ScreenerAssignmentStrategy string  `json:"screenerAssignmentStrategy" validate:"omitempty,oneof=FAIRNESS ROUND_ROBIN"`
	WeekendRotationStrategy    string  `json:"weekendRotationStrategy" validate:"omitempty,oneof=STAGGERED PLANNED"`
}

func DefaultAlgorithmConfig() AlgorithmConfig {
	return AlgorithmConfig{
		OptimizationStrategy:       "NONE",
		MaxIterations:              1,
		ConvergenceThreshold:       0.001,
		FairnessWeight:             0.4,
		EfficiencyWeight:           0.3,
		ConstraintWeight:           0.3,
		RandomizationFactor:        0,
		ScreenerAssignmentStrategy: ScreenerStrategyFairness,
		WeekendRotationStrategy:    StrategyStaggered,
	}
}

// withDefaults 未设置的字符串选项使用默认值
func (c AlgorithmConfig) withDefaults() AlgorithmConfig {
	d := DefaultAlgorithmConfig()
	if c.OptimizationStrategy == "" {
		c.OptimizationStrategy = d.OptimizationStrategy
	}
	if c.ScreenerAssignmentStrategy == "" {
		c.ScreenerAssignmentStrategy = d.ScreenerAssignmentStrategy
	}
	if c.WeekendRotationStrategy == "" {
		c.WeekendRotationStrategy = d.WeekendRotationStrategy
	}
	return c
}

type Input struct {
	StartDate         time.Time
	EndDate           time.Time
	Analysts          []*domain.Analyst
	ExistingSchedules []*domain.ScheduleEntry
	GlobalConstraints []*domain.Constraint
	RegionID          *int64
	AlgorithmConfig   *AlgorithmConfig
	DryRun            bool
}

type ConflictType string

const (
	ConflictWeekendCoverage      ConflictType = "WEEKEND_COVERAGE"
	ConflictInsufficientCoverage ConflictType = "INSUFFICIENT_COVERAGE"
	ConflictMissingCandidate     ConflictType = "MISSING_ROTATION_CANDIDATE"
	ConflictUnplannedAnalyst     ConflictType = "UNPLANNED_ANALYST"
	ConflictStaleRotationState   ConflictType = "STALE_ROTATION_STATE"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

type Conflict struct {
	Date      time.Time        `json:"date"`
	ShiftType domain.ShiftType `json:"shiftType"`
	Type      ConflictType     `json:"type"`
	Severity  Severity         `json:"severity"`
	Message   string           `json:"message"`
	AnalystID *int64           `json:"analystID,omitempty"`
}

// Overwrite 新的排班替换了已持久化的同一 (analyst, date) 排班。
// Removed 为 true 时新排班里没有这一天，接受后旧记录会被删除，After 两项为空
type Overwrite struct {
	AnalystID        int64            `json:"analystID"`
	Date             time.Time        `json:"date"`
	BeforeShiftType  domain.ShiftType `json:"beforeShiftType"`
	AfterShiftType   domain.ShiftType `json:"afterShiftType"`
	BeforeIsScreener bool             `json:"beforeIsScreener"`
	AfterIsScreener  bool             `json:"afterIsScreener"`
	Removed          bool             `json:"removed"`
}

// FairnessMetrics 各项取值均在 [0,1]，越接近 1 越公平，仅供参考
type FairnessMetrics struct {
	WorkloadDistribution float64       `json:"workloadDistribution"`
	ScreenerDistribution float64       `json:"screenerDistribution"`
	WeekendDistribution  float64       `json:"weekendDistribution"`
	Overall              float64       `json:"overall"`
	WorkDays             map[int64]int `json:"workDays"`
	ScreenerDays         map[int64]int `json:"screenerDays"`
	WeekendDays          map[int64]int `json:"weekendDays"`
}

type PerformanceMetrics struct {
	RunID            string          `json:"runID"`
	Algorithm        string          `json:"algorithm"`
	DurationMs       int64           `json:"durationMs"`
	DaysProcessed    int             `json:"daysProcessed"`
	BlackoutDays     int             `json:"blackoutDays"`
	HolidayDays      int             `json:"holidayDays"`
	EntriesGenerated int             `json:"entriesGenerated"`
	CycleResets      int             `json:"cycleResets"`
	Persisted        bool            `json:"persisted"`
	Config           AlgorithmConfig `json:"config"`
}

type Result struct {
	ProposedSchedules  []*domain.ScheduleEntry      `json:"proposedSchedules"`
	Conflicts          []Conflict                   `json:"conflicts"`
	Overwrites         []Overwrite                  `json:"overwrites"`
	Warnings           []string                     `json:"warnings"`
	Holidays           []time.Time                  `json:"holidays"`
	FairnessMetrics    FairnessMetrics              `json:"fairnessMetrics"`
	PerformanceMetrics PerformanceMetrics           `json:"performanceMetrics"`
	RotationStates     []*domain.RotationState      `json:"rotationStates,omitempty"`
	Checkpoints        []*domain.RotationCheckpoint `json:"-"`
	Continuity         []*domain.PatternContinuity  `json:"-"`
	Scope              domain.ScheduleScope         `json:"-"`
}

// Generation 需要和排班一起保存的轮换状态、每周快照和模式连续性记录
func (r *Result) Generation() *domain.GenerationState {
	return &domain.GenerationState{
		States:      r.RotationStates,
		Checkpoints: r.Checkpoints,
		Continuity:  r.Continuity,
	}
}
