package scheduler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/google/uuid"
)

var ErrInvalidDateRange = errors.New("无效的日期范围")

// Store 排班核心用到的持久化接口。SaveGenerationState 必须在一个事务中完成，
// GetRotationCheckpointBefore 返回 week 之前最近一周的快照，没有时返回 sql.ErrNoRows
type Store interface {
	GetRotationState(algorithm string, shiftType domain.ShiftType) (*domain.RotationState, error)
	GetRotationCheckpointBefore(algorithm string, shiftType domain.ShiftType, week time.Time) (*domain.RotationState, error)
	GetPatternContinuity(algorithm string) ([]*domain.PatternContinuity, error)
	SaveGenerationState(gen *domain.GenerationState) error
}

type Options struct {
	ExcludePreviousTueSat bool
	MaxDays               int
}

type Scheduler struct {
	algorithm string
	store     Store
	options   Options
	scorer    *FairnessScorer
	rotation  *RotationManager
	planner   *RotationPlanner
	logger    *slog.Logger
	now       func() time.Time
}

func New(algorithm string, store Store, weights Weights, options Options, logger *slog.Logger) *Scheduler {
	scorer := NewFairnessScorer(weights, logger)
	return &Scheduler{
		algorithm: algorithm,
		store:     store,
		options:   options,
		scorer:    scorer,
		rotation:  NewRotationManager(scorer, logger),
		planner:   NewRotationPlanner(scorer, options.ExcludePreviousTueSat, logger),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Scheduler) Algorithm() string {
	return s.algorithm
}

// run 单次生成过程中的可变数据，结束前不会写回任何持久化状态
type run struct {
	input       Input
	config      AlgorithmConfig
	analysts    []*domain.Analyst
	shifts      []domain.ShiftType
	shiftOf     map[int64]domain.ShiftType
	history     []*domain.ScheduleEntry
	states      map[domain.ShiftType]*domain.RotationState
	plans       map[domain.ShiftType][]domain.RotationPlan
	continuity  []*domain.PatternContinuity
	advanced    map[domain.ShiftType]time.Time
	checkpoints []*domain.RotationCheckpoint
	blackouts   map[time.Time]bool
	result      *Result
	cycleResets int
}

// Generate 三个阶段：常规排班（轮换状态机或预规划）→ 筛查员分配 → 校验和指标。
// 可恢复的问题都以冲突/警告的形式出现在结果中；只有输入不合法或持久化失败才返回 error
func (s *Scheduler) Generate(in Input) (*Result, error) {
	start := s.now()

	in.StartDate = domain.DateOnly(in.StartDate)
	in.EndDate = domain.DateOnly(in.EndDate)
	if in.EndDate.Before(in.StartDate) {
		return nil, fmt.Errorf("%w: 结束日期早于开始日期", ErrInvalidDateRange)
	}
	days := int(in.EndDate.Sub(in.StartDate).Hours()/24) + 1
	if s.options.MaxDays > 0 && days > s.options.MaxDays {
		return nil, fmt.Errorf("%w: 最多只能生成 %d 天", ErrInvalidDateRange, s.options.MaxDays)
	}

	cfg := DefaultAlgorithmConfig()
	if in.AlgorithmConfig != nil {
		cfg = in.AlgorithmConfig.withDefaults()
	}

	r := &run{
		input:     in,
		config:    cfg,
		analysts:  filterByRegion(in.Analysts, in.RegionID),
		shiftOf:   make(map[int64]domain.ShiftType),
		states:    make(map[domain.ShiftType]*domain.RotationState),
		plans:     make(map[domain.ShiftType][]domain.RotationPlan),
		advanced:  make(map[domain.ShiftType]time.Time),
		blackouts: make(map[time.Time]bool),
		result: &Result{
			ProposedSchedules: []*domain.ScheduleEntry{},
			Conflicts:         []Conflict{},
			Overwrites:        []Overwrite{},
			Warnings:          []string{},
			Holidays:          []time.Time{},
		},
	}
	for _, a := range r.analysts {
		r.shiftOf[a.ID] = a.ShiftType
	}
	r.shifts = activeShifts(r.analysts)

	continuity, err := s.store.GetPatternContinuity(s.algorithm)
	if err != nil {
		return nil, fmt.Errorf("读取模式连续性记录失败: %w", err)
	}
	r.continuity = continuity

	for _, e := range in.ExistingSchedules {
		if domain.DateOnly(e.Date).Before(in.StartDate) {
			r.history = append(r.history, e)
		}
	}
	r.history = append(r.history, continuityHistory(continuity, r.history, r.shiftOf, in.StartDate)...)

	if err := s.prepare(r); err != nil {
		return nil, err
	}

	// 阶段一：常规排班
	s.generateRegularWork(r)

	// 阶段二：筛查员
	screeners := newScreenerAssigner(cfg.ScreenerAssignmentStrategy, in.GlobalConstraints, in.ExistingSchedules, in.StartDate)
	screeners.assign(r.result.ProposedSchedules)

	// 阶段三：校验和指标
	r.result.Conflicts = append(r.result.Conflicts, validateCoverage(r.result.ProposedSchedules, r.shifts, in.StartDate, in.EndDate, r.blackouts)...)
	r.result.Scope = scopeOf(in.StartDate, in.EndDate, r.analysts)
	r.result.Overwrites = detectOverwrites(r.result.ProposedSchedules, in.ExistingSchedules, r.result.Scope)
	r.result.FairnessMetrics = computeFairnessMetrics(r.result.ProposedSchedules, r.analysts)

	states := make([]*domain.RotationState, 0, len(r.states))
	for _, shift := range domain.ShiftTypes {
		if st, exists := r.states[shift]; exists {
			st.UpdatedAt = s.now()
			states = append(states, st)
		}
	}
	r.result.RotationStates = states
	r.result.Checkpoints = r.checkpoints
	r.result.Continuity = buildContinuity(s.algorithm, r.result.ProposedSchedules, r.continuity, r.states, r.shiftOf)

	// 整次生成视为一个原子操作，只在最后保存
	if !in.DryRun {
		if err := s.store.SaveGenerationState(r.result.Generation()); err != nil {
			return nil, fmt.Errorf("保存轮换状态失败: %w", err)
		}
	}

	r.result.PerformanceMetrics = PerformanceMetrics{
		RunID:            uuid.NewString(),
		Algorithm:        s.algorithm,
		DurationMs:       s.now().Sub(start).Milliseconds(),
		DaysProcessed:    days,
		BlackoutDays:     len(r.blackouts),
		HolidayDays:      len(r.result.Holidays),
		EntriesGenerated: len(r.result.ProposedSchedules),
		CycleResets:      r.cycleResets,
		Persisted:        !in.DryRun,
		Config:           cfg,
	}

	s.logger.Info("排班生成完成",
		"runID", r.result.PerformanceMetrics.RunID,
		"strategy", cfg.WeekendRotationStrategy,
		"start", in.StartDate.Format(time.DateOnly),
		"end", in.EndDate.Format(time.DateOnly),
		"entries", len(r.result.ProposedSchedules),
		"conflicts", len(r.result.Conflicts),
		"durationMs", r.result.PerformanceMetrics.DurationMs,
	)

	return r.result, nil
}

// prepare 读取轮换状态（在副本上修改）或预先生成规划日历
func (s *Scheduler) prepare(r *run) error {
	for _, shift := range r.shifts {
		if r.config.WeekendRotationStrategy == StrategyPlanned {
			res := s.planner.Plan(PlanInput{
				ShiftType: shift,
				Analysts:  analystsOf(r.analysts, shift),
				StartDate: r.input.StartDate,
				EndDate:   r.input.EndDate,
				History:   r.history,
			})
			r.plans[shift] = res.Plans
			r.result.Warnings = append(r.result.Warnings, res.Warnings...)
			continue
		}

		state, err := s.store.GetRotationState(s.algorithm, shift)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("读取 %s 轮换状态失败: %w", shift, err)
			}
			state = domain.NewRotationState(s.algorithm, shift)
		} else if state, err = s.rewind(r, shift, state); err != nil {
			return err
		}
		r.result.Warnings = append(r.result.Warnings, s.rotation.Sync(state, r.analysts)...)
		r.states[shift] = state
	}
	return nil
}

// rewind 持久化的状态已经推进到本次范围之内或之后时，换成范围开始之前最近一周的快照；
// 没有更早的快照说明范围早于第一次推进，从空状态开始。返回的状态总是副本
func (s *Scheduler) rewind(r *run, shift domain.ShiftType, state *domain.RotationState) (*domain.RotationState, error) {
	firstWeek := domain.WeekStart(r.input.StartDate)
	if state.LastAdvancedWeek == nil || state.LastAdvancedWeek.Before(firstWeek) {
		return state.Clone(), nil
	}

	ahead := *state.LastAdvancedWeek
	checkpoint, err := s.store.GetRotationCheckpointBefore(s.algorithm, shift, firstWeek)
	switch {
	case err == nil:
		state = checkpoint.Clone()
	case errors.Is(err, sql.ErrNoRows):
		state = domain.NewRotationState(s.algorithm, shift)
	default:
		return nil, fmt.Errorf("读取 %s 轮换状态快照失败: %w", shift, err)
	}

	r.result.Warnings = append(r.result.Warnings, fmt.Sprintf("%s 轮换状态已推进到 %s，从 %s 之前的快照重新计算",
		shift, ahead.Format(time.DateOnly), firstWeek.Format(time.DateOnly)))
	if lastWeek := domain.WeekStart(r.input.EndDate); ahead.After(lastWeek) {
		r.result.Warnings = append(r.result.Warnings, fmt.Sprintf("%s 保存后轮换状态会回到 %s，之后已保存的排班需要重新生成",
			shift, lastWeek.Format(time.DateOnly)))
	}
	s.logger.Info("轮换状态回退到快照",
		"shiftType", shift,
		"ahead", ahead.Format(time.DateOnly),
		"firstWeek", firstWeek.Format(time.DateOnly),
	)

	return state, nil
}

func (s *Scheduler) generateRegularWork(r *run) {
	byID := make(map[int64]*domain.Analyst, len(r.analysts))
	for _, a := range r.analysts {
		byID[a.ID] = a
	}
	eligible := func(weekStart time.Time) func(int64) bool {
		return func(id int64) bool {
			return coversRotationWeekends(byID[id], weekStart)
		}
	}

	for d := r.input.StartDate; !d.After(r.input.EndDate); d = d.AddDate(0, 0, 1) {
		ws := domain.WeekStart(d)

		// 周边界先推进状态，禁排日也要推进，保证轮换不会因为某天禁排而停滞
		for _, shift := range r.shifts {
			state, exists := r.states[shift]
			if !exists {
				continue
			}
			if last, exists := r.advanced[shift]; exists && last.Equal(ws) {
				continue
			}
			history := append(r.history[:len(r.history):len(r.history)], r.result.ProposedSchedules...)
			t := s.rotation.Advance(state, ws, history, eligible(ws))
			r.advanced[shift] = ws
			if t.CycleReset {
				r.cycleResets++
			}
			if !t.Stale {
				r.checkpoints = append(r.checkpoints, &domain.RotationCheckpoint{
					AlgorithmType: s.algorithm,
					ShiftType:     shift,
					WeekStart:     ws,
					State:         state.Clone(),
				})
			}

			conflictType, severity := ConflictMissingCandidate, SeverityMedium
			if t.Stale {
				conflictType, severity = ConflictStaleRotationState, SeverityCritical
			}
			for _, msg := range t.Warnings {
				r.result.Warnings = append(r.result.Warnings, msg)
				r.result.Conflicts = append(r.result.Conflicts, Conflict{
					Date:      ws,
					ShiftType: shift,
					Type:      conflictType,
					Severity:  severity,
					Message:   msg,
				})
			}
		}

		av := FilterAvailability(d, r.analysts, r.input.GlobalConstraints)
		if av.IsBlackout {
			r.blackouts[d] = true
			continue
		}
		if av.IsHoliday {
			r.result.Holidays = append(r.result.Holidays, d)
		}

		for _, shift := range r.shifts {
			for _, analyst := range av.AvailableAnalysts {
				if analyst.ShiftType != shift {
					continue
				}

				pattern, ok := s.patternFor(r, shift, analyst.ID, d)
				if !ok {
					msg := fmt.Sprintf("分析师 %d 在 %s 没有匹配的轮换计划，按不上班处理", analyst.ID, d.Format(time.DateOnly))
					analystID := analyst.ID
					r.result.Warnings = append(r.result.Warnings, msg)
					r.result.Conflicts = append(r.result.Conflicts, Conflict{
						Date:      d,
						ShiftType: shift,
						Type:      ConflictUnplannedAnalyst,
						Severity:  SeverityLow,
						Message:   msg,
						AnalystID: &analystID,
					})
					continue
				}

				if entry := entryFor(analyst, d, pattern); entry != nil {
					r.result.ProposedSchedules = append(r.result.ProposedSchedules, entry)
				}
			}
		}
	}
}

// patternFor 规划模式下找不到覆盖当天的计划时返回 false，调用方不能默认成某个上班模式
func (s *Scheduler) patternFor(r *run, shift domain.ShiftType, analystID int64, date time.Time) (domain.Pattern, bool) {
	if state, exists := r.states[shift]; exists {
		return state.PatternOf(analystID), true
	}
	plan, ok := FindPlan(r.plans[shift], analystID, date)
	if !ok {
		return "", false
	}
	return plan.Pattern, true
}

// entryFor 上班日生成排班，轮换自带的调休日生成调休记录，其余日子返回 nil
func entryFor(analyst *domain.Analyst, date time.Time, pattern domain.Pattern) *domain.ScheduleEntry {
	wd := date.Weekday()
	entry := &domain.ScheduleEntry{
		AnalystID: analyst.ID,
		Date:      date,
		ShiftType: analyst.ShiftType,
		Pattern:   pattern,
	}
	if WorksOn(pattern, wd) {
		return entry
	}
	if off, ok := CompOffDay(pattern); ok && off == wd {
		entry.IsCompOff = true
		return entry
	}
	return nil
}

// PlanCalendars 为每个有在职分析师的班次生成规划日历，只读，不修改任何持久化状态
func (s *Scheduler) PlanCalendars(start, end time.Time, analysts []*domain.Analyst, history []*domain.ScheduleEntry, regionID *int64) ([]*PlanResult, error) {
	start, end = domain.DateOnly(start), domain.DateOnly(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: 结束日期早于开始日期", ErrInvalidDateRange)
	}

	analysts = filterByRegion(analysts, regionID)
	results := make([]*PlanResult, 0, len(domain.ShiftTypes))
	for _, shift := range activeShifts(analysts) {
		results = append(results, s.planner.Plan(PlanInput{
			ShiftType: shift,
			Analysts:  analystsOf(analysts, shift),
			StartDate: start,
			EndDate:   end,
			History:   history,
		}))
	}
	return results, nil
}
