package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/bishwashp/shiftplanner/backend/internal/events"
	"github.com/bishwashp/shiftplanner/backend/internal/runlock"
	"github.com/bishwashp/shiftplanner/backend/internal/scheduler"
	"github.com/bishwashp/shiftplanner/backend/internal/utils"
)

// historyDays 公平性打分回看的历史排班天数
const historyDays = 120

type generateRequest struct {
	StartDate       string                     `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate         string                     `json:"endDate" validate:"required,datetime=2006-01-02"`
	RegionID        *int64                     `json:"regionID" validate:"omitempty,min=1"`
	DryRun          *bool                      `json:"dryRun"`
	AlgorithmConfig *scheduler.AlgorithmConfig `json:"algorithmConfig"`
}

// dryRun 不传 dryRun 时只预览，显式传 false 才会保存轮换状态
func (req *generateRequest) dryRun() bool {
	return req.DryRun == nil || *req.DryRun
}

// buildInput 读取生成排班需要的全部数据
func (h *Handler) buildInput(req *generateRequest, dryRun bool) (*scheduler.Input, error) {
	start, end, err := utils.ParseDateRange(req.StartDate, req.EndDate, h.config.Scheduler.DefaultMaxGenerationDays)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scheduler.ErrInvalidDateRange, err)
	}

	analysts, err := h.repository.GetAllAnalysts()
	if err != nil {
		return nil, err
	}

	constraints, err := h.repository.GetActiveConstraintsBetween(start, end)
	if err != nil {
		return nil, err
	}

	existing, err := h.repository.GetSchedulesBetween(start.AddDate(0, 0, -historyDays), end)
	if err != nil {
		return nil, err
	}

	return &scheduler.Input{
		StartDate:         start,
		EndDate:           end,
		Analysts:          analysts,
		ExistingSchedules: existing,
		GlobalConstraints: constraints,
		RegionID:          req.RegionID,
		AlgorithmConfig:   req.AlgorithmConfig,
		DryRun:            dryRun,
	}, nil
}

func (h *Handler) readGenerateRequest(w http.ResponseWriter, r *http.Request) (*generateRequest, bool) {
	var req generateRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}
	return &req, true
}

// lockRotationStates 会修改轮换状态的请求需要先拿到两个班次的锁
func (h *Handler) lockRotationStates(w http.ResponseWriter, r *http.Request) ([]*runlock.Lock, bool) {
	keys := make([]string, 0, len(domain.ShiftTypes))
	for _, shift := range domain.ShiftTypes {
		keys = append(keys, runlock.Key(h.scheduler.Algorithm(), shift))
	}

	locks, err := h.locker.AcquireAll(r.Context(), keys...)
	if err != nil {
		switch {
		case errors.Is(err, runlock.ErrLocked):
			h.errorResponse(w, r, "另一次排班生成正在进行，请稍后再试")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}
	return locks, true
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, req *generateRequest, dryRun bool) (*scheduler.Input, *scheduler.Result, bool) {
	input, err := h.buildInput(req, dryRun)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrInvalidDateRange):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return nil, nil, false
	}

	result, err := h.scheduler.Generate(*input)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrInvalidDateRange):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return nil, nil, false
	}

	h.metrics.ObserveGeneration(result)
	return input, result, true
}

func (h *Handler) GenerateSchedules(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readGenerateRequest(w, r)
	if !ok {
		return
	}

	dryRun := req.dryRun()
	if !dryRun {
		locks, ok := h.lockRotationStates(w, r)
		if !ok {
			return
		}
		defer runlock.ReleaseAll(r.Context(), locks)
	}

	_, result, ok := h.generate(w, r, req, dryRun)
	if !ok {
		return
	}

	h.successResponse(w, r, "排班生成成功", result)
}

// AcceptSchedules 重新生成并在一个事务中保存排班和轮换状态，然后通知调休 worker
func (h *Handler) AcceptSchedules(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readGenerateRequest(w, r)
	if !ok {
		return
	}

	locks, ok := h.lockRotationStates(w, r)
	if !ok {
		return
	}
	defer runlock.ReleaseAll(r.Context(), locks)

	// 状态和排班一起保存，所以这里不让 Generate 自己保存
	input, result, ok := h.generate(w, r, req, true)
	if !ok {
		return
	}

	if err := h.repository.AcceptGeneration(result.Scope, result.ProposedSchedules, result.Generation()); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	result.PerformanceMetrics.Persisted = true

	event := events.NewScheduleAcceptedEvent(result.PerformanceMetrics.RunID, input.StartDate, input.EndDate, result.Holidays, result.ProposedSchedules)
	if err := h.publisher.PublishScheduleAccepted(event); err != nil {
		// 排班已经保存，不能因为消息发送失败而让请求失败
		slog.Error("无法发送排班接受事件", "runID", event.RunID, "error", err)
		h.successResponse(w, r, "排班已保存，但调休事件发送失败", result)
		return
	}

	h.successResponse(w, r, "排班已保存", result)
}

func (h *Handler) GetRotationPlans(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
		EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
		RegionID  *int64 `json:"regionID" validate:"omitempty,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	start, end, err := utils.ParseDateRange(req.StartDate, req.EndDate, h.config.Scheduler.DefaultMaxGenerationDays)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	analysts, err := h.repository.GetAllAnalysts()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	history, err := h.repository.GetSchedulesBetween(start.AddDate(0, 0, -historyDays), start.AddDate(0, 0, -1))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	plans, err := h.scheduler.PlanCalendars(start, end, analysts, history, req.RegionID)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.successResponse(w, r, "获取轮换计划成功", plans)
}

func (h *Handler) GetRotationStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.repository.GetRotationStates(h.scheduler.Algorithm())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取轮换状态成功", states)
}
