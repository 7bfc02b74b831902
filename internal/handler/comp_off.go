package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/bishwashp/shiftplanner/backend/internal/compoff"
	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/bishwashp/shiftplanner/backend/internal/utils"
	"github.com/jackc/pgx/v5/pgconn"
)

// compOffError 把调休相关的错误转换成响应
func (h *Handler) compOffError(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, compoff.ErrInsufficientBalance),
		errors.Is(err, compoff.ErrInvalidCompOffDay),
		errors.Is(err, compoff.ErrInvalidDays),
		errors.Is(err, compoff.ErrInvalidWorkType):
		h.errorResponse(w, r, err.Error())
	case errors.As(err, &pgErr):
		switch pgErr.ConstraintName {
		case "comp_off_transactions_analyst_id_fkey":
			h.errorResponse(w, r, "分析师不存在")
		default:
			h.internalServerError(w, r, err)
		}
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) EarnCompOff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnalystID   int64   `json:"analystID" validate:"required,min=1"`
		Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
		Reason      string  `json:"reason" validate:"required,oneof=WEEKEND_WORK HOLIDAY_WORK OVERTIME MANUAL_REQUEST"`
		Days        float64 `json:"days" validate:"required,gt=0,max=5"`
		Description string  `json:"description" validate:"max=255"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	txn, err := h.compOff.Earn(req.AnalystID, date, domain.CompOffReason(req.Reason), req.Days, req.Description)
	if err != nil {
		h.compOffError(w, r, err)
		return
	}

	if txn.ID == 0 {
		h.successResponse(w, r, "本周已记录加班调休", txn)
		return
	}
	h.successResponse(w, r, "调休记录成功", txn)
}

func (h *Handler) UseCompOff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnalystID   int64   `json:"analystID" validate:"required,min=1"`
		Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
		Days        float64 `json:"days" validate:"required,gt=0,max=5"`
		Description string  `json:"description" validate:"max=255"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	txn, err := h.compOff.Use(req.AnalystID, date, req.Days, req.Description)
	if err != nil {
		h.compOffError(w, r, err)
		return
	}

	h.successResponse(w, r, "调休使用成功", txn)
}

func (h *Handler) GetCompOffBalance(w http.ResponseWriter, r *http.Request) {
	analystID := r.Context().Value(AnalystIDCtx).(int64)

	balance, err := h.compOff.Balance(analystID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取调休余额成功", balance)
}

func (h *Handler) GetCompOffTransactions(w http.ResponseWriter, r *http.Request) {
	analystID := r.Context().Value(AnalystIDCtx).(int64)

	txns, err := h.compOff.Transactions(analystID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取调休记录成功", txns)
}

func (h *Handler) DeleteCompOffTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(TransactionIDCtx).(int64)

	if err := h.compOff.Delete(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "调休记录不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除调休记录成功", nil)
}
