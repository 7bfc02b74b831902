package handler

import (
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/compoff"
	"github.com/bishwashp/shiftplanner/backend/internal/config"
	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/bishwashp/shiftplanner/backend/internal/metrics"
	"github.com/bishwashp/shiftplanner/backend/internal/runlock"
	"github.com/bishwashp/shiftplanner/backend/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Repository handler 用到的持久化操作
type Repository interface {
	GetAllAnalysts() ([]*domain.Analyst, error)
	GetActiveConstraintsBetween(start, end time.Time) ([]*domain.Constraint, error)
	GetSchedulesBetween(start, end time.Time) ([]*domain.ScheduleEntry, error)
	GetRotationStates(algorithm string) ([]*domain.RotationState, error)
	AcceptGeneration(scope domain.ScheduleScope, entries []*domain.ScheduleEntry, gen *domain.GenerationState) error
}

type EventPublisher interface {
	PublishScheduleAccepted(event *domain.ScheduleAcceptedEvent) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository Repository
	translator ut.Translator
	scheduler  *scheduler.Scheduler
	compOff    *compoff.Service
	locker     *runlock.Locker
	publisher  EventPublisher
	metrics    *metrics.Collectors
	gatherer   prometheus.Gatherer

	Mux *chi.Mux
}

func NewHandler(
	cfg *config.Config,
	repo Repository,
	sched *scheduler.Scheduler,
	compOff *compoff.Service,
	locker *runlock.Locker,
	publisher EventPublisher,
	collectors *metrics.Collectors,
	gatherer prometheus.Gatherer,
) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		scheduler:  sched,
		compOff:    compOff,
		locker:     locker,
		publisher:  publisher,
		metrics:    collectors,
		gatherer:   gatherer,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Method("GET", "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	// 排班生成
	h.Mux.Route("/schedules", func(r chi.Router) {
		r.Post("/generate", h.GenerateSchedules)
		r.Post("/accept", h.AcceptSchedules)
	})
	h.Mux.Post("/rotation-plans", h.GetRotationPlans)
	h.Mux.Get("/rotation-states", h.GetRotationStates)

	// 调休
	h.Mux.Route("/comp-off", func(r chi.Router) {
		r.Post("/earn", h.EarnCompOff)
		r.Post("/use", h.UseCompOff)
		r.Route("/{analystID}", func(r chi.Router) {
			r.Use(h.analystID)
			r.Get("/balance", h.GetCompOffBalance)
			r.Get("/transactions", h.GetCompOffTransactions)
		})
		r.With(h.transactionID).Delete("/transactions/{id}", h.DeleteCompOffTransaction)
	})
}
