package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bishwashp/shiftplanner/backend/internal/compoff"
	"github.com/bishwashp/shiftplanner/backend/internal/config"
	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/bishwashp/shiftplanner/backend/internal/metrics"
	"github.com/bishwashp/shiftplanner/backend/internal/runlock"
	"github.com/bishwashp/shiftplanner/backend/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	analysts      []*domain.Analyst
	states        []*domain.RotationState
	accepted      []*domain.ScheduleEntry
	acceptedScope domain.ScheduleScope
	acceptedGen   *domain.GenerationState
	acceptCalls   int
}

func (r *fakeRepository) GetAllAnalysts() ([]*domain.Analyst, error) {
	return r.analysts, nil
}

func (r *fakeRepository) GetActiveConstraintsBetween(start, end time.Time) ([]*domain.Constraint, error) {
	return nil, nil
}

func (r *fakeRepository) GetSchedulesBetween(start, end time.Time) ([]*domain.ScheduleEntry, error) {
	return nil, nil
}

func (r *fakeRepository) GetRotationStates(algorithm string) ([]*domain.RotationState, error) {
	return r.states, nil
}

func (r *fakeRepository) AcceptGeneration(scope domain.ScheduleScope, entries []*domain.ScheduleEntry, gen *domain.GenerationState) error {
	r.acceptCalls++
	r.accepted = entries
	r.acceptedScope = scope
	r.acceptedGen = gen
	return nil
}

type fakeSchedulerStore struct {
	saved int
}

func (s *fakeSchedulerStore) GetRotationState(algorithm string, shiftType domain.ShiftType) (*domain.RotationState, error) {
	return nil, sql.ErrNoRows
}

func (s *fakeSchedulerStore) GetRotationCheckpointBefore(algorithm string, shiftType domain.ShiftType, week time.Time) (*domain.RotationState, error) {
	return nil, sql.ErrNoRows
}

func (s *fakeSchedulerStore) GetPatternContinuity(algorithm string) ([]*domain.PatternContinuity, error) {
	return nil, nil
}

func (s *fakeSchedulerStore) SaveGenerationState(gen *domain.GenerationState) error {
	s.saved++
	return nil
}

type fakeLedger struct {
	store     *fakeCompOffStore
	analystID int64
}

func (l *fakeLedger) Transactions() ([]*domain.CompOffTransaction, error) {
	return l.store.txns[l.analystID], nil
}

func (l *fakeLedger) Insert(t *domain.CompOffTransaction) error {
	l.store.nextID++
	t.ID = l.store.nextID
	l.store.txns[l.analystID] = append(l.store.txns[l.analystID], t)
	return nil
}

func (l *fakeLedger) HasWorkingScheduleOn(date time.Time) (bool, error) {
	return false, nil
}

func (l *fakeLedger) HasApprovedAbsenceOn(date time.Time) (bool, error) {
	return false, nil
}

type fakeCompOffStore struct {
	nextID int64
	txns   map[int64][]*domain.CompOffTransaction
}

func (s *fakeCompOffStore) WithAnalystLedger(analystID int64, fn func(compoff.Ledger) error) error {
	return fn(&fakeLedger{store: s, analystID: analystID})
}

func (s *fakeCompOffStore) ListCompOffTransactions(analystID int64) ([]*domain.CompOffTransaction, error) {
	return s.txns[analystID], nil
}

func (s *fakeCompOffStore) DeleteCompOffTransaction(id int64) error {
	for analystID, txns := range s.txns {
		for i, t := range txns {
			if t.ID == id {
				s.txns[analystID] = slices.Delete(txns, i, i+1)
				return nil
			}
		}
	}
	return sql.ErrNoRows
}

type fakePublisher struct {
	events []*domain.ScheduleAcceptedEvent
	err    error
}

func (p *fakePublisher) PublishScheduleAccepted(event *domain.ScheduleAcceptedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type testEnv struct {
	handler        *Handler
	repo           *fakeRepository
	schedulerStore *fakeSchedulerStore
	compOffStore   *fakeCompOffStore
	publisher      *fakePublisher
	locker         *runlock.Locker
	scheduler      *scheduler.Scheduler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.Scheduler.Algorithm = "STAGGERED_ROTATION"
	cfg.Scheduler.DefaultMaxGenerationDays = 366

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	collectors := metrics.New(registry)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		repo: &fakeRepository{analysts: []*domain.Analyst{
			{ID: 1, FullName: "王伟", ShiftType: domain.ShiftMorning, IsActive: true},
			{ID: 2, FullName: "李静", ShiftType: domain.ShiftMorning, IsActive: true},
			{ID: 3, FullName: "张磊", ShiftType: domain.ShiftMorning, IsActive: true},
		}},
		schedulerStore: &fakeSchedulerStore{},
		compOffStore:   &fakeCompOffStore{txns: map[int64][]*domain.CompOffTransaction{}},
		publisher:      &fakePublisher{},
		locker:         runlock.New(rdb, time.Minute),
	}
	env.scheduler = scheduler.New(cfg.Scheduler.Algorithm, env.schedulerStore, scheduler.DefaultWeights(), scheduler.Options{MaxDays: 366}, logger)

	h, err := NewHandler(
		cfg,
		env.repo,
		env.scheduler,
		compoff.NewService(env.compOffStore, collectors, logger),
		env.locker,
		env.publisher,
		collectors,
		registry,
	)
	require.NoError(t, err)
	h.RegisterRoutes()
	env.handler = h

	return env
}

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, testResponse) {
	t.Helper()

	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.handler.Mux.ServeHTTP(rec, req)

	var res testResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec.Code, res
}

var errBrokerDown = errors.New("broker down")
