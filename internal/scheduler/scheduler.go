package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/central-university-dev/go-shuttle/internal/common/metrics"
	domainerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/internal/tracker/schedule"
)

type SchedulePoller interface {
	Fetch(ctx context.Context, route models.Route) (models.Snapshot, error)
}

type SnapshotHandler interface {
	HandleSnapshot(ctx context.Context, route models.Route, previous, incoming models.Snapshot, initial bool) error
}

type RouteSource interface {
	ActiveRoutes(ctx context.Context) ([]models.Route, error)
}

type RouteState int

const (
	RouteInactive RouteState = iota
	RouteActivating
	RouteActive
)

const evictionTag = "eviction"

type Options struct {
	RefreshRate      time.Duration
	Retention        time.Duration
	EvictionInterval time.Duration
}

// RouteScheduler управляет жизненным циклом маршрутов: первая подписка активирует маршрут,
// после чего его расписание обновляется с периодом RefreshRate до деактивации.
type RouteScheduler struct {
	scheduler *gocron.Scheduler
	poller    SchedulePoller
	store     *schedule.Store
	handler   SnapshotHandler
	routes    RouteSource
	opts      Options
	onFatal   func(error)
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	states map[models.Route]RouteState
	guards map[models.Route]*sync.Mutex
}

// NewRouteScheduler принимает onFatal, который вызывается, когда источник отклонил сессию.
func NewRouteScheduler(
	poller SchedulePoller,
	store *schedule.Store,
	handler SnapshotHandler,
	routes RouteSource,
	opts Options,
	onFatal func(error),
	logger *slog.Logger,
) *RouteScheduler {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.TagsUnique()

	ctx, cancel := context.WithCancel(context.Background())

	return &RouteScheduler{
		scheduler: scheduler,
		poller:    poller,
		store:     store,
		handler:   handler,
		routes:    routes,
		opts:      opts,
		onFatal:   onFatal,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		states:    make(map[models.Route]RouteState),
		guards:    make(map[models.Route]*sync.Mutex),
	}
}

func (s *RouteScheduler) Start() error {
	s.logger.Info("Запуск планировщика маршрутов",
		"refreshRate", s.opts.RefreshRate.String(),
		"evictionInterval", s.opts.EvictionInterval.String(),
	)

	_, err := s.scheduler.Every(s.opts.EvictionInterval).
		Tag(evictionTag).
		SingletonMode().
		WaitForSchedule().
		Do(s.evict)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()

	return nil
}

// Stop прекращает запуск задач и дожидается выполняющихся.
func (s *RouteScheduler) Stop() {
	s.logger.Info("Остановка планировщика маршрутов")
	s.scheduler.Stop()
	s.cancel()
}

// ActivateSubscribed активирует все маршруты, на которые есть подписки, и сразу сообщает
// подписчикам о свободных местах. Ошибка возвращается только при истекшей сессии.
func (s *RouteScheduler) ActivateSubscribed(ctx context.Context) error {
	routes, err := s.routes.ActiveRoutes(ctx)
	if err != nil {
		return err
	}

	for _, route := range routes {
		if err := s.Activate(ctx, route, true); err != nil {
			if errors.Is(err, &domainerrors.ErrSessionExpired{}) {
				return err
			}

			s.logger.Error("Не удалось активировать маршрут при запуске",
				"error", err,
				"route", route,
			)
		}
	}

	return nil
}

// Activate загружает начальное расписание и ставит маршрут на периодический опрос.
// Повторная активация активного маршрута ничего не делает.
func (s *RouteScheduler) Activate(ctx context.Context, route models.Route, announce bool) error {
	guard := s.guard(route)
	guard.Lock()
	defer guard.Unlock()

	if s.State(route) == RouteActive {
		return nil
	}

	s.setState(route, RouteActivating)

	snapshot, err := s.poller.Fetch(ctx, route)
	if err != nil {
		s.setState(route, RouteInactive)
		return &domainerrors.ErrRouteActivation{Route: route.String(), Cause: err}
	}

	s.store.Seed(route, snapshot)

	_, err = s.scheduler.Every(s.opts.RefreshRate).
		Tag(route.String()).
		SingletonMode().
		WaitForSchedule().
		Do(s.refresh, route)
	if err != nil {
		s.store.Remove(route)
		s.setState(route, RouteInactive)

		return &domainerrors.ErrRouteActivation{Route: route.String(), Cause: err}
	}

	s.setState(route, RouteActive)

	s.logger.Info("Маршрут активирован",
		"route", route,
		"days", len(snapshot),
	)

	if announce {
		if err := s.handler.HandleSnapshot(ctx, route, nil, snapshot, true); err != nil {
			s.logger.Error("Ошибка при рассылке начального расписания",
				"error", err,
				"route", route,
			)
		}
	}

	return nil
}

// Deactivate снимает маршрут с опроса и удаляет его расписание.
func (s *RouteScheduler) Deactivate(route models.Route) {
	guard := s.guard(route)
	guard.Lock()
	defer guard.Unlock()

	if s.State(route) == RouteInactive {
		return
	}

	if err := s.scheduler.RemoveByTag(route.String()); err != nil {
		s.logger.Warn("Задача маршрута не найдена",
			"error", err,
			"route", route,
		)
	}

	s.store.Remove(route)
	s.setState(route, RouteInactive)

	s.logger.Info("Маршрут деактивирован", "route", route)
}

func (s *RouteScheduler) State(route models.Route) RouteState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.states[route]
}

func (s *RouteScheduler) IsActive(route models.Route) bool {
	return s.State(route) == RouteActive
}

// Snapshot возвращает последнее известное расписание маршрута.
func (s *RouteScheduler) Snapshot(route models.Route) (models.Snapshot, bool) {
	return s.store.Snapshot(route)
}

func (s *RouteScheduler) refresh(route models.Route) {
	guard := s.guard(route)
	if !guard.TryLock() {
		s.logger.Debug("Предыдущий опрос маршрута еще выполняется, пропускаем", "route", route)
		return
	}
	defer guard.Unlock()

	if s.State(route) != RouteActive {
		return
	}

	snapshot, err := s.poller.Fetch(s.ctx, route)
	if err != nil {
		if errors.Is(err, &domainerrors.ErrSessionExpired{}) {
			s.logger.Error("Сессия источника расписания истекла", "route", route)

			if s.onFatal != nil {
				s.onFatal(err)
			}

			return
		}

		s.logger.Warn("Не удалось обновить расписание, остается прежнее",
			"error", err,
			"route", route,
		)

		return
	}

	previous := s.store.Merge(route, snapshot)

	if err := s.handler.HandleSnapshot(s.ctx, route, previous, snapshot, false); err != nil {
		s.logger.Error("Ошибка при обработке изменений расписания",
			"error", err,
			"route", route,
		)
	}
}

func (s *RouteScheduler) evict() {
	removed := s.store.Evict(s.opts.Retention, time.Now())
	metrics.RecordEviction(removed)

	s.logger.Info("Очистка устаревших дат расписания", "removed", removed)
}

func (s *RouteScheduler) guard(route models.Route) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	guard, ok := s.guards[route]
	if !ok {
		guard = &sync.Mutex{}
		s.guards[route] = guard
	}

	return guard
}

func (s *RouteScheduler) setState(route models.Route, state RouteState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state == RouteInactive {
		delete(s.states, route)
	} else {
		s.states[route] = state
	}

	active := 0

	for _, st := range s.states {
		if st == RouteActive {
			active++
		}
	}

	metrics.SetActiveRoutes(active)
}
