package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/internal/scheduler"
	"github.com/central-university-dev/go-shuttle/internal/scheduler/mocks"
	"github.com/central-university-dev/go-shuttle/internal/tracker/repository/memory"
	"github.com/central-university-dev/go-shuttle/internal/tracker/schedule"
)

const route = models.Route("Zurich-Work")

func snapshot(seats int) models.Snapshot {
	return models.Snapshot{"Monday 14.09.": {Seats: seats}}
}

type fixture struct {
	poller  *mocks.SchedulePoller
	handler *mocks.SnapshotHandler
	store   *schedule.Store
	subs    *memory.SubscriptionRepository
	fatal   atomic.Int32
	sched   *scheduler.RouteScheduler
}

func newFixture(t *testing.T, refresh time.Duration) *fixture {
	t.Helper()

	f := &fixture{
		poller:  mocks.NewSchedulePoller(t),
		handler: mocks.NewSnapshotHandler(t),
		store:   schedule.NewStore(),
		subs:    memory.NewSubscriptionRepository(),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f.sched = scheduler.NewRouteScheduler(f.poller, f.store, f.handler, f.subs, scheduler.Options{
		RefreshRate:      refresh,
		Retention:        14 * 24 * time.Hour,
		EvictionInterval: time.Hour,
	}, func(error) { f.fatal.Add(1) }, logger)

	require.NoError(t, f.sched.Start())
	t.Cleanup(f.sched.Stop)

	return f
}

func TestActivate_SeedsStoreAndIsIdempotent(t *testing.T) {
	f := newFixture(t, time.Hour)

	f.poller.On("Fetch", mock.Anything, route).Return(snapshot(0), nil).Once()

	require.NoError(t, f.sched.Activate(context.Background(), route, false))
	require.NoError(t, f.sched.Activate(context.Background(), route, false))

	assert.True(t, f.sched.IsActive(route))

	stored, ok := f.store.Snapshot(route)
	require.True(t, ok)
	assert.Equal(t, 0, stored["Monday 14.09."].Seats)
}

func TestActivate_FailureLeavesRouteInactive(t *testing.T) {
	f := newFixture(t, time.Hour)

	fetchErr := &domainerrors.ErrFetchFailed{Route: route.String(), Attempts: 3, Cause: errors.New("timeout")}
	f.poller.On("Fetch", mock.Anything, route).Return(nil, fetchErr).Once()

	err := f.sched.Activate(context.Background(), route, false)

	var activationErr *domainerrors.ErrRouteActivation

	require.ErrorAs(t, err, &activationErr)
	assert.Equal(t, route.String(), activationErr.Route)
	assert.Equal(t, scheduler.RouteInactive, f.sched.State(route))

	_, ok := f.store.Snapshot(route)
	assert.False(t, ok)
}

func TestActivate_AnnounceSendsInitialSnapshot(t *testing.T) {
	f := newFixture(t, time.Hour)

	f.poller.On("Fetch", mock.Anything, route).Return(snapshot(2), nil).Once()
	f.handler.On("HandleSnapshot", mock.Anything, route, models.Snapshot(nil), snapshot(2), true).Return(nil).Once()

	require.NoError(t, f.sched.Activate(context.Background(), route, true))
}

func TestRefresh_MergesAndHandlesChanges(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)

	f.poller.On("Fetch", mock.Anything, route).Return(snapshot(0), nil).Once()
	f.poller.On("Fetch", mock.Anything, route).Return(snapshot(3), nil)

	handled := make(chan struct{}, 10)

	f.handler.On("HandleSnapshot", mock.Anything, route, mock.Anything, snapshot(3), false).
		Run(func(args mock.Arguments) {
			handled <- struct{}{}
		}).
		Return(nil)

	require.NoError(t, f.sched.Activate(context.Background(), route, false))

	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("обновление маршрута не выполнено")
	}

	f.sched.Deactivate(route)

	stored, ok := f.store.Snapshot(route)
	assert.False(t, ok, "после деактивации расписание удаляется")
	assert.Nil(t, stored)
}

func TestRefresh_SessionExpiredIsFatal(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)

	f.poller.On("Fetch", mock.Anything, route).Return(snapshot(0), nil).Once()
	f.poller.On("Fetch", mock.Anything, route).Return(nil, &domainerrors.ErrSessionExpired{Route: route.String()})

	require.NoError(t, f.sched.Activate(context.Background(), route, false))

	assert.Eventually(t, func() bool {
		return f.fatal.Load() > 0
	}, 2*time.Second, 20*time.Millisecond)

	f.sched.Deactivate(route)
}

func TestActivateSubscribed(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	_, err := f.subs.Replace(ctx, 1, route, models.ServiceDays, true)
	require.NoError(t, err)
	_, err = f.subs.Replace(ctx, 1, "Work-Basel", models.ServiceDays, true)
	require.NoError(t, err)

	f.poller.On("Fetch", mock.Anything, models.Route("Work-Basel")).
		Return(nil, &domainerrors.ErrFetchFailed{Route: "Work-Basel", Attempts: 3, Cause: errors.New("boom")}).Once()
	f.poller.On("Fetch", mock.Anything, route).Return(snapshot(1), nil).Once()
	f.handler.On("HandleSnapshot", mock.Anything, route, models.Snapshot(nil), snapshot(1), true).Return(nil).Once()

	require.NoError(t, f.sched.ActivateSubscribed(ctx))

	assert.True(t, f.sched.IsActive(route))
	assert.False(t, f.sched.IsActive("Work-Basel"))
}

func TestActivateSubscribed_SessionExpiredAborts(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	_, err := f.subs.Replace(ctx, 1, route, models.ServiceDays, true)
	require.NoError(t, err)

	f.poller.On("Fetch", mock.Anything, route).Return(nil, &domainerrors.ErrSessionExpired{Route: route.String()}).Once()

	err = f.sched.ActivateSubscribed(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &domainerrors.ErrSessionExpired{}))
}

func TestRefresh_SkipsOverlappingFiring(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)

	var (
		inFlight    atomic.Int32
		maxInFlight atomic.Int32
		fetches     atomic.Int32
	)

	f.poller.On("Fetch", mock.Anything, route).Return(snapshot(0), nil).Once()
	f.poller.On("Fetch", mock.Anything, route).
		Run(func(mock.Arguments) {
			current := inFlight.Add(1)
			for {
				seen := maxInFlight.Load()
				if current <= seen || maxInFlight.CompareAndSwap(seen, current) {
					break
				}
			}

			time.Sleep(100 * time.Millisecond)
			inFlight.Add(-1)
			fetches.Add(1)
		}).
		Return(snapshot(0), nil)
	f.handler.On("HandleSnapshot", mock.Anything, route, mock.Anything, mock.Anything, false).Return(nil).Maybe()

	require.NoError(t, f.sched.Activate(context.Background(), route, false))

	require.Eventually(t, func() bool {
		return fetches.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	f.sched.Deactivate(route)

	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestDeactivate_StopsFetching(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)

	var fetches atomic.Int32

	f.poller.On("Fetch", mock.Anything, route).
		Run(func(mock.Arguments) { fetches.Add(1) }).
		Return(snapshot(0), nil)
	f.handler.On("HandleSnapshot", mock.Anything, route, mock.Anything, mock.Anything, false).Return(nil).Maybe()

	require.NoError(t, f.sched.Activate(context.Background(), route, false))

	require.Eventually(t, func() bool {
		return fetches.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	f.sched.Deactivate(route)
	assert.Equal(t, scheduler.RouteInactive, f.sched.State(route))

	stopped := fetches.Load()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, stopped, fetches.Load())

	_, ok := f.store.Snapshot(route)
	assert.False(t, ok)

	require.NoError(t, f.sched.Activate(context.Background(), route, false))
	assert.True(t, f.sched.IsActive(route))
	assert.Equal(t, stopped+1, fetches.Load())

	require.Eventually(t, func() bool {
		return fetches.Load() > stopped+1
	}, 2*time.Second, 10*time.Millisecond)
}
