package repository_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/central-university-dev/go-shuttle/internal/config"
	"github.com/central-university-dev/go-shuttle/internal/database"
	customerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/internal/tracker/repository"
)

func setupTestDatabase(ctx context.Context, logger *slog.Logger) (*database.PostgresDB, func(), error) {
	dbName := "testdb"
	dbUser := "testuser"
	dbPassword := "testpassword"

	container, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось запустить контейнер postgres: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось получить строку подключения: %w", err)
	}

	migrationsPath, _ := filepath.Abs("../../../migrations")

	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось создать экземпляр migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, nil, fmt.Errorf("не удалось применить миграции: %w", err)
	}

	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		return nil, nil, fmt.Errorf("ошибка закрытия migrate: %v, %v", sourceErr, dbErr)
	}

	db, err := database.NewPostgresDB(ctx, &config.Config{DatabaseURL: dsn, DatabaseMaxConn: 5}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось подключиться к тестовой БД: %w", err)
	}

	cleanup := func() {
		db.Close()

		if err := container.Terminate(ctx); err != nil {
			logger.Error("Не удалось остановить контейнер postgres", "error", err)
		}
	}

	return db, cleanup, nil
}

type repositories struct {
	users repository.UserRepository
	subs  repository.SubscriptionRepository
}

// newRepositories очищает таблицы и создает свежий набор репозиториев.
func newRepositories(t *testing.T, db *database.PostgresDB, accessType config.AccessType) repositories {
	t.Helper()

	if db != nil {
		for _, table := range []string{"routes", "users"} {
			_, err := db.Pool.Exec(context.Background(), "DELETE FROM "+table)
			require.NoErrorf(t, err, "Failed to clear table %s", table)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := repository.NewFactory(db, &config.Config{DatabaseAccessType: accessType}, logger)

	txManager, err := factory.CreateTransactor()
	require.NoError(t, err)

	users, err := factory.CreateUserRepository()
	require.NoError(t, err)

	subs, err := factory.CreateSubscriptionRepository(txManager)
	require.NoError(t, err)

	return repositories{users: users, subs: subs}
}

func runRepositoryContract(t *testing.T, newRepos func(t *testing.T) repositories) {
	t.Helper()

	ctx := context.Background()

	t.Run("UserRepository Create and FindByID", func(t *testing.T) {
		repos := newRepos(t)

		user := models.NewPendingUser(100, "Alice")
		require.NoError(t, repos.users.Create(ctx, user))

		found, err := repos.users.FindByID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, *user, *found)

		err = repos.users.Create(ctx, user)
		require.Error(t, err)
		assert.IsType(t, &customerrors.ErrUserAlreadyExists{}, err)

		_, err = repos.users.FindByID(ctx, 101)
		require.Error(t, err)
		assert.True(t, errors.Is(err, &customerrors.ErrUserNotFound{}))
	})

	t.Run("UserRepository Update and listings", func(t *testing.T) {
		repos := newRepos(t)

		admin := &models.User{ChatID: 1, Name: "Admin", Admin: true}
		member := &models.User{ChatID: 2, Name: "Member"}
		requester := models.NewPendingUser(3, "Requester")
		newcomer := models.NewPendingUser(4, "Newcomer")
		banned := &models.User{ChatID: 5, Name: "Banned", Blocked: true}

		for _, u := range []*models.User{admin, member, requester, newcomer, banned} {
			require.NoError(t, repos.users.Create(ctx, u))
		}

		require.NoError(t, repos.users.MarkRequestSent(ctx, 3))

		admins, err := repos.users.FindAdmins(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, chatIDs(admins))

		requests, err := repos.users.FindRequests(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{3}, chatIDs(requests))

		blocked, err := repos.users.FindBlocked(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{5}, chatIDs(blocked))

		active, err := repos.users.FindActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, chatIDs(active))

		stats, err := repos.users.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.UserStats{Total: 5, Blocked: 3, Pending: 2, RequestSent: 1, Admins: 1}, *stats)

		banned.Blocked = false
		require.NoError(t, repos.users.Update(ctx, banned))

		found, err := repos.users.FindByID(ctx, 5)
		require.NoError(t, err)
		assert.False(t, found.Blocked)

		err = repos.users.Update(ctx, &models.User{ChatID: 999})
		assert.True(t, errors.Is(err, &customerrors.ErrUserNotFound{}))

		err = repos.users.MarkRequestSent(ctx, 999)
		assert.True(t, errors.Is(err, &customerrors.ErrUserNotFound{}))
	})

	t.Run("SubscriptionRepository Replace keeps one row per day", func(t *testing.T) {
		repos := newRepos(t)

		existed, err := repos.subs.Replace(ctx, 7, "Zurich-Work", []time.Weekday{time.Monday, time.Wednesday}, true)
		require.NoError(t, err)
		assert.False(t, existed)

		existed, err = repos.subs.Replace(ctx, 7, "Zurich-Work", []time.Weekday{time.Tuesday}, false)
		require.NoError(t, err)
		assert.True(t, existed)

		subs, err := repos.subs.FindByChatID(ctx, 7)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, models.Subscription{ChatID: 7, Route: "Zurich-Work", Weekday: time.Tuesday}, *subs[0])
	})

	t.Run("SubscriptionRepository Replace ignores repeated weekdays", func(t *testing.T) {
		repos := newRepos(t)

		_, err := repos.subs.Replace(ctx, 8, "Work-Baden", []time.Weekday{time.Monday, time.Monday, time.Friday}, true)
		require.NoError(t, err)

		subs, err := repos.subs.FindByChatID(ctx, 8)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.ElementsMatch(t, []time.Weekday{time.Monday, time.Friday}, []time.Weekday{subs[0].Weekday, subs[1].Weekday})
	})

	t.Run("SubscriptionRepository route queries", func(t *testing.T) {
		repos := newRepos(t)

		_, err := repos.subs.Replace(ctx, 1, "Zurich-Work", models.ServiceDays, true)
		require.NoError(t, err)
		_, err = repos.subs.Replace(ctx, 2, "Zurich-Work", []time.Weekday{time.Friday}, false)
		require.NoError(t, err)
		_, err = repos.subs.Replace(ctx, 2, "Work-Basel", []time.Weekday{time.Monday}, true)
		require.NoError(t, err)

		byRoute, err := repos.subs.FindByRoute(ctx, "Zurich-Work")
		require.NoError(t, err)
		assert.Len(t, byRoute, 6)
		assert.Equal(t, int64(1), byRoute[0].ChatID)
		assert.Equal(t, time.Monday, byRoute[0].Weekday)

		active, err := repos.subs.ActiveRoutes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.Route{"Work-Basel", "Zurich-Work"}, active)

		status, err := repos.subs.RouteStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.RouteStatus{
			{Route: "Work-Basel", Subscribers: 1},
			{Route: "Zurich-Work", Subscribers: 2},
		}, status)
	})

	t.Run("SubscriptionRepository Delete and DeleteAll", func(t *testing.T) {
		repos := newRepos(t)

		_, err := repos.subs.Replace(ctx, 3, "Zurich-Work", []time.Weekday{time.Monday}, true)
		require.NoError(t, err)
		_, err = repos.subs.Replace(ctx, 3, "Work-Zurich", []time.Weekday{time.Monday, time.Tuesday}, true)
		require.NoError(t, err)
		_, err = repos.subs.Replace(ctx, 3, "Work-Basel", []time.Weekday{time.Monday}, true)
		require.NoError(t, err)

		removed, err := repos.subs.Delete(ctx, 3, []models.Route{"Work-Zurich", "Basel-Work"})
		require.NoError(t, err)
		assert.Equal(t, []models.Route{"Work-Zurich"}, removed)

		removed, err = repos.subs.DeleteAll(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, []models.Route{"Work-Basel", "Zurich-Work"}, removed)

		subs, err := repos.subs.FindByChatID(ctx, 3)
		require.NoError(t, err)
		assert.Empty(t, subs)

		removed, err = repos.subs.DeleteAll(ctx, 3)
		require.NoError(t, err)
		assert.Empty(t, removed)
	})
}

func chatIDs(users []*models.User) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ChatID)
	}

	return ids
}

func TestRepository_Memory(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) repositories {
		return newRepositories(t, nil, config.MemoryAccess)
	})
}

func TestRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, cleanup, err := setupTestDatabase(ctx, logger)
	require.NoError(t, err, "Ошибка настройки тестовой базы данных")

	defer cleanup()

	t.Run("SQL Implementation", func(t *testing.T) {
		runRepositoryContract(t, func(t *testing.T) repositories {
			return newRepositories(t, db, config.SQLAccess)
		})
	})
	t.Run("Squirrel Implementation", func(t *testing.T) {
		runRepositoryContract(t, func(t *testing.T) repositories {
			return newRepositories(t, db, config.SquirrelAccess)
		})
	})
}

func TestFactory_UnknownAccessType(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := repository.NewFactory(nil, &config.Config{DatabaseAccessType: "MONGO"}, logger)

	_, err := factory.CreateUserRepository()
	assert.IsType(t, &customerrors.ErrUnknownDBAccessType{}, err)

	_, err = factory.CreateTransactor()
	assert.IsType(t, &customerrors.ErrUnknownDBAccessType{}, err)
}
