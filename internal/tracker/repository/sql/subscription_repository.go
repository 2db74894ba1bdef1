package sql

import (
	"context"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/database"
	customerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/pkg/txs"
	"github.com/jackc/pgx/v5"
)

type SubscriptionRepository struct {
	db        *database.PostgresDB
	txManager txs.Transactor
}

func NewSubscriptionRepository(db *database.PostgresDB, txManager txs.Transactor) *SubscriptionRepository {
	return &SubscriptionRepository{
		db:        db,
		txManager: txManager,
	}
}

func (r *SubscriptionRepository) Replace(
	ctx context.Context,
	chatID int64,
	route models.Route,
	weekdays []time.Weekday,
	notifySeats bool,
) (bool, error) {
	var existed bool

	err := r.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		querier := txs.GetQuerier(ctx, r.db.Pool)

		result, err := querier.Exec(ctx, "DELETE FROM routes WHERE chat_id = $1 AND route = $2", chatID, route.String())
		if err != nil {
			return &customerrors.ErrSQLExecution{Operation: customerrors.OpReplaceRoute, Cause: err}
		}

		existed = result.RowsAffected() > 0

		for _, day := range models.UniqueWeekdays(weekdays) {
			_, err := querier.Exec(ctx,
				"INSERT INTO routes (chat_id, route, day, seats) VALUES ($1, $2, $3, $4)",
				chatID, route.String(), day.String(), notifySeats)
			if err != nil {
				return &customerrors.ErrSQLExecution{Operation: customerrors.OpReplaceRoute, Cause: err}
			}
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return existed, nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, chatID int64, routes []models.Route) ([]models.Route, error) {
	names := make([]string, 0, len(routes))
	for _, route := range routes {
		names = append(names, route.String())
	}

	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		"DELETE FROM routes WHERE chat_id = $1 AND route = ANY($2) RETURNING route",
		chatID, names)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpDeleteRoutes, Cause: err}
	}

	return collectDistinctRoutes(rows, customerrors.OpDeleteRoutes)
}

func (r *SubscriptionRepository) DeleteAll(ctx context.Context, chatID int64) ([]models.Route, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx, "DELETE FROM routes WHERE chat_id = $1 RETURNING route", chatID)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpDeleteRoutes, Cause: err}
	}

	return collectDistinctRoutes(rows, customerrors.OpDeleteRoutes)
}

func (r *SubscriptionRepository) FindByChatID(ctx context.Context, chatID int64) ([]*models.Subscription, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		"SELECT chat_id, route, day, seats FROM routes WHERE chat_id = $1 ORDER BY route",
		chatID)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpListSubscriptions, Cause: err}
	}

	return scanSubscriptions(rows)
}

func (r *SubscriptionRepository) FindByRoute(ctx context.Context, route models.Route) ([]*models.Subscription, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		"SELECT chat_id, route, day, seats FROM routes WHERE route = $1 ORDER BY chat_id",
		route.String())
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpListSubscriptions, Cause: err}
	}

	return scanSubscriptions(rows)
}

func (r *SubscriptionRepository) ActiveRoutes(ctx context.Context) ([]models.Route, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx, "SELECT DISTINCT route FROM routes ORDER BY route")
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpRouteStatus, Cause: err}
	}

	return collectDistinctRoutes(rows, customerrors.OpRouteStatus)
}

func (r *SubscriptionRepository) RouteStatus(ctx context.Context) ([]models.RouteStatus, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		"SELECT route, COUNT(DISTINCT chat_id) FROM routes GROUP BY route ORDER BY route")
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpRouteStatus, Cause: err}
	}
	defer rows.Close()

	statuses := make([]models.RouteStatus, 0)

	for rows.Next() {
		var (
			route  string
			status models.RouteStatus
		)

		if err := rows.Scan(&route, &status.Subscribers); err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "статуса маршрута", Cause: err}
		}

		status.Route = models.Route(route)
		statuses = append(statuses, status)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpRouteStatus, Cause: err}
	}

	return statuses, nil
}

func scanSubscriptions(rows pgx.Rows) ([]*models.Subscription, error) {
	defer rows.Close()

	subs := make([]*models.Subscription, 0)

	for rows.Next() {
		var (
			sub   models.Subscription
			route string
			day   string
		)

		if err := rows.Scan(&sub.ChatID, &route, &day, &sub.NotifySeats); err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "подписки", Cause: err}
		}

		weekday, ok := models.ParseWeekday(day)
		if !ok {
			return nil, &customerrors.ErrSQLScan{Entity: "подписки", Cause: &customerrors.ErrUnknownWeekday{Value: day}}
		}

		sub.Route = models.Route(route)
		sub.Weekday = weekday
		subs = append(subs, &sub)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpListSubscriptions, Cause: err}
	}

	models.SortSubscriptions(subs)

	return subs, nil
}

func collectDistinctRoutes(rows pgx.Rows, operation string) ([]models.Route, error) {
	defer rows.Close()

	seen := make(map[string]struct{})
	routes := make([]models.Route, 0)

	for rows.Next() {
		var route string

		if err := rows.Scan(&route); err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "маршрута", Cause: err}
		}

		if _, ok := seen[route]; ok {
			continue
		}

		seen[route] = struct{}{}
		routes = append(routes, models.Route(route))
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: operation, Cause: err}
	}

	models.SortRoutes(routes)

	return routes, nil
}
