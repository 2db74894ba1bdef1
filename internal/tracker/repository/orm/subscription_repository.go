package orm

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/central-university-dev/go-shuttle/internal/database"
	customerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/pkg/txs"
	"github.com/jackc/pgx/v5"
)

type SubscriptionRepository struct {
	db        *database.PostgresDB
	sq        sq.StatementBuilderType
	txManager txs.Transactor
}

func NewSubscriptionRepository(db *database.PostgresDB, txManager txs.Transactor) *SubscriptionRepository {
	return &SubscriptionRepository{
		db:        db,
		sq:        sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
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

		query, args, err := r.sq.Delete("routes").
			Where(sq.Eq{"chat_id": chatID, "route": route.String()}).
			ToSql()
		if err != nil {
			return &customerrors.ErrBuildSQLQuery{Operation: customerrors.OpReplaceRoute, Cause: err}
		}

		result, err := querier.Exec(ctx, query, args...)
		if err != nil {
			return &customerrors.ErrSQLExecution{Operation: customerrors.OpReplaceRoute, Cause: err}
		}

		existed = result.RowsAffected() > 0

		if len(weekdays) == 0 {
			return nil
		}

		insert := r.sq.Insert("routes").Columns("chat_id", "route", "day", "seats")
		for _, day := range models.UniqueWeekdays(weekdays) {
			insert = insert.Values(chatID, route.String(), day.String(), notifySeats)
		}

		query, args, err = insert.ToSql()
		if err != nil {
			return &customerrors.ErrBuildSQLQuery{Operation: customerrors.OpReplaceRoute, Cause: err}
		}

		if _, err := querier.Exec(ctx, query, args...); err != nil {
			return &customerrors.ErrSQLExecution{Operation: customerrors.OpReplaceRoute, Cause: err}
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

	return r.deleteWhere(ctx, sq.Eq{"chat_id": chatID, "route": names})
}

func (r *SubscriptionRepository) DeleteAll(ctx context.Context, chatID int64) ([]models.Route, error) {
	return r.deleteWhere(ctx, sq.Eq{"chat_id": chatID})
}

func (r *SubscriptionRepository) deleteWhere(ctx context.Context, condition sq.Eq) ([]models.Route, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Delete("routes").
		Where(condition).
		Suffix("RETURNING route").
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: customerrors.OpDeleteRoutes, Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpDeleteRoutes, Cause: err}
	}

	return r.collectRoutes(rows, customerrors.OpDeleteRoutes)
}

func (r *SubscriptionRepository) FindByChatID(ctx context.Context, chatID int64) ([]*models.Subscription, error) {
	return r.findWhere(ctx, sq.Eq{"chat_id": chatID})
}

func (r *SubscriptionRepository) FindByRoute(ctx context.Context, route models.Route) ([]*models.Subscription, error) {
	return r.findWhere(ctx, sq.Eq{"route": route.String()})
}

func (r *SubscriptionRepository) findWhere(ctx context.Context, condition sq.Eq) ([]*models.Subscription, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select("chat_id", "route", "day", "seats").
		From("routes").
		Where(condition).
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: customerrors.OpListSubscriptions, Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpListSubscriptions, Cause: err}
	}
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

func (r *SubscriptionRepository) ActiveRoutes(ctx context.Context) ([]models.Route, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select("route").
		Distinct().
		From("routes").
		OrderBy("route").
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: customerrors.OpRouteStatus, Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpRouteStatus, Cause: err}
	}

	return r.collectRoutes(rows, customerrors.OpRouteStatus)
}

func (r *SubscriptionRepository) RouteStatus(ctx context.Context) ([]models.RouteStatus, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select("route", "COUNT(DISTINCT chat_id)").
		From("routes").
		GroupBy("route").
		OrderBy("route").
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: customerrors.OpRouteStatus, Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
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

func (r *SubscriptionRepository) collectRoutes(rows pgx.Rows, operation string) ([]models.Route, error) {
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
