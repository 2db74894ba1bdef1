package orm

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/central-university-dev/go-shuttle/internal/database"
	customerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/pkg/txs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var userColumns = []string{"chat_id", "name", "admin", "blocked", "pending", "request_sent"}

type UserRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewUserRepository(db *database.PostgresDB) *UserRepository {
	return &UserRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, chatID int64) (*models.User, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select(userColumns...).
		From("users").
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: customerrors.OpFindUser, Cause: err}
	}

	var user models.User

	err = querier.QueryRow(ctx, query, args...).
		Scan(&user.ChatID, &user.Name, &user.Admin, &user.Blocked, &user.Pending, &user.RequestSent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrUserNotFound{ChatID: chatID}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpFindUser, Cause: err}
	}

	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Insert("users").
		Columns(userColumns...).
		Values(user.ChatID, user.Name, user.Admin, user.Blocked, user.Pending, user.RequestSent).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: customerrors.OpCreateUser, Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &customerrors.ErrUserAlreadyExists{ChatID: user.ChatID}
		}

		return &customerrors.ErrSQLExecution{Operation: customerrors.OpCreateUser, Cause: err}
	}

	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.update(ctx, user.ChatID, r.sq.Update("users").
		Set("name", user.Name).
		Set("admin", user.Admin).
		Set("blocked", user.Blocked).
		Set("pending", user.Pending).
		Set("request_sent", user.RequestSent))
}

func (r *UserRepository) MarkRequestSent(ctx context.Context, chatID int64) error {
	return r.update(ctx, chatID, r.sq.Update("users").Set("request_sent", true))
}

func (r *UserRepository) update(ctx context.Context, chatID int64, builder sq.UpdateBuilder) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := builder.Where(sq.Eq{"chat_id": chatID}).ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: customerrors.OpUpdateUser, Cause: err}
	}

	result, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: customerrors.OpUpdateUser, Cause: err}
	}

	if result.RowsAffected() == 0 {
		return &customerrors.ErrUserNotFound{ChatID: chatID}
	}

	return nil
}

func (r *UserRepository) FindAdmins(ctx context.Context) ([]*models.User, error) {
	return r.findWhere(ctx, sq.Eq{"admin": true})
}

func (r *UserRepository) FindRequests(ctx context.Context) ([]*models.User, error) {
	return r.findWhere(ctx, sq.Eq{"pending": true, "request_sent": true})
}

func (r *UserRepository) FindBlocked(ctx context.Context) ([]*models.User, error) {
	return r.findWhere(ctx, sq.Eq{"blocked": true, "pending": false})
}

func (r *UserRepository) FindActive(ctx context.Context) ([]*models.User, error) {
	return r.findWhere(ctx, sq.Eq{"blocked": false})
}

func (r *UserRepository) Stats(ctx context.Context) (*models.UserStats, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE blocked)",
		"COUNT(*) FILTER (WHERE pending)",
		"COUNT(*) FILTER (WHERE request_sent)",
		"COUNT(*) FILTER (WHERE admin)",
	).From("users").ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: customerrors.OpUserStats, Cause: err}
	}

	var stats models.UserStats

	err = querier.QueryRow(ctx, query, args...).
		Scan(&stats.Total, &stats.Blocked, &stats.Pending, &stats.RequestSent, &stats.Admins)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpUserStats, Cause: err}
	}

	return &stats, nil
}

func (r *UserRepository) findWhere(ctx context.Context, condition sq.Eq) ([]*models.User, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select(userColumns...).
		From("users").
		Where(condition).
		OrderBy("chat_id").
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: customerrors.OpListUsers, Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpListUsers, Cause: err}
	}
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		var user models.User

		if err := rows.Scan(&user.ChatID, &user.Name, &user.Admin, &user.Blocked, &user.Pending, &user.RequestSent); err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "пользователя", Cause: err}
		}

		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpListUsers, Cause: err}
	}

	return users, nil
}
