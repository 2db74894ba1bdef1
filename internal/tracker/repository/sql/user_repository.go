package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/central-university-dev/go-shuttle/internal/database"
	customerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/pkg/txs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = "chat_id, name, admin, blocked, pending, request_sent"

type UserRepository struct {
	db *database.PostgresDB
}

func NewUserRepository(db *database.PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, chatID int64) (*models.User, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	row := querier.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE chat_id = $1", chatID)

	var user models.User

	err := row.Scan(&user.ChatID, &user.Name, &user.Admin, &user.Blocked, &user.Pending, &user.RequestSent)
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

	_, err := querier.Exec(ctx,
		"INSERT INTO users ("+userColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
		user.ChatID, user.Name, user.Admin, user.Blocked, user.Pending, user.RequestSent)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &customerrors.ErrUserAlreadyExists{ChatID: user.ChatID}
		}

		return &customerrors.ErrSQLExecution{Operation: customerrors.OpCreateUser, Cause: err}
	}

	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	result, err := querier.Exec(ctx, `
		UPDATE users
		SET name = $2, admin = $3, blocked = $4, pending = $5, request_sent = $6
		WHERE chat_id = $1
	`, user.ChatID, user.Name, user.Admin, user.Blocked, user.Pending, user.RequestSent)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: customerrors.OpUpdateUser, Cause: err}
	}

	if result.RowsAffected() == 0 {
		return &customerrors.ErrUserNotFound{ChatID: user.ChatID}
	}

	return nil
}

func (r *UserRepository) MarkRequestSent(ctx context.Context, chatID int64) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	result, err := querier.Exec(ctx, "UPDATE users SET request_sent = TRUE WHERE chat_id = $1", chatID)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: customerrors.OpUpdateUser, Cause: err}
	}

	if result.RowsAffected() == 0 {
		return &customerrors.ErrUserNotFound{ChatID: chatID}
	}

	return nil
}

func (r *UserRepository) FindAdmins(ctx context.Context) ([]*models.User, error) {
	return r.findWhere(ctx, "admin = TRUE")
}

func (r *UserRepository) FindRequests(ctx context.Context) ([]*models.User, error) {
	return r.findWhere(ctx, "pending = TRUE AND request_sent = TRUE")
}

func (r *UserRepository) FindBlocked(ctx context.Context) ([]*models.User, error) {
	return r.findWhere(ctx, "blocked = TRUE AND pending = FALSE")
}

func (r *UserRepository) FindActive(ctx context.Context) ([]*models.User, error) {
	return r.findWhere(ctx, "blocked = FALSE")
}

func (r *UserRepository) Stats(ctx context.Context) (*models.UserStats, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	row := querier.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE blocked),
			COUNT(*) FILTER (WHERE pending),
			COUNT(*) FILTER (WHERE request_sent),
			COUNT(*) FILTER (WHERE admin)
		FROM users
	`)

	var stats models.UserStats

	if err := row.Scan(&stats.Total, &stats.Blocked, &stats.Pending, &stats.RequestSent, &stats.Admins); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: customerrors.OpUserStats, Cause: err}
	}

	return &stats, nil
}

func (r *UserRepository) findWhere(ctx context.Context, condition string) ([]*models.User, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx, fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY chat_id", userColumns, condition))
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
