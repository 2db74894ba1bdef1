package repository

import (
	"log/slog"

	"github.com/central-university-dev/go-shuttle/internal/config"
	"github.com/central-university-dev/go-shuttle/internal/database"
	"github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/tracker/repository/memory"
	"github.com/central-university-dev/go-shuttle/internal/tracker/repository/orm"
	sqlrepo "github.com/central-university-dev/go-shuttle/internal/tracker/repository/sql"
	"github.com/central-university-dev/go-shuttle/pkg/txs"
)

type Factory struct {
	db     *database.PostgresDB
	config *config.Config
	logger *slog.Logger
}

// NewFactory принимает nil вместо db, если выбран доступ MEMORY.
func NewFactory(db *database.PostgresDB, config *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		db:     db,
		config: config,
		logger: logger,
	}
}

func (f *Factory) CreateTransactor() (txs.Transactor, error) {
	switch f.config.DatabaseAccessType {
	case config.SQLAccess, config.SquirrelAccess:
		return txs.NewTxManager(f.db.Pool, f.logger), nil
	case config.MemoryAccess:
		return txs.NopTransactor{}, nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateUserRepository() (UserRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория пользователей")
		return orm.NewUserRepository(f.db), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория пользователей")
		return sqlrepo.NewUserRepository(f.db), nil
	case config.MemoryAccess:
		f.logger.Warn("Создание репозитория пользователей в памяти, данные не переживут перезапуск")
		return memory.NewUserRepository(), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateSubscriptionRepository(txManager txs.Transactor) (SubscriptionRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория подписок")
		return orm.NewSubscriptionRepository(f.db, txManager), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория подписок")
		return sqlrepo.NewSubscriptionRepository(f.db, txManager), nil
	case config.MemoryAccess:
		f.logger.Warn("Создание репозитория подписок в памяти, данные не переживут перезапуск")
		return memory.NewSubscriptionRepository(), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}
