package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/central-university-dev/go-shuttle/internal/config"
	"github.com/central-university-dev/go-shuttle/internal/database"
	domainerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/internal/tracker/repository"
)

func seedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed initial data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "users <chat_id> <name> <admin> [<chat_id> <name> <admin>...]",
		Short: "Create or update active users",
		Long: `Every triple creates an active user. Existing users are updated in place,
so running the command twice is safe.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%3 != 0 {
				return fmt.Errorf("ожидаются тройки <chat_id> <name> <admin>, получено аргументов: %d", len(args))
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := parseSeedUsers(args)
			if err != nil {
				return err
			}

			return seedUsers(cmd.Context(), a, users)
		},
	})

	return cmd
}

// parseSeedUsers разбирает тройки аргументов в активных пользователей.
func parseSeedUsers(args []string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(args)/3)

	for i := 0; i+2 < len(args); i += 3 {
		chatID, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil {
			return nil, &domainerrors.ErrInvalidChatID{Value: args[i]}
		}

		admin, err := strconv.ParseBool(strings.ToLower(args[i+2]))
		if err != nil {
			return nil, fmt.Errorf("некорректный признак администратора %q: %w", args[i+2], err)
		}

		users = append(users, &models.User{
			ChatID: chatID,
			Name:   args[i+1],
			Admin:  admin,
		})
	}

	return users, nil
}

func seedUsers(ctx context.Context, a *app, users []*models.User) error {
	if a.cfg.DatabaseAccessType == config.MemoryAccess {
		return errors.New("заполнение пользователей требует базы данных, DATABASE_ACCESS_TYPE=MEMORY не поддерживается")
	}

	db, err := database.NewPostgresDB(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}
	defer db.Close()

	repo, err := repository.NewFactory(db, a.cfg, a.logger).CreateUserRepository()
	if err != nil {
		return err
	}

	for _, user := range users {
		err := repo.Create(ctx, user)

		var exists *domainerrors.ErrUserAlreadyExists
		if errors.As(err, &exists) {
			err = repo.Update(ctx, user)
		}

		if err != nil {
			return fmt.Errorf("не удалось сохранить пользователя %d: %w", user.ChatID, err)
		}

		a.logger.Info("Пользователь добавлен",
			"chatID", user.ChatID,
			"name", user.Name,
			"admin", user.Admin,
		)
	}

	return nil
}
