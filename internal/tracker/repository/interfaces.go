package repository

import (
	"context"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

type UserRepository interface {
	FindByID(ctx context.Context, chatID int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	MarkRequestSent(ctx context.Context, chatID int64) error
	FindAdmins(ctx context.Context) ([]*models.User, error)
	// FindRequests возвращает пользователей, отправивших join и ожидающих решения.
	FindRequests(ctx context.Context) ([]*models.User, error)
	// FindBlocked возвращает заблокированных администратором, без учета новых пользователей.
	FindBlocked(ctx context.Context) ([]*models.User, error)
	FindActive(ctx context.Context) ([]*models.User, error)
	Stats(ctx context.Context) (*models.UserStats, error)
}

type SubscriptionRepository interface {
	// Replace заменяет все строки пользователя по маршруту новым набором дней.
	// existed сообщает, была ли подписка на маршрут до вызова.
	Replace(ctx context.Context, chatID int64, route models.Route, weekdays []time.Weekday, notifySeats bool) (existed bool, err error)
	// Delete удаляет подписки по маршрутам и возвращает маршруты, по которым что-то было удалено.
	Delete(ctx context.Context, chatID int64, routes []models.Route) ([]models.Route, error)
	DeleteAll(ctx context.Context, chatID int64) ([]models.Route, error)
	FindByChatID(ctx context.Context, chatID int64) ([]*models.Subscription, error)
	FindByRoute(ctx context.Context, route models.Route) ([]*models.Subscription, error)
	ActiveRoutes(ctx context.Context) ([]models.Route, error)
	RouteStatus(ctx context.Context) ([]models.RouteStatus, error)
}
