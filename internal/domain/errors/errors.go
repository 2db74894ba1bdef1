package errors

import (
	"errors"
	"fmt"
)

// ErrSessionExpired означает, что источник расписания отклонил cookie сессии.
// Повтор запроса не поможет, сервис должен остановиться.
type ErrSessionExpired struct {
	Route string
}

func (e *ErrSessionExpired) Error() string {
	if e.Route == "" {
		return "сессия источника расписания истекла"
	}

	return "сессия источника расписания истекла при запросе маршрута " + e.Route
}

func (e *ErrSessionExpired) Is(target error) bool {
	_, ok := target.(*ErrSessionExpired)
	return ok
}

type ErrFetchFailed struct {
	Route    string
	Attempts int
	Cause    error
}

func (e *ErrFetchFailed) Error() string {
	return fmt.Sprintf("не удалось получить расписание маршрута %s за %d попыток: %v", e.Route, e.Attempts, e.Cause)
}

func (e *ErrFetchFailed) Unwrap() error {
	return e.Cause
}

type ErrScheduleFormat struct {
	Message string
}

func (e *ErrScheduleFormat) Error() string {
	return "некорректный формат расписания: " + e.Message
}

type ErrUnknownDayLabel struct {
	Label string
}

func (e *ErrUnknownDayLabel) Error() string {
	return fmt.Sprintf("неизвестная метка дня в расписании: %q", e.Label)
}

type ErrRouteActivation struct {
	Route string
	Cause error
}

func (e *ErrRouteActivation) Error() string {
	return fmt.Sprintf("не удалось активировать маршрут %s: %v", e.Route, e.Cause)
}

func (e *ErrRouteActivation) Unwrap() error {
	return e.Cause
}

type ErrUnknownDestination struct {
	Token string
}

func (e *ErrUnknownDestination) Error() string {
	return "неизвестное направление: " + e.Token
}

func (e *ErrUnknownDestination) validation() {}

type ErrUnknownWeekday struct {
	Value string
}

func (e *ErrUnknownWeekday) Error() string {
	return "неизвестный день недели: " + e.Value
}

func (e *ErrUnknownWeekday) validation() {}

type ErrInvalidSeatsFlag struct {
	Value string
}

func (e *ErrInvalidSeatsFlag) Error() string {
	return "некорректное значение параметра seats: " + e.Value
}

func (e *ErrInvalidSeatsFlag) validation() {}

type ErrUnknownParameter struct {
	Name string
}

func (e *ErrUnknownParameter) Error() string {
	return "неизвестный параметр: " + e.Name
}

func (e *ErrUnknownParameter) validation() {}

type ErrInvalidChatID struct {
	Value string
}

func (e *ErrInvalidChatID) Error() string {
	return "некорректный идентификатор чата: " + e.Value
}

func (e *ErrInvalidChatID) validation() {}

// IsValidation сообщает, что ошибка вызвана вводом пользователя и должна вернуться ему ответом.
func IsValidation(err error) bool {
	var v interface{ validation() }
	return errors.As(err, &v)
}

type ErrUserNotFound struct {
	ChatID int64
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("пользователь не найден: %d", e.ChatID)
}

func (e *ErrUserNotFound) Is(target error) bool {
	_, ok := target.(*ErrUserNotFound)
	return ok
}

type ErrUserAlreadyExists struct {
	ChatID int64
}

func (e *ErrUserAlreadyExists) Error() string {
	return fmt.Sprintf("пользователь с ID %d уже существует", e.ChatID)
}

type ErrInvalidDestinations struct {
	Message string
}

func (e *ErrInvalidDestinations) Error() string {
	return "некорректный каталог направлений: " + e.Message
}

type ErrUnknownDBAccessType struct {
	AccessType string
}

func (e *ErrUnknownDBAccessType) Error() string {
	return fmt.Sprintf("неизвестный тип доступа к базе данных: %s", e.AccessType)
}

type ErrUnknownTransport struct {
	Transport string
}

func (e *ErrUnknownTransport) Error() string {
	return fmt.Sprintf("неизвестный транспорт сообщений: %s", e.Transport)
}

type ErrBeginTransaction struct {
	Cause error
}

func (e *ErrBeginTransaction) Error() string {
	return fmt.Sprintf("ошибка при начале транзакции: %v", e.Cause)
}

func (e *ErrBeginTransaction) Unwrap() error {
	return e.Cause
}

type ErrCommitTransaction struct {
	Cause error
}

func (e *ErrCommitTransaction) Error() string {
	return fmt.Sprintf("ошибка при фиксации транзакции: %v", e.Cause)
}

func (e *ErrCommitTransaction) Unwrap() error {
	return e.Cause
}

type ErrRollbackTransaction struct {
	Cause         error
	RollbackCause error
}

func (e *ErrRollbackTransaction) Error() string {
	return fmt.Sprintf("ошибка в транзакции: %v, ошибка rollback: %v", e.Cause, e.RollbackCause)
}

func (e *ErrRollbackTransaction) Unwrap() error {
	return e.Cause
}

type ErrBuildSQLQuery struct {
	Operation string
	Cause     error
}

func (e *ErrBuildSQLQuery) Error() string {
	return fmt.Sprintf("ошибка при построении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrBuildSQLQuery) Unwrap() error {
	return e.Cause
}

type ErrSQLExecution struct {
	Operation string
	Cause     error
}

func (e *ErrSQLExecution) Error() string {
	return fmt.Sprintf("ошибка при выполнении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrSQLExecution) Unwrap() error {
	return e.Cause
}

type ErrSQLScan struct {
	Entity string
	Cause  error
}

func (e *ErrSQLScan) Error() string {
	return fmt.Sprintf("ошибка при сканировании %s: %v", e.Entity, e.Cause)
}

func (e *ErrSQLScan) Unwrap() error {
	return e.Cause
}

const (
	OpFindUser          = "find_user"
	OpCreateUser        = "create_user"
	OpUpdateUser        = "update_user"
	OpListUsers         = "list_users"
	OpUserStats         = "user_stats"
	OpReplaceRoute      = "replace_subscription"
	OpDeleteRoutes      = "delete_subscriptions"
	OpListSubscriptions = "list_subscriptions"
	OpRouteStatus       = "route_status"
)

// ErrMissingChatIDInMessage возникает, когда в исходящем сообщении из Kafka нет получателя.
type ErrMissingChatIDInMessage struct{}

func (e *ErrMissingChatIDInMessage) Error() string {
	return "отсутствует обязательное поле chatId в исходящем сообщении"
}

func (e *ErrMissingChatIDInMessage) Is(target error) bool {
	_, ok := target.(*ErrMissingChatIDInMessage)
	return ok
}

type ErrEmptyMessageText struct{}

func (e *ErrEmptyMessageText) Error() string {
	return "пустой текст исходящего сообщения"
}

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}
