package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/central-university-dev/go-shuttle/internal/common/middleware"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

type WebhookOptions struct {
	Port            int
	Secret          string
	CertificatePath string
	PrivateKeyPath  string
}

// WebhookServer принимает обновления Telegram по HTTPS. Ответ 200 отправляется до обработки
// команды, обработка идет в отдельной горутине.
type WebhookServer struct {
	server  *http.Server
	handler MessageHandler
	opts    WebhookOptions
	wg      sync.WaitGroup
	logger  *slog.Logger
}

func NewWebhookServer(opts WebhookOptions, handler MessageHandler, rateLimiter *middleware.RateLimiterMiddleware, logger *slog.Logger) *WebhookServer {
	s := &WebhookServer{
		handler: handler,
		opts:    opts,
		logger:  logger,
	}

	var h http.Handler = http.HandlerFunc(s.handleUpdate)

	h = middleware.NewMetricsMiddleware("shuttle", "webhook").Middleware(h)
	if rateLimiter != nil {
		h = rateLimiter.Middleware(h)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return s
}

func (s *WebhookServer) Handler() http.Handler {
	return s.server.Handler
}

// Start блокируется до остановки сервера.
func (s *WebhookServer) Start() error {
	s.logger.Info("Запуск сервера вебхука", "port", s.opts.Port)

	err := s.server.ListenAndServeTLS(s.opts.CertificatePath, s.opts.PrivateKeyPath)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка запуска сервера вебхука: %w", err)
	}

	return nil
}

// Stop закрывает сервер и ждет завершения начатой обработки сообщений.
func (s *WebhookServer) Stop(ctx context.Context) error {
	s.logger.Info("Остановка сервера вебхука")

	err := s.server.Shutdown(ctx)
	s.wg.Wait()

	return err
}

func (s *WebhookServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.logger.Warn("Неверный метод запроса", "method", r.Method)
		badRequest(w)

		return
	}

	if s.opts.Secret != "" {
		secret := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(secret), []byte(s.opts.Secret)) != 1 {
			s.logger.Warn("Неверный секрет Telegram в запросе")
			badRequest(w)

			return
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&update); err != nil {
		s.logger.Warn("Ошибка при чтении тела запроса", "error", err)
		badRequest(w)

		return
	}

	msg, ok := incomingFromUpdate(&update)
	if !ok {
		s.logger.Warn("Неверная структура обновления", "updateID", update.UpdateID)
		badRequest(w)

		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK!\n"))

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.handler.HandleMessage(context.Background(), msg)
	}()
}

func badRequest(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte("400 - Bad Request"))
}

// RegisterWebhook вызывает setWebhook с параметрами, которые сервер ожидает от Telegram.
func RegisterWebhook(bot *tgbotapi.BotAPI, url, secret string) error {
	params := tgbotapi.Params{}
	params["url"] = url
	params.AddNonZero("max_connections", 100)
	params.AddBool("drop_pending_updates", true)
	params.AddNonEmpty("secret_token", secret)

	if err := params.AddInterface("allowed_updates", []string{"message"}); err != nil {
		return fmt.Errorf("ошибка при подготовке setWebhook: %w", err)
	}

	resp, err := bot.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("не удалось установить вебхук: %w", err)
	}

	if !resp.Ok {
		return fmt.Errorf("не удалось установить вебхук: %s", resp.Description)
	}

	return nil
}

func DeleteWebhook(bot *tgbotapi.BotAPI, dropPending bool) error {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("не удалось удалить вебхук: %w", err)
	}

	return nil
}
