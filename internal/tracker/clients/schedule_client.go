package clients

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/central-university-dev/go-shuttle/internal/common/httputil"
	"github.com/central-university-dev/go-shuttle/internal/config"
	"github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	faster "github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-resty/resty/v2"
)

const (
	operationName = "HcvSchedules"

	schedulesQuery = "query HcvSchedules($pickup: InputCoordinate!, $dropoff: InputCoordinate!, $time: InputTime!) {\n" +
		"  hcvSchedules(pickup: $pickup, dropoff: $dropoff, time: $time) {\n" +
		"    schedules {\n      day\n      seatsAvailable\n      __typename\n    }\n    __typename\n  }\n}\n"

	unauthorizedMessage = "unauthorized"
)

// ScheduleClient запрашивает расписание шаттла у GraphQL источника.
type ScheduleClient struct {
	client       *resty.Client
	baseURL      string
	cookies      string
	destinations Destinations
	logger       *slog.Logger
}

type ScheduleFetcher interface {
	FetchSchedule(ctx context.Context, origin, destination string) ([]models.ScheduleEntry, error)
}

func NewScheduleClient(baseURL, cookies string, destinations Destinations, cfg *config.Config, logger *slog.Logger) *ScheduleClient {
	client := httputil.CreateResilientHTTPClient(cfg, logger, "schedule_source")

	return &ScheduleClient{
		client:       client,
		baseURL:      baseURL,
		cookies:      cookies,
		destinations: destinations,
		logger:       logger,
	}
}

// LoadCookies возвращает заголовок cookie: из переменной окружения, иначе из файла.
func LoadCookies(cfg *config.Config) (string, error) {
	if cfg.Cookies != "" {
		return strings.TrimSpace(cfg.Cookies), nil
	}

	data, err := os.ReadFile(cfg.CookiesPath)
	if err != nil {
		return "", faster.Wrapf(err, "read cookies %s", cfg.CookiesPath)
	}

	return strings.TrimSpace(string(data)), nil
}

func (c *ScheduleClient) FetchSchedule(ctx context.Context, origin, destination string) ([]models.ScheduleEntry, error) {
	pickup, ok := c.destinations[origin]
	if !ok {
		return nil, &errors.ErrUnknownDestination{Token: origin}
	}

	dropoff, ok := c.destinations[destination]
	if !ok {
		return nil, &errors.ErrUnknownDestination{Token: destination}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "*/*").
		SetHeader("Content-Type", "application/json").
		SetHeader("Referer", "https://m.uber.com/").
		SetHeader("Origin", "https://m.uber.com").
		SetHeader("x-csrf-token", "x").
		SetHeader("Cookie", c.cookies).
		SetBody(EncodeScheduleRequest(pickup, dropoff)).
		Post(c.baseURL)
	if err != nil {
		return nil, faster.Wrap(err, "request schedule")
	}

	route := models.NewRoute(origin, destination).String()

	entries, err := DecodeScheduleResponse(resp.Body())
	if err != nil {
		var expired *errors.ErrSessionExpired
		if faster.As(err, &expired) {
			expired.Route = route
			return nil, expired
		}

		if !resp.IsSuccess() {
			return nil, &errors.HTTPError{StatusCode: resp.StatusCode()}
		}

		return nil, err
	}

	c.logger.Debug("Получено расписание",
		"route", route,
		"entries", len(entries),
	)

	return entries, nil
}

// EncodeScheduleRequest строит тело GraphQL запроса HcvSchedules.
func EncodeScheduleRequest(pickup, dropoff Coordinates) []byte {
	var e jx.Encoder

	e.Obj(func(e *jx.Encoder) {
		e.Field("operationName", func(e *jx.Encoder) { e.Str(operationName) })
		e.Field("variables", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("dropoff", func(e *jx.Encoder) { encodeCoordinates(e, dropoff) })
				e.Field("pickup", func(e *jx.Encoder) { encodeCoordinates(e, pickup) })
				e.Field("time", func(e *jx.Encoder) {
					e.Obj(func(e *jx.Encoder) {
						e.Field("arrivalSec", func(e *jx.Encoder) { e.Int(0) })
						e.Field("pickupSec", func(e *jx.Encoder) { e.Int(0) })
					})
				})
			})
		})
		e.Field("query", func(e *jx.Encoder) { e.Str(schedulesQuery) })
	})

	return e.Bytes()
}

func encodeCoordinates(e *jx.Encoder, point Coordinates) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("latitude", func(e *jx.Encoder) { e.Float64(point.Latitude) })
		e.Field("longitude", func(e *jx.Encoder) { e.Float64(point.Longitude) })
	})
}

// DecodeScheduleResponse извлекает data.hcvSchedules.schedules.
// Ответ без data с errors[0].message == "unauthorized" превращается в ErrSessionExpired.
func DecodeScheduleResponse(body []byte) ([]models.ScheduleEntry, error) {
	var (
		entries      = make([]models.ScheduleEntry, 0)
		hasData      bool
		hasSchedules bool
		firstMessage string
	)

	d := jx.DecodeBytes(body)

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "data":
			if d.Next() == jx.Null {
				return d.Null()
			}

			hasData = true

			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "hcvSchedules" {
					return d.Skip()
				}

				return d.Obj(func(d *jx.Decoder, key string) error {
					if key != "schedules" {
						return d.Skip()
					}

					hasSchedules = true

					return d.Arr(func(d *jx.Decoder) error {
						entry, err := decodeEntry(d)
						if err != nil {
							return err
						}

						entries = append(entries, entry)

						return nil
					})
				})
			})
		case "errors":
			if d.Next() != jx.Array {
				return d.Skip()
			}

			return d.Arr(func(d *jx.Decoder) error {
				if firstMessage != "" || d.Next() != jx.Object {
					return d.Skip()
				}

				return d.Obj(func(d *jx.Decoder, key string) error {
					if key != "message" || d.Next() != jx.String {
						return d.Skip()
					}

					message, err := d.Str()
					if err != nil {
						return err
					}

					firstMessage = message

					return nil
				})
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, &errors.ErrScheduleFormat{Message: err.Error()}
	}

	if !hasData {
		if firstMessage == unauthorizedMessage {
			return nil, &errors.ErrSessionExpired{}
		}

		return nil, &errors.ErrScheduleFormat{Message: "в ответе нет data: " + firstMessage}
	}

	if !hasSchedules {
		return nil, &errors.ErrScheduleFormat{Message: "в ответе нет hcvSchedules.schedules"}
	}

	return entries, nil
}

func decodeEntry(d *jx.Decoder) (models.ScheduleEntry, error) {
	var entry models.ScheduleEntry

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "day":
			day, err := d.Str()
			if err != nil {
				return faster.Wrap(err, "day")
			}

			entry.DayLabel = day
		case "seatsAvailable":
			seats, err := decodeSeats(d)
			if err != nil {
				return faster.Wrap(err, "seatsAvailable")
			}

			entry.SeatsAvailable = seats
		default:
			return d.Skip()
		}

		return nil
	})

	return entry, err
}

// Источник присылает seatsAvailable то числом, то строкой.
func decodeSeats(d *jx.Decoder) (int, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}

		return strconv.Atoi(strings.TrimSpace(s))
	case jx.Null:
		return 0, d.Null()
	default:
		return d.Int()
	}
}
