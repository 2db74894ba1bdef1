package common

import (
	"sort"
	"strings"

	"github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

// RouteResolver переводит токены маршрутов из команд пользователя в направленные маршруты.
type RouteResolver struct {
	destinations map[string]string
}

func NewRouteResolver(destinations []string) *RouteResolver {
	known := make(map[string]string, len(destinations))

	for _, name := range destinations {
		if strings.EqualFold(name, models.Hub) {
			continue
		}

		known[strings.ToLower(name)] = name
	}

	return &RouteResolver{destinations: known}
}

func (r *RouteResolver) Destinations() []string {
	names := make([]string, 0, len(r.destinations))
	for _, name := range r.destinations {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ParseSpec разбирает один токен: "zurich" - оба направления, "zurich-" - в Work, "-zurich" - из Work.
func (r *RouteResolver) ParseSpec(token string) (models.RouteSpec, error) {
	origin, destination, hasDash := strings.Cut(token, "-")

	if !hasDash {
		if name, ok := r.lookup(origin); ok {
			return models.RouteSpec{Direction: models.Bidirectional, Destination: name}, nil
		}

		return models.RouteSpec{}, &errors.ErrUnknownDestination{Token: token}
	}

	switch {
	case destination == "" || strings.EqualFold(destination, models.Hub):
		if name, ok := r.lookup(origin); ok {
			return models.RouteSpec{Direction: models.ToHub, Destination: name}, nil
		}
	case origin == "" || strings.EqualFold(origin, models.Hub):
		if name, ok := r.lookup(destination); ok {
			return models.RouteSpec{Direction: models.FromHub, Destination: name}, nil
		}
	}

	return models.RouteSpec{}, &errors.ErrUnknownDestination{Token: token}
}

// Resolve разбирает список токенов через запятую. Любой неизвестный токен отменяет весь разбор.
func (r *RouteResolver) Resolve(arg string) ([]models.Route, error) {
	routes := make([]models.Route, 0)
	seen := make(map[models.Route]struct{})

	for _, token := range strings.Split(arg, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		spec, err := r.ParseSpec(token)
		if err != nil {
			return nil, err
		}

		for _, route := range spec.Routes() {
			if _, ok := seen[route]; ok {
				continue
			}

			seen[route] = struct{}{}
			routes = append(routes, route)
		}
	}

	if len(routes) == 0 {
		return nil, &errors.ErrUnknownDestination{Token: arg}
	}

	return routes, nil
}

func (r *RouteResolver) lookup(token string) (string, bool) {
	name, ok := r.destinations[strings.ToLower(token)]
	return name, ok
}
