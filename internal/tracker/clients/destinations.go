package clients

import (
	"os"
	"sort"

	"github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	faster "github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Destinations - каталог точек маршрутов: название -> координаты остановки.
type Destinations map[string]Coordinates

func LoadDestinations(path string) (Destinations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, faster.Wrapf(err, "read destinations %s", path)
	}

	return ParseDestinations(data)
}

// ParseDestinations разбирает JSON вида {"Work": {"latitude": 47.3, "longitude": 8.5}, ...}.
func ParseDestinations(data []byte) (Destinations, error) {
	destinations := make(Destinations)

	d := jx.DecodeBytes(data)

	err := d.Obj(func(d *jx.Decoder, name string) error {
		var point Coordinates

		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "latitude":
				v, err := d.Float64()
				if err != nil {
					return faster.Wrap(err, "latitude")
				}

				point.Latitude = v
			case "longitude":
				v, err := d.Float64()
				if err != nil {
					return faster.Wrap(err, "longitude")
				}

				point.Longitude = v
			default:
				return d.Skip()
			}

			return nil
		}); err != nil {
			return faster.Wrapf(err, "destination %q", name)
		}

		destinations[name] = point

		return nil
	})
	if err != nil {
		return nil, &errors.ErrInvalidDestinations{Message: err.Error()}
	}

	if err := destinations.Validate(); err != nil {
		return nil, err
	}

	return destinations, nil
}

func (d Destinations) Validate() error {
	if _, ok := d[models.Hub]; !ok {
		return &errors.ErrInvalidDestinations{Message: "нет точки " + models.Hub}
	}

	if len(d) < 2 {
		return &errors.ErrInvalidDestinations{Message: "нужна хотя бы одна точка кроме " + models.Hub}
	}

	return nil
}

// Names возвращает все названия, включая Work.
func (d Destinations) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// AnyPlace возвращает первую по алфавиту точку, отличную от Work.
func (d Destinations) AnyPlace() string {
	for _, name := range d.Names() {
		if name != models.Hub {
			return name
		}
	}

	return ""
}
