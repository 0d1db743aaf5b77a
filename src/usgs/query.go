package usgs

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultRadius       = 400
	DefaultLatitude     = -30.22573200864174 // Cerro Pachón
	DefaultLongitude    = -70.73932987127506
	DefaultMinMagnitude = 2
	DefaultMaxMagnitude = 10

	MaxDuration = 10000 * 24 * time.Hour
	MinDuration = time.Hour
	MaxRadius   = 5000
)

// Query describes an earthquake search around a point.
type Query struct {
	// Duration is how far back from the present to search.
	Duration time.Duration `json:"duration"`
	// Radius of the search in km.
	Radius       int     `json:"radius"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	MinMagnitude int     `json:"lower"`
	MaxMagnitude int     `json:"upper"`
}

// DefaultQuery returns a query over the given duration with the default area and magnitude bounds.
func DefaultQuery(duration time.Duration) Query {
	return Query{
		Duration:     duration,
		Radius:       DefaultRadius,
		Latitude:     DefaultLatitude,
		Longitude:    DefaultLongitude,
		MinMagnitude: DefaultMinMagnitude,
		MaxMagnitude: DefaultMaxMagnitude,
	}
}

// Validate range-checks every parameter.
func (q Query) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Duration, validation.By(checkDuration)),
		validation.Field(&q.Radius, validation.By(checkRadius)),
		validation.Field(&q.Latitude, validation.By(checkCoordinate("latitude", 90))),
		validation.Field(&q.Longitude, validation.By(checkCoordinate("longitude", 180))),
		validation.Field(&q.MinMagnitude, validation.By(checkMagnitude("minimum"))),
		validation.Field(&q.MaxMagnitude,
			validation.By(checkMagnitude("maximum")),
			validation.By(func(interface{}) error {
				if q.MinMagnitude > q.MaxMagnitude {
					return fmt.Errorf("Your provided minimum magnitude (%d) cannot exceed your provided maximum magnitude (%d).",
						q.MinMagnitude, q.MaxMagnitude)
				}
				return nil
			}),
		),
	)
}

func checkDuration(value interface{}) error {
	d, ok := value.(time.Duration)
	if !ok {
		return errors.New("must be a duration")
	}
	if d > MaxDuration {
		return fmt.Errorf("Your provided duration (%s) is too large. The maximum is 10000 days.", d)
	}
	if d < MinDuration {
		return fmt.Errorf("Your provided duration (%s) is too small. The minimum is 1 hour.", d)
	}
	return nil
}

func checkRadius(value interface{}) error {
	r, ok := value.(int)
	if !ok {
		return errors.New("must be an integer")
	}
	if r > MaxRadius {
		return fmt.Errorf("Your provided radius (%d) is too large. The maximum is %d.", r, MaxRadius)
	}
	if r <= 0 {
		return fmt.Errorf("Your provided radius (%d) is too small. The minimum is 1.", r)
	}
	return nil
}

func checkCoordinate(name string, limit float64) validation.RuleFunc {
	return func(value interface{}) error {
		v, ok := value.(float64)
		if !ok {
			return errors.New("must be a number")
		}
		if v < -limit {
			return fmt.Errorf("Your provided %s (%g) is too low. The range is %g to %g.", name, v, -limit, limit)
		}
		if v > limit {
			return fmt.Errorf("Your provided %s (%g) is too high. The range is %g to %g.", name, v, -limit, limit)
		}
		return nil
	}
}

func checkMagnitude(bound string) validation.RuleFunc {
	return func(value interface{}) error {
		m, ok := value.(int)
		if !ok {
			return errors.New("must be an integer")
		}
		if m < 0 {
			return fmt.Errorf("Your provided %s magnitude (%d) is too small. The range is 0 to 10.", bound, m)
		}
		if m > 10 {
			return fmt.Errorf("Your provided %s magnitude (%d) is too large. The range is 0 to 10.", bound, m)
		}
		return nil
	}
}
