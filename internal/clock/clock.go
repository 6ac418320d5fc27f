// Package clock is the engine's only time source. All timestamps are taken
// and compared in one configured zone.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Zone returns wall-clock time in a fixed location.
type Zone struct {
	loc *time.Location
}

// NewZone builds a clock pinned to the named IANA zone.
func NewZone(name string) (*Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return &Zone{loc: loc}, nil
}

// Now implements Clock.
func (z *Zone) Now() time.Time {
	return time.Now().In(z.loc)
}

// Location returns the pinned zone.
func (z *Zone) Location() *time.Location {
	return z.loc
}
