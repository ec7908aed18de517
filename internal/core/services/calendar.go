package services

import (
	"time"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

// Calendar resolves civil days in the configured time zone. The zero value
// uses time.Now and UTC.
type Calendar struct {
	Now      func() time.Time
	Location *time.Location
}

func NewCalendar(loc *time.Location) Calendar {
	return Calendar{Now: time.Now, Location: loc}
}

func (c Calendar) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Today is the current civil day encoded as midnight UTC.
func (c Calendar) Today() time.Time {
	return domain.Day(c.now(), c.Location)
}

func (c Calendar) Instant() time.Time {
	return c.now().UTC()
}
