package session

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/poolnhl/go/internal/models"
)

// Context carries who is acting and which day they are looking at. It is
// built once per request and passed down explicitly.
type Context struct {
	UserID string
	Date   string // YYYY-MM-DD
}

// New builds a context for userID dated today in loc.
func New(userID string, clock clockwork.Clock, loc *time.Location) Context {
	if loc == nil {
		loc = time.UTC
	}
	return Context{
		UserID: userID,
		Date:   clock.Now().In(loc).Format(models.DateLayout),
	}
}

// SelectDate returns a copy of c looking at date.
func (c Context) SelectDate(date string) (Context, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return c, fmt.Errorf("invalid date %q: %w", date, err)
	}
	c.Date = date
	return c, nil
}

// Day returns the selected date as midnight UTC.
func (c Context) Day() time.Time {
	d, err := time.Parse(models.DateLayout, c.Date)
	if err != nil {
		return time.Time{}
	}
	return d
}

// ShiftDays returns a copy of c moved by n days.
func (c Context) ShiftDays(n int) Context {
	day := c.Day()
	if day.IsZero() {
		return c
	}
	c.Date = day.AddDate(0, 0, n).Format(models.DateLayout)
	return c
}

// Anonymous reports whether no user is attached.
func (c Context) Anonymous() bool {
	return c.UserID == ""
}
