// Package availability derives what a guest may select on a cabin's calendar
// and what a selection costs. Everything here is pure: callers pass the booked
// dates in and render or store whatever comes back.
package availability

import (
	"time"

	"github.com/gdg-garage/cabin-booking-api/internal/models"
)

// Range is a candidate stay. Either end may be missing while the guest is
// still picking dates.
type Range struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Complete reports whether both ends are set.
func (r Range) Complete() bool {
	return r.From != nil && r.To != nil
}

// Empty reports whether neither end is set.
func (r Range) Empty() bool {
	return r.From == nil && r.To == nil
}

// Bounds returns the range ordered so that start <= end.
func (r Range) Bounds() (start, end time.Time) {
	start, end = *r.From, *r.To
	if end.Before(start) {
		start, end = end, start
	}
	return start, end
}

type Calculator struct {
	Now func() time.Time
}

func NewCalculator() *Calculator {
	return &Calculator{Now: time.Now}
}

// IsOverlapping reports whether any booked date falls inside the closed
// interval spanned by the selection, compared by calendar day.
func IsOverlapping(selection Range, booked []time.Time) bool {
	if !selection.Complete() || len(booked) == 0 {
		return false
	}
	start, end := selection.Bounds()
	start, end = Day(start), Day(end)
	for _, d := range booked {
		d = Day(d)
		if !d.Before(start) && !d.After(end) {
			return true
		}
	}
	return false
}

// DisplayRange hides a selection that runs over booked dates. The stored
// selection is left alone; the guest has to clear or reselect it.
func DisplayRange(selection Range, booked []time.Time) Range {
	if IsOverlapping(selection, booked) {
		return Range{}
	}
	return selection
}

// IsDateDisabled reports whether date lies before today or on a booked day.
func (c *Calculator) IsDateDisabled(date time.Time, booked []time.Time) bool {
	if Day(date).Before(Day(c.Now())) {
		return true
	}
	for _, d := range booked {
		if SameDay(d, date) {
			return true
		}
	}
	return false
}

// ComputeNights counts the days of the selection, both ends included, or 0
// while the selection is incomplete.
func ComputeNights(selection Range) int {
	if !selection.Complete() {
		return 0
	}
	return DaysBetween(*selection.To, *selection.From) + 1
}

func ComputePrice(cabin models.Cabin, numNights int) float64 {
	if numNights == 0 {
		return 0
	}
	return cabin.NightlyPrice() * float64(numNights)
}

// WithinLimits applies the calendar's length bounds: strictly more nights
// than the minimum and no more than the maximum.
func WithinLimits(settings models.Settings, numNights int) bool {
	if numNights <= settings.MinBookingLength {
		return false
	}
	return settings.MaxBookingLength <= 0 || numNights <= settings.MaxBookingLength
}

type Quote struct {
	Selection    Range   `json:"selection"`
	DisplayRange Range   `json:"displayRange"`
	Overlapping  bool    `json:"overlapping"`
	NumNights    int     `json:"numNights"`
	NightlyPrice float64 `json:"nightlyPrice"`
	CabinPrice   float64 `json:"cabinPrice"`
	WithinLimits bool    `json:"withinLimits"`
}

// Quote prices whatever part of the selection can be displayed.
func (c *Calculator) Quote(cabin models.Cabin, settings models.Settings, selection Range, booked []time.Time) Quote {
	display := DisplayRange(selection, booked)
	nights := ComputeNights(display)
	return Quote{
		Selection:    selection,
		DisplayRange: display,
		Overlapping:  IsOverlapping(selection, booked),
		NumNights:    nights,
		NightlyPrice: cabin.NightlyPrice(),
		CabinPrice:   ComputePrice(cabin, nights),
		WithinLimits: nights > 0 && WithinLimits(settings, nights),
	}
}

// DisabledDates lists the disabled days between from and to, both included.
func (c *Calculator) DisabledDates(from, to time.Time, booked []time.Time) []time.Time {
	var disabled []time.Time
	for d := Day(from); !d.After(Day(to)); d = d.AddDate(0, 0, 1) {
		if c.IsDateDisabled(d, booked) {
			disabled = append(disabled, d)
		}
	}
	return disabled
}

// Day truncates t to its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// DaysBetween is the number of whole calendar days from b to a.
func DaysBetween(a, b time.Time) int {
	return int(Day(a).Sub(Day(b)).Hours() / 24)
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly}

// ParseDate accepts RFC 3339 timestamps and plain dates.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDates keeps the values that parse and drops the rest.
func ParseDates(values []string) []time.Time {
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		if t, ok := ParseDate(v); ok {
			dates = append(dates, t)
		}
	}
	return dates
}
