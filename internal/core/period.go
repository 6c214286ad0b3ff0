package core

import "time"

// Period is one calendar month. The zero value is not valid; callers
// that want "no period filter" pass a nil *Period.
type Period struct {
	Month int // 1-12
	Year  int
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 2000 || p.Year > 2100 {
		return ErrInvalidYear
	}
	return nil
}

// Start returns the first day of the month at midnight UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last calendar day of the month at midnight UTC,
// computed as day 0 of the following month so month length and leap
// years come out right.
func (p Period) End() time.Time {
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the month.
func (p Period) Days() int {
	return p.End().Day()
}

// Contains reports whether t falls inside the month, inclusive of the
// whole last day regardless of time of day.
func (p Period) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(p.Start()) && u.Before(p.Start().AddDate(0, 1, 0))
}

// Window is a fixed 7-day slice of a month used for spending trends.
// The last window of a month may be shorter. This is deliberately not
// an ISO calendar week: window i always starts on day 7i+1.
type Window struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Contains reports whether t falls inside the window, both bounds
// inclusive at day granularity.
func (w Window) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(w.StartDate) && u.Before(w.EndDate.AddDate(0, 0, 1))
}

// Windows partitions the month into consecutive 7-day windows starting
// at day 1. A 31-day month yields 5 windows, a 28-day month 4.
func (p Period) Windows() []Window {
	days := p.Days()
	out := make([]Window, 0, (days+6)/7)
	for d := 1; d <= days; d += 7 {
		last := d + 6
		if last > days {
			last = days
		}
		out = append(out, Window{
			StartDate: time.Date(p.Year, time.Month(p.Month), d, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(p.Year, time.Month(p.Month), last, 0, 0, 0, 0, time.UTC),
		})
	}
	return out
}
