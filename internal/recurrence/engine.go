package recurrence

import (
	"errors"
	"time"
)

var jst = time.FixedZone("JST", 9*60*60)

// Rule describes the weekday recurrence attached to a contract period.
type Rule struct {
	Weekdays []time.Weekday
	Start    time.Time
	End      time.Time
}

// Engine expands weekday recurrence rules into concrete work dates.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that normalizes results to the provided
// location. If loc is nil, Asia/Tokyo (JST) is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = jst
	}
	return &Engine{location: loc}
}

// ErrInvalidWindow indicates the contract period end precedes its start.
var ErrInvalidWindow = errors.New("recurrence: period end precedes start")

// ErrWindowTooLong indicates the contract period exceeds the supported length.
var ErrWindowTooLong = errors.New("recurrence: period exceeds maximum length")

// MaxPeriodDays bounds the expansion window. Engagements never run longer
// than 90 days, so the expansion touches at most 90 candidate dates.
const MaxPeriodDays = 90

// WorkDates returns every calendar date in [rule.Start, rule.End] whose
// weekday is in the rule's weekday set, normalized to midnight in the
// engine's location.
//
// An empty or missing weekday set yields no dates: the engagement stays
// schedule-less and shifts must be created manually.
func (e *Engine) WorkDates(rule Rule) ([]time.Time, error) {
	loc := e.location
	if loc == nil {
		loc = jst
	}

	start := dateOf(rule.Start, loc)
	end := dateOf(rule.End, loc)
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}
	if end.Sub(start) > time.Duration(MaxPeriodDays)*24*time.Hour {
		return nil, ErrWindowTooLong
	}

	if len(rule.Weekdays) == 0 {
		return nil, nil
	}

	weekdaySet := make(map[time.Weekday]struct{}, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		weekdaySet[day] = struct{}{}
	}

	dates := make([]time.Time, 0)
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		if _, ok := weekdaySet[current.Weekday()]; ok {
			dates = append(dates, current)
		}
	}

	return dates, nil
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
