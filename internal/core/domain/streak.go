package domain

import (
	"math"
	"time"
)

const DayLayout = "2006-01-02"

// Day truncates t to the calendar day it falls on in loc and returns that day
// as midnight UTC, so two Days compare equal iff they name the same date.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// HabitStats is the per-habit result of the streak calculator.
type HabitStats struct {
	HabitID        string `json:"habit_id"`
	Streak         int    `json:"streak"`
	CompletionRate int    `json:"completion_rate"`
	TotalLogs      int    `json:"total_logs"`
	DaysSinceStart int    `json:"days_since_start"`
}

// daySet indexes logged calendar days. Dates already encoded by Day keep
// their date in UTC, so keying in UTC is exact.
func daySet(logs []*HabitLog) (map[time.Time]struct{}, error) {
	days := make(map[time.Time]struct{}, len(logs))
	for _, l := range logs {
		if l == nil || l.Date.IsZero() {
			return nil, ErrInvalidDate
		}
		days[Day(l.Date, time.UTC)] = struct{}{}
	}
	return days, nil
}

// CurrentStreak counts consecutive logged days walking back from today. It
// is 0 when today has no log, and otherwise 1 + the streak ending yesterday.
func CurrentStreak(logs []*HabitLog, today time.Time) (int, error) {
	if today.IsZero() {
		return 0, ErrInvalidDate
	}

	days, err := daySet(logs)
	if err != nil {
		return 0, err
	}

	streak := 0
	for d := Day(today, time.UTC); ; d = d.AddDate(0, 0, -1) {
		if _, ok := days[d]; !ok {
			return streak, nil
		}
		streak++
	}
}

// ComputeHabitStats derives streak and completion rate for one habit.
// today and startDate are civil days (see Day). Logs outside [startDate, today]
// count towards TotalLogs but not towards the rate. It only fails on zero dates.
func ComputeHabitStats(habitID string, logs []*HabitLog, startDate, today time.Time) (HabitStats, error) {
	if startDate.IsZero() {
		return HabitStats{}, ErrInvalidDate
	}

	streak, err := CurrentStreak(logs, today)
	if err != nil {
		return HabitStats{}, err
	}

	start := Day(startDate, time.UTC)
	end := Day(today, time.UTC)
	daysSinceStart := int(math.Floor(end.Sub(start).Hours()/24)) + 1

	// Only days in [start, today] are eligible for the rate.
	eligible := 0
	for _, l := range logs {
		d := Day(l.Date, time.UTC)
		if !d.Before(start) && !d.After(end) {
			eligible++
		}
	}

	completionRate := 0
	if daysSinceStart > 0 {
		completionRate = int(math.Round(float64(eligible) / float64(daysSinceStart) * 100))
	}

	return HabitStats{
		HabitID:        habitID,
		Streak:         streak,
		CompletionRate: completionRate,
		TotalLogs:      len(logs),
		DaysSinceStart: daysSinceStart,
	}, nil
}
