package model

import "time"

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Covers reports whether day falls inside the project's [start, end] window.
func (p Project) Covers(day time.Time) bool {
	d := Day(day)
	return !d.Before(Day(p.StartDate)) && !d.After(Day(p.EndDate))
}

// Summary is the status breakdown of a project's tasks.
type Summary struct {
	ProjectID          int64          `json:"project_id"`
	Total              int            `json:"total"`
	CountsByStatus     map[Status]int `json:"counts_by_status"`
	ProgressPercentage float64        `json:"progress_percentage"`
}

// DateLayout is the calendar-date format of due, start and end dates.
const DateLayout = "2006-01-02"

// ParseDate accepts a calendar date or an RFC 3339 timestamp and returns
// midnight UTC of that date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
