package model

import (
	"strings"
	"time"
)

// Weekday names a column of the weekly board.
type Weekday string

const (
	Sunday    Weekday = "Sunday"
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

// DefaultDay is assigned to rows that predate the day column.
const DefaultDay = Monday

// Week lists the days in board order. The week starts on Sunday.
var Week = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Valid reports whether d is one of the seven weekday names.
func (d Weekday) Valid() bool {
	return d.Index() >= 0
}

// Index returns the position of d in Week, or -1.
func (d Weekday) Index() int {
	for i, day := range Week {
		if day == d {
			return i
		}
	}
	return -1
}

func (d Weekday) String() string {
	return string(d)
}

// ParseWeekday accepts a full or three-letter day name in any case.
func ParseWeekday(raw string) (Weekday, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if len(value) < 3 {
		return "", false
	}
	for _, day := range Week {
		name := strings.ToLower(string(day))
		if value == name || value == name[:3] {
			return day, true
		}
	}
	return "", false
}

// WeekdayOf returns the board day for t.
func WeekdayOf(t time.Time) Weekday {
	return Week[int(t.Weekday())]
}

// StartOfWeek returns midnight of the Sunday on or before t.
func StartOfWeek(t time.Time) time.Time {
	year, month, day := t.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(t.Weekday()))
}
