package handlers

import (
	"fmt"
	"time"

	"github.com/mgmu/hortus-tracker/internal/plants"
)

// ordinal returns day with its English suffix: 1st, 2nd, 11th, 23rd.
func ordinal(day int) string {
	suffix := "th"
	switch j, k := day%10, day%100; {
	case j == 1 && k != 11:
		suffix = "st"
	case j == 2 && k != 12:
		suffix = "nd"
	case j == 3 && k != 13:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", day, suffix)
}

// dayMonth formats t as "5th January".
func dayMonth(t time.Time) string {
	return ordinal(t.Day()) + " " + t.Month().String()
}

// daysBetween returns the number of calendar days from a to b, counted in
// the location of b.
func daysBetween(a, b time.Time) int {
	a = a.In(b.Location())
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// pastDay labels a past date relative to now: "Today", "Yesterday",
// "Last Friday" within the week, "5th January" beyond.
func pastDay(t, now time.Time) string {
	switch d := daysBetween(t, now); {
	case d == 0:
		return "Today"
	case d == 1:
		return "Yesterday"
	case d > 1 && d < 7:
		return "Last " + t.In(now.Location()).Weekday().String()
	}
	return dayMonth(t.In(now.Location()))
}

// dueDay labels a due date relative to now: "Overdue!", "Today", "Tomorrow",
// the weekday within the week, "5th January" beyond.
func dueDay(due, now time.Time) string {
	switch d := daysBetween(now, due); {
	case d < 0:
		return "Overdue!"
	case d == 0:
		return "Today"
	case d == 1:
		return "Tomorrow"
	case d < 7:
		return due.In(now.Location()).Weekday().String()
	}
	return dayMonth(due.In(now.Location()))
}

func lastWateredLabel(e *plants.Event, now time.Time) string {
	if e == nil {
		return "Never watered"
	}
	return pastDay(e.Timestamp, now) + " at " + e.Timestamp.In(now.Location()).Format("15:04")
}

func lastFertilizedLabel(e *plants.Event, now time.Time) string {
	if e == nil {
		return "Never fertilized"
	}
	return pastDay(e.Timestamp, now)
}

func dueLabel(due *time.Time, now time.Time) string {
	if due == nil {
		return "Unknown"
	}
	return dueDay(*due, now)
}

// eventLabel describes a history entry, such as "Watered 5th January at 09:30".
func eventLabel(e plants.Event, now time.Time) string {
	verb := "Watered"
	if e.Type == plants.Fertilize {
		verb = "Fertilized"
	}
	return verb + " " + pastDay(e.Timestamp, now) + " at " + e.Timestamp.In(now.Location()).Format("15:04")
}
