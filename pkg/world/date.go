package world

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day in the simulation. Months and days are 1-based.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// DaysIn returns the number of days in the given month, accounting for leap years.
func DaysIn(year, month int) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Next returns the following calendar day, wrapping months and years.
func (d Date) Next() Date {
	next := Date{Year: d.Year, Month: d.Month, Day: d.Day + 1}
	if next.Day > DaysIn(next.Year, next.Month) {
		next.Day = 1
		next.Month++
	}
	if next.Month > 12 {
		next.Month = 1
		next.Year++
	}
	return next
}

// AddDays returns the date n days after d. Negative n is treated as zero.
func (d Date) AddDays(n int) Date {
	out := d
	for i := 0; i < n; i++ {
		out = out.Next()
	}
	return out
}

// String formats the date the way it appears in life logs, e.g. "March 4, 2026".
func (d Date) String() string {
	if d.Month < 1 || d.Month > 12 {
		return fmt.Sprintf("%d/%d/%d", d.Month, d.Day, d.Year)
	}
	return fmt.Sprintf("%s %d, %d", time.Month(d.Month).String(), d.Day, d.Year)
}

// Journal formats the date for life log entries, e.g. "Wednesday, 4th mar, 2026".
func (d Date) Journal() string {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	month := strings.ToLower(t.Month().String()[:3])
	return fmt.Sprintf("%s, %s %s, %d", t.Weekday(), ordinal(d.Day), month, d.Year)
}

func ordinal(day int) string {
	if m := day % 100; m >= 11 && m <= 13 {
		return fmt.Sprintf("%dth", day)
	}
	switch day % 10 {
	case 1:
		return fmt.Sprintf("%dst", day)
	case 2:
		return fmt.Sprintf("%dnd", day)
	case 3:
		return fmt.Sprintf("%drd", day)
	}
	return fmt.Sprintf("%dth", day)
}

// Short formats the date as M/D/YYYY for prompts.
func (d Date) Short() string {
	return fmt.Sprintf("%d/%d/%d", d.Month, d.Day, d.Year)
}
