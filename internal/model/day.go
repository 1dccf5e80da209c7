package model

import "time"

// Day is a weekday name as stored in the plan table.
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

// Days returns the week starting on Monday.
func Days() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// DayOf maps a time.Weekday onto the plan's week.
func DayOf(wd time.Weekday) Day {
	if wd == time.Sunday {
		return Sunday
	}
	return Days()[int(wd)-1]
}

func (d Day) String() string {
	return string(d)
}

// Index reports the position of d within the week, or -1.
func (d Day) Index() int {
	for i, day := range Days() {
		if day == d {
			return i
		}
	}
	return -1
}
