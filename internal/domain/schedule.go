package domain

import (
	"fmt"
	"time"
)

// DefaultLeadDays applies when an order carries no document selections yet.
const DefaultLeadDays = 3

// DefaultScheduleCapacity applies when no schedule configuration document exists.
const DefaultScheduleCapacity = 300

// WeeklyBlackoutDay is the recurring day on which the registrar takes no
// appointments. It neither consumes lead-time days nor accepts bookings.
const WeeklyBlackoutDay = time.Sunday

// MaxLeadDays returns the strictest lead time across the given selections,
// falling back to the configured floor (and the package default when the
// floor is unset).
func MaxLeadDays(selections []DocumentSelection, floor int) int {
	if floor <= 0 {
		floor = DefaultLeadDays
	}
	lead := floor
	for _, sel := range selections {
		if sel.LeadDays > lead {
			lead = sel.LeadDays
		}
	}
	return lead
}

// EarliestAllowedDate advances today by the maximum lead time across the
// selections, counting calendar days but treating the weekly blackout day as
// non-counting. Holidays are not skipped during the addition; they are only
// rejected by DateBlockReason as a separate check.
func EarliestAllowedDate(selections []DocumentSelection, today time.Time, floor int) time.Time {
	remaining := MaxLeadDays(selections, floor)
	date := DateOnly(today)
	for remaining > 0 {
		date = date.AddDate(0, 0, 1)
		if date.Weekday() != WeeklyBlackoutDay {
			remaining--
		}
	}
	return date
}

// DateBlockReason reports why a candidate date cannot be booked, or an empty
// string when the date passes the blackout and holiday checks. Capacity is
// checked independently by the schedule service.
func DateBlockReason(date time.Time, holidays []Holiday) string {
	date = DateOnly(date)
	if date.Weekday() == WeeklyBlackoutDay {
		return fmt.Sprintf("the registrar is closed on %ss", WeeklyBlackoutDay)
	}
	for _, holiday := range holidays {
		if SameDate(date, holiday.Date) {
			if holiday.Name != "" {
				return fmt.Sprintf("the requested date falls on a holiday (%s)", holiday.Name)
			}
			return "the requested date falls on a holiday"
		}
	}
	return ""
}

// Occupancy summarises slot usage for a calendar date.
type Occupancy struct {
	Date     time.Time
	Count    int
	Capacity int
}

// IsFull reports whether the date reached its configured capacity.
func (o Occupancy) IsFull() bool {
	return o.Count >= o.Capacity
}
