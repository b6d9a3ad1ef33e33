// Package followup schedules the post-quote contact call: it computes the
// next valid business-day contact time in the tenant's timezone and hands
// the call record to the call queue for the voice subsystem.
package followup

import (
	"time"

	"travelquote_backend/internal/tenant"
)

// contactHour is the local hour of day at which follow-up calls are placed.
const contactHour = 10

// Scheduler computes follow-up contact times.
type Scheduler struct {
	now func() time.Time
}

// NewScheduler creates a follow-up scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{now: time.Now}
}

// NextContactTime returns "tomorrow at 10:00 tenant-local", advanced past
// weekends, converted to UTC for storage. An invalid tenant timezone falls
// back to UTC.
func (s *Scheduler) NextContactTime(tn *tenant.Tenant) time.Time {
	return s.NextContactTimeAfter(tn, 1)
}

// NextContactTimeAfter is NextContactTime with an explicit minimum number
// of days ahead, for non-default scheduling.
func (s *Scheduler) NextContactTimeAfter(tn *tenant.Tenant, minDaysAhead int) time.Time {
	if minDaysAhead < 1 {
		minDaysAhead = 1
	}

	loc := tn.Location()
	local := s.now().In(loc)

	candidate := time.Date(local.Year(), local.Month(), local.Day(), contactHour, 0, 0, 0, loc)
	candidate = candidate.AddDate(0, 0, minDaysAhead)

	for candidate.Weekday() == time.Saturday || candidate.Weekday() == time.Sunday {
		candidate = candidate.AddDate(0, 0, 1)
	}

	return candidate.UTC()
}
