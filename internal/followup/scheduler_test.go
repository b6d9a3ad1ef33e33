package followup

import (
	"testing"
	"time"

	"travelquote_backend/internal/tenant"
)

var jhbTenant = &tenant.Tenant{ID: "safari-co", Timezone: "Africa/Johannesburg"}

func schedulerAt(t *testing.T, local string, tn *tenant.Tenant) *Scheduler {
	t.Helper()
	loc := tn.Location()
	parsed, err := time.ParseInLocation("2006-01-02 15:04", local, loc)
	if err != nil {
		t.Fatalf("parse test time: %v", err)
	}
	return &Scheduler{now: func() time.Time { return parsed }}
}

func TestNextContactTimeIsTomorrowTenLocal(t *testing.T) {
	// Wednesday afternoon.
	s := schedulerAt(t, "2026-09-02 15:30", jhbTenant)

	got := s.NextContactTime(jhbTenant).In(jhbTenant.Location())
	if got.Weekday() != time.Thursday || got.Hour() != 10 || got.Minute() != 0 {
		t.Fatalf("expected Thursday 10:00 local, got %v", got)
	}
	if got.Day() != 3 {
		t.Fatalf("expected the 3rd, got day %d", got.Day())
	}
}

func TestNextContactTimeFridaySkipsToMonday(t *testing.T) {
	// Friday after 10:00 local.
	s := schedulerAt(t, "2026-09-04 16:45", jhbTenant)

	got := s.NextContactTime(jhbTenant).In(jhbTenant.Location())
	if got.Weekday() != time.Monday {
		t.Fatalf("expected Monday, got %v", got.Weekday())
	}
	if got.Weekday() == time.Saturday || got.Weekday() == time.Sunday {
		t.Fatal("follow-up call must never land on a weekend")
	}
	if got.Hour() != 10 {
		t.Fatalf("expected 10:00 local, got hour %d", got.Hour())
	}
}

func TestNextContactTimeSaturdayRequestLandsMonday(t *testing.T) {
	s := schedulerAt(t, "2026-09-05 09:00", jhbTenant)

	got := s.NextContactTime(jhbTenant).In(jhbTenant.Location())
	if got.Weekday() != time.Monday {
		t.Fatalf("expected Monday, got %v", got.Weekday())
	}
}

func TestNextContactTimeAfterMinimumDays(t *testing.T) {
	// Monday; three days ahead is Thursday.
	s := schedulerAt(t, "2026-08-31 08:00", jhbTenant)

	got := s.NextContactTimeAfter(jhbTenant, 3).In(jhbTenant.Location())
	if got.Weekday() != time.Thursday {
		t.Fatalf("expected Thursday, got %v", got.Weekday())
	}
}

func TestNextContactTimeStoredInUTC(t *testing.T) {
	s := schedulerAt(t, "2026-09-02 15:30", jhbTenant)

	got := s.NextContactTime(jhbTenant)
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", got.Location())
	}
	// Johannesburg is UTC+2, so 10:00 local is 08:00 UTC.
	if got.Hour() != 8 {
		t.Fatalf("expected 08:00 UTC, got hour %d", got.Hour())
	}
}

func TestNextContactTimeInvalidTimezoneFallsBackToUTC(t *testing.T) {
	broken := &tenant.Tenant{ID: "x", Timezone: "Not/AZone"}
	s := schedulerAt(t, "2026-09-02 15:30", broken)

	got := s.NextContactTime(broken)
	if got.Hour() != 10 {
		t.Fatalf("expected 10:00 UTC under fallback, got hour %d", got.Hour())
	}
}
