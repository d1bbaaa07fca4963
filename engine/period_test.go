package engine_test

import (
	"testing"
	"time"

	"github.com/warp/swipe-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func at(year int, month time.Month, d, h, m, s int) time.Time {
	return time.Date(year, month, d, h, m, s, 0, time.UTC)
}

func billingCycle(anchor int) engine.PeriodConfig {
	return engine.PeriodConfig{Type: engine.PeriodBillingCycle, Anchor: anchor}
}

// =============================================================================
// BILLING CYCLE TESTS
// =============================================================================

func TestBillingCycle_OnOrAfterAnchor(t *testing.T) {
	// GIVEN: Statement anchored on the 15th
	// WHEN: Reference date is March 20
	// THEN: Cycle runs March 15 00:00:00 through April 14 23:59:59

	p := billingCycle(15).PeriodFor(day(2025, time.March, 20))

	if !p.Start.Equal(day(2025, time.March, 15)) {
		t.Errorf("expected start March 15, got %v", p.Start)
	}
	if !p.End.Equal(at(2025, time.April, 14, 23, 59, 59)) {
		t.Errorf("expected end April 14 23:59:59, got %v", p.End)
	}
}

func TestBillingCycle_BeforeAnchor(t *testing.T) {
	// GIVEN: Statement anchored on the 15th
	// WHEN: Reference date is March 10 (before the anchor)
	// THEN: Cycle started the previous month: Feb 15 through March 14

	p := billingCycle(15).PeriodFor(day(2025, time.March, 10))

	if !p.Start.Equal(day(2025, time.February, 15)) {
		t.Errorf("expected start February 15, got %v", p.Start)
	}
	if !p.End.Equal(at(2025, time.March, 14, 23, 59, 59)) {
		t.Errorf("expected end March 14 23:59:59, got %v", p.End)
	}
}

func TestBillingCycle_CrossesYearBoundary(t *testing.T) {
	// GIVEN: Statement anchored on the 15th
	// WHEN: Reference date is January 5
	// THEN: Cycle started December 15 of the previous year

	p := billingCycle(15).PeriodFor(day(2025, time.January, 5))

	if !p.Start.Equal(day(2024, time.December, 15)) {
		t.Errorf("expected start December 15 2024, got %v", p.Start)
	}
	if !p.End.Equal(at(2025, time.January, 14, 23, 59, 59)) {
		t.Errorf("expected end January 14 2025, got %v", p.End)
	}
}

func TestBillingCycle_AnchorClampedToShortMonth(t *testing.T) {
	// GIVEN: Statement anchored on the 31st
	// WHEN: Reference date is February 15 2025 (February has 28 days)
	// THEN: Cycle anchors on Jan 31 and ends just before the clamped
	//       February anchor (the 28th)

	p := billingCycle(31).PeriodFor(day(2025, time.February, 15))

	if !p.Start.Equal(day(2025, time.January, 31)) {
		t.Errorf("expected start January 31, got %v", p.Start)
	}
	if !p.End.Equal(at(2025, time.February, 27, 23, 59, 59)) {
		t.Errorf("expected end February 27 23:59:59, got %v", p.End)
	}
}

func TestBillingCycle_AdjacentCyclesAreContiguous(t *testing.T) {
	// GIVEN: Statement anchored on the 15th
	// WHEN: Computing the cycles around the anchor instant
	// THEN: One cycle's end is exactly one second before the next one's start

	before := billingCycle(15).PeriodFor(day(2025, time.June, 14))
	after := billingCycle(15).PeriodFor(day(2025, time.June, 15))

	if !before.End.Add(time.Second).Equal(after.Start) {
		t.Errorf("cycles not contiguous: %v then %v", before, after)
	}
}

// =============================================================================
// QUARTER / ANNIVERSARY / DAILY TESTS
// =============================================================================

func TestQuarter_ContainsReference(t *testing.T) {
	// GIVEN: A calendar-quarter period
	// WHEN: Reference date is May 10
	// THEN: Period is April 1 through June 30

	p := engine.PeriodConfig{Type: engine.PeriodQuarter}.PeriodFor(day(2025, time.May, 10))

	if !p.Start.Equal(day(2025, time.April, 1)) {
		t.Errorf("expected start April 1, got %v", p.Start)
	}
	if !p.End.Equal(at(2025, time.June, 30, 23, 59, 59)) {
		t.Errorf("expected end June 30 23:59:59, got %v", p.End)
	}
}

func TestAnniversaryYear_AnchorApril(t *testing.T) {
	// GIVEN: Anniversary year anchored in April
	// WHEN: Reference dates fall before and after the anchor month
	// THEN: The cycle containing each reference is selected

	cfg := engine.PeriodConfig{Type: engine.PeriodAnniversaryYear, Anchor: 4}

	before := cfg.PeriodFor(day(2025, time.February, 10))
	if !before.Start.Equal(day(2024, time.April, 1)) {
		t.Errorf("expected start April 1 2024, got %v", before.Start)
	}
	if !before.End.Equal(at(2025, time.March, 31, 23, 59, 59)) {
		t.Errorf("expected end March 31 2025, got %v", before.End)
	}

	after := cfg.PeriodFor(day(2025, time.June, 10))
	if !after.Start.Equal(day(2025, time.April, 1)) {
		t.Errorf("expected start April 1 2025, got %v", after.Start)
	}
	if !after.End.Equal(at(2026, time.March, 31, 23, 59, 59)) {
		t.Errorf("expected end March 31 2026, got %v", after.End)
	}
}

func TestAnniversaryYear_AnchorJanuaryIsCalendarYear(t *testing.T) {
	// GIVEN: Anniversary year anchored in January
	// WHEN: Any reference date within the year
	// THEN: Period is the plain calendar year

	cfg := engine.PeriodConfig{Type: engine.PeriodAnniversaryYear, Anchor: 1}
	p := cfg.PeriodFor(day(2025, time.August, 31))

	if !p.Start.Equal(day(2025, time.January, 1)) {
		t.Errorf("expected start January 1, got %v", p.Start)
	}
	if !p.End.Equal(at(2025, time.December, 31, 23, 59, 59)) {
		t.Errorf("expected end December 31, got %v", p.End)
	}
}

func TestDaily_BoundsOneDay(t *testing.T) {
	// GIVEN: A daily period
	// WHEN: Reference is mid-afternoon
	// THEN: Period spans 00:00:00 through 23:59:59 of that day

	p := engine.PeriodConfig{Type: engine.PeriodDaily}.PeriodFor(at(2025, time.July, 4, 13, 30, 0))

	if !p.Start.Equal(day(2025, time.July, 4)) {
		t.Errorf("expected start July 4 00:00:00, got %v", p.Start)
	}
	if !p.End.Equal(at(2025, time.July, 4, 23, 59, 59)) {
		t.Errorf("expected end July 4 23:59:59, got %v", p.End)
	}
}

func TestUnknownPeriodType_DefaultsToCalendarMonth(t *testing.T) {
	// GIVEN: An unrecognized period type
	// WHEN: Computing the period
	// THEN: The calendar month of the reference is used

	p := engine.PeriodConfig{Type: "fortnight"}.PeriodFor(day(2025, time.March, 20))

	if !p.Start.Equal(day(2025, time.March, 1)) {
		t.Errorf("expected start March 1, got %v", p.Start)
	}
	if !p.End.Equal(at(2025, time.March, 31, 23, 59, 59)) {
		t.Errorf("expected end March 31, got %v", p.End)
	}
}

// =============================================================================
// PERIOD SEMANTICS
// =============================================================================

func TestPeriod_ContainsIsInclusive(t *testing.T) {
	p := engine.Period{
		Start: day(2025, time.March, 1),
		End:   at(2025, time.March, 31, 23, 59, 59),
	}

	if !p.Contains(p.Start) {
		t.Error("start bound should be contained")
	}
	if !p.Contains(p.End) {
		t.Error("end bound should be contained")
	}
	if p.Contains(p.End.Add(time.Second)) {
		t.Error("instant after end should not be contained")
	}
	if p.Contains(p.Start.Add(-time.Second)) {
		t.Error("instant before start should not be contained")
	}
}

func TestPeriodFor_ContainsItsReference(t *testing.T) {
	// Every period type must contain the reference date it was computed from.
	refs := []time.Time{
		day(2025, time.January, 1),
		day(2025, time.February, 28),
		at(2025, time.June, 15, 12, 0, 0),
		day(2024, time.December, 31),
	}
	configs := []engine.PeriodConfig{
		{Type: engine.PeriodDaily},
		{Type: engine.PeriodBillingCycle, Anchor: 1},
		{Type: engine.PeriodBillingCycle, Anchor: 15},
		{Type: engine.PeriodBillingCycle, Anchor: 31},
		{Type: engine.PeriodQuarter},
		{Type: engine.PeriodAnniversaryYear, Anchor: 4},
		{Type: engine.PeriodAnniversaryYear, Anchor: 12},
	}

	for _, cfg := range configs {
		for _, ref := range refs {
			p := cfg.PeriodFor(ref)
			if !p.Contains(ref) {
				t.Errorf("%s anchor %d: period %v does not contain its reference %v",
					cfg.Type, cfg.Anchor, p, ref)
			}
		}
	}
}

func TestPeriodBreadth_WidestFirst(t *testing.T) {
	// Annual < quarter < billing cycle < daily, unknown sorts last.
	order := []engine.PeriodType{
		engine.PeriodAnniversaryYear,
		engine.PeriodQuarter,
		engine.PeriodBillingCycle,
		engine.PeriodDaily,
	}
	for i := 1; i < len(order); i++ {
		if engine.PeriodBreadth(order[i-1]) >= engine.PeriodBreadth(order[i]) {
			t.Errorf("%s should be broader than %s", order[i-1], order[i])
		}
	}
	if engine.PeriodBreadth("fortnight") <= engine.PeriodBreadth(engine.PeriodDaily) {
		t.Error("unknown period types should sort after known ones")
	}
}
