package engine

import "time"

// =============================================================================
// PERIOD - Accounting window for cap accumulation
// =============================================================================

// Period is the concrete time boundary a cap accumulates over. Both bounds
// are inclusive and expressed in UTC.
//
// Examples:
//   - Billing cycle anchored on the 15th: Mar 15 00:00:00 - Apr 14 23:59:59
//   - Calendar quarter: Apr 1 - Jun 30
//   - Anniversary year anchored in March: Mar 1 - Feb 28/29 of next year
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t is within [Start, End].
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.Format(time.RFC3339) + ", " + p.End.Format(time.RFC3339) + "]"
}

// PeriodType defines when a cap resets.
type PeriodType string

const (
	PeriodDaily           PeriodType = "daily"
	PeriodBillingCycle    PeriodType = "billing_cycle"    // Resets on the billing day
	PeriodQuarter         PeriodType = "calendar_quarter" // Jan-Mar, Apr-Jun, Jul-Sep, Oct-Dec
	PeriodAnniversaryYear PeriodType = "anniversary_year" // Rolling year from the anchor month
)

// PeriodBreadth orders period types widest-first for cap checking. An
// exhausted annual ceiling should be reported even when a monthly ceiling
// still has headroom, so wider periods are checked before narrower ones.
func PeriodBreadth(pt PeriodType) int {
	switch pt {
	case PeriodAnniversaryYear:
		return 1
	case PeriodQuarter:
		return 2
	case PeriodBillingCycle:
		return 3
	case PeriodDaily:
		return 4
	default:
		return 99
	}
}

// =============================================================================
// PERIOD CALCULATOR - Determines which period a date falls into
// =============================================================================

// PeriodConfig defines how to compute periods for a cap bucket.
type PeriodConfig struct {
	Type PeriodType

	// Anchor is the billing day-of-month (billing cycles) or the anchor
	// month 1-12 (anniversary years). Invalid anchors are clamped, never
	// rejected: this sits deep in the calculation hot path.
	Anchor int
}

// PeriodFor returns the period that contains ref.
func (pc PeriodConfig) PeriodFor(ref time.Time) Period {
	ref = ref.UTC()

	switch pc.Type {
	case PeriodBillingCycle:
		return pc.billingCycle(ref)
	case PeriodQuarter:
		return quarterOf(ref)
	case PeriodAnniversaryYear:
		return pc.anniversaryYear(ref)
	case PeriodDaily:
		return dayOf(ref)
	default:
		// Unknown types default to the calendar month of ref.
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{Start: start, End: endOfMonth(ref.Year(), ref.Month())}
	}
}

// billingCycle computes the statement window around the anchor day. If the
// reference day is on or after the anchor, the cycle started this month;
// otherwise it started the previous month. Ends one second before the next
// anchor day.
func (pc PeriodConfig) billingCycle(ref time.Time) Period {
	anchor := pc.Anchor
	if anchor < 1 {
		anchor = 1
	}

	year, month, day := ref.Date()
	anchorThis := anchoredDay(year, month, anchor)

	var start time.Time
	if day >= anchorThis.Day() {
		start = anchorThis
	} else {
		// time.Date normalizes month 0 to December of the prior year.
		prev := time.Date(year, month-1, 1, 0, 0, 0, 0, time.UTC)
		start = anchoredDay(prev.Year(), prev.Month(), anchor)
	}

	next := time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	nextAnchor := anchoredDay(next.Year(), next.Month(), anchor)
	return Period{Start: start, End: nextAnchor.Add(-time.Second)}
}

func quarterOf(ref time.Time) Period {
	q := (int(ref.Month()) - 1) / 3
	startMonth := time.Month(q*3 + 1)
	endMonth := startMonth + 2
	return Period{
		Start: time.Date(ref.Year(), startMonth, 1, 0, 0, 0, 0, time.UTC),
		End:   endOfMonth(ref.Year(), endMonth),
	}
}

// anniversaryYear is a rolling 12-month window starting on day 1 of the
// anchor month, selecting the cycle that contains ref.
func (pc PeriodConfig) anniversaryYear(ref time.Time) Period {
	anchorMonth := pc.Anchor
	if anchorMonth < 1 || anchorMonth > 12 {
		anchorMonth = 1
	}

	startYear := ref.Year()
	if int(ref.Month()) < anchorMonth {
		startYear--
	}
	start := time.Date(startYear, time.Month(anchorMonth), 1, 0, 0, 0, 0, time.UTC)

	endYear, endMonth := startYear+1, time.Month(anchorMonth-1)
	if anchorMonth == 1 {
		endYear, endMonth = startYear, time.December
	}
	return Period{Start: start, End: endOfMonth(endYear, endMonth)}
}

func dayOf(ref time.Time) Period {
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.Add(24*time.Hour - time.Second)}
}

// anchoredDay places the anchor day within year/month, clamping to the
// actual month length (billing day 31 in February becomes the 28th/29th).
func anchoredDay(year int, month time.Month, anchor int) time.Time {
	if last := daysIn(year, month); anchor > last {
		anchor = last
	}
	return time.Date(year, month, anchor, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func endOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, daysIn(year, month), 23, 59, 59, 0, time.UTC)
}
