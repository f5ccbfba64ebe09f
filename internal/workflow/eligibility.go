package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultAdvanceCutoffDay is the last day of the month on which a salary
// advance may still be requested.
const DefaultAdvanceCutoffDay = 15

// Draft is a request that has not been created yet.
type Draft struct {
	Kind      Kind
	WorkerIDs []uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Amount    decimal.Decimal
}

// Balance is a worker's annual leave allowance.
type Balance struct {
	TotalDays int
	UsedDays  int
}

func (b Balance) Remaining() int {
	return b.TotalDays - b.UsedDays
}

// EligibilityInput bundles everything the checker needs. HasPending must be
// true when any listed worker already has a non-terminal request of the same kind.
type EligibilityInput struct {
	Draft      Draft
	Balance    Balance
	HasPending bool
	Now        time.Time
}

// Checker validates drafts before creation.
type Checker struct {
	cutoffDay int
	loc       *time.Location
}

// NewChecker builds a Checker. A non-positive cutoff falls back to
// DefaultAdvanceCutoffDay and a nil location to UTC.
func NewChecker(cutoffDay int, loc *time.Location) Checker {
	if cutoffDay <= 0 {
		cutoffDay = DefaultAdvanceCutoffDay
	}
	if loc == nil {
		loc = time.UTC
	}
	return Checker{cutoffDay: cutoffDay, loc: loc}
}

// Location returns the timezone "today" is evaluated in.
func (c Checker) Location() *time.Location {
	return c.loc
}

// Check runs the rules in order and returns the first failure.
func (c Checker) Check(in EligibilityInput) error {
	d := in.Draft
	if d.Kind == KindLeave || d.Kind == KindMission {
		if err := CheckDateRange(d.StartDate, d.EndDate); err != nil {
			return err
		}
		if err := CheckStartNotPast(d.StartDate, in.Now, c.loc); err != nil {
			return err
		}
	}
	if d.Kind == KindLeave {
		if err := CheckLeaveBalance(d.StartDate, d.EndDate, in.Balance); err != nil {
			return err
		}
	}
	if err := CheckNoPending(d.Kind, in.HasPending); err != nil {
		return err
	}
	if d.Kind == KindAdvance {
		if err := CheckMonthlyDeadline(in.Now, c.cutoffDay, c.loc); err != nil {
			return err
		}
	}
	return nil
}

// CheckDateRange fails when end precedes start.
func CheckDateRange(start, end time.Time) error {
	if CivilDate(end).Before(CivilDate(start)) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidDateRange,
			start.Format(DateLayout), end.Format(DateLayout))
	}
	return nil
}

// CheckStartNotPast fails when start is before today in loc.
func CheckStartNotPast(start, now time.Time, loc *time.Location) error {
	today := CivilDate(now.In(loc))
	if CivilDate(start).Before(today) {
		return fmt.Errorf("%w: %s is before %s", ErrPastStartDate,
			start.Format(DateLayout), today.Format(DateLayout))
	}
	return nil
}

// CheckLeaveBalance fails when the inclusive period exceeds the remaining allowance.
func CheckLeaveBalance(start, end time.Time, b Balance) error {
	days := LeaveDays(start, end)
	if days > b.Remaining() {
		return fmt.Errorf("%w: %d day(s) requested, %d remaining", ErrInsufficientBalance, days, b.Remaining())
	}
	return nil
}

// CheckNoPending fails when a non-terminal request of the same kind exists.
func CheckNoPending(kind Kind, hasPending bool) error {
	if hasPending {
		return fmt.Errorf("%w: kind %s", ErrDuplicatePending, kind)
	}
	return nil
}

// CheckMonthlyDeadline fails once the day of month in loc is past cutoffDay.
func CheckMonthlyDeadline(now time.Time, cutoffDay int, loc *time.Location) error {
	day := now.In(loc).Day()
	if day > cutoffDay {
		return fmt.Errorf("%w: requests close on day %d, today is day %d", ErrPastMonthlyDeadline, cutoffDay, day)
	}
	return nil
}

// DateLayout is the wire format of civil dates.
const DateLayout = "2006-01-02"

// CivilDate drops the clock part of t, keeping its calendar date in t's location,
// and returns that date at UTC midnight.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD civil date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// LeaveDays counts calendar days in [start, end], both ends included.
func LeaveDays(start, end time.Time) int {
	return int(CivilDate(end).Sub(CivilDate(start)).Hours()/24) + 1
}
