package schedule

import "time"

const lastNanosecondOfDay = int(time.Second - time.Microsecond)

// NextDue returns the end of the next day, strictly after the base date, that falls on rule.
//
// The base date is reference's date, or now's date when reference has already fallen behind
// today. Both instants are compared as dates in now's location.
func NextDue(rule Weekday, reference, now time.Time) (time.Time, error) {
	target, ok := rule.TimeWeekday()
	if !ok {
		return time.Time{}, invalidRule(string(rule))
	}

	loc := now.Location()
	today := StartOfDay(now)
	base := StartOfDay(reference.In(loc))
	if base.Before(today) {
		base = today
	}

	offset := int(target) - int(base.Weekday())
	if offset <= 0 {
		offset += 7
	}

	return EndOfDay(base.AddDate(0, 0, offset)), nil
}

// NextDueFromNow is NextDue against the wall clock at the moment of the call.
func NextDueFromNow(rule Weekday, reference time.Time) (time.Time, error) {
	return NextDue(rule, reference, time.Now())
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999999 on t's date in its own location.
func EndOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, lastNanosecondOfDay, t.Location())
}
