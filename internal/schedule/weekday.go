package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRule is returned for anything that is not one of the seven weekday symbols.
var ErrInvalidRule = errors.New("invalid frequency")

// Weekday is a weekly recurrence rule stored as a lowercase three-letter symbol.
type Weekday string

const (
	Mon Weekday = "mon"
	Tue Weekday = "tue"
	Wed Weekday = "wed"
	Thu Weekday = "thu"
	Fri Weekday = "fri"
	Sat Weekday = "sat"
	Sun Weekday = "sun"
)

var weekdayIndex = map[Weekday]time.Weekday{
	Mon: time.Monday,
	Tue: time.Tuesday,
	Wed: time.Wednesday,
	Thu: time.Thursday,
	Fri: time.Friday,
	Sat: time.Saturday,
	Sun: time.Sunday,
}

// Weekdays lists every rule in calendar order starting from Monday.
func Weekdays() []Weekday {
	return []Weekday{Mon, Tue, Wed, Thu, Fri, Sat, Sun}
}

func (w Weekday) Valid() bool {
	_, ok := weekdayIndex[w]
	return ok
}

// TimeWeekday maps the rule onto the standard library weekday. It reports false for unknown rules.
func (w Weekday) TimeWeekday() (time.Weekday, bool) {
	d, ok := weekdayIndex[w]
	return d, ok
}

func (w Weekday) String() string {
	return string(w)
}

// ParseWeekday accepts a symbol in any case, surrounded by optional whitespace.
func ParseWeekday(raw string) (Weekday, error) {
	w := Weekday(strings.ToLower(strings.TrimSpace(raw)))
	if !w.Valid() {
		return "", invalidRule(raw)
	}
	return w, nil
}

// ParseRules validates every symbol before returning anything and collapses duplicates,
// keeping the order in which rules were first seen.
func ParseRules(raw []string) ([]Weekday, error) {
	rules := make([]Weekday, 0, len(raw))
	seen := make(map[Weekday]struct{}, len(raw))
	for _, r := range raw {
		w, err := ParseWeekday(r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		rules = append(rules, w)
	}
	return rules, nil
}

func invalidRule(raw string) error {
	symbols := make([]string, 0, len(weekdayIndex))
	for _, w := range Weekdays() {
		symbols = append(symbols, string(w))
	}
	return fmt.Errorf("%w %q, must be one of: %s", ErrInvalidRule, raw, strings.Join(symbols, ", "))
}
