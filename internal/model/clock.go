package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the number of schedule minutes in one day.
const MinutesPerDay = 24 * 60

// Clock is a time of day in minutes since midnight, carried as "HH:MM" on
// the wire. Values past 23:59 are legal in computed schedules and format as
// "25:10" rather than wrapping, so late arrivals stay readable.
type Clock int

// ParseClock parses "HH:MM" with HH in [0,23] and MM in [0,59].
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) == 0 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid clock %q: hour out of range", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q: minute out of range", s)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid clock %s: want a quoted HH:MM string", data)
	}
	v, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
