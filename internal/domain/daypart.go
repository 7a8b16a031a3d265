package domain

import "fmt"

// Daypart is one of the four 6-hour windows of a calendar day. The numeric
// value defines the sort order.
type Daypart int

const (
	Night Daypart = iota
	Morning
	Afternoon
	Evening
)

// Dayparts lists every day-part in order.
var Dayparts = []Daypart{Night, Morning, Afternoon, Evening}

var daypartNames = [...]string{"night", "morning", "afternoon", "evening"}

// DaypartForHour maps an hour of day to its day-part. It reports false for
// hours outside [0, 24).
func DaypartForHour(hour int) (Daypart, bool) {
	if hour < 0 || hour > 23 {
		return 0, false
	}
	return Daypart(hour / 6), true
}

// Hours returns the half-open hour range [start, end) covered by d.
func (d Daypart) Hours() (start, end int) {
	return int(d) * 6, int(d)*6 + 6
}

func (d Daypart) String() string {
	if d < Night || d > Evening {
		return fmt.Sprintf("daypart(%d)", int(d))
	}
	return daypartNames[d]
}

// ParseDaypart is the inverse of String.
func ParseDaypart(s string) (Daypart, error) {
	for i, name := range daypartNames {
		if name == s {
			return Daypart(i), nil
		}
	}
	return 0, fmt.Errorf("unknown daypart %q", s)
}

func (d Daypart) MarshalText() ([]byte, error) {
	if d < Night || d > Evening {
		return nil, fmt.Errorf("invalid daypart %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Daypart) UnmarshalText(b []byte) error {
	v, err := ParseDaypart(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
