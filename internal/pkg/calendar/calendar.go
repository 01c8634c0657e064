package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	keyFormat     = "%04d/%02d/%02d.txt"
	displayLayout = "2006-01-02(Mon)"
)

// DatePattern matches a date token such as 2024-3-5 or 24-03-05.
const DatePattern = `\d{2,4}-\d{1,2}-\d{1,2}`

var dateRegexp = regexp.MustCompile(`^(\d{2,4})-(\d{1,2})-(\d{1,2})$`)

var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar day with a normalized year.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Entry is one day's diary text.
type Entry struct {
	Date Date
	Body string
}

// NewDate returns the date for year/month/day, rejecting days that do not
// exist such as Feb 30.
func NewDate(year int, month time.Month, day int) (Date, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// ParseDate parses a date token. Two digit years are expanded the way %y
// does it: 69-99 become 19xx, 00-68 become 20xx.
func ParseDate(token string) (Date, error) {
	m := dateRegexp.FindStringSubmatch(token)
	if m == nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, token)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	if len(m[1]) == 2 {
		if year >= 69 {
			year += 1900
		} else {
			year += 2000
		}
	}

	return NewDate(year, time.Month(month), day)
}

// FromTime returns the calendar day of t in t's location.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Today returns the current day in loc.
func Today(loc *time.Location) Date {
	return FromTime(time.Now().In(loc))
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Key is the storage key of the day, YYYY/MM/DD.txt.
func (d Date) Key() string {
	return fmt.Sprintf(keyFormat, d.Year, int(d.Month), d.Day)
}

// Display formats the day for chat messages, e.g. 2024-03-05(Tue).
func (d Date) Display() string {
	return d.Time().Format(displayLayout)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// YearsAgo returns the same month and day n years earlier. ok is false when
// that day does not exist in the target year.
func (d Date) YearsAgo(n int) (Date, bool) {
	prev, err := NewDate(d.Year-n, d.Month, d.Day)
	if err != nil {
		return Date{}, false
	}

	return prev, true
}
