package marketdata

import (
	"sort"
	"time"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
)

// Calendar is an ordered list of trading dates with O(1) index lookup.
type Calendar struct {
	dates []string
	index map[string]int
}

// NewCalendar builds a calendar from trading dates; input is deduplicated and
// sorted.
func NewCalendar(dates []string) *Calendar {
	seen := make(map[string]struct{}, len(dates))
	unique := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}
	sort.Strings(unique)

	index := make(map[string]int, len(unique))
	for i, d := range unique {
		index[d] = i
	}
	return &Calendar{dates: unique, index: index}
}

func (c *Calendar) Len() int {
	return len(c.dates)
}

func (c *Calendar) At(i int) string {
	return c.dates[i]
}

func (c *Calendar) Dates() []string {
	return c.dates
}

// Index returns the position of date in the calendar.
func (c *Calendar) Index(date string) (int, bool) {
	i, ok := c.index[date]
	return i, ok
}

// TradingDaysBetween returns the number of trading days from `from` to `to`
// (0 when equal). Both dates must be calendar members.
func (c *Calendar) TradingDaysBetween(from, to string) (int, bool) {
	i, ok := c.index[from]
	if !ok {
		return 0, false
	}
	j, ok := c.index[to]
	if !ok {
		return 0, false
	}
	return j - i, true
}

// CalendarDaysBetween returns elapsed calendar days between two dates.
// Used for the pending-order day ceiling.
func CalendarDaysBetween(from, to string) (int, error) {
	t0, err := time.Parse(domain.DateLayout, from)
	if err != nil {
		return 0, err
	}
	t1, err := time.Parse(domain.DateLayout, to)
	if err != nil {
		return 0, err
	}
	return int(t1.Sub(t0).Hours() / 24), nil
}
