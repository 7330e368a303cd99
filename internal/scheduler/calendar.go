package scheduler

import "time"

// Calendar describes the eligible exam dates of a run.
type Calendar struct {
	Start            time.Time
	End              time.Time
	SkipWeekends     bool
	ExcludedWeekdays []time.Weekday
	ExcludedDates    []time.Time
}

// DateIterator walks a Calendar lazily. A fresh iterator restarts from Start.
type DateIterator struct {
	next     time.Time
	end      time.Time
	weekdays map[time.Weekday]bool
	dates    map[time.Time]bool
}

// Iterator returns a new cursor positioned before the first eligible date.
func (c Calendar) Iterator() *DateIterator {
	it := &DateIterator{
		next:     CivilDate(c.Start),
		end:      CivilDate(c.End),
		weekdays: make(map[time.Weekday]bool, len(c.ExcludedWeekdays)+2),
		dates:    make(map[time.Time]bool, len(c.ExcludedDates)),
	}
	if c.SkipWeekends {
		it.weekdays[time.Saturday] = true
		it.weekdays[time.Sunday] = true
	}
	for _, wd := range c.ExcludedWeekdays {
		it.weekdays[wd] = true
	}
	for _, d := range c.ExcludedDates {
		it.dates[CivilDate(d)] = true
	}
	return it
}

// Next returns the next eligible date, or false once the range is exhausted.
func (it *DateIterator) Next() (time.Time, bool) {
	for !it.next.After(it.end) {
		current := it.next
		it.next = current.AddDate(0, 0, 1)
		if it.weekdays[current.Weekday()] || it.dates[current] {
			continue
		}
		return current, true
	}
	return time.Time{}, false
}

// Dates drains a fresh iterator into a slice in ascending order.
func (c Calendar) Dates() []time.Time {
	var dates []time.Time
	it := c.Iterator()
	for {
		d, ok := it.Next()
		if !ok {
			return dates
		}
		dates = append(dates, d)
	}
}
