package history

import "time"

// endOfDay returns 23:59:59.999999999 on t's calendar day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// Filter returns the entries whose IndexedAt falls in the inclusive range.
// A nil bound is open. The upper bound is extended to the end of its calendar
// day, so passing a date keeps everything indexed on that date.
func Filter(entries []Entry, from, to *time.Time) []Entry {
	if from == nil && to == nil {
		return entries
	}

	var out []Entry
	for _, e := range entries {
		if from != nil && e.IndexedAt.Before(*from) {
			continue
		}
		if to != nil && e.IndexedAt.After(endOfDay(*to)) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// LastNDays returns the preset bounds for "last N days": from midnight N days
// ago through today.
func LastNDays(n int, now time.Time) (from, to time.Time) {
	y, m, d := now.AddDate(0, 0, -n).Date()
	from = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return from, now
}
