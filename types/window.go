package types

import "time"

// Timestamp layout used for every date column in the report.
const TimeLayout = "2006-01-02 15:04:05"

// ReportWindow is the UTC calendar day a report covers. Start is inclusive,
// End exclusive.
type ReportWindow struct {
	Start time.Time
	End   time.Time
}

// WindowFor returns the report window for a run happening at now: the full
// UTC day before it. Computed once per run and shared by both collectors.
func WindowFor(now time.Time) ReportWindow {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return ReportWindow{
		Start: today.AddDate(0, 0, -1),
		End:   today,
	}
}

// Date returns the window's calendar date in ISO form, used in the report
// key and notification subject.
func (w ReportWindow) Date() string {
	return w.Start.Format("2006-01-02")
}

// SameDay reports whether t's UTC date equals the window date. This is how
// classification treats creation and capture times.
func (w ReportWindow) SameDay(t time.Time) bool {
	y1, m1, d1 := t.UTC().Date()
	y2, m2, d2 := w.Start.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
