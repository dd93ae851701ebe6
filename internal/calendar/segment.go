// Package calendar splits a date range into month segments of business days.
package calendar

import (
	"time"

	"histpull/internal/model"
)

// Segments returns one Segment per calendar month overlapping the range, in
// chronological order. Each segment's business days are the weekdays of that
// month clipped to the range. A month whose clipped window contains no
// weekdays still yields a segment with an empty day list, so the writer can
// emit its empty marker.
func Segments(r model.DateRange, instrument string) []model.Segment {
	var segs []model.Segment

	month := time.Date(r.Start.Year(), r.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !month.After(r.End) {
		nextMonth := month.AddDate(0, 1, 0)

		from := month
		if from.Before(r.Start) {
			from = r.Start
		}
		to := nextMonth.AddDate(0, 0, -1)
		if to.After(r.End) {
			to = r.End
		}

		var days []time.Time
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if model.IsBusinessDay(d) {
				days = append(days, d)
			}
		}

		segs = append(segs, model.Segment{
			Instrument:   instrument,
			PeriodLabel:  month.Format(model.PeriodFormat),
			BusinessDays: days,
		})

		month = nextMonth
	}

	return segs
}
