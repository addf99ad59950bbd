package engine

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/tartampluch/go-nlcep/internal/config"
)

// Resolution is the absolute date and optional time produced by Resolve.
type Resolution struct {
	Date    civil.Date
	Time    civil.Time
	HasTime bool
}

// Resolve turns the selected tokens into calendar values relative to now.
// The reference date is now's calendar date in now's own location. A nil
// tm means no time was recognized.
func Resolve(date DateMatch, tm *TimeMatch, now time.Time) (Resolution, error) {
	ref := civil.DateOf(now)

	d, ok := date.Token.resolve(ref)
	if !ok {
		return Resolution{}, &ParseError{
			Kind: FailureInvalidDate,
			Span: date.Span,
		}
	}

	res := Resolution{Date: d}
	if tm != nil {
		res.Time = civil.Time{Hour: tm.Token.Hour, Minute: tm.Token.Minute}
		res.HasTime = true
	}
	return res, nil
}

// resolve keeps explicit years as written. Yearless dates land on the next
// occurrence on or after ref; a yearless Feb 29 waits for the next leap year.
func (a AbsoluteDate) resolve(ref civil.Date) (civil.Date, bool) {
	if a.HasYear {
		d := civil.Date{Year: a.Year, Month: a.Month, Day: a.Day}
		return d, d.IsValid()
	}

	if a.Month == time.February && a.Day == 29 {
		for y := ref.Year; y <= ref.Year+config.MaxLeapYearSearch; y++ {
			d := civil.Date{Year: y, Month: a.Month, Day: a.Day}
			if d.IsValid() && !d.Before(ref) {
				return d, true
			}
		}
		return civil.Date{}, false
	}

	d := civil.Date{Year: ref.Year, Month: a.Month, Day: a.Day}
	if !d.IsValid() {
		return d, false
	}
	if d.Before(ref) {
		d.Year++
	}
	return d, true
}

func (r RelativeDay) resolve(ref civil.Date) (civil.Date, bool) {
	return ref.AddDays(r.Offset), true
}

// resolve picks the nearest occurrence on or after ref; "next" skips it by
// one more week, so "next Monday" on a Monday is a week away.
func (w NamedWeekday) resolve(ref civil.Date) (civil.Date, bool) {
	current := ref.In(time.UTC).Weekday()
	delta := (int(w.Weekday) - int(current) + config.DaysPerWeek) % config.DaysPerWeek
	if w.Next {
		delta += config.DaysPerWeek
	}
	return ref.AddDays(delta), true
}
