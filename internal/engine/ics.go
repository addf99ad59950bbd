package engine

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/tartampluch/go-nlcep/internal/config"
)

// EncodeICS renders events as a VCALENDAR. Dated events become all-day
// VEVENTs; timed events start at their instant in loc and last
// config.DefaultEventDuration. stamp is written as DTSTAMP.
//
// UIDs are derived from the event content, so encoding the same event twice
// yields identical output.
func EncodeICS(events []ResolvedEvent, loc *time.Location, stamp time.Time) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(stamp.UTC())

	for _, ev := range events {
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, eventUID(ev))
		event.Props.Set(dtStampProp)
		event.Props.SetText(config.PropSummary, ev.Summary)
		if ev.HasLocation() {
			event.Props.SetText(config.PropLocation, ev.Location)
		}

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtEndProp := ical.NewProp(config.PropDTEnd)
		if ev.HasTime {
			// Timed events are written in UTC so no VTIMEZONE is needed.
			start := ev.DateTime(loc).UTC()
			dtStartProp.SetDateTime(start)
			dtEndProp.SetDateTime(start.Add(config.DefaultEventDuration))
		} else {
			dtStartProp.SetDate(ev.Date.In(loc))
			dtEndProp.SetDate(ev.Date.AddDays(1).In(loc))
		}
		event.Props.Set(dtStartProp)
		event.Props.Set(dtEndProp)

		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// eventUID hashes the event's identifying fields into a name-based UUID.
func eventUID(ev ResolvedEvent) string {
	when := ev.Date.String()
	if ev.HasTime {
		when += "T" + ev.Time.String()
	}
	name := fmt.Sprintf(config.FormatUIDInput, ev.Summary, when)
	if ev.HasLocation() {
		name += "|" + ev.Location
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@" + config.ICalDomain
}
