package caldav

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"yagsync/internal/calendar"
)

// Cap on recurrence expansion, guards against pathological RRULEs.
const maxOccurrences = 1000

// expandComponent normalizes one VEVENT into Events whose start falls within
// [from, to]. Non-recurring events yield at most one Event; events carrying
// an RRULE are expanded occurrence by occurrence, preserving the original
// duration and honoring EXDATE. The Google side returns single instances
// already, so expansion here keeps identity keys comparable across sides.
func expandComponent(comp *ical.Component, from, to time.Time) ([]calendar.Event, error) {
	summary, _ := comp.Props.Text(ical.PropSummary)
	description, _ := comp.Props.Text(ical.PropDescription)

	start, err := comp.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: bad DTSTART: %v", calendar.ErrInvalidEvent, err)
	}
	end, err := comp.Props.DateTime(ical.PropDateTimeEnd, time.UTC)
	if err != nil {
		end = time.Time{}
	}

	var ropt *rrule.ROption
	if prop := comp.Props.Get(ical.PropRecurrenceRule); prop != nil {
		ropt, err = rrule.StrToROption(prop.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: bad RRULE: %v", calendar.ErrInvalidEvent, err)
		}
	}

	if ropt == nil {
		// The server-side filter matches by overlap; re-check the start.
		if start.Before(from) || start.After(to) {
			return nil, nil
		}
		ev, err := calendar.NewEvent(summary, description, start, end)
		if err != nil {
			return nil, err
		}
		return []calendar.Event{ev}, nil
	}

	ropt.Dtstart = start.UTC()
	rule, err := rrule.NewRRule(*ropt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad RRULE: %v", calendar.ErrInvalidEvent, err)
	}

	var set rrule.Set
	set.RRule(rule)
	for _, prop := range comp.Props.Values(ical.PropExceptionDates) {
		ex, err := prop.DateTime(time.UTC)
		if err != nil {
			continue
		}
		set.ExDate(ex.UTC())
	}

	duration := time.Hour
	if !end.IsZero() && end.After(start) {
		duration = end.Sub(start)
	}

	starts := set.Between(from, to, true)
	if len(starts) > maxOccurrences {
		starts = starts[:maxOccurrences]
	}

	var events []calendar.Event
	for _, st := range starts {
		ev, err := calendar.NewEvent(summary, description, st, st.Add(duration))
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
