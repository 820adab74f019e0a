package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrConnectivity marks transport or authentication failures against a
	// calendar backend. Fatal during fetch, skippable during create.
	ErrConnectivity = errors.New("calendar backend unreachable")

	// ErrInvalidEvent marks a fetched record that cannot be normalized
	// into an Event (missing summary, unusable start time).
	ErrInvalidEvent = errors.New("invalid calendar event")
)

// Key identifies an event occurrence across calendars. Two events with equal
// keys are treated as the same occurrence no matter which backend they came
// from. The key is deliberately lossy: end time, description and the original
// timezone representation are ignored.
type Key struct {
	Summary string
	Start   string
}

func (k Key) String() string {
	return k.Summary + "/" + k.Start
}

// KeyOf computes the identity key for a (summary, start) pair. The summary is
// trimmed of surrounding whitespace and the start instant collapsed to UTC
// with second precision, so both backends normalize identically.
func KeyOf(summary string, start time.Time) Key {
	return Key{
		Summary: strings.TrimSpace(summary),
		Start:   start.UTC().Truncate(time.Second).Format(time.RFC3339),
	}
}

// Event is a normalized calendar event, independent of its source backend.
// Events are built fresh from fetch results on every run and never mutated.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time

	// SourceRef is the provider-assigned identifier on the side the event
	// was fetched from. Empty for events not yet persisted on a side, and
	// never part of the identity key.
	SourceRef string
}

// NewEvent validates and normalizes a fetched record. Start and end are
// collapsed to UTC; a missing end defaults to one hour after start.
func NewEvent(summary, description string, start, end time.Time) (Event, error) {
	if strings.TrimSpace(summary) == "" {
		return Event{}, fmt.Errorf("%w: empty summary", ErrInvalidEvent)
	}
	if start.IsZero() {
		return Event{}, fmt.Errorf("%w: %q has no start time", ErrInvalidEvent, summary)
	}
	if end.IsZero() {
		end = start.Add(time.Hour)
	}
	return Event{
		Summary:     summary,
		Description: description,
		Start:       start.UTC(),
		End:         end.UTC(),
	}, nil
}

// Key returns the identity key of the event.
func (e Event) Key() Key {
	return KeyOf(e.Summary, e.Start)
}
