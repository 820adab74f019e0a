package calendar

import (
	"context"
	"time"
)

// Provider is one side of the synchronization. Both backends expose the same
// contract so the syncer never needs to know which protocol it is talking to.
type Provider interface {
	// Name labels the side in logs and reports ("yandex", "google").
	Name() string

	// Events returns every event whose start falls within [from, to]
	// inclusive, normalized into the Event model. An empty calendar yields
	// an empty slice, not an error. Records that cannot be parsed are
	// skipped with a warning; transport or auth failures return an error
	// wrapping ErrConnectivity.
	Events(ctx context.Context, from, to time.Time) ([]Event, error)

	// CreateEvent persists a new event and returns the provider-assigned
	// reference. Callers are expected to pass only events verified absent
	// by identity key; the provider itself does not deduplicate.
	CreateEvent(ctx context.Context, ev Event) (string, error)
}
