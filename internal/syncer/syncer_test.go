package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yagsync/internal/calendar"
)

type fakeProvider struct {
	name     string
	events   []calendar.Event
	fetchErr error

	created []calendar.Event
	// failOn makes CreateEvent fail for events with the given summary.
	failOn map[string]error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Events(context.Context, time.Time, time.Time) ([]calendar.Event, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.events, nil
}

func (f *fakeProvider) CreateEvent(_ context.Context, ev calendar.Event) (string, error) {
	if err := f.failOn[ev.Summary]; err != nil {
		return "", err
	}
	f.created = append(f.created, ev)
	f.events = append(f.events, ev)
	return fmt.Sprintf("%s-ref-%d", f.name, len(f.created)), nil
}

func mustEvent(t *testing.T, summary string, start time.Time, end time.Time) calendar.Event {
	t.Helper()
	ev, err := calendar.NewEvent(summary, "", start, end)
	require.NoError(t, err)
	return ev
}

func quietLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

var (
	nine = time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	noon = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	from = time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2026, 9, 23, 0, 0, 0, 0, time.UTC)
)

func TestRunCreatesMissingEvent(t *testing.T) {
	a := &fakeProvider{name: "yandex", events: []calendar.Event{
		mustEvent(t, "Standup", nine, nine.Add(15*time.Minute)),
		mustEvent(t, "Lunch", noon, noon.Add(time.Hour)),
	}}
	b := &fakeProvider{name: "google", events: []calendar.Event{
		mustEvent(t, "Standup", nine, nine.Add(30*time.Minute)),
	}}

	rep, err := New(a, b, quietLog()).Run(context.Background(), from, to)
	require.NoError(t, err)

	require.Len(t, b.created, 1)
	assert.Equal(t, "Lunch", b.created[0].Summary)
	assert.True(t, b.created[0].Start.Equal(noon))
	assert.Empty(t, a.created)

	assert.Equal(t, Report{FetchedA: 2, FetchedB: 1, CreatedB: 1}, rep)
}

func TestRunIsIdempotent(t *testing.T) {
	a := &fakeProvider{name: "yandex", events: []calendar.Event{
		mustEvent(t, "Standup", nine, nine.Add(time.Hour)),
	}}
	b := &fakeProvider{name: "google", events: []calendar.Event{
		mustEvent(t, "Lunch", noon, noon.Add(time.Hour)),
	}}

	s := New(a, b, quietLog())
	_, err := s.Run(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, a.created, 1)
	require.Len(t, b.created, 1)

	// Second pass over the now-synchronized calendars creates nothing.
	rep, err := s.Run(context.Background(), from, to)
	require.NoError(t, err)
	assert.Zero(t, rep.CreatedA)
	assert.Zero(t, rep.CreatedB)
	assert.Len(t, a.created, 1)
	assert.Len(t, b.created, 1)
}

func TestRunPartialFailureIsolation(t *testing.T) {
	a := &fakeProvider{name: "yandex", events: []calendar.Event{
		mustEvent(t, "One", nine, nine.Add(time.Hour)),
		mustEvent(t, "Two", nine.Add(time.Hour), nine.Add(2*time.Hour)),
		mustEvent(t, "Three", nine.Add(2*time.Hour), nine.Add(3*time.Hour)),
	}}
	b := &fakeProvider{name: "google", failOn: map[string]error{
		"Two": fmt.Errorf("%w: quota exceeded", calendar.ErrConnectivity),
	}}

	rep, err := New(a, b, quietLog()).Run(context.Background(), from, to)
	require.NoError(t, err)

	require.Len(t, b.created, 2)
	assert.Equal(t, "One", b.created[0].Summary)
	assert.Equal(t, "Three", b.created[1].Summary)
	assert.Equal(t, 2, rep.CreatedB)
	assert.Equal(t, 1, rep.FailedB)
}

func TestRunFetchFailureIsFatal(t *testing.T) {
	a := &fakeProvider{name: "yandex", fetchErr: fmt.Errorf("%w: 401", calendar.ErrConnectivity)}
	b := &fakeProvider{name: "google", events: []calendar.Event{
		mustEvent(t, "Lunch", noon, noon.Add(time.Hour)),
	}}

	_, err := New(a, b, quietLog()).Run(context.Background(), from, to)
	require.Error(t, err)
	assert.True(t, errors.Is(err, calendar.ErrConnectivity))
	assert.Contains(t, err.Error(), "yandex")
	assert.Empty(t, b.created)
}

func TestRunDryRunCreatesNothing(t *testing.T) {
	a := &fakeProvider{name: "yandex", events: []calendar.Event{
		mustEvent(t, "Lunch", noon, noon.Add(time.Hour)),
	}}
	b := &fakeProvider{name: "google"}

	s := New(a, b, quietLog())
	s.DryRun = true

	rep, err := s.Run(context.Background(), from, to)
	require.NoError(t, err)
	assert.Empty(t, a.created)
	assert.Empty(t, b.created)
	assert.Zero(t, rep.CreatedA)
	assert.Zero(t, rep.CreatedB)
}
