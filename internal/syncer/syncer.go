package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"yagsync/internal/calendar"
)

// Report summarizes one sync run. Per-event create failures are counted here
// rather than raised: the run is best-effort and the next run retries
// naturally, because a failed event still shows as missing.
type Report struct {
	FetchedA, FetchedB int
	CreatedA, CreatedB int
	FailedA, FailedB   int
}

func (r Report) Summary() string {
	return fmt.Sprintf("fetched %d+%d, created %d+%d, failed %d+%d",
		r.FetchedA, r.FetchedB, r.CreatedA, r.CreatedB, r.FailedA, r.FailedB)
}

// Syncer replicates events missing on either side so that, by identity key,
// each calendar contains every key the other one has. It is stateless: every
// run re-derives the full diff from a fresh fetch over the window.
type Syncer struct {
	A, B calendar.Provider

	// DryRun computes and logs the diff without creating anything.
	DryRun bool

	Log *logrus.Entry
}

func New(a, b calendar.Provider, log *logrus.Entry) *Syncer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Syncer{A: a, B: b, Log: log}
}

// Run fetches both sides over [from, to], diffs them by identity key and
// creates the missing events on each side. A fetch failure is fatal (there is
// nothing to diff against); a create failure is logged, counted and skipped.
func (s *Syncer) Run(ctx context.Context, from, to time.Time) (Report, error) {
	var rep Report

	eventsA, err := s.A.Events(ctx, from, to)
	if err != nil {
		return rep, fmt.Errorf("fetching %s events: %w", s.A.Name(), err)
	}
	eventsB, err := s.B.Events(ctx, from, to)
	if err != nil {
		return rep, fmt.Errorf("fetching %s events: %w", s.B.Name(), err)
	}
	rep.FetchedA = len(eventsA)
	rep.FetchedB = len(eventsB)

	missingInB, missingInA := Diff(eventsA, eventsB)
	s.Log.WithFields(logrus.Fields{
		s.A.Name(): len(eventsA),
		s.B.Name(): len(eventsB),
	}).Infof("%d event(s) missing on %s, %d on %s",
		len(missingInB), s.B.Name(), len(missingInA), s.A.Name())

	if s.DryRun {
		for _, ev := range missingInB {
			s.Log.Infof("dry-run: would create %q (%s) on %s", ev.Summary, ev.Start, s.B.Name())
		}
		for _, ev := range missingInA {
			s.Log.Infof("dry-run: would create %q (%s) on %s", ev.Summary, ev.Start, s.A.Name())
		}
		return rep, nil
	}

	rep.CreatedB, rep.FailedB = s.createAll(ctx, s.B, missingInB)
	rep.CreatedA, rep.FailedA = s.createAll(ctx, s.A, missingInA)
	return rep, nil
}

func (s *Syncer) createAll(ctx context.Context, p calendar.Provider, events []calendar.Event) (created, failed int) {
	for _, ev := range events {
		ref, err := p.CreateEvent(ctx, ev)
		if err != nil {
			failed++
			s.Log.WithError(err).Warnf("unable to create %q (%s) on %s", ev.Summary, ev.Start, p.Name())
			continue
		}
		created++
		s.Log.Infof("created %q (%s) on %s as %s", ev.Summary, ev.Start, p.Name(), ref)
	}
	return created, failed
}
