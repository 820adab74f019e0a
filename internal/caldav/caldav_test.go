package caldav

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	caldavclient "github.com/emersion/go-webdav/caldav"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServerProvider builds a Provider against a stub CalDAV server whose
// calendar query always returns the given ICS body as one calendar object.
func fakeServerProvider(t *testing.T, ics string) *Provider {
	t.Helper()

	ms := `<?xml version="1.0" encoding="UTF-8"?>
<multistatus xmlns="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
 <response>
  <href>/calendars/work/all.ics</href>
  <propstat>
   <prop>
    <C:calendar-data><![CDATA[` + ics + `]]></C:calendar-data>
   </prop>
   <status>HTTP/1.1 200 OK</status>
  </propstat>
 </response>
</multistatus>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(http.StatusMultiStatus)
		io.WriteString(w, ms)
	}))
	t.Cleanup(srv.Close)

	c, err := caldavclient.NewClient(srv.Client(), srv.URL)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Provider{
		name:   "yandex",
		client: c,
		path:   "/calendars/work/",
		log:    logrus.NewEntry(log),
	}
}

func TestEventsSkipsMalformedRecords(t *testing.T) {
	// Three raw records, one without a DTSTART: the two valid ones survive
	// and the fetch does not fail.
	ics := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//test//EN",
		"BEGIN:VEVENT",
		"UID:1",
		"SUMMARY:Standup",
		"DTSTART:20260824T090000Z",
		"DTEND:20260824T091500Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:2",
		"SUMMARY:Broken",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:3",
		"SUMMARY:Lunch",
		"DTSTART:20260824T120000Z",
		"DTEND:20260824T130000Z",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\n")

	p := fakeServerProvider(t, ics)

	events, err := p.Events(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Standup", events[0].Summary)
	assert.Equal(t, "Lunch", events[1].Summary)
}

func TestEventsDropsBoundarySpanningStart(t *testing.T) {
	// An event overlapping the window start but starting before it matches
	// the server-side overlap filter yet must not be returned.
	ics := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//test//EN",
		"BEGIN:VEVENT",
		"UID:1",
		"SUMMARY:Night shift",
		"DTSTART:20260816T230000Z",
		"DTEND:20260817T010000Z",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\n")

	p := fakeServerProvider(t, ics)

	events, err := p.Events(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)
	assert.Empty(t, events)
}
