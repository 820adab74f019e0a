// Package caldav implements the calendar.Provider contract on top of a
// CalDAV server, Yandex Calendar by default.
package caldav

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	caldavclient "github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"yagsync/internal/calendar"
)

type Provider struct {
	name   string
	client *caldavclient.Client
	path   string
	log    *logrus.Entry
}

// New connects to the CalDAV server with basic auth and locates the calendar
// with the given display name among the principal's calendars.
func New(ctx context.Context, name, serverURL, username, password, calendarName string, log *logrus.Entry) (*Provider, error) {
	baseURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CalDAV server URL: %w", err)
	}

	var httpClient webdav.HTTPClient = http.DefaultClient
	if username != "" && password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, username, password)
	}

	c, err := caldavclient.NewClient(httpClient, baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("creating CalDAV client: %w", err)
	}

	// Empty path lets the client discover the calendar home set itself.
	calendars, err := c.FindCalendars(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s calendars: %v", calendar.ErrConnectivity, name, err)
	}

	for _, cal := range calendars {
		if cal.Name == calendarName {
			return &Provider{
				name:   name,
				client: c,
				path:   cal.Path,
				log:    log,
			}, nil
		}
	}
	return nil, fmt.Errorf("calendar named %q not found on %s", calendarName, serverURL)
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Events(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	query := &caldavclient.CalendarQuery{
		CompFilter: caldavclient.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldavclient.CompFilter{{
				Name:  "VEVENT",
				Start: from,
				End:   to,
			}},
		},
	}

	objects, err := p.client.QueryCalendar(ctx, p.path, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s calendar: %v", calendar.ErrConnectivity, p.name, err)
	}

	var result []calendar.Event
	for _, obj := range objects {
		for _, comp := range obj.Data.Component.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			events, err := expandComponent(comp, from, to)
			if err != nil {
				p.log.WithError(err).Warnf("skipping malformed event at %s", obj.Path)
				continue
			}
			result = append(result, events...)
		}
	}
	return result, nil
}

func (p *Provider) CreateEvent(ctx context.Context, ev calendar.Event) (string, error) {
	uid := uuid.NewString()

	icalEvent := ical.NewEvent()
	icalEvent.Props.SetText(ical.PropUID, uid)
	icalEvent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	icalEvent.Props.SetText(ical.PropSummary, ev.Summary)
	if ev.Description != "" {
		icalEvent.Props.SetText(ical.PropDescription, ev.Description)
	}
	icalEvent.Props.SetDateTime(ical.PropDateTimeStart, ev.Start)
	icalEvent.Props.SetDateTime(ical.PropDateTimeEnd, ev.End)

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, "-//yagsync//yagsync//EN")
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Children = append(cal.Children, icalEvent.Component)

	path := strings.TrimSuffix(p.path, "/") + "/" + uid + ".ics"
	if _, err := p.client.PutCalendarObject(ctx, path, cal); err != nil {
		return "", fmt.Errorf("%w: creating event on %s: %v", calendar.ErrConnectivity, p.name, err)
	}
	return uid, nil
}
