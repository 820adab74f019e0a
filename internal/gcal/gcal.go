// Package gcal implements the calendar.Provider contract on top of the
// Google Calendar API, authorized through the OAuth2 installed-app flow.
package gcal

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"yagsync/internal/calendar"
	"yagsync/internal/tokens"
)

// account keys the cached token in the store.
const account = "google"

// AuthCodeFn obtains the authorization code for the given consent URL. The
// default implementation prompts on the terminal; tests inject their own.
type AuthCodeFn func(authURL string) (string, error)

// PromptAuthCode prints the consent URL and reads the code from stdin.
func PromptAuthCode(authURL string) (string, error) {
	fmt.Printf("Go to the following link in your browser then type the authorization code:\n%v\n", authURL)
	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return "", fmt.Errorf("reading authorization code: %w", err)
	}
	return code, nil
}

type Provider struct {
	name       string
	oauthCfg   *oauth2.Config
	calendarID string
	store      tokens.Store
	authCode   AuthCodeFn
	log        *logrus.Entry

	svc *gcalendar.Service
}

// New parses the client secrets JSON into an OAuth2 config. The calendar
// service itself is built lazily on the first fetch or create, which is when
// the interactive authorization flow may run.
func New(credJSON []byte, scopes []string, calendarID string, store tokens.Store, authCode AuthCodeFn, log *logrus.Entry) (*Provider, error) {
	oauthCfg, err := google.ConfigFromJSON(credJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}
	if authCode == nil {
		authCode = PromptAuthCode
	}
	return &Provider{
		name:       "google",
		oauthCfg:   oauthCfg,
		calendarID: calendarID,
		store:      store,
		authCode:   authCode,
		log:        log,
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

// service returns the calendar service, running the authorization flow once
// per process if the store holds no usable token. Refreshed tokens are saved
// back so the next run skips the flow.
func (p *Provider) service(ctx context.Context) (*gcalendar.Service, error) {
	if p.svc != nil {
		return p.svc, nil
	}

	tok, err := p.store.Load(account)
	if err != nil {
		return nil, fmt.Errorf("loading cached google token: %w", err)
	}
	if tok == nil {
		tok, err = p.authorize(ctx)
		if err != nil {
			return nil, err
		}
	}

	newTok, err := p.oauthCfg.TokenSource(ctx, tok).Token()
	if err != nil {
		// Refresh token expired or revoked; run the flow again.
		p.log.WithError(err).Warn("cached google token unusable, re-authorizing")
		newTok, err = p.authorize(ctx)
		if err != nil {
			return nil, err
		}
	}
	if newTok.AccessToken != tok.AccessToken {
		if err := p.store.Save(account, newTok); err != nil {
			return nil, fmt.Errorf("saving refreshed token: %w", err)
		}
	}

	svc, err := gcalendar.NewService(ctx, option.WithHTTPClient(p.oauthCfg.Client(ctx, newTok)))
	if err != nil {
		return nil, fmt.Errorf("creating google calendar service: %w", err)
	}
	p.svc = svc
	return svc, nil
}

func (p *Provider) authorize(ctx context.Context) (*oauth2.Token, error) {
	authURL := p.oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	code, err := p.authCode(authURL)
	if err != nil {
		return nil, err
	}
	tok, err := p.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchanging google authorization code: %v", calendar.ErrConnectivity, err)
	}
	if err := p.store.Save(account, tok); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}
	return tok, nil
}

func (p *Provider) Events(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return nil, err
	}

	var events []calendar.Event
	pageToken := ""
	for {
		call := svc.Events.List(p.calendarID).
			Context(ctx).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("%w: listing %s events: %v", calendar.ErrConnectivity, p.name, err)
		}
		for _, item := range resp.Items {
			ev, err := newEvent(item)
			if err != nil {
				p.log.WithError(err).Warnf("skipping malformed event %s", item.Id)
				continue
			}
			// timeMin bounds the event's end, so an event spanning the
			// window start comes back with a start outside [from, to].
			// Keep only in-window starts, like the CalDAV side.
			if ev.Start.Before(from) || ev.Start.After(to) {
				continue
			}
			events = append(events, ev)
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return events, nil
}

func (p *Provider) CreateEvent(ctx context.Context, ev calendar.Event) (string, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return "", err
	}

	created, err := svc.Events.Insert(p.calendarID, newGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: creating event on %s: %v", calendar.ErrConnectivity, p.name, err)
	}
	return created.Id, nil
}

// newEvent normalizes one API record. All-day events carry only a date and
// are skipped the same way as records with an unparseable start.
func newEvent(item *gcalendar.Event) (calendar.Event, error) {
	if item.Start == nil || item.Start.DateTime == "" {
		return calendar.Event{}, fmt.Errorf("%w: %q has no start dateTime", calendar.ErrInvalidEvent, item.Summary)
	}
	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("%w: bad start %q: %v", calendar.ErrInvalidEvent, item.Start.DateTime, err)
	}
	var end time.Time
	if item.End != nil && item.End.DateTime != "" {
		end, _ = time.Parse(time.RFC3339, item.End.DateTime)
	}

	ev, err := calendar.NewEvent(item.Summary, item.Description, start, end)
	if err != nil {
		return calendar.Event{}, err
	}
	ev.SourceRef = item.Id
	return ev, nil
}

func newGoogleEvent(ev calendar.Event) *gcalendar.Event {
	return &gcalendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcalendar.EventDateTime{
			DateTime: ev.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &gcalendar.EventDateTime{
			DateTime: ev.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}
}
