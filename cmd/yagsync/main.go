package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"yagsync/internal/caldav"
	"yagsync/internal/config"
	"yagsync/internal/gcal"
	"yagsync/internal/syncer"
	"yagsync/internal/tokens"
)

func main() {
	configPath := flag.String("config", config.DefaultFilename, "path to the TOML config file")
	dryRun := flag.Bool("dry-run", false, "compute the diff without creating events")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("configuration error")
	}

	ctx := context.Background()

	store, err := tokens.OpenSQLite(cfg.Google.TokenDB)
	if err != nil {
		log.WithError(err).Fatal("opening token store")
	}
	defer store.Close()

	credJSON, err := os.ReadFile(cfg.Google.CredentialsFile)
	if err != nil {
		log.WithError(err).Fatal("reading google credentials file")
	}
	googleCal, err := gcal.New(credJSON, cfg.Google.Scopes, cfg.Google.CalendarID,
		store, nil, log.WithField("side", "google"))
	if err != nil {
		log.WithError(err).Fatal("google calendar setup failed")
	}

	yandexCal, err := caldav.New(ctx, "yandex", cfg.Yandex.ServerURL,
		cfg.Yandex.Username, cfg.Yandex.Password, cfg.Yandex.Calendar,
		log.WithField("side", "yandex"))
	if err != nil {
		log.WithError(err).Fatal("yandex calendar setup failed")
	}

	from, to := syncer.Window(time.Now(), cfg.Sync.PastDays, cfg.Sync.FutureDays)
	log.Infof("syncing window %s .. %s", from.Format(time.RFC3339), to.Format(time.RFC3339))

	s := syncer.New(yandexCal, googleCal, logrus.NewEntry(log))
	s.DryRun = *dryRun

	rep, err := s.Run(ctx, from, to)
	if err != nil {
		log.WithError(err).Fatal("sync failed")
	}

	// Per-event create failures are counted in the report but do not change
	// the exit code: the run is best-effort and the next run retries them.
	log.Infof("sync complete: %s", rep.Summary())
}
