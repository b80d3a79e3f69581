package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seenimoa/insiderwatch/internal/pipeline"
	"github.com/seenimoa/insiderwatch/internal/store"
	"github.com/seenimoa/insiderwatch/internal/watcher"
)

// --- Watch Command ---

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the EDGAR feed and store every new Form 4 filing",
	Long: `watch polls the latest-filings feed on the configured interval,
fetches and decodes each new filing and hands it to the configured store.
It runs until interrupted (SIGINT or SIGTERM).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		since, _ := cfg.Feed.SinceTime()
		log := logrus.NewEntry(logger)

		sink, err := store.Open(cfg.Store.Driver, cfg.Store.Path, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() {
			if err := sink.Close(); err != nil {
				log.WithError(err).Error("closing store")
			}
		}()

		client := newClient()
		w := watcher.New(client, watcher.Options{
			URL:         cfg.Feed.URL,
			Interval:    cfg.Feed.Interval,
			TitlePrefix: cfg.Feed.TitlePrefix,
			Since:       since,
			Logger:      log,
		})
		defer w.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			w.Close()
		}()

		p := pipeline.New(w, client, sink, pipeline.Options{
			Workers: cfg.Pipeline.Workers,
			SeenTTL: cfg.Pipeline.SeenTTL,
			Logger:  log,
		})

		log.WithFields(logrus.Fields{
			"feed":     cfg.Feed.URL,
			"interval": cfg.Feed.Interval,
			"store":    cfg.Store.Driver,
		}).Info("watching for filings")

		err = p.Run(ctx)

		t := p.Totals()
		log.WithFields(logrus.Fields{
			"seen":          t.Seen,
			"stored":        t.Stored,
			"skipped":       t.Skipped,
			"fetch_failed":  t.FetchFailed,
			"decode_failed": t.DecodeFailed,
			"sink_failed":   t.SinkFailed,
			"undelivered":   w.Pending(),
			"watermark":     w.Watermark(),
		}).Info("stopped")
		return err
	},
}
