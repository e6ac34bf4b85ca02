// Command rickmorty browses the Rick and Morty character catalog page by page.
//
// It drives a listing controller with a simulated viewport that scrolls to
// the bottom after every page, printing one row per character. Configuration
// comes from RM_* environment variables; see internal/config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/rickmorty-client/internal/config"
	"github.com/Sternrassler/rickmorty-client/pkg/client"
	"github.com/Sternrassler/rickmorty-client/pkg/logging"
	"github.com/Sternrassler/rickmorty-client/pkg/tracing"
)

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	flag.IntVar(&opts.maxPages, "pages", 0, "stop after this many pages (0 loads the whole catalog)")
	flag.IntVar(&opts.detailID, "detail", 0, "print the detail card of this character id after browsing")
	flag.Float64Var(&opts.viewport, "viewport", 600, "height of the simulated viewport")
	flag.Float64Var(&opts.rowHeight, "row-height", 44, "height of one list row")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "rickmorty: %v\n", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, opts options, out io.Writer) error {
	if err := opts.validate(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging())
	logger := logging.NewLogger("cli")

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing())
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("Flushing spans failed")
		}
	}()

	api, err := client.New(cfg.Client())
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer api.Close()

	if cfg.MetricsAddr != "" {
		srv := newServer(cfg.MetricsAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("Serving health and metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info().
		Str("base_url", api.BaseURL()).
		Int("max_pages", opts.maxPages).
		Msg("Browsing characters")

	return browse(ctx, api, cfg.Listing(), opts, out)
}
