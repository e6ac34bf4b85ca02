package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Sternrassler/rickmorty-client/pkg/character"
	"github.com/Sternrassler/rickmorty-client/pkg/logging"
	"github.com/Sternrassler/rickmorty-client/pkg/pagination"
)

// options are the command-line settings of one browsing session.
type options struct {
	maxPages  int
	detailID  int
	viewport  float64
	rowHeight float64
}

func (o options) validate() error {
	switch {
	case o.maxPages < 0:
		return fmt.Errorf("-pages must be >= 0 (got %d)", o.maxPages)
	case o.detailID < 0:
		return fmt.Errorf("-detail must be >= 0 (got %d)", o.detailID)
	case o.viewport <= 0:
		return fmt.Errorf("-viewport must be > 0 (got %v)", o.viewport)
	case o.rowHeight <= 0:
		return fmt.Errorf("-row-height must be > 0 (got %v)", o.rowHeight)
	}
	return nil
}

// browse loads pages until the catalog is exhausted or maxPages is reached,
// printing each newly appended character. After every page the simulated
// viewport is scrolled to the bottom of the list, which is what triggers the
// next fetch.
func browse(ctx context.Context, fetcher pagination.PageFetcher, cfg pagination.Config, opts options, out io.Writer) error {
	logger := logging.NewLogger("cli")

	// nil marks DataChanged.
	events := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	send := func(err error) {
		select {
		case events <- err:
		case <-done:
		}
	}
	listener := pagination.ListenerFuncs{
		OnDataChanged: func() { send(nil) },
		OnError:       send,
	}

	listing := pagination.NewController(fetcher, listener, cfg, pagination.WithLogger(logger))
	defer listing.Close()

	if !listing.LoadFirstPage() {
		return errors.New("first page was not requested")
	}

	rendered := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-events:
			if err != nil {
				return fmt.Errorf("load page %d: %w", listing.State().CurrentPage+1, err)
			}
		}

		items := listing.Characters()
		for _, s := range items[rendered:] {
			fmt.Fprintln(out, renderRow(s))
		}
		rendered = len(items)

		if opts.maxPages > 0 && listing.State().CurrentPage >= opts.maxPages {
			break
		}

		content := float64(rendered) * opts.rowHeight
		offset := math.Max(0, content-opts.viewport)
		if !listing.LoadNextPageIfNeeded(offset, content, opts.viewport) {
			break
		}
	}

	fmt.Fprintln(out, renderFooter(listing.State()))

	if opts.detailID > 0 {
		s, ok := listing.Find(opts.detailID)
		if !ok {
			return fmt.Errorf("character %d is not among the %d loaded", opts.detailID, rendered)
		}
		fmt.Fprintln(out, renderDetail(character.Project(s)))
	}
	return nil
}
