package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/rickmorty-client/pkg/character"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrNoPage is reported when a fetcher returns neither a page nor an error.
var ErrNoPage = errors.New("fetcher returned no page")

// PageFetcher fetches a single page of the character catalog.
// *client.Client implements it; tests use scripted doubles.
type PageFetcher interface {
	// FetchPage returns the page with the given number (>= 1) or an error.
	// It must not retain or mutate anything owned by the controller.
	FetchPage(ctx context.Context, pageNum int) (*character.Page, error)
}

// Listener receives the controller's notifications. Callbacks run on the
// fetch goroutine, one at a time and in completion order. They may call back
// into the controller.
type Listener interface {
	// DataChanged is called after a page was appended. Re-read Characters.
	DataChanged()

	// ErrorOccurred is called with the fetcher's error, unchanged.
	ErrorOccurred(err error)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are ignored.
type ListenerFuncs struct {
	OnDataChanged func()
	OnError       func(err error)
}

// DataChanged implements Listener.
func (l ListenerFuncs) DataChanged() {
	if l.OnDataChanged != nil {
		l.OnDataChanged()
	}
}

// ErrorOccurred implements Listener.
func (l ListenerFuncs) ErrorOccurred(err error) {
	if l.OnError != nil {
		l.OnError(err)
	}
}

// Phase is the coarse state of a controller.
type Phase int

const (
	// PhaseIdle means no fetch is running and more pages may be requested.
	PhaseIdle Phase = iota

	// PhaseLoading means a fetch is in flight.
	PhaseLoading

	// PhaseExhausted means the last page has been loaded.
	PhaseExhausted
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseExhausted:
		return "exhausted"
	default:
		return "idle"
	}
}

// State is a point-in-time view of the controller's pagination bookkeeping.
type State struct {
	CurrentPage int
	TotalPages  int
	Count       int
	Loading     bool
	Phase       Phase
}

// Config holds controller configuration.
type Config struct {
	// ScrollThreshold is the near-bottom margin used by LoadNextPageIfNeeded.
	ScrollThreshold float64

	// FetchTimeout bounds a single page fetch.
	FetchTimeout time.Duration
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		ScrollThreshold: DefaultScrollThreshold,
		FetchTimeout:    15 * time.Second,
	}
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller owns the accumulated character list of one listing screen and
// decides when the next page is fetched.
type Controller struct {
	fetcher  PageFetcher
	listener Listener
	config   Config
	logger   zerolog.Logger
	notify   *notifier

	// shutdown mirrors closed for the notifier, which runs outside mu.
	shutdown atomic.Bool

	// ctx is cancelled by Close and parents every fetch.
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	characters  []character.Summary
	currentPage int
	totalPages  int
	loading     bool
	closed      bool
	tickets     uint64
}

// NewController creates a controller with an empty listing. A nil listener
// discards notifications.
func NewController(fetcher PageFetcher, listener Listener, cfg Config, opts ...Option) *Controller {
	if fetcher == nil {
		panic("pagination: fetcher cannot be nil")
	}
	if listener == nil {
		listener = ListenerFuncs{}
	}
	if cfg.ScrollThreshold < 0 {
		cfg.ScrollThreshold = DefaultScrollThreshold
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultConfig().FetchTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:  fetcher,
		listener: listener,
		config:   cfg,
		logger:   log.With().Str("component", "listing-controller").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
	c.notify = newNotifier(c.shutdown.Load)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadFirstPage fetches page 1 unless a fetch is already running or data has
// already been loaded. It reports whether a fetch was issued.
func (c *Controller) LoadFirstPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		c.logger.Debug().Msg("Ignoring first page request on closed controller")
		return false
	case c.loading:
		c.logger.Debug().Msg("Fetch already in flight, dropping first page request")
		return false
	case c.currentPage > 0:
		return false
	}

	c.startFetchLocked(1)
	return true
}

// LoadNextPageIfNeeded fetches the page after the current one when the
// viewport is near the bottom of the content, more pages exist, and no fetch
// is running. It reports whether a fetch was issued.
func (c *Controller) LoadNextPageIfNeeded(offset, contentExtent, viewportExtent float64) bool {
	if !NearBottom(offset, contentExtent, viewportExtent, c.config.ScrollThreshold) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.loading || c.currentPage >= c.totalPages {
		return false
	}

	c.startFetchLocked(c.currentPage + 1)
	return true
}

// startFetchLocked marks the controller loading and runs the fetch on its own
// goroutine. c.mu must be held.
func (c *Controller) startFetchLocked(pageNum int) {
	c.loading = true
	fetchesInFlight.Inc()

	c.logger.Debug().Int("page", pageNum).Msg("Issuing page fetch")

	go c.fetch(c.ctx, pageNum)
}

func (c *Controller) fetch(ctx context.Context, pageNum int) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	page, err := c.fetcher.FetchPage(fetchCtx, pageNum)
	cancel()
	fetchesInFlight.Dec()

	c.complete(pageNum, page, err)
}

// complete applies the result of the fetch for pageNum and notifies the
// listener. Nothing is mutated on failure or after Close.
func (c *Controller) complete(pageNum int, page *character.Page, err error) {
	if err == nil && page == nil {
		err = fmt.Errorf("page %d: %w", pageNum, ErrNoPage)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug().Int("page", pageNum).Msg("Dropping completion after close")
		return
	}
	c.loading = false
	ticket := c.tickets
	c.tickets++

	if err != nil {
		c.mu.Unlock()

		pageFailuresTotal.Inc()
		c.logger.Warn().Err(err).Int("page", pageNum).Msg("Page fetch failed")

		c.notify.deliver(ticket, func() { c.listener.ErrorOccurred(err) })
		return
	}

	if page.Number != 0 && page.Number != pageNum {
		c.logger.Warn().
			Int("requested", pageNum).
			Int("reported", page.Number).
			Msg("Fetcher reported a different page number")
	}

	c.characters = append(c.characters, page.Characters...)
	c.currentPage = pageNum
	c.totalPages = page.TotalPages
	if c.totalPages < pageNum {
		c.totalPages = pageNum
	}
	count, totalPages := len(c.characters), c.totalPages
	c.mu.Unlock()

	pagesLoadedTotal.Inc()
	c.logger.Info().
		Int("page", pageNum).
		Int("total_pages", totalPages).
		Int("added", len(page.Characters)).
		Int("count", count).
		Msg("Page loaded")

	c.notify.deliver(ticket, c.listener.DataChanged)
}

// Characters returns a copy of the accumulated list.
func (c *Controller) Characters() []character.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.characters) == 0 {
		return nil
	}
	dup := make([]character.Summary, len(c.characters))
	copy(dup, c.characters)
	return dup
}

// Len returns the number of accumulated characters.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.characters)
}

// Find returns the accumulated character with the given id.
func (c *Controller) Find(id int) (character.Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.characters {
		if s.ID == id {
			return s, true
		}
	}
	return character.Summary{}, false
}

// State returns the current pagination state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	phase := PhaseIdle
	switch {
	case c.loading:
		phase = PhaseLoading
	case c.currentPage > 0 && c.currentPage >= c.totalPages:
		phase = PhaseExhausted
	}

	return State{
		CurrentPage: c.currentPage,
		TotalPages:  c.totalPages,
		Count:       len(c.characters),
		Loading:     c.loading,
		Phase:       phase,
	}
}

// Close tears the controller down. An in-flight fetch is cancelled and its
// completion is discarded; notifications still queued behind a running
// callback are dropped and further load requests are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.shutdown.Store(true)
	c.mu.Unlock()

	c.cancel()
	c.logger.Debug().Msg("Controller closed")
}
