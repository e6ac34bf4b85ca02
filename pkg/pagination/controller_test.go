package pagination

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/rickmorty-client/pkg/character"
	"github.com/Sternrassler/rickmorty-client/pkg/client"
	"github.com/rs/zerolog"
)

var _ PageFetcher = (*client.Client)(nil)

const eventTimeout = 2 * time.Second

// Scroll inputs used throughout: the first is within the default threshold
// of the bottom, the second is far away from it.
var (
	nearBottom = [3]float64{900, 1000, 100}
	farAway    = [3]float64{0, 5000, 800}
)

type fetchReply struct {
	page *character.Page
	err  error
}

type fetchCall struct {
	page  int
	ctx   context.Context
	reply chan fetchReply
}

// scriptedFetcher hands every call to the test, which answers it explicitly.
type scriptedFetcher struct {
	calls chan fetchCall

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{calls: make(chan fetchCall, 16)}
}

func (f *scriptedFetcher) FetchPage(ctx context.Context, pageNum int) (*character.Page, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	call := fetchCall{page: pageNum, ctx: ctx, reply: make(chan fetchReply, 1)}
	f.calls <- call

	select {
	case r := <-call.reply:
		return r.page, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func nextCall(t *testing.T, f *scriptedFetcher) fetchCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for a fetch")
		return fetchCall{}
	}
}

func expectNoCall(t *testing.T, f *scriptedFetcher) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected fetch of page %d", call.page)
	case <-time.After(50 * time.Millisecond):
	}
}

type event struct {
	data bool
	err  error
}

type recordingListener struct {
	events chan event
}

func newRecordingListener() *recordingListener {
	return &recordingListener{events: make(chan event, 16)}
}

func (l *recordingListener) DataChanged()            { l.events <- event{data: true} }
func (l *recordingListener) ErrorOccurred(err error) { l.events <- event{err: err} }

func nextEvent(t *testing.T, l *recordingListener) event {
	t.Helper()
	select {
	case ev := <-l.events:
		return ev
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for a notification")
		return event{}
	}
}

func expectNoEvent(t *testing.T, l *recordingListener) {
	t.Helper()
	select {
	case ev := <-l.events:
		t.Fatalf("unexpected notification %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func makePage(number, totalPages, size int) *character.Page {
	page := &character.Page{Number: number, TotalPages: totalPages}
	for i := 0; i < size; i++ {
		id := (number-1)*20 + i + 1
		page.Characters = append(page.Characters, character.Summary{ID: id, Name: "Character"})
	}
	return page
}

func newTestController(t *testing.T, f PageFetcher, l Listener) *Controller {
	t.Helper()
	c := NewController(f, l, DefaultConfig())
	t.Cleanup(c.Close)
	return c
}

// loadPage answers the pending fetch for pageNum and waits for DataChanged.
func loadPage(t *testing.T, f *scriptedFetcher, l *recordingListener, pageNum, totalPages, size int) {
	t.Helper()
	call := nextCall(t, f)
	if call.page != pageNum {
		t.Fatalf("fetched page %d, want %d", call.page, pageNum)
	}
	call.reply <- fetchReply{page: makePage(pageNum, totalPages, size)}
	if ev := nextEvent(t, l); !ev.data {
		t.Fatalf("expected DataChanged, got error %v", ev.err)
	}
}

func TestController_FirstLoadIsIdempotent(t *testing.T) {
	f := newScriptedFetcher()
	l := newRecordingListener()
	c := newTestController(t, f, l)

	if !c.LoadFirstPage() {
		t.Fatal("first LoadFirstPage should issue a fetch")
	}
	if c.LoadFirstPage() {
		t.Error("second LoadFirstPage while loading should be dropped")
	}
	if c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2]) {
		t.Error("next page trigger while the first page loads should be dropped")
	}
	if state := c.State(); !state.Loading || state.Phase != PhaseLoading {
		t.Errorf("state = %+v, want loading", state)
	}

	loadPage(t, f, l, 1, 3, 20)
	expectNoCall(t, f)

	if c.LoadFirstPage() {
		t.Error("LoadFirstPage after data was loaded should be a no-op")
	}
	expectNoCall(t, f)
}

func TestController_ThreePageScenario(t *testing.T) {
	f := newScriptedFetcher()
	l := newRecordingListener()
	c := newTestController(t, f, l)

	c.LoadFirstPage()
	loadPage(t, f, l, 1, 3, 20)
	expectNoEvent(t, l)

	state := c.State()
	if state.Count != 20 || state.CurrentPage != 1 || state.TotalPages != 3 {
		t.Fatalf("after page 1: %+v", state)
	}
	if state.Phase != PhaseIdle {
		t.Errorf("phase = %v, want idle", state.Phase)
	}

	if c.LoadNextPageIfNeeded(farAway[0], farAway[1], farAway[2]) {
		t.Error("scroll far from the bottom should not fetch")
	}

	if !c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2]) {
		t.Fatal("near-bottom scroll should fetch page 2")
	}
	loadPage(t, f, l, 2, 3, 20)
	if state := c.State(); state.Count != 40 || state.CurrentPage != 2 {
		t.Fatalf("after page 2: %+v", state)
	}

	if !c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2]) {
		t.Fatal("near-bottom scroll should fetch page 3")
	}
	loadPage(t, f, l, 3, 3, 6)

	state = c.State()
	if state.Count != 46 || state.CurrentPage != 3 || state.TotalPages != 3 {
		t.Fatalf("after page 3: %+v", state)
	}
	if state.Phase != PhaseExhausted {
		t.Errorf("phase = %v, want exhausted", state.Phase)
	}

	for i := 0; i < 5; i++ {
		if c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2]) {
			t.Fatal("exhausted controller should not fetch")
		}
		if c.LoadNextPageIfNeeded(0, 0, 0) {
			t.Fatal("exhausted controller should not fetch regardless of scroll")
		}
	}
	expectNoCall(t, f)

	chars := c.Characters()
	for i, s := range chars {
		if s.ID != i+1 {
			t.Fatalf("Characters()[%d].ID = %d, want %d (page order)", i, s.ID, i+1)
		}
	}
}

func TestController_FailureDoesNotCorruptState(t *testing.T) {
	f := newScriptedFetcher()
	l := newRecordingListener()
	c := newTestController(t, f, l)

	c.LoadFirstPage()
	loadPage(t, f, l, 1, 3, 20)
	before := c.Characters()

	c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2])
	call := nextCall(t, f)
	if call.page != 2 {
		t.Fatalf("fetched page %d, want 2", call.page)
	}
	serverErr := &client.NetworkError{Kind: client.KindBadStatus, StatusCode: 500}
	call.reply <- fetchReply{err: serverErr}

	ev := nextEvent(t, l)
	if ev.data {
		t.Fatal("expected ErrorOccurred, got DataChanged")
	}
	var got *client.NetworkError
	if !errors.As(ev.err, &got) || got != serverErr {
		t.Fatalf("error = %v, want the fetcher's error unchanged", ev.err)
	}

	state := c.State()
	if state.Count != 20 || state.CurrentPage != 1 || state.Loading {
		t.Fatalf("after failure: %+v", state)
	}
	after := c.Characters()
	if len(after) != len(before) {
		t.Fatalf("len = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Fatalf("Characters()[%d] changed after failure", i)
		}
	}

	if !c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2]) {
		t.Fatal("retry after failure should fetch")
	}
	loadPage(t, f, l, 2, 3, 20)
	if state := c.State(); state.Count != 40 || state.CurrentPage != 2 {
		t.Fatalf("after retry: %+v", state)
	}
}

func TestController_FirstPageFailureAllowsRetry(t *testing.T) {
	f := newScriptedFetcher()
	l := newRecordingListener()
	c := newTestController(t, f, l)

	c.LoadFirstPage()
	call := nextCall(t, f)
	call.reply <- fetchReply{err: &client.NetworkError{Kind: client.KindTransport}}
	if ev := nextEvent(t, l); !client.IsKind(ev.err, client.KindTransport) {
		t.Fatalf("error = %v, want transport", ev.err)
	}

	if c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2]) {
		t.Error("next page should not be fetched before the first page loaded")
	}
	if !c.LoadFirstPage() {
		t.Fatal("LoadFirstPage should retry after a failed first load")
	}
	loadPage(t, f, l, 1, 1, 5)

	if state := c.State(); state.Phase != PhaseExhausted || state.Count != 5 {
		t.Errorf("state = %+v, want exhausted with 5 characters", state)
	}
}

func TestController_EmptyPageIsSuccess(t *testing.T) {
	f := newScriptedFetcher()
	l := newRecordingListener()
	c := newTestController(t, f, l)

	c.LoadFirstPage()
	loadPage(t, f, l, 1, 2, 0)

	state := c.State()
	if state.Count != 0 || state.CurrentPage != 1 || state.Phase != PhaseIdle {
		t.Fatalf("after empty page: %+v", state)
	}
	if c.Characters() != nil {
		t.Error("Characters() should be nil when nothing was accumulated")
	}

	if !c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2]) {
		t.Fatal("empty page should advance to page 2")
	}
	loadPage(t, f, l, 2, 2, 3)
}

func TestController_NilPageIsFailure(t *testing.T) {
	f := newScriptedFetcher()
	l := newRecordingListener()
	c := newTestController(t, f, l)

	c.LoadFirstPage()
	call := nextCall(t, f)
	call.reply <- fetchReply{}

	ev := nextEvent(t, l)
	if !errors.Is(ev.err, ErrNoPage) {
		t.Fatalf("error = %v, want ErrNoPage", ev.err)
	}
	if state := c.State(); state.CurrentPage != 0 || state.Loading {
		t.Errorf("state = %+v, want untouched and idle", state)
	}
}

func TestController_TotalPagesClamped(t *testing.T) {
	f := newScriptedFetcher()
	l := newRecordingListener()
	c := newTestController(t, f, l)

	c.LoadFirstPage()
	loadPage(t, f, l, 1, 0, 4)

	state := c.State()
	if state.TotalPages != 1 || state.Phase != PhaseExhausted {
		t.Fatalf("state = %+v, want exhausted at page 1", state)
	}
	if c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2]) {
		t.Error("no fetch expected past a clamped last page")
	}
}

func TestController_CloseDiscardsLateCompletion(t *testing.T) {
	f := newScriptedFetcher()
	l := newRecordingListener()
	c := NewController(f, l, DefaultConfig())

	c.LoadFirstPage()
	call := nextCall(t, f)

	c.Close()

	select {
	case <-call.ctx.Done():
	case <-time.After(eventTimeout):
		t.Fatal("Close should cancel the in-flight fetch")
	}
	call.reply <- fetchReply{page: makePage(1, 3, 20)}

	expectNoEvent(t, l)
	if n := c.Len(); n != 0 {
		t.Errorf("Len() = %d after close, want 0", n)
	}
	if c.LoadFirstPage() {
		t.Error("LoadFirstPage after Close should be ignored")
	}
	if c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2]) {
		t.Error("LoadNextPageIfNeeded after Close should be ignored")
	}
	expectNoCall(t, f)

	c.Close()
}

func TestController_CloseDropsQueuedNotification(t *testing.T) {
	f := newScriptedFetcher()

	var (
		c          *Controller
		calls      atomic.Int32
		entered    = make(chan struct{})
		release    = make(chan struct{})
		afterClose = make(chan struct{}, 1)
	)
	c = NewController(f, ListenerFuncs{
		OnDataChanged: func() {
			if calls.Add(1) == 1 {
				c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2])
				close(entered)
				<-release
				return
			}
			afterClose <- struct{}{}
		},
	}, DefaultConfig())

	c.LoadFirstPage()
	nextCall(t, f).reply <- fetchReply{page: makePage(1, 3, 20)}

	select {
	case <-entered:
	case <-time.After(eventTimeout):
		t.Fatal("page 1 notification never arrived")
	}

	// Page 2 completes while the page 1 callback is still running, so its
	// notification waits for its turn.
	call := nextCall(t, f)
	if call.page != 2 {
		t.Fatalf("fetched page %d, want 2", call.page)
	}
	call.reply <- fetchReply{page: makePage(2, 3, 20)}

	deadline := time.Now().Add(eventTimeout)
	for c.Len() != 40 {
		if time.Now().After(deadline) {
			t.Fatal("page 2 was never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.Close()
	close(release)

	select {
	case <-afterClose:
		t.Fatal("DataChanged for page 2 delivered after Close")
	case <-time.After(100 * time.Millisecond):
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("DataChanged ran %d times, want 1", n)
	}
}

func TestController_FetchTimeout(t *testing.T) {
	f := newScriptedFetcher()
	l := newRecordingListener()
	c := NewController(f, l, Config{ScrollThreshold: 100, FetchTimeout: 50 * time.Millisecond})
	defer c.Close()

	c.LoadFirstPage()
	nextCall(t, f)

	ev := nextEvent(t, l)
	if !errors.Is(ev.err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", ev.err)
	}
	if c.State().Loading {
		t.Error("controller must not stay loading after a timeout")
	}
}

func TestController_CharactersIsSnapshot(t *testing.T) {
	f := newScriptedFetcher()
	l := newRecordingListener()
	c := newTestController(t, f, l)

	c.LoadFirstPage()
	loadPage(t, f, l, 1, 1, 3)

	snapshot := c.Characters()
	snapshot[0].Name = "Changed"

	if got := c.Characters(); got[0].Name != "Character" || len(got) != 3 {
		t.Errorf("controller state changed through snapshot: %+v", got)
	}
}

func TestController_Find(t *testing.T) {
	f := newScriptedFetcher()
	l := newRecordingListener()
	c := newTestController(t, f, l)

	c.LoadFirstPage()
	loadPage(t, f, l, 1, 2, 20)

	if s, ok := c.Find(7); !ok || s.ID != 7 {
		t.Errorf("Find(7) = %+v, %v", s, ok)
	}
	if _, ok := c.Find(21); ok {
		t.Error("Find(21) should miss before page 2 loads")
	}
}

// catalogFetcher answers immediately from a generated catalog.
type catalogFetcher struct {
	totalPages int

	mu          sync.Mutex
	requested   []int
	inFlight    int
	maxInFlight int
}

func (f *catalogFetcher) FetchPage(ctx context.Context, pageNum int) (*character.Page, error) {
	f.mu.Lock()
	f.requested = append(f.requested, pageNum)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return makePage(pageNum, f.totalPages, 20), nil
}

func TestController_ListenerMayTriggerNextPage(t *testing.T) {
	f := &catalogFetcher{totalPages: 4}
	done := make(chan struct{})

	var c *Controller
	c = NewController(f, ListenerFuncs{
		OnDataChanged: func() {
			if c.State().Phase == PhaseExhausted {
				close(done)
				return
			}
			c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2])
		},
	}, DefaultConfig())
	defer c.Close()

	c.LoadFirstPage()

	select {
	case <-done:
	case <-time.After(eventTimeout):
		t.Fatalf("listener-driven paging did not finish: %+v", c.State())
	}
	if n := c.Len(); n != 80 {
		t.Errorf("Len() = %d, want 80", n)
	}
}

func TestController_NoOverlappingFetches(t *testing.T) {
	f := &catalogFetcher{totalPages: 6}
	c := NewController(f, nil, DefaultConfig(), WithLogger(zerolog.Nop()))
	defer c.Close()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				c.LoadFirstPage()
				c.LoadNextPageIfNeeded(nearBottom[0], nearBottom[1], nearBottom[2])
			}
		}()
	}

	deadline := time.Now().Add(eventTimeout)
	for c.State().Phase != PhaseExhausted {
		if time.Now().After(deadline) {
			close(stop)
			wg.Wait()
			t.Fatalf("did not exhaust catalog: %+v", c.State())
		}
		time.Sleep(time.Millisecond)
	}
	close(stop)
	wg.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.maxInFlight != 1 {
		t.Errorf("max in-flight fetches = %d, want 1", f.maxInFlight)
	}
	if len(f.requested) != 6 {
		t.Fatalf("requested pages = %v, want 1..6 once each", f.requested)
	}
	for i, p := range f.requested {
		if p != i+1 {
			t.Fatalf("requested pages = %v, want strictly increasing 1..6", f.requested)
		}
	}
	if n := c.Len(); n != 120 {
		t.Errorf("Len() = %d, want 120", n)
	}
}

func TestNewController_Defaults(t *testing.T) {
	c := NewController(newScriptedFetcher(), nil, Config{ScrollThreshold: -1})
	defer c.Close()

	if c.config.ScrollThreshold != DefaultScrollThreshold {
		t.Errorf("ScrollThreshold = %v, want default", c.config.ScrollThreshold)
	}
	if c.config.FetchTimeout != DefaultConfig().FetchTimeout {
		t.Errorf("FetchTimeout = %v, want default", c.config.FetchTimeout)
	}
	if state := c.State(); state.Phase != PhaseIdle || state.CurrentPage != 0 {
		t.Errorf("initial state = %+v", state)
	}
}

func TestNewController_NilFetcherPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewController should panic with nil fetcher")
		}
	}()
	NewController(nil, nil, DefaultConfig())
}

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseIdle, "idle"},
		{PhaseLoading, "loading"},
		{PhaseExhausted, "exhausted"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.expected {
			t.Errorf("%d.String() = %q, want %q", tt.phase, got, tt.expected)
		}
	}
}
