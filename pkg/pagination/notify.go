package pagination

import "sync"

// notifier delivers listener callbacks one at a time in ticket order.
// Tickets are handed out under the controller lock, so callbacks run in the
// order their completions mutated the state, without holding that lock.
// Once cancelled reports true, queued callbacks still consume their ticket
// but are not run.
type notifier struct {
	cancelled func() bool

	mu   sync.Mutex
	cond *sync.Cond
	next uint64
}

func newNotifier(cancelled func() bool) *notifier {
	n := &notifier{cancelled: cancelled}
	n.cond = sync.NewCond(&n.mu)
	return n
}

func (n *notifier) deliver(ticket uint64, fn func()) {
	n.mu.Lock()
	for n.next != ticket {
		n.cond.Wait()
	}
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		n.next++
		n.cond.Broadcast()
		n.mu.Unlock()
	}()
	if n.cancelled != nil && n.cancelled() {
		return
	}
	fn()
}
