package series

import (
	"context"
	"sync"
)

// notifier is a single-consumer edge-triggered asynchronous signal that
// completes once after any mutation. Callers reattach (call Wait again)
// each time. Sealing fires the signal one final time; subsequent waits
// complete immediately reporting sealed.
//
// Built on the channel-swap idiom for a repeatable one-shot broadcast,
// with context.Context threaded through for cancellation.
type notifier struct {
	mu     sync.Mutex
	ch     chan struct{}
	sealed bool
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{})}
}

// wait blocks until the next mutation, until the series is sealed, or
// until ctx is cancelled. It reports sealed=true both when the wait
// woke up because of a seal and on every call after the series has
// already been sealed.
func (n *notifier) wait(ctx context.Context) (sealed bool, err error) {
	n.mu.Lock()

	if n.sealed {
		n.mu.Unlock()

		return true, nil
	}

	ch := n.ch

	n.mu.Unlock()

	select {
	case <-ch:
		n.mu.Lock()
		sealed = n.sealed
		n.mu.Unlock()

		return sealed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// notify fires the edge trigger once for a non-sealing mutation.
func (n *notifier) notify() {
	n.mu.Lock()

	if n.sealed {
		n.mu.Unlock()

		return
	}

	old := n.ch
	n.ch = make(chan struct{})

	n.mu.Unlock()
	close(old)
}

// notifySealed fires the edge trigger one final time and latches sealed
// so every subsequent wait() returns immediately.
func (n *notifier) notifySealed() {
	n.mu.Lock()

	if n.sealed {
		n.mu.Unlock()

		return
	}

	n.sealed = true
	old := n.ch

	n.mu.Unlock()
	close(old)
}
