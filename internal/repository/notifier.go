package repository

import (
	"context"
	"sync"
)

// Notifier fans a "collection changed" signal out to watchers of a
// single-process store. Signals are level-triggered: a watcher that has not
// consumed the previous signal gets no second one.
type Notifier struct {
	mtx  sync.Mutex
	subs map[chan struct{}]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan struct{}]struct{})}
}

// Subscribe returns a channel that is closed when ctx is done.
func (n *Notifier) Subscribe(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)

	n.mtx.Lock()
	n.subs[ch] = struct{}{}
	n.mtx.Unlock()

	go func() {
		<-ctx.Done()
		n.mtx.Lock()
		delete(n.subs, ch)
		close(ch)
		n.mtx.Unlock()
	}()

	return ch
}

func (n *Notifier) Notify() {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watchers returns the number of active subscriptions.
func (n *Notifier) Watchers() int {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return len(n.subs)
}
