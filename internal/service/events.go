package service

import "github.com/raphaelgruber/knowbot/internal/models"

// subscriberBuffer is the channel capacity of each subscriber. Events that do
// not fit are dropped for that subscriber.
const subscriberBuffer = 64

// Subscribe returns a channel of workspace events and a function that ends
// the subscription. The channel is closed when the subscription ends or the
// workspace is closed.
func (w *Workspace) Subscribe() (<-chan models.Event, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch := make(chan models.Event, subscriberBuffer)
	if w.closed {
		close(ch)
		return ch, func() {}
	}

	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch

	return ch, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if c, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(c)
		}
	}
}

// emitLocked delivers e without blocking. Caller must hold w.mu.
func (w *Workspace) emitLocked(e models.Event) {
	for id, ch := range w.subs {
		select {
		case ch <- e:
		default:
			w.logger.Debug("dropping event for slow subscriber", "subscriber", id, "event", e.Type)
		}
	}
}
