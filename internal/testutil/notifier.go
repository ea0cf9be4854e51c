package testutil

import (
	"sync"

	"github.com/nepalipay/nepalipay-web3/internal/notify"
)

// Recorder is a notify.Notifier that keeps everything it receives.
type Recorder struct {
	mu            sync.Mutex
	notifications []notify.Notification
}

func (r *Recorder) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

// All returns the notifications received so far.
func (r *Recorder) All() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.notifications...)
}

// Titles returns the title of each notification in order.
func (r *Recorder) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, 0, len(r.notifications))
	for _, n := range r.notifications {
		titles = append(titles, n.Title)
	}
	return titles
}

// Reset discards recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
}
