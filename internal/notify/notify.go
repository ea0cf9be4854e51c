// Package notify carries user-facing notifications (toasts) from the wallet
// and transaction layers to whatever presents them.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Variant controls how a notification is presented.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
)

// Action is an optional call to action, such as a wallet install link.
type Action struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Notification is a single toast.
type Notification struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Variant     Variant   `json:"variant"`
	Action      *Action   `json:"action,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// New builds a notification with a fresh ID and timestamp.
func New(title, description string, variant Variant) Notification {
	return Notification{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Variant:     variant,
		CreatedAt:   time.Now(),
	}
}

// Info is shorthand for a default notification.
func Info(title, description string) Notification {
	return New(title, description, VariantDefault)
}

// Success is shorthand for a success notification.
func Success(title, description string) Notification {
	return New(title, description, VariantSuccess)
}

// Failure is shorthand for a destructive notification.
func Failure(title, description string) Notification {
	return New(title, description, VariantDestructive)
}

// Func adapts a function to the Notifier interface.
type Func func(n Notification)

func (f Func) Notify(n Notification) { f(n) }

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, notifier := range m {
		notifier.Notify(n)
	}
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(n Notification) {
	fields := []zap.Field{
		zap.String("notification_id", n.ID.String()),
		zap.String("title", n.Title),
		zap.String("description", n.Description),
		zap.String("variant", string(n.Variant)),
	}
	if n.Variant == VariantDestructive {
		l.logger.Warn("Notification", fields...)
		return
	}
	l.logger.Info("Notification", fields...)
}

// Feed broadcasts notifications to subscribers. Slow subscribers drop
// notifications rather than block the sender.
type Feed struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]chan Notification
	buffer int
}

// NewFeed creates a feed whose subscriber channels hold buffer notifications.
func NewFeed(buffer int) *Feed {
	return &Feed{
		subs:   make(map[uuid.UUID]chan Notification),
		buffer: buffer,
	}
}

func (f *Feed) Notify(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe returns a channel of notifications and a function that cancels
// the subscription and closes the channel.
func (f *Feed) Subscribe() (<-chan Notification, func()) {
	id := uuid.New()
	ch := make(chan Notification, f.buffer)

	f.mu.Lock()
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
}
