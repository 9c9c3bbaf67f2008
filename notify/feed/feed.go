// Package feed is the dashboard side of the notification channel: a bounded
// newest-first notification list plus a websocket client that keeps it fed.
package feed

import (
	"sync"

	"sentinel-cctv/be/notify"
)

// MaxItems bounds the notification list; older entries fall off the end.
const MaxItems = 50

type Item struct {
	notify.Notification
	Read bool `json:"read"`
}

type Option func(*Feed)

// WithToast registers fn to run once for every incoming high or critical
// notification.
func WithToast(fn func(notify.Notification)) Option {
	return func(f *Feed) {
		f.onToast = fn
	}
}

// WithUpdate registers fn to run for every update frame.
func WithUpdate(fn func(kind string, payload []byte)) Option {
	return func(f *Feed) {
		f.onUpdate = fn
	}
}

type Feed struct {
	mu    sync.Mutex
	items []Item

	onToast  func(notify.Notification)
	onUpdate func(kind string, payload []byte)
}

func New(opts ...Option) *Feed {
	f := &Feed{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Add prepends n and raises a toast when its priority is urgent.
func (f *Feed) Add(n notify.Notification) {
	f.mu.Lock()
	items := make([]Item, 0, min(len(f.items)+1, MaxItems))
	items = append(items, Item{Notification: n})
	for _, it := range f.items {
		if len(items) == MaxItems {
			break
		}
		items = append(items, it)
	}
	f.items = items
	toast := f.onToast
	f.mu.Unlock()

	if toast != nil && n.Priority.Urgent() {
		toast(n)
	}
}

func (f *Feed) update(kind string, payload []byte) {
	f.mu.Lock()
	fn := f.onUpdate
	f.mu.Unlock()
	if fn != nil {
		fn(kind, payload)
	}
}

// Items returns a copy of the list, newest first.
func (f *Feed) Items() []Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Item, len(f.items))
	copy(out, f.items)
	return out
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Remove dismisses one notification. It reports whether id was present.
func (f *Feed) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, it := range f.items {
		if it.ID == id {
			f.items = append(f.items[:i:i], f.items[i+1:]...)
			return true
		}
	}
	return false
}

func (f *Feed) Clear() {
	f.mu.Lock()
	f.items = nil
	f.mu.Unlock()
}

func (f *Feed) MarkRead(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Read = true
			return true
		}
	}
	return false
}

func (f *Feed) MarkAllRead() {
	f.mu.Lock()
	for i := range f.items {
		f.items[i].Read = true
	}
	f.mu.Unlock()
}

// UnreadCount is the badge number shown on the bell icon.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, it := range f.items {
		if !it.Read {
			n++
		}
	}
	return n
}
