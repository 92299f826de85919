package servicetest

import "sync"

// Event is one published message
type Event struct {
	Slug  string
	Event map[string]interface{}
}

// Bus records published events
type Bus struct {
	mu     sync.Mutex
	events []Event
}

func (b *Bus) PublishForm(slug string, event map[string]interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Event{Slug: slug, Event: event})
	return nil
}

// Types returns the type of every event in publish order
func (b *Bus) Types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		t, _ := e.Event["type"].(string)
		out = append(out, t)
	}
	return out
}

func (b *Bus) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// Jobs records enqueued report rebuilds. A non-nil Err is returned from
// every enqueue after recording it.
type Jobs struct {
	mu       sync.Mutex
	Rebuilds []string
	Err      error
}

func (j *Jobs) EnqueueReportRebuild(formRef string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Rebuilds = append(j.Rebuilds, formRef)
	return j.Err
}
