package realtime

import (
	"sync"
)

// EventType is the kind of row-level change carried by the feed.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Table names published on the feed.
const (
	TableTeams        = "teams"
	TableProjects     = "projects"
	TableCategories   = "categories"
	TableTasks        = "tasks"
	TableGithubIssues = "github_issues"
)

// Event is a row-level change notification. New carries the row after the
// change (INSERT/UPDATE); Old carries the prior row (DELETE). Both are the
// concrete model values; subscribers type-assert and skip anything they do
// not recognize.
type Event struct {
	Type  EventType `json:"type"`
	Table string    `json:"table"`
	New   any       `json:"new,omitempty"`
	Old   any       `json:"old,omitempty"`
}

// Subscription is one subscriber's view of the feed. Events arrive on a
// buffered channel; when the buffer is full the event is dropped for that
// subscriber rather than blocking the publisher.
type Subscription struct {
	feed   *Feed
	tables map[string]struct{}
	ch     chan Event
	once   sync.Once
}

// Events returns the channel events are delivered on. The channel is closed
// by Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Unsubscribe detaches the subscription from the feed and closes its
// channel. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.remove(s)
		close(s.ch)
	})
}

// Feed fans row-level change events out to in-process subscribers, keyed by
// table name.
type Feed struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers interest in change events for the given tables. An
// empty table list subscribes to every table.
func (f *Feed) Subscribe(tables ...string) *Subscription {
	sub := &Subscription{
		feed: f,
		ch:   make(chan Event, 64),
	}
	if len(tables) > 0 {
		sub.tables = make(map[string]struct{}, len(tables))
		for _, t := range tables {
			sub.tables[t] = struct{}{}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[sub] = struct{}{}
	return sub
}

func (f *Feed) remove(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, sub)
}

// Publish delivers an event to every matching subscriber. Publishing never
// blocks; a subscriber that cannot keep up loses the event.
func (f *Feed) Publish(event Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for sub := range f.subs {
		if sub.tables != nil {
			if _, ok := sub.tables[event.Table]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- event:
		default:
			// subscriber buffer full; drop rather than block the writer
		}
	}
}
