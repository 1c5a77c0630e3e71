package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFeed_DeliversToMatchingTable(t *testing.T) {
	feed := NewFeed()
	sub := feed.Subscribe(TableTasks)
	defer sub.Unsubscribe()

	feed.Publish(Event{Type: EventInsert, Table: TableTasks, New: "row"})

	select {
	case evt := <-sub.Events():
		require.Equal(t, EventInsert, evt.Type)
		require.Equal(t, TableTasks, evt.Table)
	case <-time.After(time.Second):
		t.Fatal("expected event on subscription")
	}
}

func TestFeed_FiltersOtherTables(t *testing.T) {
	feed := NewFeed()
	sub := feed.Subscribe(TableProjects)
	defer sub.Unsubscribe()

	feed.Publish(Event{Type: EventInsert, Table: TableTasks})

	select {
	case <-sub.Events():
		t.Fatal("subscription should not receive events for other tables")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFeed_EmptyTableListReceivesAll(t *testing.T) {
	feed := NewFeed()
	sub := feed.Subscribe()
	defer sub.Unsubscribe()

	feed.Publish(Event{Type: EventDelete, Table: TableCategories})

	select {
	case evt := <-sub.Events():
		require.Equal(t, TableCategories, evt.Table)
	case <-time.After(time.Second):
		t.Fatal("expected event on wildcard subscription")
	}
}

func TestFeed_UnsubscribeClosesChannel(t *testing.T) {
	feed := NewFeed()
	sub := feed.Subscribe(TableTasks)
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	_, open := <-sub.Events()
	require.False(t, open)

	// Publishing after unsubscribe must not panic.
	feed.Publish(Event{Type: EventInsert, Table: TableTasks})
}

func TestFeed_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	feed := NewFeed()
	sub := feed.Subscribe(TableTasks)
	defer sub.Unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			feed.Publish(Event{Type: EventInsert, Table: TableTasks})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
