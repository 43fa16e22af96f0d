package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitRunsAllHandlers(t *testing.T) {
	e := NewEventsHandler(nil)
	var mu sync.Mutex
	var got []string
	record := func(tag string) Handler {
		return func(_ context.Context, ev Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, tag+":"+ev.UploadId)
			return nil
		}
	}
	e.RegHandler(UploadInit, record("a"))
	e.RegHandler(UploadInit, record("b"))
	e.RegHandler(UploadPart, record("c"))

	e.Emit(Event{Name: UploadInit, UploadId: "u1"})
	e.Wait()

	assert.ElementsMatch(t, []string{"a:u1", "b:u1"}, got)
}

func TestEmitSwallowsErrorsAndPanics(t *testing.T) {
	e := NewEventsHandler(nil)
	done := make(chan struct{}, 1)
	e.RegHandler(UploadFailed, func(context.Context, Event) error { return errors.New("down") })
	e.RegHandler(UploadFailed, func(context.Context, Event) error { panic("boom") })
	e.RegHandler(UploadFailed, func(context.Context, Event) error {
		done <- struct{}{}
		return nil
	})

	require.NotPanics(t, func() { e.Emit(Event{Name: UploadFailed}) })
	e.Wait()
	assert.Len(t, done, 1)
}

func TestPreProcessFilters(t *testing.T) {
	e := NewEventsHandler(nil)
	calls := 0
	var mu sync.Mutex
	e.RegPreProcess(UploadPart, func(ev Event) bool { return ev.OwnerId != "" })
	e.RegHandler(UploadPart, func(context.Context, Event) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	e.Emit(Event{Name: UploadPart})
	e.Emit(Event{Name: UploadPart, OwnerId: "u"})
	e.Wait()
	assert.Equal(t, 1, calls)
}

func TestEmitStampsTime(t *testing.T) {
	e := NewEventsHandler(nil)
	ch := make(chan Event, 1)
	e.RegHandler(PublishSuccess, func(_ context.Context, ev Event) error {
		ch <- ev
		return nil
	})
	e.Emit(Event{Name: PublishSuccess})
	e.Wait()
	ev := <-ch
	assert.False(t, ev.At.IsZero())
}
