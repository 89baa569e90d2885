package events

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent(EventNodeFailed, "run-1", "a").
		WithState("new").
		WithError(errors.New("boom")).
		WithMetadata("action", "noop")

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, EventNodeFailed, e.Type)
	assert.Equal(t, "run-1", e.RunID)
	assert.Equal(t, "a", e.NodeID)
	assert.Equal(t, "new", e.State)
	assert.Equal(t, "boom", e.Error)
	assert.Equal(t, "noop", e.Metadata["action"])
	assert.NotZero(t, e.Timestamp)
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	bus.Publish(NewEvent(EventNodeUpdated, "run-1", "b").WithState("changed"))

	select {
	case e := <-ch:
		assert.Equal(t, EventNodeUpdated, e.Type)
		assert.Equal(t, "b", e.NodeID)
		assert.Equal(t, "changed", e.State)
	case <-time.After(5 * time.Second):
		t.Fatal("未收到事件")
	}
}

func TestBus_PreservesOrder(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	want := []string{"A", "B", "C", "D", "E"}
	for _, id := range want {
		bus.Publish(NewEvent(EventNodeUpdated, "run-1", id))
	}

	var got []string
	for len(got) < len(want) {
		select {
		case e := <-ch:
			got = append(got, e.NodeID)
		case <-time.After(5 * time.Second):
			t.Fatalf("只收到 %v", got)
		}
	}
	assert.Equal(t, want, got)
}

func TestBus_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	total := outputBuffer*3 + 10
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			bus.Publish(NewEvent(EventNodeUpdated, "run-1", fmt.Sprintf("n%d", i)))
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("订阅者不读取时发布被阻塞")
	}

	// 已缓冲的事件仍按顺序送达
	first := <-ch
	assert.Equal(t, "n0", first.NodeID)
	assert.Len(t, ch, outputBuffer-1)
	assert.Equal(t, int64(total-outputBuffer), bus.Dropped())
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()
	bus.Publish(NewEvent(EventRunStarted, "run-1", ""))
	bus.Publish(nil)
}

func TestRecorder(t *testing.T) {
	inner := NewRecorder(nil)
	r := NewRecorder(inner)
	r.Publish(NewEvent(EventNodeDispatched, "r", "a"))
	r.Publish(NewEvent(EventNodeUpToDate, "r", "b"))
	r.Publish(NewEvent(EventNodeDispatched, "r", "c"))

	assert.Equal(t, []string{"a", "c"}, r.NodesOf(EventNodeDispatched))
	assert.Len(t, r.Events(), 3)
	assert.Len(t, inner.Events(), 3)
	Nop{}.Publish(nil)
}

func TestFanout(t *testing.T) {
	first := NewRecorder(nil)
	second := NewRecorder(nil)
	fan := Fanout{first, nil, second}

	fan.Publish(NewEvent(EventNodeUpdated, "run-1", "A"))
	fan.Publish(NewEvent(EventNodeUpdated, "run-1", "B"))

	assert.Equal(t, []string{"A", "B"}, first.NodesOf(EventNodeUpdated))
	assert.Equal(t, []string{"A", "B"}, second.NodesOf(EventNodeUpdated))
}
