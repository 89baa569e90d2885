package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_DropsWhenFull(t *testing.T) {
	buf := NewBuffer(2, 1)

	assert.True(t, buf.Push(NewEvent(EventNodeUpdated, "r", "A")))
	assert.True(t, buf.Push(NewEvent(EventNodeUpdated, "r", "B")))
	assert.False(t, buf.Push(NewEvent(EventNodeUpdated, "r", "C")))
	assert.True(t, buf.IsBackpressure())

	in, out, dropped := buf.Stats()
	assert.Equal(t, int64(2), in)
	assert.Equal(t, int64(0), out)
	assert.Equal(t, int64(1), dropped)

	done := make(chan struct{})
	e, ok := buf.PopWithDone(done)
	require.True(t, ok)
	assert.Equal(t, "A", e.NodeID)
	e, ok = buf.PopWithDone(done)
	require.True(t, ok)
	assert.Equal(t, "B", e.NodeID)
	assert.False(t, buf.IsBackpressure())
	assert.Equal(t, 0, buf.Len())

	close(done)
	e, ok = buf.PopWithDone(done)
	assert.False(t, ok)
	assert.Nil(t, e)
}

func TestBuffer_BackpressureCallback(t *testing.T) {
	buf := NewBuffer(4, 0.5)
	fired := make(chan float64, 1)
	buf.SetBackpressureCallback(func(usage float64) { fired <- usage })

	buf.Push(NewEvent(EventNodeUpdated, "r", "A"))
	buf.Push(NewEvent(EventNodeUpdated, "r", "B"))

	select {
	case usage := <-fired:
		assert.Equal(t, 0.5, usage)
	case <-time.After(time.Second):
		t.Fatal("背压回调未触发")
	}
}
