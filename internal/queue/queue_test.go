package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := New(8)

	require.True(t, q.TryEnqueue(&Event{ID: "a"}))
	require.True(t, q.TryEnqueue(&Event{ID: "b"}))
	require.True(t, q.TryEnqueue(&Event{ID: "c"}))
	assert.Equal(t, 3, q.Depth())

	ctx := context.Background()
	for _, want := range []string{"a", "b", "c"} {
		ev, ok := q.Dequeue(ctx)
		require.True(t, ok)
		assert.Equal(t, want, ev.ID)
	}
	assert.Equal(t, 0, q.Depth())
}

func TestQueueCapacity(t *testing.T) {
	q := New(2)

	assert.True(t, q.TryEnqueue(&Event{ID: "a"}))
	assert.True(t, q.TryEnqueue(&Event{ID: "b"}))
	assert.False(t, q.TryEnqueue(&Event{ID: "c"}), "full queue must reject")
	assert.Equal(t, 2, q.Depth())
	assert.Equal(t, 2, q.Capacity())
}

func TestQueueRejectsNil(t *testing.T) {
	q := New(2)
	assert.False(t, q.TryEnqueue(nil))
}

func TestDequeueBlocksUntilEnqueue(t *testing.T) {
	q := New(4)

	got := make(chan *Event, 1)
	go func() {
		ev, ok := q.Dequeue(context.Background())
		if ok {
			got <- ev
		}
	}()

	// The consumer should be woken by the enqueue, not a poll interval.
	time.Sleep(10 * time.Millisecond)
	require.True(t, q.TryEnqueue(&Event{ID: "wake"}))

	select {
	case ev := <-got:
		assert.Equal(t, "wake", ev.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue did not wake on enqueue")
	}
}

func TestDequeueHonorsContext(t *testing.T) {
	q := New(4)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ev, ok := q.Dequeue(ctx)
	assert.False(t, ok)
	assert.Nil(t, ev)
}

func TestConcurrentEnqueueLosesNothing(t *testing.T) {
	const producers = 8
	const perProducer = 50

	q := New(producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				require.True(t, q.TryEnqueue(&Event{ID: fmt.Sprintf("%d-%d", p, i)}))
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Depth())

	seen := make(map[string]bool)
	ctx := context.Background()
	for i := 0; i < producers*perProducer; i++ {
		ev, ok := q.Dequeue(ctx)
		require.True(t, ok)
		require.False(t, seen[ev.ID], "event %s dequeued twice", ev.ID)
		seen[ev.ID] = true
	}
}

func TestSnapshotCopies(t *testing.T) {
	q := New(4)
	q.TryEnqueue(&Event{ID: "a", AccountID: "item-1"})

	snap := q.Snapshot()
	require.Len(t, snap, 1)
	snap[0].AccountID = "mutated"

	ev, ok := q.Dequeue(context.Background())
	require.True(t, ok)
	assert.Equal(t, "item-1", ev.AccountID)
}
