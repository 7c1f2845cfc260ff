package progress

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.PublishLog("INFO", "hello")

	ev1 := <-ch1
	ev2 := <-ch2
	assert.Equal(t, EventLog, ev1.Type)
	assert.Equal(t, "hello", ev1.Message)
	assert.Equal(t, ev1, ev2)
}

func TestBroadcasterNoReplayForLateSubscribers(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	b.PublishLog("INFO", "before anyone listened")
	ch := b.Subscribe()
	b.PublishLog("INFO", "after")

	ev := <-ch
	assert.Equal(t, "after", ev.Message)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra event: %+v", extra)
	default:
	}
}

func TestBroadcasterPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	ch := b.Subscribe()
	// Nobody is draining: overflow beyond the buffer must be dropped,
	// not block the publisher.
	for i := 0; i < subscriberBuffer*2; i++ {
		b.PublishProgress("step", i, subscriberBuffer*2, "file.srt")
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestBroadcasterUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	ch := b.Subscribe()
	b.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is harmless.
	b.Unsubscribe(ch)
	b.PublishLog("INFO", "still fine")
}

func TestBroadcasterCloseClosesSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	b.Close()
	_, open := <-ch
	assert.False(t, open)

	// Subscribing after close yields a closed channel.
	late := b.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestEventWireShapes(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()
	ch := b.Subscribe()

	b.PublishProgress("Processing files", 2, 5, "movie.srt")
	data, err := json.Marshal(<-ch)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"progress","message":"Processing files","current":2,"total":5,"filename":"movie.srt"}`, string(data))

	b.PublishTranslationProgress(1, 3, "movie.srt", 4, 10)
	data, err = json.Marshal(<-ch)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"translation_progress","current_file":1,"total_files":3,"filename":"movie.srt","current_chunk":4,"total_chunks":10}`, string(data))

	b.PublishLog("WARNING", "cache lookup failed")
	data, err = json.Marshal(<-ch)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"log","level":"WARNING","message":"cache lookup failed"}`, string(data))
}
