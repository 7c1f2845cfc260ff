package progress

import (
	"sync"
)

// Event is a single progress notification pushed to SSE subscribers.
// The zero value of optional fields is omitted so each event type keeps
// its own wire shape.
type Event struct {
	Type         string `json:"type"`
	Message      string `json:"message,omitempty"`
	Level        string `json:"level,omitempty"`
	Current      int    `json:"current,omitempty"`
	Total        int    `json:"total,omitempty"`
	Filename     string `json:"filename,omitempty"`
	CurrentFile  int    `json:"current_file,omitempty"`
	TotalFiles   int    `json:"total_files,omitempty"`
	CurrentChunk int    `json:"current_chunk,omitempty"`
	TotalChunks  int    `json:"total_chunks,omitempty"`
}

const (
	EventProgress            = "progress"
	EventTranslationProgress = "translation_progress"
	EventLog                 = "log"
)

const subscriberBuffer = 64

// Broadcaster fans events out to any number of subscribers. Publish
// never blocks: a subscriber that cannot keep up loses events rather
// than stalling the publisher. Events are not replayed; a subscriber
// only sees what happens after it joins.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
	closed      bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe registers a new listener and returns its channel. The
// channel is closed on Unsubscribe or when the broadcaster shuts down.
func (b *Broadcaster) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[ch] = struct{}{}
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// Publish delivers event to every current subscriber without blocking.
func (b *Broadcaster) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop the event for this channel.
		}
	}
}

// Close shuts the broadcaster down and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}

// PublishProgress emits a generic step counter event, typically for
// upload and matching phases.
func (b *Broadcaster) PublishProgress(message string, current, total int, filename string) {
	b.Publish(Event{
		Type:     EventProgress,
		Message:  message,
		Current:  current,
		Total:    total,
		Filename: filename,
	})
}

// PublishTranslationProgress emits per-file, per-chunk translation state.
func (b *Broadcaster) PublishTranslationProgress(currentFile, totalFiles int, filename string, currentChunk, totalChunks int) {
	b.Publish(Event{
		Type:         EventTranslationProgress,
		CurrentFile:  currentFile,
		TotalFiles:   totalFiles,
		Filename:     filename,
		CurrentChunk: currentChunk,
		TotalChunks:  totalChunks,
	})
}

// PublishLog mirrors a log line to subscribers.
func (b *Broadcaster) PublishLog(level, message string) {
	b.Publish(Event{
		Type:    EventLog,
		Level:   level,
		Message: message,
	})
}
