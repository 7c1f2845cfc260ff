package subtitle

import (
	"time"

	"golang.org/x/text/language"
)

// Reader is the interface for reading subtitle files
type Reader interface {
	Read() (*File, error)
}

// Writer is the interface for writing subtitle files
type Writer interface {
	Write(path string, subtitle *File) error
}

// Cue represents a single timed subtitle entry.
// Timing keeps the raw "HH:MM:SS,mmm --> HH:MM:SS,mmm" line exactly as it
// appeared in the source so translated output reproduces it byte for byte.
type Cue struct {
	Index          int           `json:"index"`
	StartTime      time.Duration `json:"start_time"`
	EndTime        time.Duration `json:"end_time"`
	Timing         string        `json:"timing"`
	Text           string        `json:"text"`
	TranslatedText string        `json:"translated_text,omitempty"`
}

// File represents a parsed subtitle file
type File struct {
	Path     string
	Cues     []Cue
	Language language.Tag
	Format   string // e.g. SRT
}
