package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"time"
)

// DefaultWriter is the default subtitle file writer
type DefaultWriter struct{}

// NewWriter creates a new subtitle file writer
func NewWriter() Writer {
	return &DefaultWriter{}
}

// Write writes the subtitle file to the specified path. Timing lines are
// emitted verbatim from the parsed input; translated text is preferred and
// falls back to the original text when absent.
func (w *DefaultWriter) Write(path string, subtitle *File) error {
	if subtitle == nil {
		return fmt.Errorf("subtitle data is empty")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := bufio.NewWriter(f)

	for _, cue := range subtitle.Cues {
		timing := cue.Timing
		if timing == "" {
			timing = fmt.Sprintf("%s --> %s", FormatDuration(cue.StartTime), FormatDuration(cue.EndTime))
		}

		text := cue.TranslatedText
		if text == "" {
			text = cue.Text
		}

		fmt.Fprintf(writer, "%d\n", cue.Index)
		fmt.Fprintf(writer, "%s\n", timing)
		fmt.Fprintf(writer, "%s\n\n", text)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}
	return nil
}

// FormatDuration formats a time.Duration in SRT timing notation.
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
