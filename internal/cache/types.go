package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Entry is one memoized translation.
type Entry struct {
	Key        string
	Translated string
	Model      string
	Language   string
	CreatedAt  time.Time
}

// Key derives the content address for a piece of source text translated to
// a target language by a given model. The text is normalized (CRLF folded,
// outer whitespace trimmed) so cosmetically different uploads still hit.
func Key(sourceText, languageCode, model string) string {
	normalized := strings.TrimSpace(strings.ReplaceAll(sourceText, "\r\n", "\n"))
	sum := sha256.Sum256([]byte(normalized + "\x00" + languageCode + "\x00" + model))
	return hex.EncodeToString(sum[:])
}
