package matcher

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// Release markers stripped from file stems before comparison. Matching on
// the cleaned base name lets "Show.S01E02.1080p.WEB-DL.x264-GRP.srt" pair
// with "Show.S01E02.2160p.HEVC.mkv".
var (
	yearParenPattern   = regexp.MustCompile(`\((19|20)\d{2}\)`)
	bracketPattern     = regexp.MustCompile(`\[[^\[\]]*\]`)
	groupSuffixPattern = regexp.MustCompile(`-[A-Za-z0-9]+$`)
	releaseTagPattern  = regexp.MustCompile(`(?i)\b(480p|576p|720p|1080p|2160p|4k|8k|` +
		`bluray|blu-ray|bdrip|brrip|web-dl|webdl|webrip|hdtv|dvdrip|hdrip|remux|` +
		`x264|x265|h264|h265|h\.264|h\.265|hevc|avc|xvid|divx|av1|10bit|8bit|hdr|hdr10|dv|` +
		`aac|ac3|eac3|dts|dts-hd|truehd|atmos|ddp?[57]\.1|dd[57]\.1|flac|opus|mp3)\b`)
	separatorPattern = regexp.MustCompile(`[._\s]+`)
)

// Classify maps a path to its file kind by extension.
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case slices.Contains(videoExts, ext):
		return KindVideo
	case slices.Contains(subtitleExts, ext):
		return KindSubtitle
	default:
		return KindOther
	}
}

// BaseName strips the extension and common release markers from a filename
// and folds case, producing the key used for pair matching.
func BaseName(path string) string {
	stem := filepath.Base(path)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))

	stem = yearParenPattern.ReplaceAllString(stem, " ")
	stem = bracketPattern.ReplaceAllString(stem, " ")
	stem = releaseTagPattern.ReplaceAllString(stem, " ")
	stem = separatorPattern.ReplaceAllString(stem, " ")
	stem = strings.TrimSpace(stem)
	stem = groupSuffixPattern.ReplaceAllString(stem, "")
	stem = strings.Trim(stem, " -")

	return strings.ToLower(stem)
}

// levenshtein returns the edit distance between two strings, used to break
// ties when several candidates share a base name.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	ra := []rune(a)
	rb := []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
