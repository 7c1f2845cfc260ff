package matcher

import (
	"strings"

	"github.com/subglot/subglot/pkg/file"
)

// Match pairs uploaded subtitle files with uploaded video files.
//
// Every input appears in exactly one output pair: subtitles in input order
// first (Matched or SubtitleOnly), then leftover videos in input order
// (VideoOnly). Equal base names pair up; when several unclaimed videos
// share a subtitle's base name, the smallest edit distance between full
// stems wins, and first-seen input order breaks remaining ties. Empty
// inputs produce an empty result, not an error.
func Match(subtitlePaths, videoPaths []string) []Pair {
	subtitles := toMediaFiles(subtitlePaths, KindSubtitle)
	videos := toMediaFiles(videoPaths, KindVideo)

	pairs := make([]Pair, 0, len(subtitles)+len(videos))
	claimed := make([]bool, len(videos))

	for i := range subtitles {
		sub := &subtitles[i]
		videoIdx := bestCandidate(sub, videos, claimed)
		if videoIdx < 0 {
			pairs = append(pairs, Pair{Subtitle: sub, Status: StatusSubtitleOnly})
			continue
		}
		claimed[videoIdx] = true
		pairs = append(pairs, Pair{Subtitle: sub, Video: &videos[videoIdx], Status: StatusMatched})
	}

	for i := range videos {
		if claimed[i] {
			continue
		}
		pairs = append(pairs, Pair{Video: &videos[i], Status: StatusVideoOnly})
	}

	return pairs
}

func toMediaFiles(paths []string, kind Kind) []MediaFile {
	ret := make([]MediaFile, 0, len(paths))
	for _, path := range paths {
		ret = append(ret, MediaFile{
			Path:     path,
			Kind:     kind,
			BaseName: BaseName(path),
		})
	}
	return ret
}

// bestCandidate returns the index of the unclaimed video whose base name
// equals the subtitle's, or -1. Ties resolve by edit distance on the full
// stems, then by input order.
func bestCandidate(sub *MediaFile, videos []MediaFile, claimed []bool) int {
	best := -1
	bestDistance := 0
	subStem := strings.ToLower(file.Stem(sub.Path))

	for i := range videos {
		if claimed[i] || videos[i].BaseName != sub.BaseName || videos[i].BaseName == "" {
			continue
		}
		distance := levenshtein(subStem, strings.ToLower(file.Stem(videos[i].Path)))
		if best < 0 || distance < bestDistance {
			best = i
			bestDistance = distance
		}
	}

	return best
}
