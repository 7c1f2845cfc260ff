package matcher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchReleaseTaggedPair(t *testing.T) {
	pairs := Match(
		[]string{"Pair.Movie.2020.1080p.srt"},
		[]string{"Pair.Movie.2020.1080p.mkv"},
	)

	require.Len(t, pairs, 1)
	assert.Equal(t, StatusMatched, pairs[0].Status)
	assert.Equal(t, "Pair.Movie.2020.1080p.srt", pairs[0].Subtitle.Path)
	assert.Equal(t, "Pair.Movie.2020.1080p.mkv", pairs[0].Video.Path)
}

func TestMatchDifferentReleaseTags(t *testing.T) {
	pairs := Match(
		[]string{"Show.S01E02.1080p.WEB-DL.x264-GRP.srt"},
		[]string{"Show.S01E02.2160p.HEVC.mkv"},
	)

	require.Len(t, pairs, 1)
	assert.Equal(t, StatusMatched, pairs[0].Status)
}

func TestMatchOrphanSubtitle(t *testing.T) {
	pairs := Match([]string{"Orphan.srt"}, nil)

	require.Len(t, pairs, 1)
	assert.Equal(t, StatusSubtitleOnly, pairs[0].Status)
	assert.Nil(t, pairs[0].Video)
}

func TestMatchOrphanVideo(t *testing.T) {
	pairs := Match(nil, []string{"Lonely.mkv"})

	require.Len(t, pairs, 1)
	assert.Equal(t, StatusVideoOnly, pairs[0].Status)
	assert.Nil(t, pairs[0].Subtitle)
}

func TestMatchEmptyInputsYieldEmptyOutput(t *testing.T) {
	assert.Empty(t, Match(nil, nil))
}

func TestMatchConservation(t *testing.T) {
	subtitles := []string{"a.srt", "b.srt", "c.srt"}
	videos := []string{"b.mkv", "d.mkv"}

	pairs := Match(subtitles, videos)

	require.Len(t, pairs, 4)

	seenSubs := map[string]int{}
	seenVideos := map[string]int{}
	for _, p := range pairs {
		if p.Subtitle != nil {
			seenSubs[p.Subtitle.Path]++
		}
		if p.Video != nil {
			seenVideos[p.Video.Path]++
		}
	}
	for _, s := range subtitles {
		assert.Equal(t, 1, seenSubs[s], s)
	}
	for _, v := range videos {
		assert.Equal(t, 1, seenVideos[v], v)
	}
}

func TestMatchAmbiguousPrefersClosestStem(t *testing.T) {
	pairs := Match(
		[]string{"Movie.1080p.srt"},
		[]string{"Movie.2160p.mkv", "Movie.1080p.mkv"},
	)

	require.Len(t, pairs, 2)
	assert.Equal(t, StatusMatched, pairs[0].Status)
	assert.Equal(t, "Movie.1080p.mkv", pairs[0].Video.Path)
	assert.Equal(t, StatusVideoOnly, pairs[1].Status)
}

func TestMatchTieGoesToFirstSeen(t *testing.T) {
	pairs := Match(
		[]string{"Ep.srt"},
		[]string{"Ep.mkv", "Ep.mp4"},
	)

	require.Len(t, pairs, 2)
	assert.Equal(t, "Ep.mkv", pairs[0].Video.Path)
}

func TestMatchCaseInsensitive(t *testing.T) {
	pairs := Match([]string{"MOVIE.srt"}, []string{"movie.mkv"})

	require.Len(t, pairs, 1)
	assert.Equal(t, StatusMatched, pairs[0].Status)
}

func TestPairJSONShape(t *testing.T) {
	pairs := Match([]string{"Orphan.srt"}, nil)
	raw, err := json.Marshal(pairs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"subtitle":"Orphan.srt","video":null,"status":"SubtitleOnly"}`, string(raw))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindVideo, Classify("show.MKV"))
	assert.Equal(t, KindSubtitle, Classify("show.srt"))
	assert.Equal(t, KindOther, Classify("notes.txt"))
}

func TestBaseNameStripsMarkers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Show.S01E02.1080p.WEB-DL.x264-GRP.srt", "show s01e02"},
		{"Movie (2020) [Remastered] BluRay.mkv", "movie"},
		{"Plain Name.srt", "plain name"},
		{"Some_Title_720p_AAC.mp4", "some title"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseName(tt.in), tt.in)
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("abc", "abc"))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 1, levenshtein("kitten", "mitten"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}
