package tmdb

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/subglot/subglot/internal/matcher"
)

var (
	// S01E02 style markers, case-insensitive.
	seasonEpisodePattern = regexp.MustCompile(`(?i)\bS(\d{1,2})E(\d{1,3})\b`)
	// 1x02 style markers.
	crossEpisodePattern = regexp.MustCompile(`\b(\d{1,2})x(\d{2,3})\b`)
	yearPattern         = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// ParsedName is what a media filename tells us before asking TMDB.
type ParsedName struct {
	Title   string
	Year    int
	Season  int
	Episode int
}

// IsEpisode reports whether the filename carried a season/episode marker.
func (p ParsedName) IsEpisode() bool {
	return p.Season > 0 && p.Episode > 0
}

// ParseFilename extracts a search title plus optional year and
// season/episode markers from a media filename.
func ParseFilename(filename string) ParsedName {
	parsed := ParsedName{}

	if m := seasonEpisodePattern.FindStringSubmatch(filename); m != nil {
		parsed.Season, _ = strconv.Atoi(m[1])
		parsed.Episode, _ = strconv.Atoi(m[2])
	} else if m := crossEpisodePattern.FindStringSubmatch(filename); m != nil {
		parsed.Season, _ = strconv.Atoi(m[1])
		parsed.Episode, _ = strconv.Atoi(m[2])
	}

	if m := yearPattern.FindStringSubmatch(filename); m != nil {
		parsed.Year, _ = strconv.Atoi(m[1])
	}

	// The episode marker and everything after it is release noise, not title.
	title := filename
	if loc := seasonEpisodePattern.FindStringIndex(title); loc != nil {
		title = title[:loc[0]]
	} else if loc := crossEpisodePattern.FindStringIndex(title); loc != nil {
		title = title[:loc[0]]
	}
	// The year belongs in the search filter, not the query text.
	title = yearPattern.ReplaceAllString(title, " ")
	parsed.Title = matcher.BaseName(title)
	return parsed
}

// Info is the metadata summary handed to the UI and the translation prompt.
type Info struct {
	Title       string  `json:"title"`
	Year        int     `json:"year,omitempty"`
	Overview    string  `json:"overview"`
	MediaType   string  `json:"media_type"`
	Season      int     `json:"season,omitempty"`
	Episode     int     `json:"episode,omitempty"`
	EpisodeName string  `json:"episode_name,omitempty"`
	EpisodePlot string  `json:"episode_plot,omitempty"`
	TMDBID      int64   `json:"tmdb_id"`
	VoteAverage float64 `json:"vote_average,omitempty"`
}

// Description renders Info as prompt context for the translator.
func (i Info) Description() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s", i.Title)
	if i.Year > 0 {
		fmt.Fprintf(&sb, " (%d)", i.Year)
	}
	if i.IsEpisode() {
		fmt.Fprintf(&sb, ", season %d episode %d", i.Season, i.Episode)
		if i.EpisodeName != "" {
			fmt.Fprintf(&sb, " (%s)", i.EpisodeName)
		}
	}
	if i.Overview != "" {
		fmt.Fprintf(&sb, ". %s", i.Overview)
	}
	if i.EpisodePlot != "" {
		fmt.Fprintf(&sb, " %s", i.EpisodePlot)
	}
	return sb.String()
}

func (i Info) IsEpisode() bool {
	return i.Season > 0 && i.Episode > 0
}

// Lookup resolves a media filename to TMDB metadata. A season/episode
// marker or isTV forces a TV search and, when possible, enriches the
// result with the episode entry.
func Lookup(ctx context.Context, searcher Searcher, filename string, isTV bool) (*Info, error) {
	parsed := ParseFilename(filename)
	if parsed.Title == "" {
		return nil, fmt.Errorf("no searchable title in %q", filename)
	}

	if isTV || parsed.IsEpisode() {
		resp, err := searcher.SearchTV(ctx, parsed.Title, parsed.Year)
		if err != nil {
			return nil, err
		}
		if len(resp.Results) == 0 {
			return nil, ErrNotFound
		}
		best := resp.Results[0]
		info := &Info{
			Title:       best.DisplayTitle(),
			Year:        firstAirYear(best),
			Overview:    best.Overview,
			MediaType:   "tv",
			Season:      parsed.Season,
			Episode:     parsed.Episode,
			TMDBID:      best.ID,
			VoteAverage: best.VoteAverage,
		}
		if parsed.IsEpisode() {
			episode, err := searcher.GetEpisode(ctx, best.ID, parsed.Season, parsed.Episode)
			if err == nil {
				info.EpisodeName = episode.Name
				info.EpisodePlot = episode.Overview
			}
			// Episode lookup failure degrades to show-level info only.
		}
		return info, nil
	}

	resp, err := searcher.SearchMovie(ctx, parsed.Title, parsed.Year)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	best := resp.Results[0]
	return &Info{
		Title:       best.DisplayTitle(),
		Year:        releaseYear(best),
		Overview:    best.Overview,
		MediaType:   "movie",
		TMDBID:      best.ID,
		VoteAverage: best.VoteAverage,
	}, nil
}

func releaseYear(r Result) int {
	return leadingYear(r.ReleaseDate)
}

func firstAirYear(r Result) int {
	return leadingYear(r.FirstAirDate)
}

func leadingYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
