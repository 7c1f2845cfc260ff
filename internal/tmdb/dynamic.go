package tmdb

import (
	"context"
	"errors"
)

// ErrNoAPIKey indicates no TMDB key is configured.
var ErrNoAPIKey = errors.New("tmdb: api key not configured")

// DynamicSearcher builds a fresh client per call so API key changes in
// the runtime settings take effect without a restart.
type DynamicSearcher struct {
	// Credentials returns the current API key and result language.
	Credentials func() (apiKey, language string)
}

var _ Searcher = (*DynamicSearcher)(nil)

func (d *DynamicSearcher) client() (*Client, error) {
	apiKey, language := d.Credentials()
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return New(apiKey, language)
}

func (d *DynamicSearcher) SearchMovie(ctx context.Context, query string, year int) (*Response, error) {
	client, err := d.client()
	if err != nil {
		return nil, err
	}
	return client.SearchMovie(ctx, query, year)
}

func (d *DynamicSearcher) SearchTV(ctx context.Context, query string, year int) (*Response, error) {
	client, err := d.client()
	if err != nil {
		return nil, err
	}
	return client.SearchTV(ctx, query, year)
}

func (d *DynamicSearcher) GetEpisode(ctx context.Context, showID int64, season, episode int) (*Episode, error) {
	client, err := d.client()
	if err != nil {
		return nil, err
	}
	return client.GetEpisode(ctx, showID, season, episode)
}
