// Package tmdb adapts The Movie Database REST catalog for Movies and Series.
// TMDB requires an API key; calls fail closed with a credential error before
// any network round-trip when none is configured.
package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/TenKdoToLami/UpNext/internal/apperrors"
	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/credentials"
	"github.com/TenKdoToLami/UpNext/internal/markup"
	"github.com/TenKdoToLami/UpNext/internal/models"
	"github.com/TenKdoToLami/UpNext/internal/upstream"
)

const (
	defaultAPIBase   = "https://api.themoviedb.org/3"
	defaultImageBase = "https://image.tmdb.org/t/p"
	siteBase         = "https://www.themoviedb.org"

	maxResults = 10
	maxPeople  = 3
)

// Client implements provider.Provider against TMDB.
type Client struct {
	http      *upstream.Client
	creds     *credentials.Store
	apiBase   string
	imageBase string
}

type Option func(*Client)

// WithAPIBase overrides the REST endpoint, for tests.
func WithAPIBase(u string) Option {
	return func(c *Client) { c.apiBase = u }
}

// WithImageBase overrides the poster CDN prefix, for tests.
func WithImageBase(u string) Option {
	return func(c *Client) { c.imageBase = u }
}

func New(cfg *config.Config, creds *credentials.Store, opts ...Option) *Client {
	c := &Client{
		http:      upstream.New(models.SourceTMDB, cfg),
		creds:     creds,
		apiBase:   defaultAPIBase,
		imageBase: defaultImageBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() models.Source {
	return models.SourceTMDB
}

func (c *Client) apiKey() (string, error) {
	key := c.creds.Get(models.SourceTMDB)
	if key == "" {
		return "", apperrors.NewCredentialMissingError(c.Name().String())
	}
	return key, nil
}

// endpoint builds a full request URL with the key and the forced
// language/region parameters that keep results deterministic.
func (c *Client) endpoint(path, key string, params url.Values) string {
	params.Set("api_key", key)
	params.Set("language", "en-US")
	params.Set("region", "US")
	return c.apiBase + path + "?" + params.Encode()
}

type searchItem struct {
	ID            int    `json:"id"`
	Title         string `json:"title"` // movies
	Name          string `json:"name"`  // tv
	OriginalTitle string `json:"original_title"`
	OriginalName  string `json:"original_name"`
	ReleaseDate   string `json:"release_date"`
	FirstAirDate  string `json:"first_air_date"`
	PosterPath    string `json:"poster_path"`
	Overview      string `json:"overview"`
}

type detailPayload struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	Name             string `json:"name"`
	OriginalTitle    string `json:"original_title"`
	OriginalName     string `json:"original_name"`
	ReleaseDate      string `json:"release_date"`
	FirstAirDate     string `json:"first_air_date"`
	PosterPath       string `json:"poster_path"`
	Overview         string `json:"overview"`
	Runtime          *int   `json:"runtime"`
	EpisodeRunTime   []int  `json:"episode_run_time"`
	NumberOfEpisodes *int   `json:"number_of_episodes"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	CreatedBy []struct {
		Name string `json:"name"`
	} `json:"created_by"`
	Seasons []struct {
		SeasonNumber int    `json:"season_number"`
		EpisodeCount *int   `json:"episode_count"`
		AirDate      string `json:"air_date"`
	} `json:"seasons"`
	Credits struct {
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

func (c *Client) Search(ctx context.Context, query string, category models.MediaCategory) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	path := "/search/tv"
	if category == models.CategoryMovie {
		path = "/search/movie"
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("include_adult", "false")

	var resp struct {
		Results []searchItem `json:"results"`
	}
	if err := c.http.GetJSON(ctx, c.endpoint(path, key, params), &resp); err != nil {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "search", err)
	}

	items := resp.Results
	if len(items) > maxResults {
		items = items[:maxResults]
	}
	results := make([]models.SearchResult, 0, len(items))
	for _, item := range items {
		title := models.FirstNonEmpty(item.Title, item.Name)
		original := item.OriginalTitle
		if original == "" {
			original = item.OriginalName
		}
		if original == title {
			original = ""
		}

		results = append(results, models.SearchResult{
			ID:                 fmt.Sprintf("%d", item.ID),
			Source:             c.Name(),
			Title:              title,
			OriginalTitle:      original,
			CoverURL:           c.posterURL(item.PosterPath, "w500"),
			Year:               yearOf(firstDate(item.ReleaseDate, item.FirstAirDate)),
			DescriptionPreview: markup.Preview(markup.Strip(item.Overview)),
		})
	}
	return results, nil
}

func (c *Client) Details(ctx context.Context, externalID string, category models.MediaCategory) (*models.DetailRecord, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	path := "/tv/" + url.PathEscape(externalID)
	if category == models.CategoryMovie {
		path = "/movie/" + url.PathEscape(externalID)
	}
	params := url.Values{}
	params.Set("append_to_response", "credits")

	var data detailPayload
	if err := c.http.GetJSON(ctx, c.endpoint(path, key, params), &data); err != nil {
		if upstream.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.NewUpstreamError(c.Name().String(), "details", err)
	}

	title := models.FirstNonEmpty(data.Title, data.Name)
	original := data.OriginalTitle
	if original == "" {
		original = data.OriginalName
	}

	releaseDate := firstDate(data.ReleaseDate, data.FirstAirDate)
	// A bare year still gets a full ISO date.
	if len(releaseDate) == 4 {
		releaseDate += "-01-01"
	}

	var genres []string
	for _, g := range data.Genres {
		genres = append(genres, g.Name)
	}

	// Directors for movies, series creators for TV. Both cap out small.
	var people []string
	if category == models.CategoryMovie {
		for _, crew := range data.Credits.Crew {
			if crew.Job == "Director" {
				people = append(people, crew.Name)
			}
			if len(people) == maxPeople {
				break
			}
		}
	} else {
		for _, creator := range data.CreatedBy {
			people = append(people, creator.Name)
			if len(people) == maxPeople {
				break
			}
		}
	}

	runtime := data.Runtime
	if runtime == nil && len(data.EpisodeRunTime) > 0 {
		runtime = models.Int(data.EpisodeRunTime[0])
	}

	var seasons []models.Season
	if category.IsSerializedVideo() {
		for _, s := range data.Seasons {
			if s.SeasonNumber == 0 {
				// Specials are not part of the canonical season structure.
				continue
			}
			seasons = append(seasons, models.Season{
				Number:          s.SeasonNumber,
				Episodes:        s.EpisodeCount,
				DurationMinutes: runtime,
				ReleaseDate:     s.AirDate,
			})
		}
	}

	linkKind := "tv"
	if category == models.CategoryMovie {
		linkKind = "movie"
	}

	record := &models.DetailRecord{
		ID:                 fmt.Sprintf("%d", data.ID),
		Source:             c.Name(),
		Title:              title,
		AlternateTitles:    models.DedupTitles(title, []string{original}),
		CoverURL:           c.posterURL(data.PosterPath, "w780"),
		Description:        markup.Strip(data.Overview),
		ReleaseDate:        releaseDate,
		Year:               yearOf(releaseDate),
		Episodes:           data.NumberOfEpisodes,
		AvgDurationMinutes: runtime,
		Genres:             genres,
		Authors:            people,
		Seasons:            seasons,
		ExternalLink:       fmt.Sprintf("%s/%s/%d", siteBase, linkKind, data.ID),
	}
	return record, nil
}

func (c *Client) posterURL(path, size string) string {
	if path == "" {
		return ""
	}
	return c.imageBase + "/" + size + path
}

func firstDate(candidates ...string) string {
	for _, d := range candidates {
		if d != "" {
			return d
		}
	}
	return ""
}

// yearOf extracts the year from an ISO-ish date string, or nil.
func yearOf(date string) *int {
	if len(date) < 4 {
		return nil
	}
	var year int
	if _, err := fmt.Sscanf(date[:4], "%d", &year); err != nil || year == 0 {
		return nil
	}
	return &year
}
