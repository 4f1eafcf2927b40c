// Package tvmaze adapts the TVmaze schedule catalog for Series (and the
// anime that airs as TV). No credential is required.
//
// TVmaze season records often omit episodeOrder for running or poorly
// curated shows; when that happens the adapter falls back to the full
// episode listing and counts episodes per season itself.
package tvmaze

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/TenKdoToLami/UpNext/internal/apperrors"
	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/markup"
	"github.com/TenKdoToLami/UpNext/internal/models"
	"github.com/TenKdoToLami/UpNext/internal/upstream"
)

const (
	defaultAPIBase = "https://api.tvmaze.com"

	maxResults = 10
)

// Client implements provider.Provider against TVmaze.
type Client struct {
	http    *upstream.Client
	apiBase string
}

type Option func(*Client)

// WithAPIBase overrides the REST endpoint, for tests.
func WithAPIBase(u string) Option {
	return func(c *Client) { c.apiBase = u }
}

func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		http:    upstream.New(models.SourceTVMaze, cfg),
		apiBase: defaultAPIBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() models.Source {
	return models.SourceTVMaze
}

type showPayload struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	URL            string   `json:"url"`
	Premiered      string   `json:"premiered"`
	Summary        string   `json:"summary"`
	Genres         []string `json:"genres"`
	AverageRuntime *int     `json:"averageRuntime"`
	Runtime        *int     `json:"runtime"`
	Image          *struct {
		Medium   string `json:"medium"`
		Original string `json:"original"`
	} `json:"image"`
	Embedded struct {
		Seasons []seasonPayload `json:"seasons"`
	} `json:"_embedded"`
}

type seasonPayload struct {
	Number       int    `json:"number"`
	EpisodeOrder *int   `json:"episodeOrder"`
	PremiereDate string `json:"premiereDate"`
}

type episodePayload struct {
	ID     int  `json:"id"`
	Season int  `json:"season"`
	Number *int `json:"number"`
}

func (c *Client) Search(ctx context.Context, query string, category models.MediaCategory) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var resp []struct {
		Score float64     `json:"score"`
		Show  showPayload `json:"show"`
	}
	searchURL := c.apiBase + "/search/shows?q=" + url.QueryEscape(query)
	if err := c.http.GetJSON(ctx, searchURL, &resp); err != nil {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "search", err)
	}

	if len(resp) > maxResults {
		resp = resp[:maxResults]
	}
	results := make([]models.SearchResult, 0, len(resp))
	for _, wrapper := range resp {
		show := wrapper.Show
		results = append(results, models.SearchResult{
			ID:                 strconv.Itoa(show.ID),
			Source:             c.Name(),
			Title:              models.FirstNonEmpty(show.Name),
			CoverURL:           show.coverURL(),
			Year:               yearOf(show.Premiered),
			DescriptionPreview: markup.Preview(markup.Strip(show.Summary)),
			Genres:             show.Genres,
		})
	}
	return results, nil
}

func (c *Client) Details(ctx context.Context, externalID string, category models.MediaCategory) (*models.DetailRecord, error) {
	var show showPayload
	detailsURL := c.apiBase + "/shows/" + url.PathEscape(externalID) + "?embed=seasons"
	if err := c.http.GetJSON(ctx, detailsURL, &show); err != nil {
		if upstream.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.NewUpstreamError(c.Name().String(), "details", err)
	}

	runtime := show.AverageRuntime
	if runtime == nil {
		runtime = show.Runtime
	}

	seasons, totalEpisodes, err := c.resolveSeasons(ctx, externalID, show.Embedded.Seasons, runtime)
	if err != nil {
		return nil, err
	}

	record := &models.DetailRecord{
		ID:                 strconv.Itoa(show.ID),
		Source:             c.Name(),
		Title:              models.FirstNonEmpty(show.Name),
		CoverURL:           show.coverURL(),
		Description:        markup.Strip(show.Summary),
		ReleaseDate:        show.Premiered,
		Year:               yearOf(show.Premiered),
		Episodes:           totalEpisodes,
		AvgDurationMinutes: runtime,
		Genres:             show.Genres,
		Seasons:            seasons,
		ExternalLink:       show.URL,
	}
	return record, nil
}

// resolveSeasons converts the embedded season list into canonical seasons.
// Seasons with a null episodeOrder get their count from the full episode
// listing; that extra call happens at most once per details request.
func (c *Client) resolveSeasons(ctx context.Context, externalID string, payload []seasonPayload, runtime *int) ([]models.Season, *int, error) {
	missing := false
	for _, s := range payload {
		if s.EpisodeOrder == nil {
			missing = true
			break
		}
	}

	countsBySeason := map[int]int{}
	if missing {
		var episodes []episodePayload
		listURL := c.apiBase + "/shows/" + url.PathEscape(externalID) + "/episodes"
		if err := c.http.GetJSON(ctx, listURL, &episodes); err != nil {
			return nil, nil, apperrors.NewUpstreamError(c.Name().String(), "details", err)
		}
		for _, ep := range episodes {
			countsBySeason[ep.Season]++
		}
	}

	var seasons []models.Season
	total := 0
	haveAnyCount := false
	for _, s := range payload {
		count := s.EpisodeOrder
		if count == nil {
			if aggregated, ok := countsBySeason[s.Number]; ok {
				count = models.Int(aggregated)
			}
		}
		if count != nil {
			total += *count
			haveAnyCount = true
		}
		seasons = append(seasons, models.Season{
			Number:          s.Number,
			Episodes:        count,
			DurationMinutes: runtime,
			ReleaseDate:     s.PremiereDate,
		})
	}

	var totalEpisodes *int
	if haveAnyCount {
		totalEpisodes = models.Int(total)
	}
	return seasons, totalEpisodes, nil
}

func (s showPayload) coverURL() string {
	if s.Image == nil {
		return ""
	}
	if s.Image.Original != "" {
		return s.Image.Original
	}
	return s.Image.Medium
}

func yearOf(date string) *int {
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year == 0 {
		return nil
	}
	return &year
}
