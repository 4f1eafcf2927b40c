// Package comicvine adapts the Comic Vine REST catalog. A comic volume
// stands in for both manga and book lookups, with issue counts exposed
// the way a series exposes episodes.
package comicvine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/TenKdoToLami/UpNext/internal/apperrors"
	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/credentials"
	"github.com/TenKdoToLami/UpNext/internal/markup"
	"github.com/TenKdoToLami/UpNext/internal/models"
	"github.com/TenKdoToLami/UpNext/internal/upstream"
)

const (
	defaultAPIBase = "https://comicvine.gamespot.com/api"

	// Comic Vine prefixes volume ids with the resource type on detail URLs.
	volumePrefix = "4050"

	statusOK   = 1
	maxResults = 10
	maxAuthors = 5

	searchFields = "id,name,aliases,start_year,deck,image,count_of_issues,publisher"
	detailFields = searchFields + ",description,person_credits,site_detail_url"
)

// Client implements provider.Provider against Comic Vine. Every call
// requires an API key; a missing one fails before the network.
type Client struct {
	http    *upstream.Client
	creds   *credentials.Store
	apiBase string
}

type Option func(*Client)

func WithAPIBase(u string) Option {
	return func(c *Client) { c.apiBase = u }
}

func New(cfg *config.Config, creds *credentials.Store, opts ...Option) *Client {
	c := &Client{
		http:    upstream.New(models.SourceComicVine, cfg),
		creds:   creds,
		apiBase: defaultAPIBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() models.Source {
	return models.SourceComicVine
}

func (c *Client) apiKey() (string, error) {
	key := c.creds.Get(models.SourceComicVine)
	if key == "" {
		return "", apperrors.NewCredentialMissingError(c.Name().String())
	}
	return key, nil
}

type imageSet struct {
	OriginalURL string `json:"original_url"`
	MediumURL   string `json:"medium_url"`
}

func (i imageSet) best() string {
	if i.OriginalURL != "" {
		return i.OriginalURL
	}
	return i.MediumURL
}

type volumeEntry struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Aliases       string   `json:"aliases"` // newline separated
	StartYear     string   `json:"start_year"`
	Deck          string   `json:"deck"`
	Description   string   `json:"description"` // HTML
	Image         imageSet `json:"image"`
	CountOfIssues *int     `json:"count_of_issues"`
	Publisher     *struct {
		Name string `json:"name"`
	} `json:"publisher"`
	PersonCredits []struct {
		Name string `json:"name"`
	} `json:"person_credits"`
	SiteDetailURL string `json:"site_detail_url"`
}

// envelope defers decoding of results: Comic Vine answers API-level
// errors with 200 and an empty results array even on object endpoints,
// so the payload shape is only trustworthy once status_code checks out.
type envelope struct {
	Error      string          `json:"error"`
	StatusCode int             `json:"status_code"`
	Results    json.RawMessage `json:"results"`
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

	params := url.Values{}
	params.Set("api_key", key)
	params.Set("format", "json")
	params.Set("resources", "volume")
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(maxResults))
	params.Set("field_list", searchFields)

	var resp envelope
	if err := c.http.GetJSON(ctx, c.apiBase+"/search/?"+params.Encode(), &resp); err != nil {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "search", err)
	}
	if resp.StatusCode != statusOK {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "search",
			fmt.Errorf("api status %d: %s", resp.StatusCode, resp.Error))
	}

	var entries []volumeEntry
	if err := json.Unmarshal(resp.Results, &entries); err != nil {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "search", err)
	}

	results := make([]models.SearchResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, models.SearchResult{
			ID:                 strconv.Itoa(entry.ID),
			Source:             c.Name(),
			Title:              models.FirstNonEmpty(entry.Name),
			CoverURL:           entry.Image.best(),
			Year:               yearOf(entry.StartYear),
			DescriptionPreview: markup.Preview(markup.Strip(entry.Deck)),
			Episodes:           entry.CountOfIssues,
			Studios:            publisherOf(entry),
		})
	}
	return results, nil
}

func (c *Client) Details(ctx context.Context, externalID string, category models.MediaCategory) (*models.DetailRecord, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("api_key", key)
	params.Set("format", "json")
	params.Set("field_list", detailFields)

	detailsURL := fmt.Sprintf("%s/volume/%s-%s/?%s",
		c.apiBase, volumePrefix, url.PathEscape(externalID), params.Encode())

	var resp envelope
	if err := c.http.GetJSON(ctx, detailsURL, &resp); err != nil {
		if upstream.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.NewUpstreamError(c.Name().String(), "details", err)
	}
	if resp.StatusCode != statusOK {
		if strings.EqualFold(resp.Error, "Object Not Found") {
			return nil, nil
		}
		return nil, apperrors.NewUpstreamError(c.Name().String(), "details",
			fmt.Errorf("api status %d: %s", resp.StatusCode, resp.Error))
	}

	var entry volumeEntry
	if err := json.Unmarshal(resp.Results, &entry); err != nil {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "details", err)
	}
	title := models.FirstNonEmpty(entry.Name)
	description := markup.Strip(entry.Description)
	if description == "" {
		description = markup.Strip(entry.Deck)
	}

	record := &models.DetailRecord{
		ID:              strconv.Itoa(entry.ID),
		Source:          c.Name(),
		Title:           title,
		AlternateTitles: models.DedupTitles(title, aliasesOf(entry.Aliases)),
		CoverURL:        entry.Image.best(),
		Description:     description,
		ReleaseDate:     releaseDate(entry.StartYear),
		Year:            yearOf(entry.StartYear),
		Episodes:        entry.CountOfIssues,
		Authors:         creditedPeople(entry),
		Studios:         publisherOf(entry),
		ExternalLink:    entry.SiteDetailURL,
	}
	return record, nil
}

func creditedPeople(entry volumeEntry) []string {
	var people []string
	for _, credit := range entry.PersonCredits {
		if credit.Name == "" {
			continue
		}
		people = append(people, credit.Name)
		if len(people) == maxAuthors {
			break
		}
	}
	return people
}

func aliasesOf(raw string) []string {
	var aliases []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			aliases = append(aliases, line)
		}
	}
	return aliases
}

func publisherOf(entry volumeEntry) []string {
	if entry.Publisher == nil || entry.Publisher.Name == "" {
		return nil
	}
	return []string{entry.Publisher.Name}
}

func yearOf(startYear string) *int {
	year, err := strconv.Atoi(strings.TrimSpace(startYear))
	if err != nil || year == 0 {
		return nil
	}
	return &year
}

func releaseDate(startYear string) string {
	if yearOf(startYear) == nil {
		return ""
	}
	return strings.TrimSpace(startYear) + "-01-01"
}
