// Package googlebooks adapts the Google Books REST catalog for Books.
// An API key raises quota when configured but is optional; the adapter
// never fails closed on a missing key.
package googlebooks

import (
	"context"
	"net/url"
	"regexp"
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
	defaultAPIBase = "https://www.googleapis.com/books/v1"

	maxResults = 10
	maxTags    = 10
)

// Client implements provider.Provider against Google Books.
type Client struct {
	http    *upstream.Client
	creds   *credentials.Store
	apiBase string
}

type Option func(*Client)

// WithAPIBase overrides the REST endpoint, for tests.
func WithAPIBase(u string) Option {
	return func(c *Client) { c.apiBase = u }
}

func New(cfg *config.Config, creds *credentials.Store, opts ...Option) *Client {
	c := &Client{
		http:    upstream.New(models.SourceGoogleBooks, cfg),
		creds:   creds,
		apiBase: defaultAPIBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() models.Source {
	return models.SourceGoogleBooks
}

type volumeInfo struct {
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	Authors       []string `json:"authors"`
	PublishedDate string   `json:"publishedDate"` // "2008", "2008-07", or "2008-07-01"
	Description   string   `json:"description"`
	PageCount     *int     `json:"pageCount"`
	Categories    []string `json:"categories"`
	ImageLinks    struct {
		Thumbnail      string `json:"thumbnail"`
		SmallThumbnail string `json:"smallThumbnail"`
	} `json:"imageLinks"`
	CanonicalVolumeLink string `json:"canonicalVolumeLink"`
}

type volumeEntry struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

func (c *Client) Search(ctx context.Context, query string, category models.MediaCategory) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	if key := c.creds.Get(models.SourceGoogleBooks); key != "" {
		params.Set("key", key)
	}

	var resp struct {
		Items []volumeEntry `json:"items"`
	}
	if err := c.http.GetJSON(ctx, c.apiBase+"/volumes?"+params.Encode(), &resp); err != nil {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "search", err)
	}

	results := make([]models.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		info := item.VolumeInfo
		results = append(results, models.SearchResult{
			ID:                 item.ID,
			Source:             c.Name(),
			Title:              models.FirstNonEmpty(info.Title),
			CoverURL:           coverURL(info),
			Year:               yearOf(info.PublishedDate),
			DescriptionPreview: markup.Preview(markup.Strip(info.Description)),
			Authors:            info.Authors,
			PageCount:          info.PageCount,
			Genres:             capped(info.Categories, maxTags),
		})
	}
	return results, nil
}

func (c *Client) Details(ctx context.Context, externalID string, category models.MediaCategory) (*models.DetailRecord, error) {
	params := url.Values{}
	if key := c.creds.Get(models.SourceGoogleBooks); key != "" {
		params.Set("key", key)
	}
	detailsURL := c.apiBase + "/volumes/" + url.PathEscape(externalID)
	if encoded := params.Encode(); encoded != "" {
		detailsURL += "?" + encoded
	}

	var entry volumeEntry
	if err := c.http.GetJSON(ctx, detailsURL, &entry); err != nil {
		if upstream.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.NewUpstreamError(c.Name().String(), "details", err)
	}

	info := entry.VolumeInfo
	title := models.FirstNonEmpty(info.Title)

	var altCandidates []string
	if info.Subtitle != "" {
		altCandidates = append(altCandidates, info.Title+": "+info.Subtitle)
	}

	record := &models.DetailRecord{
		ID:              entry.ID,
		Source:          c.Name(),
		Title:           title,
		AlternateTitles: models.DedupTitles(title, altCandidates),
		CoverURL:        coverURL(info),
		Description:     markup.Strip(info.Description),
		ReleaseDate:     isoDate(info.PublishedDate),
		Year:            yearOf(info.PublishedDate),
		Authors:         info.Authors,
		PageCount:       info.PageCount,
		Tags:            capped(info.Categories, maxTags),
		ExternalLink:    info.CanonicalVolumeLink,
	}
	return record, nil
}

// coverURL picks the best thumbnail and upgrades Google's http links.
func coverURL(info volumeInfo) string {
	link := info.ImageLinks.Thumbnail
	if link == "" {
		link = info.ImageLinks.SmallThumbnail
	}
	return strings.Replace(link, "http://", "https://", 1)
}

var datePattern = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)

// isoDate completes partial publication dates: "2008" and "2008-07" both
// become full ISO dates with January/the 1st substituted.
func isoDate(published string) string {
	if !datePattern.MatchString(published) {
		return ""
	}
	switch len(published) {
	case 4:
		return published + "-01-01"
	case 7:
		return published + "-01"
	}
	return published
}

func yearOf(published string) *int {
	if len(published) < 4 {
		return nil
	}
	year, err := strconv.Atoi(published[:4])
	if err != nil || year == 0 {
		return nil
	}
	return &year
}

func capped(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
