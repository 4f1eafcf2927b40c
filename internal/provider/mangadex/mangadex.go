// Package mangadex adapts the MangaDex REST catalog for Manga.
// No credential is required. MangaDex localizes almost every text field;
// the adapter prefers English, then romanized Japanese, then anything.
package mangadex

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
	defaultAPIBase    = "https://api.mangadex.org"
	defaultCoversBase = "https://uploads.mangadex.org/covers"
	siteBase          = "https://mangadex.org/title"

	maxResults = 10
	maxTags    = 10
)

// Client implements provider.Provider against MangaDex.
type Client struct {
	http       *upstream.Client
	apiBase    string
	coversBase string
}

type Option func(*Client)

// WithAPIBase overrides the REST endpoint, for tests.
func WithAPIBase(u string) Option {
	return func(c *Client) { c.apiBase = u }
}

// WithCoversBase overrides the cover CDN prefix, for tests.
func WithCoversBase(u string) Option {
	return func(c *Client) { c.coversBase = u }
}

func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		http:       upstream.New(models.SourceMangaDex, cfg),
		apiBase:    defaultAPIBase,
		coversBase: defaultCoversBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() models.Source {
	return models.SourceMangaDex
}

// localized is MangaDex's language-tag-to-text map.
type localized map[string]string

// pick returns the best candidate: en, then romanized Japanese, then any.
func (l localized) pick() string {
	if v := l["en"]; v != "" {
		return v
	}
	if v := l["ja-ro"]; v != "" {
		return v
	}
	if v := l["ja"]; v != "" {
		return v
	}
	for _, v := range l {
		if v != "" {
			return v
		}
	}
	return ""
}

type mangaEntry struct {
	ID         string `json:"id"`
	Attributes struct {
		Title       localized   `json:"title"`
		AltTitles   []localized `json:"altTitles"`
		Description localized   `json:"description"`
		Year        *int        `json:"year"`
		LastVolume  string      `json:"lastVolume"`
		LastChapter string      `json:"lastChapter"`
		Tags        []struct {
			Attributes struct {
				Name localized `json:"name"`
			} `json:"attributes"`
		} `json:"tags"`
	} `json:"attributes"`
	Relationships []struct {
		Type       string `json:"type"`
		Attributes struct {
			Name     string `json:"name"`
			FileName string `json:"fileName"`
		} `json:"attributes"`
	} `json:"relationships"`
}

func (c *Client) Search(ctx context.Context, query string, category models.MediaCategory) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("title", query)
	params.Set("limit", strconv.Itoa(maxResults))
	params.Add("includes[]", "cover_art")
	params.Add("includes[]", "author")

	var resp struct {
		Result string       `json:"result"`
		Data   []mangaEntry `json:"data"`
	}
	if err := c.http.GetJSON(ctx, c.apiBase+"/manga?"+params.Encode(), &resp); err != nil {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "search", err)
	}

	results := make([]models.SearchResult, 0, len(resp.Data))
	for _, entry := range resp.Data {
		title := models.FirstNonEmpty(entry.Attributes.Title.pick())
		desc := markup.Strip(entry.Attributes.Description.pick())

		results = append(results, models.SearchResult{
			ID:                 entry.ID,
			Source:             c.Name(),
			Title:              title,
			OriginalTitle:      entry.Attributes.Title["ja"],
			CoverURL:           c.coverURL(entry),
			Year:               entry.Attributes.Year,
			DescriptionPreview: markup.Preview(desc),
			Chapters:           countOf(entry.Attributes.LastChapter),
			Volumes:            countOf(entry.Attributes.LastVolume),
			Authors:            entry.people("author"),
		})
	}
	return results, nil
}

func (c *Client) Details(ctx context.Context, externalID string, category models.MediaCategory) (*models.DetailRecord, error) {
	params := url.Values{}
	params.Add("includes[]", "cover_art")
	params.Add("includes[]", "author")
	params.Add("includes[]", "artist")

	var resp struct {
		Result string     `json:"result"`
		Data   mangaEntry `json:"data"`
	}
	detailsURL := c.apiBase + "/manga/" + url.PathEscape(externalID) + "?" + params.Encode()
	if err := c.http.GetJSON(ctx, detailsURL, &resp); err != nil {
		if upstream.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.NewUpstreamError(c.Name().String(), "details", err)
	}

	entry := resp.Data
	title := models.FirstNonEmpty(entry.Attributes.Title.pick())

	var altCandidates []string
	for _, alt := range entry.Attributes.AltTitles {
		for _, v := range alt {
			altCandidates = append(altCandidates, v)
		}
	}

	var tags []string
	for _, tag := range entry.Attributes.Tags {
		if name := tag.Attributes.Name.pick(); name != "" {
			tags = append(tags, name)
		}
		if len(tags) == maxTags {
			break
		}
	}

	var releaseDate string
	if entry.Attributes.Year != nil {
		releaseDate = strconv.Itoa(*entry.Attributes.Year) + "-01-01"
	}

	record := &models.DetailRecord{
		ID:              entry.ID,
		Source:          c.Name(),
		Title:           title,
		AlternateTitles: models.DedupTitles(title, altCandidates),
		CoverURL:        c.coverURL(entry),
		Description:     markup.Strip(entry.Attributes.Description.pick()),
		ReleaseDate:     releaseDate,
		Year:            entry.Attributes.Year,
		Chapters:        countOf(entry.Attributes.LastChapter),
		Volumes:         countOf(entry.Attributes.LastVolume),
		Tags:            tags,
		Authors:         entry.people("author", "artist"),
		ExternalLink:    siteBase + "/" + entry.ID,
	}
	return record, nil
}

// people collects relationship names of the given types, deduplicated
// (an author credited as artist too must appear once).
func (e mangaEntry) people(types ...string) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, typ := range types {
		for _, rel := range e.Relationships {
			if rel.Type != typ || rel.Attributes.Name == "" {
				continue
			}
			if _, dup := seen[rel.Attributes.Name]; dup {
				continue
			}
			seen[rel.Attributes.Name] = struct{}{}
			names = append(names, rel.Attributes.Name)
		}
	}
	return names
}

func (c *Client) coverURL(entry mangaEntry) string {
	for _, rel := range entry.Relationships {
		if rel.Type == "cover_art" && rel.Attributes.FileName != "" {
			return c.coversBase + "/" + entry.ID + "/" + rel.Attributes.FileName + ".512.jpg"
		}
	}
	return ""
}

// countOf parses MangaDex's stringly chapter/volume counters ("139",
// "96.5", ""). Fractional chapters floor to the whole count.
func countOf(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return nil
	}
	return models.Int(int(f))
}
