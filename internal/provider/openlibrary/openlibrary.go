// Package openlibrary adapts the OpenLibrary REST catalog for Books.
// No credential is required. Work records reference authors indirectly;
// resolving them costs one extra call per author, bounded to keep latency sane.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/TenKdoToLami/UpNext/internal/apperrors"
	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/markup"
	"github.com/TenKdoToLami/UpNext/internal/models"
	"github.com/TenKdoToLami/UpNext/internal/upstream"
)

const (
	defaultAPIBase    = "https://openlibrary.org"
	defaultCoversBase = "https://covers.openlibrary.org/b"

	maxResults = 10
	maxAuthors = 5
	maxTags    = 5
)

var yearPattern = regexp.MustCompile(`\d{4}`)

// Client implements provider.Provider against OpenLibrary.
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
		http:       upstream.New(models.SourceOpenLibrary, cfg),
		apiBase:    defaultAPIBase,
		coversBase: defaultCoversBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() models.Source {
	return models.SourceOpenLibrary
}

// flexText tolerates OpenLibrary's two description encodings: a bare string
// or a {type, value} object.
type flexText string

func (t *flexText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = flexText(s)
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = flexText(obj.Value)
	return nil
}

type searchDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    *int     `json:"first_publish_year"`
	CoverID             *int64   `json:"cover_i"`
	NumberOfPagesMedian *int     `json:"number_of_pages_median"`
	Subject             []string `json:"subject"`
}

type workPayload struct {
	Title       string   `json:"title"`
	Description flexText `json:"description"`
	Covers      []int64  `json:"covers"`
	Subjects    []string `json:"subjects"`
	Authors     []struct {
		Author struct {
			Key string `json:"key"`
		} `json:"author"`
	} `json:"authors"`
	FirstPublishDate string `json:"first_publish_date"`
	Created          struct {
		Value string `json:"value"`
	} `json:"created"`
	NumberOfPages *int `json:"number_of_pages"`
}

func (c *Client) Search(ctx context.Context, query string, category models.MediaCategory) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", fmt.Sprintf("%d", maxResults))
	params.Set("fields", "key,title,author_name,first_publish_year,cover_i,number_of_pages_median,subject")

	var resp struct {
		Docs []searchDoc `json:"docs"`
	}
	if err := c.http.GetJSON(ctx, c.apiBase+"/search.json?"+params.Encode(), &resp); err != nil {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "search", err)
	}

	results := make([]models.SearchResult, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		authors := doc.AuthorName
		if len(authors) > 3 {
			authors = authors[:3]
		}
		subjects := doc.Subject
		if len(subjects) > maxTags {
			subjects = subjects[:maxTags]
		}

		results = append(results, models.SearchResult{
			ID:                 strings.TrimPrefix(doc.Key, "/works/"),
			Source:             c.Name(),
			Title:              models.FirstNonEmpty(doc.Title),
			CoverURL:           c.coverURL(doc.CoverID),
			Year:               doc.FirstPublishYear,
			DescriptionPreview: "", // search responses carry no description
			Authors:            authors,
			PageCount:          doc.NumberOfPagesMedian,
			Genres:             subjects,
		})
	}
	return results, nil
}

func (c *Client) Details(ctx context.Context, externalID string, category models.MediaCategory) (*models.DetailRecord, error) {
	var work workPayload
	workURL := c.apiBase + "/works/" + url.PathEscape(externalID) + ".json"
	if err := c.http.GetJSON(ctx, workURL, &work); err != nil {
		if upstream.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.NewUpstreamError(c.Name().String(), "details", err)
	}

	// Author names live behind reference keys; resolve the first few
	// sequentially and skip any that fail.
	var authors []string
	refs := work.Authors
	if len(refs) > maxAuthors {
		refs = refs[:maxAuthors]
	}
	logger := config.GetLogger()
	for _, ref := range refs {
		key := ref.Author.Key
		if key == "" {
			continue
		}
		var author struct {
			Name string `json:"name"`
		}
		if err := c.http.GetJSON(ctx, c.apiBase+key+".json", &author); err != nil {
			logger.Warn().Err(err).Str("author_key", key).Msg("Skipping unresolvable author reference")
			continue
		}
		if author.Name != "" {
			authors = append(authors, author.Name)
		}
	}

	releaseDate := ""
	if year := yearPattern.FindString(work.FirstPublishDate); year != "" {
		releaseDate = year + "-01-01"
	} else if year := yearPattern.FindString(work.Created.Value); year != "" {
		releaseDate = year + "-01-01"
	}

	subjects := work.Subjects
	if len(subjects) > maxTags {
		subjects = subjects[:maxTags]
	}

	record := &models.DetailRecord{
		ID:           externalID,
		Source:       c.Name(),
		Title:        models.FirstNonEmpty(work.Title),
		CoverURL:     c.firstCoverURL(work.Covers),
		Description:  markup.Strip(string(work.Description)),
		ReleaseDate:  releaseDate,
		Year:         yearOf(releaseDate),
		Authors:      authors,
		Tags:         subjects,
		PageCount:    work.NumberOfPages,
		ExternalLink: defaultAPIBase + "/works/" + externalID,
	}
	return record, nil
}

func (c *Client) coverURL(id *int64) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%s/id/%d-L.jpg", c.coversBase, *id)
}

func (c *Client) firstCoverURL(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	return c.coverURL(&ids[0])
}

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
