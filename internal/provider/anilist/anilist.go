// Package anilist adapts the AniList GraphQL catalog for Anime and Manga.
//
// AniList publishes a ceiling of 90 requests/minute; every outbound call
// passes through a limiter paced slightly under that.
package anilist

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/TenKdoToLami/UpNext/internal/apperrors"
	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/markup"
	"github.com/TenKdoToLami/UpNext/internal/models"
	"github.com/TenKdoToLami/UpNext/internal/upstream"
)

const (
	defaultAPIURL = "https://graphql.anilist.co"

	// One call per 700ms keeps us around 85 requests/minute, under the
	// published 90/minute ceiling.
	minRequestInterval = 700 * time.Millisecond

	maxSynonyms = 5
	maxTags     = 5
)

const searchQuery = `
query ($search: String, $type: MediaType, $page: Int, $perPage: Int) {
    Page(page: $page, perPage: $perPage) {
        media(search: $search, type: $type, sort: POPULARITY_DESC) {
            id
            title { romaji english native }
            coverImage { large medium }
            startDate { year }
            description(asHtml: false)
            episodes
            chapters
            volumes
            genres
            studios(isMain: true) { nodes { name } }
            staff(sort: RELEVANCE, perPage: 3) { nodes { name { full } } }
        }
    }
}`

const detailsQuery = `
query ($id: Int) {
    Media(id: $id) {
        id
        title { romaji english native }
        coverImage { extraLarge large }
        startDate { year month day }
        description(asHtml: false)
        episodes
        chapters
        volumes
        duration
        genres
        tags { name rank }
        studios(isMain: true) { nodes { name } }
        staff(sort: RELEVANCE, perPage: 5) { nodes { name { full } } }
        synonyms
        siteUrl
    }
}`

// Client implements provider.Provider against AniList.
type Client struct {
	http    *upstream.Client
	apiURL  string
	limiter *rate.Limiter
}

type Option func(*Client)

// WithAPIURL overrides the GraphQL endpoint, for tests.
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

// WithLimiter replaces the request pacer, for tests.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		http:   upstream.New(models.SourceAniList, cfg),
		apiURL: defaultAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Every(minRequestInterval), 1)
	}
	return c
}

func (c *Client) Name() models.Source {
	return models.SourceAniList
}

// Upstream response shapes. AniList nests heavily; these mirror only the
// fields the queries above request.
type titleSet struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type fuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

type nameNode struct {
	Name string `json:"name"`
}

type staffNode struct {
	Name struct {
		Full string `json:"full"`
	} `json:"name"`
}

type rankedTag struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

type mediaEntry struct {
	ID         int      `json:"id"`
	Title      titleSet `json:"title"`
	CoverImage struct {
		ExtraLarge string `json:"extraLarge"`
		Large      string `json:"large"`
		Medium     string `json:"medium"`
	} `json:"coverImage"`
	StartDate   fuzzyDate   `json:"startDate"`
	Description string      `json:"description"`
	Episodes    *int        `json:"episodes"`
	Chapters    *int        `json:"chapters"`
	Volumes     *int        `json:"volumes"`
	Duration    *int        `json:"duration"`
	Genres      []string    `json:"genres"`
	Tags        []rankedTag `json:"tags"`
	Studios     struct {
		Nodes []nameNode `json:"nodes"`
	} `json:"studios"`
	Staff struct {
		Nodes []staffNode `json:"nodes"`
	} `json:"staff"`
	Synonyms []string `json:"synonyms"`
	SiteURL  string   `json:"siteUrl"`
}

type gqlError struct {
	Message string `json:"message"`
}

// request executes one paced GraphQL call.
func (c *Client) request(ctx context.Context, query string, variables map[string]any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	payload := map[string]any{"query": query, "variables": variables}
	return c.http.PostJSON(ctx, c.apiURL, payload, out)
}

func mediaType(category models.MediaCategory) string {
	if category == models.CategoryManga {
		return "MANGA"
	}
	return "ANIME"
}

func (c *Client) Search(ctx context.Context, query string, category models.MediaCategory) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var resp struct {
		Data struct {
			Page struct {
				Media []mediaEntry `json:"media"`
			} `json:"Page"`
		} `json:"data"`
		Errors []gqlError `json:"errors"`
	}
	variables := map[string]any{
		"search":  query,
		"type":    mediaType(category),
		"page":    1,
		"perPage": 10,
	}
	if err := c.request(ctx, searchQuery, variables, &resp); err != nil {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "search", err)
	}
	if len(resp.Errors) > 0 {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "search",
			fmt.Errorf("graphql error: %s", resp.Errors[0].Message))
	}

	results := make([]models.SearchResult, 0, len(resp.Data.Page.Media))
	for _, item := range resp.Data.Page.Media {
		desc := markup.Strip(item.Description)

		var authors []string
		if category == models.CategoryManga {
			authors = staffNames(item.Staff.Nodes)
		}

		results = append(results, models.SearchResult{
			ID:                 strconv.Itoa(item.ID),
			Source:             c.Name(),
			Title:              models.FirstNonEmpty(item.Title.English, item.Title.Romaji, item.Title.Native),
			OriginalTitle:      item.Title.Native,
			CoverURL:           item.CoverImage.Large,
			Year:               item.StartDate.Year,
			DescriptionPreview: markup.Preview(desc),
			Episodes:           item.Episodes,
			Chapters:           item.Chapters,
			Volumes:            item.Volumes,
			Genres:             item.Genres,
			Studios:            nodeNames(item.Studios.Nodes),
			Authors:            authors,
		})
	}
	return results, nil
}

func (c *Client) Details(ctx context.Context, externalID string, category models.MediaCategory) (*models.DetailRecord, error) {
	id, err := strconv.Atoi(externalID)
	if err != nil {
		return nil, nil
	}

	var resp struct {
		Data struct {
			Media *mediaEntry `json:"Media"`
		} `json:"data"`
		Errors []gqlError `json:"errors"`
	}
	if err := c.request(ctx, detailsQuery, map[string]any{"id": id}, &resp); err != nil {
		// AniList answers 404 with a GraphQL error body for unknown ids.
		if upstream.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.NewUpstreamError(c.Name().String(), "details", err)
	}
	if len(resp.Errors) > 0 {
		return nil, apperrors.NewUpstreamError(c.Name().String(), "details",
			fmt.Errorf("graphql error: %s", resp.Errors[0].Message))
	}
	if resp.Data.Media == nil {
		return nil, nil
	}

	item := resp.Data.Media
	title := models.FirstNonEmpty(item.Title.English, item.Title.Romaji, item.Title.Native)

	synonyms := item.Synonyms
	if len(synonyms) > maxSynonyms {
		synonyms = synonyms[:maxSynonyms]
	}
	altCandidates := append([]string{item.Title.Romaji, item.Title.Native}, synonyms...)

	// Tags ranked by relevance; keep the top few.
	tags := append([]rankedTag(nil), item.Tags...)
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Rank > tags[j].Rank })
	var tagNames []string
	for _, tag := range tags {
		if tag.Name == "" {
			continue
		}
		tagNames = append(tagNames, tag.Name)
		if len(tagNames) == maxTags {
			break
		}
	}

	record := &models.DetailRecord{
		ID:                 strconv.Itoa(item.ID),
		Source:             c.Name(),
		Title:              title,
		AlternateTitles:    models.DedupTitles(title, altCandidates),
		CoverURL:           coverURL(item.CoverImage.ExtraLarge, item.CoverImage.Large),
		Description:        markup.Strip(item.Description),
		ReleaseDate:        item.StartDate.ISO(),
		Year:               item.StartDate.Year,
		Episodes:           item.Episodes,
		Chapters:           item.Chapters,
		Volumes:            item.Volumes,
		AvgDurationMinutes: item.Duration,
		Genres:             item.Genres,
		Tags:               tagNames,
		Studios:            nodeNames(item.Studios.Nodes),
		Authors:            staffNames(item.Staff.Nodes),
		ExternalLink:       item.SiteURL,
	}
	return record, nil
}

// ISO renders a fuzzy date as YYYY-MM-DD, substituting January 1st for
// missing month/day. Returns "" when even the year is unknown.
func (d fuzzyDate) ISO() string {
	if d.Year == nil {
		return ""
	}
	month, day := 1, 1
	if d.Month != nil {
		month = *d.Month
	}
	if d.Day != nil {
		day = *d.Day
	}
	return fmt.Sprintf("%04d-%02d-%02d", *d.Year, month, day)
}

func coverURL(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func nodeNames(nodes []nameNode) []string {
	var names []string
	for _, n := range nodes {
		if n.Name != "" {
			names = append(names, n.Name)
		}
	}
	return names
}

func staffNames(nodes []staffNode) []string {
	var names []string
	for _, n := range nodes {
		if n.Name.Full != "" {
			names = append(names, n.Name.Full)
		}
	}
	return names
}
