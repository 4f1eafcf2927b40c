package comicvine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/TenKdoToLami/UpNext/internal/apperrors"
	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/credentials"
	"github.com/TenKdoToLami/UpNext/internal/models"
)

func newTestClient(t *testing.T, url string, key string) *Client {
	t.Helper()
	cfg := &config.Config{ClientTimeout: "5s"}
	creds := credentials.NewStore()
	if key != "" {
		creds.Set(models.SourceComicVine, key)
	}
	return New(cfg, creds, WithAPIBase(url))
}

func TestClient_Search_NoCredential(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	_, err := client.Search(context.Background(), "berserk", models.CategoryManga)
	if !errors.Is(err, &apperrors.ErrCredentialMissing{}) {
		t.Errorf("Expected ErrCredentialMissing, got %v", err)
	}
	if atomic.LoadInt32(&requests) != 0 {
		t.Errorf("Missing key must short-circuit before the network, saw %d requests", requests)
	}
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "secret" || q.Get("format") != "json" {
			t.Errorf("Missing api_key/format on %q", r.URL.RawQuery)
		}
		if q.Get("resources") != "volume" {
			t.Errorf("Expected resources=volume, got %q", q.Get("resources"))
		}
		if q.Get("query") != "berserk" {
			t.Errorf("Expected query=berserk, got %q", q.Get("query"))
		}
		_, _ = w.Write([]byte(`{
			"error": "OK",
			"status_code": 1,
			"results": [
				{
					"id": 3571,
					"name": "Berserk",
					"start_year": "2003",
					"deck": "<i>Dark fantasy</i> by Kentaro Miura.",
					"image": {"original_url": "https://comicvine.gamespot.com/a/berserk.jpg"},
					"count_of_issues": 42,
					"publisher": {"name": "Dark Horse Comics"}
				}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "secret")
	results, err := client.Search(context.Background(), "berserk", models.CategoryManga)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}

	got := results[0]
	if got.ID != "3571" || got.Source != models.SourceComicVine {
		t.Errorf("Unexpected identity: %+v", got)
	}
	if got.Title != "Berserk" {
		t.Errorf("Unexpected title %q", got.Title)
	}
	if got.Year == nil || *got.Year != 2003 {
		t.Errorf("Expected year 2003, got %v", got.Year)
	}
	if got.DescriptionPreview != "Dark fantasy by Kentaro Miura." {
		t.Errorf("Markup must be stripped, got %q", got.DescriptionPreview)
	}
	if got.Episodes == nil || *got.Episodes != 42 {
		t.Errorf("Issue count must map to episodes, got %v", got.Episodes)
	}
	if len(got.Studios) != 1 || got.Studios[0] != "Dark Horse Comics" {
		t.Errorf("Unexpected studios %v", got.Studios)
	}
}

func TestClient_Search_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Invalid API Key", "status_code": 100, "results": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "bogus")
	_, err := client.Search(context.Background(), "berserk", models.CategoryManga)
	if !errors.Is(err, &apperrors.ErrUpstream{}) {
		t.Errorf("Expected ErrUpstream for an API-level error, got %v", err)
	}
}

func TestClient_Details(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/volume/4050-3571/" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"error": "OK",
			"status_code": 1,
			"results": {
				"id": 3571,
				"name": "Berserk",
				"aliases": "Berserk Deluxe\nBerserk",
				"start_year": "2003",
				"description": "<p>The <em>Band of the Hawk</em> rises.</p>",
				"image": {"original_url": "https://comicvine.gamespot.com/a/berserk.jpg"},
				"count_of_issues": 42,
				"publisher": {"name": "Dark Horse Comics"},
				"person_credits": [
					{"name": "Kentaro Miura"},
					{"name": "Duane Johnson"},
					{"name": ""},
					{"name": "Third"},
					{"name": "Fourth"},
					{"name": "Fifth"},
					{"name": "Sixth"}
				],
				"site_detail_url": "https://comicvine.gamespot.com/berserk/4050-3571/"
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "secret")
	record, err := client.Details(context.Background(), "3571", models.CategoryManga)
	if err != nil {
		t.Fatalf("Details failed: %v", err)
	}
	if record == nil {
		t.Fatal("Expected a record")
	}

	if record.Title != "Berserk" {
		t.Errorf("Unexpected title %q", record.Title)
	}
	// "Berserk" repeats the main title and must be dropped from aliases.
	if len(record.AlternateTitles) != 1 || record.AlternateTitles[0] != "Berserk Deluxe" {
		t.Errorf("Unexpected alternate titles %v", record.AlternateTitles)
	}
	if record.Description != "The Band of the Hawk rises." {
		t.Errorf("Unexpected description %q", record.Description)
	}
	if record.ReleaseDate != "2003-01-01" {
		t.Errorf("Unexpected release date %q", record.ReleaseDate)
	}
	if len(record.Authors) != 5 {
		t.Errorf("Credits must cap at 5 named people, got %v", record.Authors)
	}
	if record.Authors[0] != "Kentaro Miura" {
		t.Errorf("Unexpected first author %q", record.Authors[0])
	}
	if record.ExternalLink != "https://comicvine.gamespot.com/berserk/4050-3571/" {
		t.Errorf("Unexpected link %q", record.ExternalLink)
	}
}

func TestClient_Details_ObjectNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Object Not Found", "status_code": 101, "results": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "secret")
	record, err := client.Details(context.Background(), "999999", models.CategoryManga)
	if err != nil {
		t.Fatalf("Object Not Found is not an error: %v", err)
	}
	if record != nil {
		t.Errorf("Expected nil record, got %+v", record)
	}
}

func TestAliasesOf(t *testing.T) {
	aliases := aliasesOf("One\n\n  Two  \nThree")
	if len(aliases) != 3 || aliases[1] != "Two" {
		t.Errorf("Unexpected aliases %v", aliases)
	}
	if aliasesOf("") != nil {
		t.Error("Empty input must produce no aliases")
	}
}
