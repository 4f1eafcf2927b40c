package mangadex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/models"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	cfg := &config.Config{ClientTimeout: "5s"}
	return New(cfg, WithAPIBase(url), WithCoversBase("https://uploads.mangadex.org/covers"))
}

const searchJSON = `{
	"result": "ok",
	"data": [
		{
			"id": "32d76d19-8a05-4db0-9fc2-e0b0648fe9d0",
			"attributes": {
				"title": {"en": "Solo Leveling"},
				"altTitles": [{"ja": "俺だけレベルアップな件"}, {"ko": "나 혼자만 레벨업"}],
				"description": {"en": "Ten years ago, the Gate appeared."},
				"year": 2018,
				"lastVolume": "3",
				"lastChapter": "200",
				"tags": [{"attributes": {"name": {"en": "Action"}}}]
			},
			"relationships": [
				{"type": "cover_art", "attributes": {"fileName": "cover.jpg"}},
				{"type": "author", "attributes": {"name": "Chugong"}}
			]
		}
	]
}`

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/manga" {
			t.Errorf("Expected /manga, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("title") != "solo leveling" {
			t.Errorf("Unexpected title param %q", q.Get("title"))
		}
		includes := q["includes[]"]
		if len(includes) != 2 {
			t.Errorf("Expected cover_art and author includes, got %v", includes)
		}
		_, _ = w.Write([]byte(searchJSON))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	results, err := client.Search(context.Background(), "solo leveling", models.CategoryManga)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.ID != "32d76d19-8a05-4db0-9fc2-e0b0648fe9d0" || r.Source != models.SourceMangaDex {
		t.Errorf("Unexpected identity: %+v", r)
	}
	if r.Title != "Solo Leveling" {
		t.Errorf("Expected english title, got %q", r.Title)
	}
	if r.CoverURL != "https://uploads.mangadex.org/covers/32d76d19-8a05-4db0-9fc2-e0b0648fe9d0/cover.jpg.512.jpg" {
		t.Errorf("Unexpected cover URL %q", r.CoverURL)
	}
	if r.Chapters == nil || *r.Chapters != 200 {
		t.Errorf("Expected 200 chapters, got %v", r.Chapters)
	}
	if r.Volumes == nil || *r.Volumes != 3 {
		t.Errorf("Expected 3 volumes, got %v", r.Volumes)
	}
	if len(r.Authors) != 1 || r.Authors[0] != "Chugong" {
		t.Errorf("Expected author Chugong, got %v", r.Authors)
	}
}

func TestClient_Details(t *testing.T) {
	detailsJSON := `{
		"result": "ok",
		"data": {
			"id": "abc-123",
			"attributes": {
				"title": {"ja-ro": "Berserk"},
				"altTitles": [{"ja": "ベルセルク"}, {"en": "Berserk"}],
				"description": {"en": "Guts, a former mercenary, hunts demons."},
				"year": 1989,
				"lastVolume": "42",
				"lastChapter": "380.5",
				"tags": [
					{"attributes": {"name": {"en": "Action"}}},
					{"attributes": {"name": {"en": "Horror"}}}
				]
			},
			"relationships": [
				{"type": "cover_art", "attributes": {"fileName": "berserk.png"}},
				{"type": "author", "attributes": {"name": "Kentarou Miura"}},
				{"type": "artist", "attributes": {"name": "Kentarou Miura"}}
			]
		}
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/manga/abc-123" {
			t.Errorf("Expected /manga/abc-123, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(detailsJSON))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	record, err := client.Details(context.Background(), "abc-123", models.CategoryManga)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if record.Title != "Berserk" {
		t.Errorf("Expected ja-ro fallback title, got %q", record.Title)
	}
	// "Berserk" altTitle duplicates the primary and must be dropped
	if len(record.AlternateTitles) != 1 || record.AlternateTitles[0] != "ベルセルク" {
		t.Errorf("Expected single native alternate, got %v", record.AlternateTitles)
	}
	if record.ReleaseDate != "1989-01-01" {
		t.Errorf("Year must synthesize YYYY-01-01, got %q", record.ReleaseDate)
	}
	if record.Chapters == nil || *record.Chapters != 380 {
		t.Errorf("Fractional chapter count must floor, got %v", record.Chapters)
	}
	// Author credited as artist too appears once
	if len(record.Authors) != 1 || record.Authors[0] != "Kentarou Miura" {
		t.Errorf("Expected deduplicated author list, got %v", record.Authors)
	}
	if record.ExternalLink != "https://mangadex.org/title/abc-123" {
		t.Errorf("Unexpected external link %q", record.ExternalLink)
	}
	if record.Episodes != nil || record.PageCount != nil {
		t.Error("Inapplicable fields must stay absent on a manga record")
	}
}

func TestClient_Details_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result": "error", "errors": [{"status": 404}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	record, err := client.Details(context.Background(), "nope", models.CategoryManga)
	if err != nil || record != nil {
		t.Errorf("404 must yield (nil, nil), got (%v, %v)", record, err)
	}
}

func TestClient_Search_EmptyQuery(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	results, err := client.Search(context.Background(), "\t\n", models.CategoryManga)
	if err != nil || len(results) != 0 {
		t.Errorf("Empty query must yield ([], nil), got (%v, %v)", results, err)
	}
	if atomic.LoadInt32(&requests) != 0 {
		t.Errorf("Empty query must not hit the network, saw %d requests", requests)
	}
}

func TestLocalized_Pick(t *testing.T) {
	tests := []struct {
		name     string
		input    localized
		expected string
	}{
		{"english preferred", localized{"en": "Title", "ja": "タイトル"}, "Title"},
		{"romaji second", localized{"ja-ro": "Taitoru", "ja": "タイトル"}, "Taitoru"},
		{"native third", localized{"ja": "タイトル"}, "タイトル"},
		{"any language last", localized{"ko": "제목"}, "제목"},
		{"empty map", localized{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.input.pick(); got != tt.expected {
				t.Errorf("pick() = %q, want %q", got, tt.expected)
			}
		})
	}
}
