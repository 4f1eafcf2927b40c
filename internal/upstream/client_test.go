package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/models"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	cfg := &config.Config{ClientTimeout: "5s"}
	return New(models.SourceAniList, cfg)
}

func TestClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("Expected User-Agent header to be set")
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Expected Accept header 'application/json', got %q", r.Header.Get("Accept"))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"name": "Cowboy Bebop", "id": 1}`))
	}))
	defer server.Close()

	var out struct {
		Name string `json:"name"`
		ID   int    `json:"id"`
	}
	if err := testClient(t).GetJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if out.Name != "Cowboy Bebop" || out.ID != 1 {
		t.Errorf("Unexpected decode result: %+v", out)
	}
}

func TestClient_GetJSON_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var out map[string]any
	err := testClient(t).GetJSON(context.Background(), server.URL, &out)
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected IsNotFound to report true for: %v", err)
	}
}

func TestClient_GetJSON_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var out map[string]any
	err := testClient(t).GetJSON(context.Background(), server.URL, &out)
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
	if IsNotFound(err) {
		t.Error("500 must not be classified as not-found")
	}
}

func TestClient_GetJSON_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"name": `))
	}))
	defer server.Close()

	var out map[string]any
	if err := testClient(t).GetJSON(context.Background(), server.URL, &out); err == nil {
		t.Fatal("Expected error for malformed JSON body")
	}
}

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type 'application/json', got %q", r.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	payload := map[string]string{"query": "test"}
	if err := testClient(t).PostJSON(context.Background(), server.URL, payload, &out); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !out.OK {
		t.Error("Expected decoded response ok=true")
	}
}
