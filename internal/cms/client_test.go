package cms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestCreatePostResolvesTags(t *testing.T) {
	t.Parallel()

	var createdPost map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bot" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch {
		case r.URL.Path == "/wp-json/wp/v2/tags" && r.Method == http.MethodGet:
			if r.URL.Query().Get("search") == "fashion" {
				_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 7, "name": "Fashion"}})
				return
			}
			_ = json.NewEncoder(w).Encode([]map[string]any{})
		case r.URL.Path == "/wp-json/wp/v2/tags" && r.Method == http.MethodPost:
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 31})
		case r.URL.Path == "/wp-json/wp/v2/posts" && r.Method == http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&createdPost)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 901, "link": "https://site.example/p", "status": "draft"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot", "secret", zerolog.Nop())
	post, err := client.CreatePost(context.Background(), PostParams{
		Title:      "Hello",
		Content:    "<p>body</p>",
		Status:     "draft",
		CategoryID: 4,
		Tags:       []string{"fashion", "runway"},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ID != 901 {
		t.Fatalf("unexpected post id %d", post.ID)
	}

	tags, ok := createdPost["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Fatalf("expected 2 resolved tag ids, got %v", createdPost["tags"])
	}
	if tags[0].(float64) != 7 || tags[1].(float64) != 31 {
		t.Fatalf("unexpected tag ids %v", tags)
	}
	categories, ok := createdPost["categories"].([]any)
	if !ok || len(categories) != 1 || categories[0].(float64) != 4 {
		t.Fatalf("category not set: %v", createdPost["categories"])
	}
}

func TestFindPostIDByURL(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("slug") == "zara-collection" {
			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 55}})
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot", "secret", zerolog.Nop())

	id, found, err := client.FindPostIDByURL(context.Background(), "https://site.example/2026/zara-collection/")
	if err != nil {
		t.Fatalf("find post: %v", err)
	}
	if !found || id != 55 {
		t.Fatalf("expected id=55 found, got id=%d found=%v", id, found)
	}

	_, found, err = client.FindPostIDByURL(context.Background(), "https://site.example/unknown-post")
	if err != nil {
		t.Fatalf("find post: %v", err)
	}
	if found {
		t.Fatal("expected no match for unknown slug")
	}
}

func TestClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	client := NewClient("", "bot", "secret", zerolog.Nop())
	if _, err := client.CreatePost(context.Background(), PostParams{Title: "x"}); err == nil {
		t.Fatal("expected error without base URL")
	}
}
