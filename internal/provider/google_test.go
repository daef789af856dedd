package provider_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/provider"
)

const testPageCap = 3

// TestGoogle_Pagination tests pageToken traversal.
//
// WHY: The listing loops follow continuation tokens handed back by the
// provider. A provider that keeps returning a token must produce a truncated
// result after the page cap, never an unbounded request loop.
func TestGoogle_Pagination(t *testing.T) {
	token := model.UserToken{AccessToken: "tok"}

	t.Run("merges pages until the token runs out", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			page := atomic.AddInt32(&requests, 1)
			w.Header().Set("Content-Type", "application/json")
			if page == 1 {
				fmt.Fprint(w, `{"items": [{"id": "t1", "title": "First", "status": "needsAction"}], "nextPageToken": "page-2"}`)
				return
			}
			if r.URL.Query().Get("pageToken") != "page-2" {
				t.Errorf("Expected the continuation token to be forwarded, got %q", r.URL.Query().Get("pageToken"))
			}
			fmt.Fprint(w, `{"items": [{"id": "t2", "title": "Second", "status": "completed"}]}`)
		}))
		defer server.Close()

		g := provider.NewGoogle(server.Client(), server.URL, 100, testPageCap)
		tasks, err := g.ListTasks(context.Background(), token, "list-1", nil)
		if err != nil {
			t.Fatalf("ListTasks() returned unexpected error: %v", err)
		}

		if len(tasks) != 2 {
			t.Fatalf("Expected 2 tasks across pages, got %d", len(tasks))
		}
		if tasks[0].ID != "t1" || tasks[1].ID != "t2" {
			t.Errorf("Unexpected task order: %+v", tasks)
		}
		if !tasks[1].Completed {
			t.Error("Expected the completed status to map")
		}
	})

	t.Run("task listing stops at the page cap", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			w.Header().Set("Content-Type", "application/json")
			// A continuation token on every page simulates a provider that
			// never terminates the listing.
			fmt.Fprint(w, `{"items": [{"id": "t1", "title": "Loop", "status": "needsAction"}], "nextPageToken": "again"}`)
		}))
		defer server.Close()

		g := provider.NewGoogle(server.Client(), server.URL, 100, testPageCap)
		tasks, err := g.ListTasks(context.Background(), token, "list-1", nil)
		if err != nil {
			t.Fatalf("ListTasks() returned unexpected error: %v", err)
		}

		if got := atomic.LoadInt32(&requests); got != testPageCap {
			t.Errorf("Expected exactly %d requests, got %d", testPageCap, got)
		}
		if len(tasks) != testPageCap {
			t.Errorf("Expected the truncated result to carry %d tasks, got %d", testPageCap, len(tasks))
		}
	})

	t.Run("list listing stops at the page cap", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"items": [{"id": "l1", "title": "Groceries"}], "nextPageToken": "again"}`)
		}))
		defer server.Close()

		g := provider.NewGoogle(server.Client(), server.URL, 100, testPageCap)
		lists, err := g.ListTaskLists(context.Background(), token)
		if err != nil {
			t.Fatalf("ListTaskLists() returned unexpected error: %v", err)
		}

		if got := atomic.LoadInt32(&requests); got != testPageCap {
			t.Errorf("Expected exactly %d requests, got %d", testPageCap, got)
		}
		if len(lists) != testPageCap {
			t.Errorf("Expected the truncated result to carry %d lists, got %d", testPageCap, len(lists))
		}
	})
}
