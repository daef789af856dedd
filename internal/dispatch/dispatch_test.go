package dispatch_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rdevries/taskfolio/internal/dispatch"
)

// TestLoopback tests asynchronous delivery to the application's own API.
//
// WHY: Sync runs and push jobs travel through this path. Payloads must arrive
// intact at the right endpoint, and named duplicates must be dropped while
// the first delivery is pending.
func TestLoopback(t *testing.T) {
	t.Run("delivers the payload to the endpoint", func(t *testing.T) {
		type received struct {
			path string
			body map[string]string
		}
		got := make(chan received, 1)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			var body map[string]string
			if err := json.Unmarshal(data, &body); err != nil {
				t.Errorf("Failed to decode delivered payload: %v", err)
			}
			got <- received{path: r.URL.Path, body: body}
		}))
		defer server.Close()

		d := dispatch.NewLoopback(server.Client(), server.URL)
		err := d.Enqueue(context.Background(), "/api/sync/process", map[string]string{
			"user_id":  "user-1",
			"provider": "google",
		})
		if err != nil {
			t.Fatalf("Enqueue() returned unexpected error: %v", err)
		}

		select {
		case r := <-got:
			if r.path != "/api/sync/process" {
				t.Errorf("Expected delivery to /api/sync/process, got %q", r.path)
			}
			if r.body["user_id"] != "user-1" {
				t.Errorf("Payload did not survive delivery: %v", r.body)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Delivery never arrived")
		}
	})

	t.Run("drops duplicates of a pending named delivery", func(t *testing.T) {
		deliveries := make(chan struct{}, 10)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deliveries <- struct{}{}
		}))
		defer server.Close()

		d := dispatch.NewLoopback(server.Client(), server.URL)

		// The delay holds the first delivery pending while duplicates arrive.
		for i := 0; i < 3; i++ {
			err := d.Enqueue(context.Background(), "/api/tasks/push", map[string]string{"task_id": "t1"},
				dispatch.WithName("push-t1"), dispatch.WithDelay(100*time.Millisecond))
			if err != nil {
				t.Fatalf("Enqueue() returned unexpected error: %v", err)
			}
		}

		select {
		case <-deliveries:
		case <-time.After(5 * time.Second):
			t.Fatal("First delivery never arrived")
		}

		select {
		case <-deliveries:
			t.Error("Duplicate named delivery was not dropped")
		case <-time.After(300 * time.Millisecond):
			// No duplicates arrived.
		}
	})

	t.Run("rejects payloads that cannot be encoded", func(t *testing.T) {
		d := dispatch.NewLoopback(http.DefaultClient, "http://localhost:0")
		if err := d.Enqueue(context.Background(), "/x", make(chan int)); err == nil {
			t.Error("Expected an encoding error")
		}
	})
}

// TestRecorder tests the capturing test double.
func TestRecorder(t *testing.T) {
	r := dispatch.NewRecorder()

	err := r.Enqueue(context.Background(), "/api/tasks/push", map[string]string{"task_id": "t1"},
		dispatch.WithName("push-t1"), dispatch.WithDelay(time.Minute))
	if err != nil {
		t.Fatalf("Enqueue() returned unexpected error: %v", err)
	}

	calls := r.Calls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 recorded call, got %d", len(calls))
	}
	if calls[0].Endpoint != "/api/tasks/push" || calls[0].Name != "push-t1" || calls[0].Delay != time.Minute {
		t.Errorf("Recorded call mismatch: %+v", calls[0])
	}
}
