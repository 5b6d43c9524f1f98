package describe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/livefeedai/livefeed/internal/config"
	"github.com/livefeedai/livefeed/internal/mailbox"
)

func TestWorker_DescribesAndCaches(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"recognized_text": "a hallway"})
	}))
	defer srv.Close()

	box := mailbox.New()
	cache, err := NewCache(10)
	if err != nil {
		t.Fatal(err)
	}

	results := make(chan Description, 4)
	worker := NewWorker(box, NewClient(config.InferenceConfig{BaseURL: srv.URL, TimeoutSeconds: 5}), cache, func(d Description) {
		results <- d
	})
	worker.Start()
	defer worker.Stop()

	// First frame goes to the server.
	box.Publish(&mailbox.Frame{Image: solidTestFrame(64, 64, 10), At: time.Now()})
	first := waitDescription(t, results)
	if first.Text != "a hallway" || first.CacheHit {
		t.Errorf("first description = %+v, want fresh server result", first)
	}

	// A byte-identical frame is served from the cache.
	box.Publish(&mailbox.Frame{Image: solidTestFrame(64, 64, 10), At: time.Now()})
	second := waitDescription(t, results)
	if !second.CacheHit {
		t.Errorf("second description = %+v, want cache hit", second)
	}
	if second.Text != "a hallway" {
		t.Errorf("cached text = %q, want the original description", second.Text)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}

	if last := worker.Last(); last.Text != "a hallway" {
		t.Errorf("Last() = %+v, want the latest description", last)
	}
}

func TestWorker_ReportsServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model overloaded"})
	}))
	defer srv.Close()

	box := mailbox.New()
	cache, _ := NewCache(10)
	results := make(chan Description, 1)
	worker := NewWorker(box, NewClient(config.InferenceConfig{BaseURL: srv.URL, TimeoutSeconds: 5}), cache, func(d Description) {
		results <- d
	})
	worker.Start()
	defer worker.Stop()

	box.Publish(&mailbox.Frame{Image: solidTestFrame(32, 32, 99), At: time.Now()})

	d := waitDescription(t, results)
	if d.Error == "" {
		t.Fatalf("description = %+v, want an error", d)
	}
	if cache.Len() != 0 {
		t.Errorf("failed request was cached")
	}
}

func TestWorker_StopDrains(t *testing.T) {
	box := mailbox.New()
	cache, _ := NewCache(10)
	worker := NewWorker(box, testClient("http://127.0.0.1:0"), cache, nil)
	worker.Start()

	done := make(chan struct{})
	go func() {
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func waitDescription(t *testing.T, ch chan Description) Description {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for description")
		return Description{}
	}
}
