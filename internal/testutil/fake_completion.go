package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// FakeCompletion is an in-process stand-in for the completion API.
type FakeCompletion struct {
	server *httptest.Server
	calls  atomic.Int32

	mu     sync.Mutex
	status int
	text   string
}

func NewFakeCompletion(t *testing.T) *FakeCompletion {
	t.Helper()

	f := &FakeCompletion{status: http.StatusOK, text: "generated text"}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *FakeCompletion) URL() string {
	return f.server.URL
}

// Calls reports how many completion requests were received.
func (f *FakeCompletion) Calls() int {
	return int(f.calls.Load())
}

// Respond makes later requests answer with text.
func (f *FakeCompletion) Respond(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = http.StatusOK
	f.text = text
}

// Fail makes later requests answer with the given status.
func (f *FakeCompletion) Fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *FakeCompletion) serve(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	f.mu.Lock()
	status, text := f.status, f.text
	f.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, `{"error":{"message":"fake failure"}}`, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"model": "text-davinci-002",
		"choices": []map[string]interface{}{
			{"text": text, "finish_reason": "length"},
		},
	})
}
