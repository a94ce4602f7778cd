package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProgress collects every reported fraction.
type recordingProgress struct {
	mu        sync.Mutex
	fractions []float64
}

func (r *recordingProgress) Set(fraction float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fractions = append(r.fractions, fraction)
}

func (r *recordingProgress) snapshot() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.fractions))
	copy(out, r.fractions)
	return out
}

// resettingProgress additionally counts Reset calls.
type resettingProgress struct {
	recordingProgress
	resetMu sync.Mutex
	resets  int
}

func (r *resettingProgress) Reset() {
	r.resetMu.Lock()
	r.resets++
	r.resetMu.Unlock()
}

func (r *resettingProgress) resetCount() int {
	r.resetMu.Lock()
	defer r.resetMu.Unlock()
	return r.resets
}

func testPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Backoff: 0}
}

func TestFetchSuccess(t *testing.T) {
	payload := make([]byte, 200*1024)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "addon.zip")
	prog := &recordingProgress{}

	d := New(server.Client(), WithRetryPolicy(testPolicy(3)))
	err := d.Fetch(context.Background(), server.URL, dest, prog)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	fractions := prog.snapshot()
	require.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1],
			"progress must never go backwards")
	}
}

func TestFetchShortBodyIsCorrupt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write(make([]byte, 500))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "addon.zip")
	d := New(server.Client(), WithRetryPolicy(testPolicy(2)))

	err := d.Fetch(context.Background(), server.URL, dest, nil)
	require.Error(t, err)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KindCorrupt, derr.Kind)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "partial download must not be left behind")
}

func TestFetchNotFoundIsFatal(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.NotFound(w, r)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "addon.zip")
	d := New(server.Client(), WithRetryPolicy(testPolicy(3)))

	err := d.Fetch(context.Background(), server.URL, dest, nil)
	require.Error(t, err)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KindHTTP, derr.Kind)
	assert.Equal(t, http.StatusNotFound, derr.Status)
	assert.Equal(t, 1, hits, "4xx must not be retried")
}

func TestFetchServerErrorRetries(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "addon.zip")
	d := New(server.Client(), WithRetryPolicy(testPolicy(3)))

	err := d.Fetch(context.Background(), server.URL, dest, nil)
	require.Error(t, err)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KindHTTP, derr.Kind)
	assert.Equal(t, http.StatusInternalServerError, derr.Status)
	assert.Equal(t, 3, hits, "5xx is retried up to the attempt budget")
}

func TestFetchRecoversAfterTransientFailure(t *testing.T) {
	payload := []byte("addon contents")
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "addon.zip")
	d := New(server.Client(), WithRetryPolicy(testPolicy(3)))

	err := d.Fetch(context.Background(), server.URL, dest, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetchResetsProgressBetweenAttempts(t *testing.T) {
	payload := []byte("addon contents")
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			// Short body: the attempt reports real progress, then fails.
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)*2))
			w.Write(payload)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "addon.zip")
	prog := &resettingProgress{}

	d := New(server.Client(), WithRetryPolicy(testPolicy(3)))
	err := d.Fetch(context.Background(), server.URL, dest, prog)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)

	assert.Equal(t, 2, prog.resetCount(), "every attempt rewinds the fraction")

	fractions := prog.snapshot()
	require.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
}

func TestFetchConnectionRefusedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	dest := filepath.Join(t.TempDir(), "addon.zip")
	d := New(&http.Client{}, WithRetryPolicy(testPolicy(2)))

	err := d.Fetch(context.Background(), url, dest, nil)
	require.Error(t, err)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KindNetwork, derr.Kind)
	assert.Equal(t, 2, derr.Attempt)
}

func TestFetchUnknownLengthStillCompletes(t *testing.T) {
	payload := []byte("streamed without a declared length")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write(payload[:10])
		flusher.Flush()
		w.Write(payload[10:])
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "addon.zip")
	prog := &recordingProgress{}
	d := New(server.Client(), WithRetryPolicy(testPolicy(1)))

	err := d.Fetch(context.Background(), server.URL, dest, prog)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	fractions := prog.snapshot()
	require.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
}

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       Error
		retryable bool
	}{
		{"network", Error{Kind: KindNetwork}, true},
		{"corrupt", Error{Kind: KindCorrupt}, true},
		{"server error", Error{Kind: KindHTTP, Status: 502}, true},
		{"not found", Error{Kind: KindHTTP, Status: 404}, false},
		{"forbidden", Error{Kind: KindHTTP, Status: 403}, false},
		{"io", Error{Kind: KindIO}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.Retryable())
		})
	}
}

func TestFetchCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest := filepath.Join(t.TempDir(), "addon.zip")
	d := New(server.Client(), WithRetryPolicy(testPolicy(3)))

	err := d.Fetch(ctx, server.URL, dest, nil)
	require.Error(t, err)
}
