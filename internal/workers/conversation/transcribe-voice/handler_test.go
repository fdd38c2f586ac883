// internal/workers/conversation/transcribe-voice/handler_test.go
package transcribevoice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodexpress-workers/internal/common/logger"
)

func newTestHandler(t *testing.T, baseURL string) *Handler {
	t.Helper()
	cfg := LoadConfig()
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	return NewHandler(cfg, logger.NewTestLogger(t))
}

func TestExecute_SuccessfulTranscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://cdn.example.com/voice.ogg", req["audio_url"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"text":       "2 zinger burger 1 coke",
			"confidence": 0.91,
		})
	}))
	defer srv.Close()

	h := newTestHandler(t, srv.URL)
	out, err := h.Execute(context.Background(), &Input{AudioURL: "https://cdn.example.com/voice.ogg"})
	require.NoError(t, err)

	assert.Equal(t, "2 zinger burger 1 coke", out.Text)
	assert.InDelta(t, 0.91, out.Confidence, 1e-9)
	assert.False(t, out.LowConfidence)
}

func TestExecute_LowConfidenceFlagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"text":       "mumble",
			"confidence": 0.35,
		})
	}))
	defer srv.Close()

	h := newTestHandler(t, srv.URL)
	out, err := h.Execute(context.Background(), &Input{AudioURL: "https://cdn.example.com/voice.ogg"})
	require.NoError(t, err)

	assert.True(t, out.LowConfidence)
}

func TestExecute_MissingAudioURL(t *testing.T) {
	h := newTestHandler(t, "http://unused")

	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
}

func TestExecute_RetryResendsFullBody(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		// The retried request must carry the payload again, not the
		// drained body of the first attempt.
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://cdn.example.com/voice.ogg", req["audio_url"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"text":       "1 espresso",
			"confidence": 0.88,
		})
	}))
	defer srv.Close()

	h := newTestHandler(t, srv.URL)
	out, err := h.Execute(context.Background(), &Input{AudioURL: "https://cdn.example.com/voice.ogg"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, "1 espresso", out.Text)
}

func TestExecute_ServerErrorAfterRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := newTestHandler(t, srv.URL)
	_, err := h.Execute(context.Background(), &Input{AudioURL: "https://cdn.example.com/voice.ogg"})
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
	assert.Equal(t, h.config.MaxRetries+1, calls)
}

func TestExecute_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	h := newTestHandler(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := h.Execute(ctx, &Input{AudioURL: "https://cdn.example.com/voice.ogg"})
	assert.ErrorIs(t, err, ErrTranscriptionTimeout)
}
