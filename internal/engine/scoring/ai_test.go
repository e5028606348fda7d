// internal/engine/scoring/ai_test.go
package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

func aiConfig(baseURL string) config.AIServiceConfig {
	return config.AIServiceConfig{
		Enabled:       true,
		BaseURL:       baseURL,
		APIKey:        "test-key",
		Timeout:       500,
		FallbackScore: 0,
	}
}

func TestAIScorer_DisabledReturnsFallback(t *testing.T) {
	cfg := aiConfig("http://unused")
	cfg.Enabled = false
	cfg.FallbackScore = 10

	scorer := NewAIScorer(cfg, 2, logger.NewTestLogger(t))
	score, err := scorer.Score(context.Background(), &models.JobCandidate{JobID: "j1"}, &models.UserProfile{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 10.0, score)
}

func TestAIScorer_MissingCredentialsReturnsFallback(t *testing.T) {
	cfg := aiConfig("http://unused")
	cfg.APIKey = ""

	scorer := NewAIScorer(cfg, 2, logger.NewTestLogger(t))
	score, err := scorer.Score(context.Background(), &models.JobCandidate{JobID: "j1"}, &models.UserProfile{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestAIScorer_SuccessfulCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/semantic-match", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req semanticMatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Go engineer", req.JobTitle)

		json.NewEncoder(w).Encode(semanticMatchResponse{Score: 82.5})
	}))
	defer server.Close()

	scorer := NewAIScorer(aiConfig(server.URL), 2, logger.NewTestLogger(t))
	score, err := scorer.Score(context.Background(),
		&models.JobCandidate{JobID: "j1", Title: "Go engineer"},
		&models.UserProfile{UserID: "u1", Skills: []string{"go"}})
	require.NoError(t, err)
	assert.Equal(t, 82.5, score)
}

func TestAIScorer_RetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(semanticMatchResponse{Score: 70})
	}))
	defer server.Close()

	scorer := NewAIScorer(aiConfig(server.URL), 2, logger.NewTestLogger(t))
	score, err := scorer.Score(context.Background(), &models.JobCandidate{JobID: "j1"}, &models.UserProfile{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 70.0, score)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAIScorer_RetryBudgetIsConfigurable(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := aiConfig(server.URL)
	cfg.FallbackScore = 5

	// Zero configured retries means exactly one call before the fallback.
	scorer := NewAIScorer(cfg, 0, logger.NewTestLogger(t))
	score, err := scorer.Score(context.Background(), &models.JobCandidate{JobID: "j1"}, &models.UserProfile{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 5.0, score)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	atomic.StoreInt32(&calls, 0)
	scorer = NewAIScorer(cfg, 3, logger.NewTestLogger(t))
	_, err = scorer.Score(context.Background(), &models.JobCandidate{JobID: "j1"}, &models.UserProfile{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestAIScorer_ServerErrorReturnsFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := aiConfig(server.URL)
	cfg.FallbackScore = 5

	scorer := NewAIScorer(cfg, 2, logger.NewTestLogger(t))
	score, err := scorer.Score(context.Background(), &models.JobCandidate{JobID: "j1"}, &models.UserProfile{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 5.0, score)
}

func TestAIScorer_UnreachableServiceReturnsFallback(t *testing.T) {
	cfg := aiConfig("http://127.0.0.1:1")
	cfg.FallbackScore = 0

	scorer := NewAIScorer(cfg, 2, logger.NewTestLogger(t))
	score, err := scorer.Score(context.Background(), &models.JobCandidate{JobID: "j1"}, &models.UserProfile{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestAIScorer_OutOfRangeResponseClamps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(semanticMatchResponse{Score: 250})
	}))
	defer server.Close()

	scorer := NewAIScorer(aiConfig(server.URL), 2, logger.NewTestLogger(t))
	score, err := scorer.Score(context.Background(), &models.JobCandidate{JobID: "j1"}, &models.UserProfile{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, score)
}
