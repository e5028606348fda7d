// internal/engine/scoring/ai.go
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/httpclient"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/common/metrics"
	"jobmatch-engine/internal/models"
)

// semanticMatchRequest is the wire request to the semantic match service.
type semanticMatchRequest struct {
	JobTitle       string   `json:"job_title"`
	JobDescription string   `json:"job_description"`
	UserSkills     []string `json:"user_skills"`
	UserKeywords   []string `json:"user_keywords"`
}

type semanticMatchResponse struct {
	Score float64 `json:"score"`
}

// AIScorer calls the external semantic match service. Every failure mode,
// disabled service, missing credentials, open breaker, timeout, bad payload,
// degrades to the configured fallback score. The scorer never fails a user.
type AIScorer struct {
	cfg        config.AIServiceConfig
	client     *httpclient.Client
	breaker    *gobreaker.CircuitBreaker[float64]
	maxRetries int
	log        logger.Logger
}

// NewAIScorer wires the semantic match client. retryAttempts is the number of
// retries after the first call, from batch.retry_attempts.
func NewAIScorer(cfg config.AIServiceConfig, retryAttempts int, log logger.Logger) *AIScorer {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if retryAttempts < 0 {
		retryAttempts = 0
	}

	breaker := gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:    "semantic-match",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Semantic match breaker state change", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &AIScorer{
		cfg:        cfg,
		client:     httpclient.NewClient(timeout),
		breaker:    breaker,
		maxRetries: retryAttempts,
		log:        log,
	}
}

func (s *AIScorer) Name() string {
	return models.ComponentAI
}

func (s *AIScorer) Score(ctx context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error) {
	if !s.cfg.Enabled {
		return s.cfg.FallbackScore, nil
	}
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return s.fallback("missing_credentials", nil), nil
	}

	score, err := s.breaker.Execute(func() (float64, error) {
		return s.callWithRetry(ctx, job, user)
	})
	if err != nil {
		reason := "call_failed"
		switch {
		case err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests:
			reason = "breaker_open"
		case ctx.Err() != nil:
			reason = "timeout"
		}
		return s.fallback(reason, err), nil
	}
	return models.Clamp(score), nil
}

// callWithRetry retries transient failures with exponential backoff. The
// per-attempt timeout lives in the HTTP client.
func (s *AIScorer) callWithRetry(ctx context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-ctx.Done():
				return 0, errors.NewAIServiceTimeoutError()
			case <-time.After(backoff):
			}
		}

		score, err := s.call(ctx, job, user)
		if err == nil {
			return score, nil
		}
		lastErr = err
		if !errors.IsRetryable(err) {
			break
		}
	}
	return 0, lastErr
}

func (s *AIScorer) call(ctx context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error) {
	payload, err := json.Marshal(semanticMatchRequest{
		JobTitle:       job.Title,
		JobDescription: job.Description,
		UserSkills:     user.Skills,
		UserKeywords:   user.Keywords,
	})
	if err != nil {
		return 0, errors.NewAIServiceUnavailableError(err)
	}

	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/v1/semantic-match"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, errors.NewAIServiceUnavailableError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, errors.NewAIServiceTimeoutError()
		}
		return 0, errors.NewAIServiceUnavailableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return 0, errors.NewAIServiceUnavailableError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, errors.NewAIServiceUnavailableError(
			fmt.Errorf("semantic match service returned status %d", resp.StatusCode))
	}

	var parsed semanticMatchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, errors.NewAIServiceUnavailableError(err)
	}
	return parsed.Score, nil
}

func (s *AIScorer) fallback(reason string, err error) float64 {
	metrics.AIFallbacks.WithLabelValues(reason).Inc()
	fields := map[string]interface{}{"reason": reason, "fallback_score": s.cfg.FallbackScore}
	if err != nil {
		fields["error"] = err.Error()
	}
	s.log.Warn("Semantic match degraded to fallback score", fields)
	return s.cfg.FallbackScore
}
