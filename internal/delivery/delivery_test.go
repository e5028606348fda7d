// internal/delivery/delivery_test.go
package delivery

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

type fakeSender struct {
	sent []*ses.SendEmailInput
	err  error
}

func (f *fakeSender) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, input)
	return &ses.SendEmailOutput{}, nil
}

type fakePublisher struct {
	published []*sns.PublishInput
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.published = append(f.published, input)
	return &sns.PublishOutput{}, nil
}

func digestResult() *models.MatchingResult {
	return &models.MatchingResult{
		UserID:      "u1",
		GeneratedAt: time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC),
		Sections: map[models.SectionName][]models.ScoredCandidate{
			models.SectionTop5: {
				{Job: models.JobCandidate{JobID: "job-1", Title: "Go engineer"}, Scores: models.ScoreComponents{Total: 88}},
			},
			models.SectionHighIncome: {
				{Job: models.JobCandidate{JobID: "job-2", Title: "Platform lead"}, Scores: models.ScoreComponents{Total: 75}},
			},
		},
		TotalCount: 2,
	}
}

func TestTextRenderer_SectionsInFixedOrder(t *testing.T) {
	subject, body, err := TextRenderer{}.Render(digestResult())
	require.NoError(t, err)

	assert.Contains(t, subject, "Aug 31")
	assert.Contains(t, body, "Top Matches")
	assert.Contains(t, body, "Go engineer")
	assert.Contains(t, body, "High Income")
	assert.Less(t,
		// Top matches precede high income in the rendered body.
		strings.Index(body, "Top Matches"), strings.Index(body, "High Income"))
	assert.NotContains(t, body, "Editor's Picks")
}

func TestTextRenderer_EmptyResultErrors(t *testing.T) {
	_, _, err := TextRenderer{}.Render(&models.MatchingResult{UserID: "u1"})
	assert.Error(t, err)
}

func TestDispatcher_SendsDigest(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, TextRenderer{}, "digest@example.com", logger.NewTestLogger(t))

	require.NoError(t, d.Dispatch(context.Background(), digestResult(), "u1@example.com"))
	require.Len(t, sender.sent, 1)

	input := sender.sent[0]
	assert.Equal(t, "digest@example.com", *input.Source)
	assert.Equal(t, []string{"u1@example.com"}, input.Destination.ToAddresses)
	assert.Contains(t, *input.Message.Body.Text.Data, "Go engineer")
}

func TestDispatcher_SendFailureWrapped(t *testing.T) {
	d := NewDispatcher(&fakeSender{err: assert.AnError}, TextRenderer{}, "digest@example.com", logger.NewTestLogger(t))

	err := d.Dispatch(context.Background(), digestResult(), "u1@example.com")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDispatchFailed, errors.AsStandard(err).Code)
}

func TestAlerter_PublishesAboveThreshold(t *testing.T) {
	publisher := &fakePublisher{}
	a := NewAlerter(publisher, "arn:aws:sns:ap-northeast-1:000000000000:alerts", 0.05, logger.NewTestLogger(t))

	report := &models.BatchReport{
		RunID:   "run-1",
		Metrics: models.ProcessingMetrics{TotalUsers: 100, FailedUsers: 10, ErrorRate: 0.10},
	}

	fired, err := a.CheckReport(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, fired)
	require.Len(t, publisher.published, 1)
	assert.Contains(t, *publisher.published[0].Message, "run-1")
}

func TestAlerter_QuietBelowThreshold(t *testing.T) {
	publisher := &fakePublisher{}
	a := NewAlerter(publisher, "arn:alerts", 0.05, logger.NewTestLogger(t))

	report := &models.BatchReport{
		RunID:   "run-2",
		Metrics: models.ProcessingMetrics{TotalUsers: 100, FailedUsers: 1, ErrorRate: 0.01},
	}

	fired, err := a.CheckReport(context.Background(), report)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Empty(t, publisher.published)
}
