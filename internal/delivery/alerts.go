// internal/delivery/alerts.go
package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	awsclient "jobmatch-engine/internal/common/aws"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

// AlertPublisher is the slice of the SNS client the alerter needs.
type AlertPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

var _ AlertPublisher = (*awsclient.SNSClient)(nil)

// Alerter publishes an operational alert when a batch run's error rate
// crosses the configured threshold.
type Alerter struct {
	publisher AlertPublisher
	topicARN  string
	threshold float64
	log       logger.Logger
}

func NewAlerter(publisher AlertPublisher, topicARN string, threshold float64, log logger.Logger) *Alerter {
	return &Alerter{
		publisher: publisher,
		topicARN:  topicARN,
		threshold: threshold,
		log:       log.WithFields(map[string]interface{}{"component": "alerter"}),
	}
}

// CheckReport publishes an alert when warranted. Returns whether an alert
// went out.
func (a *Alerter) CheckReport(ctx context.Context, report *models.BatchReport) (bool, error) {
	if report.Metrics.ErrorRate < a.threshold {
		return false, nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"runId":      report.RunID,
		"errorRate":  report.Metrics.ErrorRate,
		"threshold":  a.threshold,
		"totalUsers": report.Metrics.TotalUsers,
		"failed":     report.Metrics.FailedUsers,
	})
	if err != nil {
		return false, err
	}

	_, err = a.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Subject: aws.String(fmt.Sprintf(
			"Matching batch %s error rate %.1f%%", report.RunID, report.Metrics.ErrorRate*100)),
		Message: aws.String(string(payload)),
	})
	if err != nil {
		return false, err
	}

	a.log.Warn("batch error-rate alert published", map[string]interface{}{
		"runId":     report.RunID,
		"errorRate": report.Metrics.ErrorRate,
	})
	return true, nil
}
