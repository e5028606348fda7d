// internal/delivery/dispatcher.go
package delivery

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	awsclient "jobmatch-engine/internal/common/aws"
	"jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

// EmailSender is the slice of the SES client the dispatcher needs.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

var _ EmailSender = (*awsclient.SESClient)(nil)

// Dispatcher renders each digest and sends it through SES. A send failure is
// reported per user and never aborts the batch.
type Dispatcher struct {
	sender    EmailSender
	renderer  Renderer
	fromEmail string
	log       logger.Logger
}

func NewDispatcher(sender EmailSender, renderer Renderer, fromEmail string, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		renderer:  renderer,
		fromEmail: fromEmail,
		log:       log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
}

// Dispatch sends one user's digest to the given address.
func (d *Dispatcher) Dispatch(ctx context.Context, result *models.MatchingResult, toEmail string) error {
	subject, body, err := d.renderer.Render(result)
	if err != nil {
		return errors.NewDispatchFailedError(result.UserID, err)
	}

	_, err = d.sender.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(d.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return errors.NewDispatchFailedError(result.UserID, err)
	}

	d.log.Debug("digest dispatched", map[string]interface{}{
		"userId": result.UserID,
		"items":  result.TotalCount,
	})
	return nil
}
