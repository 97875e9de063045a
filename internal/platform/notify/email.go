package notify

import (
	"context"
	"fmt"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Notifier delivers lifecycle notifications to customers. A log-only
// implementation stands in when SES is not configured.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SESNotifier sends email through AWS SES v2.
type SESNotifier struct {
	client *sesv2.Client
	sender string
}

func NewSESNotifier(ctx context.Context, region, sender string) (*SESNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("notify.NewSESNotifier: load AWS config: %w", err)
	}
	return &SESNotifier{client: sesv2.NewFromConfig(cfg), sender: sender}, nil
}

func (n *SESNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &n.sender,
		Destination:      &types.Destination{ToAddresses: []string{recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body:    &types.Body{Text: &types.Content{Data: &body}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify.Send: %w", err)
	}
	return nil
}

// LogNotifier writes notifications to the process log. Used in development
// and as the fallback when no email sender is configured.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	log.Printf("notify %s: %s: %s", recipient, subject, body)
	return nil
}
