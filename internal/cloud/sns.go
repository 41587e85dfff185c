package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"
)

// SNSClient wraps the AWS SNS client for pump alerts
type SNSClient struct {
	svc      *sns.Client
	topicArn string
}

// NewSNSClient creates a new SNS client instance
func NewSNSClient(ctx context.Context, region, topicArn string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &SNSClient{
		svc:      sns.NewFromConfig(cfg),
		topicArn: topicArn,
	}, nil
}

// SendAlert publishes a message to the alert topic
func (c *SNSClient) SendAlert(ctx context.Context, subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	}

	result, err := c.svc.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}

	log.Info().Str("message_id", aws.ToString(result.MessageId)).Msg("alert sent")
	return nil
}

// SendBadCycleAlert reports a sample whose bad cycle count reached the
// configured threshold
func (c *SNSClient) SendBadCycleAlert(ctx context.Context, serial string, badCycles, threshold int64, at time.Time) error {
	return c.SendAlert(ctx, BadCycleSubject(serial), BadCycleMessage(serial, badCycles, threshold, at))
}

func BadCycleSubject(serial string) string {
	return fmt.Sprintf("Pump Alert: bad cycles on %s", serial)
}

func BadCycleMessage(serial string, badCycles, threshold int64, at time.Time) string {
	return fmt.Sprintf(
		"Bad Cycle Alert\n\n"+
			"Device: %s\n"+
			"Bad cycles: %d (threshold %d)\n"+
			"Time: %s\n\n"+
			"Please inspect the pump.",
		serial,
		badCycles,
		threshold,
		at.UTC().Format(time.RFC3339),
	)
}
