// AngelaMos | 2026
// sqs.go

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSAPI is the slice of the SQS client the sender needs.
type SQSAPI interface {
	SendMessage(
		ctx context.Context,
		params *sqs.SendMessageInput,
		optFns ...func(*sqs.Options),
	) (*sqs.SendMessageOutput, error)
}

// SQSSender enqueues messages as JSON for the notification worker, which
// owns delivery and retries.
type SQSSender struct {
	client   SQSAPI
	queueURL string
	from     string
}

func NewSQSSender(client SQSAPI, queueURL, from string) *SQSSender {
	return &SQSSender{client: client, queueURL: queueURL, from: from}
}

func (s *SQSSender) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = s.from
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"template": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.Template),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}

	return nil
}
