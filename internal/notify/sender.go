// AngelaMos | 2026
// sender.go

package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/carterperez-dev/storefront/internal/config"
)

// Message is one transactional email.
type Message struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Text     string `json:"text"`
	HTML     string `json:"html"`
	Template string `json:"template"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender picks the driver named in cfg.Driver.
func NewSender(
	cfg config.EmailConfig,
	awsCfg aws.Config,
	logger *slog.Logger,
) (Sender, error) {
	switch cfg.Driver {
	case "log":
		return NewLogSender(cfg.From, logger), nil
	case "sqs":
		return NewSQSSender(sqs.NewFromConfig(awsCfg), cfg.QueueURL, cfg.From), nil
	default:
		return nil, fmt.Errorf("unknown email driver %q", cfg.Driver)
	}
}

// LogSender writes messages to the application log. It is the development
// driver; reset links show up in the server output.
type LogSender struct {
	from   string
	logger *slog.Logger
}

func NewLogSender(from string, logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{from: from, logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = s.from
	}

	s.logger.Info("email",
		"template", msg.Template,
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)

	return nil
}
