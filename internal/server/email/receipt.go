// Package email sends payment receipt notifications through Resend,
// falling back to a logged mock send when no API key is configured.
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/remarkly/backend/internal/logging"
	"github.com/remarkly/backend/internal/server/config"
)

type Sender struct {
	apiKey string
	from   string
	logger logging.Logger
}

func NewSender(cfg *config.Config, logger logging.Logger) *Sender {
	from := cfg.EmailFrom
	if from == "" {
		from = "Remarkly <receipts@remarkly.app>"
	}
	return &Sender{
		apiKey: cfg.ResendAPIKey,
		from:   from,
		logger: logger.With("module", "email"),
	}
}

// SendReceipt emails a top-up confirmation. Delivery is best-effort; the
// caller treats failures as non-fatal.
func (s *Sender) SendReceipt(ctx context.Context, toEmail, username string, credits int64, orderID string) error {

	if toEmail == "" {
		return nil
	}

	if s.apiKey == "" {
		s.logger.Info(ctx, "RESEND_API_KEY is missing, falling back to mock receipt",
			"to", toEmail, "username", username, "credits", credits, "order_id", orderID)
		return nil
	}

	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your payment was received and <strong>%d credits</strong> were added to your account.</p><p>Order reference: %s</p>",
		username, credits, orderID)

	client := resend.NewClient(s.apiKey)
	_, err := client.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: fmt.Sprintf("%d credits added to your account", credits),
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("error sending receipt: %w", err)
	}

	s.logger.Info(ctx, "receipt sent", "to", toEmail, "order_id", orderID)
	return nil
}
