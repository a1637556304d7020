// Package classifier wraps the Anthropic API to score emails as
// receipts and extract transaction details.
package classifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aheckler/fastmail2ynab/internal/types"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

// Model is the Claude model used for classification.
const Model = "claude-sonnet-4-20250514"

const maxTokens = 1024

// Classifier scores an email 1-10 as a financial transaction and
// extracts structured details.
type Classifier struct {
	client anthropic.Client
	log    zerolog.Logger
}

// New creates a classifier backed by the Anthropic API. Requests carry
// a 30s timeout.
func New(apiKey string, log zerolog.Logger) *Classifier {
	return &Classifier{
		client: anthropic.NewClient(
			option.WithAPIKey(apiKey),
			option.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		),
		log: log,
	}
}

// Classify asks the model to judge one email. An API failure returns an
// error (the caller skips the email and retries next run); a response
// that cannot be parsed returns the score-0 sentinel instead, so one
// bad response never aborts the batch.
func (c *Classifier) Classify(ctx context.Context, email types.Email, payeeNames []string, accounts []types.Account) (*types.Classification, error) {
	prompt := BuildPrompt(email, payeeNames, accounts)

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     Model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", email.ID, err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	c.log.Debug().Str("email_id", email.ID).Int("response_len", len(text)).Msg("classifier response")

	return Parse(text), nil
}
