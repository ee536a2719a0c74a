package alert

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Slack sends notifications via Slack incoming webhook.
type Slack struct {
	client     *resty.Client
	webhookURL string
}

// NewSlack creates a new Slack notifier.
func NewSlack(webhookURL string) *Slack {
	return &Slack{client: newHTTPClient(), webhookURL: webhookURL}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, n *Notification) error {
	text := n.Body
	if n.URL != "" {
		text += fmt.Sprintf("\n<%s|Open spreadsheet>", n.URL)
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{"type": "plain_text", "text": "🚴 " + n.Title},
		},
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": text},
		},
	}

	if len(n.Top) > 0 {
		var lines []string
		for i, r := range n.Top {
			lines = append(lines, fmt.Sprintf("%d. *%s* (%s) %.0f", i+1, r.Rider, r.Team, r.Value))
		}
		blocks = append(blocks, map[string]any{
			"type":     "context",
			"elements": []map[string]any{{"type": "mrkdwn", "text": strings.Join(lines, "\n")}},
		})
	}

	if err := post(ctx, s.client, s.webhookURL, map[string]any{"blocks": blocks}, nil); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}
