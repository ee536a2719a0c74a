package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *resty.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{client: newHTTPClient(), webhookURL: webhookURL}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	var top []string
	for _, r := range n.Top {
		top = append(top, fmt.Sprintf("• **%s** (%s) %.0f", r.Rider, r.Team, r.Value))
	}

	embed := map[string]any{
		"title":       "🚴 " + n.Title,
		"description": strings.TrimSpace(n.Body + "\n\n" + strings.Join(top, "\n")),
		"color":       0xE30613,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	if n.URL != "" {
		embed["url"] = n.URL
	}

	if err := post(ctx, d.client, d.webhookURL, map[string]any{"embeds": []map[string]any{embed}}, nil); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}
