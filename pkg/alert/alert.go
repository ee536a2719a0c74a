// Package alert announces published startlists on chat and webhook
// destinations.
package alert

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
)

// topRiders is how many riders a notification highlights.
const topRiders = 5

// Notification is the data sent to alert destinations.
type Notification struct {
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	URL    string         `json:"url"`
	Race   string         `json:"race"`
	Tab    string         `json:"tab"`
	Riders int            `json:"riders"`
	Top    []rider.Record `json:"top"`
}

// NewPublishNotification summarises a publish: the rider count, where it went
// and the most valuable riders.
func NewPublishNotification(race, tab, sheetURL string, records []rider.Record) *Notification {
	return &Notification{
		Title:  fmt.Sprintf("Startlist published: %s", race),
		Body:   fmt.Sprintf("%d riders written to tab %q", len(records), tab),
		URL:    sheetURL,
		Race:   race,
		Tab:    tab,
		Riders: len(records),
		Top:    TopByValue(records, topRiders),
	}
}

// TopByValue returns up to n records with the highest value, ties keeping
// startlist order.
func TopByValue(records []rider.Record, n int) []rider.Record {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b rider.Record) int {
		return cmp.Compare(b.Value, a.Value)
	})
	return sorted[:min(n, len(sorted))]
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func newHTTPClient() *resty.Client {
	return resty.New().
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "fantasy-guardianes/1.0")
}

// post sends body and treats any non-2xx answer as a failure.
func post(ctx context.Context, client *resty.Client, url string, body any, headers map[string]string) error {
	resp, err := client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Post(url)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("status %d", resp.StatusCode())
	}
	return nil
}
