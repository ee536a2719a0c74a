package collect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/pcs"
	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
)

// StartlistSource lists the riders entered in a race.
type StartlistSource interface {
	Startlist(ctx context.Context, race string) ([]pcs.StartlistEntry, error)
}

// Collector turns a provider startlist into fresh rider records.
type Collector struct {
	source  StartlistSource
	baseURL string
}

// New creates a collector that qualifies rider URLs against baseURL.
func New(source StartlistSource, baseURL string) *Collector {
	if baseURL == "" {
		baseURL = rider.DefaultBaseURL
	}
	return &Collector{source: source, baseURL: baseURL}
}

// Collect fetches the startlist of race and returns one record per
// (name, team) pair, in first-seen order.
func (c *Collector) Collect(ctx context.Context, race string) ([]rider.Record, error) {
	entries, err := c.source.Startlist(ctx, race)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", race, err)
	}

	records := make([]rider.Record, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	dupes := 0

	for _, e := range entries {
		rec := rider.Record{
			Rider: strings.TrimSpace(e.Name),
			Team:  strings.TrimSpace(e.Team),
			URL:   rider.AbsoluteURL(c.baseURL, e.RiderURL),
		}
		if rec.Rider == "" {
			continue
		}
		if seen[rec.Key()] {
			dupes++
			continue
		}
		seen[rec.Key()] = true
		records = append(records, rec)
	}

	slog.DebugContext(ctx, "startlist collected",
		"race", race, "entries", len(entries), "riders", len(records), "duplicates", dupes)
	return records, nil
}
