// Package value computes rider values from ProCyclingStats ranking points.
//
// Points are resolved from the individual ranking, falling back to the rider's
// own season total. They are normalised between the 10th and 99th percentile of
// the startlist, curved, scaled onto 50..500 and adjusted by a role bonus.
package value

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
)

// RankingSource returns ranking points keyed by relative rider URL.
type RankingSource interface {
	IndividualRanking(ctx context.Context) (map[string]float64, error)
}

// SeasonSource returns a single rider's points for the running season.
type SeasonSource interface {
	SeasonPoints(ctx context.Context, riderURL string) (float64, error)
}

// Result is the outcome of a valuation run.
type Result struct {
	Riders []rider.Record
	Points []float64 // resolved points, parallel to Riders
	P10    float64
	P99    float64

	Ranked    int // resolved through the ranking table
	Fallbacks int // resolved through the rider page
	Missing   int // no points found, counted as 0
}

// Valuator assigns values to collected riders.
type Valuator struct {
	ranking RankingSource
	season  SeasonSource
	roles   *Roles
}

// New creates a valuator. A nil roles matcher uses DefaultRoleBonuses.
func New(ranking RankingSource, season SeasonSource, roles *Roles) *Valuator {
	if roles == nil {
		roles = NewRoles(nil)
	}
	return &Valuator{ranking: ranking, season: season, roles: roles}
}

// Valuate resolves points for every record and returns the records with Value
// populated. Only a failing ranking fetch is fatal.
func (v *Valuator) Valuate(ctx context.Context, records []rider.Record) (*Result, error) {
	res := &Result{}
	if len(records) == 0 {
		return res, nil
	}

	ranking, err := v.ranking.IndividualRanking(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ranking: %w", err)
	}
	slog.InfoContext(ctx, "ranking loaded", "riders", len(ranking))

	points := make([]float64, len(records))
	var missing []int

	for i, r := range records {
		url := rider.RelativeURL(r.URL)
		if url == "" {
			res.Missing++
			continue
		}
		if pts, ok := ranking[url]; ok {
			points[i] = pts
			res.Ranked++
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) > 0 {
		slog.InfoContext(ctx, "falling back to rider pages", "riders", len(missing))
	}
	for _, i := range missing {
		url := rider.RelativeURL(records[i].URL)
		pts, err := v.season.SeasonPoints(ctx, url)
		if err != nil {
			slog.DebugContext(ctx, "season points unavailable", "rider", url, "err", err)
			res.Missing++
			continue
		}
		points[i] = pts
		res.Fallbacks++
	}

	res.P10, res.P99 = Bounds(points)
	res.Points = points
	res.Riders = make([]rider.Record, len(records))
	for i, r := range records {
		res.Riders[i] = rider.Record{
			Rider:      r.Rider,
			Team:       r.Team,
			URL:        r.URL,
			Role:       r.Role,
			Value:      Score(points[i], res.P10, res.P99, v.roles.Multiplier(r.Role)),
			Adj:        r.Adj,
			FinalValue: 0,
		}
	}
	return res, nil
}
