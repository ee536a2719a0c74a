package pcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
)

const individualRankingPath = "rankings/me/individual"

// ErrNoSeasonPoints means a rider page carried no usable points-per-season row.
var ErrNoSeasonPoints = errors.New("no season points")

// IndividualRanking returns rider URL -> ranking points from the men's
// individual ranking, reading up to the configured number of pages.
func (c *Client) IndividualRanking(ctx context.Context) (map[string]float64, error) {
	points := make(map[string]float64)

	for page := 0; page < c.rankingPages; page++ {
		var query map[string]string
		if page > 0 {
			query = map[string]string{"offset": strconv.Itoa(page * rankingPageSize)}
		}

		doc, err := c.document(ctx, individualRankingPath, query)
		if err != nil {
			return nil, fmt.Errorf("individual ranking page %d: %w", page+1, err)
		}

		rows := parseRanking(doc, points)
		slog.DebugContext(ctx, "ranking page parsed", "page", page+1, "rows", rows)
		if rows == 0 {
			break
		}
	}
	return points, nil
}

// parseRanking adds every rider row of the ranking table to into and returns
// the number of rows read.
func parseRanking(doc *goquery.Document, into map[string]float64) int {
	table, head := findTable(doc, "rider", "points")
	if table == nil {
		return 0
	}
	riderIdx := columnIndex(head, "rider")
	pointsIdx := columnIndex(head, "points")

	n := 0
	dataRows(table, func(cells *goquery.Selection) {
		if riderIdx >= cells.Length() || pointsIdx >= cells.Length() {
			return
		}
		href, ok := cells.Eq(riderIdx).Find(riderLinks).First().Attr("href")
		if !ok {
			return
		}
		pts, ok := parseNumber(textOf(cells.Eq(pointsIdx)))
		if !ok {
			return
		}
		url := rider.RelativeURL(href)
		if url == "" {
			return
		}
		if _, seen := into[url]; !seen {
			into[url] = pts
		}
		n++
	})
	return n
}

// SeasonPoints returns the rider's points for the current season, or for the
// latest season listed when the current one is absent.
func (c *Client) SeasonPoints(ctx context.Context, riderURL string) (float64, error) {
	riderURL = rider.RelativeURL(riderURL)
	if riderURL == "" {
		return 0, fmt.Errorf("%w: empty rider url", ErrNoSeasonPoints)
	}

	doc, err := c.document(ctx, riderURL, nil)
	if err != nil {
		return 0, fmt.Errorf("season points %s: %w", riderURL, err)
	}

	pts, err := pickSeasonPoints(parseSeasons(doc), c.Now().Year())
	if err != nil {
		return 0, fmt.Errorf("season points %s: %w", riderURL, err)
	}
	return pts, nil
}

type seasonRow struct {
	season    int
	points    float64
	hasPoints bool
}

func parseSeasons(doc *goquery.Document) []seasonRow {
	table, head := findTable(doc, "season", "points")
	if table == nil {
		return nil
	}
	seasonIdx := columnIndex(head, "season")
	pointsIdx := columnIndex(head, "points")

	var rows []seasonRow
	dataRows(table, func(cells *goquery.Selection) {
		if seasonIdx >= cells.Length() {
			return
		}
		season, err := strconv.Atoi(textOf(cells.Eq(seasonIdx)))
		if err != nil {
			return
		}
		row := seasonRow{season: season}
		if pointsIdx < cells.Length() {
			row.points, row.hasPoints = parseNumber(textOf(cells.Eq(pointsIdx)))
		}
		rows = append(rows, row)
	})
	return rows
}

func pickSeasonPoints(rows []seasonRow, year int) (float64, error) {
	if len(rows) == 0 {
		return 0, ErrNoSeasonPoints
	}

	chosen := -1
	for i, r := range rows {
		if r.season == year {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		chosen = 0
		for i, r := range rows {
			if r.season > rows[chosen].season {
				chosen = i
			}
		}
	}

	if !rows[chosen].hasPoints {
		return 0, ErrNoSeasonPoints
	}
	return rows[chosen].points, nil
}
