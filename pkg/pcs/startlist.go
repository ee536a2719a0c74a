package pcs

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
)

// StartlistEntry is one rider as listed on a race startlist page.
type StartlistEntry struct {
	Name     string
	Team     string
	RiderURL string // relative, e.g. "rider/tadej-pogacar"
}

const riderLinks = `a[href^="rider/"], a[href^="/rider/"], a[href*="procyclingstats.com/rider/"]`

// Startlist fetches the startlist of a race, e.g. "race/vuelta-a-espana/2024/startlist".
// A bare race slug without the trailing "/startlist" is accepted too.
func (c *Client) Startlist(ctx context.Context, race string) ([]StartlistEntry, error) {
	path := strings.Trim(strings.TrimSpace(race), "/")
	if path == "" {
		return nil, fmt.Errorf("startlist: empty race identifier")
	}
	if !strings.HasSuffix(path, "/startlist") {
		path += "/startlist"
	}

	doc, err := c.document(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("startlist %s: %w", path, err)
	}
	return parseStartlist(doc), nil
}

func parseStartlist(doc *goquery.Document) []StartlistEntry {
	var entries []StartlistEntry

	doc.Find("ul.startlist_v4 > li").Each(func(_ int, block *goquery.Selection) {
		team := textOf(block.Find("a.team").First())
		block.Find(riderLinks).Each(func(_ int, a *goquery.Selection) {
			entries = append(entries, entryFromAnchor(a, team))
		})
	})
	if len(entries) > 0 {
		return entries
	}

	// Older layouts: no team blocks, riders listed inside a table or plain list.
	doc.Find(riderLinks).Each(func(_ int, a *goquery.Selection) {
		team := ""
		if row := a.Closest("tr"); row.Length() > 0 {
			team = textOf(row.Find(`a[href*="team/"]`).First())
		}
		entries = append(entries, entryFromAnchor(a, team))
	})
	return entries
}

func entryFromAnchor(a *goquery.Selection, team string) StartlistEntry {
	href, _ := a.Attr("href")
	return StartlistEntry{
		Name:     textOf(a),
		Team:     team,
		RiderURL: rider.RelativeURL(href),
	}
}
