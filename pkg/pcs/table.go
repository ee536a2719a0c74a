package pcs

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func textOf(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// headerTexts returns the lowercased header cells of a table.
func headerTexts(table *goquery.Selection) []string {
	var head []string
	cells := table.Find("thead th")
	if cells.Length() == 0 {
		cells = table.Find("tr").First().Find("th")
	}
	cells.Each(func(_ int, th *goquery.Selection) {
		head = append(head, strings.ToLower(textOf(th)))
	})
	return head
}

// columnIndex finds the first header containing want, or -1.
func columnIndex(head []string, want string) int {
	for i, h := range head {
		if strings.Contains(h, want) {
			return i
		}
	}
	return -1
}

// findTable returns the first table whose header mentions every wanted column.
func findTable(doc *goquery.Document, wanted ...string) (*goquery.Selection, []string) {
	var (
		found *goquery.Selection
		head  []string
	)
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		h := headerTexts(t)
		for _, w := range wanted {
			if columnIndex(h, w) < 0 {
				return true
			}
		}
		found, head = t, h
		return false
	})
	return found, head
}

// dataRows yields the rows of a table that carry td cells.
func dataRows(table *goquery.Selection, fn func(cells *goquery.Selection)) {
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Children().Filter("td")
		if cells.Length() == 0 {
			return
		}
		fn(cells)
	})
}

// parseNumber reads "1,234", "1 234" or "812.5" style cells.
func parseNumber(s string) (float64, bool) {
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
