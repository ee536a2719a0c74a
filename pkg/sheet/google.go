package sheet

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// URL returns the browser link of a spreadsheet.
func URL(spreadsheetID string) string {
	return "https://docs.google.com/spreadsheets/d/" + spreadsheetID
}

// GoogleSheets is a Spreadsheet backed by the Google Sheets v4 API.
type GoogleSheets struct {
	svc *sheets.Service
	id  string
}

// NewGoogleSheets opens spreadsheetID with an authorized HTTP client.
func NewGoogleSheets(ctx context.Context, client *http.Client, spreadsheetID string) (*GoogleSheets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleSheets{svc: svc, id: spreadsheetID}, nil
}

func (g *GoogleSheets) Title(ctx context.Context) (string, error) {
	ss, err := g.svc.Spreadsheets.Get(g.id).Fields("properties.title").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("open spreadsheet %s: %w", g.id, err)
	}
	if ss.Properties == nil {
		return "", nil
	}
	return ss.Properties.Title, nil
}

func (g *GoogleSheets) EnsureTab(ctx context.Context, tab string, rows, cols int) (bool, error) {
	ss, err := g.svc.Spreadsheets.Get(g.id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("open spreadsheet %s: %w", g.id, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return false, nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: tab,
					GridProperties: &sheets.GridProperties{
						RowCount:    int64(rows),
						ColumnCount: int64(cols),
					},
				},
			},
		}},
	}
	if _, err := g.svc.Spreadsheets.BatchUpdate(g.id, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("add tab %s: %w", tab, err)
	}
	return true, nil
}

func (g *GoogleSheets) Clear(ctx context.Context, tab string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(g.id, Range(tab, ""), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g *GoogleSheets) Update(ctx context.Context, rng string, values [][]any, inputOption string) error {
	vr := &sheets.ValueRange{Range: rng, Values: values}
	_, err := g.svc.Spreadsheets.Values.Update(g.id, rng, vr).
		ValueInputOption(inputOption).
		Context(ctx).
		Do()
	return err
}

func (g *GoogleSheets) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.id, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
