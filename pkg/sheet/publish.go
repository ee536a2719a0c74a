package sheet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
)

// Value input options understood by the Sheets API.
const (
	InputRaw         = "RAW"
	InputUserEntered = "USER_ENTERED"
)

// Size of a freshly created tab.
const (
	DefaultTabRows = 2000
	DefaultTabCols = 10
)

// Header is the fixed first row of the published tab.
var Header = []any{"Rider", "Team", "PCS_Rider_URL", "Role", "Value", "Adj", "FinalValue"}

// Spreadsheet is the slice of a spreadsheet service the publisher relies on.
type Spreadsheet interface {
	Title(ctx context.Context) (string, error)
	EnsureTab(ctx context.Context, tab string, rows, cols int) (created bool, err error)
	Clear(ctx context.Context, tab string) error
	Update(ctx context.Context, rng string, values [][]any, inputOption string) error
	Get(ctx context.Context, rng string) ([][]any, error)
}

// Report summarises a publish.
type Report struct {
	Tab     string
	Created bool
	Rows    int // header included
}

// Publisher overwrites one tab with a rider list.
type Publisher struct {
	sheet Spreadsheet
	tab   string
}

// NewPublisher creates a publisher writing to tab.
func NewPublisher(s Spreadsheet, tab string) *Publisher {
	if tab == "" {
		tab = "Startlist"
	}
	return &Publisher{sheet: s, tab: tab}
}

// Tab returns the target tab name.
func (p *Publisher) Tab() string { return p.tab }

// Publish clears the tab and writes the header, the literal columns A-F and a
// FinalValue formula (=E+F) per row in column G.
func (p *Publisher) Publish(ctx context.Context, records []rider.Record) (*Report, error) {
	rows := max(DefaultTabRows, len(records)+1)
	created, err := p.sheet.EnsureTab(ctx, p.tab, rows, DefaultTabCols)
	if err != nil {
		return nil, fmt.Errorf("ensure tab %s: %w", p.tab, err)
	}
	if created {
		slog.InfoContext(ctx, "tab created", "tab", p.tab, "rows", rows)
	}

	if err := p.sheet.Clear(ctx, p.tab); err != nil {
		return nil, fmt.Errorf("clear tab %s: %w", p.tab, err)
	}
	if err := p.sheet.Update(ctx, Range(p.tab, "A1"), [][]any{Header}, InputRaw); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	report := &Report{Tab: p.tab, Created: created, Rows: 1}
	if len(records) == 0 {
		return report, nil
	}

	last := len(records) + 1
	if err := p.sheet.Update(ctx, Range(p.tab, fmt.Sprintf("A2:F%d", last)), Rows(records), InputRaw); err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}
	if err := p.sheet.Update(ctx, Range(p.tab, fmt.Sprintf("G2:G%d", last)), Formulas(len(records)), InputUserEntered); err != nil {
		return nil, fmt.Errorf("write formulas: %w", err)
	}

	report.Rows = last
	return report, nil
}

// Verify reads the tab back and checks that n data rows follow the header.
func (p *Publisher) Verify(ctx context.Context, n int) error {
	values, err := p.sheet.Get(ctx, Range(p.tab, fmt.Sprintf("A1:G%d", n+1)))
	if err != nil {
		return fmt.Errorf("read back %s: %w", p.tab, err)
	}
	if len(values) != n+1 {
		return fmt.Errorf("read back %s: got %d rows, want %d", p.tab, len(values), n+1)
	}
	for i, h := range Header {
		if i >= len(values[0]) || fmt.Sprint(values[0][i]) != h {
			return fmt.Errorf("read back %s: unexpected header %v", p.tab, values[0])
		}
	}
	return nil
}

// Rows converts records to the literal A-F cells.
func Rows(records []rider.Record) [][]any {
	out := make([][]any, len(records))
	for i, r := range records {
		out[i] = []any{r.Rider, r.Team, r.URL, r.Role, r.Value, r.Adj}
	}
	return out
}

// Formulas returns the column G cells for n data rows starting at row 2.
func Formulas(n int) [][]any {
	out := make([][]any, n)
	for i := range out {
		row := i + 2
		out[i] = []any{fmt.Sprintf("=E%d+F%d", row, row)}
	}
	return out
}

// Range builds an A1 range scoped to tab, quoting the tab name.
func Range(tab, cells string) string {
	quoted := "'" + strings.ReplaceAll(tab, "'", "''") + "'"
	if cells == "" {
		return quoted
	}
	return quoted + "!" + cells
}
