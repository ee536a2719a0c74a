package pcs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func fixture(t testing.TB, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

type fakePCS struct {
	*httptest.Server
	requests atomic.Int32
}

func newFakePCS(t testing.TB) *fakePCS {
	t.Helper()
	f := &fakePCS{}

	mux := http.NewServeMux()
	mux.HandleFunc("/race/vuelta-a-espana/2024/startlist", func(w http.ResponseWriter, r *http.Request) {
		w.Write(fixture(t, "startlist.html"))
	})
	mux.HandleFunc("/rankings/me/individual", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("offset") {
		case "":
			w.Write(fixture(t, "ranking.html"))
		case "100":
			w.Write(fixture(t, "ranking_page2.html"))
		default:
			w.Write([]byte(`<html><body><table><thead><tr><th>Rider</th><th>Points</th></tr></thead></table></body></html>`))
		}
	})
	mux.HandleFunc("/rider/tadej-pogacar", func(w http.ResponseWriter, r *http.Request) {
		w.Write(fixture(t, "rider.html"))
	})
	mux.HandleFunc("/rider/empty-profile", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>no table</p></body></html>`))
	})

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func newTestClient(f *fakePCS, pages int) *Client {
	c := NewClient(Options{BaseURL: f.URL, RankingPages: pages})
	c.Now = func() time.Time { return time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestStartlist(t *testing.T) {
	f := newFakePCS(t)
	c := newTestClient(f, 1)

	entries, err := c.Startlist(context.Background(), "race/vuelta-a-espana/2024")
	require.NoError(t, err)

	expected := []StartlistEntry{
		{Name: "POGAČAR Tadej", Team: "UAE Team Emirates", RiderURL: "rider/tadej-pogacar"},
		{Name: "AYUSO Juan", Team: "UAE Team Emirates", RiderURL: "rider/juan-ayuso-pesquera"},
		{Name: "VAN AERT Wout", Team: "Team Visma | Lease a Bike", RiderURL: "rider/wout-van-aert"},
		{Name: "VAN AERT Wout", Team: "Team Visma | Lease a Bike", RiderURL: "rider/wout-van-aert"},
		{Name: "", Team: "Team Visma | Lease a Bike", RiderURL: "rider"},
	}
	if diff := cmp.Diff(expected, entries); diff != "" {
		t.Fatalf("startlist mismatch (-want +got):\n%s", diff)
	}
}

func TestStartlistNotFound(t *testing.T) {
	f := newFakePCS(t)
	c := newTestClient(f, 1)

	_, err := c.Startlist(context.Background(), "race/unknown/2024/startlist")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 404")

	_, err = c.Startlist(context.Background(), "  ")
	require.Error(t, err)
}

func TestIndividualRanking(t *testing.T) {
	f := newFakePCS(t)

	points, err := newTestClient(f, 1).IndividualRanking(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]float64{
		"rider/tadej-pogacar":   11680,
		"rider/remco-evenepoel": 5432,
		"rider/wout-van-aert":   2350.5,
	}, points)
}

func TestIndividualRankingPaging(t *testing.T) {
	f := newFakePCS(t)

	points, err := newTestClient(f, 5).IndividualRanking(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 4)
	require.Equal(t, 812.0, points["rider/juan-ayuso-pesquera"])

	// two pages with rows, a third empty one stops the loop
	require.EqualValues(t, 3, f.requests.Load())
}

func TestSeasonPoints(t *testing.T) {
	f := newFakePCS(t)
	c := newTestClient(f, 1)

	pts, err := c.SeasonPoints(context.Background(), "https://www.procyclingstats.com/rider/tadej-pogacar")
	require.NoError(t, err)
	require.Equal(t, 11680.0, pts)

	// no row for the current season: the latest season wins
	c.Now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	pts, err = c.SeasonPoints(context.Background(), "rider/tadej-pogacar")
	require.NoError(t, err)
	require.Equal(t, 4100.0, pts)
}

func TestSeasonPointsUnavailable(t *testing.T) {
	f := newFakePCS(t)
	c := newTestClient(f, 1)

	_, err := c.SeasonPoints(context.Background(), "rider/empty-profile")
	require.True(t, errors.Is(err, ErrNoSeasonPoints))

	_, err = c.SeasonPoints(context.Background(), "rider/missing")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNoSeasonPoints))

	_, err = c.SeasonPoints(context.Background(), "")
	require.True(t, errors.Is(err, ErrNoSeasonPoints))
}

func TestPickSeasonPoints(t *testing.T) {
	testCases := []struct {
		name     string
		rows     []seasonRow
		year     int
		expected float64
		err      bool
	}{
		{name: "empty", rows: nil, year: 2024, err: true},
		{name: "current", rows: []seasonRow{{2023, 10, true}, {2024, 20, true}}, year: 2024, expected: 20},
		{name: "latest", rows: []seasonRow{{2021, 10, true}, {2023, 30, true}, {2022, 20, true}}, year: 2024, expected: 30},
		{name: "current without points", rows: []seasonRow{{2024, 0, false}, {2023, 30, true}}, year: 2024, err: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := pickSeasonPoints(tc.rows, tc.year)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestParseNumber(t *testing.T) {
	testCases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"11,680", 11680, true},
		{" 5 432 ", 5432, true},
		{"812.5", 812.5, true},
		{"-", 0, false},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, tc := range testCases {
		got, ok := parseNumber(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}
