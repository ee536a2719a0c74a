package collect

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/pcs"
	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
)

type staticStartlist struct {
	entries []pcs.StartlistEntry
	err     error
	race    string
}

func (s *staticStartlist) Startlist(_ context.Context, race string) ([]pcs.StartlistEntry, error) {
	s.race = race
	return s.entries, s.err
}

func TestCollect(t *testing.T) {
	src := &staticStartlist{entries: []pcs.StartlistEntry{
		{Name: " POGAČAR Tadej ", Team: "UAE Team Emirates", RiderURL: "rider/tadej-pogacar"},
		{Name: "VAN AERT Wout", Team: "Visma | Lease a Bike", RiderURL: "rider/wout-van-aert"},
		{Name: "POGAČAR Tadej", Team: "UAE Team Emirates ", RiderURL: "rider/tadej-pogacar-2"},
		{Name: "", Team: "Visma | Lease a Bike", RiderURL: "rider/ghost"},
		{Name: "VAN AERT Wout", Team: "Another Team", RiderURL: ""},
	}}

	records, err := New(src, "").Collect(context.Background(), "race/vuelta-a-espana/2024/startlist")
	require.NoError(t, err)
	require.Equal(t, "race/vuelta-a-espana/2024/startlist", src.race)

	expected := []rider.Record{
		{Rider: "POGAČAR Tadej", Team: "UAE Team Emirates", URL: "https://www.procyclingstats.com/rider/tadej-pogacar"},
		{Rider: "VAN AERT Wout", Team: "Visma | Lease a Bike", URL: "https://www.procyclingstats.com/rider/wout-van-aert"},
		{Rider: "VAN AERT Wout", Team: "Another Team", URL: ""},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectDuplicatePair(t *testing.T) {
	src := &staticStartlist{entries: []pcs.StartlistEntry{
		{Name: "A", Team: "T", RiderURL: "rider/a"},
		{Name: "A", Team: "T", RiderURL: "rider/a"},
	}}

	records, err := New(src, "http://pcs.test").Collect(context.Background(), "race/x")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "http://pcs.test/rider/a", records[0].URL)
}

func TestCollectFailure(t *testing.T) {
	src := &staticStartlist{err: errors.New("boom")}

	_, err := New(src, "").Collect(context.Background(), "race/x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}
