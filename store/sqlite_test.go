package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treeshoptech/freedom-drains-pro/clock"
	"github.com/treeshoptech/freedom-drains-pro/design"
)

var start = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

func openTest(t *testing.T) (*SQLite, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(start)
	s, err := Open(context.Background(), ":memory:", WithClock(clk))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clk
}

func sampleProject() Project {
	return Project{
		Name:    "Henderson backyard",
		Address: "112 Flagler Ave, New Smyrna Beach, FL",
		Lat:     29.0258,
		Lng:     -80.927,
		Design: []design.Feature{
			{ID: "run-1", Type: design.HydrobloxRun, Geometry: orb.LineString{{-80.927, 29.0258}, {-80.926, 29.0258}}, LengthFt: 318},
			{ID: "ds-1", Type: design.Downspout, Geometry: orb.Point{-80.9268, 29.0259}, Status: design.StatusFailed},
		},
		Customer: Customer{Name: "Pat Henderson", Phone: "386-555-0101"},
		Totals:   Totals{HydrobloxLF: 318, TotalCost: 14310},
	}
}

func TestSaveAndLoad(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, sampleProject())
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, StatusDraft, saved.Status)
	assert.Equal(t, start, saved.CreatedAt)
	assert.Equal(t, start, saved.UpdatedAt)

	got, err := s.Load(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Name, got.Name)
	assert.Equal(t, saved.Address, got.Address)
	assert.Equal(t, 29.0258, got.Lat)
	assert.Equal(t, sampleProject().Design, got.Design)
	assert.Equal(t, "Pat Henderson", got.Customer.Name)
	assert.Empty(t, got.Customer.Email)
	assert.Equal(t, int64(14310), got.Totals.TotalCost)
	assert.Equal(t, start, got.CreatedAt)
}

func TestSaveUpdatesExisting(t *testing.T) {
	s, clk := openTest(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, sampleProject())
	require.NoError(t, err)

	clk.Advance(time.Hour)
	saved.Name = "Henderson front yard"
	saved.Design = nil
	saved.Totals = Totals{}
	updated, err := s.Save(ctx, saved)
	require.NoError(t, err)

	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, "Henderson front yard", updated.Name)
	assert.Empty(t, updated.Design)
	assert.Equal(t, start, updated.CreatedAt)
	assert.Equal(t, start.Add(time.Hour), updated.UpdatedAt)
}

func TestSaveUnknownIDFails(t *testing.T) {
	s, _ := openTest(t)
	p := sampleProject()
	p.ID = "missing"
	_, err := s.Save(context.Background(), p)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s, clk := openTest(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"first", "second", "third"} {
		p := sampleProject()
		p.Name = name
		saved, err := s.Save(ctx, p)
		require.NoError(t, err)
		ids = append(ids, saved.ID)
		clk.Advance(time.Minute)
	}

	_, err := s.UpdateStatus(ctx, ids[0], StatusQuoted)
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"first", "third", "second"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.Equal(t, StatusQuoted, list[0].Status)
	assert.Equal(t, int64(14310), list[0].TotalCost)
}

func TestListEmpty(t *testing.T) {
	s, _ := openTest(t)
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, sampleProject())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, saved.ID))
	_, err = s.Load(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, saved.ID), ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, sampleProject())
	require.NoError(t, err)

	p, err := s.UpdateStatus(ctx, saved.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, p.Status)

	_, err = s.UpdateStatus(ctx, saved.ID, Status("lost"))
	assert.Error(t, err)
	_, err = s.UpdateStatus(ctx, "nope", StatusQuoted)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "projects.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	saved, err := s.Save(ctx, sampleProject())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Name, got.Name)
}

func TestStatusNext(t *testing.T) {
	assert.Equal(t, StatusQuoted, StatusDraft.Next())
	assert.Equal(t, StatusDraft, StatusCompleted.Next())
	_, err := ParseStatus("archived")
	assert.Error(t, err)
}
