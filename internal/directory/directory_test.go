package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	chans []models.Channel
	err   error
	calls int
}

func (f *fakeSource) ListChannels(ctx context.Context) ([]models.Channel, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.chans, nil
}

func ids(chans []models.Channel) []int64 {
	out := make([]int64, len(chans))
	for i, c := range chans {
		out[i] = c.ID
	}
	return out
}

func TestOrderedForSelection_PinnedFirst(t *testing.T) {
	src := &fakeSource{chans: []models.Channel{{ID: 5}, {ID: 186}, {ID: 7}}}
	d := New(src, nil, 186)

	_, err := d.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{186, 5, 7}, ids(d.OrderedForSelection()))
	assert.Equal(t, []int64{5, 186, 7}, ids(d.All()))
}

func TestOrderedForSelection_PinnedAbsent(t *testing.T) {
	d := New(&fakeSource{chans: []models.Channel{{ID: 9}, {ID: 3}}}, nil, 186)
	_, err := d.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 3}, ids(d.OrderedForSelection()))
	assert.Equal(t, []int64{3, 9}, ids(d.SortedByID()))
}

func TestLoad_DeduplicatesKeepingFirst(t *testing.T) {
	src := &fakeSource{chans: []models.Channel{
		{ID: 1, ChannelName: "first"},
		{ID: 2, ChannelName: "two"},
		{ID: 1, ChannelName: "second"},
	}}
	d := New(src, nil, 186)
	got, err := d.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(got))

	c, err := d.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, "first", c.ChannelName)
}

func TestLoad_FailureKeepsPrevious(t *testing.T) {
	src := &fakeSource{chans: []models.Channel{{ID: 1}, {ID: 2}}}
	d := New(src, nil, 186)
	_, err := d.Load(context.Background())
	require.NoError(t, err)

	src.err = errors.New("connection refused")
	_, err = d.Load(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNetworkUnavailable)
	assert.ErrorIs(t, d.Err(), apperr.ErrNetworkUnavailable)
	assert.Equal(t, []int64{1, 2}, ids(d.All()))

	src.err = nil
	_, err = d.Load(context.Background())
	require.NoError(t, err)
	assert.NoError(t, d.Err())
}

func TestLookup_NotFound(t *testing.T) {
	d := New(&fakeSource{}, nil, 186)
	_, err := d.Lookup(42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLookupName(t *testing.T) {
	d := New(&fakeSource{chans: []models.Channel{{ID: 4, ChannelName: "Nova"}}}, nil, 186)
	_, _ = d.Load(context.Background())
	c, ok := d.LookupName("Nova")
	assert.True(t, ok)
	assert.Equal(t, int64(4), c.ID)
	_, ok = d.LookupName("Prima")
	assert.False(t, ok)
}

func TestRestoreFromSnapshot(t *testing.T) {
	st := store.NewSnapshots(store.NewMemory())
	ctx := context.Background()

	d1 := New(&fakeSource{chans: []models.Channel{{ID: 186}, {ID: 2}}}, st, 186)
	_, err := d1.Load(ctx)
	require.NoError(t, err)

	// cold start with the service down
	d2 := New(&fakeSource{err: apperr.Network(errors.New("down"))}, st, 186)
	assert.True(t, d2.Restore(ctx))
	_, err = d2.Load(ctx)
	assert.Error(t, err)
	assert.Equal(t, []int64{186, 2}, ids(d2.All()))
}

func TestRestore_SkipsWhenLoaded(t *testing.T) {
	st := store.NewSnapshots(store.NewMemory())
	ctx := context.Background()
	require.NoError(t, st.SaveChannels(ctx, []models.Channel{{ID: 99}}))

	d := New(&fakeSource{chans: []models.Channel{{ID: 1}}}, st, 186)
	_, err := d.Load(ctx)
	require.NoError(t, err)
	assert.False(t, d.Restore(ctx))
	assert.Equal(t, []int64{1}, ids(d.All()))
}

func TestDefaultPinned(t *testing.T) {
	assert.Equal(t, models.DefaultPinnedChannelID, New(&fakeSource{}, nil, 0).PinnedID())
}
