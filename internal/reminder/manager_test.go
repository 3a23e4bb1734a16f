package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/cache"
	"github.com/Danikxd/maturita-web/internal/directory"
	"github.com/Danikxd/maturita-web/internal/events"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/reconcile"
	"github.com/Danikxd/maturita-web/internal/store"
	"github.com/Danikxd/maturita-web/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	gate   *testutil.Gate
	data   *testutil.DataService
	events *events.Recorder
	snaps  store.Store
	mgr    *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	data := testutil.NewDataService(
		models.Channel{ID: 5, ChannelName: "Nova"},
		models.Channel{ID: 186, ChannelName: "CT1"},
	)
	dir := directory.New(data, nil, 186)
	_, err := dir.Load(context.Background())
	require.NoError(t, err)

	f := &fixture{
		gate:   testutil.NewGate("u1"),
		data:   data,
		events: &events.Recorder{},
		snaps:  store.NewSnapshots(store.NewMemory()),
	}
	f.mgr = NewManager(Config{
		Gate:      f.gate,
		Service:   data,
		Channels:  dir,
		Events:    f.events,
		Snapshots: f.snaps,
	})
	return f
}

func TestCreate_NotifyBeforeOutOfRange_NoNetwork(t *testing.T) {
	f := newFixture(t)
	before := f.data.Calls("")

	for _, nb := range []int{-1, 0, 15, 100} {
		_, _, err := f.mgr.Create(context.Background(), Input{ChannelID: 186, Title: "Movie", NotifyBefore: nb})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, apperr.CodeNotifyBeforeRange, apperr.CodeOf(err))
	}
	_, _, err := f.mgr.Update(context.Background(), 1, Input{ChannelID: 186, Title: "Movie", NotifyBefore: 15})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.Equal(t, before, f.data.Calls(""))
	assert.Equal(t, 0, f.gate.Calls())
}

func TestCreate_InputValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		in   Input
		code string
	}{
		{Input{ChannelID: 186, Title: "   ", NotifyBefore: 3}, apperr.CodeEmptyTitle},
		{Input{ChannelID: 999, Title: "Movie", NotifyBefore: 3}, apperr.CodeUnknownChannel},
		{Input{ChannelID: 186, Title: "Movie", NotifyBefore: 14}, ""},
		{Input{ChannelID: 186, Title: "Movie", NotifyBefore: 1}, ""},
	}
	for _, tt := range tests {
		_, _, err := f.mgr.Create(context.Background(), tt.in)
		if tt.code == "" {
			assert.NoError(t, err)
			continue
		}
		assert.Equal(t, tt.code, apperr.CodeOf(err))
	}
}

func TestCreate_AppearsInRefetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, res, err := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "  Movie ", NotifyBefore: 3})
	require.NoError(t, err)
	assert.Equal(t, reconcile.Applied, res.Outcome)
	assert.Equal(t, int64(186), r.ChannelID)
	assert.Equal(t, "Movie", r.Title)

	fresh, err := f.mgr.Load(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, r.ID, fresh[0].ID)
	assert.Equal(t, int64(186), fresh[0].ChannelID)

	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.ActionCreated, evs[0].Action)
}

func TestRoundTrip_CreateUpdateRefetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, _, err := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "Movie", NotifyBefore: 3})
	require.NoError(t, err)
	_, _, err = f.mgr.Update(ctx, r.ID, Input{ChannelID: 186, Title: "Movie", NotifyBefore: 5})
	require.NoError(t, err)

	fresh, err := f.mgr.Load(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, 5, fresh[0].NotifyBefore)
	assert.Len(t, f.data.AllReminders(), 1)
}

func TestUpdate_UnknownLocally(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.mgr.Update(context.Background(), 42, Input{ChannelID: 186, Title: "x", NotifyBefore: 2})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 0, f.data.Calls("update_reminder"))
}

func TestSessionLoss_NoNetwork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, _, err := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "Movie", NotifyBefore: 3})
	require.NoError(t, err)

	f.gate.SignOut()
	before := f.data.Calls("")

	_, _, err = f.mgr.Create(ctx, Input{ChannelID: 186, Title: "Other", NotifyBefore: 3})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, _, err = f.mgr.Update(ctx, r.ID, Input{ChannelID: 186, Title: "Movie", NotifyBefore: 4})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = f.mgr.Delete(ctx, r.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	assert.Equal(t, before, f.data.Calls(""))
	assert.Len(t, f.mgr.Reminders(), 1)
}

func TestDelete_OptimisticThenApplied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _, err := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "A", NotifyBefore: 3})
	require.NoError(t, err)
	b, _, err := f.mgr.Create(ctx, Input{ChannelID: 5, Title: "B", NotifyBefore: 3})
	require.NoError(t, err)

	res, err := f.mgr.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Applied, res.Outcome)
	require.Len(t, f.mgr.Reminders(), 1)
	assert.Equal(t, b.ID, f.mgr.Reminders()[0].ID)
}

func TestDelete_RemoteFailureRestores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _, _ := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "A", NotifyBefore: 3})
	b, _, _ := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "B", NotifyBefore: 3})
	c, _, _ := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "C", NotifyBefore: 3})

	var during int
	f.data.Hook = func(op string) {
		if op == "delete_reminder" {
			during = len(f.mgr.Reminders())
		}
	}
	f.data.Fail("delete_reminder", apperr.Network(errors.New("reset")))

	res, err := f.mgr.Delete(ctx, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNetworkUnavailable)
	assert.Equal(t, reconcile.RolledBack, res.Outcome)
	assert.Equal(t, 2, during)

	var ids []int64
	for _, r := range f.mgr.Reminders() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, ids)
}

func TestDelete_ForeignReminderRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine, _, err := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "Mine", NotifyBefore: 3})
	require.NoError(t, err)
	foreign := f.data.AddReminder(models.Reminder{UserID: "u2", ChannelID: 186, Title: "Theirs", NotifyBefore: 2})

	_, err = f.mgr.Delete(ctx, foreign.ID)
	assert.ErrorIs(t, err, apperr.ErrRemoteRejected)

	require.Len(t, f.mgr.Reminders(), 1)
	assert.Equal(t, mine.ID, f.mgr.Reminders()[0].ID)
	assert.Len(t, f.data.AllReminders(), 2)
}

func TestSessionChange_DropsOtherUsersReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "Mine", NotifyBefore: 3})
	require.NoError(t, err)

	f.mgr.HandleSessionChange(&models.Session{UserID: "u1"})
	assert.Len(t, f.mgr.Reminders(), 1)

	f.mgr.HandleSessionChange(&models.Session{UserID: "u2"})
	assert.Empty(t, f.mgr.Reminders())
}

func TestLoad_FailureKeepsLocalState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "Mine", NotifyBefore: 3})
	require.NoError(t, err)

	f.data.Fail("list_reminders", apperr.Network(errors.New("down")))
	got, err := f.mgr.Load(ctx)
	assert.ErrorIs(t, err, apperr.ErrNetworkUnavailable)
	assert.Len(t, got, 1)
}

func TestRestore_PerUserSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "Mine", NotifyBefore: 3})
	require.NoError(t, err)

	other := NewManager(Config{Gate: f.gate, Service: f.data, Channels: directory.New(f.data, nil, 186), Snapshots: f.snaps})
	assert.True(t, other.Restore(ctx, "u1"))
	assert.Len(t, other.Reminders(), 1)
	assert.False(t, other.Restore(ctx, "u2"))
}

type busyLocker struct{}

func (busyLocker) Lock(context.Context, string) (func(), error) { return nil, cache.ErrLocked }

type brokenLocker struct{}

func (brokenLocker) Lock(context.Context, string) (func(), error) {
	return nil, errors.New("redis: connection refused")
}

func TestLocker(t *testing.T) {
	f := newFixture(t)
	f.mgr.locker = busyLocker{}
	_, _, err := f.mgr.Create(context.Background(), Input{ChannelID: 186, Title: "x", NotifyBefore: 2})
	assert.Equal(t, apperr.CodeSubmissionInFlight, apperr.CodeOf(err))
	assert.Equal(t, 0, f.data.Calls("create_reminder"))

	f.mgr.locker = brokenLocker{}
	_, _, err = f.mgr.Create(context.Background(), Input{ChannelID: 186, Title: "x", NotifyBefore: 2})
	assert.NoError(t, err)
}

func TestConcurrentCreatesAreSerialized(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.mgr.Create(context.Background(), Input{ChannelID: 186, Title: "x", NotifyBefore: 2})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, f.mgr.Reminders(), 8)
}

func newColdFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.mgr.channels = directory.New(f.data, nil, 186)
	return f
}

func TestCreate_SessionCheckedBeforeChannel(t *testing.T) {
	f := newColdFixture(t)
	f.gate.SignOut()

	_, _, err := f.mgr.Create(context.Background(), Input{ChannelID: 186, Title: "Movie", NotifyBefore: 3})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, 0, f.data.Calls("list_channels"))
	assert.Equal(t, 0, f.data.Calls("create_reminder"))
}

func TestCreate_LoadsEmptyDirectory(t *testing.T) {
	f := newColdFixture(t)

	r, _, err := f.mgr.Create(context.Background(), Input{ChannelID: 186, Title: "Movie", NotifyBefore: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(186), r.ChannelID)
	assert.Equal(t, 1, f.data.Calls("list_channels"))

	_, _, err = f.mgr.Create(context.Background(), Input{ChannelID: 999, Title: "Movie", NotifyBefore: 3})
	assert.Equal(t, apperr.CodeUnknownChannel, apperr.CodeOf(err))
	assert.Equal(t, 1, f.data.Calls("list_channels"))
}

func TestCreate_DirectoryUnavailable(t *testing.T) {
	f := newColdFixture(t)
	f.data.Fail("list_channels", apperr.Network(errors.New("connection refused")))

	_, _, err := f.mgr.Create(context.Background(), Input{ChannelID: 186, Title: "Movie", NotifyBefore: 3})
	assert.ErrorIs(t, err, apperr.ErrNetworkUnavailable)
	assert.Equal(t, 0, f.data.Calls("create_reminder"))
}

// ctxService reports the caller's cancellation after the data service has
// already committed a delete, as a transport would.
type ctxService struct {
	*testutil.DataService
	afterDelete func()
}

func (s *ctxService) DeleteReminder(ctx context.Context, token string, id int64) error {
	if err := s.DataService.DeleteReminder(ctx, token, id); err != nil {
		return err
	}
	s.afterDelete()
	return ctx.Err()
}

func (s *ctxService) ListReminders(ctx context.Context, token string) ([]models.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.DataService.ListReminders(ctx, token)
}

func TestDelete_CompletesWhenCallerCancels(t *testing.T) {
	f := newFixture(t)
	seeded := f.data.AddReminder(models.Reminder{UserID: "u1", ChannelID: 186, Title: "Movie", NotifyBefore: 3})
	_, err := f.mgr.Load(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.mgr.svc = &ctxService{DataService: f.data, afterDelete: cancel}

	res, err := f.mgr.Delete(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Applied, res.Outcome)
	assert.NoError(t, res.SyncErr)
	assert.Empty(t, f.mgr.Reminders())
	assert.Empty(t, f.data.AllReminders())
}

type trackingLocker struct {
	mu   sync.Mutex
	held bool
}

func (l *trackingLocker) Lock(context.Context, string) (func(), error) {
	l.mu.Lock()
	l.held = true
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.held = false
		l.mu.Unlock()
	}, nil
}

func (l *trackingLocker) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

type lockCheckingPublisher struct {
	locker       *trackingLocker
	heldDuring   []bool
	withDeadline []bool
}

func (p *lockCheckingPublisher) Publish(ctx context.Context, _ events.ReminderEvent) error {
	p.heldDuring = append(p.heldDuring, p.locker.Held())
	_, ok := ctx.Deadline()
	p.withDeadline = append(p.withDeadline, ok)
	return nil
}

func (p *lockCheckingPublisher) Close() error { return nil }

func TestPublish_AfterUnlockWithDeadline(t *testing.T) {
	f := newFixture(t)
	l := &trackingLocker{}
	pub := &lockCheckingPublisher{locker: l}
	f.mgr.locker = l
	f.mgr.events = pub
	ctx := context.Background()

	r, _, err := f.mgr.Create(ctx, Input{ChannelID: 186, Title: "Movie", NotifyBefore: 3})
	require.NoError(t, err)
	_, _, err = f.mgr.Update(ctx, r.ID, Input{ChannelID: 186, Title: "Movie", NotifyBefore: 4})
	require.NoError(t, err)
	_, err = f.mgr.Delete(ctx, r.ID)
	require.NoError(t, err)

	assert.Equal(t, []bool{false, false, false}, pub.heldDuring)
	assert.Equal(t, []bool{true, true, true}, pub.withDeadline)
}
