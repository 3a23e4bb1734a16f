package epg

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/metrics"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithHTTPClient(srv.Client()), WithUserAgent("test-agent"))
}

func TestListChannels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/channels", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":5,"channel_name":"Nova"},{"id":186,"channel_name":"CT1","display_name":"ČT1","logo":"http://x/l.png"}]`))
	})

	chans, err := c.ListChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, chans, 2)
	assert.Equal(t, int64(5), chans[0].ID)
	assert.Equal(t, "ČT1", chans[1].Label())
	require.NotNil(t, chans[1].LogoURL)
	assert.Equal(t, "http://x/l.png", *chans[1].LogoURL)
}

func TestListProgrammes_DatePathAndIDs(t *testing.T) {
	loc := time.FixedZone("CEST", 2*3600)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/series/2024-05-01", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id":17,"channel_id":186,"title":"News","start":"2024-05-01T09:00:00+02:00","end":"2024-05-01T10:00:00+02:00"},
			{"id":"abc","channel_name":"Nova","title":"Film","desc":"x","start":"2024-05-01T20:00:00+02:00","end":"2024-05-01T22:00:00+02:00"}
		]`))
	})

	// 00:30 local is still the previous day in UTC
	progs, err := c.ListProgrammes(context.Background(), time.Date(2024, 5, 1, 0, 30, 0, 0, loc))
	require.NoError(t, err)
	require.Len(t, progs, 2)
	assert.Equal(t, "17", progs[0].ID)
	assert.Equal(t, "abc", progs[1].ID)
	assert.Equal(t, "Nova", progs[1].ChannelName)
	require.NotNil(t, progs[1].Description)
}

func TestReminderCRUD_SendsBearerAndJSON(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":1,"user_id":"u1","channel_id":186,"title":"Movie","notify_before":3}]`))
		case http.MethodPost:
			var in models.ReminderInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(models.Reminder{ID: 2, UserID: "u1", ChannelID: in.ChannelID, Title: in.Title, NotifyBefore: in.NotifyBefore})
		case http.MethodPatch:
			_, _ = w.Write([]byte(`{"id":2,"user_id":"u1","channel_id":186,"title":"Movie","notify_before":5}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		}
	})
	ctx := context.Background()

	list, err := c.ListReminders(ctx, "tok")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	created, err := c.CreateReminder(ctx, "tok", models.ReminderInput{ChannelID: 186, Title: "Movie", NotifyBefore: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)
	assert.Equal(t, int64(186), created.ChannelID)

	updated, err := c.UpdateReminder(ctx, "tok", 2, models.ReminderInput{ChannelID: 186, Title: "Movie", NotifyBefore: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.NotifyBefore)

	require.NoError(t, c.DeleteReminder(ctx, "tok", 2))

	assert.Equal(t, []string{
		"GET /notifications",
		"POST /notifications",
		"PATCH /notifications/2",
		"DELETE /notifications/2",
	}, seen)
}

func TestUpdateReminder_EmptyBodyFallsBackToInput(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	got, err := c.UpdateReminder(context.Background(), "tok", 9, models.ReminderInput{ChannelID: 1, Title: "T", NotifyBefore: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.ID)
	assert.Equal(t, 2, got.NotifyBefore)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   apperr.Kind
		code   string
	}{
		{401, ``, apperr.KindUnauthenticated, apperr.CodeUnauthenticated},
		{403, ``, apperr.KindRemoteRejected, apperr.CodeForbidden},
		{404, ``, apperr.KindNotFound, apperr.CodeNotFound},
		{409, `{"error":"duplicate_registration"}`, apperr.KindRemoteRejected, "duplicate_registration"},
		{422, `{"code":"invalid_notify_before","message":"bad"}`, apperr.KindRemoteRejected, "invalid_notify_before"},
		{500, `oops`, apperr.KindRemoteRejected, apperr.CodeUnexpected},
		{502, ``, apperr.KindNetworkUnavailable, apperr.CodeNetworkUnavailable},
		{503, ``, apperr.KindNetworkUnavailable, apperr.CodeNetworkUnavailable},
		{504, ``, apperr.KindNetworkUnavailable, apperr.CodeNetworkUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			err := c.DeleteReminder(context.Background(), "tok", 1)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, tt.code, apperr.CodeOf(err))
		})
	}
}

func TestTransportFailureIsNetworkUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).ListChannels(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNetworkUnavailable)
}

func TestCanceledContextIsNotNetworkFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListChannels(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, apperr.ErrNetworkUnavailable))
}

func TestRequestIDForwarded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-42", r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`[]`))
	})
	_, err := c.ListChannels(metrics.WithRequestID(context.Background(), "req-42"))
	require.NoError(t, err)
}

func TestAdminEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer admin", r.Header.Get("Authorization"))
		switch r.Method + " " + r.URL.Path {
		case "POST /verify":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_ = json.NewEncoder(w).Encode(map[string]bool{"is_admin": body["user_id"] == "boss"})
		case "POST /tv_channels":
			var in models.ChannelInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(models.Channel{ID: 300, ChannelName: *in.ChannelName, LogoURL: in.LogoURL})
		case "PATCH /tv_channels/300":
			_, _ = w.Write([]byte(`{}`))
		case "DELETE /tv_channels/300":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	ok, err := c.VerifyAdmin(ctx, "admin", "boss")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.VerifyAdmin(ctx, "admin", "pleb")
	require.NoError(t, err)
	assert.False(t, ok)

	name, logo := "New", "http://cdn/l.png"
	ch, err := c.CreateChannel(ctx, "admin", models.ChannelInput{ChannelName: &name, LogoURL: &logo})
	require.NoError(t, err)
	assert.Equal(t, int64(300), ch.ID)

	upd, err := c.UpdateChannel(ctx, "admin", 300, models.ChannelInput{ChannelName: &name})
	require.NoError(t, err)
	assert.Equal(t, int64(300), upd.ID)

	require.NoError(t, c.DeleteChannel(ctx, "admin", 300))
}

func TestRateLimitHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	WithRateLimit(0.001, 1)(c)

	_, err := c.ListChannels(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ListChannels(ctx)
	require.Error(t, err)
}
