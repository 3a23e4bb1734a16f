package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "network_unavailable", Outcome(apperr.Network(errors.New("dial"))))
	assert.Equal(t, "unknown", Outcome(errors.New("plain")))
}

func TestRequestID(t *testing.T) {
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestIDFromContext(ctx))
}

func TestHandlerExposesCounters(t *testing.T) {
	done := ObserveCall("epg", "list_channels")
	done(nil)
	ObserveReconcile("reminders", "applied")
	ObserveHTTP(http.MethodGet, "GET /api/health", 200, time.Now())

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `tvminder_remote_calls_total{operation="list_channels",outcome="ok",service="epg"}`))
	assert.True(t, strings.Contains(body, `tvminder_reconcile_total{collection="reminders",outcome="applied"}`))
	assert.True(t, strings.Contains(body, "tvminder_http_requests_total"))
}
