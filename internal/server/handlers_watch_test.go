package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/foliolabs/folio/internal/common"
)

func TestHandleHoldingsWatch_RequiresSession(t *testing.T) {
	srv := newTestServerWithStorage()

	req := httptest.NewRequest(http.MethodGet, "/api/holdings/watch", nil)
	rec := httptest.NewRecorder()
	srv.handleHoldingsWatch(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleHoldingsWatch_EmitsConnectedAndClosesOnCancel(t *testing.T) {
	srv := newTestServerWithStorage()

	ctx, cancel := context.WithCancel(
		common.WithSession(context.Background(), &common.Session{UserID: "user-1"}))
	req := httptest.NewRequest(http.MethodGet, "/api/holdings/watch", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleHoldingsWatch(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return after context cancellation")
	}

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: connected")
}
