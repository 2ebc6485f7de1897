package stream

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	"orderpipeline/internal/notifications"
)

func newStreamServer(t *testing.T) (*httptest.Server, *notifications.Hub) {
	t.Helper()
	hub := notifications.NewHub(zap.NewNop())
	r := chi.NewRouter()
	RegisterRoutes(r, hub, zap.NewNop())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestStream_DeliversNamedEvents(t *testing.T) {
	srv, hub := newStreamServer(t)

	resp, err := http.Get(srv.URL + "/api/notifications/stream/cust-9")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("cust-9") == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast("cust-9", &domain.OrderEvent{
		OrderID: "abc-1",
		UserID:  "cust-9",
		Status:  "COMPLETED",
	})

	reader := bufio.NewReader(resp.Body)
	eventLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: ORDER_CREATED\n", eventLine)

	dataLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, dataLine, `"orderId":"abc-1"`)
	require.Contains(t, dataLine, `"status":"COMPLETED"`)
}

func TestStream_ClientDisconnectUnregisters(t *testing.T) {
	srv, hub := newStreamServer(t)

	resp, err := http.Get(srv.URL + "/api/notifications/stream/cust-9")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("cust-9") == 1
	}, time.Second, 10*time.Millisecond)

	resp.Body.Close()

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("cust-9") == 0
	}, time.Second, 10*time.Millisecond)
}

func TestStream_MissingUserIDRejected(t *testing.T) {
	srv, _ := newStreamServer(t)

	resp, err := http.Get(srv.URL + "/api/notifications/stream/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
