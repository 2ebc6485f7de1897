package notifications

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
)

func testEvent(orderID, userID string) *domain.OrderEvent {
	return &domain.OrderEvent{OrderID: orderID, UserID: userID, Status: "COMPLETED"}
}

func TestHub_BroadcastReachesAllUserConnections(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn1 := hub.Connect("cust-9")
	conn2 := hub.Connect("cust-9")

	hub.Broadcast("cust-9", testEvent("abc-1", "cust-9"))

	for _, conn := range []*Connection{conn1, conn2} {
		select {
		case ev := <-conn.Events():
			require.Equal(t, "abc-1", ev.OrderID)
		default:
			t.Fatal("expected event on connection")
		}
	}
}

func TestHub_BroadcastDoesNotCrossUsers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	mine := hub.Connect("cust-9")
	other := hub.Connect("cust-10")

	hub.Broadcast("cust-9", testEvent("abc-1", "cust-9"))

	require.Len(t, mine.Events(), 1)
	require.Empty(t, other.Events())
}

func TestHub_FailedDeliveryRemovesOnlyThatConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	dead := hub.Connect("cust-9")
	alive := hub.Connect("cust-9")

	// Session died without an explicit disconnect.
	dead.close()

	hub.Broadcast("cust-9", testEvent("abc-1", "cust-9"))

	require.Equal(t, 1, hub.ConnectionCount("cust-9"))
	select {
	case ev := <-alive.Events():
		require.Equal(t, "abc-1", ev.OrderID)
	default:
		t.Fatal("expected delivery to the surviving connection")
	}
}

func TestHub_FullBufferRemovesConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	slow := hub.Connect("cust-9")

	for i := 0; i <= connBuffer; i++ {
		hub.Broadcast("cust-9", testEvent(fmt.Sprintf("order-%d", i), "cust-9"))
	}

	require.Equal(t, 0, hub.ConnectionCount("cust-9"))
	select {
	case <-slow.Done():
	default:
		t.Fatal("expected slow connection to be closed")
	}
}

func TestHub_NoSubscriberDropsSilently(t *testing.T) {
	hub := NewHub(zap.NewNop())

	hub.Broadcast("cust-9", testEvent("abc-1", "cust-9"))

	// A connection arriving afterwards sees nothing: live-only delivery.
	late := hub.Connect("cust-9")
	require.Empty(t, late.Events())
}

func TestHub_DisconnectIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := hub.Connect("cust-9")

	hub.Disconnect("cust-9", conn)
	hub.Disconnect("cust-9", conn)
	hub.Disconnect("unknown-user", conn)

	require.Equal(t, 0, hub.ConnectionCount("cust-9"))
	select {
	case <-conn.Done():
	default:
		t.Fatal("expected connection to be closed")
	}
}

func TestHub_ConcurrentConnectBroadcastDisconnect(t *testing.T) {
	hub := NewHub(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i%4)
			for j := 0; j < 50; j++ {
				conn := hub.Connect(userID)
				hub.Broadcast(userID, testEvent(fmt.Sprintf("order-%d-%d", i, j), userID))
				hub.Disconnect(userID, conn)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		require.Equal(t, 0, hub.ConnectionCount(fmt.Sprintf("user-%d", i)))
	}
}
