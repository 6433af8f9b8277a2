package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func waitReload(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.Reload():
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s got no reload", c.ID)
	}
}

func TestHub_CatalogChangedReachesEveryClient(t *testing.T) {
	h := startHub(t)
	a, b := NewClient("a"), NewClient("b")
	require.True(t, h.Register(a))
	require.True(t, h.Register(b))

	h.CatalogChanged()
	waitReload(t, a)
	waitReload(t, b)
}

func TestHub_NotificationsCoalesce(t *testing.T) {
	h := startHub(t)
	c := NewClient("c")
	require.True(t, h.Register(c))

	for i := 0; i < 5; i++ {
		h.CatalogChanged()
	}
	waitReload(t, c)

	// at most one more pending signal may remain
	time.Sleep(50 * time.Millisecond)
	select {
	case <-c.Reload():
	default:
	}
	select {
	case <-c.Reload():
		t.Fatal("expected notifications to coalesce")
	default:
	}
}

func TestHub_UnregisteredClientIsSkipped(t *testing.T) {
	h := startHub(t)
	c := NewClient("gone")
	require.True(t, h.Register(c))
	h.Unregister(c)
	assert.Eventually(t, func() bool { return h.Count() == 0 }, time.Second, 10*time.Millisecond)

	h.CatalogChanged()
	time.Sleep(50 * time.Millisecond)
	select {
	case <-c.Reload():
		t.Fatal("unregistered client was notified")
	default:
	}
}

func TestHub_StoppedHubRejectsClients(t *testing.T) {
	h := NewHub()
	h.Stop()
	h.Stop()
	h.Run() // returns at once

	assert.False(t, h.Register(NewClient("late")))
	h.Unregister(NewClient("late"))
	h.CatalogChanged()
}
