// Package live tracks open live-search connections and tells them when the catalog changed.
package live

import (
	"sync"

	"VinylShop/logger"
)

// Client is one live-search connection. Reload receives a value whenever the catalog changed;
// pending notifications coalesce into one.
type Client struct {
	ID     string
	reload chan struct{}
}

// NewClient creates a client with its notification channel.
func NewClient(id string) *Client {
	return &Client{ID: id, reload: make(chan struct{}, 1)}
}

// Reload is signalled after every catalog change.
func (c *Client) Reload() <-chan struct{} {
	return c.reload
}

// Hub 实时搜索连接管理中心
type Hub struct {
	clients map[*Client]bool

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	// 目录变更通知
	changed chan struct{}

	mu   sync.RWMutex
	done chan struct{}
	stop sync.Once
}

// NewHub 创建 Hub, 需要调用 Run 启动
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		changed:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 主循环, 直到 Stop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Debug("live client registered", logger.String("client", client.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			logger.Debug("live client unregistered", logger.String("client", client.ID))

		case <-h.changed:
			h.notifyAll()

		case <-h.done:
			return
		}
	}
}

// Stop 停止 Hub. Safe to call more than once.
func (h *Hub) Stop() {
	h.stop.Do(func() { close(h.done) })
}

// Register adds c. It returns false once the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// CatalogChanged queues a reload for every registered client. It never blocks.
func (h *Hub) CatalogChanged() {
	select {
	case h.changed <- struct{}{}:
	default: // a notification is already pending
	}
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) notifyAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.reload <- struct{}{}:
		default:
		}
	}
	logger.Debug("catalog change broadcast", logger.Int("clients", len(h.clients)))
}
