package server

import (
	"context"
	"net/http"
	"time"

	"VinylShop/core/catalog"
	"VinylShop/core/live"
	"VinylShop/logger"
	"VinylShop/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4096
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SearchMessage is what the client sends on every keystroke.
// Type "reload" refetches the catalog and keeps the current query.
type SearchMessage struct {
	Type  string `json:"type,omitempty"`
	Query string `json:"query"`
}

// SearchSnapshot is pushed to the client after every state change.
type SearchSnapshot struct {
	Query  string        `json:"query"`
	Total  int           `json:"total"`
	Albums []model.Album `json:"albums"`
}

func snapshotOf(s catalog.State) SearchSnapshot {
	snap := SearchSnapshot{Query: s.Query, Total: len(s.AllAlbums), Albums: s.FilteredAlbums}
	if snap.Albums == nil {
		snap.Albums = []model.Album{}
	}
	return snap
}

// SearchWebSocketHandler runs live search. Each connection owns a catalog.Store: query
// messages become ChangeQuery, catalog changes from the hub become LoadAlbums, and every
// new snapshot is written back. All writes happen on the handler goroutine.
func (h *APIHandler) SearchWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	albums, err := h.loadCatalog(r.Context())
	if err != nil {
		writeServiceError(w, "SearchWS", err)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[SearchWS] websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	client := live.NewClient(uuid.NewString())
	if !h.hub.Register(client) {
		return
	}
	defer h.hub.Unregister(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := catalog.NewStore(catalog.State{})
	unsubscribe := store.Subscribe(func(s catalog.State) {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(snapshotOf(s)); err != nil {
			logger.Debug("[SearchWS] 发送快照失败", logger.String("client", client.ID), logger.ErrorField(err))
			cancel()
		}
	})
	defer unsubscribe()

	store.Dispatch(catalog.LoadAlbums{Albums: albums})

	messages := make(chan SearchMessage)
	go h.readSearchMessages(ctx, cancel, conn, messages)

	reload := func() {
		fresh, err := h.loadCatalog(ctx)
		if err != nil {
			logger.Warn("[SearchWS] 重新加载专辑失败", logger.ErrorField(err))
			return
		}
		store.Dispatch(catalog.LoadAlbums{Albums: fresh})
	}

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-messages:
			if msg.Type == "reload" {
				reload()
				continue
			}
			store.Dispatch(catalog.ChangeQuery{Query: msg.Query})

		case <-client.Reload():
			reload()

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// readSearchMessages forwards client messages until the connection fails, then cancels.
func (h *APIHandler) readSearchMessages(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out chan<- SearchMessage) {
	defer cancel()

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg SearchMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("[SearchWS] 读取消息失败", logger.ErrorField(err))
			}
			return
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}
