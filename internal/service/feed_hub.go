package service

import (
	"encoding/json"
	"net/http"
	"studynotes_backend/internal/session"
	"studynotes_backend/pkg/logger"
	"studynotes_backend/pkg/monitoring"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	MessageFeedVersion = "FEED_VERSION"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// FeedVersion swagger:model FeedVersion
type FeedVersion struct {
	Version uint64 `json:"version"`
}

func feedVersionMessage(v uint64) ([]byte, error) {
	return json.Marshal(WSMessage{Type: MessageFeedVersion, Data: FeedVersion{Version: v}})
}

// FeedHub 把计数器的变化推送给 websocket 客户端
type FeedHub struct {
	Counter *session.Counter
}

func NewFeedHub(counter *session.Counter) *FeedHub {
	return &FeedHub{Counter: counter}
}

func (h *FeedHub) Version() FeedVersion {
	return FeedVersion{Version: h.Counter.Value()}
}

// ServeWS 连接建立时先推送当前版本
func (h *FeedHub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("Feed websocket upgrade failed", zap.Error(err))
		return
	}

	updates, cancel := h.Counter.Subscribe()
	monitoring.FeedSubscribers.Inc()
	closed := make(chan struct{})

	go h.readPump(conn, closed, userID)
	go func() {
		defer func() {
			cancel()
			monitoring.FeedSubscribers.Dec()
		}()
		h.writePump(conn, updates, closed)
	}()
}

// readPump 只处理控制帧，客户端消息被丢弃
func (h *FeedHub) readPump(conn *websocket.Conn, closed chan<- struct{}, userID uint) {
	defer func() {
		close(closed)
		conn.Close()
	}()
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("Feed websocket unexpected close", zap.Error(err), zap.Uint("userId", userID))
			}
			return
		}
	}
}

func (h *FeedHub) writePump(conn *websocket.Conn, updates <-chan uint64, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	send := func(v uint64) bool {
		msg, err := feedVersionMessage(v)
		if err != nil {
			return false
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, msg) == nil
	}

	if !send(h.Counter.Value()) {
		return
	}
	for {
		select {
		case <-closed:
			return
		case v := <-updates:
			if !send(v) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
