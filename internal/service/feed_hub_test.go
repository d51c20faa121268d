package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"studynotes_backend/internal/session"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func readVersion(t *testing.T, conn *websocket.Conn) uint64 {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string      `json:"type"`
		Data FeedVersion `json:"data"`
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != MessageFeedVersion {
		t.Fatalf("type = %q", msg.Type)
	}
	return msg.Data.Version
}

func TestFeedHubPushesVersions(t *testing.T) {
	counter := session.NewCounter()
	counter.ForceUpdate()
	hub := NewFeedHub(counter)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, 1)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if v := readVersion(t, conn); v != 1 {
		t.Fatalf("initial version = %d", v)
	}

	counter.ForceUpdate()
	if v := readVersion(t, conn); v != 2 {
		t.Fatalf("pushed version = %d", v)
	}

	if hub.Version().Version != 2 {
		t.Fatalf("Version() = %d", hub.Version().Version)
	}
}
