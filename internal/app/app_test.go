package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"studynotes_backend/internal/config"
	"studynotes_backend/pkg/database"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubAI struct {
	reply string
}

func (s *stubAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	return s.reply, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t   *testing.T
	app *App
	ai  *stubAI
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	cfg.Storage.Type = "local"
	cfg.Storage.LocalPath = t.TempDir()
	cfg.Practice.Store = "memory"
	cfg.Practice.IdleTTLMinutes = 60
	cfg.RateLimit.MaxRequests = 1000
	cfg.RateLimit.WindowMinutes = 1

	ai := &stubAI{}
	app, err := New(cfg, Deps{DB: db, AI: ai})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { app.Close(context.Background()) })
	return &testServer{t: t, app: app, ai: ai}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var env envelope
	json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func (s *testServer) login(name string) string {
	s.t.Helper()
	code, _ := s.do(http.MethodPost, "/api/register", "", gin.H{"username": name, "email": name + "@example.com", "password": "password"})
	if code != http.StatusCreated {
		s.t.Fatalf("register %s: %d", name, code)
	}
	code, env := s.do(http.MethodPost, "/api/login", "", gin.H{"username": name, "password": "password"})
	if code != http.StatusOK {
		s.t.Fatalf("login %s: %d", name, code)
	}
	var data struct {
		Token string `json:"token"`
	}
	json.Unmarshal(env.Data, &data)
	return data.Token
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode %s: %v", env.Data, err)
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(http.MethodGet, "/api/health", "", nil); code != http.StatusOK {
		t.Fatalf("health = %d", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/user", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous = %d", code)
	}

	token := s.login("alice")
	code, env := s.do(http.MethodGet, "/api/user", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me = %d", code)
	}
	var me struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	decode(t, env, &me)
	if me.Username != "alice" || me.Email != "alice@example.com" {
		t.Fatalf("me = %+v", me)
	}

	if code, _ := s.do(http.MethodPost, "/api/register", "", gin.H{"username": "alice", "email": "x@example.com", "password": "p"}); code != http.StatusConflict {
		t.Fatalf("duplicate register = %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/login", "", gin.H{"username": "alice", "password": "nope"}); code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", code)
	}

	if code, _ := s.do(http.MethodPost, "/api/logout", token, nil); code != http.StatusOK {
		t.Fatalf("logout = %d", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/user", token, nil); code != http.StatusUnauthorized {
		t.Fatalf("after logout = %d", code)
	}
}

func TestNotesAndFeed(t *testing.T) {
	s := newTestServer(t)
	alice := s.login("alice")
	bob := s.login("bob")

	_, env := s.do(http.MethodGet, "/api/feed/version", bob, nil)
	var before struct {
		Version uint64 `json:"version"`
	}
	decode(t, env, &before)

	code, env := s.do(http.MethodPost, "/api/notes", alice, gin.H{"title": "Shared", "content": "body", "public": true})
	if code != http.StatusCreated {
		t.Fatalf("create = %d %s", code, env.Message)
	}
	var note struct {
		ID      uint   `json:"id"`
		Score   int    `json:"score"`
		FileIDs []uint `json:"fileIds"`
	}
	decode(t, env, &note)
	if note.FileIDs == nil {
		t.Fatal("fileIds should serialize as an empty list")
	}

	code, _ = s.do(http.MethodPost, "/api/notes", alice, gin.H{"title": "Private", "content": "secret"})
	if code != http.StatusCreated {
		t.Fatalf("create private = %d", code)
	}

	_, env = s.do(http.MethodGet, "/api/feed/version", bob, nil)
	var after struct {
		Version uint64 `json:"version"`
	}
	decode(t, env, &after)
	if after.Version <= before.Version {
		t.Fatalf("feed version did not advance: %d -> %d", before.Version, after.Version)
	}

	_, env = s.do(http.MethodGet, "/api/feed", bob, nil)
	var feed []struct {
		ID uint `json:"id"`
	}
	decode(t, env, &feed)
	if len(feed) != 1 || feed[0].ID != note.ID {
		t.Fatalf("feed = %+v", feed)
	}

	notePath := fmt.Sprintf("/api/notes/%d", note.ID)
	if code, _ := s.do(http.MethodPatch, notePath, bob, gin.H{"title": "mine now"}); code != http.StatusForbidden {
		t.Fatalf("foreign update = %d", code)
	}
	if code, _ := s.do(http.MethodPost, notePath+"/vote", bob, gin.H{"value": 5}); code != http.StatusBadRequest {
		t.Fatalf("invalid vote = %d", code)
	}
	code, env = s.do(http.MethodPost, notePath+"/vote", bob, gin.H{"value": 1})
	if code != http.StatusOK {
		t.Fatalf("vote = %d", code)
	}
	decode(t, env, &note)
	if note.Score != 1 {
		t.Fatalf("score = %d", note.Score)
	}

	code, env = s.do(http.MethodPost, notePath+"/bookmark", bob, nil)
	var toggled struct {
		Bookmarked bool `json:"bookmarked"`
	}
	decode(t, env, &toggled)
	if code != http.StatusOK || !toggled.Bookmarked {
		t.Fatalf("bookmark = %d %+v", code, toggled)
	}

	if code, _ := s.do(http.MethodGet, "/api/notes/abc", bob, nil); code != http.StatusBadRequest {
		t.Fatalf("bad id = %d", code)
	}
	if code, _ := s.do(http.MethodDelete, notePath, alice, nil); code != http.StatusOK {
		t.Fatalf("delete = %d", code)
	}
	if code, _ := s.do(http.MethodGet, notePath, alice, nil); code != http.StatusNotFound {
		t.Fatalf("deleted note = %d", code)
	}
}

func TestQuizPracticeOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.login("alice")
	s.ai.reply = `{"questions":[{"title":"1+1?","answers":["1","2"],"correct":1}]}`

	_, env := s.do(http.MethodPost, "/api/notes", alice, gin.H{"title": "Math", "content": "1+1=2"})
	var note struct {
		ID uint `json:"id"`
	}
	decode(t, env, &note)

	quizPath := fmt.Sprintf("/api/notes/%d/quiz", note.ID)
	if code, _ := s.do(http.MethodGet, quizPath, alice, nil); code != http.StatusNotFound {
		t.Fatalf("quiz before create = %d", code)
	}
	if code, _ := s.do(http.MethodPost, quizPath, alice, nil); code != http.StatusCreated {
		t.Fatalf("create quiz = %d", code)
	}
	if code, _ := s.do(http.MethodPost, quizPath, alice, nil); code != http.StatusConflict {
		t.Fatalf("second create = %d", code)
	}

	code, env := s.do(http.MethodPost, "/api/practice/quiz", alice, gin.H{"noteId": note.ID})
	if code != http.StatusCreated {
		t.Fatalf("start = %d %s", code, env.Message)
	}
	var started struct {
		SessionID string `json:"sessionId"`
	}
	decode(t, env, &started)
	base := "/api/practice/quiz/" + started.SessionID

	if code, _ := s.do(http.MethodPost, base+"/advance", alice, nil); code != http.StatusConflict {
		t.Fatalf("advance before answer = %d", code)
	}
	if code, _ := s.do(http.MethodPost, base+"/answer", alice, gin.H{"index": 9}); code != http.StatusBadRequest {
		t.Fatalf("out of range = %d", code)
	}
	if code, _ := s.do(http.MethodPost, base+"/answer", alice, gin.H{"index": 1}); code != http.StatusOK {
		t.Fatalf("answer = %d", code)
	}
	code, env = s.do(http.MethodPost, base+"/advance", alice, nil)
	var resp struct {
		State struct {
			Score    int  `json:"score"`
			Complete bool `json:"complete"`
		} `json:"state"`
	}
	decode(t, env, &resp)
	if code != http.StatusOK || !resp.State.Complete || resp.State.Score != 1 {
		t.Fatalf("advance = %d %+v", code, resp)
	}

	bob := s.login("bob")
	if code, _ := s.do(http.MethodGet, base, bob, nil); code != http.StatusNotFound {
		t.Fatalf("foreign session = %d", code)
	}
	if code, _ := s.do(http.MethodDelete, base, bob, nil); code != http.StatusNotFound {
		t.Fatalf("foreign end = %d", code)
	}
	if code, _ := s.do(http.MethodDelete, base, alice, nil); code != http.StatusOK {
		t.Fatalf("end = %d", code)
	}
	if code, _ := s.do(http.MethodGet, base, alice, nil); code != http.StatusNotFound {
		t.Fatalf("ended session = %d", code)
	}
}

func TestFileUploadOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.login("alice")

	png := []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32))
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "page.png")
	part.Write(png)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice)
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upload = %d %s", w.Code, w.Body.String())
	}

	var env envelope
	json.Unmarshal(w.Body.Bytes(), &env)
	var uploaded struct {
		Files []struct {
			ID uint `json:"id"`
		} `json:"files"`
	}
	decode(t, env, &uploaded)
	if len(uploaded.Files) != 1 {
		t.Fatalf("files = %+v", uploaded)
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/files/%d", uploaded.Files[0].ID), nil)
	req.Header.Set("Authorization", "Bearer "+alice)
	w = httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), png) {
		t.Fatalf("download = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestQueryTokenOnlyForFeedSocket(t *testing.T) {
	logs := &lockedBuffer{}
	prev := gin.DefaultWriter
	gin.DefaultWriter = logs
	t.Cleanup(func() { gin.DefaultWriter = prev })

	s := newTestServer(t)
	token := s.login("alice")

	req := httptest.NewRequest(http.MethodGet, "/api/notes?token="+token, nil)
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("query token on /api/notes = %d, want 401", w.Code)
	}

	srv := httptest.NewServer(s.app.Router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/feed/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial feed socket: %v", err)
	}
	var msg struct {
		Type string `json:"type"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	conn.Close()
	if msg.Type != "FEED_VERSION" {
		t.Fatalf("message type = %q", msg.Type)
	}

	if _, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/feed/ws?token=bogus", nil); err == nil {
		t.Fatal("bogus token accepted on feed socket")
	}

	if strings.Contains(logs.String(), token) {
		t.Fatal("access log contains the bearer token")
	}
}

func TestSwaggerDocCoversRoutes(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("doc.json = %d", w.Code)
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not valid json: %v", err)
	}

	for _, r := range s.app.Router.Routes() {
		if !strings.HasPrefix(r.Path, "/api/") {
			continue
		}
		parts := strings.Split(r.Path, "/")
		for i, p := range parts {
			if strings.HasPrefix(p, ":") {
				parts[i] = "{" + p[1:] + "}"
			}
		}
		path := strings.Join(parts, "/")
		if _, ok := doc.Paths[path][strings.ToLower(r.Method)]; !ok {
			t.Errorf("%s %s missing from swagger doc", r.Method, path)
		}
	}
}
