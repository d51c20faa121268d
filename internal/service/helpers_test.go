package service

import (
	"context"
	"strings"
	"studynotes_backend/internal/config"
	"studynotes_backend/internal/model"
	"studynotes_backend/internal/repository"
	"studynotes_backend/internal/session"
	"studynotes_backend/pkg/database"
	"studynotes_backend/pkg/messaging"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32))

type fakeAI struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	return db
}

// testEnv 基于内存 sqlite 与本地存储组装的全部服务
type testEnv struct {
	db        *gorm.DB
	feed      *session.Counter
	publisher *recordingPublisher
	ai        *fakeAI
	store     *MemoryPracticeStore

	auth     *AuthService
	users    *UserService
	notes    *NoteService
	files    *FileService
	content  *ContentService
	practice *PracticeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	env := &testEnv{
		db:        db,
		feed:      session.NewCounter(),
		publisher: &recordingPublisher{},
		ai:        &fakeAI{},
		store:     NewMemoryPracticeStore(time.Hour),
	}

	userRepo := repository.NewUserRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	fileRepo := repository.NewFileRepository(db)
	storage := NewStorageService(&config.StorageConfig{Type: "local", LocalPath: t.TempDir()})

	env.auth = NewAuthService(userRepo, repository.NewTokenRepository(db), &config.JWTConfig{
		Secret:     "test-secret",
		ExpireTime: time.Hour,
	})
	env.users = NewUserService(userRepo, storage)
	env.notes = NewNoteService(noteRepo, fileRepo, env.feed, env.publisher)
	env.files = NewFileService(fileRepo, storage, env.publisher)
	env.content = NewContentService(repository.NewQuizRepository(db), repository.NewFlashcardRepository(db), env.notes, env.files, env.ai)
	env.practice = NewPracticeService(env.store, env.content, env.publisher)
	return env
}

func (e *testEnv) user(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := e.auth.Register(name, name+"@example.com", "password")
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func (e *testEnv) note(t *testing.T, userID uint, title string, public bool) *NoteResponse {
	t.Helper()
	n, err := e.notes.Create(context.Background(), userID, CreateNoteInput{Title: title, Content: title + " body", Public: public})
	if err != nil {
		t.Fatal(err)
	}
	return n
}
