package service

import (
	"context"
	"encoding/json"
	"errors"
	"studynotes_backend/internal/session"
	"studynotes_backend/internal/util"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

type PracticeKind string

const (
	PracticeQuiz       PracticeKind = "quiz"
	PracticeFlashcards PracticeKind = "flashcards"
)

// PracticeRecord 可持久化的练习会话，Quiz 与 Flashcards 二选一
type PracticeRecord struct {
	ID         string                   `json:"id"`
	Kind       PracticeKind             `json:"kind"`
	UserID     uint                     `json:"userId"`
	NoteID     uint                     `json:"noteId"`
	Quiz       *session.QuizRecord      `json:"quiz,omitempty"`
	Flashcards *session.FlashcardRecord `json:"flashcards,omitempty"`
	UpdatedAt  time.Time                `json:"updatedAt"`
}

// PracticeStore 不存在或已过期时 Load 返回 util.ErrSessionNotFound
type PracticeStore interface {
	Save(ctx context.Context, rec *PracticeRecord) error
	Load(ctx context.Context, id string) (*PracticeRecord, error)
	Delete(ctx context.Context, id string) error
	// Sweep 清理闲置超时的会话，返回清理数量
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type MemoryPracticeStore struct {
	mu      sync.Mutex
	records map[string]PracticeRecord
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryPracticeStore(ttl time.Duration) *MemoryPracticeStore {
	return &MemoryPracticeStore{
		records: make(map[string]PracticeRecord),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryPracticeStore) Save(ctx context.Context, rec *PracticeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.UpdatedAt = s.now()
	s.records[rec.ID] = *rec
	return nil
}

func (s *MemoryPracticeStore) Load(ctx context.Context, id string) (*PracticeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || s.expired(rec, s.now()) {
		return nil, util.ErrSessionNotFound
	}
	return &rec, nil
}

func (s *MemoryPracticeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryPracticeStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.records {
		if s.expired(rec, now) {
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryPracticeStore) expired(rec PracticeRecord, now time.Time) bool {
	return s.ttl > 0 && now.Sub(rec.UpdatedAt) > s.ttl
}

// RedisPracticeStore 以 JSON 保存，过期交给 Redis TTL
type RedisPracticeStore struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func NewRedisPracticeStore(client *redis.Client, ttl time.Duration) *RedisPracticeStore {
	return &RedisPracticeStore{Client: client, TTL: ttl, Prefix: "practice:"}
}

func (s *RedisPracticeStore) Save(ctx context.Context, rec *PracticeRecord) error {
	rec.UpdatedAt = time.Now()
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, s.Prefix+rec.ID, data, s.TTL).Err()
}

func (s *RedisPracticeStore) Load(ctx context.Context, id string) (*PracticeRecord, error) {
	data, err := s.Client.Get(ctx, s.Prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec PracticeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisPracticeStore) Delete(ctx context.Context, id string) error {
	return s.Client.Del(ctx, s.Prefix+id).Err()
}

func (s *RedisPracticeStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
