package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"studynotes_backend/internal/session"
	"studynotes_backend/internal/util"
	"studynotes_backend/pkg/logger"
	"studynotes_backend/pkg/messaging"
	"studynotes_backend/pkg/monitoring"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	FlashcardNext   = "next"
	FlashcardPrev   = "prev"
	FlashcardRandom = "random"
	FlashcardFlip   = "flip"
)

// QuizPracticeResponse swagger:model QuizPracticeResponse
type QuizPracticeResponse struct {
	SessionID string            `json:"sessionId"`
	NoteID    uint              `json:"noteId"`
	State     session.QuizState `json:"state"`
}

// FlashcardPracticeResponse swagger:model FlashcardPracticeResponse
type FlashcardPracticeResponse struct {
	SessionID string                 `json:"sessionId"`
	NoteID    uint                   `json:"noteId"`
	State     session.FlashcardState `json:"state"`
}

const lockStripes = 64

// PracticeService 服务端托管的答题与闪卡会话，只保存在 PracticeStore 中
type PracticeService struct {
	Store     PracticeStore
	Content   *ContentService
	Publisher messaging.Publisher
	// 测试时注入确定的随机源
	Random func(n int) int

	locks [lockStripes]sync.Mutex
}

func NewPracticeService(store PracticeStore, content *ContentService, publisher messaging.Publisher) *PracticeService {
	return &PracticeService{
		Store:     store,
		Content:   content,
		Publisher: publisher,
	}
}

// lock 同一会话的读改写串行执行
func (s *PracticeService) lock(id string) func() {
	h := fnv.New32a()
	h.Write([]byte(id))
	m := &s.locks[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

func (s *PracticeService) flashcardOptions() []session.FlashcardOption {
	if s.Random == nil {
		return nil
	}
	return []session.FlashcardOption{session.WithRandom(s.Random)}
}

// load 其他用户的会话视为不存在
func (s *PracticeService) load(ctx context.Context, userID uint, id string, kind PracticeKind) (*PracticeRecord, error) {
	rec, err := s.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID || rec.Kind != kind {
		return nil, util.ErrSessionNotFound
	}
	return rec, nil
}

func (s *PracticeService) StartQuiz(ctx context.Context, userID, noteID uint) (*QuizPracticeResponse, error) {
	questions, err := s.Content.QuizQuestions(noteID, userID)
	if err != nil {
		return nil, err
	}
	quiz, err := session.NewQuizSession(questions)
	if err != nil {
		return nil, fmt.Errorf("start quiz: %w", err)
	}

	exported := quiz.Export()
	rec := &PracticeRecord{
		ID:     uuid.NewString(),
		Kind:   PracticeQuiz,
		UserID: userID,
		NoteID: noteID,
		Quiz:   &exported,
	}
	if err := s.Store.Save(ctx, rec); err != nil {
		return nil, err
	}
	monitoring.PracticeEvents.WithLabelValues(string(PracticeQuiz), "start").Inc()
	return &QuizPracticeResponse{SessionID: rec.ID, NoteID: noteID, State: quiz.State()}, nil
}

func (s *PracticeService) GetQuiz(ctx context.Context, userID uint, id string) (*QuizPracticeResponse, error) {
	rec, err := s.load(ctx, userID, id, PracticeQuiz)
	if err != nil {
		return nil, err
	}
	quiz, err := session.RestoreQuizSession(*rec.Quiz)
	if err != nil {
		return nil, err
	}
	return &QuizPracticeResponse{SessionID: rec.ID, NoteID: rec.NoteID, State: quiz.State()}, nil
}

func (s *PracticeService) AnswerQuiz(ctx context.Context, userID uint, id string, index int) (*QuizPracticeResponse, error) {
	return s.mutateQuiz(ctx, userID, id, "answer", func(q *session.QuizSession) error {
		return q.SelectAnswer(index)
	})
}

func (s *PracticeService) AdvanceQuiz(ctx context.Context, userID uint, id string) (*QuizPracticeResponse, error) {
	return s.mutateQuiz(ctx, userID, id, "advance", func(q *session.QuizSession) error {
		return q.Advance()
	})
}

func (s *PracticeService) RestartQuiz(ctx context.Context, userID uint, id string) (*QuizPracticeResponse, error) {
	return s.mutateQuiz(ctx, userID, id, "restart", func(q *session.QuizSession) error {
		q.Restart()
		return nil
	})
}

func (s *PracticeService) mutateQuiz(ctx context.Context, userID uint, id, event string, op func(*session.QuizSession) error) (*QuizPracticeResponse, error) {
	defer s.lock(id)()

	rec, err := s.load(ctx, userID, id, PracticeQuiz)
	if err != nil {
		return nil, err
	}
	quiz, err := session.RestoreQuizSession(*rec.Quiz)
	if err != nil {
		return nil, err
	}

	wasComplete := quiz.Complete()
	if err := op(quiz); err != nil {
		return nil, err
	}

	exported := quiz.Export()
	rec.Quiz = &exported
	if err := s.Store.Save(ctx, rec); err != nil {
		return nil, err
	}
	monitoring.PracticeEvents.WithLabelValues(string(PracticeQuiz), event).Inc()

	if !wasComplete && quiz.Complete() {
		s.publishCompleted(ctx, rec, quiz)
	}
	return &QuizPracticeResponse{SessionID: rec.ID, NoteID: rec.NoteID, State: quiz.State()}, nil
}

func (s *PracticeService) publishCompleted(ctx context.Context, rec *PracticeRecord, quiz *session.QuizSession) {
	monitoring.PracticeEvents.WithLabelValues(string(PracticeQuiz), "complete").Inc()
	err := s.Publisher.Publish(ctx, messaging.NewEvent(messaging.EventQuizCompleted, map[string]interface{}{
		"sessionId": rec.ID,
		"userId":    rec.UserID,
		"noteId":    rec.NoteID,
		"score":     quiz.Score(),
		"total":     quiz.Total(),
	}))
	if err != nil {
		logger.Log.Warn("Failed to publish quiz completion", zap.String("sessionID", rec.ID), zap.Error(err))
	}
}

func (s *PracticeService) StartFlashcards(ctx context.Context, userID, noteID uint) (*FlashcardPracticeResponse, error) {
	cards, err := s.Content.Cards(noteID, userID)
	if err != nil {
		return nil, err
	}
	deck := session.NewFlashcardSession(cards, s.flashcardOptions()...)

	exported := deck.Export()
	rec := &PracticeRecord{
		ID:         uuid.NewString(),
		Kind:       PracticeFlashcards,
		UserID:     userID,
		NoteID:     noteID,
		Flashcards: &exported,
	}
	if err := s.Store.Save(ctx, rec); err != nil {
		return nil, err
	}
	monitoring.PracticeEvents.WithLabelValues(string(PracticeFlashcards), "start").Inc()
	return &FlashcardPracticeResponse{SessionID: rec.ID, NoteID: noteID, State: deck.State()}, nil
}

func (s *PracticeService) GetFlashcards(ctx context.Context, userID uint, id string) (*FlashcardPracticeResponse, error) {
	rec, err := s.load(ctx, userID, id, PracticeFlashcards)
	if err != nil {
		return nil, err
	}
	deck, err := session.RestoreFlashcardSession(*rec.Flashcards, s.flashcardOptions()...)
	if err != nil {
		return nil, err
	}
	return &FlashcardPracticeResponse{SessionID: rec.ID, NoteID: rec.NoteID, State: deck.State()}, nil
}

// StepFlashcards action 取 next、prev、random 或 flip
func (s *PracticeService) StepFlashcards(ctx context.Context, userID uint, id, action string) (*FlashcardPracticeResponse, error) {
	defer s.lock(id)()

	rec, err := s.load(ctx, userID, id, PracticeFlashcards)
	if err != nil {
		return nil, err
	}
	deck, err := session.RestoreFlashcardSession(*rec.Flashcards, s.flashcardOptions()...)
	if err != nil {
		return nil, err
	}

	switch action {
	case FlashcardNext:
		deck.Next()
	case FlashcardPrev:
		deck.Prev()
	case FlashcardRandom:
		deck.Random()
	case FlashcardFlip:
		deck.Flip()
	default:
		return nil, fmt.Errorf("%w: unknown flashcard action %q", session.ErrInvalidState, action)
	}

	exported := deck.Export()
	rec.Flashcards = &exported
	if err := s.Store.Save(ctx, rec); err != nil {
		return nil, err
	}
	monitoring.PracticeEvents.WithLabelValues(string(PracticeFlashcards), action).Inc()
	return &FlashcardPracticeResponse{SessionID: rec.ID, NoteID: rec.NoteID, State: deck.State()}, nil
}

// Sweep 由定时任务调用
// End 用户主动结束练习，会话立即从存储中移除
func (s *PracticeService) End(ctx context.Context, userID uint, id string, kind PracticeKind) error {
	defer s.lock(id)()

	if _, err := s.load(ctx, userID, id, kind); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return fmt.Errorf("end practice: %w", err)
	}
	monitoring.PracticeEvents.WithLabelValues(string(kind), "end").Inc()
	return nil
}

func (s *PracticeService) Sweep(ctx context.Context) (int, error) {
	return s.Store.Sweep(ctx, time.Now())
}
