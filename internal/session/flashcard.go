package session

import (
	"fmt"
	"math/rand/v2"
)

type Card struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// FlashcardSession 闪卡会话，导航循环且与对错无关
type FlashcardSession struct {
	cards        []Card
	currentIndex int
	showingBack  bool
	intn         func(n int) int
}

type FlashcardOption func(*FlashcardSession)

// WithRandom 替换随机数来源，测试中使用
func WithRandom(intn func(n int) int) FlashcardOption {
	return func(s *FlashcardSession) {
		if intn != nil {
			s.intn = intn
		}
	}
}

// NewFlashcardSession 允许空卡组，此时所有导航操作为空操作
func NewFlashcardSession(cards []Card, opts ...FlashcardOption) *FlashcardSession {
	copied := make([]Card, len(cards))
	copy(copied, cards)

	s := &FlashcardSession{
		cards: copied,
		intn:  rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlashcardSession) Empty() bool { return len(s.cards) == 0 }

func (s *FlashcardSession) Len() int { return len(s.cards) }

func (s *FlashcardSession) Index() int { return s.currentIndex }

func (s *FlashcardSession) ShowingBack() bool { return s.showingBack }

func (s *FlashcardSession) Current() (Card, bool) {
	if s.Empty() {
		return Card{}, false
	}
	return s.cards[s.currentIndex], true
}

func (s *FlashcardSession) Next() {
	if s.Empty() {
		return
	}
	s.moveTo((s.currentIndex + 1) % len(s.cards))
}

func (s *FlashcardSession) Prev() {
	if s.Empty() {
		return
	}
	s.moveTo((s.currentIndex - 1 + len(s.cards)) % len(s.cards))
}

// Random 均匀随机选卡，可能与当前相同
func (s *FlashcardSession) Random() {
	if s.Empty() {
		return
	}
	s.moveTo(s.intn(len(s.cards)))
}

func (s *FlashcardSession) Flip() {
	if s.Empty() {
		return
	}
	s.showingBack = !s.showingBack
}

func (s *FlashcardSession) moveTo(index int) {
	s.currentIndex = index
	s.showingBack = false
}

type FlashcardState struct {
	Empty        bool   `json:"empty"`
	CurrentIndex int    `json:"currentIndex"`
	Total        int    `json:"total"`
	ShowingBack  bool   `json:"showingBack"`
	Front        string `json:"front,omitempty"`
	Back         string `json:"back,omitempty"`
}

func (s *FlashcardSession) State() FlashcardState {
	state := FlashcardState{
		Empty:        s.Empty(),
		CurrentIndex: s.currentIndex,
		Total:        len(s.cards),
		ShowingBack:  s.showingBack,
	}
	if card, ok := s.Current(); ok {
		state.Front = card.Front
		state.Back = card.Back
	}
	return state
}

type FlashcardRecord struct {
	Cards        []Card `json:"cards"`
	CurrentIndex int    `json:"currentIndex"`
	ShowingBack  bool   `json:"showingBack"`
}

func (s *FlashcardSession) Export() FlashcardRecord {
	cards := make([]Card, len(s.cards))
	copy(cards, s.cards)
	return FlashcardRecord{
		Cards:        cards,
		CurrentIndex: s.currentIndex,
		ShowingBack:  s.showingBack,
	}
}

func RestoreFlashcardSession(rec FlashcardRecord, opts ...FlashcardOption) (*FlashcardSession, error) {
	s := NewFlashcardSession(rec.Cards, opts...)
	if s.Empty() {
		if rec.CurrentIndex != 0 || rec.ShowingBack {
			return nil, fmt.Errorf("%w: state on empty deck", ErrInvalidRecord)
		}
		return s, nil
	}
	if rec.CurrentIndex < 0 || rec.CurrentIndex >= len(s.cards) {
		return nil, fmt.Errorf("%w: current index %d", ErrInvalidRecord, rec.CurrentIndex)
	}
	s.currentIndex = rec.CurrentIndex
	s.showingBack = rec.ShowingBack
	return s, nil
}
