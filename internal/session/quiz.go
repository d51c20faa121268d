package session

import (
	"errors"
	"fmt"
)

var (
	ErrNoQuestions      = errors.New("quiz has no questions")
	ErrInvalidQuestion  = errors.New("invalid question")
	ErrInvalidState     = errors.New("operation not allowed in current state")
	ErrAnswerOutOfRange = errors.New("answer index out of range")
	ErrInvalidRecord    = errors.New("invalid session record")
)

const noSelection = -1

// Question 单道选择题，会话内不可变
type Question struct {
	Text         string   `json:"text"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correctIndex"`
}

func (q Question) Validate() error {
	if len(q.Answers) < 2 {
		return fmt.Errorf("%w: need at least 2 answers, got %d", ErrInvalidQuestion, len(q.Answers))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Answers) {
		return fmt.Errorf("%w: correct index %d outside [0,%d)", ErrInvalidQuestion, q.CorrectIndex, len(q.Answers))
	}
	return nil
}

// QuizSession 答题会话状态机
type QuizSession struct {
	questions     []Question
	currentIndex  int
	score         int
	streak        int
	answered      bool
	selectedIndex int
	complete      bool
}

func NewQuizSession(questions []Question) (*QuizSession, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	copied := make([]Question, len(questions))
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		answers := make([]string, len(q.Answers))
		copy(answers, q.Answers)
		copied[i] = Question{Text: q.Text, Answers: answers, CorrectIndex: q.CorrectIndex}
	}

	return &QuizSession{
		questions:     copied,
		selectedIndex: noSelection,
	}, nil
}

// SelectAnswer 作答当前题目；已作答或已完成时返回 ErrInvalidState，状态不变
func (s *QuizSession) SelectAnswer(index int) error {
	if s.answered || s.complete {
		return ErrInvalidState
	}

	q := s.questions[s.currentIndex]
	if index < 0 || index >= len(q.Answers) {
		return fmt.Errorf("%w: %d", ErrAnswerOutOfRange, index)
	}

	s.selectedIndex = index
	s.answered = true
	if index == q.CorrectIndex {
		s.score++
		s.streak++
	} else {
		s.streak = 0
	}
	return nil
}

// Advance 进入下一题，最后一题时标记完成
func (s *QuizSession) Advance() error {
	if !s.answered || s.complete {
		return ErrInvalidState
	}

	if s.currentIndex == len(s.questions)-1 {
		s.complete = true
		return nil
	}

	s.currentIndex++
	s.answered = false
	s.selectedIndex = noSelection
	return nil
}

func (s *QuizSession) Restart() {
	s.currentIndex = 0
	s.score = 0
	s.streak = 0
	s.answered = false
	s.selectedIndex = noSelection
	s.complete = false
}

func (s *QuizSession) Score() int     { return s.score }
func (s *QuizSession) Streak() int    { return s.streak }
func (s *QuizSession) Complete() bool { return s.complete }
func (s *QuizSession) Total() int     { return len(s.questions) }

// QuizState 渲染用的只读视图
type QuizState struct {
	CurrentIndex  int      `json:"currentIndex"`
	Total         int      `json:"total"`
	Score         int      `json:"score"`
	Streak        int      `json:"streak"`
	Answered      bool     `json:"answered"`
	Complete      bool     `json:"complete"`
	Question      string   `json:"question"`
	Answers       []string `json:"answers"`
	SelectedIndex *int     `json:"selectedIndex"`
	// 仅在作答后公开
	CorrectIndex *int `json:"correctIndex"`
}

func (s *QuizSession) State() QuizState {
	q := s.questions[s.currentIndex]
	answers := make([]string, len(q.Answers))
	copy(answers, q.Answers)

	state := QuizState{
		CurrentIndex: s.currentIndex,
		Total:        len(s.questions),
		Score:        s.score,
		Streak:       s.streak,
		Answered:     s.answered,
		Complete:     s.complete,
		Question:     q.Text,
		Answers:      answers,
	}
	if s.answered {
		selected := s.selectedIndex
		correct := q.CorrectIndex
		state.SelectedIndex = &selected
		state.CorrectIndex = &correct
	}
	return state
}

// QuizRecord 完整可序列化状态，供会话存储使用
type QuizRecord struct {
	Questions     []Question `json:"questions"`
	CurrentIndex  int        `json:"currentIndex"`
	Score         int        `json:"score"`
	Streak        int        `json:"streak"`
	Answered      bool       `json:"answered"`
	SelectedIndex int        `json:"selectedIndex"`
	Complete      bool       `json:"complete"`
}

func (s *QuizSession) Export() QuizRecord {
	questions := make([]Question, len(s.questions))
	copy(questions, s.questions)
	return QuizRecord{
		Questions:     questions,
		CurrentIndex:  s.currentIndex,
		Score:         s.score,
		Streak:        s.streak,
		Answered:      s.answered,
		SelectedIndex: s.selectedIndex,
		Complete:      s.complete,
	}
}

func RestoreQuizSession(rec QuizRecord) (*QuizSession, error) {
	s, err := NewQuizSession(rec.Questions)
	if err != nil {
		return nil, err
	}

	if rec.CurrentIndex < 0 || rec.CurrentIndex >= len(s.questions) {
		return nil, fmt.Errorf("%w: current index %d", ErrInvalidRecord, rec.CurrentIndex)
	}
	answeredCount := rec.CurrentIndex
	if rec.Answered {
		answeredCount++
	}
	if rec.Score < 0 || rec.Score > answeredCount || rec.Streak < 0 || rec.Streak > rec.Score {
		return nil, fmt.Errorf("%w: score %d streak %d", ErrInvalidRecord, rec.Score, rec.Streak)
	}
	if rec.Complete && (!rec.Answered || rec.CurrentIndex != len(s.questions)-1) {
		return nil, fmt.Errorf("%w: complete before last answer", ErrInvalidRecord)
	}
	if rec.Answered {
		if rec.SelectedIndex < 0 || rec.SelectedIndex >= len(s.questions[rec.CurrentIndex].Answers) {
			return nil, fmt.Errorf("%w: selected index %d", ErrInvalidRecord, rec.SelectedIndex)
		}
	} else if rec.SelectedIndex != noSelection {
		return nil, fmt.Errorf("%w: selection without answer", ErrInvalidRecord)
	}

	s.currentIndex = rec.CurrentIndex
	s.score = rec.Score
	s.streak = rec.Streak
	s.answered = rec.Answered
	s.selectedIndex = rec.SelectedIndex
	s.complete = rec.Complete
	return s, nil
}
