package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"studynotes_backend/internal/model"
	"studynotes_backend/internal/repository"
	"studynotes_backend/internal/session"
	"studynotes_backend/internal/util"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	quizSystemPrompt = "You are a quiz generator. Given a note content, create 5-10 multiple choice questions to test understanding. " +
		`Return ONLY valid JSON in this exact format: {"questions": [{"title": "question text", "answers": ["option1", "option2", "option3", "option4"], "correct": 0}]} ` +
		"where 'correct' is the zero-based index of the correct answer. Each question must have exactly 4 answer options. " +
		"Do not include any explanations, markdown, or text outside the JSON."

	flashcardSystemPrompt = "You are a flashcard generator. Given a note content, create 5-20 flashcards covering its key facts. " +
		`Return ONLY valid JSON in this exact format: {"cards": [{"front": "term or question", "back": "definition or answer"}]}. ` +
		"Keep each side short. Do not include any text outside the JSON."

	noteSystemPrompt = "You turn raw OCR text from photographed study material into a clean study note. " +
		"Fix recognition errors, keep the original language, and structure the content with markdown headings and lists. " +
		`Return ONLY valid JSON in this exact format: {"title": "short title", "content": "markdown body"}.`

	maxQuizQuestions = 10
	maxFlashcards    = 50
)

// QuestionDTO swagger:model QuestionDTO
type QuestionDTO struct {
	Title   string   `json:"title"`
	Answers []string `json:"answers"`
	Correct int      `json:"correct"`
}

// QuizResponse swagger:model QuizResponse
type QuizResponse struct {
	ID        uint          `json:"id"`
	Questions []QuestionDTO `json:"questions"`
}

// CardDTO swagger:model CardDTO
type CardDTO struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// DeckResponse swagger:model DeckResponse
type DeckResponse struct {
	ID    uint      `json:"id"`
	Cards []CardDTO `json:"cards"`
}

// ContentService 笔记衍生的学习内容：测验、闪卡与 AI 生成的笔记
type ContentService struct {
	QuizRepo      *repository.QuizRepository
	FlashcardRepo *repository.FlashcardRepository
	Notes         *NoteService
	Files         *FileService
	AI            AIClient
}

func NewContentService(quizRepo *repository.QuizRepository, flashcardRepo *repository.FlashcardRepository, notes *NoteService, files *FileService, ai AIClient) *ContentService {
	return &ContentService{
		QuizRepo:      quizRepo,
		FlashcardRepo: flashcardRepo,
		Notes:         notes,
		Files:         files,
		AI:            ai,
	}
}

func (s *ContentService) GetQuiz(noteID, userID uint) (*QuizResponse, error) {
	if _, err := s.Notes.FindVisible(noteID, userID); err != nil {
		return nil, err
	}
	quiz, err := s.QuizRepo.FindByNote(noteID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return toQuizResponse(quiz), nil
}

func toQuizResponse(quiz *model.Quiz) *QuizResponse {
	resp := &QuizResponse{ID: quiz.ID, Questions: make([]QuestionDTO, 0, len(quiz.Questions))}
	for _, q := range quiz.Questions {
		resp.Questions = append(resp.Questions, QuestionDTO{Title: q.Title, Answers: q.Answers, Correct: q.Correct})
	}
	return resp
}

// QuizQuestions 练习会话使用的题目
func (s *ContentService) QuizQuestions(noteID, userID uint) ([]session.Question, error) {
	quiz, err := s.GetQuiz(noteID, userID)
	if err != nil {
		return nil, err
	}
	questions := make([]session.Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, session.Question{Text: q.Title, Answers: q.Answers, CorrectIndex: q.Correct})
	}
	return questions, nil
}

// CreateQuiz 仅笔记作者可生成，且每篇笔记只有一份
func (s *ContentService) CreateQuiz(ctx context.Context, noteID, userID uint) (*QuizResponse, error) {
	note, err := s.Notes.FindOwned(noteID, userID)
	if err != nil {
		return nil, err
	}
	exists, err := s.QuizRepo.ExistsForNote(noteID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrQuizExists
	}

	raw, err := s.AI.Complete(ctx, quizSystemPrompt, "Generate a quiz from this note:\n\n"+note.Content)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	var parsed struct {
		Questions []QuestionDTO `json:"questions"`
	}
	if err := decodeAIJSON(raw, &parsed); err != nil {
		return nil, err
	}
	questions, err := validateQuestions(parsed.Questions)
	if err != nil {
		return nil, err
	}

	quiz := &model.Quiz{NoteID: note.ID, Questions: questions}
	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	return toQuizResponse(quiz), nil
}

func validateQuestions(in []QuestionDTO) ([]model.QuizQuestion, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: no questions", util.ErrAIResponse)
	}
	if len(in) > maxQuizQuestions {
		in = in[:maxQuizQuestions]
	}
	out := make([]model.QuizQuestion, 0, len(in))
	for i, q := range in {
		title := strings.TrimSpace(q.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: question %d has no title", util.ErrAIResponse, i)
		}
		candidate := session.Question{Text: title, Answers: q.Answers, CorrectIndex: q.Correct}
		if err := candidate.Validate(); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", util.ErrAIResponse, i, err)
		}
		out = append(out, model.QuizQuestion{Title: title, Answers: q.Answers, Correct: q.Correct})
	}
	return out, nil
}

func (s *ContentService) GetDeck(noteID, userID uint) (*DeckResponse, error) {
	if _, err := s.Notes.FindVisible(noteID, userID); err != nil {
		return nil, err
	}
	deck, err := s.FlashcardRepo.FindByNote(noteID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrDeckNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDeckResponse(deck), nil
}

func toDeckResponse(deck *model.FlashcardDeck) *DeckResponse {
	resp := &DeckResponse{ID: deck.ID, Cards: make([]CardDTO, 0, len(deck.Cards))}
	for _, c := range deck.Cards {
		resp.Cards = append(resp.Cards, CardDTO{Front: c.Front, Back: c.Back})
	}
	return resp
}

func (s *ContentService) Cards(noteID, userID uint) ([]session.Card, error) {
	deck, err := s.GetDeck(noteID, userID)
	if err != nil {
		return nil, err
	}
	cards := make([]session.Card, 0, len(deck.Cards))
	for _, c := range deck.Cards {
		cards = append(cards, session.Card{Front: c.Front, Back: c.Back})
	}
	return cards, nil
}

func (s *ContentService) CreateDeck(ctx context.Context, noteID, userID uint) (*DeckResponse, error) {
	note, err := s.Notes.FindOwned(noteID, userID)
	if err != nil {
		return nil, err
	}
	exists, err := s.FlashcardRepo.ExistsForNote(noteID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrDeckExists
	}

	raw, err := s.AI.Complete(ctx, flashcardSystemPrompt, "Generate flashcards from this note:\n\n"+note.Content)
	if err != nil {
		return nil, fmt.Errorf("generate flashcards: %w", err)
	}

	var parsed struct {
		Cards []CardDTO `json:"cards"`
	}
	if err := decodeAIJSON(raw, &parsed); err != nil {
		return nil, err
	}

	cards := make([]model.Flashcard, 0, len(parsed.Cards))
	for _, c := range parsed.Cards {
		front, back := strings.TrimSpace(c.Front), strings.TrimSpace(c.Back)
		if front == "" || back == "" {
			continue
		}
		cards = append(cards, model.Flashcard{Front: front, Back: back})
		if len(cards) == maxFlashcards {
			break
		}
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: no usable flashcards", util.ErrAIResponse)
	}

	deck := &model.FlashcardDeck{NoteID: note.ID, Cards: cards}
	if err := s.FlashcardRepo.Create(deck); err != nil {
		return nil, fmt.Errorf("create flashcards: %w", err)
	}
	return toDeckResponse(deck), nil
}

// ExportDeck 导出为 xlsx，第一行为表头
func (s *ContentService) ExportDeck(noteID, userID uint) ([]byte, error) {
	deck, err := s.GetDeck(noteID, userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Flashcards"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Front", "Back"}); err != nil {
		return nil, err
	}
	for i, c := range deck.Cards {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{c.Front, c.Back}); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheet, "A", "B", 40); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateNote 由文件的 OCR 文本生成一篇私有笔记
func (s *ContentService) GenerateNote(ctx context.Context, userID uint, fileIDs []uint, title string) (*NoteResponse, error) {
	text, err := s.Files.OCRText(userID, fileIDs)
	if err != nil {
		return nil, err
	}

	raw, err := s.AI.Complete(ctx, noteSystemPrompt, "OCR text:\n\n"+text)
	if err != nil {
		return nil, fmt.Errorf("generate note: %w", err)
	}

	var parsed struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeAIJSON(raw, &parsed); err != nil {
		return nil, err
	}
	if strings.TrimSpace(parsed.Content) == "" {
		return nil, fmt.Errorf("%w: empty note content", util.ErrAIResponse)
	}

	if title = strings.TrimSpace(title); title == "" {
		title = strings.TrimSpace(parsed.Title)
	}
	if title == "" {
		title = "Untitled"
	}

	return s.Notes.Create(ctx, userID, CreateNoteInput{
		Title:   title,
		Content: parsed.Content,
		FileIDs: fileIDs,
	})
}
