package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNoteNotFound       = errors.New("note not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrQuizNotFound       = errors.New("quiz not found for this note")
	ErrQuizExists         = errors.New("quiz already exists for this note")
	ErrDeckNotFound       = errors.New("flashcards not found for this note")
	ErrDeckExists         = errors.New("flashcards already exist for this note")
	ErrSessionNotFound    = errors.New("practice session not found")
	ErrInvalidFileType    = errors.New("only image files are allowed")
	ErrFileTooLarge       = errors.New("file too large")
	ErrInvalidVote        = errors.New("vote must be -1, 0 or 1")
	ErrNoOCRText          = errors.New("selected files have no OCR text")
	ErrAIUnavailable      = errors.New("AI generation is not configured")
	ErrAIResponse         = errors.New("invalid AI response")
)
