package model

// Quiz 每篇笔记至多一份测验
type Quiz struct {
	BaseModel
	NoteID    uint           `gorm:"uniqueIndex;not null" json:"noteId"`
	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type QuizQuestion struct {
	ID       uint     `gorm:"primaryKey;autoIncrement" json:"-"`
	QuizID   uint     `gorm:"index;not null" json:"-"`
	Position int      `gorm:"not null" json:"-"`
	Title    string   `gorm:"type:text;not null" json:"title"`
	Answers  []string `gorm:"serializer:json;type:text" json:"answers"`
	Correct  int      `gorm:"not null" json:"correct"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

type FlashcardDeck struct {
	BaseModel
	NoteID uint        `gorm:"uniqueIndex;not null" json:"noteId"`
	Cards  []Flashcard `gorm:"foreignKey:DeckID" json:"cards"`
}

func (FlashcardDeck) TableName() string {
	return "flashcard_decks"
}

type Flashcard struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	DeckID   uint   `gorm:"index;not null" json:"-"`
	Position int    `gorm:"not null" json:"-"`
	Front    string `gorm:"type:text;not null" json:"front"`
	Back     string `gorm:"type:text;not null" json:"back"`
}

func (Flashcard) TableName() string {
	return "flashcards"
}
