package messaging

import (
	"context"
	"encoding/json"
	"time"

	"studynotes_backend/pkg/logger"

	"go.uber.org/zap"
)

const (
	EventFileUploaded  = "file.uploaded"
	EventQuizCompleted = "quiz.completed"
	EventNoteCreated   = "note.created"
)

// Event 领域事件，序列化为 JSON 投递
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

func NewEvent(eventType string, payload interface{}) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher 未启用消息队列时使用，只记录日志
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	logger.Log.Debug("Event published", zap.String("type", event.Type), zap.ByteString("body", body))
	return nil
}

func (LogPublisher) Close() error { return nil }
