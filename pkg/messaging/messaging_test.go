package messaging

import (
	"context"
	"encoding/json"
	"testing"
)

func TestEventJSONShape(t *testing.T) {
	ev := NewEvent(EventQuizCompleted, map[string]int{"score": 3})
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["type"] != EventQuizCompleted {
		t.Fatalf("type = %v", decoded["type"])
	}
	if _, ok := decoded["occurredAt"]; !ok {
		t.Fatal("missing occurredAt")
	}
}

func TestLogPublisher(t *testing.T) {
	var p Publisher = LogPublisher{}
	if err := p.Publish(context.Background(), NewEvent(EventFileUploaded, nil)); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}
