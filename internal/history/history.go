package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Message is one turn of a chat transcript.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Session is a persisted chat transcript.
type Session struct {
	ChatID    string    `json:"chat_id"`
	Timestamp time.Time `json:"timestamp"`
	Messages  []Message `json:"messages"`
}

// NewSession starts an empty session with a fresh ID.
func NewSession() *Session {
	return &Session{ChatID: uuid.NewString(), Timestamp: time.Now()}
}

// Append records one message with the current wall-clock time.
func (s *Session) Append(role, content string) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Format("15:04:05"),
	})
}

// Save writes the session under dir; sessions with no messages are not
// persisted.
func Save(dir string, s *Session) error {
	if len(s.Messages) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.Timestamp = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(dir, s.ChatID), data, 0o644)
}

// Load reads a previously saved session by ID.
func Load(dir, chatID string) (*Session, error) {
	data, err := os.ReadFile(sessionPath(dir, chatID))
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode chat %s: %w", chatID, err)
	}
	return &s, nil
}

func sessionPath(dir, chatID string) string {
	return filepath.Join(dir, "chat_"+chatID+".json")
}
