package conversation

import (
	"sync"

	"github.com/google/uuid"

	"secassist/internal/models"
)

// Session holds one user's conversational state: the attached document, its
// chunks and vectors, and the append-only turn history. Sessions are owned by
// the caller and passed into every Manager call; there is no ambient global.
// The mutex serializes turns so answers append in question-submission order.
type Session struct {
	ID string

	mu           sync.Mutex
	documentText string
	chunks       []models.Chunk
	chunked      bool
	turns        []models.ChatTurn
}

func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// AttachDocument supplies extracted document text for this session. Chunks
// and vectors are rebuilt lazily on the next turn; they are never shared
// across sessions.
func (s *Session) AttachDocument(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documentText = text
	s.chunks = nil
	s.chunked = false
}
