package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"secassist/internal/analysis"
	"secassist/internal/chunker"
	"secassist/internal/embedding"
	"secassist/internal/gateway"
	"secassist/internal/models"
	"secassist/internal/retriever"
)

const defaultContextBudget = 12000 // characters

// Generator dispatches an assembled prompt to a model backend.
type Generator interface {
	Generate(ctx context.Context, req gateway.Request) (string, error)
}

// MemoryStore is durable single-slot persistence for conversation memory.
type MemoryStore interface {
	Save(ctx context.Context, contextText string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Request is one question submitted to a session.
type Request struct {
	Question string
	Persona  string
	Model    string

	// AllowDegraded answers from history alone when embedding fails, instead
	// of aborting the turn.
	AllowDegraded bool
}

// Manager orchestrates question/answer turns: it merges persisted memory,
// prior analysis results and the best-matching document chunk into a bounded
// prompt, dispatches it, and commits the turn. A failed turn is invisible to
// future context: no ChatTurn is appended and memory is not touched.
type Manager struct {
	splitter chunker.Splitter
	embedder embedding.Provider
	gen      Generator
	store    MemoryStore
	analyses analysis.Source // optional
	budget   int
}

func NewManager(splitter chunker.Splitter, embedder embedding.Provider, gen Generator, store MemoryStore, analyses analysis.Source, budget int) *Manager {
	if budget <= 0 {
		budget = defaultContextBudget
	}
	return &Manager{
		splitter: splitter,
		embedder: embedder,
		gen:      gen,
		store:    store,
		analyses: analyses,
		budget:   budget,
	}
}

// Ask runs one full turn to completion. Turns on the same session are
// serialized, so answers are appended in the order questions were submitted.
func (m *Manager) Ask(ctx context.Context, s *Session, req Request) (models.ChatTurn, error) {
	persona, err := ParsePersona(req.Persona)
	if err != nil {
		return models.ChatTurn{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	baseContext, memory, err := m.buildBaseContext(ctx)
	if err != nil {
		return models.ChatTurn{}, err
	}

	if s.documentText != "" {
		passage, err := m.retrievePassage(ctx, s, req.Question)
		if err != nil {
			if !req.AllowDegraded {
				return models.ChatTurn{}, err
			}
			log.Warn().Err(err).Str("session", s.ID).Msg("retrieval degraded, answering from history alone")
		} else if passage != "" {
			baseContext += "\nContext from document: " + passage
		}
	}

	baseContext = truncateContext(baseContext, m.budget)

	answer, err := m.gen.Generate(ctx, gateway.Request{
		Model:       req.Model,
		Instruction: persona.Instruction(),
		Context:     baseContext,
		Question:    req.Question,
	})
	if err != nil {
		return models.ChatTurn{}, err
	}

	// persist memory first: if the store fails the turn aborts with history
	// and memory both untouched
	memory += fmt.Sprintf("\nQ: %s\nA: %s", req.Question, answer)
	if err := m.store.Save(ctx, memory); err != nil {
		return models.ChatTurn{}, err
	}

	turn := models.ChatTurn{
		Question:  req.Question,
		Answer:    answer,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	s.turns = append(s.turns, turn)
	return turn, nil
}

// Clear empties both the in-memory turn sequence and the context store. It is
// only reachable between turns; the session lock guarantees that.
func (m *Manager) Clear(ctx context.Context, s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	s.turns = nil
	return nil
}

// History returns the ordered turn sequence.
func (m *Manager) History(s *Session) []models.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Transcript flattens the history into plain text suitable for download.
func (m *Manager) Transcript(s *Session) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, 0, len(s.turns))
	for _, t := range s.turns {
		lines = append(lines, fmt.Sprintf("You: %s\nBot: %s\nTimestamp: %s", t.Question, t.Answer, t.Timestamp))
	}
	return strings.Join(lines, "\n\n")
}

// buildBaseContext concatenates all persisted analysis records (read-only, no
// filtering) with the current stored memory. The memory is re-read from the
// store every turn so concurrent sessions observe each other's committed turns.
func (m *Manager) buildBaseContext(ctx context.Context) (base string, memory string, err error) {
	var b strings.Builder
	if m.analyses != nil {
		recs, err := m.analyses.LoadAll(ctx)
		if err != nil {
			return "", "", fmt.Errorf("loading analyses: %w", err)
		}
		for _, rec := range recs {
			b.WriteString(fmt.Sprintf("Analysis of %s (%s):\n%s\n", rec.Filename, rec.Timestamp.UTC().Format(time.RFC3339), rec.Result))
		}
	}
	memory, err = m.store.Load(ctx)
	if err != nil {
		return "", "", err
	}
	b.WriteString(memory)
	return b.String(), memory, nil
}

// retrievePassage chunks and embeds the session document once, embeds the
// question, and returns the single best-matching chunk. Zero chunks or
// zero-norm vectors mean "no relevant passage", not an error.
func (m *Manager) retrievePassage(ctx context.Context, s *Session, question string) (string, error) {
	if !s.chunked {
		texts := m.splitter.Split(s.documentText)
		if len(texts) > 0 {
			vectors, err := m.embedder.Embed(ctx, texts)
			if err != nil {
				return "", err
			}
			s.chunks = make([]models.Chunk, len(texts))
			for i, text := range texts {
				s.chunks[i] = models.Chunk{Index: i, Text: text, Vector: vectors[i]}
			}
		}
		s.chunked = true
	}
	if len(s.chunks) == 0 {
		return "", nil
	}

	queryVector, err := m.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return "", err
	}
	best := retriever.TopK(queryVector, s.chunks, 1)
	if len(best) == 0 || retriever.Cosine(queryVector, best[0].Vector) == 0 {
		return "", nil
	}
	return best[0].Text, nil
}

// truncateContext keeps the most recent suffix of an oversized context,
// preferring a cut at a turn boundary over a mid-word cut.
func truncateContext(s string, budget int) string {
	if budget <= 0 || len(s) <= budget {
		return s
	}
	cut := s[len(s)-budget:]
	if i := strings.Index(cut, "\nQ: "); i >= 0 {
		return cut[i:]
	}
	if i := strings.IndexAny(cut, " \n"); i >= 0 && i+1 < len(cut) {
		return cut[i+1:]
	}
	return cut
}
