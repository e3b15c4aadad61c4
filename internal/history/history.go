package history

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"secassist/internal/analysis"
	"secassist/internal/embedding"
)

const collectionName = "analysis_history"

// Match is one past analysis result relevant to a search query.
type Match struct {
	ID         string
	Filename   string
	Result     string
	Similarity float32
}

// Index is a persistent vector index over accumulated tool analyses, so the
// assistant can search prior results instead of only concatenating them.
// Embeddings always come from the given provider, never from chromem itself.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embedding.Provider
}

func Open(path string, embedder embedding.Provider) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open history index: %w", err)
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &Index{db: db, collection: collection, embedder: embedder}, nil
}

// Add indexes one analysis record.
func (ix *Index) Add(ctx context.Context, rec analysis.Record) error {
	if rec.Result == "" {
		return nil
	}
	vector, err := ix.embedder.EmbedQuery(ctx, rec.Result)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:        uuid.NewString(),
		Content:   rec.Result,
		Embedding: vector,
		Metadata: map[string]string{
			"analysis_id": strconv.FormatInt(rec.ID, 10),
			"filename":    rec.Filename,
			"timestamp":   rec.Timestamp.UTC().Format(time.RFC3339),
		},
	}
	if err := ix.collection.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	return nil
}

// Search returns up to n past analyses ranked by similarity to the query.
func (ix *Index) Search(ctx context.Context, query string, n int) ([]Match, error) {
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if n <= 0 || n > count {
		n = count
	}
	vector, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	results, err := ix.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			ID:         r.ID,
			Filename:   r.Metadata["filename"],
			Result:     r.Content,
			Similarity: r.Similarity,
		})
	}
	log.Debug().Int("matches", len(matches)).Msg("history search complete")
	return matches, nil
}
