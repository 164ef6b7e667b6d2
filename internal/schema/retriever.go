package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"reportbot/internal/llm"
	"reportbot/internal/repository"
)

// Match is a schema document scored against a search query.
type Match struct {
	TableName  string  `json:"table_name"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// Retriever finds the schema documents most relevant to a natural
// language query using embedding similarity.
type Retriever struct {
	repo     *repository.SchemaRepository
	embedder llm.Embedder
	logger   *zap.Logger
}

func NewRetriever(repo *repository.SchemaRepository, embedder llm.Embedder, logger *zap.Logger) *Retriever {
	return &Retriever{repo: repo, embedder: embedder, logger: logger}
}

// Search embeds the query and returns the top-k documents ranked by cosine
// similarity. Equal scores keep storage order, so results are deterministic.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]Match, error) {
	if k <= 0 {
		k = 3
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query failed: %w", err)
	}

	docs, err := r.repo.ListOrdered()
	if err != nil {
		return nil, fmt.Errorf("loading schema documents failed: %w", err)
	}

	matches := make([]Match, 0, len(docs))
	for _, doc := range docs {
		var docVec []float32
		if err := json.Unmarshal([]byte(doc.Embedding), &docVec); err != nil {
			r.logger.Warn("Skipping schema document with bad embedding",
				zap.String("table", doc.Table), zap.Error(err))
			continue
		}
		matches = append(matches, Match{
			TableName:  doc.Table,
			Content:    doc.Content,
			Similarity: CosineSimilarity(queryVec, docVec),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
