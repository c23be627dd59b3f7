package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/llm"
)

// EmbeddingStore is an in-process Store backed by embedding vectors and
// cosine similarity. Corpora are held in memory; the embedder is called once
// per inserted document and once per query.
type EmbeddingStore struct {
	mu       sync.RWMutex
	embedder llm.Embedder
	model    string
	logger   *zap.Logger

	ddl      []embeddedDoc
	docs     []embeddedDoc
	examples []embeddedExample
}

type embeddedDoc struct {
	id     string
	text   string
	vector []float32
}

type embeddedExample struct {
	id      string
	example SQLExample
	vector  []float32
}

// NewEmbeddingStore creates an empty store. model selects the embedding
// model; empty means the embedder's default.
func NewEmbeddingStore(embedder llm.Embedder, model string, logger *zap.Logger) *EmbeddingStore {
	return &EmbeddingStore{
		embedder: embedder,
		model:    model,
		logger:   logger.Named("knowledge"),
	}
}

// AddDDL implements Trainer.
func (s *EmbeddingStore) AddDDL(ctx context.Context, ddl string) error {
	vec, err := s.embedder.CreateEmbedding(ctx, ddl, s.model)
	if err != nil {
		return fmt.Errorf("embed ddl: %w", err)
	}
	s.mu.Lock()
	s.ddl = append(s.ddl, embeddedDoc{id: uuid.NewString(), text: ddl, vector: vec})
	s.mu.Unlock()
	return nil
}

// AddDocumentation implements Trainer.
func (s *EmbeddingStore) AddDocumentation(ctx context.Context, doc string) error {
	vec, err := s.embedder.CreateEmbedding(ctx, doc, s.model)
	if err != nil {
		return fmt.Errorf("embed documentation: %w", err)
	}
	s.mu.Lock()
	s.docs = append(s.docs, embeddedDoc{id: uuid.NewString(), text: doc, vector: vec})
	s.mu.Unlock()
	return nil
}

// AddQuestionSQL implements Trainer. The question text alone is embedded;
// retrieval matches question-to-question.
func (s *EmbeddingStore) AddQuestionSQL(ctx context.Context, question, sql string) error {
	vec, err := s.embedder.CreateEmbedding(ctx, question, s.model)
	if err != nil {
		return fmt.Errorf("embed question: %w", err)
	}
	s.mu.Lock()
	s.examples = append(s.examples, embeddedExample{
		id:      uuid.NewString(),
		example: SQLExample{Question: question, SQL: sql},
		vector:  vec,
	})
	s.mu.Unlock()
	return nil
}

// GetRelatedDDL implements Store.
func (s *EmbeddingStore) GetRelatedDDL(ctx context.Context, query string, n int) ([]string, error) {
	s.mu.RLock()
	corpus := s.ddl
	s.mu.RUnlock()
	return s.queryDocs(ctx, corpus, query, n)
}

// GetRelatedDocumentation implements Store.
func (s *EmbeddingStore) GetRelatedDocumentation(ctx context.Context, query string, n int) ([]string, error) {
	s.mu.RLock()
	corpus := s.docs
	s.mu.RUnlock()
	return s.queryDocs(ctx, corpus, query, n)
}

// GetSimilarQuestionSQL implements Store.
func (s *EmbeddingStore) GetSimilarQuestionSQL(ctx context.Context, query string, n int) ([]SQLExample, error) {
	s.mu.RLock()
	corpus := s.examples
	s.mu.RUnlock()

	if len(corpus) == 0 || n <= 0 {
		return nil, nil
	}

	qvec, err := s.embedder.CreateEmbedding(ctx, query, s.model)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		example SQLExample
		score   float64
	}
	ranked := make([]scored, 0, len(corpus))
	for _, e := range corpus {
		ranked = append(ranked, scored{example: e.example, score: cosineSimilarity(qvec, e.vector)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]SQLExample, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, r.example)
	}

	s.logger.Debug("similar question/SQL retrieved",
		zap.Int("corpus_size", len(corpus)),
		zap.Int("returned", len(out)))
	return out, nil
}

// ListTrainingData returns every stored entry across the three corpora, in
// insertion order per corpus.
func (s *EmbeddingStore) ListTrainingData() []TrainingItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TrainingItem, 0, len(s.ddl)+len(s.docs)+len(s.examples))
	for _, d := range s.ddl {
		out = append(out, TrainingItem{ID: d.id, Kind: KindDDL, Content: d.text})
	}
	for _, d := range s.docs {
		out = append(out, TrainingItem{ID: d.id, Kind: KindDocumentation, Content: d.text})
	}
	for _, e := range s.examples {
		out = append(out, TrainingItem{
			ID:      e.id,
			Kind:    KindSQL,
			Content: fmt.Sprintf("Question: %s\nAnswer: %s", e.example.Question, e.example.SQL),
		})
	}
	return out
}

// RemoveTrainingData deletes the entry with the given id. Returns false when
// no corpus holds it.
func (s *EmbeddingStore) RemoveTrainingData(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.ddl {
		if d.id == id {
			s.ddl = append(s.ddl[:i], s.ddl[i+1:]...)
			return true
		}
	}
	for i, d := range s.docs {
		if d.id == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			return true
		}
	}
	for i, e := range s.examples {
		if e.id == id {
			s.examples = append(s.examples[:i], s.examples[i+1:]...)
			return true
		}
	}
	return false
}

func (s *EmbeddingStore) queryDocs(ctx context.Context, corpus []embeddedDoc, query string, n int) ([]string, error) {
	if len(corpus) == 0 || n <= 0 {
		return nil, nil
	}

	qvec, err := s.embedder.CreateEmbedding(ctx, query, s.model)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		text  string
		score float64
	}
	ranked := make([]scored, 0, len(corpus))
	for _, d := range corpus {
		ranked = append(ranked, scored{text: d.text, score: cosineSimilarity(qvec, d.vector)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, r.text)
	}
	return out, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched lengths or zero-magnitude inputs.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
