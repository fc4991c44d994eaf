package vectorstore

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStore is a brute-force cosine-similarity store used in development
// and tests. Vectors are compared unnormalized via dot product over the
// normalized inputs produced by the embedder.
type MemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]*namespaceData
}

type namespaceData struct {
	passages []Passage
	vectors  [][]float32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		namespaces: make(map[string]*namespaceData),
	}
}

func (s *MemoryStore) Upsert(_ context.Context, namespace string, passages []Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return errors.New("passages and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = &namespaceData{}
		s.namespaces[namespace] = ns
	}
	byID := make(map[string]int, len(ns.passages))
	for i, p := range ns.passages {
		byID[p.ID] = i
	}
	for i, p := range passages {
		// Re-indexing a document overwrites its previous vectors.
		if at, ok := byID[p.ID]; ok {
			ns.passages[at] = p
			ns.vectors[at] = vectors[i]
			continue
		}
		byID[p.ID] = len(ns.passages)
		ns.passages = append(ns.passages, p)
		ns.vectors = append(ns.vectors, vectors[i])
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, namespace string, vector []float32, topK int) ([]Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.namespaces[namespace]
	if !ok || len(ns.passages) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(ns.vectors))
	for i, v := range ns.vectors {
		scores[i] = scored{idx: i, score: dot(v, vector)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]Passage, 0, topK)
	for i := 0; i < topK; i++ {
		p := ns.passages[scores[i].idx]
		p.Score = scores[i].score
		results = append(results, p)
	}
	return results, nil
}

func (s *MemoryStore) DeleteNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	return nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
