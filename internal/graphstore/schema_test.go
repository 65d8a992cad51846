package graphstore

import (
	"context"
	"strings"
	"testing"
)

func TestBootstrap_IssuesConstraintsAndVectorIndex(t *testing.T) {
	var cyphers []string
	sess := &recordingSession{onRun: func(cypher string) { cyphers = append(cyphers, cypher) }}
	store := NewWithOpener(&recordingOpener{sess: sess})

	if err := store.Bootstrap(context.Background(), 768); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	foundVectorIndex := false
	foundCompositeConstraint := false
	for _, c := range cyphers {
		if strings.Contains(c, "db.index.vector.createNodeIndex") {
			foundVectorIndex = true
		}
		if strings.Contains(c, "formulationId, n.version") {
			foundCompositeConstraint = true
		}
	}
	if !foundVectorIndex {
		t.Fatal("expected a vector index bootstrap statement")
	}
	if !foundCompositeConstraint {
		t.Fatal("expected the NutritionLabel (formulationId,version) composite constraint")
	}
	if len(cyphers) != len(constraintKeys)+2 {
		t.Fatalf("expected %d statements, got %d", len(constraintKeys)+2, len(cyphers))
	}
}

type recordingSession struct {
	onRun func(cypher string)
}

func (s *recordingSession) Run(_ context.Context, cypher string, _ map[string]any) (CypherResult, error) {
	s.onRun(cypher)
	return &mockResult{}, nil
}

func (s *recordingSession) ExecuteWrite(_ context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	return work(s)
}

func (s *recordingSession) Close(_ context.Context) error { return nil }

type recordingOpener struct {
	sess *recordingSession
}

func (o *recordingOpener) OpenSession(_ context.Context) CypherSession { return o.sess }
