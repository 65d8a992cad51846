package graphstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
)

// ErrStoreUnavailable is domain.ErrStoreUnavailable; the Store wraps it with
// driver detail on every failed call.
var ErrStoreUnavailable = domain.ErrStoreUnavailable

// Row is one returned record, keyed by the Cypher RETURN alias.
type Row map[string]any

// ScoredNode is one hit from a vector index query.
type ScoredNode struct {
	Node  Row
	Score float64
}

// Store is the sole adapter between the formulation core and Neo4j.
type Store struct {
	opener sessionOpener
}

// New constructs a Store backed by a live driver.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{opener: &driverOpener{driver: driver}}
}

// NewWithOpener constructs a Store from any sessionOpener, letting callers
// outside this package (and its own tests) inject a fake session.
func NewWithOpener(o sessionOpener) *Store {
	return &Store{opener: o}
}

// RunRead executes a single read-only Cypher query and returns all rows.
func (s *Store) RunRead(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return collectRows(ctx, res)
}

// RunWrite executes txFn inside a single managed write transaction; every
// query issued through tx commits or rolls back atomically.
func (s *Store) RunWrite(ctx context.Context, txFn func(tx CypherRunner) (any, error)) (any, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	out, err := sess.ExecuteWrite(ctx, txFn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}

// VectorQuery runs a native vector index lookup for the top_k nearest nodes
// to vector, returning (node, score) pairs ordered by descending score.
func (s *Store) VectorQuery(ctx context.Context, indexName string, vector []float32, topK int) ([]ScoredNode, error) {
	cypher := `CALL db.index.vector.queryNodes($indexName, $topK, $vector)
		YIELD node, score
		RETURN node, score
		ORDER BY score DESC`
	rows, err := s.RunRead(ctx, cypher, map[string]any{
		"indexName": indexName,
		"topK":      topK,
		"vector":    vector,
	})
	if err != nil {
		return nil, err
	}

	out := make([]ScoredNode, 0, len(rows))
	for _, row := range rows {
		node, ok := row["node"].(Row)
		if !ok {
			continue
		}
		score, _ := row["score"].(float64)
		out = append(out, ScoredNode{Node: node, Score: score})
	}
	return out, nil
}

func collectRows(ctx context.Context, res CypherResult) ([]Row, error) {
	var rows []Row
	for res.Next(ctx) {
		rec := res.Record()
		row := make(Row, len(rec.Keys))
		for _, key := range rec.Keys {
			v, _ := rec.Get(key)
			row[key] = unwrapValue(v)
		}
		rows = append(rows, row)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return rows, nil
}

// unwrapValue converts driver node/relationship types into plain Rows so
// callers outside this package never import the neo4j driver.
func unwrapValue(v any) any {
	switch n := v.(type) {
	case dbtype.Node:
		props := make(Row, len(n.Props)+1)
		for k, pv := range n.Props {
			props[k] = pv
		}
		if len(n.Labels) > 0 {
			props["_label"] = n.Labels[0]
		}
		return props
	case dbtype.Relationship:
		props := make(Row, len(n.Props)+1)
		for k, pv := range n.Props {
			props[k] = pv
		}
		props["_type"] = n.Type
		return props
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = unwrapValue(e)
		}
		return out
	default:
		return v
	}
}

// IsUnavailable reports whether err carries ErrStoreUnavailable. Every driver
// error the Store returns carries it, so a query-level error against a
// reachable store is not told apart from an unreachable store.
func IsUnavailable(err error) bool {
	return errors.Is(err, domain.ErrStoreUnavailable)
}
