package graphstore

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type mockResult struct {
	records []*neo4j.Record
	idx     int
	err     error
}

func (r *mockResult) Next(_ context.Context) bool {
	if r.idx < len(r.records) {
		r.idx++
		return true
	}
	return false
}

func (r *mockResult) Record() *neo4j.Record {
	if r.idx <= 0 || r.idx > len(r.records) {
		return nil
	}
	return r.records[r.idx-1]
}

func (r *mockResult) Err() error { return r.err }

type mockSession struct {
	runResult CypherResult
	runErr    error
	writeErr  error
	closed    bool
}

func (s *mockSession) Run(_ context.Context, _ string, _ map[string]any) (CypherResult, error) {
	return s.runResult, s.runErr
}

func (s *mockSession) ExecuteWrite(_ context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	return work(&mockTx{})
}

func (s *mockSession) Close(_ context.Context) error {
	s.closed = true
	return nil
}

type mockTx struct{}

func (t *mockTx) Run(_ context.Context, _ string, _ map[string]any) (CypherResult, error) {
	return &mockResult{}, nil
}

type mockOpener struct {
	session *mockSession
}

func (o *mockOpener) OpenSession(_ context.Context) CypherSession { return o.session }

func makeRecord(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func TestStore_RunRead_CollectsRows(t *testing.T) {
	rec := makeRecord([]string{"name"}, []any{"Oat Flour"})
	sess := &mockSession{runResult: &mockResult{records: []*neo4j.Record{rec}}}
	store := NewWithOpener(&mockOpener{session: sess})

	rows, err := store.RunRead(context.Background(), "MATCH (n) RETURN n.name AS name", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Oat Flour" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if !sess.closed {
		t.Fatal("expected session to be closed")
	}
}

func TestStore_RunRead_WrapsUnavailable(t *testing.T) {
	sess := &mockSession{runErr: errors.New("connection refused")}
	store := NewWithOpener(&mockOpener{session: sess})

	_, err := store.RunRead(context.Background(), "RETURN 1", nil)
	if !IsUnavailable(err) {
		t.Fatalf("expected IsUnavailable(err) to be true, got %v", err)
	}
}

func TestStore_RunWrite_CommitsThroughTx(t *testing.T) {
	sess := &mockSession{}
	store := NewWithOpener(&mockOpener{session: sess})

	calls := 0
	_, err := store.RunWrite(context.Background(), func(tx CypherRunner) (any, error) {
		calls++
		_, err := tx.Run(context.Background(), "CREATE (n:X)", nil)
		return nil, err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected txFn to be called once, got %d", calls)
	}
}

func TestStore_RunWrite_PropagatesError(t *testing.T) {
	sess := &mockSession{writeErr: errors.New("deadlock")}
	store := NewWithOpener(&mockOpener{session: sess})

	_, err := store.RunWrite(context.Background(), func(tx CypherRunner) (any, error) { return nil, nil })
	if !IsUnavailable(err) {
		t.Fatalf("expected IsUnavailable(err) to be true, got %v", err)
	}
}
