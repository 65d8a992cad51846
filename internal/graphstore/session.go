// Package graphstore is the single adapter between the formulation core and
// Neo4j: read/write Cypher execution, schema bootstrap, and native vector
// index queries. Outside this package, only cmd/server (to construct the
// driver) and test fakes import the neo4j driver.
package graphstore

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CypherResult is the minimal interface needed from a neo4j result,
// grounded on pkg/repo/neo4j.go's result interface.
type CypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// CypherRunner is the minimal interface needed to run one query, whether
// against a plain session or inside a managed transaction.
type CypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error)
}

// CypherSession is a runner that additionally supports committing a batch of
// writes atomically and must be closed after use.
type CypherSession interface {
	CypherRunner
	ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error)
	Close(ctx context.Context) error
}

// sessionOpener abstracts session creation so Store is testable without a
// live database.
type sessionOpener interface {
	OpenSession(ctx context.Context) CypherSession
}

// driverOpener is the production sessionOpener, backed by a real driver.
type driverOpener struct {
	driver neo4j.DriverWithContext
}

func (o *driverOpener) OpenSession(ctx context.Context) CypherSession {
	return &neo4jSession{sess: o.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

// neo4jSession adapts neo4j.SessionWithContext to CypherSession.
type neo4jSession struct {
	sess neo4j.SessionWithContext
}

func (s *neo4jSession) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	res, err := s.sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return &neo4jResult{res: res}, nil
}

func (s *neo4jSession) ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	return s.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(&neo4jTx{tx: tx})
	})
}

func (s *neo4jSession) Close(ctx context.Context) error { return s.sess.Close(ctx) }

type neo4jTx struct {
	tx neo4j.ManagedTransaction
}

func (t *neo4jTx) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return &neo4jResult{res: res}, nil
}

// neo4jResult adapts neo4j.ResultWithContext to CypherResult.
type neo4jResult struct {
	res neo4j.ResultWithContext
}

func (r *neo4jResult) Next(ctx context.Context) bool { return r.res.Next(ctx) }
func (r *neo4jResult) Record() *neo4j.Record         { return r.res.Record() }
func (r *neo4jResult) Err() error                    { return r.res.Err() }
