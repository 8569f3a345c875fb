// Package dbtest provides a database.Gateway that records statements instead
// of talking to a server.
package dbtest

import (
	"context"
	"strings"
	"sync"

	"donor_registry/internal/platform/database"
)

type Call struct {
	Stmt string
	Args []any
}

// Recorder answers Execute with a fixed affected-row count and Query with
// queued results, in order.
type Recorder struct {
	mu       sync.Mutex
	Execs    []Call
	Queries  []Call
	Affected int64
	Err      error
	results  [][]database.Row
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// QueueResult appends the rows the next unanswered Query call returns.
func (r *Recorder) QueueResult(rows ...database.Row) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rows == nil {
		rows = []database.Row{}
	}
	r.results = append(r.results, rows)
	return r
}

func (r *Recorder) Execute(ctx context.Context, stmt string, args ...any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Execs = append(r.Execs, Call{Stmt: stmt, Args: args})
	if r.Err != nil {
		return 0, r.Err
	}
	return r.Affected, nil
}

func (r *Recorder) Query(ctx context.Context, stmt string, args ...any) ([]database.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Queries = append(r.Queries, Call{Stmt: stmt, Args: args})
	if r.Err != nil {
		return nil, r.Err
	}
	if len(r.results) == 0 {
		return []database.Row{}, nil
	}
	rows := r.results[0]
	r.results = r.results[1:]
	return rows, nil
}

// Writes counts every call that could have mutated data, including
// INSERT ... RETURNING statements issued through Query.
func (r *Recorder) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.Execs)
	for _, q := range r.Queries {
		if !strings.HasPrefix(strings.TrimSpace(strings.ToUpper(q.Stmt)), "SELECT") {
			n++
		}
	}
	return n
}
