package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Gateway is the narrow datastore surface the rest of the application talks to.
type Gateway interface {
	// Execute runs a write statement and reports the affected-row count.
	Execute(ctx context.Context, stmt string, args ...any) (int64, error)
	// Query runs a read statement and returns every row.
	Query(ctx context.Context, stmt string, args ...any) ([]Row, error)
}

type Column struct {
	Name  string
	Value any
}

// Row is a field map that remembers column order.
type Row []Column

func (r Row) Get(name string) (any, bool) {
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type SQLGateway struct {
	db *sql.DB
}

func NewSQLGateway(db *sql.DB) *SQLGateway {
	return &SQLGateway{db: db}
}

func (g *SQLGateway) Execute(ctx context.Context, stmt string, args ...any) (int64, error) {
	res, err := g.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (g *SQLGateway) Query(ctx context.Context, stmt string, args ...any) ([]Row, error) {
	rows, err := g.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, name := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[i] = Column{Name: name, Value: v}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
