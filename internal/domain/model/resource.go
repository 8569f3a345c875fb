package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

type FieldKind string

const (
	KindString  FieldKind = "string"
	KindInt     FieldKind = "integer"
	KindBool    FieldKind = "boolean"
	KindDecimal FieldKind = "decimal"
	KindDate    FieldKind = "date"
)

const DateLayout = "2006-01-02"

type Field struct {
	Name     string // JSON key and column name
	Kind     FieldKind
	Required bool
	Min      *float64 // inclusive lower bound for numeric kinds
	// References is the table this column points at, if any.
	References string
}

// Descriptor is the declarative metadata that drives the generic CRUD
// controller for one resource.
type Descriptor struct {
	Name   string // singular, used in messages ("Role_type not found.")
	Path   string // route segment under /api
	Table  string
	Key    string
	Fields []Field
}

// Validate checks that every identifier is safe to interpolate into SQL.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor: name is required")
	}
	idents := []string{d.Path, d.Table, d.Key}
	for _, f := range d.Fields {
		idents = append(idents, f.Name)
		if f.References != "" {
			idents = append(idents, f.References)
		}
	}
	for _, id := range idents {
		if !slug.IsSlug(id) {
			return fmt.Errorf("descriptor %s: %q is not a valid identifier", d.Name, id)
		}
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("descriptor %s: at least one field is required", d.Name)
	}
	return nil
}

// Columns returns the key followed by every field, in declaration order.
func (d Descriptor) Columns() []string {
	cols := make([]string, 0, len(d.Fields)+1)
	cols = append(cols, d.Key)
	for _, f := range d.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

func (d Descriptor) AddedMessage() string { return d.Name + " added successfully." }
func (d Descriptor) UpdatedMessage() string { return d.Name + " updated successfully." }
func (d Descriptor) DeletedMessage() string { return d.Name + " deleted successfully." }
func (d Descriptor) NotFoundMessage() string { return d.Name + " not found." }
func (d Descriptor) DanglingRefMessage() string { return d.Name + " references a missing record." }
func (d Descriptor) InUseMessage() string { return d.Name + " is still referenced." }

// Record holds decoded field values in descriptor order; nil means SQL NULL.
type Record struct {
	Names  []string
	Values []any
}

func (r Record) Get(name string) (any, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// FieldError describes why a request body was rejected.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Reason
}

// Decode validates a JSON object against the descriptor and converts every
// field to its canonical Go value: string, int64, bool, float64, or a
// YYYY-MM-DD string for dates.
func (d Descriptor) Decode(body map[string]json.RawMessage) (Record, error) {
	rec := Record{
		Names:  make([]string, 0, len(d.Fields)),
		Values: make([]any, 0, len(d.Fields)),
	}
	for _, f := range d.Fields {
		raw, present := body[f.Name]
		isNull := present && strings.TrimSpace(string(raw)) == "null"
		if !present || isNull {
			if f.Required {
				return Record{}, &FieldError{Field: f.Name, Reason: "Missing required field: " + f.Name + "."}
			}
			rec.Names = append(rec.Names, f.Name)
			rec.Values = append(rec.Values, nil)
			continue
		}

		v, err := f.decode(raw)
		if err != nil {
			return Record{}, err
		}
		rec.Names = append(rec.Names, f.Name)
		rec.Values = append(rec.Values, v)
	}
	return rec, nil
}

func (f Field) invalid(expected string) error {
	return &FieldError{Field: f.Name, Reason: fmt.Sprintf("Field %s must be %s.", f.Name, expected)}
}

func (f Field) decode(raw json.RawMessage) (any, error) {
	switch f.Kind {
	case KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, f.invalid("a string")
		}
		if f.Required && strings.TrimSpace(s) == "" {
			return nil, &FieldError{Field: f.Name, Reason: "Missing required field: " + f.Name + "."}
		}
		return s, nil

	case KindInt:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil || n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return nil, f.invalid("an integer")
		}
		if f.Min != nil && n < *f.Min {
			return nil, f.invalid(fmt.Sprintf("at least %g", *f.Min))
		}
		return int64(n), nil

	case KindDecimal:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, f.invalid("a number")
		}
		if f.Min != nil && n < *f.Min {
			return nil, f.invalid(fmt.Sprintf("at least %g", *f.Min))
		}
		return n, nil

	case KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, f.invalid("a boolean")
		}
		return b, nil

	case KindDate:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, f.invalid("a date (YYYY-MM-DD)")
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, f.invalid("a date (YYYY-MM-DD)")
		}
		return t.Format(DateLayout), nil
	}
	return nil, fmt.Errorf("field %s: unknown kind %q", f.Name, f.Kind)
}

// Normalize converts a value read back from the datastore to the same
// canonical form Decode produces.
func (f Field) Normalize(v any) any {
	switch f.Kind {
	case KindDate:
		switch t := v.(type) {
		case time.Time:
			return t.Format(DateLayout)
		case string:
			if len(t) >= len(DateLayout) {
				return t[:len(DateLayout)]
			}
		}
	case KindDecimal:
		switch n := v.(type) {
		case string:
			if f64, err := strconv.ParseFloat(n, 64); err == nil {
				return f64
			}
		case float32:
			return float64(n)
		}
	case KindInt:
		switch n := v.(type) {
		case int32:
			return int64(n)
		case int:
			return int64(n)
		}
	}
	return v
}
