package repository

import (
	"context"
	"fmt"
	"strings"

	"donor_registry/internal/common"
	"donor_registry/internal/domain/model"
	"donor_registry/internal/platform/database"
)

// ResourceRepository persists one descriptor-defined resource. Update and
// Delete report the affected-row count so callers can detect missing rows.
type ResourceRepository interface {
	Descriptor() model.Descriptor
	List(ctx context.Context) ([]database.Row, error)
	FindByID(ctx context.Context, id int64) ([]database.Row, error)
	Create(ctx context.Context, rec model.Record) (int64, error)
	Update(ctx context.Context, id int64, rec model.Record) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type pgResourceRepository struct {
	gw   database.Gateway
	desc model.Descriptor

	listQuery   string
	findQuery   string
	insertQuery string
	updateQuery string
	deleteQuery string
}

// NewPgResourceRepository prepares the statements for d. It panics if d
// fails validation, since its identifiers are interpolated into SQL.
func NewPgResourceRepository(gw database.Gateway, d model.Descriptor) ResourceRepository {
	if err := d.Validate(); err != nil {
		panic(err)
	}

	cols := strings.Join(d.Columns(), ", ")
	fieldNames := make([]string, len(d.Fields))
	placeholders := make([]string, len(d.Fields))
	assignments := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		fieldNames[i] = f.Name
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		assignments[i] = fmt.Sprintf("%s = $%d", f.Name, i+1)
	}

	return &pgResourceRepository{
		gw:        gw,
		desc:      d,
		listQuery: fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", cols, d.Table, d.Key),
		findQuery: fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", cols, d.Table, d.Key),
		insertQuery: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			d.Table, strings.Join(fieldNames, ", "), strings.Join(placeholders, ", "), d.Key),
		updateQuery: fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
			d.Table, strings.Join(assignments, ", "), d.Key, len(d.Fields)+1),
		deleteQuery: fmt.Sprintf("DELETE FROM %s WHERE %s = $1", d.Table, d.Key),
	}
}

func (r *pgResourceRepository) Descriptor() model.Descriptor {
	return r.desc
}

func (r *pgResourceRepository) List(ctx context.Context) ([]database.Row, error) {
	rows, err := r.gw.Query(ctx, r.listQuery)
	if err != nil {
		return nil, fmt.Errorf("pgResourceRepository.List(%s): %w", r.desc.Table, err)
	}
	return r.normalize(rows), nil
}

func (r *pgResourceRepository) FindByID(ctx context.Context, id int64) ([]database.Row, error) {
	rows, err := r.gw.Query(ctx, r.findQuery, id)
	if err != nil {
		return nil, fmt.Errorf("pgResourceRepository.FindByID(%s): %w", r.desc.Table, err)
	}
	return r.normalize(rows), nil
}

func (r *pgResourceRepository) Create(ctx context.Context, rec model.Record) (int64, error) {
	rows, err := r.gw.Query(ctx, r.insertQuery, rec.Values...)
	if err != nil {
		return 0, r.classifyWrite("Create", err)
	}
	if len(rows) != 1 {
		return 0, fmt.Errorf("pgResourceRepository.Create(%s): expected 1 row, got %d", r.desc.Table, len(rows))
	}
	id, _ := rows[0].Get(r.desc.Key)
	return toInt64(id), nil
}

func (r *pgResourceRepository) Update(ctx context.Context, id int64, rec model.Record) (int64, error) {
	args := append(append([]any{}, rec.Values...), id)
	n, err := r.gw.Execute(ctx, r.updateQuery, args...)
	if err != nil {
		return 0, r.classifyWrite("Update", err)
	}
	return n, nil
}

func (r *pgResourceRepository) Delete(ctx context.Context, id int64) (int64, error) {
	n, err := r.gw.Execute(ctx, r.deleteQuery, id)
	if err != nil {
		if common.PgErrorCode(err) == common.PgForeignKeyViolation {
			return 0, common.WrapError(common.ErrConflict, r.desc.InUseMessage(), err)
		}
		return 0, fmt.Errorf("pgResourceRepository.Delete(%s): %w", r.desc.Table, err)
	}
	return n, nil
}

func (r *pgResourceRepository) classifyWrite(op string, err error) error {
	switch common.PgErrorCode(err) {
	case common.PgForeignKeyViolation:
		return common.WrapError(common.ErrBadRequest, r.desc.DanglingRefMessage(), err)
	case common.PgCheckViolation, common.PgStringTooLong,
		common.PgNumericOutOfRange, common.PgInvalidTextRepresentation:
		return common.WrapError(common.ErrBadRequest, "Invalid "+r.desc.Name+".", err)
	}
	return fmt.Errorf("pgResourceRepository.%s(%s): %w", op, r.desc.Table, err)
}

func (r *pgResourceRepository) normalize(rows []database.Row) []database.Row {
	for _, row := range rows {
		for i := range row {
			for _, f := range r.desc.Fields {
				if f.Name == row[i].Name {
					row[i].Value = f.Normalize(row[i].Value)
					break
				}
			}
		}
	}
	return rows
}
