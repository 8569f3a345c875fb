package repository

import (
	"context"
	"sync"
	"time"

	"donor_registry/internal/common"
	"donor_registry/internal/domain/model"
	"donor_registry/internal/platform/database"
)

// MemoryStore is an in-process datastore selected with STORAGE_BACKEND=memory.
// It enforces the same foreign keys as the relational schema: writes that
// point at a missing row fail, and deleting a referenced row is refused.
type MemoryStore struct {
	mu          sync.RWMutex
	descriptors map[string]model.Descriptor
	tables      map[string]*memTable
	users       map[string]model.User
	nextUserID  int64
}

type memTable struct {
	nextID int64
	rows   []database.Row
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		descriptors: map[string]model.Descriptor{},
		tables:      map[string]*memTable{},
		users:       map[string]model.User{},
	}
}

func (s *MemoryStore) Users() UserRepository {
	return &memoryUserRepository{store: s}
}

// Resource registers d with the store and returns its repository.
func (s *MemoryStore) Resource(d model.Descriptor) ResourceRepository {
	if err := d.Validate(); err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptors[d.Table] = d
	s.table(d.Table)
	return &memoryResourceRepository{store: s, desc: d}
}

// table must be called with mu held for writing.
func (s *MemoryStore) table(name string) *memTable {
	t, ok := s.tables[name]
	if !ok {
		t = &memTable{nextID: 1}
		s.tables[name] = t
	}
	return t
}

func (t *memTable) index(key string, id int64) int {
	for i, row := range t.rows {
		if v, _ := row.Get(key); toInt64(v) == id {
			return i
		}
	}
	return -1
}

func cloneRow(row database.Row) database.Row {
	return append(database.Row(nil), row...)
}

type memoryResourceRepository struct {
	store *MemoryStore
	desc  model.Descriptor
}

func (r *memoryResourceRepository) Descriptor() model.Descriptor {
	return r.desc
}

func (r *memoryResourceRepository) List(ctx context.Context) ([]database.Row, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	t := r.store.tables[r.desc.Table]
	rows := make([]database.Row, 0, len(t.rows))
	for _, row := range t.rows {
		rows = append(rows, cloneRow(row))
	}
	return rows, nil
}

func (r *memoryResourceRepository) FindByID(ctx context.Context, id int64) ([]database.Row, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	t := r.store.tables[r.desc.Table]
	rows := make([]database.Row, 0, 1)
	if i := t.index(r.desc.Key, id); i >= 0 {
		rows = append(rows, cloneRow(t.rows[i]))
	}
	return rows, nil
}

func (r *memoryResourceRepository) Create(ctx context.Context, rec model.Record) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.checkReferences(rec); err != nil {
		return 0, err
	}
	t := r.store.tables[r.desc.Table]
	id := t.nextID
	t.nextID++
	t.rows = append(t.rows, r.buildRow(id, rec))
	return id, nil
}

func (r *memoryResourceRepository) Update(ctx context.Context, id int64, rec model.Record) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t := r.store.tables[r.desc.Table]
	i := t.index(r.desc.Key, id)
	if i < 0 {
		return 0, nil
	}
	if err := r.checkReferences(rec); err != nil {
		return 0, err
	}
	t.rows[i] = r.buildRow(id, rec)
	return 1, nil
}

func (r *memoryResourceRepository) Delete(ctx context.Context, id int64) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t := r.store.tables[r.desc.Table]
	i := t.index(r.desc.Key, id)
	if i < 0 {
		return 0, nil
	}
	if r.isReferenced(id) {
		return 0, common.NewError(common.ErrConflict, r.desc.InUseMessage())
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return 1, nil
}

func (r *memoryResourceRepository) buildRow(id int64, rec model.Record) database.Row {
	row := make(database.Row, 0, len(rec.Names)+1)
	row = append(row, database.Column{Name: r.desc.Key, Value: id})
	for i, name := range rec.Names {
		row = append(row, database.Column{Name: name, Value: rec.Values[i]})
	}
	return row
}

func (r *memoryResourceRepository) checkReferences(rec model.Record) error {
	for _, f := range r.desc.Fields {
		if f.References == "" {
			continue
		}
		v, ok := rec.Get(f.Name)
		if !ok || v == nil {
			continue
		}
		target := r.store.table(f.References)
		key := "id"
		if d, ok := r.store.descriptors[f.References]; ok {
			key = d.Key
		}
		if target.index(key, toInt64(v)) < 0 {
			return common.NewError(common.ErrBadRequest, r.desc.DanglingRefMessage())
		}
	}
	return nil
}

func (r *memoryResourceRepository) isReferenced(id int64) bool {
	for table, d := range r.store.descriptors {
		for _, f := range d.Fields {
			if f.References != r.desc.Table {
				continue
			}
			for _, row := range r.store.tables[table].rows {
				if v, _ := row.Get(f.Name); v != nil && toInt64(v) == id {
					return true
				}
			}
		}
	}
	return false
}

type memoryUserRepository struct {
	store *MemoryStore
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.users[user.Username]; exists {
		return common.NewError(common.ErrConflict, "Username already exists.")
	}
	r.store.nextUserID++
	user.ID = r.store.nextUserID
	user.CreatedAt = time.Now().UTC()
	r.store.users[user.Username] = *user
	return nil
}

func (r *memoryUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &user, nil
}
