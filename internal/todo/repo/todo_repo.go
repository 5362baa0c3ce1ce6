package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/todo/entity"
	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/utilities"
)

// TodoRepo provides data access for the todos table using sqlx. The
// ownership filter lives in the SQL itself: a row owned by someone else is
// indistinguishable from a missing row at this layer (zero rows either way).
type TodoRepo struct {
	db *sqlx.DB
}

func NewTodoRepo(db *sqlx.DB) *TodoRepo { return &TodoRepo{db: db} }

// EnsureTable creates the todos table if not exists (idempotent).
func (r *TodoRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS todos (
  id BIGINT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  priority INT NOT NULL DEFAULT 1,
  is_complete BOOLEAN NOT NULL DEFAULT false,
  owner_id BIGINT NOT NULL REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_todos_owner_id ON todos(owner_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Insert persists a new todo. The ID is assigned here and written back.
func (r *TodoRepo) Insert(ctx context.Context, t *entity.Todo) error {
	if t.ID == 0 {
		t.ID = utilities.NewID()
	}
	const q = `INSERT INTO todos (id, title, description, priority, is_complete, owner_id)
		VALUES (:id, :title, :description, :priority, :is_complete, :owner_id)`
	_, err := r.db.NamedExecContext(ctx, q, t)
	return err
}

// ListByOwner returns all todos owned by ownerID.
func (r *TodoRepo) ListByOwner(ctx context.Context, ownerID int64) ([]entity.Todo, error) {
	const q = `SELECT id, title, description, priority, is_complete, owner_id
		FROM todos WHERE owner_id = $1 ORDER BY id`
	todos := []entity.Todo{}
	if err := r.db.SelectContext(ctx, &todos, q, ownerID); err != nil {
		return nil, err
	}
	return todos, nil
}

// ListAll returns todos across all owners (administrative listing).
func (r *TodoRepo) ListAll(ctx context.Context) ([]entity.Todo, error) {
	const q = `SELECT id, title, description, priority, is_complete, owner_id
		FROM todos ORDER BY id`
	todos := []entity.Todo{}
	if err := r.db.SelectContext(ctx, &todos, q); err != nil {
		return nil, err
	}
	return todos, nil
}

// GetOwned fetches a todo by id scoped to the owner; admin bypasses the
// owner filter. Returns sql.ErrNoRows for absent and foreign rows alike.
func (r *TodoRepo) GetOwned(ctx context.Context, id, ownerID int64, admin bool) (*entity.Todo, error) {
	const q = `SELECT id, title, description, priority, is_complete, owner_id
		FROM todos WHERE id = $1 AND ($2 OR owner_id = $3)`
	var t entity.Todo
	if err := r.db.GetContext(ctx, &t, q, id, admin, ownerID); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateOwned replaces the mutable fields of an owned todo. owner_id is
// never written. Returns the number of rows touched (0 means absent or
// foreign).
func (r *TodoRepo) UpdateOwned(ctx context.Context, t *entity.Todo, ownerID int64, admin bool) (int64, error) {
	const q = `UPDATE todos SET title = $1, description = $2, priority = $3, is_complete = $4
		WHERE id = $5 AND ($6 OR owner_id = $7)`
	res, err := r.db.ExecContext(ctx, q, t.Title, t.Description, t.Priority, t.IsComplete, t.ID, admin, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteOwned removes an owned todo. Returns rows touched.
func (r *TodoRepo) DeleteOwned(ctx context.Context, id, ownerID int64, admin bool) (int64, error) {
	const q = `DELETE FROM todos WHERE id = $1 AND ($2 OR owner_id = $3)`
	res, err := r.db.ExecContext(ctx, q, id, admin, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
