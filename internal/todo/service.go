package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/todo/entity"
	todorepo "github.com/ovaphlow/pitchfork/service-todo-go/internal/todo/repo"
)

// sentinel errors for common failure modes
var (
	// ErrNotFound covers both a genuinely absent todo and one owned by
	// another user: the two cases must stay indistinguishable.
	ErrNotFound   = errors.New("todo not found")
	ErrValidation = errors.New("validation failed")
)

// Store is the persistence surface the service needs. *repo.TodoRepo
// satisfies it; tests substitute an in-memory implementation.
type Store interface {
	Insert(ctx context.Context, t *entity.Todo) error
	ListByOwner(ctx context.Context, ownerID int64) ([]entity.Todo, error)
	ListAll(ctx context.Context) ([]entity.Todo, error)
	GetOwned(ctx context.Context, id, ownerID int64, admin bool) (*entity.Todo, error)
	UpdateOwned(ctx context.Context, t *entity.Todo, ownerID int64, admin bool) (int64, error)
	DeleteOwned(ctx context.Context, id, ownerID int64, admin bool) (int64, error)
}

// Service encapsulates ownership-scoped todo CRUD.
type Service struct {
	store Store
}

func NewService(db *sqlx.DB, store Store) *Service {
	if store == nil {
		store = todorepo.NewTodoRepo(db)
	}
	return &Service{store: store}
}

// Fields carries the mutable attributes accepted on create and update.
type Fields struct {
	Title       string
	Description string
	Priority    int
	IsComplete  bool
}

func (f Fields) validate() error {
	if utf8.RuneCountInString(f.Title) < 3 {
		return fmt.Errorf("%w: title must be at least 3 characters", ErrValidation)
	}
	if n := utf8.RuneCountInString(f.Description); n < 3 || n > 100 {
		return fmt.Errorf("%w: description must be between 3 and 100 characters", ErrValidation)
	}
	if f.Priority < 1 || f.Priority > 5 {
		return fmt.Errorf("%w: priority must be between 1 and 5", ErrValidation)
	}
	return nil
}

// List returns the caller's own todos, or every todo when the caller is an
// admin.
func (s *Service) List(ctx context.Context, caller auth.Caller) ([]entity.Todo, error) {
	if caller.IsAdmin() {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByOwner(ctx, caller.UserID)
}

// ListAll is the administrative listing across all owners. The role check
// happens at the routing layer; the service only refuses plainly non-admin
// callers as a second line.
func (s *Service) ListAll(ctx context.Context, caller auth.Caller) ([]entity.Todo, error) {
	if !caller.IsAdmin() {
		return nil, ErrNotFound
	}
	return s.store.ListAll(ctx)
}

// Get returns the todo only if it exists and the caller owns it (or is
// admin).
func (s *Service) Get(ctx context.Context, caller auth.Caller, id int64) (*entity.Todo, error) {
	t, err := s.store.GetOwned(ctx, id, caller.UserID, caller.IsAdmin())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Create validates fields and persists a todo stamped with the caller as
// owner. The stamp is unconditional: even an admin cannot create on another
// user's behalf.
func (s *Service) Create(ctx context.Context, caller auth.Caller, f Fields) (*entity.Todo, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	t := &entity.Todo{
		Title:       f.Title,
		Description: f.Description,
		Priority:    f.Priority,
		IsComplete:  f.IsComplete,
		OwnerID:     caller.UserID,
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces title, description, priority and is_complete in place.
// Ownership resolution matches Get; owner_id is immutable.
func (s *Service) Update(ctx context.Context, caller auth.Caller, id int64, f Fields) (*entity.Todo, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	t := &entity.Todo{
		ID:          id,
		Title:       f.Title,
		Description: f.Description,
		Priority:    f.Priority,
		IsComplete:  f.IsComplete,
	}
	rows, err := s.store.UpdateOwned(ctx, t, caller.UserID, caller.IsAdmin())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return t, nil
}

// Delete removes an owned todo. A repeat delete of the same id reports
// ErrNotFound, same as a todo that never existed.
func (s *Service) Delete(ctx context.Context, caller auth.Caller, id int64) error {
	rows, err := s.store.DeleteOwned(ctx, id, caller.UserID, caller.IsAdmin())
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
