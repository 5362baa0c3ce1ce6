package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/auth/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-todo-go/internal/auth/repo"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// UserStore is the persistence surface the service needs. *repo.UserRepo
// satisfies it; tests substitute an in-memory implementation.
type UserStore interface {
	Create(ctx context.Context, u *entity.User) error
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrValidation     = errors.New("validation failed")
)

// UserService orchestrates credential verification and registration.
type UserService struct {
	store  UserStore
	hasher PasswordHasher
}

func NewUserService(db *sqlx.DB, store UserStore, hasher PasswordHasher) *UserService {
	if store == nil {
		store = userrepo.NewUserRepo(db)
	}
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &UserService{store: store, hasher: hasher}
}

// Authenticate verifies a username/password pair. An unknown username and a
// wrong password both yield ErrBadCredentials so callers cannot probe which
// usernames are registered.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// RegisterRequest carries the fields accepted at registration.
type RegisterRequest struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

func (r RegisterRequest) validate() error {
	if utf8.RuneCountInString(r.Username) < 3 {
		return fmt.Errorf("%w: username must be at least 3 characters", ErrValidation)
	}
	if utf8.RuneCountInString(r.FirstName) < 2 {
		return fmt.Errorf("%w: first_name must be at least 2 characters", ErrValidation)
	}
	if utf8.RuneCountInString(r.LastName) < 2 {
		return fmt.Errorf("%w: last_name must be at least 2 characters", ErrValidation)
	}
	if strings.TrimSpace(r.Role) == "" {
		return fmt.Errorf("%w: role is required", ErrValidation)
	}
	return nil
}

// Register validates the request, hashes the password and persists the user
// with active=true. The returned record carries the assigned ID; the hash is
// never serialized by handlers.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type usersFile struct {
	Users []struct {
		Username  string `yaml:"username"`
		Email     string `yaml:"email"`
		FirstName string `yaml:"first_name"`
		LastName  string `yaml:"last_name"`
		Password  string `yaml:"password"`
		Role      string `yaml:"role"`
	} `yaml:"users"`
}

// SeedFromFile provisions bootstrap accounts (typically the first admin)
// from a YAML file. A missing file is not an error; existing usernames are
// left untouched.
func (s *UserService) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return err
	}
	for _, u := range uf.Users {
		if u.Username == "" || u.Password == "" {
			continue
		}
		if _, err := s.store.GetByUsername(ctx, u.Username); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		_, err := s.Register(ctx, RegisterRequest{
			Username:  u.Username,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Password:  u.Password,
			Role:      u.Role,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
