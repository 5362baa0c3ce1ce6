package router_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/auth"
	authentity "github.com/ovaphlow/pitchfork/service-todo-go/internal/auth/entity"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/todo"
	todoentity "github.com/ovaphlow/pitchfork/service-todo-go/internal/todo/entity"
)

// in-memory stores backing the full HTTP stack under test

type memUserStore struct {
	nextID int64
	users  map[string]*authentity.User
}

func (m *memUserStore) Create(ctx context.Context, u *authentity.User) error {
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *memUserStore) GetByUsername(ctx context.Context, username string) (*authentity.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) GetByID(ctx context.Context, id int64) (*authentity.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type memTodoStore struct {
	nextID int64
	todos  map[int64]*todoentity.Todo
}

func (m *memTodoStore) Insert(ctx context.Context, t *todoentity.Todo) error {
	t.ID = m.nextID
	m.nextID++
	cp := *t
	m.todos[t.ID] = &cp
	return nil
}

func (m *memTodoStore) ListByOwner(ctx context.Context, ownerID int64) ([]todoentity.Todo, error) {
	out := []todoentity.Todo{}
	for _, t := range m.todos {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTodoStore) ListAll(ctx context.Context) ([]todoentity.Todo, error) {
	out := []todoentity.Todo{}
	for _, t := range m.todos {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTodoStore) GetOwned(ctx context.Context, id, ownerID int64, admin bool) (*todoentity.Todo, error) {
	t, ok := m.todos[id]
	if !ok || !(admin || t.OwnerID == ownerID) {
		return nil, sql.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *memTodoStore) UpdateOwned(ctx context.Context, t *todoentity.Todo, ownerID int64, admin bool) (int64, error) {
	existing, ok := m.todos[t.ID]
	if !ok || !(admin || existing.OwnerID == ownerID) {
		return 0, nil
	}
	existing.Title = t.Title
	existing.Description = t.Description
	existing.Priority = t.Priority
	existing.IsComplete = t.IsComplete
	return 1, nil
}

func (m *memTodoStore) DeleteOwned(ctx context.Context, id, ownerID int64, admin bool) (int64, error) {
	t, ok := m.todos[id]
	if !ok || !(admin || t.OwnerID == ownerID) {
		return 0, nil
	}
	delete(m.todos, id)
	return 1, nil
}

func newTestStack(t *testing.T) (http.Handler, *auth.TokenCodec) {
	t.Helper()
	logger := zap.NewNop().Sugar()
	codec := auth.NewTokenCodec(auth.TokenConfig{
		Secret:   "router-test-secret",
		Audience: "todomanager",
		TTL:      time.Hour,
	})
	userSvc := auth.NewUserService(nil, &memUserStore{nextID: 1, users: map[string]*authentity.User{}}, auth.BcryptHasher{Cost: 4})
	todoSvc := todo.NewService(nil, &memTodoStore{nextID: 1, todos: map[int64]*todoentity.Todo{}})
	h := router.Mount(logger, codec,
		auth.NewHandlerWithService(userSvc, codec, logger),
		todo.NewHandlerWithService(todoSvc, logger),
	)
	return h, codec
}

func register(t *testing.T, h http.Handler, username, password, role string) {
	t.Helper()
	body := `{"username":"` + username + `","email":"` + username + `@example.com","first_name":"Test","last_name":"User","password":"` + password + `","role":"` + role + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"status":"Success"}`, rec.Body.String())
}

func login(t *testing.T, h http.Handler, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out auth.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "Bearer", out.TokenType)
	require.NotEmpty(t, out.AccessToken)

	// login also sets the token as a cookie for browser clients
	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == auth.TokenCookieName && c.Value == out.AccessToken {
			found = true
		}
	}
	require.True(t, found, "access_token cookie not set")
	return out.AccessToken
}

func doJSON(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthcheck(t *testing.T) {
	h, _ := newTestStack(t)
	rec := doJSON(h, http.MethodGet, "/healthcheck", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"OK","message":"Up & Running!"}`, rec.Body.String())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h, _ := newTestStack(t)
	register(t, h, "alice", "secret123", "user")

	form := url.Values{"username": {"alice"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"msg":"invalid credentials"}`, rec.Body.String())
}

func TestRegisterLoginCreateTodo(t *testing.T) {
	h, codec := newTestStack(t)
	register(t, h, "alice", "secret123", "user")
	token := login(t, h, "alice", "secret123")

	claims, err := codec.Validate(token)
	require.NoError(t, err)

	rec := doJSON(h, http.MethodPost, "/todos", token,
		`{"title":"Buy milk","description":"2%!","priority":3,"is_complete":false}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created todoentity.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	require.Equal(t, claims.UserID, created.OwnerID)
	require.Equal(t, "Buy milk", created.Title)
}

func TestCrossUserGetIsNotFound(t *testing.T) {
	h, _ := newTestStack(t)
	register(t, h, "alice", "secret123", "user")
	register(t, h, "bob", "hunter22", "user")
	aliceTok := login(t, h, "alice", "secret123")
	bobTok := login(t, h, "bob", "hunter22")

	rec := doJSON(h, http.MethodPost, "/todos", aliceTok,
		`{"title":"Buy milk","description":"2%!","priority":3,"is_complete":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created todoentity.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	path := "/todos/" + strconv.FormatInt(created.ID, 10)
	rec = doJSON(h, http.MethodGet, path, bobTok, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(h, http.MethodGet, path, aliceTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	h, _ := newTestStack(t)
	register(t, h, "alice", "secret123", "user")

	expiredCodec := auth.NewTokenCodec(auth.TokenConfig{
		Secret:   "router-test-secret",
		Audience: "todomanager",
		TTL:      -time.Minute,
	})
	raw, err := expiredCodec.Issue(&authentity.User{ID: 1, Username: "alice", Role: authentity.RoleUser})
	require.NoError(t, err)

	rec := doJSON(h, http.MethodGet, "/todos", raw, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"msg":"Invalid token"}`, rec.Body.String())
}

func TestAdminListing(t *testing.T) {
	h, _ := newTestStack(t)
	register(t, h, "alice", "secret123", "user")
	register(t, h, "root", "toor12345", "admin")
	aliceTok := login(t, h, "alice", "secret123")
	rootTok := login(t, h, "root", "toor12345")

	rec := doJSON(h, http.MethodPost, "/todos", aliceTok,
		`{"title":"Buy milk","description":"2%!","priority":3,"is_complete":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(h, http.MethodPost, "/todos", rootTok,
		`{"title":"Rotate keys","description":"quarterly","priority":1,"is_complete":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// a user never reaches the administrative listing
	rec = doJSON(h, http.MethodGet, "/auth/todos", aliceTok, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(h, http.MethodGet, "/auth/todos", rootTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []todoentity.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 2)

	// the non-admin listing stays owner scoped
	rec = doJSON(h, http.MethodGet, "/todos", aliceTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var own []todoentity.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &own))
	require.Len(t, own, 1)
}

func TestInvalidPathID(t *testing.T) {
	h, _ := newTestStack(t)
	register(t, h, "alice", "secret123", "user")
	token := login(t, h, "alice", "secret123")

	for _, path := range []string{"/todos/0", "/todos/-1", "/todos/abc"} {
		rec := doJSON(h, http.MethodGet, path, token, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestUpdateAndDeleteFlow(t *testing.T) {
	h, _ := newTestStack(t)
	register(t, h, "alice", "secret123", "user")
	token := login(t, h, "alice", "secret123")

	rec := doJSON(h, http.MethodPost, "/todos", token,
		`{"title":"Buy milk","description":"2%!","priority":3,"is_complete":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created todoentity.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	path := "/todos/" + strconv.FormatInt(created.ID, 10)

	rec = doJSON(h, http.MethodPut, path, token,
		`{"title":"Buy oat milk","description":"the barista kind","priority":5,"is_complete":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"Updated Todo"}`, rec.Body.String())

	rec = doJSON(h, http.MethodDelete, path, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"Deleted Successfully"}`, rec.Body.String())

	// second delete of the same id is a plain 404
	rec = doJSON(h, http.MethodDelete, path, token, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
