package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	userrepo "github.com/ovaphlow/pitchfork/service-todo-go/internal/auth/repo"
)

// Handler exposes HTTP endpoints for authentication (token issuance) and
// user registration.
type Handler struct {
	svc    *UserService
	codec  *TokenCodec
	logger *zap.SugaredLogger
}

func NewHandler(db *sqlx.DB, codec *TokenCodec, logger *zap.SugaredLogger) *Handler {
	svc := NewUserService(db, nil, nil)
	return &Handler{svc: svc, codec: codec, logger: logger}
}

// NewHandlerWithService wires an explicit service, used by tests.
func NewHandlerWithService(svc *UserService, codec *TokenCodec, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, codec: codec, logger: logger}
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token handles POST /auth/token: form-encoded username/password in,
// bearer token out. The token is additionally set as a cookie for
// browser clients.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "invalid request"})
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	u, err := h.svc.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			h.logger.Debugw("login rejected", "username", username)
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "invalid credentials"})
			return
		}
		h.logger.Errorw("login failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "login failed"})
		return
	}

	raw, err := h.codec.Issue(u)
	if err != nil {
		h.logger.Errorw("token issue failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "login failed"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    raw,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.writeJSON(w, http.StatusOK, TokenResponse{AccessToken: raw, TokenType: "Bearer"})
}

// CreateUserRequest is the registration request body.
type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// CreateUser handles POST /auth/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid registration payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "invalid payload"})
		return
	}
	_, err := h.svc.Register(r.Context(), RegisterRequest{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"msg": err.Error()})
		case errors.Is(err, userrepo.ErrUsernameTaken):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "username already taken"})
		default:
			h.logger.Errorw("registration failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "registration failed"})
		}
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "Success"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
