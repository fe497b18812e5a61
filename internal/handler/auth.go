package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/voicememo/server/internal/ctxkeys"
	"github.com/voicememo/server/internal/model"
	"github.com/voicememo/server/internal/service"
)

type authHandler struct {
	responder
	authService *service.AuthService
	userService *service.UserService
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, production bool) *authHandler {
	return &authHandler{
		responder:   responder{production: production},
		authService: authService,
		userService: userService,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}
}

func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.authService.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	slog.Info("user signed up", "user_id", user.ID)
	h.issueToken(w, r, user, http.StatusCreated)
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	h.issueToken(w, r, user, http.StatusOK)
}

func (h *authHandler) issueToken(w http.ResponseWriter, r *http.Request, user *model.User, status int) {
	token, expiresAt, err := h.authService.GenerateJWT(user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	_ = h.writeJSON(w, status, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		User:      toUserResponse(user),
	})
}

func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	_ = h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

// DeleteMe removes the account and, through the foreign key, all of its recordings
func (h *authHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.userService.Delete(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	slog.Info("account deleted", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}
