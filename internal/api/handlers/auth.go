package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/writing-assistant/internal/api/middleware"
	"github.com/dom/writing-assistant/internal/domain"
	"github.com/dom/writing-assistant/internal/service"
)

const (
	modeLogin  = "login"
	modeSignup = "signup"
)

type AuthHandler struct {
	authService *service.AuthService
	sessions    SessionIssuer
}

func NewAuthHandler(authService *service.AuthService, sessions SessionIssuer) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

type IndexResponse struct {
	User *domain.Principal `json:"user"`
}

// Submit handles the login and signup form. The query parameter mode picks
// which one; it defaults to login.
func (h *AuthHandler) Submit(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = modeLogin
	}
	if mode != modeLogin && mode != modeSignup {
		writeJSON(w, http.StatusBadRequest, domain.FieldErrors{"mode": "Unknown mode"})
		return
	}

	if !parseForm(w, r) {
		return
	}

	input := service.Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Remember: r.PostForm.Has("remember"),
	}

	var (
		result *service.Result
		err    error
	)
	if mode == modeSignup {
		result, err = h.authService.Signup(r.Context(), input)
	} else {
		result, err = h.authService.Login(r.Context(), input)
	}
	if err != nil {
		serverError(w, r, err)
		return
	}

	renderResult(w, r, h.sessions, result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w, r)
}

// Index reports who is logged in, or a null user for anonymous visitors.
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	resp := IndexResponse{}

	if userID, ok := middleware.GetUserID(r.Context()); ok {
		user, err := h.authService.CurrentUser(r.Context(), userID)
		switch {
		case err == nil:
			resp.User = user
		case errors.Is(err, domain.ErrUserNotFound):
			// Cookie outlived its user; show the anonymous page.
		default:
			serverError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
