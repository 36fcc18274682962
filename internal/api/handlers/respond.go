package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/writing-assistant/internal/api/middleware"
	"github.com/dom/writing-assistant/internal/domain"
	"github.com/dom/writing-assistant/internal/service"
	"github.com/dom/writing-assistant/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
)

const maxFormBytes = 1 << 20

// SessionIssuer writes and clears the session cookie.
type SessionIssuer interface {
	Create(w http.ResponseWriter, r *http.Request, userID uuid.UUID, remember bool, redirectTo string) error
	Destroy(w http.ResponseWriter, r *http.Request)
}

type CompletionResponse struct {
	Completion *domain.Completion `json:"completion"`
	Tokens     int                `json:"tokens"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// renderResult turns an orchestration result into a response.
func renderResult(w http.ResponseWriter, r *http.Request, sessions SessionIssuer, result *service.Result) {
	switch result.Kind {
	case service.KindSession:
		if err := sessions.Create(w, r, result.UserID, result.Remember, "/"); err != nil {
			serverError(w, r, err)
		}
	case service.KindRedirect:
		location := result.Location
		if location == "" {
			location = session.LoginPath
		}
		http.Redirect(w, r, location, http.StatusSeeOther)
	case service.KindInvalid:
		writeJSON(w, result.Status, result.Errors)
	case service.KindCompleted:
		writeJSON(w, http.StatusCreated, CompletionResponse{
			Completion: result.Completion,
			Tokens:     result.Tokens,
		})
	default:
		serverError(w, r, nil)
	}
}

// serverError logs err and answers with a body that carries no detail.
func serverError(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(middleware.GenericErrorBody))
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.FieldErrors{"form": "Invalid form data"})
		return false
	}
	return true
}
