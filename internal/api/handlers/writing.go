package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/writing-assistant/internal/api/middleware"
	"github.com/dom/writing-assistant/internal/domain"
	"github.com/dom/writing-assistant/internal/service"
	"github.com/dom/writing-assistant/internal/session"
)

type WritingHandler struct {
	writingService *service.WritingService
	sessions       SessionIssuer
}

func NewWritingHandler(writingService *service.WritingService, sessions SessionIssuer) *WritingHandler {
	return &WritingHandler{writingService: writingService, sessions: sessions}
}

func (h *WritingHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
		return
	}

	page, err := h.writingService.Page(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
			return
		}
		serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *WritingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
		return
	}

	if !parseForm(w, r) {
		return
	}

	result, err := h.writingService.Submit(r.Context(), userID, service.Submission{
		Prompt: r.PostFormValue("prompt"),
		Tokens: r.PostFormValue("tokens"),
	})
	if err != nil {
		serverError(w, r, err)
		return
	}

	renderResult(w, r, h.sessions, result)
}
