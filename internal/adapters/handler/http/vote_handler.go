package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/ports"
)

type VoteHandler struct {
	sessions ports.SessionManager
}

func NewVoteHandler(sessions ports.SessionManager) *VoteHandler {
	return &VoteHandler{sessions: sessions}
}

// ListItems returns the caller's ranking snapshot.
func (h *VoteHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	session, ok := h.attach(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.Ranked())
}

type voteRequest struct {
	Kind domain.VoteKind `json:"kind"`
}

// CastVote applies one like/dislike click to an item.
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	if itemID == "" {
		http.Error(w, "item id is required", http.StatusBadRequest)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Kind.Valid() {
		http.Error(w, "kind must be like or dislike", http.StatusBadRequest)
		return
	}

	session, ok := h.attach(w, r)
	if !ok {
		return
	}

	if err := session.CastVote(r.Context(), itemID, req.Kind); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAuthorized):
			http.Error(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, domain.ErrItemUnknown), errors.Is(err, domain.ErrItemMissing):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrVoteInFlight):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			// The optimistic state was rolled back; the client should
			// refresh and may retry.
			http.Error(w, "vote failed, local state reverted", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, session.Ranked())
}

func (h *VoteHandler) attach(w http.ResponseWriter, r *http.Request) (ports.VoteSession, bool) {
	user, ok := userFromContext(r)
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return nil, false
	}

	session, err := h.sessions.Attach(r.Context(), user)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthorized) {
			http.Error(w, "verify your email to vote", http.StatusForbidden)
			return nil, false
		}
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return nil, false
	}
	return session, true
}
