package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"wallpaper/internal/domain"
)

const maxSelectionBody = 4 << 10

// TogglePause flips pause/resume.
func (a *App) TogglePause(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Wallpapers.TogglePause(r.Context())
	if err != nil {
		a.controlError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newStateView(snap))
}

// Regenerate forces a new cycle.
func (a *App) Regenerate(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Wallpapers.Regenerate(r.Context())
	if err != nil {
		a.controlError(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, newStateView(snap))
}

// UpdateSelection applies a partial selection and starts a cycle.
func (a *App) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxSelectionBody))
	dec.DisallowUnknownFields()
	var patch domain.SelectionPatch
	if err := dec.Decode(&patch); err != nil {
		if errors.Is(err, io.EOF) {
			a.error(w, http.StatusBadRequest, "bad_request", "empty payload")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if patch.IsEmpty() {
		a.error(w, http.StatusBadRequest, "bad_request", "no selection fields provided")
		return
	}
	snap, err := a.Wallpapers.SetSelection(r.Context(), patch)
	if err != nil {
		a.controlError(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, newStateView(snap))
}

// SelectHistory shows a past wallpaper and pauses the cycle.
func (a *App) SelectHistory(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "missing id")
		return
	}
	snap, err := a.Wallpapers.SelectHistory(r.Context(), id)
	if err != nil {
		a.controlError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newStateView(snap))
}
